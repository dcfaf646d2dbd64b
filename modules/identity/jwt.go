package identity

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned when the token is invalid.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned when the token has expired.
	ErrExpiredToken = errors.New("token has expired")
)

// Token uses, matching the token_use claim of a managed user pool.
const (
	TokenUseAccess  = "access"
	TokenUseID      = "id"
	TokenUseRefresh = "refresh"
)

// JWTConfig holds JWT configuration.
type JWTConfig struct {
	SecretKey            string
	Issuer               string // user pool id
	Audience             string // app client id
	AccessTokenDuration  time.Duration
	RefreshTokenDuration time.Duration
}

// JWTClaims represents the custom claims for issued tokens.
type JWTClaims struct {
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	TokenUse string `json:"token_use"`
	jwt.RegisteredClaims
}

// JWTManager handles JWT token operations.
type JWTManager struct {
	config JWTConfig
}

// NewJWTManager creates a new JWTManager with the given configuration.
func NewJWTManager(config JWTConfig) *JWTManager {
	return &JWTManager{
		config: config,
	}
}

// GenerateAccessToken generates a new access token for the given subject.
func (m *JWTManager) GenerateAccessToken(subject, username, email string) (string, error) {
	return m.generateToken(subject, username, email, TokenUseAccess, m.config.AccessTokenDuration)
}

// GenerateIDToken generates a new id token for the given subject.
func (m *JWTManager) GenerateIDToken(subject, username, email string) (string, error) {
	return m.generateToken(subject, username, email, TokenUseID, m.config.AccessTokenDuration)
}

// GenerateRefreshToken generates a new refresh token for the given subject.
func (m *JWTManager) GenerateRefreshToken(subject, username, email string) (string, error) {
	return m.generateToken(subject, username, email, TokenUseRefresh, m.config.RefreshTokenDuration)
}

func (m *JWTManager) generateToken(subject, username, email, use string, duration time.Duration) (string, error) {
	now := time.Now()
	claims := JWTClaims{
		Username: username,
		Email:    email,
		TokenUse: use,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.config.Issuer,
			Subject:   subject,
			Audience:  jwt.ClaimStrings{m.config.Audience},
			ExpiresAt: jwt.NewNumericDate(now.Add(duration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(m.config.SecretKey))
}

// ValidateToken validates signature, issuer, audience and expiry.
func (m *JWTManager) ValidateToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(m.config.SecretKey), nil
	}, jwt.WithIssuer(m.config.Issuer), jwt.WithAudience(m.config.Audience))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// ValidateBearerToken accepts access and id tokens, the two kinds a client may
// present in an Authorization header.
func (m *JWTManager) ValidateBearerToken(tokenString string) (*JWTClaims, error) {
	claims, err := m.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}

	if claims.TokenUse != TokenUseAccess && claims.TokenUse != TokenUseID {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// AccessTokenDuration returns the access token duration in seconds.
func (m *JWTManager) AccessTokenDuration() int32 {
	return int32(m.config.AccessTokenDuration.Seconds())
}
