package identity

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/example/serverless-task-api/domain/user"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	// ErrInvalidEmail is returned when email format is invalid.
	ErrInvalidEmail = errors.New("invalid email format")
	// ErrWeakPassword is returned when password is too weak.
	ErrWeakPassword = errors.New("password must be at least 8 characters")
	// ErrPasswordTooLong is returned when password exceeds bcrypt's 72-byte limit.
	ErrPasswordTooLong = errors.New("password must be at most 72 characters")
	// ErrUsernameRequired is returned when signing up without a username.
	ErrUsernameRequired = errors.New("username is required")
)

// credential is a locally managed account.
type credential struct {
	Subject      string `gorm:"primaryKey;type:text"`
	Username     string `gorm:"uniqueIndex;not null;type:text"`
	Email        string `gorm:"type:text"`
	PasswordHash string `gorm:"not null;type:text"`
	Confirmed    bool   `gorm:"not null;default:false"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (credential) TableName() string {
	return "credentials"
}

// LocalProvider is a self-hosted user pool: bcrypt password hashes in SQLite
// and HS256 tokens whose issuer is the pool id and audience the client id.
type LocalProvider struct {
	db     *gorm.DB
	hasher *PasswordHasher
	jwt    *JWTManager
}

var _ Provider = (*LocalProvider)(nil)

// OpenLocalProvider opens the credentials database at path.
func OpenLocalProvider(path string, hasher *PasswordHasher, jwtManager *JWTManager) (*LocalProvider, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if path == ":memory:" {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.SetMaxOpenConns(1)
		}
	}

	if err := db.AutoMigrate(&credential{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &LocalProvider{db: db, hasher: hasher, jwt: jwtManager}, nil
}

// Name returns "local".
func (p *LocalProvider) Name() string {
	return "local"
}

// SignUp creates an unconfirmed account.
func (p *LocalProvider) SignUp(ctx context.Context, username, password, email string) (*user.SignUpResult, error) {
	if username == "" {
		return nil, ErrUsernameRequired
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmail
	}
	if len(password) < 8 {
		return nil, ErrWeakPassword
	}
	if len(password) > 72 {
		return nil, ErrPasswordTooLong
	}

	hash, err := p.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	cred := &credential{
		Subject:      uuid.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := p.db.WithContext(ctx).Create(cred).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUsernameExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &user.SignUpResult{
		UserConfirmed: false,
		UserSub:       cred.Subject,
	}, nil
}

// ConfirmSignUp marks the account confirmed.
func (p *LocalProvider) ConfirmSignUp(ctx context.Context, username string) error {
	result := p.db.WithContext(ctx).Model(&credential{}).
		Where("username = ?", username).
		Updates(map[string]any{"confirmed": true, "updated_at": time.Now()})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// InitiateAuth verifies the password and issues access, id and refresh tokens.
func (p *LocalProvider) InitiateAuth(ctx context.Context, username, password string) (*user.AuthResult, error) {
	var cred credential
	if err := p.db.WithContext(ctx).Where("username = ?", username).Take(&cred).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !p.hasher.Verify(password, cred.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	if !cred.Confirmed {
		return nil, ErrUserNotConfirmed
	}

	accessToken, err := p.jwt.GenerateAccessToken(cred.Subject, cred.Username, cred.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	idToken, err := p.jwt.GenerateIDToken(cred.Subject, cred.Username, cred.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate id token: %w", err)
	}
	refreshToken, err := p.jwt.GenerateRefreshToken(cred.Subject, cred.Username, cred.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &user.AuthResult{
		AuthenticationResult: &user.Tokens{
			AccessToken:  accessToken,
			ExpiresIn:    p.jwt.AccessTokenDuration(),
			IdToken:      idToken,
			RefreshToken: refreshToken,
			TokenType:    "Bearer",
		},
		ChallengeParameters: map[string]string{},
	}, nil
}

// VerifyToken validates an access or id token issued by this provider.
func (p *LocalProvider) VerifyToken(_ context.Context, token string) (*user.Claims, error) {
	claims, err := p.jwt.ValidateBearerToken(token)
	if err != nil {
		return nil, err
	}
	return &user.Claims{
		Subject:  claims.Subject,
		Username: claims.Username,
		Email:    claims.Email,
		TokenUse: claims.TokenUse,
	}, nil
}

// Ping checks the credentials database.
func (p *LocalProvider) Ping(ctx context.Context) error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the credentials database.
func (p *LocalProvider) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
