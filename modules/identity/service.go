package identity

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/example/serverless-task-api/config"
	"github.com/example/serverless-task-api/domain/user"
	"github.com/example/serverless-task-api/storage"
)

// Caller-facing failure messages.
const (
	MsgSignupFailed  = "Signup failed"
	MsgLoginFailed   = "Login failed"
	MsgPoolNotFound  = "Failed to connect to AWS User Pool"
	MsgUsersNotFound = "Users Table not found on AWS DynamoDB"
)

// Provider names understood by ProviderFromConfig.
const (
	ProviderLocal   = "local"
	ProviderCognito = "cognito"
)

const refreshTokenDuration = 30 * 24 * time.Hour

// Failure is a register or login failure as reported to the caller. The
// provider error, when there is one, stays reachable through Unwrap.
type Failure struct {
	Message string
	Err     error
}

func (f *Failure) Error() string {
	return f.Message
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Service implements registration, login and token verification.
type Service struct {
	cfg      *config.Config
	provider *lazyProvider
	users    storage.UserStore
	now      func() time.Time
}

// NewService creates a new Service. The provider is built on first use.
func NewService(cfg *config.Config, build ProviderFunc, users storage.UserStore) *Service {
	return &Service{
		cfg:      cfg,
		provider: newLazyProvider(build),
		users:    users,
		now:      time.Now,
	}
}

// poolKeys lists the settings that identify the user pool for the
// configured provider.
func (s *Service) poolKeys() []string {
	if s.cfg.String(config.KeyIdentityProvider) == ProviderCognito {
		return []string{config.KeyRegion, config.KeyUserPoolID, config.KeyClientID}
	}
	return []string{config.KeyUserPoolID, config.KeyClientID, config.KeyJWTSecret}
}

// Register signs the user up, confirms them and stores their profile.
func (s *Service) Register(ctx context.Context, username, password, email string) (*user.SignUpResult, error) {
	if err := s.cfg.RequireAll(MsgPoolNotFound, s.poolKeys()...); err != nil {
		return nil, err
	}
	if err := s.cfg.RequireAll(MsgUsersNotFound, config.KeyUsersTable); err != nil {
		return nil, err
	}

	result, err := s.signUp(ctx, username, password, email)
	if err != nil {
		log.Printf("[identity] Signup failed for %q: %v", username, err)
		var cfgErr *config.Error
		if errors.As(err, &cfgErr) {
			return nil, err
		}
		return nil, &Failure{Message: MsgSignupFailed, Err: err}
	}

	log.Printf("[identity] Registered user %s (%s)", username, result.UserSub)
	return result, nil
}

func (s *Service) signUp(ctx context.Context, username, password, email string) (*user.SignUpResult, error) {
	p, err := s.provider.get(ctx)
	if err != nil {
		return nil, err
	}

	result, err := p.SignUp(ctx, username, password, email)
	if err != nil {
		return nil, err
	}

	if err := p.ConfirmSignUp(ctx, username); err != nil {
		return nil, fmt.Errorf("confirm sign-up: %w", err)
	}

	profile := &user.User{
		UserID:    result.UserSub,
		Username:  username,
		Email:     email,
		CreatedAt: s.now().UTC(),
	}
	if err := s.users.PutUser(ctx, profile); err != nil {
		return nil, fmt.Errorf("store user profile: %w", err)
	}

	return result, nil
}

// Login authenticates with username and password.
func (s *Service) Login(ctx context.Context, username, password string) (*user.AuthResult, error) {
	if err := s.cfg.RequireAll(MsgPoolNotFound, s.poolKeys()...); err != nil {
		return nil, err
	}

	p, err := s.provider.get(ctx)
	if err == nil {
		var result *user.AuthResult
		result, err = p.InitiateAuth(ctx, username, password)
		if err == nil {
			return result, nil
		}
	}

	log.Printf("[identity] Login failed for %q: %v", username, err)
	var cfgErr *config.Error
	if errors.As(err, &cfgErr) {
		return nil, err
	}
	return nil, &Failure{Message: MsgLoginFailed, Err: err}
}

// VerifyToken resolves a bearer token to its claims.
func (s *Service) VerifyToken(ctx context.Context, token string) (*user.Claims, error) {
	p, err := s.provider.get(ctx)
	if err != nil {
		return nil, err
	}
	return p.VerifyToken(ctx, token)
}

// Close releases the provider if it was built.
func (s *Service) Close() error {
	return s.provider.close()
}

// ProviderFromConfig returns a ProviderFunc for the provider named by
// IDENTITY_PROVIDER. Required settings are read when the provider is built.
func ProviderFromConfig(cfg *config.Config) ProviderFunc {
	return func(ctx context.Context) (Provider, error) {
		switch name := cfg.String(config.KeyIdentityProvider); name {
		case ProviderCognito:
			if err := cfg.RequireAll(MsgPoolNotFound, config.KeyRegion, config.KeyUserPoolID, config.KeyClientID); err != nil {
				return nil, err
			}
			return OpenCognitoProvider(ctx,
				cfg.String(config.KeyRegion),
				cfg.String(config.KeyUserPoolID),
				cfg.String(config.KeyClientID),
			)

		case ProviderLocal:
			if err := cfg.RequireAll(MsgPoolNotFound, config.KeyUserPoolID, config.KeyClientID, config.KeyJWTSecret); err != nil {
				return nil, err
			}
			jwtManager := NewJWTManager(JWTConfig{
				SecretKey:            cfg.String(config.KeyJWTSecret),
				Issuer:               cfg.String(config.KeyUserPoolID),
				Audience:             cfg.String(config.KeyClientID),
				AccessTokenDuration:  cfg.Duration(config.KeyAccessTokenTTL),
				RefreshTokenDuration: refreshTokenDuration,
			})
			return OpenLocalProvider(cfg.String(config.KeyIdentityDBPath), NewPasswordHasher(), jwtManager)

		default:
			return nil, fmt.Errorf("unknown identity provider %q", name)
		}
	}
}
