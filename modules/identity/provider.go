package identity

import (
	"context"
	"errors"
	"sync"

	"github.com/example/serverless-task-api/domain/user"
)

var (
	// ErrInvalidCredentials is returned when a username/password pair does not match.
	ErrInvalidCredentials = errors.New("incorrect username or password")
	// ErrUsernameExists is returned when signing up with a taken username.
	ErrUsernameExists = errors.New("user already exists")
	// ErrUserNotFound is returned when the named user does not exist.
	ErrUserNotFound = errors.New("user does not exist")
	// ErrUserNotConfirmed is returned when signing in before confirmation.
	ErrUserNotConfirmed = errors.New("user is not confirmed")
)

// Provider is an identity provider: it owns credentials and issues and
// verifies bearer tokens.
type Provider interface {
	Name() string
	SignUp(ctx context.Context, username, password, email string) (*user.SignUpResult, error)
	ConfirmSignUp(ctx context.Context, username string) error
	InitiateAuth(ctx context.Context, username, password string) (*user.AuthResult, error)
	VerifyToken(ctx context.Context, token string) (*user.Claims, error)
	Close() error
}

// ProviderFunc builds a provider.
type ProviderFunc func(ctx context.Context) (Provider, error)

// lazyProvider builds its provider on first use and keeps it for the process.
// A failed build is retried on the next call.
type lazyProvider struct {
	mu       sync.Mutex
	build    ProviderFunc
	provider Provider
}

func newLazyProvider(build ProviderFunc) *lazyProvider {
	return &lazyProvider{build: build}
}

func (l *lazyProvider) get(ctx context.Context) (Provider, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.provider != nil {
		return l.provider, nil
	}
	p, err := l.build(ctx)
	if err != nil {
		return nil, err
	}
	l.provider = p
	return p, nil
}

// current returns the provider if it has been built, without building it.
func (l *lazyProvider) current() Provider {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.provider
}

func (l *lazyProvider) close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.provider == nil {
		return nil
	}
	err := l.provider.Close()
	l.provider = nil
	return err
}
