package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/example/serverless-task-api/config"
	"github.com/example/serverless-task-api/storage"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// IdentityModule provides registration, login and token verification services.
type IdentityModule struct {
	cfg     *config.Config
	service *Service
}

// Compile-time interface checks.
var _ mono.Module = (*IdentityModule)(nil)
var _ mono.ServiceProviderModule = (*IdentityModule)(nil)
var _ mono.HealthCheckableModule = (*IdentityModule)(nil)

// NewModule creates a new IdentityModule. User profiles are written to users;
// the provider is chosen by IDENTITY_PROVIDER.
func NewModule(cfg *config.Config, users storage.UserStore) *IdentityModule {
	return NewModuleWithProvider(cfg, ProviderFromConfig(cfg), users)
}

// NewModuleWithProvider creates a new IdentityModule with an explicit provider constructor.
func NewModuleWithProvider(cfg *config.Config, build ProviderFunc, users storage.UserStore) *IdentityModule {
	return &IdentityModule{
		cfg:     cfg,
		service: NewService(cfg, build, users),
	}
}

// Name returns the module name.
func (m *IdentityModule) Name() string {
	return "identity"
}

// Start starts the module. The provider is built on first use.
func (m *IdentityModule) Start(_ context.Context) error {
	log.Printf("[identity] Module started (provider: %s)", m.cfg.String(config.KeyIdentityProvider))
	return nil
}

// Stop closes the provider.
func (m *IdentityModule) Stop(_ context.Context) error {
	if err := m.service.Close(); err != nil {
		log.Printf("[identity] Failed to close provider: %v", err)
	}
	log.Println("[identity] Module stopped")
	return nil
}

// Health returns the health status of the module.
func (m *IdentityModule) Health(ctx context.Context) mono.HealthStatus {
	p := m.service.provider.current()
	if p == nil {
		return mono.HealthStatus{
			Healthy: true,
			Message: "provider not initialized yet",
		}
	}

	if pinger, ok := p.(interface{ Ping(context.Context) error }); ok {
		if err := pinger.Ping(ctx); err != nil {
			return mono.HealthStatus{
				Healthy: false,
				Message: fmt.Sprintf("provider ping failed: %v", err),
			}
		}
	}

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"provider": p.Name(),
		},
	}
}

// RegisterServices registers request-reply services in the service container.
func (m *IdentityModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container,
		"register",
		json.Unmarshal,
		json.Marshal,
		m.handleRegister,
	); err != nil {
		return fmt.Errorf("failed to register register service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container,
		"login",
		json.Unmarshal,
		json.Marshal,
		m.handleLogin,
	); err != nil {
		return fmt.Errorf("failed to register login service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container,
		"verify-token",
		json.Unmarshal,
		json.Marshal,
		m.handleVerifyToken,
	); err != nil {
		return fmt.Errorf("failed to register verify-token service: %w", err)
	}

	log.Printf("[identity] Registered services: register, login, verify-token")
	return nil
}

// handleRegister reports failures in the response so the message reaches the caller verbatim.
func (m *IdentityModule) handleRegister(ctx context.Context, req RegisterRequest, _ *mono.Msg) (RegisterResponse, error) {
	result, err := m.service.Register(ctx, req.Username, req.Password, req.Email)
	if err != nil {
		return RegisterResponse{Error: err.Error()}, nil
	}
	return RegisterResponse{Result: result}, nil
}

func (m *IdentityModule) handleLogin(ctx context.Context, req LoginRequest, _ *mono.Msg) (LoginResponse, error) {
	result, err := m.service.Login(ctx, req.Username, req.Password)
	if err != nil {
		return LoginResponse{Error: err.Error()}, nil
	}
	return LoginResponse{Result: result}, nil
}

func (m *IdentityModule) handleVerifyToken(ctx context.Context, req VerifyTokenRequest, _ *mono.Msg) (VerifyTokenResponse, error) {
	claims, err := m.service.VerifyToken(ctx, req.Token)
	if err != nil {
		errMsg := ErrInvalidToken.Error()
		switch {
		case errors.Is(err, ErrExpiredToken):
			errMsg = ErrExpiredToken.Error()
		case !errors.Is(err, ErrInvalidToken):
			log.Printf("[identity] Token verification failed: %v", err)
		}
		return VerifyTokenResponse{
			Valid: false,
			Error: errMsg,
		}, nil
	}

	return VerifyTokenResponse{
		Valid:  true,
		Claims: claims,
	}, nil
}
