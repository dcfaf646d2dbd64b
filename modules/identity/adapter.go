package identity

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/example/serverless-task-api/domain/user"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// IdentityPort defines the identity operations other modules use.
type IdentityPort interface {
	Register(ctx context.Context, req *RegisterRequest) (*user.SignUpResult, error)
	Login(ctx context.Context, req *LoginRequest) (*user.AuthResult, error)
	VerifyToken(ctx context.Context, token string) (*user.Claims, error)
}

// identityAdapter implements IdentityPort over the service container.
type identityAdapter struct {
	container mono.ServiceContainer
}

// NewIdentityAdapter creates a new adapter for identity services.
func NewIdentityAdapter(container mono.ServiceContainer) IdentityPort {
	if container == nil {
		panic("identity adapter requires non-nil ServiceContainer")
	}
	return &identityAdapter{container: container}
}

// Register signs a user up via the register service. Every failure is a
// *Failure whose message is safe to show the caller.
func (a *identityAdapter) Register(ctx context.Context, req *RegisterRequest) (*user.SignUpResult, error) {
	var resp RegisterResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"register",
		json.Marshal,
		json.Unmarshal,
		req,
		&resp,
	); err != nil {
		return nil, &Failure{Message: MsgSignupFailed, Err: fmt.Errorf("register service call failed: %w", err)}
	}
	if resp.Error != "" {
		return nil, &Failure{Message: resp.Error}
	}
	if resp.Result == nil {
		return nil, &Failure{Message: MsgSignupFailed}
	}
	return resp.Result, nil
}

// Login authenticates via the login service.
func (a *identityAdapter) Login(ctx context.Context, req *LoginRequest) (*user.AuthResult, error) {
	var resp LoginResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"login",
		json.Marshal,
		json.Unmarshal,
		req,
		&resp,
	); err != nil {
		return nil, &Failure{Message: MsgLoginFailed, Err: fmt.Errorf("login service call failed: %w", err)}
	}
	if resp.Error != "" {
		return nil, &Failure{Message: resp.Error}
	}
	if resp.Result == nil {
		return nil, &Failure{Message: MsgLoginFailed}
	}
	return resp.Result, nil
}

// VerifyToken verifies a bearer token via the verify-token service.
func (a *identityAdapter) VerifyToken(ctx context.Context, token string) (*user.Claims, error) {
	req := VerifyTokenRequest{Token: token}
	var resp VerifyTokenResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"verify-token",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("verify-token service call failed: %w", err)
	}

	if !resp.Valid || resp.Claims == nil {
		return nil, verifyError(resp.Error)
	}
	return resp.Claims, nil
}

func verifyError(msg string) error {
	if msg == ErrExpiredToken.Error() {
		return ErrExpiredToken
	}
	if msg == "" || msg == ErrInvalidToken.Error() {
		return ErrInvalidToken
	}
	return fmt.Errorf("%w: %s", ErrInvalidToken, msg)
}
