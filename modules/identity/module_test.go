package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupModule(t *testing.T, fake *fakeProvider) *IdentityModule {
	t.Helper()

	svc, _ := setupService(t, testConfig(), fake)
	return &IdentityModule{cfg: testConfig(), service: svc}
}

func TestIdentityModule_HandleRegister(t *testing.T) {
	m := setupModule(t, &fakeProvider{})

	resp, err := m.handleRegister(context.Background(), RegisterRequest{
		Username: "alice",
		Password: "password123",
		Email:    "alice@example.com",
	}, nil)
	require.NoError(t, err)
	assert.Empty(t, resp.Error)
	require.NotNil(t, resp.Result)
	assert.Equal(t, "sub-alice", resp.Result.UserSub)
}

func TestIdentityModule_HandleRegisterFailure(t *testing.T) {
	m := setupModule(t, &fakeProvider{signUpErr: ErrUsernameExists})

	resp, err := m.handleRegister(context.Background(), RegisterRequest{Username: "alice"}, nil)
	require.NoError(t, err)
	assert.Nil(t, resp.Result)
	assert.Equal(t, MsgSignupFailed, resp.Error)
}

func TestIdentityModule_HandleLoginFailure(t *testing.T) {
	m := setupModule(t, &fakeProvider{authErr: ErrInvalidCredentials})

	resp, err := m.handleLogin(context.Background(), LoginRequest{Username: "alice", Password: "x"}, nil)
	require.NoError(t, err)
	assert.Equal(t, MsgLoginFailed, resp.Error)
}

func TestIdentityModule_HandleVerifyToken(t *testing.T) {
	m := setupModule(t, &fakeProvider{})

	resp, err := m.handleVerifyToken(context.Background(), VerifyTokenRequest{Token: "good"}, nil)
	require.NoError(t, err)
	assert.True(t, resp.Valid)
	require.NotNil(t, resp.Claims)
	assert.Equal(t, "sub-1", resp.Claims.Subject)

	resp, err = m.handleVerifyToken(context.Background(), VerifyTokenRequest{Token: "bad"}, nil)
	require.NoError(t, err)
	assert.False(t, resp.Valid)
	assert.Equal(t, ErrInvalidToken.Error(), resp.Error)
}

func TestIdentityModule_Health(t *testing.T) {
	m := setupModule(t, &fakeProvider{})

	status := m.Health(context.Background())
	assert.True(t, status.Healthy)
	assert.Equal(t, "provider not initialized yet", status.Message)

	_, err := m.service.VerifyToken(context.Background(), "good")
	require.NoError(t, err)

	status = m.Health(context.Background())
	assert.True(t, status.Healthy)
	assert.Equal(t, "fake", status.Details["provider"])
}

func TestVerifyError(t *testing.T) {
	assert.ErrorIs(t, verifyError("token has expired"), ErrExpiredToken)
	assert.ErrorIs(t, verifyError("invalid token"), ErrInvalidToken)
	assert.ErrorIs(t, verifyError(""), ErrInvalidToken)
	assert.ErrorIs(t, verifyError("something else"), ErrInvalidToken)
}

func TestNewIdentityAdapter_NilContainer(t *testing.T) {
	assert.Panics(t, func() { NewIdentityAdapter(nil) })
}
