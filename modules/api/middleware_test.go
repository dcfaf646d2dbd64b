package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/example/serverless-task-api/domain/user"
	"github.com/example/serverless-task-api/modules/identity"
	"github.com/gofiber/fiber/v2"
)

// mockIdentityPort implements identity.IdentityPort for testing.
type mockIdentityPort struct {
	registerFunc func(ctx context.Context, req *identity.RegisterRequest) (*user.SignUpResult, error)
	loginFunc    func(ctx context.Context, req *identity.LoginRequest) (*user.AuthResult, error)
	verifyFunc   func(ctx context.Context, token string) (*user.Claims, error)
}

func (m *mockIdentityPort) Register(ctx context.Context, req *identity.RegisterRequest) (*user.SignUpResult, error) {
	if m.registerFunc != nil {
		return m.registerFunc(ctx, req)
	}
	return nil, errors.New("not implemented")
}

func (m *mockIdentityPort) Login(ctx context.Context, req *identity.LoginRequest) (*user.AuthResult, error) {
	if m.loginFunc != nil {
		return m.loginFunc(ctx, req)
	}
	return nil, errors.New("not implemented")
}

func (m *mockIdentityPort) VerifyToken(ctx context.Context, token string) (*user.Claims, error) {
	if m.verifyFunc != nil {
		return m.verifyFunc(ctx, token)
	}
	return nil, identity.ErrInvalidToken
}

// tokenPerUser accepts "<user>-token" and rejects everything else.
func tokenPerUser() *mockIdentityPort {
	return &mockIdentityPort{
		verifyFunc: func(_ context.Context, token string) (*user.Claims, error) {
			sub, ok := strings.CutSuffix(token, "-token")
			if !ok || sub == "" {
				return nil, identity.ErrInvalidToken
			}
			return &user.Claims{Subject: sub, TokenUse: identity.TokenUseAccess}, nil
		},
	}
}

func TestAuthenticate(t *testing.T) {
	tests := []struct {
		name           string
		authHeader     string
		shape          string
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "no header passes through",
			authHeader:     "",
			shape:          ShapeJWT,
			expectedStatus: http.StatusOK,
			expectedBody:   `"sub":""`,
		},
		{
			name:           "bearer token jwt shape",
			authHeader:     "Bearer u1-token",
			shape:          ShapeJWT,
			expectedStatus: http.StatusOK,
			expectedBody:   `"sub":"u1"`,
		},
		{
			name:           "raw token claims shape",
			authHeader:     "u2-token",
			shape:          ShapeClaims,
			expectedStatus: http.StatusOK,
			expectedBody:   `"sub":"u2"`,
		},
		{
			name:           "lowercase bearer",
			authHeader:     "bearer u3-token",
			shape:          ShapeJWT,
			expectedStatus: http.StatusOK,
			expectedBody:   `"sub":"u3"`,
		},
		{
			name:           "invalid token",
			authHeader:     "Bearer garbage",
			shape:          ShapeJWT,
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `{"message":"Unauthorized"}`,
		},
		{
			name:           "bearer without token",
			authHeader:     "Bearer",
			shape:          ShapeJWT,
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `{"message":"Unauthorized"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Use(Authenticate(tokenPerUser(), tt.shape))
			app.Get("/test", func(c *fiber.Ctx) error {
				authorizer, _ := c.Locals(AuthorizerKey).(map[string]any)
				sub, _ := Subject(authorizer)
				return c.JSON(fiber.Map{"sub": sub})
			})

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			resp, err := app.Test(req, -1)
			if err != nil {
				t.Fatalf("app.Test() error = %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.expectedStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.expectedStatus)
			}

			body, _ := io.ReadAll(resp.Body)
			if !strings.Contains(string(body), tt.expectedBody) {
				t.Errorf("body = %s, want to contain %s", body, tt.expectedBody)
			}
		})
	}
}

func TestAuthenticate_ShapeInLocals(t *testing.T) {
	app := fiber.New()
	app.Use(Authenticate(tokenPerUser(), ShapeClaims))
	app.Get("/test", func(c *fiber.Ctx) error {
		authorizer, _ := c.Locals(AuthorizerKey).(map[string]any)
		if _, ok := authorizer["jwt"]; ok {
			return c.SendStatus(fiber.StatusTeapot)
		}
		if _, ok := authorizer["claims"]; !ok {
			return c.SendStatus(fiber.StatusTeapot)
		}
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer u1-token")

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
}

func TestBearerToken(t *testing.T) {
	tests := map[string]string{
		"Bearer abc":   "abc",
		"bearer abc":   "abc",
		"BEARER  abc ": "abc",
		"abc":          "abc",
		"Bearer":       "",
		"  ":           "",
	}

	for header, want := range tests {
		if got := bearerToken(header); got != want {
			t.Errorf("bearerToken(%q) = %q, want %q", header, got, want)
		}
	}
}
