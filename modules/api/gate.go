package api

// AuthorizerKey is the fiber locals key holding the authorizer context.
const AuthorizerKey = "authorizer"

// Authorizer context shapes.
const (
	ShapeJWT    = "jwt"
	ShapeClaims = "claims"
)

// Subject returns the verified caller subject from an authorizer context.
// The nested jwt.claims.sub is consulted first, then a flat claims.sub.
// Anything missing, mistyped or empty reports false.
func Subject(authorizer map[string]any) (string, bool) {
	if authorizer == nil {
		return "", false
	}
	if jwt, ok := authorizer["jwt"].(map[string]any); ok {
		if sub, ok := subjectOf(jwt["claims"]); ok {
			return sub, true
		}
	}
	return subjectOf(authorizer["claims"])
}

func subjectOf(claims any) (string, bool) {
	m, ok := claims.(map[string]any)
	if !ok {
		return "", false
	}
	sub, ok := m["sub"].(string)
	if !ok || sub == "" {
		return "", false
	}
	return sub, true
}

// NewAuthorizer builds an authorizer context of the given shape around claims.
// Unknown shapes fall back to the jwt shape.
func NewAuthorizer(shape string, claims map[string]any) map[string]any {
	if shape == ShapeClaims {
		return map[string]any{"claims": claims}
	}
	return map[string]any{"jwt": map[string]any{"claims": claims}}
}
