package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v3"
)

// AuthMiddleware guards the admin API with a static bearer token.
type AuthMiddleware struct {
	token []byte
}

// NewAuthMiddleware creates a new auth middleware instance. An empty token
// disables the check.
func NewAuthMiddleware(token string) *AuthMiddleware {
	return &AuthMiddleware{token: []byte(token)}
}

// Enabled reports whether a token is required.
func (m *AuthMiddleware) Enabled() bool {
	return len(m.token) > 0
}

// RequireToken rejects requests without the configured bearer token.
func (m *AuthMiddleware) RequireToken(c fiber.Ctx) error {
	if !m.Enabled() {
		return c.Next()
	}

	got, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
	if !ok || subtle.ConstantTimeCompare([]byte(got), m.token) != 1 {
		c.Set(fiber.HeaderWWWAuthenticate, `Bearer realm="tweetwatch"`)
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"status": "error",
			"error":  "unauthorized",
		})
	}
	return c.Next()
}

// bearerToken extracts the token from an Authorization header value.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
