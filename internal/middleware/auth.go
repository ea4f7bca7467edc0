package middleware

import (
	"strings"

	"vellum/internal/config"
	"vellum/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

var cfg *config.Config

// InitMiddleware initializes authentication middleware with the given config.
func InitMiddleware(c *config.Config) {
	cfg = c
}

// Identity is the authenticated identity extracted from a verified token.
// It carries the stable subject issued by the identity provider plus the
// profile fields used to derive a username on first sight.
type Identity struct {
	Subject   string
	Username  string
	Name      string
	Email     string
	AvatarURL string
}

// identityFromClaims maps token claims to an Identity. Only "sub" is required.
func identityFromClaims(claims jwt.MapClaims) (*Identity, error) {
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "missing subject claim")
	}
	ident := &Identity{Subject: sub}
	if v, ok := claims["preferred_username"].(string); ok {
		ident.Username = v
	}
	if v, ok := claims["name"].(string); ok {
		ident.Name = v
	}
	if v, ok := claims["email"].(string); ok {
		ident.Email = v
	}
	if v, ok := claims["picture"].(string); ok {
		ident.AvatarURL = v
	}
	return ident, nil
}

func parseBearer(c *fiber.Ctx) (*Identity, error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "Authorization header required")
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid authorization header format")
	}

	token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
		}
		return []byte(cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid token claims")
	}

	return identityFromClaims(claims)
}

// AuthRequired is a middleware that enforces authentication for protected routes.
// The verified identity is stored in the "identity" local.
func AuthRequired(c *fiber.Ctx) error {
	ident, err := parseBearer(c)
	if err != nil {
		return models.RespondWithError(c, models.NewUnauthenticatedError())
	}
	c.Locals("identity", ident)
	return c.Next()
}

// AuthOptional extracts the identity when a valid token is present but lets
// anonymous requests through. Read endpoints use it for visibility scoping.
func AuthOptional(c *fiber.Ctx) error {
	if ident, err := parseBearer(c); err == nil {
		c.Locals("identity", ident)
	}
	return c.Next()
}

// IdentityFromCtx returns the authenticated identity stored by AuthRequired
// or AuthOptional, or nil for anonymous requests.
func IdentityFromCtx(c *fiber.Ctx) *Identity {
	if ident, ok := c.Locals("identity").(*Identity); ok {
		return ident
	}
	return nil
}
