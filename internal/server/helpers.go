package server

import (
	"log/slog"
	"strings"

	"vellum/internal/middleware"
	"vellum/internal/models"
	"vellum/internal/service"

	"github.com/gofiber/fiber/v2"
)

const maxPaginationLimit = 100

// Pagination holds parsed limit/offset query parameters.
type Pagination struct {
	Limit  int
	Offset int
}

// parsePagination extracts limit and offset query parameters with the given default limit.
func parsePagination(c *fiber.Ctx, defaultLimit int) Pagination {
	limit := c.QueryInt("limit", defaultLimit)
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxPaginationLimit {
		limit = maxPaginationLimit
	}

	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	return Pagination{Limit: limit, Offset: offset}
}

// resolveUser maps the verified bearer identity to a catalog user, creating
// one on first contact, and stores its id in the "userID" local. It must run
// after middleware.AuthRequired.
func (s *Server) resolveUser(c *fiber.Ctx) error {
	ident := middleware.IdentityFromCtx(c)
	if ident == nil {
		return models.RespondWithError(c, models.NewUnauthenticatedError())
	}

	user, err := s.catalog.ResolveIdentity(c.UserContext(), service.AuthIdentity{
		Subject:   ident.Subject,
		Username:  ident.Username,
		Name:      ident.Name,
		Email:     ident.Email,
		AvatarURL: ident.AvatarURL,
	})
	if err != nil {
		slog.ErrorContext(c.UserContext(), "identity resolution failed",
			"subject", ident.Subject, "error", err)
		return models.RespondWithError(c, err)
	}

	c.Locals("userID", user.ID)
	return c.Next()
}

// resolveViewer is the anonymous-tolerant variant for public read routes.
// A valid token yields a viewer id for visibility scoping; anything else
// leaves the request anonymous.
func (s *Server) resolveViewer(c *fiber.Ctx) error {
	ident := middleware.IdentityFromCtx(c)
	if ident == nil {
		return c.Next()
	}

	user, err := s.catalog.ResolveIdentity(c.UserContext(), service.AuthIdentity{
		Subject:   ident.Subject,
		Username:  ident.Username,
		Name:      ident.Name,
		Email:     ident.Email,
		AvatarURL: ident.AvatarURL,
	})
	if err == nil {
		c.Locals("userID", user.ID)
	}
	return c.Next()
}

// requesterID returns the resolved catalog user id stored by resolveUser.
func requesterID(c *fiber.Ctx) string {
	if id, ok := c.Locals("userID").(string); ok {
		return id
	}
	return ""
}

// viewerID is requesterID under a name that reads better on public routes.
func viewerID(c *fiber.Ctx) string {
	return requesterID(c)
}

// splitCSV splits a comma-separated query value, dropping empty entries.
func splitCSV(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
