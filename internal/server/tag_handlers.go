package server

import (
	"vellum/internal/models"

	"github.com/gofiber/fiber/v2"
)

// SearchTags handles GET /api/tags?q=...
func (s *Server) SearchTags(c *fiber.Ctx) error {
	q := c.Query("q")
	if q == "" {
		return models.RespondWithError(c, models.NewValidationError("Search query is required"))
	}

	page := parsePagination(c, 20)
	tags, err := s.catalog.SearchTags(c.UserContext(), q, page.Limit)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(tags)
}

// GetPopularTags handles GET /api/tags/popular
func (s *Server) GetPopularTags(c *fiber.Ctx) error {
	page := parsePagination(c, 20)
	tags, err := s.catalog.PopularTags(c.UserContext(), page.Limit)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(tags)
}

// DeleteTag handles DELETE /api/tags/:id
func (s *Server) DeleteTag(c *fiber.Ctx) error {
	if err := s.catalog.DeleteTag(c.UserContext(), c.Params("id"), requesterID(c)); err != nil {
		return models.RespondWithError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
