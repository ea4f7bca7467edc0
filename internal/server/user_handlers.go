package server

import (
	"vellum/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetMyProfile handles GET /api/me
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	user, err := s.catalog.GetUser(c.UserContext(), requesterID(c))
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(user)
}

// GetMyDocuments handles GET /api/me/documents
func (s *Server) GetMyDocuments(c *fiber.Ctx) error {
	docs, err := s.catalog.ListOwnDocuments(c.UserContext(), requesterID(c))
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(docs)
}

// DeleteMyAccount handles DELETE /api/me
func (s *Server) DeleteMyAccount(c *fiber.Ctx) error {
	if err := s.catalog.DeleteAccount(c.UserContext(), requesterID(c)); err != nil {
		return models.RespondWithError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
