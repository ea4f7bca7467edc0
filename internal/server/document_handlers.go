package server

import (
	"strings"

	"vellum/internal/models"
	"vellum/internal/service"

	"github.com/gofiber/fiber/v2"
)

// documentRequest is the write payload shared by create and update.
type documentRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Content     string   `json:"content"`
	Public      bool     `json:"public"`
	Tags        []string `json:"tags"`
}

func (r documentRequest) toInput() service.DocumentInput {
	return service.DocumentInput{
		Title:       r.Title,
		Description: r.Description,
		Content:     r.Content,
		Public:      r.Public,
		TagNames:    r.Tags,
	}
}

// SearchDocuments handles GET /api/documents
func (s *Server) SearchDocuments(c *fiber.Ctx) error {
	ctx := c.UserContext()

	params := service.SearchParams{
		Query:    c.Query("q"),
		TagNames: splitCSV(c.Query("tags")),
		Page:     c.QueryInt("page", 1),
		PerPage:  c.QueryInt("per_page", 0),
		Sort:     c.Query("sort"),
		Scored:   c.Query("order") == "relevance",
		ViewerID: viewerID(c),
	}
	if c.Query("mine") == "true" {
		if params.ViewerID == "" {
			return models.RespondWithError(c, models.NewUnauthenticatedError())
		}
		params.OwnerID = params.ViewerID
	}

	result, err := s.catalog.Search(ctx, params)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(result)
}

// GetDocument handles GET /api/documents/:id
func (s *Server) GetDocument(c *fiber.Ctx) error {
	doc, err := s.catalog.GetDocument(c.UserContext(), c.Params("id"), viewerID(c))
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(doc)
}

// DownloadDocument handles GET /api/documents/:id/download
func (s *Server) DownloadDocument(c *fiber.Ctx) error {
	doc, err := s.catalog.DownloadDocument(c.UserContext(), c.Params("id"), viewerID(c))
	if err != nil {
		return models.RespondWithError(c, err)
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+downloadFilename(doc.Title)+`.md"`)
	return c.SendString(doc.Content)
}

// downloadFilename strips characters that would break the quoted-string in
// a Content-Disposition header.
func downloadFilename(title string) string {
	cleaned := strings.Map(func(r rune) rune {
		if r == '"' || r == '\\' || r < 0x20 {
			return -1
		}
		return r
	}, title)
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return "document"
	}
	return cleaned
}

// CreateDocument handles POST /api/documents
func (s *Server) CreateDocument(c *fiber.Ctx) error {
	var req documentRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, models.NewValidationError("Invalid request body"))
	}

	doc, err := s.catalog.CreateDocument(c.UserContext(), requesterID(c), req.toInput())
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(doc)
}

// UpdateDocument handles PUT /api/documents/:id
func (s *Server) UpdateDocument(c *fiber.Ctx) error {
	var req documentRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, models.NewValidationError("Invalid request body"))
	}

	doc, err := s.catalog.UpdateDocument(c.UserContext(), c.Params("id"), requesterID(c), req.toInput())
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(doc)
}

// DeleteDocument handles DELETE /api/documents/:id
func (s *Server) DeleteDocument(c *fiber.Ctx) error {
	if err := s.catalog.DeleteDocument(c.UserContext(), c.Params("id"), requesterID(c)); err != nil {
		return models.RespondWithError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ToggleVisibility handles POST /api/documents/:id/visibility
func (s *Server) ToggleVisibility(c *fiber.Ctx) error {
	public, err := s.catalog.ToggleVisibility(c.UserContext(), c.Params("id"), requesterID(c))
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(fiber.Map{"public": public})
}

// ToggleStar handles POST /api/documents/:id/star
func (s *Server) ToggleStar(c *fiber.Ctx) error {
	starred, count, err := s.catalog.ToggleStar(c.UserContext(), c.Params("id"), requesterID(c))
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(fiber.Map{"starred": starred, "stars": count})
}

// GetStargazers handles GET /api/documents/:id/stargazers
func (s *Server) GetStargazers(c *fiber.Ctx) error {
	users, err := s.catalog.Stargazers(c.UserContext(), c.Params("id"), viewerID(c))
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(users)
}

// GetStarStats handles POST /api/documents/stats
func (s *Server) GetStarStats(c *fiber.Ctx) error {
	var req struct {
		IDs []string `json:"ids"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, models.NewValidationError("Invalid request body"))
	}
	if len(req.IDs) == 0 || len(req.IDs) > maxPaginationLimit {
		return models.RespondWithError(c, models.NewValidationError("ids must contain between 1 and 100 entries"))
	}

	stats, err := s.catalog.StarStats(c.UserContext(), req.IDs, requesterID(c))
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(stats)
}
