package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- parsePagination ---

func paginationApp(defaultLimit int) *fiber.App {
	app := fiber.New()
	app.Get("/items", func(c *fiber.Ctx) error {
		p := parsePagination(c, defaultLimit)
		return c.JSON(fiber.Map{"limit": p.Limit, "offset": p.Offset})
	})
	return app
}

func TestParsePagination_Defaults(t *testing.T) {
	app := paginationApp(25)

	req := httptest.NewRequest(http.MethodGet, "/items", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var body map[string]float64
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

	assert.Equal(t, float64(25), body["limit"])
	assert.Equal(t, float64(0), body["offset"])
}

func TestParsePagination_Custom(t *testing.T) {
	app := paginationApp(25)

	req := httptest.NewRequest(http.MethodGet, "/items?limit=10&offset=30", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var body map[string]float64
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

	assert.Equal(t, float64(10), body["limit"])
	assert.Equal(t, float64(30), body["offset"])
}

func TestParsePagination_Clamps(t *testing.T) {
	tests := []struct {
		name           string
		query          string
		expectedLimit  float64
		expectedOffset float64
	}{
		{"Limit above cap", "?limit=500", float64(maxPaginationLimit), 0},
		{"Negative limit falls back to default", "?limit=-5", 25, 0},
		{"Zero limit falls back to default", "?limit=0", 25, 0},
		{"Negative offset clamped", "?offset=-10", 25, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := paginationApp(25)

			req := httptest.NewRequest(http.MethodGet, "/items"+tt.query, nil)
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			var body map[string]float64
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

			assert.Equal(t, tt.expectedLimit, body["limit"])
			assert.Equal(t, tt.expectedOffset, body["offset"])
		})
	}
}

// --- splitCSV ---

func TestSplitCSV(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected []string
	}{
		{"Empty input", "", nil},
		{"Single value", "golang", []string{"golang"}},
		{"Multiple values", "golang,redis,postgres", []string{"golang", "redis", "postgres"}},
		{"Trims whitespace", " golang , redis ", []string{"golang", "redis"}},
		{"Drops empty entries", "golang,,redis,", []string{"golang", "redis"}},
		{"Only separators", ",,,", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, splitCSV(tt.raw))
		})
	}
}

// --- requesterID / viewerID locals ---

func TestRequesterID(t *testing.T) {
	t.Run("Resolved user", func(t *testing.T) {
		app := fiber.New()
		app.Get("/whoami", func(c *fiber.Ctx) error {
			c.Locals("userID", "user-123")
			return c.JSON(fiber.Map{"id": requesterID(c), "viewer": viewerID(c)})
		})

		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		var body map[string]string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "user-123", body["id"])
		assert.Equal(t, "user-123", body["viewer"])
	})

	t.Run("Anonymous request", func(t *testing.T) {
		app := fiber.New()
		app.Get("/whoami", func(c *fiber.Ctx) error {
			return c.JSON(fiber.Map{"id": requesterID(c)})
		})

		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		var body map[string]string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "", body["id"])
	})
}
