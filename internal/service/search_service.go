package service

import (
	"context"
	"sort"
	"strings"
	"unicode/utf8"

	"vellum/internal/models"
	"vellum/internal/observability"
	"vellum/internal/repository"
	"vellum/internal/validation"
)

// SearchParams is the raw, caller-supplied search request. Sanitize clamps
// every field before the query touches the backend.
type SearchParams struct {
	Query    string
	TagNames []string
	Page     int
	PerPage  int
	Sort     string
	Scored   bool
	// OwnerID scopes the search to one owner's documents, including private
	// ones; empty means the public catalog.
	OwnerID  string
	ViewerID string
}

// SearchResult is one page of matches plus pagination metadata.
type SearchResult struct {
	Items      []*models.Document `json:"items"`
	Total      int64              `json:"total"`
	Page       int                `json:"page"`
	PerPage    int                `json:"per_page"`
	TotalPages int                `json:"total_pages"`
}

const (
	maxQueryLen    = 150
	maxTagFilters  = 5
	defaultPerPage = 20
	maxPerPage     = 50

	// scoredFetchCap bounds how many rows the relevance scorer pulls into
	// memory; pages past the cap fall back to the plain sort order.
	scoredFetchCap = 500
)

var allowedSortKeys = map[string]struct{}{
	"created_at": {},
	"stars":      {},
	"views":      {},
	"downloads":  {},
}

// Sanitize clamps the parameters in place and returns the receiver.
// Unrecognized sort keys silently fall back to created_at: search always
// returns something sortable, never an error.
func (p *SearchParams) Sanitize() *SearchParams {
	p.Query = strings.TrimSpace(p.Query)
	if len(p.Query) > maxQueryLen {
		// Back off to a rune boundary; a sliced multi-byte rune would reach
		// the backend as invalid UTF-8.
		cut := maxQueryLen
		for cut > 0 && !utf8.RuneStart(p.Query[cut]) {
			cut--
		}
		p.Query = p.Query[:cut]
	}

	if len(p.TagNames) > maxTagFilters {
		p.TagNames = p.TagNames[:maxTagFilters]
	}
	norm := make([]string, 0, len(p.TagNames))
	seen := make(map[string]struct{}, len(p.TagNames))
	for _, t := range p.TagNames {
		n := validation.NormalizeTagName(t)
		if n == "" {
			continue
		}
		// The backend's tag match counts distinct names, so a duplicated
		// filter would demand more matches than can exist.
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		norm = append(norm, n)
	}
	p.TagNames = norm

	if p.Page < 1 {
		p.Page = 1
	}
	if p.PerPage < 1 {
		p.PerPage = defaultPerPage
	}
	if p.PerPage > maxPerPage {
		p.PerPage = maxPerPage
	}

	if _, ok := allowedSortKeys[p.Sort]; !ok {
		p.Sort = "created_at"
	}

	return p
}

// SearchService builds sanitized, paginated, sorted queries over the
// document store, optionally re-ranked by a simple relevance heuristic.
type SearchService struct {
	docRepo repository.DocumentRepository
}

// NewSearchService returns a new SearchService.
func NewSearchService(docRepo repository.DocumentRepository) *SearchService {
	return &SearchService{docRepo: docRepo}
}

// Search runs the sanitized query and returns one result page.
func (s *SearchService) Search(ctx context.Context, params SearchParams) (*SearchResult, error) {
	params.Sanitize()

	scope := "public"
	if params.OwnerID != "" {
		scope = "owner"
	}
	observability.SearchQueries.WithLabelValues(scope).Inc()

	filter := repository.DocumentFilter{
		Query:    params.Query,
		TagNames: params.TagNames,
		OwnerID:  params.OwnerID,
		ViewerID: params.ViewerID,
		Sort:     params.Sort,
	}

	offset := (params.Page - 1) * params.PerPage
	scored := params.Scored && params.Query != "" && offset+params.PerPage <= scoredFetchCap

	if scored {
		filter.Limit = scoredFetchCap
		filter.Offset = 0
	} else {
		filter.Limit = params.PerPage
		filter.Offset = offset
	}

	docs, total, err := s.docRepo.Search(ctx, filter)
	if err != nil {
		return nil, err
	}

	if scored {
		rankByScore(docs, params)
		docs = pageWindow(docs, offset, params.PerPage)
	}

	return &SearchResult{
		Items:      docs,
		Total:      total,
		Page:       params.Page,
		PerPage:    params.PerPage,
		TotalPages: totalPages(total, params.PerPage),
	}, nil
}

func totalPages(total int64, perPage int) int {
	return int((total + int64(perPage) - 1) / int64(perPage))
}

func pageWindow(docs []*models.Document, offset, perPage int) []*models.Document {
	if offset >= len(docs) {
		return []*models.Document{}
	}
	end := offset + perPage
	if end > len(docs) {
		end = len(docs)
	}
	return docs[offset:end]
}

// contentScorePrefix caps how much document content the scorer inspects.
const contentScorePrefix = 1000

// Relevance weights: title hits dominate, then tags, description, and a
// capped prefix of the content.
const (
	titleWeight       = 8
	tagWeight         = 5
	descriptionWeight = 3
	contentWeight     = 1
)

// rankByScore stable-sorts by descending relevance. Equal scores keep the
// repository's order, i.e. the requested sort key breaks ties.
func rankByScore(docs []*models.Document, params SearchParams) {
	q := strings.ToLower(params.Query)
	scores := make(map[string]int, len(docs))
	for _, d := range docs {
		scores[d.ID] = relevance(d, q)
	}
	sort.SliceStable(docs, func(i, j int) bool {
		return scores[docs[i].ID] > scores[docs[j].ID]
	})
}

func relevance(d *models.Document, q string) int {
	score := 0
	if strings.Contains(strings.ToLower(d.Title), q) {
		score += titleWeight
	}
	for _, t := range d.Tags {
		if strings.Contains(t.Name, q) {
			score += tagWeight
			break
		}
	}
	if strings.Contains(strings.ToLower(d.Description), q) {
		score += descriptionWeight
	}
	content := d.Content
	if len(content) > contentScorePrefix {
		content = content[:contentScorePrefix]
	}
	if strings.Contains(strings.ToLower(content), q) {
		score += contentWeight
	}
	return score
}
