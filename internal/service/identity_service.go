// Package service implements the catalog's business rules on top of the
// repository layer.
package service

import (
	"context"
	"fmt"
	"strings"

	"vellum/internal/models"
	"vellum/internal/repository"
	"vellum/internal/validation"
)

// AuthIdentity is the opaque authenticated identity handed over by the
// external identity provider.
type AuthIdentity struct {
	Subject   string
	Username  string
	Name      string
	Email     string
	AvatarURL string
}

// IdentityService resolves authenticated identities to catalog users,
// creating users lazily on first sight.
type IdentityService struct {
	userRepo repository.UserRepository
}

// NewIdentityService returns a new IdentityService.
func NewIdentityService(userRepo repository.UserRepository) *IdentityService {
	return &IdentityService{userRepo: userRepo}
}

// maxUsernameAttempts bounds the numeric-suffix search for a free username.
const maxUsernameAttempts = 50

// Resolve looks up the user for the given identity, creating one with a
// collision-free username when the identity is seen for the first time.
// Repeated calls for the same identity are idempotent.
func (s *IdentityService) Resolve(ctx context.Context, ident AuthIdentity) (*models.User, error) {
	if ident.Subject == "" {
		return nil, models.NewValidationError("Identity subject is required")
	}

	user, err := s.userRepo.GetByAuthID(ctx, ident.Subject)
	if err != nil {
		return nil, err
	}
	if user != nil {
		return user, nil
	}

	base := s.usernameBase(ident)

	for attempt := 0; attempt < maxUsernameAttempts; attempt++ {
		candidate := suffixed(base, attempt)

		existing, err := s.userRepo.GetByUsername(ctx, candidate)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			continue
		}

		user = &models.User{
			AuthID:      ident.Subject,
			Username:    candidate,
			DisplayName: ident.Name,
			Email:       ident.Email,
			AvatarURL:   ident.AvatarURL,
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			if models.HasCode(err, models.CodeConflict) {
				// Either a concurrent request resolved this identity first,
				// or the username was taken between check and insert.
				if raced, rerr := s.userRepo.GetByAuthID(ctx, ident.Subject); rerr == nil && raced != nil {
					return raced, nil
				}
				continue
			}
			return nil, err
		}
		return user, nil
	}

	return nil, models.NewConflictError(fmt.Sprintf("could not find a free username for %q", base))
}

// usernameBase derives a valid normalized username stem from the identity's
// profile metadata, falling back to a prefix of the opaque subject.
func (s *IdentityService) usernameBase(ident AuthIdentity) string {
	candidates := []string{ident.Username, ident.Name}
	if at := strings.IndexByte(ident.Email, '@'); at > 0 {
		candidates = append(candidates, ident.Email[:at])
	}

	for _, c := range candidates {
		norm := validation.NormalizeUsername(c)
		if validation.ValidateUsername(norm) == nil {
			return norm
		}
	}

	stem := validation.NormalizeUsername(ident.Subject)
	if len(stem) > 8 {
		stem = strings.Trim(stem[:8], "-_")
	}
	norm := validation.NormalizeUsername("user_" + stem)
	if validation.ValidateUsername(norm) == nil {
		return norm
	}
	return "user"
}

// suffixed appends the attempt suffix, truncating the base so the result
// stays within the username length limit.
func suffixed(base string, attempt int) string {
	if attempt == 0 {
		return base
	}
	suffix := fmt.Sprintf("_%d", attempt)
	if len(base)+len(suffix) > validation.MaxUsernameLen {
		base = strings.Trim(base[:validation.MaxUsernameLen-len(suffix)], "-_")
	}
	return base + suffix
}
