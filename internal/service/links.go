package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"time"

	"github.com/linkhive/linkhive/internal"
	"github.com/linkhive/linkhive/internal/repo"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Custom short codes: 3-20 characters of letters, digits, hyphen, underscore.
var customCodePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{3,20}$`)

// Generation budget before giving up on the code space. With 6+ character
// codes this never triggers in practice.
const maxGenerateAttempts = 256

const unknownUserName = "Unknown User"

// CodeGenerator produces short-code candidates. Candidates are never
// pre-verified; the service checks uniqueness and retries.
type CodeGenerator interface {
	Generate(attempt int) string
	IsAppropriate(code string) bool
}

type CreateLinkInput struct {
	OriginalURL     string
	Description     string
	CustomShortCode string
}

type UpdateLinkInput struct {
	Description string
}

// LinkService orchestrates the link lifecycle: creation with collision
// handling, tenant-scoped reads and mutations, redirect resolution with
// click recording, and analytics.
type LinkService struct {
	links     *repo.LinksRepo
	clicks    *repo.ClicksRepo
	generator CodeGenerator
	baseURL   string
}

func NewLinkService(links *repo.LinksRepo, clicks *repo.ClicksRepo, generator CodeGenerator, baseURL string) *LinkService {
	return &LinkService{
		links:     links,
		clicks:    clicks,
		generator: generator,
		baseURL:   baseURL,
	}
}

// Create validates the request, allocates a short code and persists the
// link. A caller-supplied code that is taken fails with
// internal.ErrShortCodeExists; generated codes retry on collision. The
// store's unique index is the authoritative guard either way, so a race
// past the existence check still resolves correctly at insert time.
func (s *LinkService) Create(ctx context.Context, identity internal.Identity, input CreateLinkInput) (*internal.Link, error) {
	if err := validateURL(input.OriginalURL); err != nil {
		return nil, err
	}

	displayName := identity.DisplayName
	if displayName == "" {
		displayName = unknownUserName
	}

	link := &internal.Link{
		ID:            uuid.NewString(),
		OriginalURL:   input.OriginalURL,
		Description:   input.Description,
		ClickCount:    0,
		CreatedAt:     time.Now().UTC(),
		CreatedBy:     identity.Subject,
		CreatedByName: displayName,
		TenantID:      identity.Tenant,
	}

	if input.CustomShortCode != "" {
		if err := s.createWithCustomCode(ctx, link, input.CustomShortCode); err != nil {
			return nil, err
		}
	} else {
		if err := s.createWithGeneratedCode(ctx, link); err != nil {
			return nil, err
		}
	}

	return s.withShortURL(link), nil
}

func (s *LinkService) createWithCustomCode(ctx context.Context, link *internal.Link, code string) error {
	if !customCodePattern.MatchString(code) {
		return internal.ErrInvalidShortCode
	}

	if _, err := s.links.GetByCode(ctx, code); err == nil {
		return internal.ErrShortCodeExists
	} else if !errors.Is(err, internal.ErrLinkNotFound) {
		return err
	}

	link.ShortCode = code
	// A concurrent creator racing past the check above surfaces here as
	// ErrShortCodeExists via the unique index; no retry for custom codes.
	return s.links.Create(ctx, link)
}

func (s *LinkService) createWithGeneratedCode(ctx context.Context, link *internal.Link) error {
	for attempt := 0; attempt < maxGenerateAttempts; attempt++ {
		code := s.generator.Generate(attempt)
		if !s.generator.IsAppropriate(code) {
			continue
		}

		if _, err := s.links.GetByCode(ctx, code); err == nil {
			continue
		} else if !errors.Is(err, internal.ErrLinkNotFound) {
			return err
		}

		link.ShortCode = code
		err := s.links.Create(ctx, link)
		if errors.Is(err, internal.ErrShortCodeExists) {
			continue
		}
		return err
	}

	log.Error().Int("attempts", maxGenerateAttempts).Msg("short code generation budget exhausted")
	return internal.ErrCodeSpaceExhausted
}

// Get returns the link if it exists and belongs to the caller's tenant.
// A missing link and a tenant mismatch are indistinguishable to callers.
func (s *LinkService) Get(ctx context.Context, identity internal.Identity, id string) (*internal.Link, error) {
	link, err := s.getOwned(ctx, identity, id)
	if err != nil {
		return nil, err
	}
	return s.withShortURL(link), nil
}

// List returns the caller tenant's links, newest first.
func (s *LinkService) List(ctx context.Context, identity internal.Identity) ([]*internal.Link, error) {
	links, err := s.links.ListByTenant(ctx, identity.Tenant)
	if err != nil {
		return nil, err
	}
	for _, link := range links {
		s.withShortURL(link)
	}
	return links, nil
}

// Update changes the description, the only mutable field.
func (s *LinkService) Update(ctx context.Context, identity internal.Identity, id string, input UpdateLinkInput) (*internal.Link, error) {
	if _, err := s.getOwned(ctx, identity, id); err != nil {
		return nil, err
	}

	if err := s.links.UpdateDescription(ctx, id, input.Description); err != nil {
		return nil, err
	}

	link, err := s.links.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.withShortURL(link), nil
}

// Delete removes the link and, via the store's cascade, its clicks.
func (s *LinkService) Delete(ctx context.Context, identity internal.Identity, id string) error {
	if _, err := s.getOwned(ctx, identity, id); err != nil {
		return err
	}
	return s.links.Delete(ctx, id)
}

// Analytics returns the click windows for a tenant-owned link.
func (s *LinkService) Analytics(ctx context.Context, identity internal.Identity, id string) (*internal.Analytics, error) {
	if _, err := s.getOwned(ctx, identity, id); err != nil {
		return nil, err
	}
	return s.clicks.AnalyticsForLink(ctx, id, time.Now())
}

// Resolve maps a short code to its destination and records the click.
// Resolution is public and tenant-agnostic. Click recording is advisory:
// a failure is logged and the redirect still proceeds.
func (s *LinkService) Resolve(ctx context.Context, shortCode, ipAddress, userAgent string) (string, error) {
	link, err := s.links.GetByCode(ctx, shortCode)
	if err != nil {
		return "", err
	}

	if err := s.links.IncrementClickCount(ctx, link.ID); err != nil {
		log.Error().Err(err).Str("short_code", shortCode).Msg("failed to increment click count")
	}
	if err := s.clicks.Create(ctx, link.ID, ipAddress, userAgent); err != nil {
		log.Error().Err(err).Str("short_code", shortCode).Msg("failed to record click")
	}

	return link.OriginalURL, nil
}

func (s *LinkService) getOwned(ctx context.Context, identity internal.Identity, id string) (*internal.Link, error) {
	link, err := s.links.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if link.TenantID != identity.Tenant {
		return nil, internal.ErrLinkNotFound
	}
	return link, nil
}

// withShortURL fills the presentation-only ShortURL field; it is derived,
// never persisted.
func (s *LinkService) withShortURL(link *internal.Link) *internal.Link {
	link.ShortURL = fmt.Sprintf("%s/%s", s.baseURL, link.ShortCode)
	return link
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: %q", internal.ErrInvalidURL, raw)
	}
	return nil
}
