package handler

import (
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/linkhive/linkhive/internal"
	"github.com/linkhive/linkhive/internal/auth"
	"github.com/linkhive/linkhive/internal/service"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

type LinkHandler struct {
	links *service.LinkService
}

func NewLinkHandler(links *service.LinkService) *LinkHandler {
	return &LinkHandler{links: links}
}

type CreateLinkRequest struct {
	OriginalURL     string `json:"original_url"`
	Description     string `json:"description"`
	CustomShortCode string `json:"custom_short_code"`
}

type UpdateLinkRequest struct {
	Description string `json:"description"`
}

type LinkResponse struct {
	ID            string    `json:"id"`
	OriginalURL   string    `json:"original_url"`
	ShortCode     string    `json:"short_code"`
	ShortURL      string    `json:"short_url"`
	Description   string    `json:"description"`
	ClickCount    int64     `json:"click_count"`
	CreatedAt     time.Time `json:"created_at"`
	CreatedBy     string    `json:"created_by"`
	CreatedByName string    `json:"created_by_name"`
	TenantID      string    `json:"tenant_id"`
}

func (h *LinkHandler) CreateLink(c echo.Context) error {
	ctx := c.Request().Context()

	identity, ok := auth.IdentityFrom(c)
	if !ok {
		return echo.ErrUnauthorized
	}

	var req CreateLinkRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request")
	}

	link, err := h.links.Create(ctx, identity, service.CreateLinkInput{
		OriginalURL:     req.OriginalURL,
		Description:     req.Description,
		CustomShortCode: req.CustomShortCode,
	})
	if err != nil {
		return domainError(err)
	}

	return c.JSON(http.StatusOK, toResponse(link))
}

func (h *LinkHandler) ListLinks(c echo.Context) error {
	ctx := c.Request().Context()

	identity, ok := auth.IdentityFrom(c)
	if !ok {
		return echo.ErrUnauthorized
	}

	links, err := h.links.List(ctx, identity)
	if err != nil {
		log.Error().Err(err).Str("tenant", identity.Tenant).Msg("failed to list links")
		return domainError(err)
	}

	return c.JSON(http.StatusOK, lo.Map(links, func(link *internal.Link, _ int) LinkResponse {
		return toResponse(link)
	}))
}

func (h *LinkHandler) GetLink(c echo.Context) error {
	ctx := c.Request().Context()

	identity, ok := auth.IdentityFrom(c)
	if !ok {
		return echo.ErrUnauthorized
	}

	link, err := h.links.Get(ctx, identity, c.Param("id"))
	if err != nil {
		return domainError(err)
	}

	return c.JSON(http.StatusOK, toResponse(link))
}

func (h *LinkHandler) UpdateLink(c echo.Context) error {
	ctx := c.Request().Context()

	identity, ok := auth.IdentityFrom(c)
	if !ok {
		return echo.ErrUnauthorized
	}

	var req UpdateLinkRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request")
	}

	link, err := h.links.Update(ctx, identity, c.Param("id"), service.UpdateLinkInput{
		Description: req.Description,
	})
	if err != nil {
		return domainError(err)
	}

	return c.JSON(http.StatusOK, toResponse(link))
}

func (h *LinkHandler) DeleteLink(c echo.Context) error {
	ctx := c.Request().Context()

	identity, ok := auth.IdentityFrom(c)
	if !ok {
		return echo.ErrUnauthorized
	}

	if err := h.links.Delete(ctx, identity, c.Param("id")); err != nil {
		return domainError(err)
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "Link deleted successfully"})
}

func (h *LinkHandler) GetAnalytics(c echo.Context) error {
	ctx := c.Request().Context()

	identity, ok := auth.IdentityFrom(c)
	if !ok {
		return echo.ErrUnauthorized
	}

	analytics, err := h.links.Analytics(ctx, identity, c.Param("id"))
	if err != nil {
		return domainError(err)
	}

	return c.JSON(http.StatusOK, analytics)
}

// Redirect resolves a short code to its destination. Public; the click is
// recorded before the 302 goes out.
func (h *LinkHandler) Redirect(c echo.Context) error {
	ctx := c.Request().Context()
	shortCode := c.Param("short_code")

	log.Debug().Str("short_code", shortCode).Msg("redirect request")

	destination, err := h.links.Resolve(ctx, shortCode, getClientIP(c.Request()), c.Request().UserAgent())
	if err != nil {
		return domainError(err)
	}

	return c.Redirect(http.StatusFound, destination)
}

func toResponse(link *internal.Link) LinkResponse {
	return LinkResponse{
		ID:            link.ID,
		OriginalURL:   link.OriginalURL,
		ShortCode:     link.ShortCode,
		ShortURL:      link.ShortURL,
		Description:   link.Description,
		ClickCount:    link.ClickCount,
		CreatedAt:     link.CreatedAt,
		CreatedBy:     link.CreatedBy,
		CreatedByName: link.CreatedByName,
		TenantID:      link.TenantID,
	}
}

// domainError maps the sentinel error taxonomy to HTTP statuses.
func domainError(err error) error {
	switch {
	case errors.Is(err, internal.ErrInvalidURL),
		errors.Is(err, internal.ErrInvalidShortCode),
		errors.Is(err, internal.ErrShortCodeExists):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, internal.ErrLinkNotFound):
		return echo.NewHTTPError(http.StatusNotFound, internal.ErrLinkNotFound.Error())
	case errors.Is(err, internal.ErrCodeSpaceExhausted):
		return echo.NewHTTPError(http.StatusServiceUnavailable, internal.ErrCodeSpaceExhausted.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
}

// getClientIP extracts the client address behind reverse proxies: first
// X-Forwarded-For entry, then X-Real-IP, then the transport peer. An
// empty first XFF segment falls through rather than being recorded.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}

	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}

	return "unknown"
}
