package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

type SystemHandler struct {
	version string
}

func NewSystemHandler(version string) *SystemHandler {
	return &SystemHandler{version: version}
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
}

func (h *SystemHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Version:   h.version,
	})
}

func (h *SystemHandler) Index(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"message": "Link Shortener API",
		"version": h.version,
	})
}
