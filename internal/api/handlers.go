// Package api wires the HTTP surface of the page service.
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/saasvalidator/page-service/internal/logger"
	"github.com/saasvalidator/page-service/internal/models"
)

// PageService is the application surface the handlers depend on.
type PageService interface {
	CreatePage(ctx context.Context, ownerID uuid.UUID, title string) (*models.LandingPage, error)
	StartGeneration(ctx context.Context, ownerID, pageID uuid.UUID) (*models.LandingPage, error)
	CompleteGeneration(ctx context.Context, ownerID, pageID uuid.UUID, content string) (*models.LandingPage, error)
	FailGeneration(ctx context.Context, ownerID, pageID uuid.UUID, reason string) (*models.LandingPage, error)
	Archive(ctx context.Context, ownerID, pageID uuid.UUID) (*models.LandingPage, error)
	Unpublish(ctx context.Context, ownerID, pageID uuid.UUID) (*models.LandingPage, error)
	RecordEvent(ctx context.Context, pageID uuid.UUID, kind models.EventKind) (*models.Analytics, error)
	GetPage(ctx context.Context, ownerID uuid.UUID, slug string) (*models.LandingPage, error)
	GetPageByID(ctx context.Context, ownerID, pageID uuid.UUID) (*models.LandingPage, error)
	ListPages(ctx context.Context, ownerID uuid.UUID) ([]models.LandingPage, error)
	UpdateTitle(ctx context.Context, ownerID, pageID uuid.UUID, req *models.PageUpdateRequest) (*models.LandingPage, error)
}

// Handlers provides the HTTP handlers for the API.
type Handlers struct {
	service PageService
	logger  logger.Logger
}

// NewHandlers creates a handlers instance.
func NewHandlers(service PageService, log logger.Logger) *Handlers {
	return &Handlers{
		service: service,
		logger:  log,
	}
}

// respondError maps domain errors to HTTP responses.
func (h *Handlers) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "page not found"})
	case errors.Is(err, models.ErrInvalidTitle),
		errors.Is(err, models.ErrMissingContent),
		errors.Is(err, models.ErrNoFieldsToUpdate):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrInvalidTransition),
		errors.Is(err, models.ErrSlugConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrPageNotAcceptingEvents):
		c.JSON(http.StatusGone, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrQuotaExceeded),
		errors.Is(err, models.ErrUnknownOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	default:
		// Store or transport failure. Surfaced as-is, retry is the
		// caller's decision.
		h.logger.Error("Request failed on storage",
			logger.Error(err),
			logger.String("path", c.Request.URL.Path),
			logger.String("method", c.Request.Method),
		)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage unavailable"})
	}
}

// pathUUID parses a UUID path parameter, responding 400 on failure.
func (h *Handlers) pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}
