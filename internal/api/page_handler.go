package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/saasvalidator/page-service/internal/middleware"
	"github.com/saasvalidator/page-service/internal/models"
)

// CreatePage handles POST /api/v1/pages.
func (h *Handlers) CreatePage(c *gin.Context) {
	ownerID, ok := middleware.OwnerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing owner identity"})
		return
	}

	var req models.PageCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	page, err := h.service.CreatePage(c.Request.Context(), ownerID, req.Title)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, page)
}

// ListPages handles GET /api/v1/pages.
func (h *Handlers) ListPages(c *gin.Context) {
	ownerID, ok := middleware.OwnerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing owner identity"})
		return
	}

	pages, err := h.service.ListPages(c.Request.Context(), ownerID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"pages": pages, "count": len(pages)})
}

// GetPage handles GET /api/v1/pages/:id.
func (h *Handlers) GetPage(c *gin.Context) {
	ownerID, ok := middleware.OwnerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing owner identity"})
		return
	}
	pageID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	page, err := h.service.GetPageByID(c.Request.Context(), ownerID, pageID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// UpdatePage handles PATCH /api/v1/pages/:id.
func (h *Handlers) UpdatePage(c *gin.Context) {
	ownerID, ok := middleware.OwnerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing owner identity"})
		return
	}
	pageID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	var req models.PageUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	page, err := h.service.UpdateTitle(c.Request.Context(), ownerID, pageID, &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// StartGeneration handles POST /api/v1/pages/:id/generate.
func (h *Handlers) StartGeneration(c *gin.Context) {
	h.ownerTransition(c, h.service.StartGeneration)
}

// ArchivePage handles POST /api/v1/pages/:id/archive.
func (h *Handlers) ArchivePage(c *gin.Context) {
	h.ownerTransition(c, h.service.Archive)
}

// UnpublishPage handles POST /api/v1/pages/:id/unpublish.
func (h *Handlers) UnpublishPage(c *gin.Context) {
	h.ownerTransition(c, h.service.Unpublish)
}

type transitionFunc func(ctx context.Context, ownerID, pageID uuid.UUID) (*models.LandingPage, error)

// ownerTransition runs an owner-scoped lifecycle transition on the page
// named in the path.
func (h *Handlers) ownerTransition(c *gin.Context, fn transitionFunc) {
	ownerID, ok := middleware.OwnerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing owner identity"})
		return
	}
	pageID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	page, err := fn(c.Request.Context(), ownerID, pageID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}
