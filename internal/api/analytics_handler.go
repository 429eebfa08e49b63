package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/saasvalidator/page-service/internal/middleware"
	"github.com/saasvalidator/page-service/internal/models"
)

// RecordView handles POST /t/:id/view.
func (h *Handlers) RecordView(c *gin.Context) {
	h.recordEvent(c, models.EventKindView)
}

// RecordConversion handles POST /t/:id/conversion.
func (h *Handlers) RecordConversion(c *gin.Context) {
	h.recordEvent(c, models.EventKindConversion)
}

func (h *Handlers) recordEvent(c *gin.Context, kind models.EventKind) {
	pageID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	// Crawlers get acknowledged without touching the counters.
	if middleware.IsBot(c) {
		c.Status(http.StatusNoContent)
		return
	}

	snapshot, err := h.service.RecordEvent(c.Request.Context(), pageID, kind)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

// RenderPage handles GET /p/:owner/:slug, the public lookup used to serve
// a published page. Archived pages are not resolvable here.
func (h *Handlers) RenderPage(c *gin.Context) {
	ownerID, err := uuid.Parse(c.Param("owner"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid owner"})
		return
	}

	page, err := h.service.GetPage(c.Request.Context(), ownerID, c.Param("slug"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}
