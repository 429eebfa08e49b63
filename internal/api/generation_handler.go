package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/saasvalidator/page-service/internal/logger"
	"github.com/saasvalidator/page-service/internal/middleware"
	"github.com/saasvalidator/page-service/internal/models"
)

// CompleteGeneration handles POST /api/v1/pages/:id/generation/complete.
// Called by the generation worker when rendering produced content. The
// worker's token subject must match the page owner; a foreign page is
// indistinguishable from a missing one.
func (h *Handlers) CompleteGeneration(c *gin.Context) {
	ownerID, ok := middleware.OwnerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing owner identity"})
		return
	}
	pageID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	var req models.GenerationResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	page, err := h.service.CompleteGeneration(c.Request.Context(), ownerID, pageID, req.Content)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// FailGeneration handles POST /api/v1/pages/:id/generation/fail. The page
// returns to draft so the owner can retry.
func (h *Handlers) FailGeneration(c *gin.Context) {
	ownerID, ok := middleware.OwnerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing owner identity"})
		return
	}
	pageID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	var req models.GenerationResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// Failure reports without a body are still failures.
		req = models.GenerationResultRequest{}
	}

	page, err := h.service.FailGeneration(c.Request.Context(), ownerID, pageID, req.Reason)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.logger.Info("Generation failure reported",
		logger.String("page_id", pageID.String()),
		logger.String("reason", req.Reason),
	)
	c.JSON(http.StatusOK, page)
}
