package handler

import (
	"errors"
	"net/http"

	"github.com/DEFRA/water-abstraction-ui-sub001/pkg/logger"
	"github.com/DEFRA/water-abstraction-ui-sub001/service"
	"github.com/gin-gonic/gin"
)

// PostSubmit confirms a validated batch with the water service and moves the
// operator into the submitting poll flow. The confirmation is forwarded once
// per operator action; no retry.
func (h *ReturnsHandler) PostSubmit(c *gin.Context) {
	ctx := c.Request.Context()
	eventID := c.Param("eventId")

	if err := h.water.ConfirmUpload(ctx, eventID, userContext(c)); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			logger.Warn(ctx, "upload event not found on confirm", "event_id", eventID)
			renderNotFound(c)
			return
		}
		logger.Error(ctx, "failed to confirm upload", "event_id", eventID, "error", err)
		renderError(c)
		return
	}

	logger.Info(ctx, "upload confirmed", "event_id", eventID)
	c.Redirect(http.StatusFound, "/returns/processing-upload/submitting/"+eventID)
}

// GetSubmitted renders the final confirmation page once the batch has been
// submitted.
func (h *ReturnsHandler) GetSubmitted(c *gin.Context) {
	c.HTML(http.StatusOK, "submitted.html", gin.H{
		"title":   "Returns submitted",
		"eventId": c.Param("eventId"),
	})
}
