package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/DEFRA/water-abstraction-ui-sub001/pkg/logger"
	"github.com/DEFRA/water-abstraction-ui-sub001/service"
	"github.com/gin-gonic/gin"
)

// GetSummary renders the review page for a validated batch, partitioned into
// returns with and without validation errors. A batch with no parsed records
// never renders the summary shell; the operator goes back to the form.
func (h *ReturnsHandler) GetSummary(c *gin.Context) {
	ctx := c.Request.Context()
	eventID := c.Param("eventId")

	records, err := h.water.GetUploadPreview(ctx, eventID, userContext(c))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			logger.Warn(ctx, "upload preview not found", "event_id", eventID)
			renderNotFound(c)
			return
		}
		logger.Error(ctx, "failed to load upload preview", "event_id", eventID, "error", err)
		renderError(c)
		return
	}

	if len(records) == 0 {
		c.Redirect(http.StatusFound, "/returns/upload?error=empty")
		return
	}

	grouped := service.GroupReturns(records, eventID)

	c.HTML(http.StatusOK, "summary.html", gin.H{
		"title":                "Review uploaded returns",
		"eventId":              eventID,
		"returnsWithErrors":    grouped.ReturnsWithErrors,
		"returnsWithoutErrors": grouped.ReturnsWithoutErrors,
	})
}

// GetSummaryReturn renders the line-level drill-down for one clean return.
func (h *ReturnsHandler) GetSummaryReturn(c *gin.Context) {
	ctx := c.Request.Context()
	eventID := c.Param("eventId")

	returnID := c.Param("returnId")
	if unescaped, err := url.PathUnescape(returnID); err == nil {
		returnID = unescaped
	}

	record, err := h.water.GetUploadPreviewReturn(ctx, eventID, returnID, userContext(c))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			logger.Warn(ctx, "uploaded return not found", "event_id", eventID, "return_id", returnID)
			renderNotFound(c)
			return
		}
		logger.Error(ctx, "failed to load uploaded return", "event_id", eventID, "return_id", returnID, "error", err)
		renderError(c)
		return
	}

	c.HTML(http.StatusOK, "summary_return.html", gin.H{
		"title":             "Uploaded return",
		"eventId":           eventID,
		"record":            record,
		"returnRequirement": record.ReturnRequirement(),
		"lineGroups":        service.GroupLines(*record),
	})
}
