package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/DEFRA/water-abstraction-ui-sub001/model"
	"github.com/DEFRA/water-abstraction-ui-sub001/pkg/logger"
	"github.com/DEFRA/water-abstraction-ui-sub001/service"
	"github.com/gin-gonic/gin"
)

// Poll flows. Each flow awaits one terminal status and routes forward when
// the event reaches it; status "error" ends either flow.
const (
	flowProcessing = "processing"
	flowSubmitting = "submitting"
)

// GetWaiting serves the please-wait page. Each browser refresh re-reads the
// event's status: "error" redirects back to the form with the upstream key,
// the awaited status redirects forward, anything else re-renders the waiting
// page so the browser polls again. An attempt counter in the query string
// bounds how long a stuck event is polled.
func (h *ReturnsHandler) GetWaiting(c *gin.Context) {
	ctx := c.Request.Context()
	flow := c.Param("status")
	eventID := c.Param("eventId")

	var awaited, nextPath string
	switch flow {
	case flowProcessing:
		awaited = model.StatusValidated
		nextPath = "/returns/upload-summary/" + eventID
	case flowSubmitting:
		awaited = model.StatusSubmitted
		nextPath = "/returns/upload-submitted/" + eventID
	default:
		renderNotFound(c)
		return
	}

	attempt, err := strconv.Atoi(c.Query("attempt"))
	if err != nil || attempt < 1 {
		attempt = 1
	}
	if attempt > h.cfg.Upload.MaxPollAttempts {
		logger.Warn(ctx, "gave up polling upload event", "event_id", eventID, "flow", flow, "attempts", attempt)
		c.Redirect(http.StatusFound, "/returns/upload?error=timeout")
		return
	}

	event, err := h.water.GetEvent(ctx, eventID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			logger.Warn(ctx, "upload event not found", "event_id", eventID, "flow", flow)
			renderNotFound(c)
			return
		}
		logger.Error(ctx, "failed to load upload event", "event_id", eventID, "flow", flow, "error", err)
		renderError(c)
		return
	}

	switch {
	case event.Status == model.StatusError:
		key := "default"
		if event.Metadata.Error != nil && event.Metadata.Error.Key != "" {
			key = event.Metadata.Error.Key
		}
		logger.Info(ctx, "upload event failed", "event_id", eventID, "error_key", key)
		c.Redirect(http.StatusFound, "/returns/upload?error="+key)

	case event.Status == awaited:
		c.Redirect(http.StatusFound, nextPath)

	default:
		c.HTML(http.StatusOK, "waiting.html", gin.H{
			"title":          "Uploading returns data",
			"flow":           flow,
			"refreshSeconds": h.cfg.Upload.PollSeconds,
			"refreshURL":     fmt.Sprintf("/returns/processing-upload/%s/%s?attempt=%d", flow, eventID, attempt+1),
		})
	}
}
