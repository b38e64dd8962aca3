package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/DEFRA/water-abstraction-ui-sub001/middleware"
	"github.com/DEFRA/water-abstraction-ui-sub001/pkg/logger"
	"github.com/DEFRA/water-abstraction-ui-sub001/service"
	"github.com/gin-gonic/gin"
)

// GetCSVTemplates streams a ZIP of pre-filled CSV return templates for the
// company's current due returns, one file per reporting frequency plus a
// README. A company with no due returns gets a not-found page, never an
// empty archive.
func (h *ReturnsHandler) GetCSVTemplates(c *gin.Context) {
	ctx := c.Request.Context()
	companyID := middleware.GetCompanyID(c)
	companyName := middleware.GetCompanyName(c)

	returns, err := h.water.GetCurrentDueReturns(ctx, companyID)
	if err != nil && !errors.Is(err, service.ErrNotFound) {
		logger.Error(ctx, "failed to load due returns", "company_id", companyID, "error", err)
		renderError(c)
		return
	}
	if len(returns) == 0 {
		logger.Warn(ctx, "no due returns for csv templates", "company_id", companyID)
		renderNotFound(c)
		return
	}

	cycle := service.CurrentCycle(time.Now())

	csvData, err := service.CreateCSVData(returns, cycle)
	if err != nil {
		logger.Error(ctx, "failed to build csv templates", "company_id", companyID, "error", err)
		renderError(c)
		return
	}

	archive, err := service.BuildZip(csvData, companyName)
	if err != nil {
		logger.Error(ctx, "failed to build template archive", "company_id", companyID, "error", err)
		renderError(c)
		return
	}

	filename := service.ZipFilename(companyName, returns[0].EndDate.Year())
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/zip", archive)
}
