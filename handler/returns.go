package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/DEFRA/water-abstraction-ui-sub001/config"
	"github.com/DEFRA/water-abstraction-ui-sub001/middleware"
	"github.com/DEFRA/water-abstraction-ui-sub001/model"
	"github.com/DEFRA/water-abstraction-ui-sub001/service"
	"github.com/gin-gonic/gin"
)

// WaterAPI is the slice of the upstream water service this portal consumes.
// Handlers depend on the interface so tests can substitute fakes.
type WaterAPI interface {
	SubmitReturnsUpload(ctx context.Context, fileData, userName, companyID string, fileType service.FileType) (string, error)
	GetEvent(ctx context.Context, eventID string) (*model.UploadEvent, error)
	GetUploadPreview(ctx context.Context, eventID string, uc service.UserContext) ([]model.ParsedReturnRecord, error)
	GetUploadPreviewReturn(ctx context.Context, eventID, returnID string, uc service.UserContext) (*model.ParsedReturnRecord, error)
	ConfirmUpload(ctx context.Context, eventID string, uc service.UserContext) error
	GetCurrentDueReturns(ctx context.Context, companyID string) ([]model.ParsedReturnRecord, error)
}

// Scanner checks an uploaded file for malware.
type Scanner interface {
	Scan(ctx context.Context, path string) (service.ScanOutcome, error)
}

// FileStore manages per-request scratch files, implemented by
// service.ScratchStore.
type FileStore interface {
	Allocate() string
	EnsureDir(path string) error
	Store(src io.Reader, dest string) error
	Remove(path string)
}

// ReturnsHandler serves the bulk-upload pipeline: upload form, intake,
// waiting pages, review, confirmation and CSV template download.
type ReturnsHandler struct {
	water   WaterAPI
	scanner Scanner
	files   FileStore
	cfg     *config.Config
}

func NewReturnsHandler(water WaterAPI, scanner Scanner, files FileStore, cfg *config.Config) *ReturnsHandler {
	return &ReturnsHandler{
		water:   water,
		scanner: scanner,
		files:   files,
		cfg:     cfg,
	}
}

// userContext builds the submitter identity forwarded on water service calls.
func userContext(c *gin.Context) service.UserContext {
	return service.UserContext{
		UserName:  middleware.GetUsername(c),
		CompanyID: middleware.GetCompanyID(c),
	}
}

// renderError renders the generic failure page.
func renderError(c *gin.Context) {
	c.HTML(http.StatusInternalServerError, "error.html", gin.H{
		"title":     "Something went wrong",
		"requestID": middleware.GetRequestID(c),
	})
	c.Abort()
}

// renderNotFound renders the generic not-found page.
func renderNotFound(c *gin.Context) {
	c.HTML(http.StatusNotFound, "not_found.html", gin.H{
		"title":     "Page not found",
		"requestID": middleware.GetRequestID(c),
	})
	c.Abort()
}
