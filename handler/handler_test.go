package handler

import (
	"context"
	"io"

	"github.com/DEFRA/water-abstraction-ui-sub001/config"
	"github.com/DEFRA/water-abstraction-ui-sub001/model"
	"github.com/DEFRA/water-abstraction-ui-sub001/service"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeWater is a substitutable water service for handler tests.
type fakeWater struct {
	submitEventID    string
	submitErr        error
	submittedData    []string
	event            *model.UploadEvent
	eventErr         error
	preview          []model.ParsedReturnRecord
	previewErr       error
	previewReturn    *model.ParsedReturnRecord
	previewReturnErr error
	confirmErr       error
	confirmCalls     int
	dueReturns       []model.ParsedReturnRecord
	dueErr           error
}

func (f *fakeWater) SubmitReturnsUpload(_ context.Context, fileData, _, _ string, _ service.FileType) (string, error) {
	f.submittedData = append(f.submittedData, fileData)
	return f.submitEventID, f.submitErr
}

func (f *fakeWater) GetEvent(context.Context, string) (*model.UploadEvent, error) {
	return f.event, f.eventErr
}

func (f *fakeWater) GetUploadPreview(context.Context, string, service.UserContext) ([]model.ParsedReturnRecord, error) {
	return f.preview, f.previewErr
}

func (f *fakeWater) GetUploadPreviewReturn(context.Context, string, string, service.UserContext) (*model.ParsedReturnRecord, error) {
	return f.previewReturn, f.previewReturnErr
}

func (f *fakeWater) ConfirmUpload(context.Context, string, service.UserContext) error {
	f.confirmCalls++
	return f.confirmErr
}

func (f *fakeWater) GetCurrentDueReturns(context.Context, string) ([]model.ParsedReturnRecord, error) {
	return f.dueReturns, f.dueErr
}

// fakeScanner returns a fixed scan outcome.
type fakeScanner struct {
	outcome service.ScanOutcome
	err     error
}

func (f *fakeScanner) Scan(context.Context, string) (service.ScanOutcome, error) {
	return f.outcome, f.err
}

// spyFileStore wraps a real scratch store and counts removals per path.
type spyFileStore struct {
	inner     *service.ScratchStore
	allocated []string
	removed   map[string]int
}

func newSpyFileStore(inner *service.ScratchStore) *spyFileStore {
	return &spyFileStore{inner: inner, removed: make(map[string]int)}
}

func (s *spyFileStore) Allocate() string {
	path := s.inner.Allocate()
	s.allocated = append(s.allocated, path)
	return path
}

func (s *spyFileStore) EnsureDir(path string) error {
	return s.inner.EnsureDir(path)
}

func (s *spyFileStore) Store(src io.Reader, dest string) error {
	return s.inner.Store(src, dest)
}

func (s *spyFileStore) Remove(path string) {
	s.removed[path]++
	s.inner.Remove(path)
}

func testConfig(scratchDir string) *config.Config {
	return &config.Config{
		Upload: config.UploadConfig{
			ScratchDir:        scratchDir,
			MaxPollAttempts:   120,
			PollSeconds:       5,
			ScratchTTLMinutes: 60,
		},
	}
}

// newTestRouter builds a router with templates loaded and a fixed signed-in
// identity, mirroring what the auth middleware provides.
func newTestRouter() *gin.Engine {
	router := gin.New()
	router.UseRawPath = true
	router.LoadHTMLGlob("../views/*.html")
	router.Use(func(c *gin.Context) {
		c.Set("username", "bob@example.com")
		c.Set("company_id", "company-1")
		c.Set("company_name", "Acme Ltd")
	})
	return router
}

func registerReturnsRoutes(router *gin.Engine, h *ReturnsHandler) {
	router.GET("/returns/upload", h.GetUploadForm)
	router.POST("/returns/upload", h.PostUpload)
	router.GET("/returns/processing-upload/:status/:eventId", h.GetWaiting)
	router.GET("/returns/upload-summary/:eventId", h.GetSummary)
	router.GET("/returns/upload-summary/:eventId/:returnId", h.GetSummaryReturn)
	router.POST("/returns/upload-submit/:eventId", h.PostSubmit)
	router.GET("/returns/upload-submitted/:eventId", h.GetSubmitted)
	router.GET("/returns/csv-templates", h.GetCSVTemplates)
}
