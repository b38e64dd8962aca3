package handler

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DEFRA/water-abstraction-ui-sub001/service"
)

func TestResolveUploadStatus(t *testing.T) {
	tests := []struct {
		name       string
		filename   string
		virusClean bool
		fileType   service.FileType
		want       UploadOutcome
	}{
		{"no file", "", true, service.FileTypeCSV, UploadNoFile},
		{"no file trumps virus", "", false, service.FileTypeCSV, UploadNoFile},
		{"virus", "returns.csv", false, service.FileTypeCSV, UploadVirus},
		{"virus trumps type", "returns.png", false, "", UploadVirus},
		{"unsupported type", "returns.png", true, "", UploadInvalidType},
		{"csv ok", "returns.csv", true, service.FileTypeCSV, UploadOK},
		{"xml ok", "returns.xml", true, service.FileTypeXML, UploadOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveUploadStatus(tt.filename, tt.virusClean, tt.fileType)
			if got != tt.want {
				t.Errorf("ResolveUploadStatus(%q, %v, %q) = %v, want %v",
					tt.filename, tt.virusClean, tt.fileType, got, tt.want)
			}
		})
	}
}

func TestUploadOutcomeErrorCode(t *testing.T) {
	codes := map[UploadOutcome]string{
		UploadOK:          "",
		UploadNoFile:      "no-file",
		UploadVirus:       "virus",
		UploadInvalidType: "invalid-type",
	}
	for outcome, want := range codes {
		if got := outcome.ErrorCode(); got != want {
			t.Errorf("ErrorCode(%v) = %q, want %q", outcome, got, want)
		}
	}
}

func TestGetUploadForm(t *testing.T) {
	h := NewReturnsHandler(&fakeWater{}, &fakeScanner{}, newSpyFileStore(service.NewScratchStore(&testConfig(t.TempDir()).Upload)), testConfig(t.TempDir()))
	router := newTestRouter()
	registerReturnsRoutes(router, h)

	tests := []struct {
		name     string
		url      string
		contains string
	}{
		{"no error", "/returns/upload", "Upload bulk returns"},
		{"known code", "/returns/upload?error=virus", "contains a virus"},
		{"unknown code", "/returns/upload?error=bogus", "could not be processed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			router.ServeHTTP(w, req)

			if w.Code != http.StatusOK {
				t.Fatalf("expected status 200, got %d", w.Code)
			}
			if !strings.Contains(w.Body.String(), tt.contains) {
				t.Errorf("expected body to contain %q", tt.contains)
			}
		})
	}
}

// multipartUpload builds a multipart/form-data body with a single "file" part.
func multipartUpload(t *testing.T, filename, contents string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if filename != "" {
		part, err := writer.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("CreateFormFile failed: %v", err)
		}
		if _, err := part.Write([]byte(contents)); err != nil {
			t.Fatalf("writing part failed: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("closing writer failed: %v", err)
	}
	return body, writer.FormDataContentType()
}

type uploadFixture struct {
	water  *fakeWater
	files  *spyFileStore
	router http.Handler
}

func newUploadFixture(t *testing.T, water *fakeWater, scanner *fakeScanner) *uploadFixture {
	t.Helper()
	cfg := testConfig(t.TempDir())
	files := newSpyFileStore(service.NewScratchStore(&cfg.Upload))
	h := NewReturnsHandler(water, scanner, files, cfg)
	router := newTestRouter()
	registerReturnsRoutes(router, h)
	return &uploadFixture{water: water, files: files, router: router}
}

func (f *uploadFixture) post(t *testing.T, filename, contents string) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartUpload(t, filename, contents)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/returns/upload", body)
	req.Header.Set("Content-Type", contentType)
	f.router.ServeHTTP(w, req)
	return w
}

func TestPostUploadNoFile(t *testing.T) {
	f := newUploadFixture(t, &fakeWater{}, &fakeScanner{outcome: service.ScanClean})

	w := f.post(t, "", "")

	if w.Code != http.StatusFound {
		t.Fatalf("expected status 302, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/returns/upload?error=no-file" {
		t.Errorf("expected no-file redirect, got %q", loc)
	}
}

func TestPostUploadSuccess(t *testing.T) {
	csv := "Licence number,Return reference\n01/123,1234\n"
	f := newUploadFixture(t, &fakeWater{submitEventID: "event-42"}, &fakeScanner{outcome: service.ScanClean})

	w := f.post(t, "returns.csv", csv)

	if w.Code != http.StatusFound {
		t.Fatalf("expected status 302, got %d: %s", w.Code, w.Body.String())
	}
	if loc := w.Header().Get("Location"); loc != "/returns/processing-upload/processing/event-42" {
		t.Errorf("expected processing redirect, got %q", loc)
	}
	if len(f.water.submittedData) != 1 || f.water.submittedData[0] != csv {
		t.Errorf("expected file contents to reach the water service, got %q", f.water.submittedData)
	}

	// The scratch file must be gone once the request completes.
	if len(f.files.allocated) != 1 {
		t.Fatalf("expected one allocation, got %d", len(f.files.allocated))
	}
	if n := f.files.removed[f.files.allocated[0]]; n != 1 {
		t.Errorf("expected scratch file removed exactly once, got %d", n)
	}
}

func TestPostUploadVirus(t *testing.T) {
	f := newUploadFixture(t, &fakeWater{}, &fakeScanner{outcome: service.ScanInfected})

	w := f.post(t, "returns.csv", "a,b\n1,2\n")

	if loc := w.Header().Get("Location"); loc != "/returns/upload?error=virus" {
		t.Errorf("expected virus redirect, got %q", loc)
	}
	if len(f.water.submittedData) != 0 {
		t.Error("infected file must not reach the water service")
	}
	if n := f.files.removed[f.files.allocated[0]]; n != 1 {
		t.Errorf("expected scratch file removed exactly once, got %d", n)
	}
}

func TestPostUploadInvalidType(t *testing.T) {
	f := newUploadFixture(t, &fakeWater{}, &fakeScanner{outcome: service.ScanClean})

	// PNG magic bytes: binary, neither CSV nor XML.
	w := f.post(t, "returns.png", "\x89PNG\r\n\x1a\n\x00\x00binary")

	if loc := w.Header().Get("Location"); loc != "/returns/upload?error=invalid-type" {
		t.Errorf("expected invalid-type redirect, got %q", loc)
	}
	if n := f.files.removed[f.files.allocated[0]]; n != 1 {
		t.Errorf("expected scratch file removed exactly once, got %d", n)
	}
}

func TestPostUploadScanFailure(t *testing.T) {
	f := newUploadFixture(t, &fakeWater{}, &fakeScanner{err: errors.New("scanner unavailable")})

	w := f.post(t, "returns.csv", "a,b\n1,2\n")

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", w.Code)
	}
	if n := f.files.removed[f.files.allocated[0]]; n != 1 {
		t.Errorf("expected scratch file removed exactly once, got %d", n)
	}
}

func TestPostUploadSubmitFailure(t *testing.T) {
	f := newUploadFixture(t, &fakeWater{submitErr: errors.New("service unavailable")}, &fakeScanner{outcome: service.ScanClean})

	w := f.post(t, "returns.csv", "a,b\n1,2\n")

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", w.Code)
	}
	if n := f.files.removed[f.files.allocated[0]]; n != 1 {
		t.Errorf("expected scratch file removed exactly once, got %d", n)
	}
}
