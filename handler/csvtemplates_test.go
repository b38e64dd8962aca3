package handler

import (
	"archive/zip"
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DEFRA/water-abstraction-ui-sub001/model"
	"github.com/DEFRA/water-abstraction-ui-sub001/service"
)

func newTemplatesFixture(t *testing.T, water *fakeWater) http.Handler {
	t.Helper()
	cfg := testConfig(t.TempDir())
	files := newSpyFileStore(service.NewScratchStore(&cfg.Upload))
	h := NewReturnsHandler(water, &fakeScanner{}, files, cfg)
	router := newTestRouter()
	registerReturnsRoutes(router, h)
	return router
}

func dueReturn(frequency string) model.ParsedReturnRecord {
	return model.ParsedReturnRecord{
		ReturnID:      "v1:1:01/123:1234:2019-04-01:2020-03-31",
		LicenceNumber: "01/123",
		Frequency:     frequency,
		StartDate:     model.MustDate("2019-04-01"),
		EndDate:       model.MustDate("2020-03-31"),
		DueDate:       model.MustDate("2020-04-28"),
	}
}

func TestGetCSVTemplates(t *testing.T) {
	router := newTemplatesFixture(t, &fakeWater{
		dueReturns: []model.ParsedReturnRecord{
			dueReturn(model.FrequencyMonth),
			dueReturn(model.FrequencyDay),
		},
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/returns/csv-templates", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/zip" {
		t.Errorf("expected application/zip, got %q", ct)
	}
	disposition := w.Header().Get("Content-Disposition")
	if !strings.Contains(disposition, "acme ltd return templates 2020.zip") {
		t.Errorf("unexpected Content-Disposition %q", disposition)
	}

	reader, err := zip.NewReader(bytes.NewReader(w.Body.Bytes()), int64(w.Body.Len()))
	if err != nil {
		t.Fatalf("response is not a valid zip: %v", err)
	}
	names := make(map[string]bool)
	for _, f := range reader.File {
		names[f.Name] = true
	}
	for _, want := range []string{
		"acme ltd daily return.csv",
		"acme ltd monthly return.csv",
		"readme.txt",
	} {
		if !names[want] {
			t.Errorf("expected %q in archive, got %v", want, names)
		}
	}
}

func TestGetCSVTemplatesNoDueReturns(t *testing.T) {
	router := newTemplatesFixture(t, &fakeWater{dueReturns: nil})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/returns/csv-templates", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}
}

func TestGetCSVTemplatesLookupFailure(t *testing.T) {
	router := newTemplatesFixture(t, &fakeWater{dueErr: errors.New("connection refused")})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/returns/csv-templates", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", w.Code)
	}
}
