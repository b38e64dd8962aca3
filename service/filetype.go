package service

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// FileType is the detected upload format.
type FileType string

const (
	FileTypeCSV     FileType = "csv"
	FileTypeXML     FileType = "xml"
	FileTypeUnknown FileType = ""
)

// IsSupported reports whether the type can be submitted for processing.
func (t FileType) IsSupported() bool {
	return t == FileTypeCSV || t == FileTypeXML
}

// DetectFileType inspects the file's signature bytes first and falls back to
// attempting a CSV parse when no recognised signature is found. Detection is
// a pure function of the file contents, so repeated calls on an unmodified
// file return the same type.
func DetectFileType(path string) (FileType, error) {
	if _, err := os.Stat(path); err != nil {
		return FileTypeUnknown, fmt.Errorf("cannot detect type of %s: %w", path, err)
	}

	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return FileTypeUnknown, fmt.Errorf("cannot detect type of %s: %w", path, err)
	}

	switch {
	case matchesMIME(mtype, "text/xml", "application/xml"):
		return FileTypeXML, nil
	case matchesMIME(mtype, "text/csv"):
		return FileTypeCSV, nil
	}

	// No recognised signature; a plain text file may still be parseable CSV.
	if parsesAsCSV(path) {
		return FileTypeCSV, nil
	}
	return FileTypeUnknown, nil
}

func matchesMIME(m *mimetype.MIME, candidates ...string) bool {
	for _, want := range candidates {
		if m.Is(want) {
			return true
		}
	}
	return false
}

func parsesAsCSV(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	// Binary content is never CSV, whatever the csv reader makes of it.
	probe := make([]byte, 512)
	n, _ := f.Read(probe)
	if strings.ContainsRune(string(probe[:n]), 0) {
		return false
	}
	if _, err := f.Seek(0, 0); err != nil {
		return false
	}

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	return err == nil && len(rows) > 0
}
