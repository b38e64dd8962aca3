package model

import (
	"strings"
)

// UploadEvent represents one bulk-upload attempt tracked by the water service.
// The event is created when a file is accepted and mutated only by the
// upstream service; this portal reads it while polling.
type UploadEvent struct {
	EventID  string        `json:"eventId"`
	Issuer   string        `json:"issuer"`
	Type     string        `json:"type"`
	Status   string        `json:"status"`
	Metadata EventMetadata `json:"metadata"`
}

// UploadEvent status values. Terminal states are StatusError and
// StatusSubmitted.
const (
	StatusProcessing = "processing"
	StatusValidated  = "validated"
	StatusError      = "error"
	StatusSubmitting = "submitting"
	StatusSubmitted  = "submitted"
)

// EventTypeReturnsUpload is the fixed event type tag assigned by the water
// service to bulk return uploads.
const EventTypeReturnsUpload = "returns-upload"

// EventMetadata carries the outcome of upstream processing: an error key on
// failure, the parsed return records on success.
type EventMetadata struct {
	Error   *EventError          `json:"error,omitempty"`
	Returns []ParsedReturnRecord `json:"returns,omitempty"`
}

// EventError is the machine-readable failure reason set by the water service,
// e.g. "invalid-xml" or "invalid-csv".
type EventError struct {
	Key     string `json:"key"`
	Message string `json:"message"`
}

// Return reporting frequencies.
const (
	FrequencyDay   = "day"
	FrequencyWeek  = "week"
	FrequencyMonth = "month"
)

// ParsedReturnRecord is one return found inside an uploaded batch, produced
// by upstream validation and read-only thereafter.
type ParsedReturnRecord struct {
	ReturnID      string       `json:"returnId"`
	LicenceNumber string       `json:"licenceNumber"`
	Frequency     string       `json:"frequency"`
	StartDate     Date         `json:"startDate"`
	EndDate       Date         `json:"endDate"`
	DueDate       Date         `json:"dueDate"`
	IsNil         bool         `json:"isNil"`
	Errors        []string     `json:"errors"`
	Lines         []ReturnLine `json:"lines"`
}

// ReturnLine is one date-ranged quantity reading within a return.
type ReturnLine struct {
	StartDate  Date     `json:"startDate"`
	EndDate    Date     `json:"endDate"`
	Quantity   *float64 `json:"quantity,omitempty"`
	TimePeriod string   `json:"timePeriod,omitempty"`
}

// ReturnRequirement derives the return requirement code from the return id.
// Return ids are colon-delimited, e.g. "v1:1:01/123:12345678:2019-04-01:2020-03-31";
// the requirement is the fourth segment. Returns "" when the id has fewer
// segments.
func (r ParsedReturnRecord) ReturnRequirement() string {
	parts := strings.Split(r.ReturnID, ":")
	if len(parts) < 4 {
		return ""
	}
	return parts[3]
}

// HasErrors reports whether upstream validation attached any errors to this
// record.
func (r ParsedReturnRecord) HasErrors() bool {
	return len(r.Errors) > 0
}
