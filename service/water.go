package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/DEFRA/water-abstraction-ui-sub001/config"
	"github.com/DEFRA/water-abstraction-ui-sub001/model"
	"github.com/go-resty/resty/v2"
)

// UserContext identifies the submitter on calls to the water service.
type UserContext struct {
	UserName  string
	CompanyID string
}

// apiError is the error object the water service attaches to a response body.
type apiError struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// envelope is the { data, error } wrapper the water service puts around every
// response. Each endpoint gets a precisely typed Data.
type envelope[T any] struct {
	Data  T         `json:"data"`
	Error *apiError `json:"error"`
}

type submitUploadData struct {
	EventID string `json:"eventId"`
}

// WaterClient is an HTTP client for the upstream water service. Calls are
// single-attempt; a failed upload is re-initiated by the operator re-uploading.
type WaterClient struct {
	http *resty.Client
}

func NewWaterClient(cfg *config.WaterConfig) *WaterClient {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(time.Duration(cfg.TimeoutSeconds) * time.Second).
		SetHeader("Authorization", "Bearer "+cfg.APIKey).
		SetHeader("Accept", "application/json")

	return &WaterClient{http: client}
}

// SubmitReturnsUpload posts file contents plus submitter identity for
// validation and returns the event id assigned by the water service.
func (c *WaterClient) SubmitReturnsUpload(ctx context.Context, fileData, userName, companyID string, fileType FileType) (string, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"fileData":  fileData,
			"userName":  userName,
			"companyId": companyID,
		}).
		Post("/returns/upload/" + string(fileType))
	if err != nil {
		return "", fmt.Errorf("water service: submit upload: %w", err)
	}

	data, err := decode[submitUploadData](resp, "submit upload")
	if err != nil {
		return "", err
	}
	return data.EventID, nil
}

// GetEvent loads the current state of an upload event. A missing event id
// yields ErrNotFound.
func (c *WaterClient) GetEvent(ctx context.Context, eventID string) (*model.UploadEvent, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		Get("/event/" + eventID)
	if err != nil {
		return nil, fmt.Errorf("water service: get event %s: %w", eventID, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, fmt.Errorf("event %s: %w", eventID, ErrNotFound)
	}

	event, err := decode[model.UploadEvent](resp, "get event "+eventID)
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// GetUploadPreview fetches the validation results for an event: the list of
// return records parsed out of the uploaded batch.
func (c *WaterClient) GetUploadPreview(ctx context.Context, eventID string, uc UserContext) ([]model.ParsedReturnRecord, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(contextParams(uc)).
		Get("/returns/upload-preview/" + eventID)
	if err != nil {
		return nil, fmt.Errorf("water service: upload preview %s: %w", eventID, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, fmt.Errorf("upload preview %s: %w", eventID, ErrNotFound)
	}

	return decode[[]model.ParsedReturnRecord](resp, "upload preview "+eventID)
}

// GetUploadPreviewReturn fetches a single parsed return record with its line
// data for the drill-down view.
func (c *WaterClient) GetUploadPreviewReturn(ctx context.Context, eventID, returnID string, uc UserContext) (*model.ParsedReturnRecord, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(contextParams(uc)).
		Get("/returns/upload-preview/" + eventID + "/" + url.PathEscape(returnID))
	if err != nil {
		return nil, fmt.Errorf("water service: upload preview %s return %s: %w", eventID, returnID, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, fmt.Errorf("upload preview %s return %s: %w", eventID, returnID, ErrNotFound)
	}

	record, err := decode[model.ParsedReturnRecord](resp, "upload preview "+eventID+" return "+returnID)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// ConfirmUpload instructs the water service to commit a validated batch. Not
// idempotent here; re-confirming an already submitted batch is the water
// service's responsibility to reject.
func (c *WaterClient) ConfirmUpload(ctx context.Context, eventID string, uc UserContext) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(contextParams(uc)).
		Post("/returns/upload-submit/" + eventID)
	if err != nil {
		return fmt.Errorf("water service: confirm upload %s: %w", eventID, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return fmt.Errorf("confirm upload %s: %w", eventID, ErrNotFound)
	}

	_, err = decode[json.RawMessage](resp, "confirm upload "+eventID)
	return err
}

// GetCurrentDueReturns lists a company's due return shells for the current
// cycle, used by the CSV template builder.
func (c *WaterClient) GetCurrentDueReturns(ctx context.Context, companyID string) ([]model.ParsedReturnRecord, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		Get("/company/" + companyID + "/due-returns")
	if err != nil {
		return nil, fmt.Errorf("water service: due returns for %s: %w", companyID, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, fmt.Errorf("due returns for company %s: %w", companyID, ErrNotFound)
	}

	return decode[[]model.ParsedReturnRecord](resp, "due returns for "+companyID)
}

func contextParams(uc UserContext) map[string]string {
	return map[string]string{
		"userName":  uc.UserName,
		"companyId": uc.CompanyID,
	}
}

// decode unwraps a { data, error } envelope, treating a non-2xx status or an
// explicit error field as an upstream failure with the payload attached.
func decode[T any](resp *resty.Response, op string) (T, error) {
	var env envelope[T]

	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		var zero T
		return zero, fmt.Errorf("water service: %s: cannot parse response (status %d): %w", op, resp.StatusCode(), err)
	}
	if env.Error != nil {
		var zero T
		return zero, fmt.Errorf("water service: %s: %s: %s", op, env.Error.Name, env.Error.Message)
	}
	if resp.IsError() {
		var zero T
		return zero, fmt.Errorf("water service: %s: unexpected status %d", op, resp.StatusCode())
	}

	return env.Data, nil
}
