package handler

import (
	"net/http"
	"os"

	"github.com/DEFRA/water-abstraction-ui-sub001/middleware"
	"github.com/DEFRA/water-abstraction-ui-sub001/pkg/logger"
	"github.com/DEFRA/water-abstraction-ui-sub001/service"
	"github.com/gin-gonic/gin"
)

// UploadOutcome is the resolved status of one upload attempt. Every outcome
// except UploadOK maps to a redirect back to the form with an error code.
type UploadOutcome int

const (
	UploadOK UploadOutcome = iota
	UploadNoFile
	UploadVirus
	UploadInvalidType
)

// ErrorCode returns the machine-readable code carried in the redirect query
// string, or "" for UploadOK.
func (o UploadOutcome) ErrorCode() string {
	switch o {
	case UploadNoFile:
		return "no-file"
	case UploadVirus:
		return "virus"
	case UploadInvalidType:
		return "invalid-type"
	}
	return ""
}

// ResolveUploadStatus maps the intake checks onto a single outcome: no file
// selected, virus found, unsupported type, or OK. UploadOK occurs exactly
// when a file is present, the scan passed and the type is CSV or XML.
func ResolveUploadStatus(filename string, virusClean bool, fileType service.FileType) UploadOutcome {
	switch {
	case filename == "":
		return UploadNoFile
	case !virusClean:
		return UploadVirus
	case !fileType.IsSupported():
		return UploadInvalidType
	default:
		return UploadOK
	}
}

// uploadErrorMessages maps ?error codes to the message shown above the form.
// Codes produced upstream (invalid-csv, invalid-xml, ...) are included;
// anything unrecognised falls back to "default".
var uploadErrorMessages = map[string]string{
	"no-file":      "Select a CSV or XML returns file",
	"virus":        "The selected file contains a virus. Upload a different file.",
	"invalid-type": "The selected file must be a CSV or XML file",
	"invalid-csv":  "The selected file could not be read as a returns CSV file",
	"invalid-xml":  "The selected file could not be read as a returns XML file",
	"empty":        "The selected file does not contain any returns",
	"timeout":      "The file took too long to process. Try uploading it again.",
	"default":      "The selected file could not be processed. Try uploading it again.",
}

// GetUploadForm renders the upload form, with a prior failure reason when an
// error code is present in the query string.
func (h *ReturnsHandler) GetUploadForm(c *gin.Context) {
	data := gin.H{
		"title":       "Upload bulk returns",
		"companyName": middleware.GetCompanyName(c),
	}

	if code := c.Query("error"); code != "" {
		message, ok := uploadErrorMessages[code]
		if !ok {
			message = uploadErrorMessages["default"]
		}
		data["errorMessage"] = message
	}

	c.HTML(http.StatusOK, "upload.html", data)
}

// PostUpload runs the intake pipeline: store the multipart payload to a
// scratch file, scan it, detect its type, submit it to the water service and
// redirect to the processing waiting page. The scratch file is removed on
// every exit path.
func (h *ReturnsHandler) PostUpload(c *gin.Context) {
	ctx := c.Request.Context()

	file, header, err := c.Request.FormFile("file")
	if err != nil || header.Filename == "" {
		c.Redirect(http.StatusFound, "/returns/upload?error="+UploadNoFile.ErrorCode())
		return
	}
	defer file.Close()

	dest := h.files.Allocate()
	if err := h.files.EnsureDir(dest); err != nil {
		h.files.Remove(dest)
		logger.Error(ctx, "failed to create scratch directory", "path", dest, "error", err)
		renderError(c)
		return
	}

	if err := h.files.Store(file, dest); err != nil {
		// A failed store may leave a partial file behind.
		h.files.Remove(dest)
		logger.Error(ctx, "failed to store upload", "path", dest, "error", err)
		renderError(c)
		return
	}
	defer h.files.Remove(dest)

	scanOutcome, err := h.scanner.Scan(ctx, dest)
	if err != nil {
		logger.Error(ctx, "virus scan failed", "path", dest, "error", err)
		renderError(c)
		return
	}

	fileType, err := service.DetectFileType(dest)
	if err != nil {
		logger.Error(ctx, "file type detection failed", "path", dest, "error", err)
		renderError(c)
		return
	}

	outcome := ResolveUploadStatus(header.Filename, scanOutcome == service.ScanClean, fileType)
	if outcome != UploadOK {
		if outcome == UploadVirus {
			logger.Error(ctx, "uploaded file failed virus scan", "filename", header.Filename)
		} else {
			logger.Info(ctx, "upload rejected", "filename", header.Filename, "reason", outcome.ErrorCode())
		}
		c.Redirect(http.StatusFound, "/returns/upload?error="+outcome.ErrorCode())
		return
	}

	contents, err := os.ReadFile(dest)
	if err != nil {
		logger.Error(ctx, "failed to read scratch file", "path", dest, "error", err)
		renderError(c)
		return
	}

	uc := userContext(c)
	eventID, err := h.water.SubmitReturnsUpload(ctx, string(contents), uc.UserName, uc.CompanyID, fileType)
	if err != nil {
		logger.Error(ctx, "failed to submit upload", "filename", header.Filename, "file_type", fileType, "error", err)
		renderError(c)
		return
	}

	logger.Info(ctx, "upload submitted", "event_id", eventID, "filename", header.Filename, "file_type", fileType)
	c.Redirect(http.StatusFound, "/returns/processing-upload/processing/"+eventID)
}
