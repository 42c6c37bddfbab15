package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"papertrust/internal/domain"
	"papertrust/internal/middleware"
)

// ResultResponse is the body of a successful OCR request. Result is the provider payload, verbatim.
type ResultResponse struct {
	Result json.RawMessage `json:"result"`
}

// UploadResponse is the body of a successful proxy upload.
type UploadResponse struct {
	URL string `json:"url"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error     string           `json:"error"`
	Details   *ProviderDetails `json:"details,omitempty"`
	StagedURL string           `json:"staged_url,omitempty"`
}

// ProviderDetails carries diagnostics from a failed stage.
type ProviderDetails struct {
	Provider   string `json:"provider,omitempty"`
	StatusCode int    `json:"status_code,omitempty"`
	Body       string `json:"body,omitempty"`
	Message    string `json:"message,omitempty"`
}

// RespondError sends an error response with the given status code.
func RespondError(c *gin.Context, status int, body ErrorResponse) {
	c.JSON(status, body)
}

// MapError translates pipeline errors to HTTP status codes and response bodies.
func MapError(err error) (int, ErrorResponse) {
	var (
		inputErr *domain.InputError
		normErr  *domain.NormalizationError
		stageErr *domain.StagingError
		ocrErr   *domain.OCRError
	)
	switch {
	case errors.Is(err, domain.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, ErrorResponse{Error: "File exceeds maximum allowed size"}
	case errors.Is(err, domain.ErrNoFile):
		return http.StatusBadRequest, ErrorResponse{Error: "No file uploaded"}
	case errors.Is(err, domain.ErrMultipleFiles):
		return http.StatusBadRequest, ErrorResponse{Error: "Only one file may be uploaded"}
	case errors.As(err, &inputErr):
		return http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid upload",
			Details: &ProviderDetails{Message: causeMessage(inputErr.Err)},
		}
	case errors.As(err, &normErr):
		return http.StatusInternalServerError, ErrorResponse{
			Error:   "Failed to convert image to PDF",
			Details: &ProviderDetails{Message: causeMessage(normErr.Err)},
		}
	case errors.As(err, &stageErr):
		return http.StatusInternalServerError, ErrorResponse{
			Error: "Staging upload failed",
			Details: &ProviderDetails{
				Provider:   stageErr.Provider,
				StatusCode: stageErr.StatusCode,
				Body:       stageErr.Body,
				Message:    causeMessage(stageErr.Err),
			},
		}
	case errors.As(err, &ocrErr):
		return http.StatusInternalServerError, ErrorResponse{
			Error: "OCR provider error",
			Details: &ProviderDetails{
				Provider:   "mistral",
				StatusCode: ocrErr.StatusCode,
				Body:       ocrErr.Body,
				Message:    causeMessage(ocrErr.Err),
			},
			StagedURL: ocrErr.DocumentURL,
		}
	default:
		return http.StatusInternalServerError, ErrorResponse{Error: "an internal error occurred"}
	}
}

// HandleError maps a pipeline error and sends the appropriate error response.
func HandleError(c *gin.Context, err error) {
	status, body := MapError(err)
	if status >= 500 {
		log.Printf("[%s] internal error: %v", middleware.GetRequestID(c), err)
	}
	RespondError(c, status, body)
}

// MethodNotAllowed answers requests whose method has no route.
func MethodNotAllowed(c *gin.Context) {
	RespondError(c, http.StatusMethodNotAllowed, ErrorResponse{Error: "Method not allowed"})
}

func causeMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
