package handler

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"papertrust/internal/domain"
	"papertrust/internal/middleware"
	"papertrust/internal/service"
)

// multipartOverhead is the slack allowed on top of the file size for boundaries and headers.
const multipartOverhead = 1 << 20

// OCRHandler handles document recognition and proxy upload endpoints.
type OCRHandler struct {
	ocrService     service.OCRService
	maxUploadBytes int64
}

// NewOCRHandler creates a new OCRHandler.
func NewOCRHandler(ocrService service.OCRService, maxUploadBytes int64) *OCRHandler {
	return &OCRHandler{ocrService: ocrService, maxUploadBytes: maxUploadBytes}
}

// Recognize handles POST /api/ocr
// @Summary Recognize text in an image
// @Description Convert one uploaded image to a single-page A4 PDF, stage it and run OCR on it. The provider payload is returned verbatim.
// @Tags ocr
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Image to recognize (JPEG, PNG, GIF, BMP, TIFF or WebP)"
// @Success 200 {object} ResultResponse "OCR payload"
// @Failure 400 {object} ErrorResponse "Missing, duplicate or empty file"
// @Failure 405 {object} ErrorResponse "Method not allowed"
// @Failure 413 {object} ErrorResponse "File too large"
// @Failure 500 {object} ErrorResponse "Conversion, staging or OCR failed"
// @Router /api/ocr [post]
func (h *OCRHandler) Recognize(c *gin.Context) {
	input, cleanup, ok := h.extractUpload(c)
	if !ok {
		return
	}
	defer cleanup()

	result, err := h.ocrService.Recognize(c.Request.Context(), input)
	if err != nil {
		HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, ResultResponse{Result: result.Payload})
}

// Upload handles POST /api/upload
// @Summary Stage an image
// @Description Upload one image to the staging store without OCR and return its public URL.
// @Tags ocr
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Image to stage"
// @Success 200 {object} UploadResponse "Public URL of the staged image"
// @Failure 400 {object} ErrorResponse "Missing, duplicate or empty file"
// @Failure 413 {object} ErrorResponse "File too large"
// @Failure 500 {object} ErrorResponse "Staging failed"
// @Router /api/upload [post]
func (h *OCRHandler) Upload(c *gin.Context) {
	input, cleanup, ok := h.extractUpload(c)
	if !ok {
		return
	}
	defer cleanup()

	asset, err := h.ocrService.StageUpload(c.Request.Context(), input)
	if err != nil {
		HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, UploadResponse{URL: asset.URL})
}

// extractUpload parses the multipart body and opens its single "file" part.
// On failure the error response has already been written. The returned cleanup
// closes the part and removes any temp files the multipart reader spilled to disk.
func (h *OCRHandler) extractUpload(c *gin.Context) (service.UploadInput, func(), bool) {
	log.Printf("ocrHandler: [%s] %s -> %s", middleware.GetRequestID(c), domain.StateIdle, domain.StateParsing)

	if h.maxUploadBytes > 0 && c.Request.Body != nil {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+multipartOverhead)
	}

	form, err := c.MultipartForm()
	if err != nil {
		HandleError(c, classifyFormError(err))
		return service.UploadInput{}, nil, false
	}

	removeForm := func() { _ = form.RemoveAll() }

	files := form.File["file"]
	switch {
	case len(files) == 0:
		removeForm()
		HandleError(c, &domain.InputError{Err: domain.ErrNoFile})
		return service.UploadInput{}, nil, false
	case len(files) > 1:
		removeForm()
		HandleError(c, &domain.InputError{Err: domain.ErrMultipleFiles})
		return service.UploadInput{}, nil, false
	}

	header := files[0]
	if h.maxUploadBytes > 0 && header.Size > h.maxUploadBytes {
		removeForm()
		HandleError(c, &domain.InputError{Err: domain.ErrFileTooLarge})
		return service.UploadInput{}, nil, false
	}

	file, err := header.Open()
	if err != nil {
		removeForm()
		HandleError(c, &domain.InputError{Err: err})
		return service.UploadInput{}, nil, false
	}

	input := service.UploadInput{
		RequestID:   middleware.GetRequestID(c),
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	}
	cleanup := func() {
		_ = file.Close()
		removeForm()
	}
	return input, cleanup, true
}

func classifyFormError(err error) error {
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		return &domain.InputError{Err: domain.ErrFileTooLarge}
	case errors.Is(err, http.ErrNotMultipart), errors.Is(err, http.ErrMissingBoundary), errors.Is(err, io.EOF):
		// A multipart body that ends before its first part carries no file.
		return &domain.InputError{Err: domain.ErrNoFile}
	default:
		return &domain.InputError{Err: err}
	}
}
