package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNoFile                 = errors.New("no file uploaded")
	ErrMultipleFiles          = errors.New("only one file may be uploaded")
	ErrFileTooLarge           = errors.New("file exceeds maximum allowed size")
	ErrMissingCredential      = errors.New("ocr credential is not configured")
	ErrUnknownStagingProvider = errors.New("unknown staging provider")
)

// InputError indicates the inbound upload was missing or unusable.
type InputError struct {
	Err error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid upload: %v", e.Err)
}

func (e *InputError) Unwrap() error {
	return e.Err
}

// NormalizationError indicates the image could not be decoded or the PDF could not be written.
type NormalizationError struct {
	Err error
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("normalization failed: %v", e.Err)
}

func (e *NormalizationError) Unwrap() error {
	return e.Err
}

// StagingError indicates the remote store rejected the upload or could not be reached.
// StatusCode is 0 when no response was received.
type StagingError struct {
	Provider   string
	StatusCode int
	Body       string
	Err        error
}

func (e *StagingError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s staging failed (status %d): %s", e.Provider, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s staging failed: %v", e.Provider, e.Err)
}

func (e *StagingError) Unwrap() error {
	return e.Err
}

// OCRError indicates the OCR provider rejected the document or could not be reached.
// DocumentURL is the staged URL that was submitted.
type OCRError struct {
	StatusCode  int
	Body        string
	DocumentURL string
	Err         error
}

func (e *OCRError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("ocr failed (status %d): %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("ocr failed: %v", e.Err)
}

func (e *OCRError) Unwrap() error {
	return e.Err
}

// CleanupWarning records a scratch file that could not be deleted. It is logged, never returned to a caller.
type CleanupWarning struct {
	Path string
	Err  error
}

func (e *CleanupWarning) Error() string {
	return fmt.Sprintf("cleanup of %s failed: %v", e.Path, e.Err)
}

func (e *CleanupWarning) Unwrap() error {
	return e.Err
}
