package port

import (
	"context"

	"papertrust/internal/domain"
)

// OCRClient submits a document URL to an OCR provider.
type OCRClient interface {
	Recognize(ctx context.Context, documentURL string) (*domain.OCRResult, error)
}
