package port

import (
	"context"

	"papertrust/internal/domain"
)

// DocumentNormalizer converts a source image into a single-page PDF in scratch storage.
// The returned document is fully flushed to disk; on error no file is left behind.
type DocumentNormalizer interface {
	Normalize(ctx context.Context, imagePath string) (*domain.NormalizedDocument, error)
}
