package port

import (
	"context"

	"papertrust/internal/domain"
)

// StageInput encapsulates the parameters needed to stage a local file.
type StageInput struct {
	Path        string
	ContentType string
	Kind        domain.AssetKind
}

// StagingUploader pushes a local file to a remote store and returns a publicly resolvable URL.
type StagingUploader interface {
	Stage(ctx context.Context, input StageInput) (*domain.StagedAsset, error)
}
