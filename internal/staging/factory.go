package staging

import (
	"context"
	"fmt"

	"papertrust/internal/config"
	"papertrust/internal/domain"
	"papertrust/internal/port"
	"papertrust/internal/staging/cloudinary"
	"papertrust/internal/storage/gcs"
	s3storage "papertrust/internal/storage/s3"
)

// ProviderFactory creates a StagingUploader from staging config.
type ProviderFactory func(ctx context.Context, cfg *config.StagingConfig) (port.StagingUploader, error)

var providers = map[string]ProviderFactory{
	"cloudinary": func(_ context.Context, cfg *config.StagingConfig) (port.StagingUploader, error) {
		return cloudinary.NewUploader(cfg), nil
	},
	"s3": func(_ context.Context, cfg *config.StagingConfig) (port.StagingUploader, error) {
		return s3storage.NewS3Stager(&cfg.S3)
	},
	"gcs": func(ctx context.Context, cfg *config.StagingConfig) (port.StagingUploader, error) {
		return gcs.NewGCSStager(ctx, &cfg.GCS)
	},
}

// NewUploader creates the StagingUploader selected by cfg.Provider.
func NewUploader(ctx context.Context, cfg *config.StagingConfig) (port.StagingUploader, error) {
	factory, ok := providers[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownStagingProvider, cfg.Provider)
	}
	return factory(ctx, cfg)
}
