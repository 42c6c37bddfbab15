package gcs

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"papertrust/internal/config"
	"papertrust/internal/domain"
	"papertrust/internal/port"
	objstorage "papertrust/internal/storage"
)

const providerName = "gcs"

type gcsStager struct {
	client *storage.Client
	cfg    config.GCSConfig
	now    func() time.Time
}

// NewGCSStager creates a Google Cloud Storage backed StagingUploader.
// Credentials come from CredentialsFile when set, otherwise from the environment.
// A non-empty Endpoint targets an emulator such as fake-gcs-server and sends unauthenticated requests.
func NewGCSStager(ctx context.Context, cfg *config.GCSConfig) (port.StagingUploader, error) {
	var opts []option.ClientOption
	switch {
	case cfg.Endpoint != "":
		opts = append(opts,
			option.WithEndpoint(cfg.Endpoint+"/storage/v1/"),
			option.WithoutAuthentication(),
		)
	case cfg.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating gcs client: %w", err)
	}
	return &gcsStager{client: client, cfg: *cfg, now: time.Now}, nil
}

func (g *gcsStager) Stage(ctx context.Context, input port.StageInput) (*domain.StagedAsset, error) {
	f, err := os.Open(input.Path)
	if err != nil {
		return nil, &domain.StagingError{Provider: providerName, Err: fmt.Errorf("opening staged file: %w", err)}
	}
	defer func() { _ = f.Close() }()

	bucket := g.client.Bucket(g.cfg.Bucket)
	name := objstorage.ObjectKey(g.cfg.Prefix, g.now(), filepath.Ext(input.Path))

	w := bucket.Object(name).NewWriter(ctx)
	w.ContentType = input.ContentType
	written, err := io.Copy(w, f)
	if err != nil {
		_ = w.Close()
		return nil, &domain.StagingError{Provider: providerName, Err: fmt.Errorf("writing gcs object: %w", err)}
	}
	if err := w.Close(); err != nil {
		return nil, &domain.StagingError{Provider: providerName, Err: fmt.Errorf("finalizing gcs object: %w", err)}
	}

	url := g.cfg.PublicBaseURL + "/" + name
	if g.cfg.PublicBaseURL == "" {
		url, err = bucket.SignedURL(name, &storage.SignedURLOptions{
			Scheme:  storage.SigningSchemeV4,
			Method:  http.MethodGet,
			Expires: g.now().Add(time.Duration(g.cfg.SignedURLExpiry) * time.Second),
		})
		if err != nil {
			return nil, &domain.StagingError{Provider: providerName, Err: fmt.Errorf("signing gcs url: %w", err)}
		}
	}

	return &domain.StagedAsset{
		URL:      url,
		Provider: providerName,
		RemoteID: name,
		Bytes:    written,
	}, nil
}
