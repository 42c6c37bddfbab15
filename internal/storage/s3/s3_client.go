package s3

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"papertrust/internal/config"
	"papertrust/internal/domain"
	"papertrust/internal/port"
	"papertrust/internal/storage"
)

const providerName = "s3"

type s3Stager struct {
	client    *s3.Client
	presigner *s3.PresignClient
	uploader  *manager.Uploader
	cfg       config.S3Config
	now       func() time.Time
}

// NewS3Stager creates an S3-backed StagingUploader. Staged objects are exposed either
// under PublicBaseURL or through a presigned GET URL.
func NewS3Stager(cfg *config.S3Config) (port.StagingUploader, error) {
	var opts []func(*awsconfig.LoadOptions) error
	opts = append(opts, awsconfig.WithRegion(cfg.Region))

	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}

	client := s3.NewFromConfig(awsCfg, s3Opts...)
	return &s3Stager{
		client:    client,
		presigner: s3.NewPresignClient(client),
		uploader:  manager.NewUploader(client),
		cfg:       *cfg,
		now:       time.Now,
	}, nil
}

func (c *s3Stager) Stage(ctx context.Context, input port.StageInput) (*domain.StagedAsset, error) {
	f, err := os.Open(input.Path)
	if err != nil {
		return nil, &domain.StagingError{Provider: providerName, Err: fmt.Errorf("opening staged file: %w", err)}
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return nil, &domain.StagingError{Provider: providerName, Err: fmt.Errorf("stat staged file: %w", err)}
	}

	key := storage.ObjectKey(c.cfg.Prefix, c.now(), filepath.Ext(input.Path))
	_, err = c.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.cfg.Bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(input.ContentType),
	})
	if err != nil {
		return nil, &domain.StagingError{Provider: providerName, Err: fmt.Errorf("s3 upload: %w", err)}
	}

	url, err := c.publicURL(ctx, key)
	if err != nil {
		return nil, &domain.StagingError{Provider: providerName, Err: err}
	}

	return &domain.StagedAsset{
		URL:      url,
		Provider: providerName,
		RemoteID: key,
		Bytes:    info.Size(),
	}, nil
}

func (c *s3Stager) publicURL(ctx context.Context, key string) (string, error) {
	if c.cfg.PublicBaseURL != "" {
		return c.cfg.PublicBaseURL + "/" + key, nil
	}
	result, err := c.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.cfg.Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(time.Duration(c.cfg.PresignExpiry)*time.Second))
	if err != nil {
		return "", fmt.Errorf("s3 presign: %w", err)
	}
	return result.URL, nil
}
