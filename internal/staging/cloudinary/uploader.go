package cloudinary

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"papertrust/internal/config"
	"papertrust/internal/domain"
	"papertrust/internal/port"
)

const providerName = "cloudinary"

// Uploader implements port.StagingUploader with Cloudinary unsigned uploads.
type Uploader struct {
	baseURL      string
	cloudName    string
	uploadPreset string
	client       *http.Client
}

// NewUploader creates a Cloudinary uploader from staging config.
func NewUploader(cfg *config.StagingConfig) *Uploader {
	timeout := cfg.Timeout()
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &Uploader{
		baseURL:      cfg.Cloudinary.BaseURL,
		cloudName:    cfg.Cloudinary.CloudName,
		uploadPreset: cfg.Cloudinary.UploadPreset,
		client:       &http.Client{Timeout: timeout},
	}
}

// uploadResponse models the subset of the Cloudinary upload response we use.
type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	PublicID  string `json:"public_id"`
	Bytes     int64  `json:"bytes"`
}

func (u *Uploader) Stage(ctx context.Context, input port.StageInput) (*domain.StagedAsset, error) {
	body, contentType, err := buildForm(input.Path, u.uploadPreset)
	if err != nil {
		return nil, &domain.StagingError{Provider: providerName, Err: err}
	}

	endpoint := fmt.Sprintf("%s/%s/%s/upload", u.baseURL, u.cloudName, resourceType(input.Kind))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, &domain.StagingError{Provider: providerName, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := u.client.Do(req)
	if err != nil {
		return nil, &domain.StagingError{Provider: providerName, Err: fmt.Errorf("calling cloudinary API: %w", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.StagingError{Provider: providerName, StatusCode: resp.StatusCode, Err: fmt.Errorf("reading response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &domain.StagingError{
			Provider:   providerName,
			StatusCode: resp.StatusCode,
			Body:       truncate(string(respBody), 2000),
			Err:        fmt.Errorf("cloudinary API error (status %d)", resp.StatusCode),
		}
	}

	var parsed uploadResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, &domain.StagingError{Provider: providerName, Err: fmt.Errorf("unmarshaling response: %w", err)}
	}
	if parsed.SecureURL == "" {
		return nil, &domain.StagingError{
			Provider: providerName,
			Body:     truncate(string(respBody), 2000),
			Err:      fmt.Errorf("response has no secure_url"),
		}
	}

	return &domain.StagedAsset{
		URL:      parsed.SecureURL,
		Provider: providerName,
		RemoteID: parsed.PublicID,
		Bytes:    parsed.Bytes,
	}, nil
}

func buildForm(path, preset string) (*bytes.Buffer, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("opening staged file: %w", err)
	}
	defer func() { _ = f.Close() }()

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, "", fmt.Errorf("creating form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", fmt.Errorf("copying staged file: %w", err)
	}
	if err := w.WriteField("upload_preset", preset); err != nil {
		return nil, "", fmt.Errorf("writing upload_preset: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("closing form: %w", err)
	}
	return body, w.FormDataContentType(), nil
}

// resourceType maps an asset kind onto Cloudinary's upload endpoint family.
// PDFs go through "raw" so Cloudinary serves the original bytes.
func resourceType(kind domain.AssetKind) string {
	if kind == domain.AssetKindImage {
		return "image"
	}
	return "raw"
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
