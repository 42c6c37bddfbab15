package cloudinary_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"papertrust/internal/config"
	"papertrust/internal/domain"
	"papertrust/internal/port"
	"papertrust/internal/staging/cloudinary"
)

func newUploader(baseURL string) *cloudinary.Uploader {
	return cloudinary.NewUploader(&config.StagingConfig{
		TimeoutSecs: 5,
		Cloudinary: config.CloudinaryConfig{
			BaseURL:      baseURL,
			CloudName:    "demo",
			UploadPreset: "papertrust",
		},
	})
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestUploader_StageDocumentAsRaw(t *testing.T) {
	var gotPath, gotPreset, gotFilename, gotContent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		gotPreset = r.FormValue("upload_preset")
		f, header, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			return
		}
		defer f.Close()
		b, _ := io.ReadAll(f)
		gotFilename = header.Filename
		gotContent = string(b)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"secure_url":"https://res.cloudinary.com/demo/raw/upload/v1/abc.pdf","public_id":"abc.pdf","bytes":13}`))
	}))
	defer srv.Close()

	path := writeFile(t, "doc.pdf", "%PDF-1.7 test")
	asset, err := newUploader(srv.URL).Stage(context.Background(), port.StageInput{
		Path:        path,
		ContentType: domain.ContentTypePDF,
		Kind:        domain.AssetKindDocument,
	})
	require.NoError(t, err)

	assert.Equal(t, "/demo/raw/upload", gotPath)
	assert.Equal(t, "papertrust", gotPreset)
	assert.Equal(t, "doc.pdf", gotFilename)
	assert.Equal(t, "%PDF-1.7 test", gotContent)
	assert.Equal(t, "https://res.cloudinary.com/demo/raw/upload/v1/abc.pdf", asset.URL)
	assert.Equal(t, "cloudinary", asset.Provider)
	assert.Equal(t, "abc.pdf", asset.RemoteID)
	assert.Equal(t, int64(13), asset.Bytes)
}

func TestUploader_StageImageUsesImageEndpoint(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{"secure_url":"https://res.cloudinary.com/demo/image/upload/v1/x.png"}`))
	}))
	defer srv.Close()

	_, err := newUploader(srv.URL).Stage(context.Background(), port.StageInput{
		Path: writeFile(t, "x.png", "png"),
		Kind: domain.AssetKindImage,
	})
	require.NoError(t, err)
	assert.Equal(t, "/demo/image/upload", gotPath)
}

func TestUploader_ProviderRejects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Upload preset not found"}}`))
	}))
	defer srv.Close()

	_, err := newUploader(srv.URL).Stage(context.Background(), port.StageInput{
		Path: writeFile(t, "doc.pdf", "%PDF"),
		Kind: domain.AssetKindDocument,
	})
	require.Error(t, err)

	var stageErr *domain.StagingError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, "cloudinary", stageErr.Provider)
	assert.Equal(t, http.StatusBadRequest, stageErr.StatusCode)
	assert.Contains(t, stageErr.Body, "Upload preset not found")
}

func TestUploader_MissingSecureURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"public_id":"abc"}`))
	}))
	defer srv.Close()

	_, err := newUploader(srv.URL).Stage(context.Background(), port.StageInput{
		Path: writeFile(t, "doc.pdf", "%PDF"),
	})

	var stageErr *domain.StagingError
	require.True(t, errors.As(err, &stageErr))
	assert.Contains(t, stageErr.Error(), "secure_url")
}

func TestUploader_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := newUploader(url).Stage(context.Background(), port.StageInput{
		Path: writeFile(t, "doc.pdf", "%PDF"),
	})

	var stageErr *domain.StagingError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, 0, stageErr.StatusCode)
}
