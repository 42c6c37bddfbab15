package service_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"papertrust/internal/config"
	"papertrust/internal/domain"
	"papertrust/internal/port"
	"papertrust/internal/scratch"
	"papertrust/internal/service"
	"papertrust/mocks"
)

// countingStore records allocations and releases on top of a real scratch directory.
type countingStore struct {
	*scratch.LocalStore
	mu        sync.Mutex
	allocated int
	released  int
}

func (s *countingStore) Allocate(suffix string) (string, error) {
	p, err := s.LocalStore.Allocate(suffix)
	if err == nil {
		s.mu.Lock()
		s.allocated++
		s.mu.Unlock()
	}
	return p, err
}

func (s *countingStore) Release(path string) error {
	s.mu.Lock()
	s.released++
	s.mu.Unlock()
	return s.LocalStore.Release(path)
}

func newCountingStore(t *testing.T) *countingStore {
	t.Helper()
	ls, err := scratch.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	return &countingStore{LocalStore: ls}
}

func assertScratchEmpty(t *testing.T, store *countingStore) {
	t.Helper()
	entries, err := os.ReadDir(store.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Equal(t, store.allocated, store.released)
}

type fixture struct {
	store      *countingStore
	normalizer *mocks.MockDocumentNormalizer
	stager     *mocks.MockStagingUploader
	ocr        *mocks.MockOCRClient
	svc        service.OCRService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:      newCountingStore(t),
		normalizer: new(mocks.MockDocumentNormalizer),
		stager:     new(mocks.MockStagingUploader),
		ocr:        new(mocks.MockOCRClient),
	}
	f.svc = service.NewOCRService(f.store, f.normalizer, f.stager, f.ocr, &config.ScratchConfig{MaxUploadMB: 1})
	return f
}

// expectNormalize makes the normalizer allocate a real PDF path, like the real one does.
func (f *fixture) expectNormalize(t *testing.T) string {
	t.Helper()
	pdfPath, err := f.store.Allocate(".pdf")
	require.NoError(t, err)
	f.normalizer.On("Normalize", mock.Anything, mock.MatchedBy(func(p string) bool {
		return strings.HasSuffix(p, ".png")
	})).Return(&domain.NormalizedDocument{Path: pdfPath}, nil)
	return pdfPath
}

func pngUpload(body string) service.UploadInput {
	return service.UploadInput{
		RequestID:   "req-1",
		Filename:    "scan.png",
		ContentType: "image/png",
		Size:        int64(len(body)),
		Body:        strings.NewReader(body),
	}
}

func TestOCRService_Recognize_Success(t *testing.T) {
	f := newFixture(t)
	pdfPath := f.expectNormalize(t)

	asset := &domain.StagedAsset{URL: "https://cdn.example.com/doc.pdf", Provider: "cloudinary"}
	f.stager.On("Stage", mock.Anything, port.StageInput{
		Path:        pdfPath,
		ContentType: domain.ContentTypePDF,
		Kind:        domain.AssetKindDocument,
	}).Return(asset, nil)

	payload := json.RawMessage(`{"pages":[{"markdown":"hello"}]}`)
	f.ocr.On("Recognize", mock.Anything, asset.URL).
		Return(&domain.OCRResult{Payload: payload, DocumentURL: asset.URL, PageCount: 1}, nil)

	result, err := f.svc.Recognize(context.Background(), pngUpload("fake png bytes"))
	require.NoError(t, err)

	assert.JSONEq(t, string(payload), string(result.Payload))
	assertScratchEmpty(t, f.store)
	assert.Equal(t, 2, f.store.allocated)
	f.normalizer.AssertExpectations(t)
	f.stager.AssertExpectations(t)
	f.ocr.AssertExpectations(t)
}

func TestOCRService_Recognize_NormalizationFailure(t *testing.T) {
	f := newFixture(t)
	f.normalizer.On("Normalize", mock.Anything, mock.Anything).
		Return(nil, errors.New("unknown format"))

	_, err := f.svc.Recognize(context.Background(), pngUpload("not an image"))
	require.Error(t, err)

	var normErr *domain.NormalizationError
	assert.True(t, errors.As(err, &normErr))
	f.stager.AssertNotCalled(t, "Stage", mock.Anything, mock.Anything)
	f.ocr.AssertNotCalled(t, "Recognize", mock.Anything, mock.Anything)
	assertScratchEmpty(t, f.store)
}

func TestOCRService_Recognize_StagingFailure(t *testing.T) {
	f := newFixture(t)
	f.expectNormalize(t)
	f.stager.On("Stage", mock.Anything, mock.Anything).
		Return(nil, &domain.StagingError{Provider: "cloudinary", StatusCode: 401, Body: "bad preset"})

	_, err := f.svc.Recognize(context.Background(), pngUpload("png"))
	require.Error(t, err)

	var stageErr *domain.StagingError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, 401, stageErr.StatusCode)
	f.ocr.AssertNotCalled(t, "Recognize", mock.Anything, mock.Anything)
	assertScratchEmpty(t, f.store)
}

func TestOCRService_Recognize_UntypedStagingFailure(t *testing.T) {
	f := newFixture(t)
	f.expectNormalize(t)
	f.stager.On("Stage", mock.Anything, mock.Anything).Return(nil, errors.New("boom"))

	_, err := f.svc.Recognize(context.Background(), pngUpload("png"))

	var stageErr *domain.StagingError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, "unknown", stageErr.Provider)
}

func TestOCRService_Recognize_OCRFailureCarriesStagedURL(t *testing.T) {
	f := newFixture(t)
	f.expectNormalize(t)
	f.stager.On("Stage", mock.Anything, mock.Anything).
		Return(&domain.StagedAsset{URL: "https://cdn.example.com/doc.pdf"}, nil)
	f.ocr.On("Recognize", mock.Anything, "https://cdn.example.com/doc.pdf").
		Return(nil, &domain.OCRError{StatusCode: 500, Body: "upstream"})

	_, err := f.svc.Recognize(context.Background(), pngUpload("png"))

	var ocrErr *domain.OCRError
	require.True(t, errors.As(err, &ocrErr))
	assert.Equal(t, "https://cdn.example.com/doc.pdf", ocrErr.DocumentURL)
	assert.Equal(t, "upstream", ocrErr.Body)
	assertScratchEmpty(t, f.store)
}

func TestOCRService_Recognize_NoBody(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Recognize(context.Background(), service.UploadInput{RequestID: "req-1"})

	assert.ErrorIs(t, err, domain.ErrNoFile)
	assert.Equal(t, 0, f.store.allocated)
}

func TestOCRService_Recognize_EmptyBody(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Recognize(context.Background(), pngUpload(""))

	var inputErr *domain.InputError
	assert.True(t, errors.As(err, &inputErr))
	f.normalizer.AssertNotCalled(t, "Normalize", mock.Anything, mock.Anything)
	assertScratchEmpty(t, f.store)
}

func TestOCRService_Recognize_DeclaredSizeTooLarge(t *testing.T) {
	f := newFixture(t)
	input := pngUpload("small")
	input.Size = 2 << 20

	_, err := f.svc.Recognize(context.Background(), input)

	assert.ErrorIs(t, err, domain.ErrFileTooLarge)
	assert.Equal(t, 0, f.store.allocated)
}

func TestOCRService_Recognize_StreamedSizeTooLarge(t *testing.T) {
	f := newFixture(t)
	input := pngUpload("")
	input.Size = 0
	input.Body = bytes.NewReader(make([]byte, (1<<20)+1))

	_, err := f.svc.Recognize(context.Background(), input)

	assert.ErrorIs(t, err, domain.ErrFileTooLarge)
	assertScratchEmpty(t, f.store)
}

func TestOCRService_Recognize_ReleaseFailureKeepsOutcome(t *testing.T) {
	uploadPath := filepath.Join(t.TempDir(), "upload.png")
	require.NoError(t, os.WriteFile(uploadPath, nil, 0o600))

	store := new(mocks.MockTempFileStore)
	store.On("Allocate", ".png").Return(uploadPath, nil)
	store.On("Release", mock.Anything).Return(errors.New("permission denied"))

	normalizer := new(mocks.MockDocumentNormalizer)
	normalizer.On("Normalize", mock.Anything, uploadPath).
		Return(&domain.NormalizedDocument{Path: "/scratch/doc.pdf"}, nil)
	stager := new(mocks.MockStagingUploader)
	stager.On("Stage", mock.Anything, mock.Anything).Return(&domain.StagedAsset{URL: "https://x/doc.pdf"}, nil)
	ocr := new(mocks.MockOCRClient)
	ocr.On("Recognize", mock.Anything, "https://x/doc.pdf").
		Return(&domain.OCRResult{Payload: json.RawMessage(`{}`)}, nil)

	svc := service.NewOCRService(store, normalizer, stager, ocr, &config.ScratchConfig{MaxUploadMB: 1})
	result, err := svc.Recognize(context.Background(), pngUpload("png"))

	require.NoError(t, err)
	assert.NotNil(t, result)
	store.AssertCalled(t, "Release", uploadPath)
	store.AssertCalled(t, "Release", "/scratch/doc.pdf")
	store.AssertNumberOfCalls(t, "Release", 2)
}

func TestOCRService_StageUpload(t *testing.T) {
	f := newFixture(t)
	f.stager.On("Stage", mock.Anything, mock.MatchedBy(func(in port.StageInput) bool {
		return in.Kind == domain.AssetKindImage && in.ContentType == "image/png" && strings.HasSuffix(in.Path, ".png")
	})).Return(&domain.StagedAsset{URL: "https://cdn.example.com/scan.png"}, nil)

	asset, err := f.svc.StageUpload(context.Background(), pngUpload("png"))
	require.NoError(t, err)

	assert.Equal(t, "https://cdn.example.com/scan.png", asset.URL)
	f.normalizer.AssertNotCalled(t, "Normalize", mock.Anything, mock.Anything)
	f.ocr.AssertNotCalled(t, "Recognize", mock.Anything, mock.Anything)
	assertScratchEmpty(t, f.store)
}

func TestOCRService_StageUpload_DefaultsContentType(t *testing.T) {
	f := newFixture(t)
	f.stager.On("Stage", mock.Anything, mock.MatchedBy(func(in port.StageInput) bool {
		return in.ContentType == "application/octet-stream"
	})).Return(&domain.StagedAsset{URL: "https://cdn.example.com/x"}, nil)

	input := pngUpload("png")
	input.ContentType = ""
	_, err := f.svc.StageUpload(context.Background(), input)

	require.NoError(t, err)
	f.stager.AssertExpectations(t)
}
