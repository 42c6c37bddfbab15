package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"regexp"
	"strings"

	"papertrust/internal/config"
	"papertrust/internal/domain"
	"papertrust/internal/port"
)

// UploadInput is the DTO for one inbound file part.
type UploadInput struct {
	RequestID   string
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// OCRService defines the document recognition contract.
type OCRService interface {
	// Recognize runs upload -> normalize -> stage -> OCR and always releases its scratch files.
	Recognize(ctx context.Context, input UploadInput) (*domain.OCRResult, error)
	// StageUpload pushes the upload to the staging store as-is and returns its public location.
	StageUpload(ctx context.Context, input UploadInput) (*domain.StagedAsset, error)
}

type ocrService struct {
	scratch    port.TempFileStore
	normalizer port.DocumentNormalizer
	stager     port.StagingUploader
	ocr        port.OCRClient
	maxBytes   int64
}

// NewOCRService creates a new OCRService implementation.
func NewOCRService(
	scratch port.TempFileStore,
	normalizer port.DocumentNormalizer,
	stager port.StagingUploader,
	ocr port.OCRClient,
	cfg *config.ScratchConfig,
) OCRService {
	return &ocrService{
		scratch:    scratch,
		normalizer: normalizer,
		stager:     stager,
		ocr:        ocr,
		maxBytes:   cfg.MaxUploadBytes(),
	}
}

func (s *ocrService) Recognize(ctx context.Context, input UploadInput) (*domain.OCRResult, error) {
	// The handler has already parsed the multipart body.
	run := &pipelineRun{requestID: input.RequestID, state: domain.StateParsing}
	scope := &scratchScope{store: s.scratch, requestID: input.RequestID}

	result, err := s.recognize(ctx, run, scope, input)

	run.advance(domain.StateCleaningUp)
	scope.releaseAll()
	run.advance(domain.StateDone)

	if err != nil {
		log.Printf("ocrService.Recognize: [%s] failed: %v", input.RequestID, err)
		return nil, err
	}
	log.Printf("ocrService.Recognize: [%s] recognized %d page(s) from %s using %s",
		input.RequestID, result.PageCount, result.DocumentURL, result.Model)
	return result, nil
}

func (s *ocrService) recognize(ctx context.Context, run *pipelineRun, scope *scratchScope, input UploadInput) (*domain.OCRResult, error) {
	run.advance(domain.StatePersisting)
	upload, err := s.persistUpload(scope, input)
	if err != nil {
		return nil, err
	}

	run.advance(domain.StateNormalizing)
	doc, err := s.normalizer.Normalize(ctx, upload.Path)
	if err != nil {
		return nil, asNormalizationError(err)
	}
	scope.hold(doc.Path)

	run.advance(domain.StateStaging)
	asset, err := s.stager.Stage(ctx, port.StageInput{
		Path:        doc.Path,
		ContentType: domain.ContentTypePDF,
		Kind:        domain.AssetKindDocument,
	})
	if err != nil {
		return nil, asStagingError(err)
	}
	log.Printf("ocrService.Recognize: [%s] staged %s at %s", input.RequestID, doc.Path, asset.URL)

	run.advance(domain.StateRecognizing)
	result, err := s.ocr.Recognize(ctx, asset.URL)
	if err != nil {
		return nil, asOCRError(err, asset.URL)
	}
	return result, nil
}

func (s *ocrService) StageUpload(ctx context.Context, input UploadInput) (*domain.StagedAsset, error) {
	scope := &scratchScope{store: s.scratch, requestID: input.RequestID}
	defer scope.releaseAll()

	upload, err := s.persistUpload(scope, input)
	if err != nil {
		return nil, err
	}

	asset, err := s.stager.Stage(ctx, port.StageInput{
		Path:        upload.Path,
		ContentType: upload.ContentType,
		Kind:        domain.AssetKindImage,
	})
	if err != nil {
		return nil, asStagingError(err)
	}
	log.Printf("ocrService.StageUpload: [%s] staged %s (%d bytes) at %s",
		input.RequestID, upload.OriginalName, upload.Size, asset.URL)
	return asset, nil
}

// persistUpload copies the inbound part into scratch storage. The path is held by
// scope as soon as it exists, so it is released even if the copy fails.
func (s *ocrService) persistUpload(scope *scratchScope, input UploadInput) (*domain.UploadedFile, error) {
	if input.Body == nil {
		return nil, &domain.InputError{Err: domain.ErrNoFile}
	}
	if s.maxBytes > 0 && input.Size > s.maxBytes {
		return nil, &domain.InputError{Err: domain.ErrFileTooLarge}
	}

	path, err := s.scratch.Allocate(scratchSuffix(input.Filename))
	if err != nil {
		return nil, fmt.Errorf("allocating upload file: %w", err)
	}
	scope.hold(path)

	written, err := copyToFile(path, input.Body, s.maxBytes)
	if err != nil {
		return nil, err
	}
	if written == 0 {
		return nil, &domain.InputError{Err: fmt.Errorf("uploaded file is empty")}
	}

	contentType := input.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	log.Printf("ocrService: [%s] received %s (%s, %d bytes) -> %s",
		input.RequestID, input.Filename, contentType, written, path)

	return &domain.UploadedFile{
		Path:         path,
		OriginalName: input.Filename,
		ContentType:  contentType,
		Size:         written,
	}, nil
}

var extPattern = regexp.MustCompile(`^\.[a-z0-9]{1,8}$`)

// scratchSuffix keeps a short, safe extension from the client filename.
func scratchSuffix(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if !extPattern.MatchString(ext) {
		return ""
	}
	return ext
}

func asNormalizationError(err error) error {
	var target *domain.NormalizationError
	if errors.As(err, &target) {
		return err
	}
	return &domain.NormalizationError{Err: err}
}

func asStagingError(err error) error {
	var target *domain.StagingError
	if errors.As(err, &target) {
		return err
	}
	return &domain.StagingError{Provider: "unknown", Err: err}
}

// asOCRError makes sure the failure carries the staged URL it was about.
func asOCRError(err error, documentURL string) error {
	var target *domain.OCRError
	if errors.As(err, &target) {
		if target.DocumentURL == "" {
			target.DocumentURL = documentURL
		}
		return err
	}
	return &domain.OCRError{DocumentURL: documentURL, Err: err}
}
