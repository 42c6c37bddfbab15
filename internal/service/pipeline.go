package service

import (
	"fmt"
	"io"
	"log"
	"os"

	"papertrust/internal/domain"
	"papertrust/internal/port"
)

// pipelineRun tracks one request's position in the OCR state machine.
type pipelineRun struct {
	requestID string
	state     domain.PipelineState
}

// advance moves the run forward. Backward or repeated transitions are ignored.
func (r *pipelineRun) advance(to domain.PipelineState) {
	if to <= r.state {
		log.Printf("ocrService: [%s] ignoring transition %s -> %s", r.requestID, r.state, to)
		return
	}
	log.Printf("ocrService: [%s] %s -> %s", r.requestID, r.state, to)
	r.state = to
}

// scratchScope owns the scratch files of one request and releases each exactly once.
type scratchScope struct {
	store     port.TempFileStore
	requestID string
	paths     []string
}

func (s *scratchScope) hold(path string) {
	if path != "" {
		s.paths = append(s.paths, path)
	}
}

// releaseAll deletes every held path. Failures are logged and never returned.
func (s *scratchScope) releaseAll() {
	for _, path := range s.paths {
		if err := s.store.Release(path); err != nil {
			log.Printf("ocrService: [%s] %v", s.requestID, &domain.CleanupWarning{Path: path, Err: err})
		}
	}
	s.paths = nil
}

// copyToFile streams r into path, failing with ErrFileTooLarge past limit bytes (0 = unlimited).
func copyToFile(path string, r io.Reader, limit int64) (int64, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return 0, fmt.Errorf("opening upload file: %w", err)
	}

	src := r
	if limit > 0 {
		src = io.LimitReader(r, limit+1)
	}
	written, err := io.Copy(f, src)
	if err != nil {
		_ = f.Close()
		return 0, &domain.InputError{Err: fmt.Errorf("reading upload: %w", err)}
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("closing upload file: %w", err)
	}
	if limit > 0 && written > limit {
		return 0, &domain.InputError{Err: domain.ErrFileTooLarge}
	}
	return written, nil
}
