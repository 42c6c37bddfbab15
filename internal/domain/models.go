package domain

import "encoding/json"

// UploadedFile is one inbound binary persisted to the scratch directory.
type UploadedFile struct {
	Path         string
	OriginalName string
	ContentType  string
	Size         int64
}

// Rect is an axis-aligned rectangle in PDF user space (points, origin bottom-left).
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// NormalizedDocument is the single-page PDF produced from an UploadedFile.
type NormalizedDocument struct {
	Path         string
	PageWidth    float64
	PageHeight   float64
	Placement    Rect
	SourceFormat ImageFormat
	SourceWidth  int
	SourceHeight int
}

// StagedAsset is a publicly dereferenceable copy of a local file.
type StagedAsset struct {
	URL      string `json:"url"`
	Provider string `json:"provider"`
	RemoteID string `json:"remote_id,omitempty"`
	Bytes    int64  `json:"bytes,omitempty"`
}

// OCRResult is the provider response for one staged document.
// Payload is passed through to the caller untouched.
type OCRResult struct {
	Payload     json.RawMessage
	DocumentURL string
	Model       string
	PageCount   int
}
