package domain

// ImageFormat is a decoded source image format, as reported by image.Decode.
type ImageFormat string

const (
	ImageFormatJPEG ImageFormat = "jpeg"
	ImageFormatPNG  ImageFormat = "png"
	ImageFormatGIF  ImageFormat = "gif"
	ImageFormatBMP  ImageFormat = "bmp"
	ImageFormatTIFF ImageFormat = "tiff"
	ImageFormatWebP ImageFormat = "webp"
)

// EmbeddableFormats are formats whose original bytes go into the PDF unchanged.
// Every other decodable format is re-encoded to PNG first.
var EmbeddableFormats = map[ImageFormat]bool{
	ImageFormatJPEG: true,
	ImageFormatPNG:  true,
}

// AssetKind tells the staging backend what kind of object it is storing.
type AssetKind string

const (
	AssetKindDocument AssetKind = "document"
	AssetKindImage    AssetKind = "image"
)

// ContentTypePDF is the MIME type of normalized documents.
const ContentTypePDF = "application/pdf"

// PipelineState is a step of the OCR request pipeline. States are ordered;
// a run only ever moves forward.
type PipelineState int

const (
	StateIdle PipelineState = iota
	StateParsing
	StatePersisting
	StateNormalizing
	StateStaging
	StateRecognizing
	StateCleaningUp
	StateDone
)

func (s PipelineState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateParsing:
		return "parsing"
	case StatePersisting:
		return "persisting"
	case StateNormalizing:
		return "normalizing"
	case StateStaging:
		return "staging"
	case StateRecognizing:
		return "recognizing"
	case StateCleaningUp:
		return "cleaning_up"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}
