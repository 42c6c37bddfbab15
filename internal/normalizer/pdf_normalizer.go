package normalizer

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"log"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"papertrust/internal/domain"
	"papertrust/internal/port"
)

// A4 portrait in PDF points.
const (
	PageWidthA4  = 595.28
	PageHeightA4 = 841.89
)

func init() {
	// Keep pdfcpu from creating a configuration directory under $HOME.
	model.ConfigPath = "disable"
}

// PDFNormalizer renders an image onto a single zero-margin page using pdfcpu.
type PDFNormalizer struct {
	scratch    port.TempFileStore
	pageWidth  float64
	pageHeight float64
}

// NewPDFNormalizer creates a normalizer producing A4 pages in the given scratch store.
func NewPDFNormalizer(scratch port.TempFileStore) *PDFNormalizer {
	return &PDFNormalizer{
		scratch:    scratch,
		pageWidth:  PageWidthA4,
		pageHeight: PageHeightA4,
	}
}

func (n *PDFNormalizer) Normalize(ctx context.Context, imagePath string) (*domain.NormalizedDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, &domain.NormalizationError{Err: err}
	}

	data, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, &domain.NormalizationError{Err: fmt.Errorf("reading source image: %w", err)}
	}

	src, err := decodeImage(data)
	if err != nil {
		return nil, &domain.NormalizationError{Err: err}
	}

	pdfPath, err := n.scratch.Allocate(".pdf")
	if err != nil {
		return nil, &domain.NormalizationError{Err: err}
	}

	if err := n.writePDF(pdfPath, src.embed); err != nil {
		if relErr := n.scratch.Release(pdfPath); relErr != nil {
			log.Printf("pdfNormalizer.Normalize: %v", &domain.CleanupWarning{Path: pdfPath, Err: relErr})
		}
		return nil, &domain.NormalizationError{Err: err}
	}

	doc := &domain.NormalizedDocument{
		Path:         pdfPath,
		PageWidth:    n.pageWidth,
		PageHeight:   n.pageHeight,
		Placement:    FitCentered(float64(src.width), float64(src.height), n.pageWidth, n.pageHeight),
		SourceFormat: src.format,
		SourceWidth:  src.width,
		SourceHeight: src.height,
	}
	log.Printf("pdfNormalizer.Normalize: %s (%s %dx%d) -> %s",
		imagePath, src.format, src.width, src.height, pdfPath)
	return doc, nil
}

// writePDF writes the page and returns only after the file has been synced and closed.
func (n *PDFNormalizer) writePDF(path string, img []byte) error {
	imp, err := api.Import(fmt.Sprintf("dimensions:%.2f %.2f, position:c, scalefactor:1.0 rel",
		n.pageWidth, n.pageHeight), types.POINTS)
	if err != nil {
		return fmt.Errorf("building import settings: %w", err)
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("opening pdf target: %w", err)
	}

	if err := api.ImportImages(nil, f, []io.Reader{bytes.NewReader(img)}, imp, conf); err != nil {
		_ = f.Close()
		return fmt.Errorf("rendering pdf: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("flushing pdf: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing pdf: %w", err)
	}
	return nil
}

type decodedImage struct {
	format domain.ImageFormat
	width  int
	height int
	embed  []byte
}

// decodeImage fully decodes data and returns bytes pdfcpu can embed.
func decodeImage(data []byte) (*decodedImage, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding source image: %w", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil, fmt.Errorf("source image has no pixels")
	}

	out := &decodedImage{
		format: domain.ImageFormat(format),
		width:  bounds.Dx(),
		height: bounds.Dy(),
		embed:  data,
	}
	if !domain.EmbeddableFormats[out.format] {
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("re-encoding %s as png: %w", format, err)
		}
		out.embed = buf.Bytes()
	}
	return out, nil
}

// FitCentered scales an imgW x imgH image to fit inside the page, keeping its
// aspect ratio, and centers it on both axes.
func FitCentered(imgW, imgH, pageW, pageH float64) domain.Rect {
	if imgW <= 0 || imgH <= 0 {
		return domain.Rect{}
	}
	scale := pageW / imgW
	if s := pageH / imgH; s < scale {
		scale = s
	}
	w := imgW * scale
	h := imgH * scale
	return domain.Rect{
		X:      (pageW - w) / 2,
		Y:      (pageH - h) / 2,
		Width:  w,
		Height: h,
	}
}
