package figure

import (
	"bytes"
	"fmt"
	"image"
	"image/color"

	// Formats pdfcpu writes extracted images in
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/unalkalkan/PaperSlides/pkg/types"
)

// Filter decides which extracted images are figures worth a slide
type Filter struct {
	cfg types.FigureFilterConfig
}

// NewFilter creates a filter with the given thresholds
func NewFilter(cfg types.FigureFilterConfig) *Filter {
	return &Filter{cfg: cfg}
}

// Decode decodes raw image data, wrapping failures as image decode errors
func Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, types.NewPipelineError(types.KindImageDecodeFailure, "figure.Decode", err)
	}
	return img, nil
}

// IsValidFigure rejects images that are too small or almost uniformly
// black or white, which in papers are logos, rules and blank masks
func (f *Filter) IsValidFigure(img image.Image) (bool, string) {
	b := img.Bounds()
	if b.Dx() < f.cfg.MinWidth || b.Dy() < f.cfg.MinHeight {
		return false, fmt.Sprintf("too small (%dx%d)", b.Dx(), b.Dy())
	}

	mean := MeanBrightness(img)
	if mean < f.cfg.MinBrightness || mean > f.cfg.MaxBrightness {
		return false, fmt.Sprintf("mean brightness %.1f outside [%.0f, %.0f]", mean, f.cfg.MinBrightness, f.cfg.MaxBrightness)
	}

	return true, ""
}

// MeanBrightness returns the average grayscale value of img on a 0-255 scale
func MeanBrightness(img image.Image) float64 {
	b := img.Bounds()
	if b.Empty() {
		return 0
	}

	var sum uint64
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			sum += uint64(color.GrayModel.Convert(img.At(x, y)).(color.Gray).Y)
		}
	}
	return float64(sum) / float64(b.Dx()*b.Dy())
}
