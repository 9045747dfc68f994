package layout

import (
	"fmt"
	"image"
	"os"

	// Decoders for the formats figures are stored in
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/sirupsen/logrus"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/unalkalkan/PaperSlides/internal/logging"
	"github.com/unalkalkan/PaperSlides/pkg/types"
)

// DecodeFunc returns the pixel dimensions of the image behind a file identifier
type DecodeFunc func(fileID string) (width, height int, err error)

// DecodeFile reads only the image header of a local file
func DecodeFile(fileID string) (int, int, error) {
	f, err := os.Open(fileID)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}

// Engine computes placements for figure slides
type Engine struct {
	geometry Geometry
	decode   DecodeFunc
	logger   *logrus.Logger
}

// NewEngine creates a layout engine. A nil decode reads local files.
func NewEngine(geometry Geometry, decode DecodeFunc, logger *logrus.Logger) *Engine {
	if decode == nil {
		decode = DecodeFile
	}
	return &Engine{
		geometry: geometry,
		decode:   decode,
		logger:   logging.OrDiscard(logger),
	}
}

// Geometry returns the slide geometry the engine lays out against
func (e *Engine) Geometry() Geometry {
	return e.geometry
}

// Apply lays out every figure slide in place and returns how many figures
// were replaced by a placeholder. Other slide kinds are left untouched.
func (e *Engine) Apply(slides []types.SlideSpec) int {
	placeholders := 0
	for i := range slides {
		slide := &slides[i]
		if slide.Kind != types.SlideFigure || slide.Figure == nil {
			continue
		}

		if err := e.layoutFigure(slide); err != nil {
			e.logger.WithFields(logrus.Fields{
				"component": "layout",
				"slide":     i + 1,
				"file":      slide.Figure.FileID,
				"error":     err,
			}).Error("Failed to load figure, using placeholder")

			placeholder := e.geometry.Placeholder()
			slide.Placeholder = &placeholder
			slide.Figure = nil
			slide.ImagePlacement = nil
			slide.TextPlacement = nil
			placeholders++
		}
	}
	return placeholders
}

func (e *Engine) layoutFigure(slide *types.SlideSpec) error {
	width, height, err := e.decode(slide.Figure.FileID)
	if err != nil {
		return types.NewPipelineError(types.KindImageDecodeFailure, "layout.Apply", err)
	}
	if width <= 0 || height <= 0 {
		return types.NewPipelineError(types.KindImageDecodeFailure, "layout.Apply",
			fmt.Errorf("invalid image dimensions %dx%d", width, height))
	}

	img := e.geometry.PlaceImage(float64(width), float64(height), e.geometry.ContentRegion)
	slide.ImagePlacement = &img

	if slide.Caption != "" {
		text := e.geometry.PlaceTextBelow(img, e.geometry.Slide.Width)
		slide.TextPlacement = &text
	}
	return nil
}
