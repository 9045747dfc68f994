package figure

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/unalkalkan/PaperSlides/internal/logging"
	"github.com/unalkalkan/PaperSlides/pkg/types"
)

// Extractor turns raw extracted images into the ordered figure list
type Extractor struct {
	filter *Filter
	logger *logrus.Logger
}

// NewExtractor creates an extractor using the given filter
func NewExtractor(filter *Filter, logger *logrus.Logger) *Extractor {
	return &Extractor{
		filter: filter,
		logger: logging.OrDiscard(logger),
	}
}

// FileName is the name the n-th kept figure is saved under
func FileName(n int) string {
	return fmt.Sprintf("figure_%d.png", n)
}

// Extract decodes and filters the images and saves the keepers as
// figure_<n>.png in dir. Indices are 1-based and follow extraction order.
// Images that fail to decode are logged and skipped.
func (e *Extractor) Extract(images []types.RawImage, dir string) ([]types.Figure, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create figure dir: %w", err)
	}

	figures := make([]types.Figure, 0, len(images))
	for _, raw := range images {
		img, err := Decode(raw.Data)
		if err != nil {
			e.logger.WithError(err).WithField("image", raw.Name).Warn("Skipping undecodable image")
			continue
		}

		if ok, reason := e.filter.IsValidFigure(img); !ok {
			e.logger.WithFields(logrus.Fields{
				"image":  raw.Name,
				"reason": reason,
			}).Debug("Image rejected by figure filter")
			continue
		}

		index := len(figures) + 1
		path := filepath.Join(dir, FileName(index))
		if err := savePNG(path, img); err != nil {
			return nil, err
		}

		b := img.Bounds()
		figures = append(figures, types.Figure{
			Index:  index,
			FileID: path,
			Width:  b.Dx(),
			Height: b.Dy(),
		})
	}

	e.logger.WithFields(logrus.Fields{
		"extracted": len(images),
		"figures":   len(figures),
	}).Info("Extracted figures")

	return figures, nil
}

func savePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create figure file: %w", err)
	}

	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}
