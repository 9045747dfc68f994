package deck

import (
	"io"

	"github.com/sirupsen/logrus"

	"github.com/unalkalkan/PaperSlides/internal/layout"
	"github.com/unalkalkan/PaperSlides/internal/logging"
	"github.com/unalkalkan/PaperSlides/pkg/types"
)

// Renderer drives a Builder from laid-out slide specs
type Renderer struct {
	geometry layout.Geometry
	logger   *logrus.Logger
}

// NewRenderer creates a renderer for the given slide geometry
func NewRenderer(geometry layout.Geometry, logger *logrus.Logger) *Renderer {
	return &Renderer{
		geometry: geometry,
		logger:   logging.OrDiscard(logger),
	}
}

// Render emits every slide in order and writes the finished deck to w.
// It returns the number of figure slides that fell back to a placeholder
// while drawing.
func (r *Renderer) Render(slides []types.SlideSpec, b Builder, w io.Writer) (int, error) {
	fallbacks := 0
	for i, slide := range slides {
		if r.renderSlide(i, slide, b) {
			fallbacks++
		}
	}

	if err := b.Save(w); err != nil {
		return fallbacks, err
	}

	r.logger.WithFields(logrus.Fields{
		"slides":    b.SlideCount(),
		"fallbacks": fallbacks,
	}).Info("Rendered deck")
	return fallbacks, nil
}

// Render emits the slides into b and saves the deck to w
func Render(slides []types.SlideSpec, b Builder, w io.Writer) error {
	_, err := NewRenderer(layout.DefaultGeometry, nil).Render(slides, b, w)
	return err
}

func (r *Renderer) renderSlide(i int, slide types.SlideSpec, b Builder) bool {
	g := r.geometry
	b.AddSlide(slide.Kind)

	switch slide.Kind {
	case types.SlideTitle:
		b.AddText(slide.Title, r.bandBox(), TextStyle{Size: titleSlideSize, Bold: true, Align: "C"})

	case types.SlideSection:
		b.AddText(slide.Title, r.bandBox(), TextStyle{Size: sectionSize, Bold: true, Align: "C"})

	case types.SlideBulletContent:
		b.SetTitle(slide.Title)
		b.AddBullets(slide.Bullets, types.Placement{
			Left:   g.TextMargin,
			Top:    g.ImageTop - 0.2,
			Width:  g.Slide.Width - 2*g.TextMargin,
			Height: g.Slide.Height - g.ImageTop,
		})

	case types.SlideFigure:
		b.SetTitle(slide.Title)
		return r.renderFigure(i, slide, b)

	default:
		r.logger.WithFields(logrus.Fields{
			"slide": i,
			"kind":  string(slide.Kind),
		}).Warn("Skipping slide of unknown kind")
	}
	return false
}

// renderFigure draws the image or its placeholder plus the caption
func (r *Renderer) renderFigure(i int, slide types.SlideSpec, b Builder) bool {
	fallback := false

	switch {
	case slide.Placeholder != nil:
		b.AddPlaceholder(*slide.Placeholder)

	case slide.Figure != nil && slide.ImagePlacement != nil:
		if err := b.AddImage(slide.Figure.FileID, *slide.ImagePlacement); err != nil {
			r.logger.WithFields(logrus.Fields{
				"slide":   i,
				"file_id": slide.Figure.FileID,
			}).WithError(err).Error("Failed to draw figure, using placeholder")
			b.AddPlaceholder(r.geometry.Placeholder())
			fallback = true
		}

	default:
		r.logger.WithField("slide", i).Error("Figure slide has no placement, using placeholder")
		b.AddPlaceholder(r.geometry.Placeholder())
		fallback = true
	}

	if slide.Caption != "" {
		box := r.captionBox(slide)
		b.AddText(slide.Caption, box, TextStyle{Size: 12, Align: "L"})
	}
	return fallback
}

// captionBox uses the laid-out text box, or one below the placeholder frame
func (r *Renderer) captionBox(slide types.SlideSpec) types.Placement {
	if slide.TextPlacement != nil && slide.Placeholder == nil {
		return *slide.TextPlacement
	}
	frame := r.geometry.Placeholder().Frame
	if slide.Placeholder != nil {
		frame = slide.Placeholder.Frame
	}
	return r.geometry.PlaceTextBelow(frame, r.geometry.Slide.Width)
}

// bandBox is the vertically centred third of the slide
func (r *Renderer) bandBox() types.Placement {
	g := r.geometry
	margin := g.TextMargin / 2
	return types.Placement{
		Left:   margin,
		Top:    g.Slide.Height/2 - 0.4,
		Width:  g.Slide.Width - 2*margin,
		Height: g.Slide.Height / 3,
	}
}
