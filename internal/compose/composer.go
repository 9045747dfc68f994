package compose

import (
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/unalkalkan/PaperSlides/internal/logging"
	"github.com/unalkalkan/PaperSlides/internal/resolve"
	"github.com/unalkalkan/PaperSlides/pkg/types"
)

// Options tunes how slide text is rendered
type Options struct {
	// IncludeTechnicalDetails adds a "Details:" line to key point bullets
	IncludeTechnicalDetails bool
}

// Composer turns a document analysis into an ordered list of slide specs
type Composer struct {
	resolver *resolve.Resolver
	opts     Options
	logger   *logrus.Logger
}

// Result is the composer output plus the references it had to skip
type Result struct {
	Slides     []types.SlideSpec
	Unresolved []string
}

// NewComposer creates a composer. A nil resolver uses the default pattern strategy.
func NewComposer(resolver *resolve.Resolver, opts Options, logger *logrus.Logger) *Composer {
	logger = logging.OrDiscard(logger)
	if resolver == nil {
		resolver = resolve.NewResolver(nil, logger)
	}
	return &Composer{
		resolver: resolver,
		opts:     opts,
		logger:   logger,
	}
}

// Compose builds slide specs with default options
func Compose(doc *types.DocumentAnalysis, figures []types.Figure) ([]types.SlideSpec, error) {
	result, err := NewComposer(nil, Options{}, nil).Compose(doc, figures)
	if err != nil {
		return nil, err
	}
	return result.Slides, nil
}

// Compose walks the analysis in document order: a title slide, then per
// section a section slide, an optional overview slide and, per content item,
// a key points slide followed by one slide per resolved figure. A document
// without sections yields only the title slide.
func (c *Composer) Compose(doc *types.DocumentAnalysis, figures []types.Figure) (*Result, error) {
	if err := checkDocument(doc); err != nil {
		return nil, err
	}

	result := &Result{
		Slides: []types.SlideSpec{{Kind: types.SlideTitle, Title: doc.Title}},
	}

	for _, section := range doc.Sections {
		if section.Excluded() {
			c.logger.WithField("section", section.Title).Debug("Skipping section")
			continue
		}

		result.Slides = append(result.Slides, types.SlideSpec{Kind: types.SlideSection, Title: section.Title})

		if section.Overview != "" {
			result.Slides = append(result.Slides, types.SlideSpec{
				Kind:    types.SlideBulletContent,
				Title:   section.Title + " Overview",
				Bullets: []string{section.Overview},
			})
		}

		for _, item := range section.Content {
			title := item.Subtitle
			if title == "" {
				title = section.Title
			}

			if len(item.KeyPoints) > 0 {
				bullets := make([]string, 0, len(item.KeyPoints))
				for _, kp := range item.KeyPoints {
					bullets = append(bullets, c.formatKeyPoint(kp))
				}
				result.Slides = append(result.Slides, types.SlideSpec{
					Kind:    types.SlideBulletContent,
					Title:   title,
					Bullets: bullets,
				})
			}

			for _, info := range item.Figures {
				fig, ok := c.resolver.Resolve(info, figures)
				if !ok {
					c.logger.WithFields(logrus.Fields{
						"component": "composer",
						"section":   section.Title,
						"reference": info.Reference,
					}).Debug("Skipping figure slide for unresolved reference")
					result.Unresolved = append(result.Unresolved, info.Reference)
					continue
				}

				figure := fig
				result.Slides = append(result.Slides, types.SlideSpec{
					Kind:    types.SlideFigure,
					Title:   title,
					Figure:  &figure,
					Caption: Caption(info),
				})
			}
		}
	}

	c.logger.WithFields(logrus.Fields{
		"component":  "composer",
		"slides":     len(result.Slides),
		"unresolved": len(result.Unresolved),
	}).Info("Composed slides")

	return result, nil
}

func checkDocument(doc *types.DocumentAnalysis) error {
	var cause error
	switch {
	case doc == nil:
		cause = errors.New("document analysis is nil")
	case doc.Title == "":
		cause = errors.New("document title is missing")
	}
	if cause != nil {
		return types.NewPipelineError(types.KindMalformedAnalysisObject, "compose.Compose", cause)
	}
	return nil
}

func (c *Composer) formatKeyPoint(kp types.KeyPoint) string {
	var sb strings.Builder
	sb.WriteString(kp.Argument)
	if kp.Evidence != "" {
		sb.WriteString("\n  - Evidence: ")
		sb.WriteString(kp.Evidence)
	}
	if kp.Implications != "" {
		sb.WriteString("\n  - Impact: ")
		sb.WriteString(kp.Implications)
	}
	if c.opts.IncludeTechnicalDetails && kp.TechnicalDetails != "" {
		sb.WriteString("\n  - Details: ")
		sb.WriteString(kp.TechnicalDetails)
	}
	return sb.String()
}

// Caption joins the figure's description, technical content and results,
// one per line, leaving out empty fields
func Caption(info types.FigureInfo) string {
	lines := make([]string, 0, 3)
	if info.Description != "" {
		lines = append(lines, info.Description)
	}
	if info.TechnicalContent != "" {
		lines = append(lines, "Technical Details: "+info.TechnicalContent)
	}
	if info.Results != "" {
		lines = append(lines, "Results: "+info.Results)
	}
	return strings.Join(lines, "\n")
}
