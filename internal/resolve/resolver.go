package resolve

import (
	"github.com/sirupsen/logrus"

	"github.com/unalkalkan/PaperSlides/internal/logging"
	"github.com/unalkalkan/PaperSlides/pkg/types"
)

// Resolver maps figure references from the analysis to extracted figures.
// Two references may resolve to the same figure; no one-to-one assignment is made.
type Resolver struct {
	strategy Strategy
	logger   *logrus.Logger
}

// NewResolver creates a resolver. A nil strategy means the default pattern strategy.
func NewResolver(strategy Strategy, logger *logrus.Logger) *Resolver {
	if strategy == nil {
		strategy = NewPatternStrategy()
	}
	return &Resolver{
		strategy: strategy,
		logger:   logging.OrDiscard(logger),
	}
}

// Resolve returns the figure info's figure. It never fails: an unresolved
// reference is logged as a warning and reported through the bool.
func (r *Resolver) Resolve(info types.FigureInfo, figures []types.Figure) (types.Figure, bool) {
	ref := ParseReference(info.Reference)

	fields := logrus.Fields{
		"component": "resolver",
		"reference": info.Reference,
		"strategy":  r.strategy.Name(),
	}

	if !ref.Resolvable() {
		r.logger.WithFields(fields).Warn("Figure reference has no number, skipping")
		return types.Figure{}, false
	}

	fig, ok := r.strategy.Match(ref, figures)
	if !ok {
		fields["number"] = ref.Number
		fields["candidates"] = len(figures)
		r.logger.WithFields(fields).Warn("No figure file matches reference")
		return types.Figure{}, false
	}

	r.logger.WithFields(fields).WithFields(logrus.Fields{
		"number":        ref.Number,
		"file":          fig.FileID,
		"supplementary": ref.Supplementary,
	}).Debug("Resolved figure reference")

	return fig, true
}
