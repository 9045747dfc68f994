package provider

import (
	"context"

	"github.com/unalkalkan/PaperSlides/pkg/types"
)

// ContentAnalyzer turns paper text into a structured analysis
type ContentAnalyzer interface {
	// Name returns the provider name
	Name() string

	// Analyze returns the validated analysis of the paper text. Transport
	// failures are upstream errors; unusable responses are malformed
	// analysis errors.
	Analyze(ctx context.Context, text string) (*types.DocumentAnalysis, error)

	// Close releases resources
	Close() error
}
