package parser

import (
	"context"

	"github.com/unalkalkan/PaperSlides/pkg/types"
)

// Parser defines the interface for document extractors
type Parser interface {
	// Parse extracts the text and embedded images of a document
	Parse(ctx context.Context, data []byte) (*types.Extraction, error)

	// SupportedFormats returns the file formats this parser supports
	SupportedFormats() []string
}

// Factory creates parsers for different formats
type Factory interface {
	// GetParser returns a parser for the given format
	GetParser(format string) (Parser, error)
}
