package parser

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// DefaultFactory creates parsers for supported formats
type DefaultFactory struct {
	parsers map[string]Parser
}

// NewFactory creates a parser factory with the PDF and text parsers registered
func NewFactory(logger *logrus.Logger) Factory {
	f := &DefaultFactory{
		parsers: make(map[string]Parser),
	}

	f.registerParser(NewTXTParser())
	f.registerParser(NewPDFParser(logger))

	return f
}

// registerParser registers a parser for its supported formats
func (f *DefaultFactory) registerParser(p Parser) {
	for _, format := range p.SupportedFormats() {
		f.parsers[strings.ToLower(format)] = p
	}
}

// GetParser returns a parser for the given format
func (f *DefaultFactory) GetParser(format string) (Parser, error) {
	format = strings.ToLower(strings.TrimPrefix(format, "."))
	parser, ok := f.parsers[format]
	if !ok {
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
	return parser, nil
}
