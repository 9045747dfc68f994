package parser

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/unalkalkan/PaperSlides/pkg/types"
)

var (
	numberedHeading = regexp.MustCompile(`^(?:\d+(?:\.\d+)*\.?|[IVX]+\.)\s+[A-Z][^.!?]{0,80}$`)
	namedHeading    = regexp.MustCompile(`(?i)^(?:abstract|introduction|background|related work|methods?|methodology|approach|experiments|results|evaluation|discussion|conclusions?|references|bibliography|acknowledge?ments):?$`)
)

// isHeading reports whether a line is a section heading such as "2 Results" or "References"
func isHeading(line string) bool {
	if len(strings.Fields(line)) > 10 {
		return false
	}
	return numberedHeading.MatchString(line) || namedHeading.MatchString(line)
}

// TXTParser parses plain-text papers. They carry no figures.
type TXTParser struct{}

// NewTXTParser creates a new TXT parser
func NewTXTParser() *TXTParser {
	return &TXTParser{}
}

// Parse reflows hard-wrapped lines into paragraphs separated by blank lines.
// Heading lines always stand alone.
func (p *TXTParser) Parse(ctx context.Context, data []byte) (*types.Extraction, error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var paragraphs []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			paragraphs = append(paragraphs, current.String())
			current.Reset()
		}
	}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			flush()
			continue
		}
		if isHeading(line) {
			flush()
			paragraphs = append(paragraphs, line)
			continue
		}

		if current.Len() > 0 {
			// re-join words hyphenated across a line break
			if s := current.String(); strings.HasSuffix(s, "-") && len(s) > 1 && s[len(s)-2] != ' ' {
				current.Reset()
				current.WriteString(strings.TrimSuffix(s, "-"))
			} else {
				current.WriteString(" ")
			}
		}
		current.WriteString(line)
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, types.NewPipelineError(types.KindUpstreamCollaboratorFailure, "parser.txt", fmt.Errorf("error reading text: %w", err))
	}
	if len(paragraphs) == 0 {
		return nil, types.NewPipelineError(types.KindUpstreamCollaboratorFailure, "parser.txt", fmt.Errorf("no content found in text file"))
	}

	return &types.Extraction{
		Text:  norm.NFKC.String(strings.Join(paragraphs, "\n\n")),
		Pages: 1,
	}, nil
}

// SupportedFormats returns the formats this parser supports
func (p *TXTParser) SupportedFormats() []string {
	return []string{"txt", "text", "md"}
}
