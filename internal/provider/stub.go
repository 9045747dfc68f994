package provider

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/unalkalkan/PaperSlides/pkg/types"
)

// StubAnalyzer builds a deterministic analysis from the text itself, with no
// network access. Sections come from heading lines, key points from the
// leading sentences and figures from "Figure N" mentions.
type StubAnalyzer struct {
	name string
}

// NewStubAnalyzer creates a stub analyzer
func NewStubAnalyzer(name string) *StubAnalyzer {
	return &StubAnalyzer{name: name}
}

const maxStubKeyPoints = 3

var (
	figureMention = regexp.MustCompile(`(?i)\b(?:fig\.?|figure)\s*(S?\d+)`)
	numberedHead  = regexp.MustCompile(`^(?:\d+(?:\.\d+)*\.?|[IVX]+\.)\s+([A-Z][^.!?]{0,80})$`)
	sentenceEnd   = regexp.MustCompile(`[.!?](?:\s+|$)`)
)

var knownHeadings = map[string]string{
	"abstract":         "Abstract",
	"introduction":     "Introduction",
	"background":       "Background",
	"related work":     "Related Work",
	"method":           "Methods",
	"methods":          "Methods",
	"methodology":      "Methods",
	"approach":         "Approach",
	"experiments":      "Experiments",
	"results":          "Results",
	"evaluation":       "Evaluation",
	"discussion":       "Discussion",
	"conclusion":       "Conclusion",
	"conclusions":      "Conclusion",
	"references":       types.SectionReferences,
	"bibliography":     types.SectionReferences,
	"acknowledgements": types.SectionAcknowledgements,
	"acknowledgments":  types.SectionAcknowledgements,
}

func (s *StubAnalyzer) Name() string {
	return s.name
}

// Analyze splits the text into sections and summarises each one
func (s *StubAnalyzer) Analyze(ctx context.Context, text string) (*types.DocumentAnalysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, types.NewPipelineError(types.KindUpstreamCollaboratorFailure, "provider.stub", err)
	}

	lines := strings.Split(text, "\n")
	title := ""
	start := 0
	for i, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			title = line
			start = i + 1
			break
		}
	}
	if title == "" {
		return nil, types.NewPipelineError(types.KindMalformedAnalysisObject, "provider.stub", errors.New("no text to analyze"))
	}

	doc := &types.DocumentAnalysis{Title: title, Sections: []types.Section{}}

	var current *types.Section
	var body []string
	flush := func() {
		if current != nil {
			doc.Sections = append(doc.Sections, summarise(*current, strings.Join(body, " ")))
		}
		body = body[:0]
	}

	for _, line := range lines[start:] {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if heading, ok := headingOf(line); ok {
			flush()
			current = &types.Section{Title: heading}
			continue
		}
		if current == nil {
			current = &types.Section{Title: "Overview"}
		}
		body = append(body, line)
	}
	flush()

	return doc, nil
}

func (s *StubAnalyzer) Close() error {
	return nil
}

// headingOf recognises "3 Results", "II. Methods" and bare known headings
func headingOf(line string) (string, bool) {
	if m := numberedHead.FindStringSubmatch(line); m != nil {
		name := strings.TrimSpace(m[1])
		if canonical, ok := knownHeadings[strings.ToLower(name)]; ok {
			return canonical, true
		}
		return name, true
	}

	if canonical, ok := knownHeadings[strings.ToLower(strings.TrimSuffix(line, ":"))]; ok {
		return canonical, true
	}
	return "", false
}

// summarise fills a section's overview, key points and figures from its body
func summarise(section types.Section, body string) types.Section {
	sentences := splitSentences(body)
	if len(sentences) == 0 {
		return section
	}

	section.Overview = sentences[0]

	item := types.ContentItem{}
	for _, sentence := range sentences[1:] {
		if len(item.KeyPoints) == maxStubKeyPoints {
			break
		}
		item.KeyPoints = append(item.KeyPoints, types.KeyPoint{Argument: sentence})
	}

	seen := make(map[string]bool)
	for _, sentence := range sentences {
		for _, m := range figureMention.FindAllStringSubmatch(sentence, -1) {
			ref := fmt.Sprintf("Figure %s", strings.ToUpper(m[1]))
			if seen[ref] {
				continue
			}
			seen[ref] = true
			item.Figures = append(item.Figures, types.FigureInfo{
				Reference:   ref,
				Description: sentence,
			})
		}
	}

	if len(item.KeyPoints) > 0 || len(item.Figures) > 0 {
		section.Content = []types.ContentItem{item}
	}
	return section
}

var abbreviations = []string{"fig", "figs", "et al", "e.g", "i.e", "eq", "vs"}

func splitSentences(body string) []string {
	var sentences []string
	start := 0
	for _, loc := range sentenceEnd.FindAllStringIndex(body, -1) {
		if endsWithAbbreviation(body[start:loc[0]]) {
			continue
		}
		if sentence := strings.TrimSpace(body[start : loc[0]+1]); sentence != "" {
			sentences = append(sentences, sentence)
		}
		start = loc[1]
	}
	if sentence := strings.TrimSpace(body[start:]); sentence != "" {
		sentences = append(sentences, sentence)
	}
	return sentences
}

func endsWithAbbreviation(s string) bool {
	s = strings.ToLower(s)
	for _, abbr := range abbreviations {
		if s == abbr || strings.HasSuffix(s, " "+abbr) || strings.HasSuffix(s, "("+abbr) {
			return true
		}
	}
	return false
}
