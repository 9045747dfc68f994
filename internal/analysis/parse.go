package analysis

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/unalkalkan/PaperSlides/pkg/types"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Wire shapes of the analyzer response. Required keys are pointers so a
// missing key and an empty value can be told apart.
type wireAnalysis struct {
	Title    *string       `json:"title" validate:"required"`
	Sections []wireSection `json:"sections" validate:"required,dive"`
}

type wireSection struct {
	Title    *string    `json:"title" validate:"required"`
	Overview string     `json:"overview"`
	Content  []wireItem `json:"content" validate:"dive"`
}

type wireItem struct {
	Subtitle  string         `json:"subtitle"`
	KeyPoints []wireKeyPoint `json:"key_points" validate:"dive"`
	Figures   []wireFigure   `json:"figures" validate:"dive"`
}

type wireKeyPoint struct {
	Argument         *string `json:"argument" validate:"required"`
	Evidence         string  `json:"evidence"`
	TechnicalDetails string  `json:"technical_details"`
	Implications     string  `json:"implications"`
}

type wireFigure struct {
	Reference        *string  `json:"reference" validate:"required"`
	Description      string   `json:"description"`
	TechnicalContent string   `json:"technical_content"`
	Results          string   `json:"results"`
	Integration      string   `json:"integration"`
	PanelDetails     []string `json:"panel_details"`
}

// StripCodeFences removes markdown code fences an LLM may wrap JSON in
func StripCodeFences(response string) string {
	cleaned := strings.ReplaceAll(response, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	return strings.TrimSpace(cleaned)
}

// Parse decodes and validates an analyzer response into the typed analysis.
// Any decode or schema failure is reported as a malformed analysis object.
func Parse(raw []byte) (*types.DocumentAnalysis, error) {
	cleaned := StripCodeFences(string(raw))
	if cleaned == "" {
		return nil, malformed(errors.New("empty analysis response"))
	}

	var wire wireAnalysis
	if err := json.Unmarshal([]byte(cleaned), &wire); err != nil {
		return nil, malformed(fmt.Errorf("failed to decode analysis: %w", err))
	}

	if err := validate.Struct(&wire); err != nil {
		return nil, malformed(describeValidation(err))
	}

	return wire.toAnalysis(), nil
}

func malformed(err error) error {
	return types.NewPipelineError(types.KindMalformedAnalysisObject, "analysis.Parse", err)
}

// describeValidation names the missing keys by their JSON path
func describeValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	missing := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		missing = append(missing, jsonPath(fe.Namespace()))
	}
	return fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
}

var fieldNames = map[string]string{
	"wireAnalysis": "",
	"Title":        "title",
	"Sections":     "sections",
	"Content":      "content",
	"KeyPoints":    "key_points",
	"Figures":      "figures",
	"Argument":     "argument",
	"Reference":    "reference",
}

// jsonPath turns "wireAnalysis.Sections[0].Title" into "sections[0].title"
func jsonPath(namespace string) string {
	parts := strings.Split(namespace, ".")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		name, index := part, ""
		if i := strings.IndexByte(part, '['); i >= 0 {
			name, index = part[:i], part[i:]
		}
		if mapped, ok := fieldNames[name]; ok {
			name = mapped
		}
		if name == "" {
			continue
		}
		out = append(out, name+index)
	}
	return strings.Join(out, ".")
}

func (w wireAnalysis) toAnalysis() *types.DocumentAnalysis {
	doc := &types.DocumentAnalysis{
		Title:    *w.Title,
		Sections: make([]types.Section, 0, len(w.Sections)),
	}

	for _, ws := range w.Sections {
		section := types.Section{
			Title:    *ws.Title,
			Overview: ws.Overview,
		}
		for _, wi := range ws.Content {
			item := types.ContentItem{Subtitle: wi.Subtitle}
			for _, kp := range wi.KeyPoints {
				item.KeyPoints = append(item.KeyPoints, types.KeyPoint{
					Argument:         *kp.Argument,
					Evidence:         kp.Evidence,
					TechnicalDetails: kp.TechnicalDetails,
					Implications:     kp.Implications,
				})
			}
			for _, wf := range wi.Figures {
				item.Figures = append(item.Figures, types.FigureInfo{
					Reference:        *wf.Reference,
					Description:      wf.Description,
					TechnicalContent: wf.TechnicalContent,
					Results:          wf.Results,
					Integration:      wf.Integration,
					PanelDetails:     wf.PanelDetails,
				})
			}
			section.Content = append(section.Content, item)
		}
		doc.Sections = append(doc.Sections, section)
	}

	return doc
}
