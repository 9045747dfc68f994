package types

// Section titles that never produce slides
const (
	SectionReferences       = "References"
	SectionAcknowledgements = "Acknowledgements"
)

// DocumentAnalysis is the typed form of the analyzer's nested result
type DocumentAnalysis struct {
	Title    string    `json:"title"`
	Sections []Section `json:"sections"`
}

// Section represents one top-level section of the paper
type Section struct {
	Title    string        `json:"title"`
	Overview string        `json:"overview,omitempty"`
	Content  []ContentItem `json:"content,omitempty"`
}

// Excluded reports whether the section is left out of the deck
func (s Section) Excluded() bool {
	return s.Title == SectionReferences || s.Title == SectionAcknowledgements
}

// ContentItem is a logical subsection with its key points and figures
type ContentItem struct {
	Subtitle  string       `json:"subtitle,omitempty"`
	KeyPoints []KeyPoint   `json:"key_points,omitempty"`
	Figures   []FigureInfo `json:"figures,omitempty"`
}

// KeyPoint is a single argument with optional supporting detail
type KeyPoint struct {
	Argument         string `json:"argument"`
	Evidence         string `json:"evidence,omitempty"`
	TechnicalDetails string `json:"technical_details,omitempty"`
	Implications     string `json:"implications,omitempty"`
}

// FigureInfo describes a figure as the analyzer saw it in the text
type FigureInfo struct {
	Reference        string   `json:"reference"`
	Description      string   `json:"description,omitempty"`
	TechnicalContent string   `json:"technical_content,omitempty"`
	Results          string   `json:"results,omitempty"`
	Integration      string   `json:"integration,omitempty"`
	PanelDetails     []string `json:"panel_details,omitempty"`
}

// FigureReference is the parsed form of a FigureInfo reference.
// Number is empty when the reference carries no digits.
type FigureReference struct {
	RawText       string `json:"raw_text"`
	Number        string `json:"number,omitempty"`
	Supplementary bool   `json:"supplementary,omitempty"`
}

// Resolvable reports whether the reference can be matched against figure files
func (r FigureReference) Resolvable() bool {
	return r.Number != ""
}

// Figure is an extracted image that passed the figure filter
type Figure struct {
	Index  int    `json:"index"` // 1-based, extraction order
	FileID string `json:"file_id"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// RawImage is an embedded image as it came out of the document
type RawImage struct {
	Name string
	Data []byte
}

// Extraction is what the extraction adapter returns for one document
type Extraction struct {
	Text   string
	Images []RawImage
	Pages  int
}
