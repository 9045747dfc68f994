package types

// SlideKind identifies the layout a slide is built from
type SlideKind string

const (
	SlideTitle         SlideKind = "title"
	SlideSection       SlideKind = "section"
	SlideBulletContent SlideKind = "bullet-content"
	SlideFigure        SlideKind = "figure"
)

// SlideSpec is the layout-independent description of one slide.
// Placements are filled in by the layout engine for figure slides.
type SlideSpec struct {
	Kind           SlideKind    `json:"kind"`
	Title          string       `json:"title"`
	Bullets        []string     `json:"bullets,omitempty"`
	Figure         *Figure      `json:"figure,omitempty"`
	Caption        string       `json:"caption,omitempty"`
	ImagePlacement *Placement   `json:"image_placement,omitempty"`
	TextPlacement  *Placement   `json:"text_placement,omitempty"`
	Placeholder    *Placeholder `json:"placeholder,omitempty"`
}

// Placement is a rectangle on the slide, in inches from the top-left corner
type Placement struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Bottom returns the y coordinate of the lower edge
func (p Placement) Bottom() float64 {
	return p.Top + p.Height
}

// Placeholder stands in for a figure whose image could not be decoded
type Placeholder struct {
	Frame   Placement `json:"frame"`
	Message string    `json:"message"`
}
