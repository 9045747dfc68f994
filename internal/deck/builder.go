package deck

import (
	"io"

	"github.com/unalkalkan/PaperSlides/pkg/types"
)

// TextStyle controls how a text run is drawn
type TextStyle struct {
	Size  float64 // points
	Bold  bool
	Align string // "L", "C" or "R"
}

// Builder assembles a slide deck one slide at a time
type Builder interface {
	// AddSlide starts a new slide of the given kind
	AddSlide(kind types.SlideKind)

	// SetTitle sets the title of the current slide
	SetTitle(title string)

	// AddText adds a text run inside box
	AddText(text string, box types.Placement, style TextStyle)

	// AddBullets adds a bulleted list inside box. Lines after the first in
	// an item are rendered as indented sub-points.
	AddBullets(items []string, box types.Placement)

	// AddImage draws the image file into box
	AddImage(fileID string, box types.Placement) error

	// AddPlaceholder draws a bordered frame with a message
	AddPlaceholder(placeholder types.Placeholder)

	// SlideCount returns the number of slides added so far
	SlideCount() int

	// Save writes the finished deck
	Save(w io.Writer) error
}
