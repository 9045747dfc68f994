package layout

import "github.com/unalkalkan/PaperSlides/pkg/types"

// PlaceholderMessage is shown in place of a figure that could not be loaded
const PlaceholderMessage = "Figure could not be loaded"

// Size is a width and height in slide units
type Size struct {
	Width  float64
	Height float64
}

// Geometry fixes the slide dimensions and the offsets used for figure slides.
// All values are in inches.
type Geometry struct {
	Slide           Size
	ContentRegion   Size
	ImageTop        float64
	TextMargin      float64
	TextGap         float64
	TextHeight      float64
	PlaceholderSize Size
}

// DefaultGeometry is a 4:3 slide with a 9x5 content region below the title
var DefaultGeometry = Geometry{
	Slide:           Size{Width: 10, Height: 7.5},
	ContentRegion:   Size{Width: 9, Height: 5},
	ImageTop:        2,
	TextMargin:      1,
	TextGap:         0.2,
	TextHeight:      1,
	PlaceholderSize: Size{Width: 6, Height: 4},
}

// PlaceImage fits an image into region keeping its aspect ratio, centred on
// the slide horizontally at the fixed image top. Dimensions must be positive.
func (g Geometry) PlaceImage(imageWidth, imageHeight float64, region Size) types.Placement {
	ratio := imageWidth / imageHeight
	regionRatio := region.Width / region.Height

	var width, height float64
	if ratio > regionRatio {
		width = region.Width
		height = width / ratio
	} else {
		height = region.Height
		width = height * ratio
	}

	return types.Placement{
		Left:   (g.Slide.Width - width) / 2,
		Top:    g.ImageTop,
		Width:  width,
		Height: height,
	}
}

// PlaceTextBelow returns the caption box under an image. Its size does not
// depend on the text; long captions overflow.
func (g Geometry) PlaceTextBelow(image types.Placement, slideWidth float64) types.Placement {
	return types.Placement{
		Left:   g.TextMargin,
		Top:    image.Bottom() + g.TextGap,
		Width:  slideWidth - 2*g.TextMargin,
		Height: g.TextHeight,
	}
}

// Placeholder returns the bordered frame that replaces an undecodable figure
func (g Geometry) Placeholder() types.Placeholder {
	return types.Placeholder{
		Frame: types.Placement{
			Left:   (g.Slide.Width - g.PlaceholderSize.Width) / 2,
			Top:    g.ImageTop,
			Width:  g.PlaceholderSize.Width,
			Height: g.PlaceholderSize.Height,
		},
		Message: PlaceholderMessage,
	}
}

// PlaceImage places an image on the default slide
func PlaceImage(imageWidth, imageHeight float64, region Size) types.Placement {
	return DefaultGeometry.PlaceImage(imageWidth, imageHeight, region)
}

// PlaceTextBelow places a caption on the default slide
func PlaceTextBelow(image types.Placement, slideWidth float64) types.Placement {
	return DefaultGeometry.PlaceTextBelow(image, slideWidth)
}
