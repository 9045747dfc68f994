package deck

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"strings"

	// Formats figures may arrive in besides the ones gofpdf reads natively
	_ "image/gif"
	_ "image/jpeg"

	"github.com/jung-kurt/gofpdf"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/unalkalkan/PaperSlides/internal/layout"
	"github.com/unalkalkan/PaperSlides/pkg/types"
)

const (
	fontFamily      = "Helvetica"
	titleSlideSize  = 40
	sectionSize     = 36
	slideTitleSize  = 28
	bulletSize      = 18
	subBulletSize   = 14
	pointsPerInch   = 72.0
	lineSpacing     = 1.25
	subBulletIndent = 0.35
)

// PDFBuilder renders slides as pages of a PDF, one page per slide
type PDFBuilder struct {
	pdf      *gofpdf.Fpdf
	geometry layout.Geometry
	tr       func(string) string
	images   int
}

// NewPDFBuilder creates a builder whose pages match the slide geometry
func NewPDFBuilder(geometry layout.Geometry) *PDFBuilder {
	// gofpdf swaps width and height for "L", so a wide page is declared "P"
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "in",
		Size: gofpdf.SizeType{
			Wd: geometry.Slide.Width,
			Ht: geometry.Slide.Height,
		},
	})
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)

	return &PDFBuilder{
		pdf:      pdf,
		geometry: geometry,
		tr:       pdf.UnicodeTranslatorFromDescriptor(""),
	}
}

// AddSlide starts a new page. Title and section slides get a shaded band.
func (b *PDFBuilder) AddSlide(kind types.SlideKind) {
	b.pdf.AddPage()
	b.pdf.SetTextColor(0, 0, 0)
	b.pdf.SetDrawColor(0, 0, 0)

	if kind == types.SlideTitle || kind == types.SlideSection {
		b.pdf.SetFillColor(235, 240, 248)
		b.pdf.Rect(0, b.geometry.Slide.Height/3, b.geometry.Slide.Width, b.geometry.Slide.Height/3, "F")
	}
}

// SetTitle draws the slide title in the title area
func (b *PDFBuilder) SetTitle(title string) {
	margin := b.geometry.TextMargin / 2
	box := types.Placement{
		Left:   margin,
		Top:    0.5,
		Width:  b.geometry.Slide.Width - 2*margin,
		Height: b.geometry.ImageTop - 0.7,
	}
	b.AddText(title, box, TextStyle{Size: slideTitleSize, Bold: true, Align: "C"})
}

// AddText draws wrapped text starting at the top of box
func (b *PDFBuilder) AddText(text string, box types.Placement, style TextStyle) {
	if text == "" {
		return
	}
	fontStyle := ""
	if style.Bold {
		fontStyle = "B"
	}
	align := style.Align
	if align == "" {
		align = "L"
	}

	b.pdf.SetFont(fontFamily, fontStyle, style.Size)
	b.pdf.SetXY(box.Left, box.Top)
	b.pdf.MultiCell(box.Width, lineHeight(style.Size), b.tr(text), "", align, false)
}

// AddBullets draws one bullet per item with indented sub-points
func (b *PDFBuilder) AddBullets(items []string, box types.Placement) {
	b.pdf.SetXY(box.Left, box.Top)
	for _, item := range items {
		lines := strings.Split(item, "\n")

		b.pdf.SetFont(fontFamily, "", bulletSize)
		b.pdf.SetX(box.Left)
		b.pdf.MultiCell(box.Width, lineHeight(bulletSize), b.tr("• "+strings.TrimSpace(lines[0])), "", "L", false)

		b.pdf.SetFont(fontFamily, "", subBulletSize)
		for _, line := range lines[1:] {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			b.pdf.SetX(box.Left + subBulletIndent)
			b.pdf.MultiCell(box.Width-subBulletIndent, lineHeight(subBulletSize), b.tr(line), "", "L", false)
		}
		b.pdf.Ln(lineHeight(subBulletSize) / 2)
	}
}

// AddImage registers the image and draws it into box
func (b *PDFBuilder) AddImage(fileID string, box types.Placement) error {
	data, err := os.ReadFile(fileID)
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}

	imageType, data, err := normalizeImage(data)
	if err != nil {
		return err
	}

	b.images++
	name := fmt.Sprintf("figure-%d", b.images)
	opts := gofpdf.ImageOptions{ImageType: imageType}
	if info := b.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(data)); info == nil || !b.pdf.Ok() {
		err := b.pdf.Error()
		b.pdf.ClearError()
		return fmt.Errorf("failed to register image %s: %w", fileID, err)
	}

	b.pdf.ImageOptions(name, box.Left, box.Top, box.Width, box.Height, false, opts, 0, "")
	return nil
}

// normalizeImage returns data gofpdf can embed, re-encoding other formats as PNG
func normalizeImage(data []byte) (string, []byte, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", nil, fmt.Errorf("failed to decode image: %w", err)
	}

	switch format {
	case "png":
		return "PNG", data, nil
	case "jpeg":
		return "JPG", data, nil
	case "gif":
		return "GIF", data, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", nil, fmt.Errorf("failed to decode %s image: %w", format, err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", nil, fmt.Errorf("failed to re-encode %s image: %w", format, err)
	}
	return "PNG", buf.Bytes(), nil
}

// AddPlaceholder draws a gray bordered rectangle with a centred message
func (b *PDFBuilder) AddPlaceholder(placeholder types.Placeholder) {
	f := placeholder.Frame
	b.pdf.SetDrawColor(128, 128, 128)
	b.pdf.SetLineWidth(0.02)
	b.pdf.Rect(f.Left, f.Top, f.Width, f.Height, "D")

	b.pdf.SetFont(fontFamily, "", bulletSize)
	b.pdf.SetTextColor(96, 96, 96)
	b.pdf.SetXY(f.Left+0.5, f.Top+1.5)
	b.pdf.CellFormat(f.Width-1, f.Height-3, b.tr(placeholder.Message), "", 0, "CM", false, 0, "")
	b.pdf.SetTextColor(0, 0, 0)
	b.pdf.SetDrawColor(0, 0, 0)
}

// SlideCount returns the number of pages
func (b *PDFBuilder) SlideCount() int {
	return b.pdf.PageCount()
}

// Save writes the PDF
func (b *PDFBuilder) Save(w io.Writer) error {
	if err := b.pdf.Error(); err != nil {
		return fmt.Errorf("failed to build deck: %w", err)
	}
	if err := b.pdf.Output(w); err != nil {
		return fmt.Errorf("failed to write deck: %w", err)
	}
	return nil
}

// lineHeight converts a font size in points to a line height in inches
func lineHeight(size float64) float64 {
	return size / pointsPerInch * lineSpacing
}
