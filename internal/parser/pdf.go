package parser

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/unicode/norm"

	"github.com/unalkalkan/PaperSlides/internal/logging"
	"github.com/unalkalkan/PaperSlides/pkg/types"
)

// PDFParser extracts text with ledongthuc/pdf and embedded images with pdfcpu
type PDFParser struct {
	logger *logrus.Logger
}

// NewPDFParser creates a new PDF parser
func NewPDFParser(logger *logrus.Logger) *PDFParser {
	return &PDFParser{logger: logging.OrDiscard(logger)}
}

// Parse extracts the full text and every embedded image, in page order
func (p *PDFParser) Parse(ctx context.Context, data []byte) (*types.Extraction, error) {
	if len(data) == 0 {
		return nil, upstream(fmt.Errorf("empty PDF content"))
	}

	text, pages, err := extractText(data)
	if err != nil {
		return nil, upstream(err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	images, err := p.extractImages(data)
	if err != nil {
		return nil, upstream(err)
	}

	p.logger.WithFields(logrus.Fields{
		"pages":  pages,
		"images": len(images),
		"chars":  len(text),
	}).Debug("Extracted PDF")

	return &types.Extraction{
		Text:   text,
		Images: images,
		Pages:  pages,
	}, nil
}

// SupportedFormats returns the formats this parser supports
func (p *PDFParser) SupportedFormats() []string {
	return []string{"pdf"}
}

func upstream(err error) error {
	return types.NewPipelineError(types.KindUpstreamCollaboratorFailure, "parser.pdf", err)
}

// extractText concatenates the plain text of every page, NFKC-normalised
// so ligatures come out as plain letters
func extractText(data []byte) (text string, pages int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("failed to read PDF text: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", 0, fmt.Errorf("failed to open PDF: %w", err)
	}

	var sb strings.Builder
	pages = r.NumPage()
	for i := 1; i <= pages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}

		pageText, err := page.GetPlainText(nil)
		if err != nil {
			continue // unreadable pages are skipped
		}
		pageText = strings.TrimSpace(pageText)
		if pageText == "" {
			continue
		}

		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(pageText)
	}

	return norm.NFKC.String(sb.String()), pages, nil
}

// extractImages has pdfcpu write every image into a temporary directory
// and reads them back in page order
func (p *PDFParser) extractImages(data []byte) ([]types.RawImage, error) {
	dir, err := os.MkdirTemp("", "paperslides-extract-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create extraction dir: %w", err)
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, "paper.pdf")
	if err := os.WriteFile(in, data, 0600); err != nil {
		return nil, fmt.Errorf("failed to stage PDF: %w", err)
	}

	out := filepath.Join(dir, "images")
	if err := os.Mkdir(out, 0755); err != nil {
		return nil, fmt.Errorf("failed to create image dir: %w", err)
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	if err := api.ExtractImagesFile(in, out, nil, conf); err != nil {
		return nil, fmt.Errorf("failed to extract images: %w", err)
	}

	entries, err := os.ReadDir(out)
	if err != nil {
		return nil, fmt.Errorf("failed to read extracted images: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sortByPage(names)

	images := make([]types.RawImage, 0, len(names))
	for _, name := range names {
		b, err := os.ReadFile(filepath.Join(out, name))
		if err != nil {
			p.logger.WithError(err).WithField("image", name).Warn("Skipping unreadable extracted image")
			continue
		}
		images = append(images, types.RawImage{Name: name, Data: b})
	}

	return images, nil
}

// sortByPage orders pdfcpu output names (<base>_<page>_<resource>.<ext>)
// by page number, then by name
func sortByPage(names []string) {
	sort.SliceStable(names, func(i, j int) bool {
		pi, pj := pageOf(names[i]), pageOf(names[j])
		if pi != pj {
			return pi < pj
		}
		return names[i] < names[j]
	})
}

func pageOf(name string) int {
	parts := strings.Split(strings.TrimSuffix(name, filepath.Ext(name)), "_")
	for i := 1; i < len(parts); i++ {
		if n, err := strconv.Atoi(parts[i]); err == nil {
			return n
		}
	}
	return 0
}
