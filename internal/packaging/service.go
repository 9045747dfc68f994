package packaging

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/unalkalkan/PaperSlides/internal/logging"
	"github.com/unalkalkan/PaperSlides/internal/run"
	"github.com/unalkalkan/PaperSlides/pkg/types"
)

// BundleVersion is written into every manifest
const BundleVersion = "1.0"

// ErrNotCompleted is returned for runs that produced no deck
var ErrNotCompleted = errors.New("run is not completed")

// Service packages a completed run into a ZIP archive
type Service struct {
	runs   run.Repository
	logger *logrus.Logger
	now    func() time.Time
}

// NewService creates a new packaging service
func NewService(runs run.Repository, logger *logrus.Logger) *Service {
	return &Service{
		runs:   runs,
		logger: logging.OrDiscard(logger),
		now:    time.Now,
	}
}

// Manifest describes the bundled run
type Manifest struct {
	RunID                string    `json:"run_id"`
	Title                string    `json:"title"`
	Input                string    `json:"input"`
	Deck                 string    `json:"deck"`
	SlideCount           int       `json:"slide_count"`
	FigureCount          int       `json:"figure_count"`
	Figures              []string  `json:"figures"`
	UnresolvedReferences []string  `json:"unresolved_references"`
	Placeholders         int       `json:"placeholders"`
	CreatedAt            time.Time `json:"created_at"`
	PackagedAt           time.Time `json:"packaged_at"`
	Version              string    `json:"version"`
}

// Outline is the section structure the deck was composed from
type Outline struct {
	Title    string           `json:"title"`
	Sections []OutlineSection `json:"sections"`
}

// OutlineSection summarises one analysed section
type OutlineSection struct {
	Title     string   `json:"title"`
	Overview  string   `json:"overview,omitempty"`
	Subtitles []string `json:"subtitles,omitempty"`
	KeyPoints int      `json:"key_points"`
	Figures   []string `json:"figures,omitempty"`
	Excluded  bool     `json:"excluded,omitempty"` // present in the paper, left out of the deck
}

// PackageRun creates a ZIP archive holding the deck, manifest, outline,
// analysis and stored figures of a run.
func (s *Service) PackageRun(ctx context.Context, runID string) (io.Reader, error) {
	r, err := s.runs.GetRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	if r.Status != types.RunStatusCompleted {
		return nil, fmt.Errorf("run %s (status: %s): %w", runID, r.Status, ErrNotCompleted)
	}

	analysis, err := s.runs.GetAnalysis(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}

	figures, err := s.runs.ListFigures(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list figures: %w", err)
	}

	buf := new(bytes.Buffer)
	zipWriter := zip.NewWriter(buf)

	deckName := path.Base(r.DeckPath)
	if err := s.addJSONFile(zipWriter, "manifest.json", s.generateManifest(r, deckName, figures)); err != nil {
		return nil, fmt.Errorf("failed to add manifest: %w", err)
	}
	if err := s.addJSONFile(zipWriter, "outline.json", generateOutline(analysis)); err != nil {
		return nil, fmt.Errorf("failed to add outline: %w", err)
	}
	if err := s.addJSONFile(zipWriter, "analysis.json", analysis); err != nil {
		return nil, fmt.Errorf("failed to add analysis: %w", err)
	}

	deck, err := s.runs.OpenDeck(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("failed to open deck: %w", err)
	}
	err = s.addFileFromReader(zipWriter, deckName, deck)
	deck.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to add deck: %w", err)
	}

	for _, name := range figures {
		reader, err := s.runs.OpenFigure(ctx, runID, name)
		if err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"run_id": runID,
				"figure": name,
			}).Warn("Skipping figure missing from storage")
			continue
		}
		err = s.addFileFromReader(zipWriter, path.Join("figures", name), reader)
		reader.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to add figure %s: %w", name, err)
		}
	}

	if err := zipWriter.Close(); err != nil {
		return nil, fmt.Errorf("failed to close zip: %w", err)
	}

	return bytes.NewReader(buf.Bytes()), nil
}

func (s *Service) generateManifest(r *types.Run, deckName string, figures []string) *Manifest {
	unresolved := r.UnresolvedReferences
	if unresolved == nil {
		unresolved = []string{}
	}
	return &Manifest{
		RunID:                r.ID,
		Title:                r.Title,
		Input:                r.Input,
		Deck:                 deckName,
		SlideCount:           r.SlideCount,
		FigureCount:          r.FigureCount,
		Figures:              figures,
		UnresolvedReferences: unresolved,
		Placeholders:         r.Placeholders,
		CreatedAt:            r.CreatedAt,
		PackagedAt:           s.now().UTC(),
		Version:              BundleVersion,
	}
}

func generateOutline(doc *types.DocumentAnalysis) *Outline {
	outline := &Outline{
		Title:    doc.Title,
		Sections: make([]OutlineSection, 0, len(doc.Sections)),
	}

	for _, section := range doc.Sections {
		entry := OutlineSection{
			Title:    section.Title,
			Overview: section.Overview,
			Excluded: section.Excluded(),
		}
		for _, item := range section.Content {
			if item.Subtitle != "" {
				entry.Subtitles = append(entry.Subtitles, item.Subtitle)
			}
			entry.KeyPoints += len(item.KeyPoints)
			for _, fig := range item.Figures {
				entry.Figures = append(entry.Figures, fig.Reference)
			}
		}
		outline.Sections = append(outline.Sections, entry)
	}

	return outline
}

// addJSONFile adds a JSON file to the ZIP
func (s *Service) addJSONFile(zipWriter *zip.Writer, name string, data interface{}) error {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	writer, err := zipWriter.Create(name)
	if err != nil {
		return fmt.Errorf("failed to create zip entry: %w", err)
	}

	if _, err := writer.Write(jsonData); err != nil {
		return fmt.Errorf("failed to write data: %w", err)
	}

	return nil
}

// addFileFromReader adds a file from an io.Reader to the ZIP
func (s *Service) addFileFromReader(zipWriter *zip.Writer, name string, reader io.Reader) error {
	writer, err := zipWriter.Create(name)
	if err != nil {
		return fmt.Errorf("failed to create zip entry: %w", err)
	}

	if _, err := io.Copy(writer, reader); err != nil {
		return fmt.Errorf("failed to copy data: %w", err)
	}

	return nil
}
