package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/unalkalkan/PaperSlides/internal/compose"
	"github.com/unalkalkan/PaperSlides/internal/deck"
	"github.com/unalkalkan/PaperSlides/internal/figure"
	"github.com/unalkalkan/PaperSlides/internal/layout"
	"github.com/unalkalkan/PaperSlides/internal/logging"
	"github.com/unalkalkan/PaperSlides/internal/parser"
	"github.com/unalkalkan/PaperSlides/internal/provider"
	"github.com/unalkalkan/PaperSlides/internal/resolve"
	"github.com/unalkalkan/PaperSlides/internal/run"
	"github.com/unalkalkan/PaperSlides/internal/storage"
	"github.com/unalkalkan/PaperSlides/pkg/types"
)

// DeckSuffix is appended to the input's base name to name the deck
const DeckSuffix = "_presentation.pdf"

// Dependencies are the collaborators a pipeline drives
type Dependencies struct {
	Loader   *parser.Loader
	Parsers  parser.Factory
	Figures  *figure.Extractor
	Analyzer provider.ContentAnalyzer
	Composer *compose.Composer
	Layout   *layout.Engine
	Renderer *deck.Renderer
	Storage  storage.Adapter
	Runs     run.Repository

	// NewBuilder creates the deck builder for one run
	NewBuilder func() deck.Builder
}

// Pipeline converts one paper at a time into a stored slide deck. Stages run
// strictly in sequence; a fatal failure in any of them stores nothing.
type Pipeline struct {
	cfg    types.PipelineConfig
	deps   Dependencies
	logger *logrus.Logger
	newID  func() string
	now    func() time.Time
}

// New creates a pipeline from explicit dependencies
func New(cfg types.PipelineConfig, deps Dependencies, logger *logrus.Logger) (*Pipeline, error) {
	switch {
	case deps.Loader == nil, deps.Parsers == nil, deps.Figures == nil, deps.Analyzer == nil,
		deps.Composer == nil, deps.Layout == nil, deps.Renderer == nil, deps.Storage == nil,
		deps.Runs == nil, deps.NewBuilder == nil:
		return nil, fmt.Errorf("pipeline dependencies are incomplete")
	}

	return &Pipeline{
		cfg:    cfg,
		deps:   deps,
		logger: logging.OrDiscard(logger),
		newID:  uuid.NewString,
		now:    time.Now,
	}, nil
}

// NewFromConfig wires the default collaborators around a storage adapter and analyzer
func NewFromConfig(cfg types.PipelineConfig, adapter storage.Adapter, analyzer provider.ContentAnalyzer, logger *logrus.Logger) (*Pipeline, error) {
	strategy, err := resolve.NewStrategy(cfg.FigureMatching)
	if err != nil {
		return nil, err
	}

	geometry := layout.DefaultGeometry
	return New(cfg, Dependencies{
		Loader:   parser.NewLoader(time.Duration(cfg.DownloadTimeout) * time.Second),
		Parsers:  parser.NewFactory(logger),
		Figures:  figure.NewExtractor(figure.NewFilter(cfg.Figures), logger),
		Analyzer: analyzer,
		Composer: compose.NewComposer(resolve.NewResolver(strategy, logger), compose.Options{
			IncludeTechnicalDetails: cfg.IncludeTechnicalDetails,
		}, logger),
		Layout:   layout.NewEngine(geometry, layout.DecodeFile, logger),
		Renderer: deck.NewRenderer(geometry, logger),
		Storage:  adapter,
		Runs:     run.NewRepository(adapter),
		NewBuilder: func() deck.Builder {
			return deck.NewPDFBuilder(geometry)
		},
	}, logger)
}

// Convert loads the paper at locator (path or URL) and converts it
func (p *Pipeline) Convert(ctx context.Context, locator string) (*types.Run, error) {
	src, err := p.deps.Loader.Load(ctx, locator)
	if err != nil {
		p.logger.WithError(err).WithField("input", locator).Error("Failed to load paper")
		return nil, err
	}
	return p.ConvertSource(ctx, src)
}

// ConvertSource converts an already loaded paper. On success the deck is at
// the returned run's DeckPath and the run record is stored.
func (p *Pipeline) ConvertSource(ctx context.Context, src *parser.Source) (*types.Run, error) {
	r := &types.Run{
		ID:        p.newID(),
		Input:     src.Name,
		CreatedAt: p.now().UTC(),
	}
	entry := p.logger.WithFields(logrus.Fields{
		"run_id": r.ID,
		"input":  src.Name,
	})

	fail := func(stage string, err error) (*types.Run, error) {
		r.Status = types.RunStatusFailed
		r.Error = err.Error()
		entry.WithError(err).WithField("stage", stage).Error("Conversion failed")
		return r, err
	}

	prs, err := p.deps.Parsers.GetParser(src.Format)
	if err != nil {
		return fail("extract", types.NewPipelineError(types.KindUpstreamCollaboratorFailure, "pipeline.extract", err))
	}

	extraction, err := prs.Parse(ctx, src.Data)
	if err != nil {
		return fail("extract", err)
	}

	workDir := filepath.Join(p.cfg.WorkDir, r.ID)
	defer func() {
		if err := os.RemoveAll(workDir); err != nil {
			entry.WithError(err).WithField("dir", workDir).Warn("Failed to remove work directory")
		}
	}()
	figures, err := p.deps.Figures.Extract(extraction.Images, workDir)
	if err != nil {
		return fail("figures", err)
	}
	r.FigureCount = len(figures)

	doc, err := p.deps.Analyzer.Analyze(ctx, extraction.Text)
	if err != nil {
		return fail("analyze", err)
	}
	r.Title = doc.Title

	composed, err := p.deps.Composer.Compose(doc, figures)
	if err != nil {
		return fail("compose", err)
	}
	r.UnresolvedReferences = composed.Unresolved

	r.Placeholders = p.deps.Layout.Apply(composed.Slides)

	var buf bytes.Buffer
	builder := p.deps.NewBuilder()
	fallbacks, err := p.deps.Renderer.Render(composed.Slides, builder, &buf)
	if err != nil {
		return fail("render", err)
	}
	r.Placeholders += fallbacks
	r.SlideCount = builder.SlideCount()

	deckPath := path.Join(p.cfg.OutputPrefix, src.Name+DeckSuffix)
	if err := p.deps.Storage.Put(ctx, deckPath, bytes.NewReader(buf.Bytes())); err != nil {
		return fail("store", fmt.Errorf("failed to store deck: %w", err))
	}

	r.DeckPath = deckPath
	r.Status = types.RunStatusCompleted
	r.CompletedAt = p.now().UTC()

	if err := p.deps.Runs.SaveAnalysis(ctx, r.ID, doc); err != nil {
		entry.WithError(err).Warn("Failed to store analysis")
	}
	p.saveFigures(ctx, r.ID, figures, entry)
	if err := p.deps.Runs.SaveRun(ctx, r); err != nil {
		entry.WithError(err).Warn("Failed to store run record")
	}

	entry.WithFields(logrus.Fields{
		"deck":         deckPath,
		"slides":       r.SlideCount,
		"figures":      r.FigureCount,
		"unresolved":   len(r.UnresolvedReferences),
		"placeholders": r.Placeholders,
		"took":         r.CompletedAt.Sub(r.CreatedAt),
	}).Info("Deck created")

	return r, nil
}

// saveFigures copies the run's figures into storage next to the run record
func (p *Pipeline) saveFigures(ctx context.Context, runID string, figures []types.Figure, entry *logrus.Entry) {
	for _, fig := range figures {
		f, err := os.Open(fig.FileID)
		if err != nil {
			entry.WithError(err).WithField("file", fig.FileID).Warn("Failed to open figure")
			continue
		}
		err = p.deps.Runs.SaveFigure(ctx, runID, filepath.Base(fig.FileID), f)
		f.Close()
		if err != nil {
			entry.WithError(err).WithField("file", fig.FileID).Warn("Failed to store figure")
		}
	}
}

// Runs exposes the run repository
func (p *Pipeline) Runs() run.Repository {
	return p.deps.Runs
}

// Analyzer returns the content analyzer in use
func (p *Pipeline) Analyzer() provider.ContentAnalyzer {
	return p.deps.Analyzer
}
