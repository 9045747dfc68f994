package pipeline

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unalkalkan/PaperSlides/internal/parser"
	"github.com/unalkalkan/PaperSlides/internal/provider"
	"github.com/unalkalkan/PaperSlides/internal/storage"
	"github.com/unalkalkan/PaperSlides/pkg/types"
)

const paperText = `Sparse Attention at Scale

1 Introduction
Transformers are expensive. Figure 1 shows the cost curve.

2 Results
Sparse attention halves memory. Figure 7 shows the ablation.

References
[1] Child et al. Generating long sequences.`

type fakeParser struct {
	extraction *types.Extraction
	err        error
}

func (f *fakeParser) Parse(ctx context.Context, data []byte) (*types.Extraction, error) {
	return f.extraction, f.err
}

func (f *fakeParser) SupportedFormats() []string { return []string{"pdf"} }

type fakeFactory struct {
	parser parser.Parser
}

func (f *fakeFactory) GetParser(format string) (parser.Parser, error) {
	return f.parser, nil
}

type failingAnalyzer struct {
	err error
}

func (f *failingAnalyzer) Name() string { return "failing" }

func (f *failingAnalyzer) Analyze(ctx context.Context, text string) (*types.DocumentAnalysis, error) {
	return nil, f.err
}

func (f *failingAnalyzer) Close() error { return nil }

func chartPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 320, 240))
	for y := 0; y < 240; y++ {
		for x := 0; x < 320; x++ {
			c := color.RGBA{R: 250, G: 250, B: 250, A: 255}
			if y%8 == 0 || x%16 == 0 {
				c = color.RGBA{R: 30, G: 60, B: 150, A: 255}
			}
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func testConfig(t *testing.T) types.PipelineConfig {
	return types.PipelineConfig{
		WorkDir:        t.TempDir(),
		OutputPrefix:   "decks",
		FigureMatching: "pattern",
		Figures: types.FigureFilterConfig{
			MinWidth:      100,
			MinHeight:     100,
			MinBrightness: 10,
			MaxBrightness: 245,
		},
	}
}

func newTestPipeline(t *testing.T, cfg types.PipelineConfig, analyzer provider.ContentAnalyzer, logger *logrus.Logger) (*Pipeline, storage.Adapter) {
	t.Helper()
	adapter, err := storage.NewLocalAdapter(t.TempDir())
	require.NoError(t, err)

	p, err := NewFromConfig(cfg, adapter, analyzer, logger)
	require.NoError(t, err)
	p.newID = func() string { return "run-1" }
	return p, adapter
}

func readAll(t *testing.T, adapter storage.Adapter, key string) []byte {
	t.Helper()
	reader, err := adapter.Get(context.Background(), key)
	require.NoError(t, err)
	defer reader.Close()
	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	return data
}

func TestConvertTextPaper(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sparse.txt")
	require.NoError(t, os.WriteFile(path, []byte(paperText), 0644))

	logger, hook := test.NewNullLogger()
	p, adapter := newTestPipeline(t, testConfig(t), provider.NewStubAnalyzer("stub"), logger)

	r, err := p.Convert(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, types.RunStatusCompleted, r.Status)
	assert.Equal(t, "Sparse Attention at Scale", r.Title)
	assert.Equal(t, "decks/sparse_presentation.pdf", r.DeckPath)
	assert.Equal(t, 0, r.FigureCount)
	assert.Equal(t, []string{"Figure 1", "Figure 7"}, r.UnresolvedReferences)
	// title, then section, overview and key point slides for both sections
	assert.Equal(t, 7, r.SlideCount)

	deck := readAll(t, adapter, r.DeckPath)
	assert.True(t, bytes.HasPrefix(deck, []byte("%PDF-")))

	stored, err := p.Runs().GetRun(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, r.DeckPath, stored.DeckPath)

	doc, err := p.Runs().GetAnalysis(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, "Sparse Attention at Scale", doc.Title)

	warnings := 0
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			warnings++
		}
	}
	assert.Equal(t, 2, warnings, "one warning per unresolved reference")
}

func TestConvertWithFigures(t *testing.T) {
	cfg := testConfig(t)
	p, adapter := newTestPipeline(t, cfg, provider.NewStubAnalyzer("stub"), nil)

	chart := chartPNG(t)
	p.deps.Parsers = &fakeFactory{parser: &fakeParser{extraction: &types.Extraction{
		Text: paperText,
		Images: []types.RawImage{
			{Name: "paper_1_logo.png", Data: []byte("broken")},
			{Name: "paper_2_Im1.png", Data: chart},
		},
		Pages: 2,
	}}}

	r, err := p.ConvertSource(context.Background(), &parser.Source{Name: "sparse", Format: "pdf", Data: []byte("%PDF-")})
	require.NoError(t, err)

	assert.Equal(t, 1, r.FigureCount)
	assert.Equal(t, []string{"Figure 7"}, r.UnresolvedReferences)
	assert.Equal(t, 0, r.Placeholders)
	assert.Equal(t, 8, r.SlideCount)
	assert.NoDirExists(t, filepath.Join(cfg.WorkDir, "run-1"))
	exists, err := adapter.Exists(context.Background(), "runs/run-1/figures/figure_1.png")
	require.NoError(t, err)
	assert.True(t, exists)

	deck := readAll(t, adapter, "decks/sparse_presentation.pdf")
	assert.True(t, bytes.HasPrefix(deck, []byte("%PDF-")))

	stored, err := p.Runs().ListFigures(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"figure_1.png"}, stored)
}

func TestConvertFatalErrorsStoreNothing(t *testing.T) {
	tests := []struct {
		name     string
		analyzer provider.ContentAnalyzer
		parser   parser.Parser
		sentinel error
	}{
		{
			name:     "malformed analysis",
			analyzer: &failingAnalyzer{err: types.NewPipelineError(types.KindMalformedAnalysisObject, "test", errors.New("missing title"))},
			parser:   &fakeParser{extraction: &types.Extraction{Text: paperText}},
			sentinel: types.ErrMalformedAnalysis,
		},
		{
			name:     "analyzer unreachable",
			analyzer: &failingAnalyzer{err: types.NewPipelineError(types.KindUpstreamCollaboratorFailure, "test", errors.New("connection refused"))},
			parser:   &fakeParser{extraction: &types.Extraction{Text: paperText}},
			sentinel: types.ErrUpstream,
		},
		{
			name:     "extraction failure",
			analyzer: provider.NewStubAnalyzer("stub"),
			parser:   &fakeParser{err: types.NewPipelineError(types.KindUpstreamCollaboratorFailure, "test", errors.New("encrypted"))},
			sentinel: types.ErrUpstream,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, adapter := newTestPipeline(t, testConfig(t), tt.analyzer, nil)
			p.deps.Parsers = &fakeFactory{parser: tt.parser}

			r, err := p.ConvertSource(context.Background(), &parser.Source{Name: "paper", Format: "pdf"})
			assert.ErrorIs(t, err, tt.sentinel)
			require.NotNil(t, r)
			assert.Equal(t, types.RunStatusFailed, r.Status)
			assert.Empty(t, r.DeckPath)

			keys, err := adapter.List(context.Background(), "")
			require.NoError(t, err)
			assert.Empty(t, keys)
		})
	}
}

func TestConvertRemovesWorkDirOnFailure(t *testing.T) {
	cfg := testConfig(t)
	p, _ := newTestPipeline(t, cfg, &failingAnalyzer{err: types.NewPipelineError(types.KindUpstreamCollaboratorFailure, "test", errors.New("llm down"))}, nil)
	p.deps.Parsers = &fakeFactory{parser: &fakeParser{extraction: &types.Extraction{
		Text:   paperText,
		Images: []types.RawImage{{Name: "paper_1_Im1.png", Data: chartPNG(t)}},
	}}}

	_, err := p.ConvertSource(context.Background(), &parser.Source{Name: "paper", Format: "pdf"})
	assert.ErrorContains(t, err, "llm down")
	assert.NoDirExists(t, filepath.Join(cfg.WorkDir, "run-1"))
}

func TestConvertUnsupportedFormat(t *testing.T) {
	p, _ := newTestPipeline(t, testConfig(t), provider.NewStubAnalyzer("stub"), nil)

	_, err := p.ConvertSource(context.Background(), &parser.Source{Name: "paper", Format: "docx", Data: []byte("x")})
	assert.ErrorIs(t, err, types.ErrUpstream)
}

func TestConvertMissingFile(t *testing.T) {
	p, _ := newTestPipeline(t, testConfig(t), provider.NewStubAnalyzer("stub"), nil)

	r, err := p.Convert(context.Background(), filepath.Join(t.TempDir(), "missing.pdf"))
	assert.Nil(t, r)
	assert.ErrorIs(t, err, types.ErrUpstream)
}

func TestNewRequiresDependencies(t *testing.T) {
	_, err := New(types.PipelineConfig{}, Dependencies{}, nil)
	assert.Error(t, err)

	_, err = NewFromConfig(types.PipelineConfig{FigureMatching: "bipartite"}, nil, nil, nil)
	assert.Error(t, err)
}
