package resolve

import (
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unalkalkan/PaperSlides/pkg/types"
)

func figures(ids ...string) []types.Figure {
	figs := make([]types.Figure, len(ids))
	for i, id := range ids {
		figs[i] = types.Figure{Index: i + 1, FileID: id, Width: 640, Height: 480}
	}
	return figs
}

func TestParseReference(t *testing.T) {
	tests := []struct {
		raw           string
		number        string
		supplementary bool
	}{
		{raw: "Figure 2", number: "2"},
		{raw: "Fig. 12", number: "12"},
		{raw: "Figure 2: memory at 1024 tokens", number: "2"},
		{raw: "Figure: 7", number: "7"},
		{raw: "Figure: S4", number: "4", supplementary: true},
		{raw: "Figure: throughput on 4 GPUs", number: ""},
		{raw: "Fig. 3a and 14", number: "14"},
		{raw: "Figure 4 and 5", number: "4"},
		{raw: "Fig. S3", number: "3", supplementary: true},
		{raw: "Figure S12: ablations", number: "12", supplementary: true},
		{raw: "Supplementary Figure 2", number: "2", supplementary: true},
		{raw: "Figs3", number: "3"},
		{raw: "Figure", number: ""},
		{raw: "", number: ""},
		{raw: "Figure A: overview", number: ""},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			ref := ParseReference(tt.raw)
			assert.Equal(t, tt.raw, ref.RawText)
			assert.Equal(t, tt.number, ref.Number)
			assert.Equal(t, tt.supplementary, ref.Supplementary)
			assert.Equal(t, tt.number != "", ref.Resolvable())
		})
	}
}

func TestPatternStrategyPriority(t *testing.T) {
	strategy := NewPatternStrategy()
	ref := ParseReference("Figure 1")

	fig, ok := strategy.Match(ref, figures("out/fig_1_a.png", "out/figure_1_b.png"))
	require.True(t, ok)
	assert.Equal(t, "out/figure_1_b.png", fig.FileID, "figure_<n> outranks fig_<n>")

	fig, ok = strategy.Match(ref, figures("out/FIG1.PNG", "out/page_1_.png"))
	require.True(t, ok)
	assert.Equal(t, "out/FIG1.PNG", fig.FileID, "matching is case-insensitive")

	fig, ok = strategy.Match(ref, figures("out/page_3.png", "out/img_1.png"))
	require.True(t, ok)
	assert.Equal(t, "out/img_1.png", fig.FileID)
}

func TestPatternStrategyFirstMatchByExtractionOrder(t *testing.T) {
	fig, ok := NewPatternStrategy().Match(ParseReference("Figure 2"), figures("a/figure_2.png", "b/figure_2.png"))
	require.True(t, ok)
	assert.Equal(t, 1, fig.Index)
}

func TestPatternStrategyMatchesContainPattern(t *testing.T) {
	figs := figures("figure_1.png", "fig_2.jpg", "plot_3.png", "x_4_y.png", "Figure5.tif")

	for _, raw := range []string{"Figure 1", "Fig 2", "Figure 3", "Figure 4", "Figure 5", "Figure 6"} {
		ref := ParseReference(raw)
		fig, ok := NewPatternStrategy().Match(ref, figs)
		if !ok {
			assert.Equal(t, "Figure 6", raw)
			continue
		}

		contains := false
		for _, gen := range DefaultPatterns {
			if strings.Contains(strings.ToLower(fig.FileID), strings.ToLower(gen(ref.Number))) {
				contains = true
			}
		}
		assert.True(t, contains, "%s resolved to %s", raw, fig.FileID)
	}
}

func TestPatternStrategyPrefixCollision(t *testing.T) {
	// figure_1 is a substring of figure_10; the earlier file wins
	fig, ok := NewPatternStrategy().Match(ParseReference("Figure 1"), figures("out/figure_10.png", "out/figure_1.png"))
	require.True(t, ok)
	assert.Equal(t, "out/figure_10.png", fig.FileID)
}

func TestFuzzyStrategy(t *testing.T) {
	strategy := NewFuzzyStrategy()

	fig, ok := strategy.Match(ParseReference("Figure 1"), figures("out/figure_10.png", "out/figure_1.png"))
	require.True(t, ok)
	assert.Equal(t, "out/figure_1.png", fig.FileID, "exact number required")

	fig, ok = strategy.Match(ParseReference("Fig. 3"), figures("out/Figure-3.PNG", "out/table-3.png"))
	require.True(t, ok)
	assert.Equal(t, "out/Figure-3.PNG", fig.FileID)

	_, ok = strategy.Match(ParseReference("Figure 4"), figures("out/figure_14.png", "out/figure_41.png"))
	assert.False(t, ok)
}

func TestChainStrategy(t *testing.T) {
	chain := NewChainStrategy(NewPatternStrategy(), NewFuzzyStrategy())
	assert.Equal(t, "pattern+fuzzy", chain.Name())

	fig, ok := chain.Match(ParseReference("Figure 2"), figures("out/fig-2.png"))
	require.True(t, ok, "fuzzy picks up what the patterns miss")
	assert.Equal(t, "out/fig-2.png", fig.FileID)

	fig, ok = chain.Match(ParseReference("Figure 2"), figures("out/fig-2.png", "out/figure_2.png"))
	require.True(t, ok)
	assert.Equal(t, "out/figure_2.png", fig.FileID, "patterns are tried first")
}

func TestNewStrategy(t *testing.T) {
	for _, name := range []string{"", "pattern", "fuzzy", "pattern+fuzzy"} {
		s, err := NewStrategy(name)
		require.NoError(t, err, name)
		assert.NotNil(t, s)
	}

	_, err := NewStrategy("bipartite")
	assert.Error(t, err)
}

func TestResolverUnresolvedLogsWarning(t *testing.T) {
	logger, hook := test.NewNullLogger()
	resolver := NewResolver(nil, logger)

	_, ok := resolver.Resolve(types.FigureInfo{Reference: "Figure 9"}, figures("out/figure_1.png"))
	assert.False(t, ok)
	require.Len(t, hook.Entries, 1)
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, "Figure 9", hook.LastEntry().Data["reference"])

	hook.Reset()
	_, ok = resolver.Resolve(types.FigureInfo{Reference: "the overview figure"}, figures("out/figure_1.png"))
	assert.False(t, ok)
	require.Len(t, hook.Entries, 1)
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)

	hook.Reset()
	_, ok = resolver.Resolve(types.FigureInfo{Reference: "Figure 1"}, nil)
	assert.False(t, ok)
	assert.Len(t, hook.Entries, 1)
}

func TestResolverIdempotent(t *testing.T) {
	resolver := NewResolver(NewPatternStrategy(), nil)
	figs := figures("out/fig_2.png", "out/image_2_.png", "out/figure_2.png")
	info := types.FigureInfo{Reference: "Figure 2: results"}

	first, ok1 := resolver.Resolve(info, figs)
	second, ok2 := resolver.Resolve(info, figs)
	assert.Equal(t, ok1, ok2)
	assert.Equal(t, first, second)
	assert.Equal(t, "out/figure_2.png", first.FileID)
}

func TestResolverAllowsSharedFigure(t *testing.T) {
	resolver := NewResolver(nil, nil)
	figs := figures("out/figure_3.png")

	a, okA := resolver.Resolve(types.FigureInfo{Reference: "Figure 3"}, figs)
	b, okB := resolver.Resolve(types.FigureInfo{Reference: "Fig. 3b"}, figs)
	require.True(t, okA)
	require.True(t, okB)
	assert.Equal(t, a, b)
}
