package run

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unalkalkan/PaperSlides/internal/storage"
	"github.com/unalkalkan/PaperSlides/pkg/types"
)

func TestRunRepository(t *testing.T) {
	storageAdapter, err := storage.NewLocalAdapter(t.TempDir())
	require.NoError(t, err)
	defer storageAdapter.Close()

	repo := NewRepository(storageAdapter)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	t.Run("SaveAndGetRun", func(t *testing.T) {
		run := &types.Run{
			ID:                   "run-1",
			Input:                "paper.pdf",
			Title:                "Sparse Attention",
			Status:               types.RunStatusCompleted,
			DeckPath:             "decks/paper_presentation.pdf",
			SlideCount:           7,
			FigureCount:          3,
			UnresolvedReferences: []string{"Figure 9"},
			CreatedAt:            now.Add(-time.Hour),
		}
		require.NoError(t, repo.SaveRun(ctx, run))

		got, err := repo.GetRun(ctx, "run-1")
		require.NoError(t, err)
		assert.Equal(t, run.Title, got.Title)
		assert.Equal(t, []string{"Figure 9"}, got.UnresolvedReferences)
		assert.True(t, run.CreatedAt.Equal(got.CreatedAt))
	})

	t.Run("SaveRunRequiresID", func(t *testing.T) {
		assert.Error(t, repo.SaveRun(ctx, &types.Run{}))
	})

	t.Run("GetMissingRun", func(t *testing.T) {
		_, err := repo.GetRun(ctx, "nope")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("ListRunsNewestFirst", func(t *testing.T) {
		require.NoError(t, repo.SaveRun(ctx, &types.Run{ID: "run-2", Status: types.RunStatusCompleted, CreatedAt: now}))
		require.NoError(t, repo.SaveAnalysis(ctx, "run-2", &types.DocumentAnalysis{Title: "T", Sections: []types.Section{}}))
		require.NoError(t, storageAdapter.Put(ctx, "runs/broken/run.json", bytes.NewReader([]byte("{"))))

		runs, err := repo.ListRuns(ctx)
		require.NoError(t, err)
		require.Len(t, runs, 2)
		assert.Equal(t, "run-2", runs[0].ID)
		assert.Equal(t, "run-1", runs[1].ID)
	})

	t.Run("Analysis", func(t *testing.T) {
		got, err := repo.GetAnalysis(ctx, "run-2")
		require.NoError(t, err)
		assert.Equal(t, "T", got.Title)

		_, err = repo.GetAnalysis(ctx, "run-1")
		assert.Error(t, err)
	})

	t.Run("OpenDeck", func(t *testing.T) {
		require.NoError(t, storageAdapter.Put(ctx, "decks/paper_presentation.pdf", bytes.NewReader([]byte("%PDF-"))))
		run, err := repo.GetRun(ctx, "run-1")
		require.NoError(t, err)

		reader, err := repo.OpenDeck(ctx, run)
		require.NoError(t, err)
		defer reader.Close()
		data, _ := io.ReadAll(reader)
		assert.Equal(t, "%PDF-", string(data))

		_, err = repo.OpenDeck(ctx, &types.Run{ID: "x", Status: types.RunStatusFailed})
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
	t.Run("Figures", func(t *testing.T) {
		require.NoError(t, repo.SaveFigure(ctx, "run-2", "figure_2.png", bytes.NewReader([]byte("two"))))
		require.NoError(t, repo.SaveFigure(ctx, "run-2", "figure_1.png", bytes.NewReader([]byte("one"))))
		assert.Error(t, repo.SaveFigure(ctx, "run-2", "../figure_3.png", bytes.NewReader(nil)))
		assert.Error(t, repo.SaveFigure(ctx, "", "figure_3.png", bytes.NewReader(nil)))

		names, err := repo.ListFigures(ctx, "run-2")
		require.NoError(t, err)
		assert.Equal(t, []string{"figure_1.png", "figure_2.png"}, names)

		names, err = repo.ListFigures(ctx, "run-1")
		require.NoError(t, err)
		assert.Empty(t, names)

		reader, err := repo.OpenFigure(ctx, "run-2", "figure_1.png")
		require.NoError(t, err)
		defer reader.Close()
		data, _ := io.ReadAll(reader)
		assert.Equal(t, "one", string(data))

		_, err = repo.OpenFigure(ctx, "run-2", "../run.json")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}
