package run

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/unalkalkan/PaperSlides/internal/storage"
	"github.com/unalkalkan/PaperSlides/pkg/types"
)

const runsPrefix = "runs/"

// Repository handles run record persistence
type Repository interface {
	// SaveRun stores a run record
	SaveRun(ctx context.Context, run *types.Run) error

	// GetRun retrieves a run record by ID
	GetRun(ctx context.Context, runID string) (*types.Run, error)

	// ListRuns returns all run records, newest first
	ListRuns(ctx context.Context) ([]*types.Run, error)

	// SaveAnalysis stores the validated analysis a run was composed from
	SaveAnalysis(ctx context.Context, runID string, analysis *types.DocumentAnalysis) error

	// GetAnalysis retrieves the analysis of a run
	GetAnalysis(ctx context.Context, runID string) (*types.DocumentAnalysis, error)

	// OpenDeck opens the deck produced by a run
	OpenDeck(ctx context.Context, run *types.Run) (io.ReadCloser, error)

	// SaveFigure stores one extracted figure of a run under its file name
	SaveFigure(ctx context.Context, runID, name string, data io.Reader) error

	// ListFigures returns the file names of a run's stored figures, sorted
	ListFigures(ctx context.Context, runID string) ([]string, error)

	// OpenFigure opens a stored figure by file name
	OpenFigure(ctx context.Context, runID, name string) (io.ReadCloser, error)
}

// StorageRepository implements Repository using a storage adapter
type StorageRepository struct {
	storage storage.Adapter
}

// NewRepository creates a new run repository
func NewRepository(storageAdapter storage.Adapter) Repository {
	return &StorageRepository{
		storage: storageAdapter,
	}
}

func runPath(runID string) string {
	return path.Join("runs", runID, "run.json")
}

func analysisPath(runID string) string {
	return path.Join("runs", runID, "analysis.json")
}

func figuresPrefix(runID string) string {
	return path.Join("runs", runID, "figures") + "/"
}

// SaveRun stores a run record
func (r *StorageRepository) SaveRun(ctx context.Context, run *types.Run) error {
	if run.ID == "" {
		return fmt.Errorf("run ID is required")
	}
	return r.putJSON(ctx, runPath(run.ID), run)
}

// GetRun retrieves a run record by ID
func (r *StorageRepository) GetRun(ctx context.Context, runID string) (*types.Run, error) {
	var run types.Run
	if err := r.getJSON(ctx, runPath(runID), &run); err != nil {
		return nil, fmt.Errorf("failed to get run %s: %w", runID, err)
	}
	return &run, nil
}

// ListRuns returns all readable run records, newest first
func (r *StorageRepository) ListRuns(ctx context.Context) ([]*types.Run, error) {
	paths, err := r.storage.List(ctx, runsPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	runs := make([]*types.Run, 0)
	for _, p := range paths {
		if path.Base(p) != "run.json" {
			continue
		}

		var run types.Run
		if err := r.getJSON(ctx, p, &run); err != nil {
			continue // skip unreadable records
		}
		runs = append(runs, &run)
	}

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].CreatedAt.After(runs[j].CreatedAt)
	})
	return runs, nil
}

// SaveAnalysis stores the analysis of a run
func (r *StorageRepository) SaveAnalysis(ctx context.Context, runID string, analysis *types.DocumentAnalysis) error {
	return r.putJSON(ctx, analysisPath(runID), analysis)
}

// GetAnalysis retrieves the analysis of a run
func (r *StorageRepository) GetAnalysis(ctx context.Context, runID string) (*types.DocumentAnalysis, error) {
	var analysis types.DocumentAnalysis
	if err := r.getJSON(ctx, analysisPath(runID), &analysis); err != nil {
		return nil, fmt.Errorf("failed to get analysis for run %s: %w", runID, err)
	}
	return &analysis, nil
}

// OpenDeck opens the deck a completed run stored
func (r *StorageRepository) OpenDeck(ctx context.Context, run *types.Run) (io.ReadCloser, error) {
	if run.Status != types.RunStatusCompleted || run.DeckPath == "" {
		return nil, fmt.Errorf("run %s has no deck: %w", run.ID, storage.ErrNotFound)
	}
	return r.storage.Get(ctx, run.DeckPath)
}

// SaveFigure stores one extracted figure of a run
func (r *StorageRepository) SaveFigure(ctx context.Context, runID, name string, data io.Reader) error {
	if runID == "" || name == "" || path.Base(name) != name {
		return fmt.Errorf("invalid figure %q for run %q", name, runID)
	}
	if err := r.storage.Put(ctx, figuresPrefix(runID)+name, data); err != nil {
		return fmt.Errorf("failed to save figure %s: %w", name, err)
	}
	return nil
}

// ListFigures returns the file names of a run's stored figures
func (r *StorageRepository) ListFigures(ctx context.Context, runID string) ([]string, error) {
	prefix := figuresPrefix(runID)
	keys, err := r.storage.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list figures: %w", err)
	}

	names := make([]string, 0, len(keys))
	for _, key := range keys {
		names = append(names, strings.TrimPrefix(key, prefix))
	}
	sort.Strings(names)
	return names, nil
}

// OpenFigure opens a stored figure by file name
func (r *StorageRepository) OpenFigure(ctx context.Context, runID, name string) (io.ReadCloser, error) {
	if path.Base(name) != name {
		return nil, fmt.Errorf("invalid figure name %q: %w", name, storage.ErrNotFound)
	}
	return r.storage.Get(ctx, figuresPrefix(runID)+name)
}

func (r *StorageRepository) putJSON(ctx context.Context, key string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", path.Base(key), err)
	}
	return r.storage.Put(ctx, key, bytes.NewReader(data))
}

func (r *StorageRepository) getJSON(ctx context.Context, key string, v any) error {
	reader, err := r.storage.Get(ctx, key)
	if err != nil {
		return err
	}
	defer reader.Close()

	if err := json.NewDecoder(reader).Decode(v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path.Base(key), err)
	}
	return nil
}
