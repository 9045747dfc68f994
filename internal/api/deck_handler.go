package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/unalkalkan/PaperSlides/internal/logging"
	"github.com/unalkalkan/PaperSlides/internal/packaging"
	"github.com/unalkalkan/PaperSlides/internal/parser"
	"github.com/unalkalkan/PaperSlides/internal/run"
	"github.com/unalkalkan/PaperSlides/internal/storage"
	"github.com/unalkalkan/PaperSlides/pkg/types"
)

// DefaultMaxUploadSize applies when the server config leaves it unset
const DefaultMaxUploadSize = 100 << 20

// Converter turns a loaded paper into a stored deck
type Converter interface {
	ConvertSource(ctx context.Context, src *parser.Source) (*types.Run, error)
}

// DeckHandler handles deck-related API endpoints
type DeckHandler struct {
	converter     Converter
	parsers       parser.Factory
	runs          run.Repository
	bundles       *packaging.Service
	maxUploadSize int64
	logger        *logrus.Logger
}

// NewDeckHandler creates a new deck handler
func NewDeckHandler(converter Converter, parsers parser.Factory, runs run.Repository, maxUploadSize int64, logger *logrus.Logger) *DeckHandler {
	if maxUploadSize <= 0 {
		maxUploadSize = DefaultMaxUploadSize
	}
	return &DeckHandler{
		converter:     converter,
		parsers:       parsers,
		runs:          runs,
		bundles:       packaging.NewService(runs, logger),
		maxUploadSize: maxUploadSize,
		logger:        logging.OrDiscard(logger),
	}
}

// Register mounts the deck routes on mux
func (h *DeckHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/v1/decks", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			h.CreateDeck(w, r)
		case http.MethodGet:
			h.ListDecks(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/api/v1/decks/", func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/download") {
			h.DownloadDeck(w, r)
			return
		}
		if strings.HasSuffix(r.URL.Path, "/bundle") {
			h.DownloadBundle(w, r)
			return
		}
		if strings.HasSuffix(r.URL.Path, "/analysis") {
			h.GetAnalysis(w, r)
			return
		}
		h.GetDeck(w, r)
	})
}

// CreateDeck handles POST /api/v1/decks. The conversion runs within the request.
func (h *DeckHandler) CreateDeck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			respondError(w, "File too large", http.StatusRequestEntityTooLarge)
			return
		}
		respondError(w, "Failed to parse form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, "No file provided", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, "Failed to read file", http.StatusInternalServerError)
		return
	}

	src := parser.NewSource(header.Filename, data)
	if src.Format == "" {
		respondError(w, "Could not detect file format", http.StatusBadRequest)
		return
	}
	if _, err := h.parsers.GetParser(src.Format); err != nil {
		respondError(w, fmt.Sprintf("Unsupported format: %s", src.Format), http.StatusBadRequest)
		return
	}

	result, err := h.converter.ConvertSource(r.Context(), src)
	if err != nil {
		h.logger.WithError(err).WithField("file", header.Filename).Warn("Deck conversion failed")
		status := conversionStatus(err)
		if result != nil {
			respondJSON(w, result, status)
			return
		}
		respondError(w, err.Error(), status)
		return
	}

	respondJSON(w, result, http.StatusCreated)
}

// ListDecks handles GET /api/v1/decks
func (h *DeckHandler) ListDecks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	runs, err := h.runs.ListRuns(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to list runs")
		respondError(w, "Failed to list decks", http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []*types.Run{}
	}

	respondJSON(w, runs, http.StatusOK)
}

// GetDeck handles GET /api/v1/decks/:id
func (h *DeckHandler) GetDeck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	result, ok := h.lookup(w, r)
	if !ok {
		return
	}
	respondJSON(w, result, http.StatusOK)
}

// GetAnalysis handles GET /api/v1/decks/:id/analysis
func (h *DeckHandler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	result, ok := h.lookup(w, r)
	if !ok {
		return
	}

	analysis, err := h.runs.GetAnalysis(r.Context(), result.ID)
	if err != nil {
		respondError(w, "Analysis not found", http.StatusNotFound)
		return
	}
	respondJSON(w, analysis, http.StatusOK)
}

// DownloadDeck handles GET /api/v1/decks/:id/download
func (h *DeckHandler) DownloadDeck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	result, ok := h.lookup(w, r)
	if !ok {
		return
	}

	deck, err := h.runs.OpenDeck(r.Context(), result)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, "Deck not found", http.StatusNotFound)
			return
		}
		h.logger.WithError(err).WithField("run_id", result.ID).Error("Failed to open deck")
		respondError(w, "Failed to open deck", http.StatusInternalServerError)
		return
	}
	defer deck.Close()

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", downloadName(result)))
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, deck); err != nil {
		h.logger.WithError(err).WithField("run_id", result.ID).Warn("Deck download interrupted")
	}
}

// DownloadBundle handles GET /api/v1/decks/:id/bundle
func (h *DeckHandler) DownloadBundle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	result, ok := h.lookup(w, r)
	if !ok {
		return
	}

	zipReader, err := h.bundles.PackageRun(r.Context(), result.ID)
	if err != nil {
		switch {
		case errors.Is(err, packaging.ErrNotCompleted):
			respondError(w, "Deck is not available", http.StatusConflict)
		case errors.Is(err, storage.ErrNotFound):
			respondError(w, "Deck not found", http.StatusNotFound)
		default:
			h.logger.WithError(err).WithField("run_id", result.ID).Error("Failed to package run")
			respondError(w, "Failed to package deck", http.StatusInternalServerError)
		}
		return
	}

	name := strings.TrimSuffix(downloadName(result), ".pdf") + ".zip"
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", name))
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, zipReader); err != nil {
		h.logger.WithError(err).WithField("run_id", result.ID).Warn("Bundle download interrupted")
	}
}

func (h *DeckHandler) lookup(w http.ResponseWriter, r *http.Request) (*types.Run, bool) {
	runID := extractIDFromPath(r.URL.Path, "/api/v1/decks/")
	if runID == "" {
		respondError(w, "Deck ID required", http.StatusBadRequest)
		return nil, false
	}

	result, err := h.runs.GetRun(r.Context(), runID)
	if err != nil {
		respondError(w, "Deck not found", http.StatusNotFound)
		return nil, false
	}
	return result, true
}

// conversionStatus maps a pipeline failure to an HTTP status
func conversionStatus(err error) int {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, types.ErrMalformedAnalysis):
		return http.StatusUnprocessableEntity
	case errors.Is(err, types.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// downloadName keeps only filename-safe characters of the stored deck name
func downloadName(r *types.Run) string {
	name := r.DeckPath
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	name = strings.Map(func(c rune) rune {
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_' || c == '-' || c == '.' {
			return c
		}
		return -1
	}, name)
	if name == "" || name == ".pdf" {
		return fmt.Sprintf("deck-%s.pdf", r.ID)
	}
	return name
}

// Helper functions

func extractIDFromPath(path, prefix string) string {
	if !strings.HasPrefix(path, prefix) {
		return ""
	}
	rest := strings.TrimPrefix(path, prefix)
	parts := strings.Split(rest, "/")
	if len(parts) > 0 {
		return parts[0]
	}
	return ""
}

func respondJSON(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
