package api

import (
	"net/http"
)

// AnalyzerLister lists the registered content analyzers
type AnalyzerLister interface {
	List() []string
}

// InfoResponse describes the running server
type InfoResponse struct {
	Version        string   `json:"version"`
	StorageAdapter string   `json:"storage_adapter"`
	Analyzer       string   `json:"analyzer"`
	Analyzers      []string `json:"analyzers"`
	FigureMatching string   `json:"figure_matching"`
}

// InfoHandler returns basic server information
func InfoHandler(info InfoResponse) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		respondJSON(w, info, http.StatusOK)
	}
}

// ProvidersHandler lists the registered content analyzers
func ProvidersHandler(registry AnalyzerLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		analyzers := registry.List()
		if analyzers == nil {
			analyzers = []string{}
		}
		respondJSON(w, map[string][]string{"analyzers": analyzers}, http.StatusOK)
	}
}
