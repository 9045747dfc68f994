package types

import "time"

// Run statuses
const (
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// Run records one conversion of a paper into a deck
type Run struct {
	ID                   string    `json:"id"`
	Input                string    `json:"input"`
	Title                string    `json:"title"`
	Status               string    `json:"status"`
	Error                string    `json:"error,omitempty"`
	DeckPath             string    `json:"deck_path,omitempty"` // storage key of the deck
	SlideCount           int       `json:"slide_count"`
	FigureCount          int       `json:"figure_count"`
	UnresolvedReferences []string  `json:"unresolved_references,omitempty"`
	Placeholders         int       `json:"placeholders"`
	CreatedAt            time.Time `json:"created_at"`
	CompletedAt          time.Time `json:"completed_at,omitempty"`
}
