package api

import (
	"time"

	"github.com/starford/perthro/internal/models"
)

// QueueItem is one entry of the review queue response.
type QueueItem struct {
	ID         string     `json:"id" example:"aB3xK9mQr2Zp" validate:"required"`
	NotePath   string     `json:"notePath" example:"Imported/Biology/1700000000001.md" validate:"required"`
	Kind       string     `json:"kind" example:"item" validate:"required"`
	Status     string     `json:"status" example:"review" validate:"required"`
	Due        *time.Time `json:"due"`
	Stability  float64    `json:"stability" example:"30"`
	Difficulty float64    `json:"difficulty" example:"2.9"`
	Priority   float64    `json:"priority" example:"50"`
	Reps       int        `json:"reps" example:"12"`
	Lapses     int        `json:"lapses" example:"1"`
}

// QueueResponse wraps the due-ordered review queue.
type QueueResponse struct {
	Items []QueueItem `json:"items" validate:"required"`
}

// ItemDetail is a queue item enriched with its note content. Cloze items
// additionally carry the rendered question and answer of their cloze.
type ItemDetail struct {
	QueueItem
	Content  string `json:"content"`
	Question string `json:"question,omitempty"`
	Answer   string `json:"answer,omitempty"`
}

// ImportRequest is the request body for triggering a collection import.
type ImportRequest struct {
	CollectionPath   string  `json:"collectionPath" example:"/data/collection.anki2" validate:"required"`
	ProfileDir       string  `json:"profileDir" example:"/data/User 1"`
	ImportFolder     string  `json:"importFolder" example:"Imported"`
	DeckFilter       string  `json:"deckFilter" example:"Japanese::*"`
	IncludeSuspended bool    `json:"includeSuspended"`
	IncludeHistory   bool    `json:"includeHistory"`
	Priority         float64 `json:"priority" example:"50"`
}

// ImportResponse reports what an import run did.
type ImportResponse struct {
	NotesImported   int                 `json:"notesImported" validate:"required"`
	MediaCopied     int                 `json:"mediaCopied" validate:"required"`
	ReviewsImported int                 `json:"reviewsImported" validate:"required"`
	SkippedReviews  int                 `json:"skippedReviews" validate:"required"`
	MissingMedia    []string            `json:"missingMedia" validate:"required"`
	Errors          []ImportErrorDetail `json:"errors" validate:"required"`
}

// ImportErrorDetail is one per-entity import failure.
type ImportErrorDetail struct {
	Kind    string `json:"kind" example:"media"`
	ID      string `json:"id" example:"photo.jpg"`
	Message string `json:"message"`
}

func importResponse(s *models.ImportSummary) ImportResponse {
	resp := ImportResponse{
		NotesImported:   s.NotesImported,
		MediaCopied:     s.MediaCopied,
		ReviewsImported: s.ReviewsImported,
		SkippedReviews:  s.SkippedReviews,
		MissingMedia:    s.MissingMedia,
		Errors:          []ImportErrorDetail{},
	}
	if resp.MissingMedia == nil {
		resp.MissingMedia = []string{}
	}
	for _, e := range s.Errors {
		resp.Errors = append(resp.Errors, ImportErrorDetail{Kind: e.Kind, ID: e.ID, Message: e.Message})
	}
	return resp
}
