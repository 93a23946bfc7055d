package models

import "time"

// ImportedNote is one note produced by an import run, ready to be written
// into the vault.
type ImportedNote struct {
	ID        string // generated 12-char item identifier
	SourceID  int64  // note id in the source collection
	DeckPath  string // sanitized, slash-separated
	Filename  string // sanitized file name without extension
	Content   string // converted body, without frontmatter
	Kind      NoteKind
	Tags      []string
	Priority  float64
	CreatedAt time.Time
	Cards     []ImportedCard
	MediaRefs []string // original media file names referenced by Content
}

// ImportedCard is one reviewable instance of an imported note. Topic notes
// carry exactly one card without a cloze index; item notes carry one card
// per cloze index.
type ImportedCard struct {
	ClozeIndex int    // 1-based; 0 for topic cards
	ClozeID    string // generated per-cloze identifier; empty for topic cards
	State      ReviewState
}

// ImportError records a per-entity failure that did not abort the run.
type ImportError struct {
	Kind    string // "note", "card", "deck", "media", "revlog", "sidecar"
	ID      string
	Message string
}

// ImportSummary is the final result of one import run.
type ImportSummary struct {
	NotesImported   int
	MediaCopied     int
	ReviewsImported int
	SkippedReviews  int
	MissingMedia    []string
	Errors          []ImportError
}
