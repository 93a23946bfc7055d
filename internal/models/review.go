// Package models defines the domain types for Perthro.
package models

import "time"

// Status is the scheduling state of a review item.
type Status string

// Scheduling states, matching the FSRS-style lifecycle.
const (
	StatusNew        Status = "new"
	StatusLearning   Status = "learning"
	StatusReview     Status = "review"
	StatusRelearning Status = "relearning"
)

// NoteKind distinguishes plain reading material from cloze-bearing items.
type NoteKind string

const (
	KindTopic NoteKind = "topic"
	KindItem  NoteKind = "item"
)

// ReviewState holds the normalized scheduling parameters of one reviewable
// item (a topic, or a single cloze within an item).
type ReviewState struct {
	Status     Status     `yaml:"status" json:"status"`
	Due        *time.Time `yaml:"due" json:"due"`
	Stability  float64    `yaml:"stability" json:"stability"`
	Difficulty float64    `yaml:"difficulty" json:"difficulty"`
	Reps       int        `yaml:"reps" json:"reps"`
	Lapses     int        `yaml:"lapses" json:"lapses"`
	LastReview *time.Time `yaml:"last_review" json:"last_review"`
}

// NewReviewState returns the state of a never-reviewed item.
func NewReviewState() ReviewState {
	return ReviewState{Status: StatusNew}
}

// ReviewRecord is one historical review event, serialized as a single JSON
// line in the monthly revlog files.
type ReviewRecord struct {
	Timestamp        time.Time `json:"ts"`
	ItemID           string    `json:"itemId"`
	Rating           int       `json:"rating"`
	ElapsedMs        int64     `json:"elapsedMs"`
	StateBefore      Status    `json:"stateBefore"`
	StabilityBefore  float64   `json:"stabilityBefore"`
	DifficultyBefore float64   `json:"difficultyBefore"`
}
