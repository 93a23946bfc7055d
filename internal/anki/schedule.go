package anki

import (
	"math"
	"time"

	"github.com/starford/perthro/internal/models"
)

// Ease-factor bounds used by the source scheduler. 2500 is neutral.
const (
	minFactor = 1300
	maxFactor = 3000
)

// DifficultyFromFactor maps a source ease factor onto the 0–10 difficulty
// scale: 0 at factor 3000 (easiest), 10 at factor 1300 and below, rounded
// to one decimal place. Factor 2500 lands near 2.9.
func DifficultyFromFactor(factor int) float64 {
	clamped := factor
	if clamped < minFactor {
		clamped = minFactor
	}
	if clamped > maxFactor {
		clamped = maxFactor
	}
	d := float64(maxFactor-clamped) / 170.0
	return math.Round(d*10) / 10
}

// StabilityFromInterval maps a source interval (days) onto stability.
// Negative intervals encode a learning-phase duration in seconds and clamp
// to zero.
func StabilityFromInterval(interval int) float64 {
	if interval < 0 {
		return 0
	}
	return float64(interval)
}

// statusFromCardType maps the source card type onto the review status.
// Unrecognized values default to new. Suspended cards never reach this
// point; they are filtered out upstream.
func statusFromCardType(cardType int) models.Status {
	switch cardType {
	case CardTypeLearning:
		return models.StatusLearning
	case CardTypeReview:
		return models.StatusReview
	case CardTypeRelearning:
		return models.StatusRelearning
	case CardTypeNew:
		return models.StatusNew
	default:
		return models.StatusNew
	}
}

// TranslateCardState converts one card's scheduling fields into the
// normalized review state.
//
// Due reconstruction: review cards store a day offset relative to the
// collection-creation anchor. When the reader recovered the anchor it is
// used directly; otherwise the offset is approximated against now.
// Non-positive offsets collapse to now. Learning cards store an epoch-
// seconds timestamp; everything else defaults to now.
func TranslateCardState(c Card, anchor, now time.Time) models.ReviewState {
	status := statusFromCardType(c.Type)
	due := now

	switch status {
	case models.StatusReview:
		if c.Due > 0 {
			elapsedDays := int64(0)
			if !anchor.IsZero() && now.After(anchor) {
				elapsedDays = int64(now.Sub(anchor).Hours() / 24)
			}
			if offset := c.Due - elapsedDays; offset > 0 {
				due = now.AddDate(0, 0, int(offset))
			}
		}
	case models.StatusLearning:
		if c.Due > 0 {
			due = time.Unix(c.Due, 0)
		}
	}

	dueCopy := due
	return models.ReviewState{
		Status:     status,
		Due:        &dueCopy,
		Stability:  StabilityFromInterval(c.Interval),
		Difficulty: DifficultyFromFactor(c.Factor),
		Reps:       c.Reps,
		Lapses:     c.Lapses,
	}
}

// Revlog review-type values.
const (
	revlogTypeLearn   = 0
	revlogTypeReview  = 1
	revlogTypeRelearn = 2
)

// TranslateRevlogEntry converts one historical review row into a review
// record for the target item id. The pre-review snapshot is derived from
// the entry's previous-interval and factor fields using the same formulas
// as card translation. ok is false when the entry's card has no mapped
// target item; such entries are skipped, never fatal.
func TranslateRevlogEntry(e RevlogEntry, itemIDs map[int64]string) (models.ReviewRecord, bool) {
	itemID, mapped := itemIDs[e.CardID]
	if !mapped {
		return models.ReviewRecord{}, false
	}

	var state models.Status
	switch e.Type {
	case revlogTypeLearn:
		state = models.StatusLearning
	case revlogTypeReview:
		state = models.StatusReview
	case revlogTypeRelearn:
		state = models.StatusRelearning
	default:
		state = models.StatusNew
	}

	return models.ReviewRecord{
		Timestamp:        time.UnixMilli(e.ID).UTC(),
		ItemID:           itemID,
		Rating:           e.Ease,
		ElapsedMs:        e.TimeMs,
		StateBefore:      state,
		StabilityBefore:  StabilityFromInterval(e.LastInterval),
		DifficultyBefore: DifficultyFromFactor(e.Factor),
	}, true
}

// RevlogMonth returns the UTC year-month batch key for a record.
func RevlogMonth(r models.ReviewRecord) string {
	return r.Timestamp.UTC().Format("2006-01")
}
