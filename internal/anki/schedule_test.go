package anki

import (
	"testing"
	"time"

	"github.com/starford/perthro/internal/models"
)

func TestDifficultyFromFactor_Boundaries(t *testing.T) {
	tests := []struct {
		factor int
		want   float64
	}{
		{1000, 10},
		{1300, 10},
		{3000, 0},
		{3500, 0},
		{2500, 2.9},
	}
	for _, tt := range tests {
		if got := DifficultyFromFactor(tt.factor); got != tt.want {
			t.Errorf("DifficultyFromFactor(%d) = %v, want %v", tt.factor, got, tt.want)
		}
	}
}

func TestDifficultyFromFactor_Range(t *testing.T) {
	for factor := 500; factor <= 4000; factor += 50 {
		d := DifficultyFromFactor(factor)
		if d < 0 || d > 10 {
			t.Fatalf("DifficultyFromFactor(%d) = %v, out of [0,10]", factor, d)
		}
	}
}

func TestStabilityFromInterval(t *testing.T) {
	if got := StabilityFromInterval(21); got != 21 {
		t.Errorf("positive interval: got %v, want 21", got)
	}
	// Negative intervals encode learning seconds; stability clamps to 0.
	if got := StabilityFromInterval(-600); got != 0 {
		t.Errorf("negative interval: got %v, want 0", got)
	}
}

func TestTranslateCardState_StatusMapping(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		cardType int
		want     models.Status
	}{
		{CardTypeNew, models.StatusNew},
		{CardTypeLearning, models.StatusLearning},
		{CardTypeReview, models.StatusReview},
		{CardTypeRelearning, models.StatusRelearning},
		{99, models.StatusNew},
	}
	for _, tt := range tests {
		st := TranslateCardState(Card{Type: tt.cardType, Factor: 2500}, time.Time{}, now)
		if st.Status != tt.want {
			t.Errorf("type %d: status = %v, want %v", tt.cardType, st.Status, tt.want)
		}
	}
}

func TestTranslateCardState_ReviewDueWithAnchor(t *testing.T) {
	anchor := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	now := anchor.AddDate(0, 0, 100)

	// Due on collection day 110 → ten days out.
	st := TranslateCardState(Card{Type: CardTypeReview, Due: 110, Interval: 30, Factor: 2500}, anchor, now)
	if st.Due == nil {
		t.Fatal("due is nil")
	}
	if got := *st.Due; !got.Equal(now.AddDate(0, 0, 10)) {
		t.Errorf("due = %v, want %v", got, now.AddDate(0, 0, 10))
	}

	// Overdue (day 40, now day 100) collapses to now.
	st = TranslateCardState(Card{Type: CardTypeReview, Due: 40, Interval: 30, Factor: 2500}, anchor, now)
	if !st.Due.Equal(now) {
		t.Errorf("overdue card: due = %v, want now", *st.Due)
	}
}

func TestTranslateCardState_ReviewDueWithoutAnchor(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	st := TranslateCardState(Card{Type: CardTypeReview, Due: 7, Factor: 2500}, time.Time{}, now)
	if !st.Due.Equal(now.AddDate(0, 0, 7)) {
		t.Errorf("due = %v, want %v", *st.Due, now.AddDate(0, 0, 7))
	}
}

func TestTranslateCardState_LearningDueEpochSeconds(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	dueAt := time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)
	st := TranslateCardState(Card{Type: CardTypeLearning, Due: dueAt.Unix(), Factor: 2500}, time.Time{}, now)
	if !st.Due.Equal(dueAt) {
		t.Errorf("due = %v, want %v", *st.Due, dueAt)
	}
}

func TestTranslateCardState_CopiesCounters(t *testing.T) {
	now := time.Now()
	st := TranslateCardState(Card{Type: CardTypeReview, Interval: 42, Factor: 1300, Reps: 17, Lapses: 3}, time.Time{}, now)
	if st.Stability != 42 || st.Difficulty != 10 || st.Reps != 17 || st.Lapses != 3 {
		t.Errorf("state = %+v", st)
	}
}

func TestTranslateRevlogEntry_UnmappedSkipped(t *testing.T) {
	_, ok := TranslateRevlogEntry(RevlogEntry{CardID: 404}, map[int64]string{1: "itemA"})
	if ok {
		t.Error("unmapped card should be skipped")
	}
}

func TestTranslateRevlogEntry_Record(t *testing.T) {
	ts := time.Date(2024, 3, 15, 8, 0, 0, 0, time.UTC)
	e := RevlogEntry{
		ID:           ts.UnixMilli(),
		CardID:       7,
		Ease:         3,
		Interval:     10,
		LastInterval: 4,
		Factor:       2500,
		TimeMs:       6200,
		Type:         revlogTypeReview,
	}
	rec, ok := TranslateRevlogEntry(e, map[int64]string{7: "itemB"})
	if !ok {
		t.Fatal("expected mapped entry")
	}
	if rec.ItemID != "itemB" || rec.Rating != 3 || rec.ElapsedMs != 6200 {
		t.Errorf("record = %+v", rec)
	}
	if !rec.Timestamp.Equal(ts) {
		t.Errorf("timestamp = %v, want %v", rec.Timestamp, ts)
	}
	if rec.StateBefore != models.StatusReview {
		t.Errorf("stateBefore = %v", rec.StateBefore)
	}
	if rec.StabilityBefore != 4 || rec.DifficultyBefore != 2.9 {
		t.Errorf("snapshot = (%v, %v)", rec.StabilityBefore, rec.DifficultyBefore)
	}
	if got := RevlogMonth(rec); got != "2024-03" {
		t.Errorf("month = %q, want 2024-03", got)
	}
}
