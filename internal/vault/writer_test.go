package vault

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/starford/perthro/internal/apperr"
	"github.com/starford/perthro/internal/models"
	"github.com/starford/perthro/internal/storage"
)

func newWriter(t *testing.T) (*Writer, storage.Provider) {
	t.Helper()
	store, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return NewWriter(store, "Imported"), store
}

func topicNote() *models.ImportedNote {
	return &models.ImportedNote{
		ID:        "noteIdent001",
		SourceID:  1700000000001,
		DeckPath:  "Japanese/Vocab",
		Filename:  "1700000000001",
		Content:   "front text\n\nback text",
		Kind:      models.KindTopic,
		Tags:      []string{"vocab"},
		Priority:  50,
		CreatedAt: time.Date(2023, 11, 14, 0, 0, 0, 0, time.UTC),
		Cards:     []models.ImportedCard{{State: models.NewReviewState()}},
	}
}

func TestWriteNote_LayoutAndFrontmatter(t *testing.T) {
	w, store := newWriter(t)
	n := topicNote()
	if err := w.WriteNote(n, nil); err != nil {
		t.Fatal(err)
	}
	data, err := store.Read("Imported/Japanese/Vocab/1700000000001.md")
	if err != nil {
		t.Fatalf("note not at expected path: %v", err)
	}
	text := string(data)
	for _, want := range []string{"ir_note_id: noteIdent001", "type: topic", "- vocab", "front text"} {
		if !strings.Contains(text, want) {
			t.Errorf("note missing %q:\n%s", want, text)
		}
	}
	if !strings.HasPrefix(text, "---\n") {
		t.Error("frontmatter must open the file")
	}
}

func TestWriteNote_RerunReplacesEarlierImport(t *testing.T) {
	w, store := newWriter(t)
	n := topicNote()
	if err := w.WriteNote(n, nil); err != nil {
		t.Fatal(err)
	}

	n.Content = "updated text"
	if err := w.WriteNote(n, nil); err != nil {
		t.Fatalf("rerun over an imported note should overwrite: %v", err)
	}
	data, err := store.Read(w.NotePath(n))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "updated text") {
		t.Errorf("note not replaced:\n%s", data)
	}
}

func TestWriteNote_RefusesForeignFile(t *testing.T) {
	w, store := newWriter(t)
	n := topicNote()
	// A hand-written note without import provenance occupies the path.
	if err := store.Write(w.NotePath(n), []byte("# my own note\n")); err != nil {
		t.Fatal(err)
	}
	err := w.WriteNote(n, nil)
	if !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Fatalf("write over a foreign file err = %v, want ErrAlreadyExists", err)
	}
}

func TestWriteNote_MediaRewrite(t *testing.T) {
	w, store := newWriter(t)
	n := topicNote()
	n.Content = "see ![](photo.jpg) here"
	n.MediaRefs = []string{"photo.jpg"}
	if err := w.WriteNote(n, map[string]string{"photo.jpg": "attachments/photo.jpg"}); err != nil {
		t.Fatal(err)
	}
	data, _ := store.Read(w.NotePath(n))
	if !strings.Contains(string(data), "![](attachments/photo.jpg)") {
		t.Errorf("media path not rewritten:\n%s", data)
	}
}

func TestWriteSidecar_TopicRoundTrip(t *testing.T) {
	w, store := newWriter(t)
	n := topicNote()
	due := time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC)
	n.Cards[0].State = models.ReviewState{
		Status:     models.StatusReview,
		Due:        &due,
		Stability:  12,
		Difficulty: 2.9,
		Reps:       4,
		Lapses:     1,
	}
	if err := w.WriteSidecar(n); err != nil {
		t.Fatal(err)
	}

	data, err := store.Read("IR/Review Items/noteIdent001.md")
	if err != nil {
		t.Fatalf("sidecar not written: %v", err)
	}
	sc, err := ParseSidecar(data)
	if err != nil {
		t.Fatal(err)
	}
	if sc.IRNoteID != "noteIdent001" || sc.NotePath != "Imported/Japanese/Vocab/1700000000001.md" {
		t.Errorf("sidecar = %+v", sc)
	}
	if sc.Topic == nil {
		t.Fatal("topic block missing")
	}
	if sc.Topic.Status != models.StatusReview || sc.Topic.Stability != 12 || sc.Topic.Reps != 4 {
		t.Errorf("topic state = %+v", sc.Topic)
	}
	if sc.Topic.Due == nil || !sc.Topic.Due.Equal(due) {
		t.Errorf("due = %v, want %v", sc.Topic.Due, due)
	}
	if sc.Topic.LastReview != nil {
		t.Errorf("last_review should stay null, got %v", sc.Topic.LastReview)
	}
}

func TestWriteSidecar_ClozeMap(t *testing.T) {
	w, store := newWriter(t)
	n := topicNote()
	n.Kind = models.KindItem
	n.Cards = []models.ImportedCard{
		{ClozeIndex: 1, ClozeID: "clozeIdent01", State: models.NewReviewState()},
		{ClozeIndex: 2, ClozeID: "clozeIdent02", State: models.NewReviewState()},
	}
	if err := w.WriteSidecar(n); err != nil {
		t.Fatal(err)
	}
	data, _ := store.Read(SidecarPath(n.ID))
	sc, err := ParseSidecar(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(sc.Clozes) != 2 {
		t.Fatalf("clozes = %v", sc.Clozes)
	}
	if sc.Clozes["c1"].ID != "clozeIdent01" || sc.Clozes["c2"].ID != "clozeIdent02" {
		t.Errorf("cloze ids = %+v", sc.Clozes)
	}
	if sc.Topic != nil {
		t.Error("item sidecar must not carry a topic block")
	}
}

func TestAppendRevlog_MonthlyBatches(t *testing.T) {
	w, store := newWriter(t)
	rec := models.ReviewRecord{
		Timestamp:        time.Date(2024, 3, 15, 8, 0, 0, 0, time.UTC),
		ItemID:           "noteIdent001",
		Rating:           3,
		ElapsedMs:        4200,
		StateBefore:      models.StatusReview,
		StabilityBefore:  4,
		DifficultyBefore: 2.9,
	}
	batch := map[string][]models.ReviewRecord{"2024-03": {rec}}
	if err := w.AppendRevlog(batch); err != nil {
		t.Fatal(err)
	}
	if err := w.AppendRevlog(batch); err != nil {
		t.Fatal(err)
	}
	data, err := store.Read("IR/Revlog/2024-03.md")
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want 2 (append, not truncate)", len(lines))
	}
	if !strings.Contains(lines[0], `"itemId":"noteIdent001"`) || !strings.Contains(lines[0], `"rating":3`) {
		t.Errorf("line = %s", lines[0])
	}
}

func TestBuildDeckTree(t *testing.T) {
	tree := BuildDeckTree([]string{"A::B", "A::C", "D"})
	if len(tree) != 2 {
		t.Fatalf("roots = %v", tree)
	}
	if _, ok := tree["A"]["B"]; !ok {
		t.Error("missing A::B")
	}
	if _, ok := tree["A"]["C"]; !ok {
		t.Error("missing A::C")
	}
	if _, ok := tree["D"]; !ok {
		t.Error("missing D")
	}
}

func TestSplitFrontmatter_NoBlock(t *testing.T) {
	block, body := SplitFrontmatter([]byte("plain body\n"))
	if block != nil || body != "plain body\n" {
		t.Errorf("got (%q, %q)", block, body)
	}
}
