package index

import (
	"os"
	"testing"
	"time"

	"github.com/starford/perthro/internal/models"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "perthro-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func dueAt(t time.Time) *time.Time { return &t }

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM items`).Scan(&count); err != nil {
		t.Fatalf("items table missing: %v", err)
	}
}

func TestUpsertAndGet(t *testing.T) {
	db := testDB(t)
	now := time.Now().UTC().Truncate(time.Second)
	items := []ItemRow{{
		ID:         "topic1",
		NotePath:   "Imported/Biology/100.md",
		Kind:       models.KindTopic,
		Status:     models.StatusReview,
		Due:        dueAt(now),
		Stability:  30,
		Difficulty: 2.9,
		Priority:   50,
		Reps:       12,
		Lapses:     1,
	}}
	if err := db.UpsertItems("IR/Review Items/topic1.md", "abc123", items); err != nil {
		t.Fatalf("UpsertItems: %v", err)
	}

	it, err := db.GetItem("topic1")
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if it == nil {
		t.Fatal("item not found after upsert")
	}
	if it.Status != models.StatusReview {
		t.Errorf("status = %q, want review", it.Status)
	}
	if it.Due == nil || !it.Due.Equal(now) {
		t.Errorf("due = %v, want %v", it.Due, now)
	}
	if it.Stability != 30 || it.Difficulty != 2.9 {
		t.Errorf("state = %v/%v, want 30/2.9", it.Stability, it.Difficulty)
	}
}

func TestUpsertReplacesSidecarItems(t *testing.T) {
	db := testDB(t)
	path := "IR/Review Items/note1.md"
	_ = db.UpsertItems(path, "1", []ItemRow{
		{ID: "c1", Status: models.StatusNew},
		{ID: "c2", Status: models.StatusNew},
	})
	// Second import drops one cloze.
	if err := db.UpsertItems(path, "2", []ItemRow{{ID: "c1", Status: models.StatusReview}}); err != nil {
		t.Fatalf("UpsertItems: %v", err)
	}

	if it, _ := db.GetItem("c2"); it != nil {
		t.Error("removed cloze still indexed")
	}
	it, _ := db.GetItem("c1")
	if it == nil || it.Status != models.StatusReview {
		t.Errorf("kept cloze = %+v, want review status", it)
	}
}

func TestQueueOrdering(t *testing.T) {
	db := testDB(t)
	now := time.Now().UTC()
	early := now.Add(-48 * time.Hour)
	late := now.Add(-1 * time.Hour)
	future := now.Add(24 * time.Hour)

	_ = db.UpsertItems("IR/Review Items/a.md", "1", []ItemRow{
		{ID: "a", Status: models.StatusReview, Due: dueAt(late), Priority: 50},
	})
	_ = db.UpsertItems("IR/Review Items/b.md", "2", []ItemRow{
		{ID: "b", Status: models.StatusReview, Due: dueAt(early), Priority: 50},
	})
	_ = db.UpsertItems("IR/Review Items/c.md", "3", []ItemRow{
		{ID: "c", Status: models.StatusReview, Due: dueAt(future), Priority: 50},
	})
	_ = db.UpsertItems("IR/Review Items/d.md", "4", []ItemRow{
		{ID: "d", Status: models.StatusNew, Priority: 50}, // no due date
	})

	q, err := db.Queue(now, 10)
	if err != nil {
		t.Fatalf("Queue: %v", err)
	}
	if len(q) != 2 {
		t.Fatalf("len(queue) = %d, want 2", len(q))
	}
	if q[0].ID != "b" || q[1].ID != "a" {
		t.Errorf("queue order = [%s %s], want [b a]", q[0].ID, q[1].ID)
	}
}

func TestQueuePriorityTieBreak(t *testing.T) {
	db := testDB(t)
	now := time.Now().UTC()
	due := now.Add(-time.Hour).Truncate(time.Second)

	_ = db.UpsertItems("IR/Review Items/lo.md", "1", []ItemRow{
		{ID: "lo", Status: models.StatusReview, Due: dueAt(due), Priority: 20},
	})
	_ = db.UpsertItems("IR/Review Items/hi.md", "2", []ItemRow{
		{ID: "hi", Status: models.StatusReview, Due: dueAt(due), Priority: 80},
	})

	q, err := db.Queue(now, 10)
	if err != nil {
		t.Fatalf("Queue: %v", err)
	}
	if len(q) != 2 || q[0].ID != "hi" {
		t.Errorf("queue = %+v, want hi first", q)
	}
}

func TestSummary(t *testing.T) {
	db := testDB(t)
	now := time.Now().UTC()
	past := now.Add(-time.Hour)

	_ = db.UpsertItems("IR/Review Items/a.md", "1", []ItemRow{
		{ID: "a", Status: models.StatusReview, Due: dueAt(past)},
		{ID: "b", Status: models.StatusNew},
	})
	_ = db.UpsertItems("IR/Review Items/c.md", "2", []ItemRow{
		{ID: "c", Status: models.StatusLearning, Due: dueAt(now.Add(time.Hour))},
	})

	c, err := db.Summary(now)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if c.Total != 3 {
		t.Errorf("total = %d, want 3", c.Total)
	}
	if c.Review != 1 || c.New != 1 || c.Learning != 1 {
		t.Errorf("counts = %+v", c)
	}
	if c.DueNow != 1 {
		t.Errorf("dueNow = %d, want 1", c.DueNow)
	}
}

func TestDeleteByPath(t *testing.T) {
	db := testDB(t)
	path := "IR/Review Items/gone.md"
	_ = db.UpsertItems(path, "1", []ItemRow{{ID: "x", Status: models.StatusNew}})

	if err := db.DeleteByPath(path); err != nil {
		t.Fatalf("DeleteByPath: %v", err)
	}
	if it, _ := db.GetItem("x"); it != nil {
		t.Error("item survived sidecar delete")
	}
	checksums, _ := db.AllChecksums()
	if len(checksums) != 0 {
		t.Errorf("checksums = %v, want empty", checksums)
	}
}

func TestGetItem_NotFound(t *testing.T) {
	db := testDB(t)
	it, err := db.GetItem("nonexistent")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if it != nil {
		t.Errorf("item = %+v, want nil", it)
	}
}
