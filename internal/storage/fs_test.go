package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestFS(t *testing.T) (string, *FS) {
	t.Helper()
	root := t.TempDir()
	f, err := NewFS(root)
	if err != nil {
		t.Fatal(err)
	}
	return root, f
}

func TestNewFS_MissingRoot(t *testing.T) {
	if _, err := NewFS(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("expected error for missing root")
	}
}

func TestWriteRead_RoundTrip(t *testing.T) {
	_, f := newTestFS(t)
	content := []byte("---\nir_note_id: abc\n---\nbody\n")
	if err := f.Write("Imported/Deck/1001.md", content); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := f.Read("Imported/Deck/1001.md")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content = %q, want %q", got, content)
	}
}

func TestWrite_Overwrites(t *testing.T) {
	_, f := newTestFS(t)
	if err := f.Write("a.md", []byte("first")); err != nil {
		t.Fatal(err)
	}
	if err := f.Write("a.md", []byte("second")); err != nil {
		t.Fatal(err)
	}
	got, _ := f.Read("a.md")
	if string(got) != "second" {
		t.Errorf("content = %q, want %q", got, "second")
	}
}

func TestAppend_NeverTruncates(t *testing.T) {
	_, f := newTestFS(t)
	if err := f.Append("IR/Revlog/2024-01.md", []byte("{\"ts\":1}\n")); err != nil {
		t.Fatalf("first append: %v", err)
	}
	if err := f.Append("IR/Revlog/2024-01.md", []byte("{\"ts\":2}\n")); err != nil {
		t.Fatalf("second append: %v", err)
	}
	got, err := f.Read("IR/Revlog/2024-01.md")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "{\"ts\":1}\n{\"ts\":2}\n" {
		t.Errorf("content = %q", got)
	}
}

func TestSafePath_RejectsTraversal(t *testing.T) {
	_, f := newTestFS(t)
	if _, err := f.Read("../outside.md"); err == nil {
		t.Error("expected traversal to be rejected")
	}
	if err := f.Write("/abs/path.md", []byte("x")); err == nil {
		t.Error("expected absolute path to be rejected")
	}
}

func TestList_OnlyMarkdown(t *testing.T) {
	root, f := newTestFS(t)
	if err := f.Write("IR/Review Items/a.md", []byte("a")); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "IR", "Review Items", "skip.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	metas, err := f.List("IR/Review Items")
	if err != nil {
		t.Fatal(err)
	}
	if len(metas) != 1 {
		t.Fatalf("len(metas) = %d, want 1", len(metas))
	}
	if !strings.HasSuffix(metas[0].Path, "a.md") {
		t.Errorf("path = %q", metas[0].Path)
	}
	if metas[0].Checksum == "" {
		t.Error("checksum should be populated")
	}
}

func TestList_MissingDirIsEmpty(t *testing.T) {
	_, f := newTestFS(t)
	metas, err := f.List("IR/Review Items")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(metas) != 0 {
		t.Errorf("len(metas) = %d, want 0", len(metas))
	}
}
