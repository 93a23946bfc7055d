package vault

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/starford/perthro/internal/apperr"
	"github.com/starford/perthro/internal/models"
	"github.com/starford/perthro/internal/storage"
)

// Fixed vault locations for scheduling data.
const (
	SidecarDir   = "IR/Review Items"
	RevlogDir    = "IR/Revlog"
	DeckTreePath = "IR/decks.yaml"
)

// Writer serializes imported entities into the vault. Each write is
// self-contained; notes only replace earlier imports, revlog writes append.
type Writer struct {
	store        storage.Provider
	importFolder string
}

// NewWriter creates a Writer placing notes under importFolder.
func NewWriter(store storage.Provider, importFolder string) *Writer {
	return &Writer{store: store, importFolder: importFolder}
}

// NotePath returns the vault-relative path of an imported note.
func (w *Writer) NotePath(n *models.ImportedNote) string {
	return path.Join(w.importFolder, n.DeckPath, n.Filename+".md")
}

// WriteNote writes one note file: frontmatter plus converted body, with
// media references rewritten from their original names to the relocated
// vault paths. An existing note written by an earlier import (carrying
// ir_note_id provenance) is overwritten so interrupted runs can be
// retried; any other file at the note's path raises ErrAlreadyExists.
func (w *Writer) WriteNote(n *models.ImportedNote, mediaPaths map[string]string) error {
	if existing, err := w.store.Read(w.NotePath(n)); err == nil {
		block, _ := SplitFrontmatter(existing)
		var prev NoteFrontmatter
		if block == nil || yaml.Unmarshal(block, &prev) != nil || prev.IRNoteID == "" {
			return fmt.Errorf("vault: note %s: %w", w.NotePath(n), apperr.ErrAlreadyExists)
		}
	}
	fm := NoteFrontmatter{
		IRNoteID: n.ID,
		Tags:     n.Tags,
		Type:     n.Kind,
		Priority: n.Priority,
		Created:  n.CreatedAt.UTC().Format(time.RFC3339),
	}
	for _, c := range n.Cards {
		if c.ClozeIndex > 0 {
			fm.Cloze = append(fm.Cloze, c.ClozeIndex)
		}
	}

	head, err := EncodeFrontmatter(fm)
	if err != nil {
		return err
	}

	body := n.Content
	for _, orig := range n.MediaRefs {
		if final, ok := mediaPaths[orig]; ok && final != orig {
			body = strings.ReplaceAll(body, "]("+orig+")", "]("+final+")")
		}
	}

	var buf bytes.Buffer
	buf.Write(head)
	buf.WriteString(body)
	buf.WriteString("\n")
	return w.store.Write(w.NotePath(n), buf.Bytes())
}

// WriteSidecar writes the scheduling sidecar of one imported note: a
// single topic block, or a clozes map keyed c<N> for cloze-bearing items.
func (w *Writer) WriteSidecar(n *models.ImportedNote) error {
	sc := Sidecar{
		IRNoteID: n.ID,
		NotePath: w.NotePath(n),
		Type:     n.Kind,
		Priority: n.Priority,
	}
	if n.Kind == models.KindItem {
		sc.Clozes = make(map[string]ClozeState, len(n.Cards))
		for _, c := range n.Cards {
			sc.Clozes["c"+strconv.Itoa(c.ClozeIndex)] = ClozeState{ID: c.ClozeID, ReviewState: c.State}
		}
	} else {
		state := models.NewReviewState()
		if len(n.Cards) > 0 {
			state = n.Cards[0].State
		}
		sc.Topic = &state
	}

	data, err := EncodeFrontmatter(sc)
	if err != nil {
		return err
	}
	return w.store.Write(SidecarPath(n.ID), data)
}

// SidecarPath returns the vault-relative sidecar path for an item id.
func SidecarPath(itemID string) string {
	return path.Join(SidecarDir, itemID+".md")
}

// AppendRevlog appends records as JSON lines to their monthly batch files.
// Existing history is never truncated.
func (w *Writer) AppendRevlog(byMonth map[string][]models.ReviewRecord) error {
	months := make([]string, 0, len(byMonth))
	for m := range byMonth {
		months = append(months, m)
	}
	sort.Strings(months)

	for _, month := range months {
		var buf bytes.Buffer
		for _, rec := range byMonth[month] {
			line, err := json.Marshal(rec)
			if err != nil {
				return fmt.Errorf("vault: marshal revlog record: %w", err)
			}
			buf.Write(line)
			buf.WriteByte('\n')
		}
		if err := w.store.Append(path.Join(RevlogDir, month+".md"), buf.Bytes()); err != nil {
			return err
		}
	}
	return nil
}

// DeckTree is a nested deck hierarchy keyed by segment name.
type DeckTree map[string]DeckTree

// BuildDeckTree folds `::`-separated deck names into a nested tree.
func BuildDeckTree(deckNames []string) DeckTree {
	root := DeckTree{}
	for _, name := range deckNames {
		node := root
		for _, seg := range strings.Split(name, "::") {
			child, ok := node[seg]
			if !ok {
				child = DeckTree{}
				node[seg] = child
			}
			node = child
		}
	}
	return root
}

// WriteDeckTree serializes the deck hierarchy into a single YAML file.
func (w *Writer) WriteDeckTree(tree DeckTree) error {
	data, err := yaml.Marshal(tree)
	if err != nil {
		return fmt.Errorf("vault: marshal deck tree: %w", err)
	}
	return w.store.Write(DeckTreePath, data)
}
