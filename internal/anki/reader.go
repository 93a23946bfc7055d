// Package anki implements the import pipeline that converts an Anki
// collection (SQLite database + media directory) into Perthro's vault
// layout: markdown notes, scheduling sidecars, and revlog batches.
package anki

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/starford/perthro/internal/apperr"
	"github.com/starford/perthro/internal/models"
)

// fieldSeparator joins field values inside the notes.flds column and deck
// name segments in the modern decks table.
const fieldSeparator = "\x1f"

// Model is one note-type: ordered field names plus ordered templates.
type Model struct {
	ID        int64
	Name      string
	Fields    []string
	Templates []Template
}

// Template holds one question/answer template pair.
type Template struct {
	Name     string
	Question string
	Answer   string
}

// Deck is one deck row with its `::`-separated hierarchical name.
type Deck struct {
	ID   int64
	Name string
}

// Note is one source note row with its fields already split.
type Note struct {
	ID      int64
	ModelID int64
	Fields  []string
	Tags    []string
	Mod     int64
}

// Card is one source card row. Due semantics depend on the queue state:
// day-offset for review cards, epoch seconds for learning cards.
type Card struct {
	ID       int64
	NoteID   int64
	DeckID   int64
	Ord      int
	Type     int
	Queue    int
	Due      int64
	Interval int
	Factor   int
	Reps     int
	Lapses   int
}

// Source card type values.
const (
	CardTypeNew        = 0
	CardTypeLearning   = 1
	CardTypeReview     = 2
	CardTypeRelearning = 3
)

// QueueSuspended marks a card the user has taken out of rotation.
const QueueSuspended = -1

// RevlogEntry is one historical review event. The row id is the review
// timestamp in epoch milliseconds.
type RevlogEntry struct {
	ID           int64
	CardID       int64
	Ease         int
	Interval     int
	LastInterval int
	Factor       int
	TimeMs       int64
	Type         int
}

// SourceData is everything one import run reads from the collection.
// The database handle is released before Read returns.
type SourceData struct {
	Models    map[int64]*Model
	Decks     map[int64]Deck
	Notes     []Note
	Cards     []Card
	Revlog    []RevlogEntry
	CreatedAt time.Time // collection-creation anchor; zero when unavailable
	RowErrors []models.ImportError
}

// Read opens the collection read-only and extracts all rows needed for an
// import. It refuses to read while the owning application may be writing:
// a non-empty -wal sidecar means the database is live.
func Read(dbPath string, includeHistory bool) (*SourceData, error) {
	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("anki: collection %s: %w", dbPath, apperr.ErrNotFound)
	}
	if info, err := os.Stat(dbPath + "-wal"); err == nil && info.Size() > 0 {
		return nil, fmt.Errorf("anki: %s: %w", dbPath, apperr.ErrSourceBusy)
	}

	conn, err := sql.Open("sqlite3", "file:"+dbPath+"?mode=ro&_busy_timeout=250")
	if err != nil {
		return nil, fmt.Errorf("anki: open collection: %w", err)
	}
	defer conn.Close()
	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("anki: open collection: %w", err)
	}

	src := &SourceData{
		Models: make(map[int64]*Model),
		Decks:  make(map[int64]Deck),
	}

	// Anchor for due-date reconstruction. Both schema generations carry it.
	var crt int64
	if err := conn.QueryRow(`SELECT crt FROM col LIMIT 1`).Scan(&crt); err == nil && crt > 0 {
		src.CreatedAt = time.Unix(crt, 0)
	}

	if hasTable(conn, "notetypes") {
		if err := readModernSchema(conn, src); err != nil {
			return nil, err
		}
	} else {
		if err := readLegacySchema(conn, src); err != nil {
			return nil, err
		}
	}

	if err := readNotes(conn, src); err != nil {
		return nil, err
	}
	if err := readCards(conn, src); err != nil {
		return nil, err
	}
	if includeHistory {
		if err := readRevlog(conn, src); err != nil {
			return nil, err
		}
	}

	return src, nil
}

func hasTable(conn *sql.DB, name string) bool {
	var n int
	err := conn.QueryRow(`SELECT count(*) FROM sqlite_master WHERE type='table' AND name=?`, name).Scan(&n)
	return err == nil && n > 0
}

// readModernSchema loads note-types, fields, templates, and decks from the
// split tables introduced by schema 18.
func readModernSchema(conn *sql.DB, src *SourceData) error {
	rows, err := conn.Query(`SELECT id, name FROM notetypes`)
	if err != nil {
		return fmt.Errorf("anki: read notetypes: %w", err)
	}
	for rows.Next() {
		var m Model
		if err := rows.Scan(&m.ID, &m.Name); err != nil {
			src.rowError("model", "", err)
			continue
		}
		src.Models[m.ID] = &m
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("anki: read notetypes: %w", err)
	}

	rows, err = conn.Query(`SELECT ntid, ord, name FROM fields ORDER BY ntid, ord`)
	if err != nil {
		return fmt.Errorf("anki: read fields: %w", err)
	}
	for rows.Next() {
		var ntid int64
		var ord int
		var name string
		if err := rows.Scan(&ntid, &ord, &name); err != nil {
			src.rowError("field", "", err)
			continue
		}
		if m, ok := src.Models[ntid]; ok {
			m.Fields = append(m.Fields, name)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("anki: read fields: %w", err)
	}

	rows, err = conn.Query(`SELECT ntid, ord, name, config FROM templates ORDER BY ntid, ord`)
	if err != nil {
		return fmt.Errorf("anki: read templates: %w", err)
	}
	for rows.Next() {
		var ntid int64
		var ord int
		var name string
		var config []byte
		if err := rows.Scan(&ntid, &ord, &name, &config); err != nil {
			src.rowError("template", "", err)
			continue
		}
		q, a := DecodeTemplateConfig(config)
		if m, ok := src.Models[ntid]; ok {
			m.Templates = append(m.Templates, Template{Name: name, Question: q, Answer: a})
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("anki: read templates: %w", err)
	}

	rows, err = conn.Query(`SELECT id, name FROM decks`)
	if err != nil {
		return fmt.Errorf("anki: read decks: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var d Deck
		if err := rows.Scan(&d.ID, &d.Name); err != nil {
			src.rowError("deck", "", err)
			continue
		}
		// Modern deck names separate levels with the unit-separator byte.
		d.Name = strings.ReplaceAll(d.Name, fieldSeparator, "::")
		src.Decks[d.ID] = d
	}
	return rows.Err()
}

// Legacy (schema 11) collections keep note-types and decks as JSON blobs in
// the col table.
type legacyModel struct {
	Name string `json:"name"`
	Flds []struct {
		Name string `json:"name"`
		Ord  int    `json:"ord"`
	} `json:"flds"`
	Tmpls []struct {
		Name string `json:"name"`
		Qfmt string `json:"qfmt"`
		Afmt string `json:"afmt"`
		Ord  int    `json:"ord"`
	} `json:"tmpls"`
}

type legacyDeck struct {
	Name string `json:"name"`
}

func readLegacySchema(conn *sql.DB, src *SourceData) error {
	var modelsJSON, decksJSON string
	if err := conn.QueryRow(`SELECT models, decks FROM col LIMIT 1`).Scan(&modelsJSON, &decksJSON); err != nil {
		return fmt.Errorf("anki: read col: %w", err)
	}

	var rawModels map[string]legacyModel
	if err := json.Unmarshal([]byte(modelsJSON), &rawModels); err != nil {
		return fmt.Errorf("anki: parse legacy models: %w", err)
	}
	for idStr, lm := range rawModels {
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			src.rowError("model", idStr, err)
			continue
		}
		m := &Model{ID: id, Name: lm.Name}
		sort.Slice(lm.Flds, func(i, j int) bool { return lm.Flds[i].Ord < lm.Flds[j].Ord })
		for _, f := range lm.Flds {
			m.Fields = append(m.Fields, f.Name)
		}
		sort.Slice(lm.Tmpls, func(i, j int) bool { return lm.Tmpls[i].Ord < lm.Tmpls[j].Ord })
		for _, t := range lm.Tmpls {
			m.Templates = append(m.Templates, Template{Name: t.Name, Question: t.Qfmt, Answer: t.Afmt})
		}
		src.Models[id] = m
	}

	var rawDecks map[string]legacyDeck
	if err := json.Unmarshal([]byte(decksJSON), &rawDecks); err != nil {
		return fmt.Errorf("anki: parse legacy decks: %w", err)
	}
	for idStr, ld := range rawDecks {
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			src.rowError("deck", idStr, err)
			continue
		}
		src.Decks[id] = Deck{ID: id, Name: ld.Name}
	}
	return nil
}

func readNotes(conn *sql.DB, src *SourceData) error {
	rows, err := conn.Query(`SELECT id, mid, flds, tags, mod FROM notes`)
	if err != nil {
		return fmt.Errorf("anki: read notes: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var n Note
		var flds, tags string
		if err := rows.Scan(&n.ID, &n.ModelID, &flds, &tags, &n.Mod); err != nil {
			src.rowError("note", "", err)
			continue
		}
		n.Fields = strings.Split(flds, fieldSeparator)
		n.Tags = strings.Fields(tags)
		src.Notes = append(src.Notes, n)
	}
	return rows.Err()
}

func readCards(conn *sql.DB, src *SourceData) error {
	rows, err := conn.Query(`SELECT id, nid, did, ord, type, queue, due, ivl, factor, reps, lapses FROM cards`)
	if err != nil {
		return fmt.Errorf("anki: read cards: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var c Card
		if err := rows.Scan(&c.ID, &c.NoteID, &c.DeckID, &c.Ord, &c.Type, &c.Queue,
			&c.Due, &c.Interval, &c.Factor, &c.Reps, &c.Lapses); err != nil {
			src.rowError("card", "", err)
			continue
		}
		src.Cards = append(src.Cards, c)
	}
	return rows.Err()
}

func readRevlog(conn *sql.DB, src *SourceData) error {
	rows, err := conn.Query(`SELECT id, cid, ease, ivl, lastIvl, factor, time, type FROM revlog`)
	if err != nil {
		return fmt.Errorf("anki: read revlog: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var e RevlogEntry
		if err := rows.Scan(&e.ID, &e.CardID, &e.Ease, &e.Interval, &e.LastInterval,
			&e.Factor, &e.TimeMs, &e.Type); err != nil {
			src.rowError("revlog", "", err)
			continue
		}
		src.Revlog = append(src.Revlog, e)
	}
	return rows.Err()
}

func (s *SourceData) rowError(kind, id string, err error) {
	s.RowErrors = append(s.RowErrors, models.ImportError{
		Kind:    kind,
		ID:      id,
		Message: err.Error(),
	})
}
