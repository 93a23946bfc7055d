package anki

import (
	"database/sql"
	"encoding/json"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

// collectionFixture describes a synthetic source collection. The same
// fixture can be written in either schema generation.
type collectionFixture struct {
	Crt    int64
	Models []Model
	Decks  []Deck
	Notes  []Note
	Cards  []Card
	Revlog []RevlogEntry
	Legacy bool
}

// writeCollection materializes the fixture as a SQLite file and returns its
// path.
func writeCollection(t *testing.T, fx collectionFixture) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "collection.anki2")
	conn, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	exec := func(q string, args ...any) {
		t.Helper()
		if _, err := conn.Exec(q, args...); err != nil {
			t.Fatalf("exec %q: %v", q, err)
		}
	}

	exec(`CREATE TABLE col (id INTEGER PRIMARY KEY, crt INTEGER, models TEXT, decks TEXT)`)
	exec(`CREATE TABLE notes (id INTEGER PRIMARY KEY, mid INTEGER, flds TEXT, tags TEXT, mod INTEGER)`)
	exec(`CREATE TABLE cards (id INTEGER PRIMARY KEY, nid INTEGER, did INTEGER, ord INTEGER,
		type INTEGER, queue INTEGER, due INTEGER, ivl INTEGER, factor INTEGER, reps INTEGER, lapses INTEGER)`)
	exec(`CREATE TABLE revlog (id INTEGER PRIMARY KEY, cid INTEGER, ease INTEGER, ivl INTEGER,
		lastIvl INTEGER, factor INTEGER, time INTEGER, type INTEGER)`)

	if fx.Legacy {
		exec(`INSERT INTO col (id, crt, models, decks) VALUES (1, ?, ?, ?)`,
			fx.Crt, legacyModelsJSON(t, fx.Models), legacyDecksJSON(t, fx.Decks))
	} else {
		exec(`INSERT INTO col (id, crt, models, decks) VALUES (1, ?, '{}', '{}')`, fx.Crt)
		exec(`CREATE TABLE notetypes (id INTEGER PRIMARY KEY, name TEXT)`)
		exec(`CREATE TABLE fields (ntid INTEGER, ord INTEGER, name TEXT)`)
		exec(`CREATE TABLE templates (ntid INTEGER, ord INTEGER, name TEXT, config BLOB)`)
		exec(`CREATE TABLE decks (id INTEGER PRIMARY KEY, name TEXT)`)
		for _, m := range fx.Models {
			exec(`INSERT INTO notetypes (id, name) VALUES (?, ?)`, m.ID, m.Name)
			for ord, f := range m.Fields {
				exec(`INSERT INTO fields (ntid, ord, name) VALUES (?, ?, ?)`, m.ID, ord, f)
			}
			for ord, tmpl := range m.Templates {
				exec(`INSERT INTO templates (ntid, ord, name, config) VALUES (?, ?, ?, ?)`,
					m.ID, ord, tmpl.Name, EncodeTemplateConfig(tmpl.Question, tmpl.Answer))
			}
		}
		for _, d := range fx.Decks {
			exec(`INSERT INTO decks (id, name) VALUES (?, ?)`,
				d.ID, strings.ReplaceAll(d.Name, "::", fieldSeparator))
		}
	}

	for _, n := range fx.Notes {
		exec(`INSERT INTO notes (id, mid, flds, tags, mod) VALUES (?, ?, ?, ?, ?)`,
			n.ID, n.ModelID, strings.Join(n.Fields, fieldSeparator), strings.Join(n.Tags, " "), n.Mod)
	}
	for _, c := range fx.Cards {
		exec(`INSERT INTO cards (id, nid, did, ord, type, queue, due, ivl, factor, reps, lapses)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			c.ID, c.NoteID, c.DeckID, c.Ord, c.Type, c.Queue, c.Due, c.Interval, c.Factor, c.Reps, c.Lapses)
	}
	for _, e := range fx.Revlog {
		exec(`INSERT INTO revlog (id, cid, ease, ivl, lastIvl, factor, time, type)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			e.ID, e.CardID, e.Ease, e.Interval, e.LastInterval, e.Factor, e.TimeMs, e.Type)
	}

	return dbPath
}

func legacyModelsJSON(t *testing.T, ms []Model) string {
	t.Helper()
	out := make(map[string]any, len(ms))
	for _, m := range ms {
		flds := make([]map[string]any, len(m.Fields))
		for i, f := range m.Fields {
			flds[i] = map[string]any{"name": f, "ord": i}
		}
		tmpls := make([]map[string]any, len(m.Templates))
		for i, tm := range m.Templates {
			tmpls[i] = map[string]any{"name": tm.Name, "qfmt": tm.Question, "afmt": tm.Answer, "ord": i}
		}
		out[strconv.FormatInt(m.ID, 10)] = map[string]any{
			"name": m.Name, "flds": flds, "tmpls": tmpls,
		}
	}
	data, err := json.Marshal(out)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func legacyDecksJSON(t *testing.T, ds []Deck) string {
	t.Helper()
	out := make(map[string]any, len(ds))
	for _, d := range ds {
		out[strconv.FormatInt(d.ID, 10)] = map[string]any{"name": d.Name}
	}
	data, err := json.Marshal(out)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}
