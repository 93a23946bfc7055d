package index

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/starford/perthro/internal/models"
)

// ItemRow represents one reviewable item: a topic sidecar, or a single
// cloze within an item sidecar. Path is the sidecar file; NotePath is the
// note the sidecar points at.
type ItemRow struct {
	ID         string
	Path       string
	NotePath   string
	Kind       models.NoteKind
	Status     models.Status
	Due        *time.Time
	Stability  float64
	Difficulty float64
	Priority   float64
	Reps       int
	Lapses     int
	UpdatedAt  time.Time
}

// StatusCounts is a per-status breakdown of the index.
type StatusCounts struct {
	Total      int `json:"total"`
	New        int `json:"new"`
	Learning   int `json:"learning"`
	Review     int `json:"review"`
	Relearning int `json:"relearning"`
	DueNow     int `json:"dueNow"`
}

// UpsertItems replaces every item derived from one sidecar file within a
// transaction. A topic sidecar yields one row; a cloze sidecar yields one
// row per cloze.
func (db *DB) UpsertItems(path, checksum string, items []ItemRow) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	// Clozes can be removed between imports, so old rows go first.
	if _, err := tx.Exec(`DELETE FROM items WHERE path = ?`, path); err != nil {
		return fmt.Errorf("index: clear sidecar items: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO items (id, path, note_path, kind, status, due, stability, difficulty, priority, reps, lapses, checksum, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("index: prepare item insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, it := range items {
		var due any
		if it.Due != nil {
			due = it.Due.UTC()
		}
		if _, err := stmt.Exec(it.ID, path, it.NotePath, string(it.Kind), string(it.Status),
			due, it.Stability, it.Difficulty, it.Priority, it.Reps, it.Lapses, checksum, now); err != nil {
			return fmt.Errorf("index: insert item: %w", err)
		}
	}

	return tx.Commit()
}

// DeleteByPath removes every item derived from one sidecar file.
func (db *DB) DeleteByPath(path string) error {
	if _, err := db.conn.Exec(`DELETE FROM items WHERE path = ?`, path); err != nil {
		return fmt.Errorf("index: delete items: %w", err)
	}
	return nil
}

// GetItem returns one item by id, or nil when it does not exist.
func (db *DB) GetItem(id string) (*ItemRow, error) {
	row := db.conn.QueryRow(`
		SELECT id, path, note_path, kind, status, due, stability, difficulty, priority, reps, lapses, updated_at
		FROM items WHERE id = ?
	`, id)
	it, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("index: get item: %w", err)
	}
	return it, nil
}

// Queue returns items due at or before now, earliest first; ties are
// broken by priority (highest first) then id for stable ordering.
func (db *DB) Queue(now time.Time, limit int) ([]ItemRow, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.conn.Query(`
		SELECT id, path, note_path, kind, status, due, stability, difficulty, priority, reps, lapses, updated_at
		FROM items
		WHERE due IS NOT NULL AND due <= ?
		ORDER BY due ASC, priority DESC, id ASC
		LIMIT ?
	`, now.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("index: queue: %w", err)
	}
	defer rows.Close()

	var out []ItemRow
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *it)
	}
	return out, rows.Err()
}

// Summary returns per-status counts plus the number of items due at now.
func (db *DB) Summary(now time.Time) (StatusCounts, error) {
	var c StatusCounts
	rows, err := db.conn.Query(`SELECT status, COUNT(*) FROM items GROUP BY status`)
	if err != nil {
		return c, fmt.Errorf("index: summary: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return c, err
		}
		c.Total += n
		switch models.Status(status) {
		case models.StatusNew:
			c.New = n
		case models.StatusLearning:
			c.Learning = n
		case models.StatusReview:
			c.Review = n
		case models.StatusRelearning:
			c.Relearning = n
		}
	}
	if err := rows.Err(); err != nil {
		return c, err
	}
	err = db.conn.QueryRow(`SELECT COUNT(*) FROM items WHERE due IS NOT NULL AND due <= ?`, now.UTC()).Scan(&c.DueNow)
	if err != nil {
		return c, fmt.Errorf("index: summary due: %w", err)
	}
	return c, nil
}

// AllChecksums returns the stored checksum for every indexed sidecar path.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT DISTINCT path, checksum FROM items`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(s rowScanner) (*ItemRow, error) {
	var it ItemRow
	var kind, status string
	var due sql.NullTime
	if err := s.Scan(&it.ID, &it.Path, &it.NotePath, &kind, &status, &due,
		&it.Stability, &it.Difficulty, &it.Priority, &it.Reps, &it.Lapses, &it.UpdatedAt); err != nil {
		return nil, err
	}
	it.Kind = models.NoteKind(kind)
	it.Status = models.Status(status)
	if due.Valid {
		t := due.Time.UTC()
		it.Due = &t
	}
	return &it, nil
}
