package index

import (
	"log/slog"

	"github.com/starford/perthro/internal/checksum"
	"github.com/starford/perthro/internal/storage"
	"github.com/starford/perthro/internal/vault"
)

// Sync walks the sidecar directory and brings the index up to date:
//   - new/changed sidecars are parsed and upserted
//   - sidecars removed from disk have their items deleted
func Sync(db *DB, store storage.Provider, logger *slog.Logger) error {
	metas, err := store.List(vault.SidecarDir)
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}

		if checksums[m.Path] == m.Checksum {
			continue
		}

		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		if err := indexSidecar(db, m.Path, data); err != nil {
			logger.Warn("sync: index failed", slog.String("path", m.Path), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("path", m.Path))
		}
	}

	// Remove items whose sidecar is gone.
	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if err := db.DeleteByPath(p); err != nil {
				logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("path", p))
			}
		}
	}

	return nil
}

// indexSidecar parses one sidecar file and upserts its items.
func indexSidecar(db *DB, path string, data []byte) error {
	sc, err := vault.ParseSidecar(data)
	if err != nil {
		return err
	}
	cs := checksum.Sum(data)
	return db.UpsertItems(path, cs, SidecarItems(path, sc))
}

// SidecarItems flattens one sidecar into index rows: one row for a topic,
// one row per cloze for an item.
func SidecarItems(path string, sc *vault.Sidecar) []ItemRow {
	var out []ItemRow
	if sc.Topic != nil {
		out = append(out, ItemRow{
			ID:         sc.IRNoteID,
			Path:       path,
			NotePath:   sc.NotePath,
			Kind:       sc.Type,
			Status:     sc.Topic.Status,
			Due:        sc.Topic.Due,
			Stability:  sc.Topic.Stability,
			Difficulty: sc.Topic.Difficulty,
			Priority:   sc.Priority,
			Reps:       sc.Topic.Reps,
			Lapses:     sc.Topic.Lapses,
		})
	}
	for _, cz := range sc.Clozes {
		out = append(out, ItemRow{
			ID:         cz.ID,
			Path:       path,
			NotePath:   sc.NotePath,
			Kind:       sc.Type,
			Status:     cz.Status,
			Due:        cz.Due,
			Stability:  cz.Stability,
			Difficulty: cz.Difficulty,
			Priority:   sc.Priority,
			Reps:       cz.Reps,
			Lapses:     cz.Lapses,
		})
	}
	return out
}
