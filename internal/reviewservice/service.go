// Package reviewservice coordinates the review queue, item reads, and
// import runs on top of storage and the index. Both the REST API and the
// MCP server sit on this layer.
package reviewservice

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/starford/perthro/internal/anki"
	"github.com/starford/perthro/internal/apperr"
	"github.com/starford/perthro/internal/ident"
	"github.com/starford/perthro/internal/index"
	"github.com/starford/perthro/internal/models"
	"github.com/starford/perthro/internal/storage"
	"github.com/starford/perthro/internal/vault"
)

// ItemDetail is one review item together with its note content and, for
// cloze items, the rendered question and answer of the target cloze.
type ItemDetail struct {
	Item     index.ItemRow
	Content  string
	Question string
	Answer   string
}

// Service coordinates storage, index, and import operations.
type Service struct {
	store     storage.Provider
	db        *index.DB
	vaultRoot string
	logger    *slog.Logger

	// importMu serializes import runs; concurrent imports would interleave
	// revlog appends.
	importMu sync.Mutex
}

// NewService creates a new review service.
func NewService(store storage.Provider, db *index.DB, vaultRoot string, logger *slog.Logger) *Service {
	return &Service{store: store, db: db, vaultRoot: vaultRoot, logger: logger}
}

// Queue returns the review queue: items due at or before now, earliest
// first.
func (s *Service) Queue(_ context.Context, now time.Time, limit int) ([]index.ItemRow, error) {
	return s.db.Queue(now, limit)
}

// Summary returns per-status item counts.
func (s *Service) Summary(_ context.Context, now time.Time) (index.StatusCounts, error) {
	return s.db.Summary(now)
}

// GetItem returns one review item with its note content. For cloze items
// the body is rendered against the item's cloze index.
func (s *Service) GetItem(_ context.Context, id string) (*ItemDetail, error) {
	it, err := s.db.GetItem(id)
	if err != nil {
		return nil, err
	}
	if it == nil {
		return nil, apperr.ErrNotFound
	}

	detail := &ItemDetail{Item: *it}

	data, err := s.store.Read(it.NotePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			// Sidecar outlived its note; still return the scheduling view.
			return detail, nil
		}
		return nil, err
	}
	_, body := vault.SplitFrontmatter(data)
	detail.Content = body

	if it.Kind == models.KindItem {
		if idx, ok := clozeIndexFor(s.store, it); ok {
			detail.Question = anki.RenderCloze(body, idx, anki.ClozeQuestion)
			detail.Answer = anki.RenderCloze(body, idx, anki.ClozeAnswer)
		}
	}
	return detail, nil
}

// clozeIndexFor maps an item id back to its cloze index via the sidecar.
func clozeIndexFor(store storage.Provider, it *index.ItemRow) (int, bool) {
	data, err := store.Read(it.Path)
	if err != nil {
		return 0, false
	}
	sc, err := vault.ParseSidecar(data)
	if err != nil {
		return 0, false
	}
	for key, cz := range sc.Clozes {
		if cz.ID != it.ID {
			continue
		}
		idx, err := strconv.Atoi(strings.TrimPrefix(key, "c"))
		if err == nil && idx > 0 {
			return idx, true
		}
	}
	return 0, false
}

// Import runs one collection import and then syncs the index so the new
// sidecars become queryable. Runs are serialized.
func (s *Service) Import(ctx context.Context, opts anki.Options) (*models.ImportSummary, error) {
	s.importMu.Lock()
	defer s.importMu.Unlock()

	imp := anki.NewImporter(s.store, ident.NewRandom(), s.logger)
	summary, err := imp.Run(ctx, opts, s.vaultRoot)
	if err != nil {
		return nil, err
	}
	if err := index.Sync(s.db, s.store, s.logger); err != nil {
		return nil, err
	}
	return summary, nil
}
