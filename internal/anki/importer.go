package anki

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/starford/perthro/internal/ident"
	"github.com/starford/perthro/internal/models"
	"github.com/starford/perthro/internal/storage"
	"github.com/starford/perthro/internal/vault"
)

// Options configures one import run.
type Options struct {
	CollectionPath   string // path to the source database
	ProfileDir       string // directory holding the source media
	ImportFolder     string // vault subfolder receiving note files
	DeckFilter       string // optional deck selection pattern
	ExcludeSuspended bool   // drop suspended cards before filtering
	IncludeHistory   bool   // also migrate the review log
	Priority         float64
}

// DefaultOptions returns the standard import configuration: suspended
// cards excluded, history skipped.
func DefaultOptions(collectionPath string) Options {
	return Options{
		CollectionPath:   collectionPath,
		ImportFolder:     "Imported",
		ExcludeSuspended: true,
		Priority:         50,
	}
}

// uncategorizedDeck receives cards whose deck row is missing.
const uncategorizedDeck = "Uncategorized"

// Importer drives one collection import end to end: read, convert,
// translate, relocate, write. It holds no state between runs.
type Importer struct {
	store  storage.Provider
	ids    ident.Generator
	logger *slog.Logger
	now    func() time.Time
}

// NewImporter creates an Importer writing into store. The identifier
// generator is injected so tests can supply deterministic sequences.
func NewImporter(store storage.Provider, ids ident.Generator, logger *slog.Logger) *Importer {
	return &Importer{store: store, ids: ids, logger: logger, now: time.Now}
}

// Run executes one import. Fatal conditions (missing or busy source
// database) return an error before anything is written; everything else
// is recorded in the summary and the run continues.
func (imp *Importer) Run(ctx context.Context, opts Options, vaultRoot string) (*models.ImportSummary, error) {
	if opts.ImportFolder == "" {
		opts.ImportFolder = "Imported"
	}

	src, err := Read(opts.CollectionPath, opts.IncludeHistory)
	if err != nil {
		return nil, err
	}

	summary := &models.ImportSummary{}
	summary.Errors = append(summary.Errors, src.RowErrors...)

	notes, itemIDs := imp.buildNotes(src, opts, summary)

	// Relocate media before writing so body references can be rewritten
	// to their final paths.
	referenced := make(map[string]struct{})
	for _, n := range notes {
		for _, ref := range n.MediaRefs {
			referenced[ref] = struct{}{}
		}
	}
	attachDir := AttachmentFolder(vaultRoot)
	media := CopyMedia(opts.ProfileDir, imp.store, attachDir, referenced)
	summary.MediaCopied = len(media.Copied)
	summary.MissingMedia = media.Missing
	summary.Errors = append(summary.Errors, media.Errors...)

	writer := vault.NewWriter(imp.store, opts.ImportFolder)
	for _, n := range notes {
		if err := writer.WriteNote(n, media.Copied); err != nil {
			summary.Errors = append(summary.Errors, models.ImportError{
				Kind: "note", ID: strconv.FormatInt(n.SourceID, 10), Message: err.Error(),
			})
			continue
		}
		if err := writer.WriteSidecar(n); err != nil {
			summary.Errors = append(summary.Errors, models.ImportError{
				Kind: "sidecar", ID: n.ID, Message: err.Error(),
			})
			continue
		}
		summary.NotesImported++
	}

	deckNames := make([]string, 0, len(src.Decks))
	for _, d := range src.Decks {
		deckNames = append(deckNames, d.Name)
	}
	sort.Strings(deckNames)
	if err := writer.WriteDeckTree(vault.BuildDeckTree(deckNames)); err != nil {
		summary.Errors = append(summary.Errors, models.ImportError{
			Kind: "deck", ID: "tree", Message: err.Error(),
		})
	}

	if opts.IncludeHistory {
		imp.importRevlog(src, itemIDs, writer, summary)
	}

	imp.logger.Info("import finished",
		slog.Int("notes", summary.NotesImported),
		slog.Int("media", summary.MediaCopied),
		slog.Int("reviews", summary.ReviewsImported),
		slog.Int("missing_media", len(summary.MissingMedia)),
		slog.Int("errors", len(summary.Errors)))

	return summary, nil
}

// buildNotes converts every importable note and returns the card-id →
// target-item-id mapping used for revlog translation.
func (imp *Importer) buildNotes(src *SourceData, opts Options, summary *models.ImportSummary) ([]*models.ImportedNote, map[int64]string) {
	deckIDs := FilterDecks(src.Decks, opts.DeckFilter)

	notesByID := make(map[int64]*Note, len(src.Notes))
	for i := range src.Notes {
		notesByID[src.Notes[i].ID] = &src.Notes[i]
	}

	cardsByNote := make(map[int64][]Card)
	for _, c := range src.Cards {
		if opts.ExcludeSuspended && c.Queue == QueueSuspended {
			continue
		}
		if _, ok := notesByID[c.NoteID]; !ok {
			summary.Errors = append(summary.Errors, models.ImportError{
				Kind: "card", ID: strconv.FormatInt(c.ID, 10), Message: "references missing note",
			})
			continue
		}
		if _, ok := deckIDs[c.DeckID]; !ok {
			if _, exists := src.Decks[c.DeckID]; exists || opts.DeckFilter != "" {
				// Deck exists but is filtered out, or the filter simply
				// does not select it.
				continue
			}
			// Dangling deck reference: keep the card, bucket it later.
			summary.Errors = append(summary.Errors, models.ImportError{
				Kind: "deck", ID: strconv.FormatInt(c.DeckID, 10), Message: "card references missing deck",
			})
		}
		cardsByNote[c.NoteID] = append(cardsByNote[c.NoteID], c)
	}

	// Notes with no card rows at all are unreachable from any deck and
	// would vanish silently; record them. Notes whose cards were all
	// excluded by the suspended or deck filters stay silent.
	carded := make(map[int64]struct{}, len(src.Cards))
	for _, c := range src.Cards {
		carded[c.NoteID] = struct{}{}
	}
	for i := range src.Notes {
		if _, ok := carded[src.Notes[i].ID]; !ok {
			summary.Errors = append(summary.Errors, models.ImportError{
				Kind: "note", ID: strconv.FormatInt(src.Notes[i].ID, 10), Message: "no matching cards",
			})
		}
	}

	noteIDs := make([]int64, 0, len(cardsByNote))
	for id := range cardsByNote {
		noteIDs = append(noteIDs, id)
	}
	sort.Slice(noteIDs, func(i, j int) bool { return noteIDs[i] < noteIDs[j] })

	var out []*models.ImportedNote
	itemIDs := make(map[int64]string)
	now := imp.now()

	for _, noteID := range noteIDs {
		note := notesByID[noteID]
		cards := cardsByNote[noteID]

		model, ok := src.Models[note.ModelID]
		if !ok {
			summary.Errors = append(summary.Errors, models.ImportError{
				Kind: "note", ID: strconv.FormatInt(note.ID, 10), Message: "model not found",
			})
			continue
		}

		content := FieldsToContent(note.Fields, model.Fields)
		if content.Text == "" {
			summary.Errors = append(summary.Errors, models.ImportError{
				Kind: "note", ID: strconv.FormatInt(note.ID, 10), Message: "no convertible content",
			})
			continue
		}

		deckPath := uncategorizedDeck
		if d, ok := src.Decks[cards[0].DeckID]; ok {
			deckPath = DeckPath(d.Name)
		}

		kind := DetectKind(model.Name, model.Templates)
		isCloze := kind == KindCloze || kind == KindImageOcclusion

		n := &models.ImportedNote{
			ID:        imp.ids.Next(),
			SourceID:  note.ID,
			DeckPath:  deckPath,
			Filename:  SanitizeFilename(strconv.FormatInt(note.ID, 10)),
			Content:   content.Text,
			Tags:      note.Tags,
			Priority:  opts.Priority,
			CreatedAt: time.UnixMilli(note.ID),
			MediaRefs: content.MediaRefs,
		}

		if isCloze {
			n.Kind = models.KindItem
			indexes := ClozeIndexes(content.Text)
			statesByOrd := make(map[int]Card, len(cards))
			for _, c := range cards {
				statesByOrd[c.Ord] = c
			}
			for _, idx := range indexes {
				card := models.ImportedCard{
					ClozeIndex: idx,
					ClozeID:    imp.ids.Next(),
					State:      models.NewReviewState(),
				}
				// The card ordinal is the cloze index minus one.
				if c, ok := statesByOrd[idx-1]; ok {
					card.State = TranslateCardState(c, src.CreatedAt, now)
					itemIDs[c.ID] = card.ClozeID
				}
				n.Cards = append(n.Cards, card)
			}
			if len(n.Cards) == 0 {
				// Cloze-typed model without cloze markers degrades to a topic.
				n.Kind = models.KindTopic
			}
		}
		if n.Kind != models.KindItem {
			n.Kind = models.KindTopic
			n.Cards = []models.ImportedCard{{State: TranslateCardState(cards[0], src.CreatedAt, now)}}
			for _, c := range cards {
				itemIDs[c.ID] = n.ID
			}
		}

		out = append(out, n)
	}

	return out, itemIDs
}

// importRevlog translates historical reviews and appends them in monthly
// batches. Entries whose card has no mapped item are tallied, not raised.
func (imp *Importer) importRevlog(src *SourceData, itemIDs map[int64]string, writer *vault.Writer, summary *models.ImportSummary) {
	byMonth := make(map[string][]models.ReviewRecord)
	for _, e := range src.Revlog {
		rec, ok := TranslateRevlogEntry(e, itemIDs)
		if !ok {
			summary.SkippedReviews++
			continue
		}
		month := RevlogMonth(rec)
		byMonth[month] = append(byMonth[month], rec)
	}
	if err := writer.AppendRevlog(byMonth); err != nil {
		summary.Errors = append(summary.Errors, models.ImportError{
			Kind: "revlog", ID: "batch", Message: err.Error(),
		})
		return
	}
	for _, recs := range byMonth {
		summary.ReviewsImported += len(recs)
	}
}

// Describe returns a one-line human summary of a finished run.
func Describe(s *models.ImportSummary) string {
	return fmt.Sprintf("imported %d notes, %d media files, %d reviews (%d skipped, %d missing media, %d errors)",
		s.NotesImported, s.MediaCopied, s.ReviewsImported, s.SkippedReviews, len(s.MissingMedia), len(s.Errors))
}
