package anki

import (
	"strings"
	"unicode"
)

// deckSeparator splits hierarchical deck names into levels.
const deckSeparator = "::"

// illegalFilenameRunes are replaced during sanitization. Spaces and
// parentheses pass through untouched.
const illegalFilenameRunes = `/\:*?"<>|`

// SanitizeFilename replaces characters that cannot appear in file names
// with a hyphen. The function is idempotent: sanitizing an already-clean
// string returns it unchanged.
func SanitizeFilename(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "Untitled"
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if strings.ContainsRune(illegalFilenameRunes, r) || unicode.IsControl(r) {
			b.WriteRune('-')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// DeckPath converts a hierarchical deck name into a nested filesystem
// path: each `::`-separated segment is sanitized independently and joined
// with a forward slash.
func DeckPath(deckName string) string {
	segments := strings.Split(deckName, deckSeparator)
	for i, seg := range segments {
		segments[i] = SanitizeFilename(seg)
	}
	return strings.Join(segments, "/")
}

// FilterDecks returns the ids of decks selected by pattern. A trailing `*`
// makes pattern a case-sensitive prefix match over full deck names;
// otherwise a deck matches on exact equality or by being a direct
// hierarchical descendant (`pattern::…`). An empty pattern selects
// everything.
func FilterDecks(decks map[int64]Deck, pattern string) map[int64]struct{} {
	out := make(map[int64]struct{}, len(decks))
	if pattern == "" {
		for id := range decks {
			out[id] = struct{}{}
		}
		return out
	}

	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		for id, d := range decks {
			if strings.HasPrefix(d.Name, prefix) {
				out[id] = struct{}{}
			}
		}
		return out
	}

	for id, d := range decks {
		if d.Name == pattern || strings.HasPrefix(d.Name, pattern+deckSeparator) {
			out[id] = struct{}{}
		}
	}
	return out
}
