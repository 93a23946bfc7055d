// Package vault serializes imported entities into the vault's file layout:
// markdown notes with frontmatter, scheduling sidecars, deck trees, and
// monthly revlog batches.
package vault

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/starford/perthro/internal/models"
)

const frontmatterDelim = "---"

// NoteFrontmatter is the header block of an imported note file.
type NoteFrontmatter struct {
	IRNoteID string          `yaml:"ir_note_id"`
	Tags     []string        `yaml:"tags"`
	Type     models.NoteKind `yaml:"type"`
	Priority float64         `yaml:"priority"`
	Created  string          `yaml:"created"`
	Cloze    []int           `yaml:"cloze,omitempty"`
}

// ClozeState is one entry of a sidecar's clozes map: a generated per-cloze
// identifier plus its review state.
type ClozeState struct {
	ID                 string `yaml:"id"`
	models.ReviewState `yaml:",inline"`
}

// Sidecar is the frontmatter-only scheduling file of one review item.
// Topic items carry a single state block; cloze items carry a map keyed
// c1, c2, ….
type Sidecar struct {
	IRNoteID string                `yaml:"ir_note_id"`
	NotePath string                `yaml:"note_path"`
	Type     models.NoteKind       `yaml:"type"`
	Priority float64               `yaml:"priority"`
	Topic    *models.ReviewState   `yaml:"topic,omitempty"`
	Clozes   map[string]ClozeState `yaml:"clozes,omitempty"`
}

// EncodeFrontmatter renders v as a YAML frontmatter block followed by a
// blank line.
func EncodeFrontmatter(v any) ([]byte, error) {
	body, err := yaml.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("vault: marshal frontmatter: %w", err)
	}
	var buf bytes.Buffer
	buf.WriteString(frontmatterDelim + "\n")
	buf.Write(body)
	buf.WriteString(frontmatterDelim + "\n\n")
	return buf.Bytes(), nil
}

// SplitFrontmatter separates a YAML frontmatter block (between leading ---
// delimiters) from the body. Files without frontmatter yield a nil block
// and the full content as body.
func SplitFrontmatter(data []byte) (block []byte, body string) {
	trimmed := bytes.TrimLeft(data, "\n\r")
	if !bytes.HasPrefix(trimmed, []byte(frontmatterDelim)) {
		return nil, string(data)
	}
	rest := trimmed[len(frontmatterDelim):]
	idx := bytes.Index(rest, []byte("\n"+frontmatterDelim))
	if idx < 0 {
		return nil, string(data)
	}
	block = rest[:idx]
	after := rest[idx+1+len(frontmatterDelim):]
	return block, strings.TrimLeft(string(after), "\n\r")
}

// ParseSidecar decodes a sidecar file.
func ParseSidecar(data []byte) (*Sidecar, error) {
	block, _ := SplitFrontmatter(data)
	if block == nil {
		return nil, fmt.Errorf("vault: sidecar has no frontmatter")
	}
	var sc Sidecar
	if err := yaml.Unmarshal(block, &sc); err != nil {
		return nil, fmt.Errorf("vault: parse sidecar: %w", err)
	}
	return &sc, nil
}
