package anki

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/starford/perthro/internal/models"
	"github.com/starford/perthro/internal/storage"
)

// DefaultAttachmentFolder is used when the vault carries no attachment
// configuration of its own.
const DefaultAttachmentFolder = "attachments"

// mediaMapFile is the legacy name→number mapping file inside an exported
// profile directory. Its presence switches the relocator to legacy
// addressing.
const mediaMapFile = "media"

// mediaSubdir is where a modern profile keeps media files on disk.
const mediaSubdir = "collection.media"

// AttachmentFolder determines the vault's attachment subfolder by probing
// the vault's own config file, falling back to the fixed default. Parse
// failures fall back silently; the probe is best-effort.
func AttachmentFolder(vaultRoot string) string {
	data, err := os.ReadFile(filepath.Join(vaultRoot, ".obsidian", "app.json"))
	if err != nil {
		return DefaultAttachmentFolder
	}
	var cfg struct {
		AttachmentFolderPath string `json:"attachmentFolderPath"`
	}
	if err := json.Unmarshal(data, &cfg); err != nil || cfg.AttachmentFolderPath == "" {
		return DefaultAttachmentFolder
	}
	return cfg.AttachmentFolderPath
}

// MediaResult reports what one relocation pass did.
type MediaResult struct {
	Copied  map[string]string // original reference → vault-relative path
	Missing []string
	Errors  []models.ImportError
}

// CopyMedia resolves each referenced media file inside profileDir and
// copies it into targetDir under the vault. Two addressing modes exist:
// legacy profiles carry a JSON mapping file that resolves original names
// to numeric on-disk names; modern profiles store files under
// collection.media by their own names. Missing files are recorded and
// skipped, never fatal.
func CopyMedia(profileDir string, store storage.Provider, targetDir string, referenced map[string]struct{}) MediaResult {
	res := MediaResult{Copied: make(map[string]string, len(referenced))}

	mapping := loadMediaMap(profileDir)

	names := make([]string, 0, len(referenced))
	for name := range referenced {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		srcPath, ok := resolveMediaPath(profileDir, mapping, name)
		if !ok {
			res.Missing = append(res.Missing, name)
			continue
		}
		data, err := os.ReadFile(srcPath)
		if err != nil {
			res.Missing = append(res.Missing, name)
			continue
		}
		dest := filepath.ToSlash(filepath.Join(targetDir, name))
		if err := store.Write(dest, data); err != nil {
			res.Errors = append(res.Errors, models.ImportError{
				Kind:    "media",
				ID:      name,
				Message: fmt.Sprintf("copy: %v", err),
			})
			continue
		}
		res.Copied[name] = dest
	}
	return res
}

// loadMediaMap reads the legacy mapping file. It returns nil for modern
// profiles (no file) and on parse failure (best-effort fallback).
func loadMediaMap(profileDir string) map[string]string {
	data, err := os.ReadFile(filepath.Join(profileDir, mediaMapFile))
	if err != nil {
		return nil
	}
	var raw map[string]json.Number
	if err := json.Unmarshal(data, &raw); err == nil && len(raw) > 0 {
		// name → number orientation.
		out := make(map[string]string, len(raw))
		for name, num := range raw {
			out[name] = num.String()
		}
		return out
	}
	// Export archives use the inverse orientation: number → name.
	var inverse map[string]string
	if err := json.Unmarshal(data, &inverse); err != nil {
		return nil
	}
	out := make(map[string]string, len(inverse))
	for num, name := range inverse {
		if _, err := strconv.Atoi(num); err == nil {
			out[name] = num
		}
	}
	return out
}

func resolveMediaPath(profileDir string, mapping map[string]string, name string) (string, bool) {
	if mapping != nil {
		num, ok := mapping[name]
		if !ok {
			return "", false
		}
		p := filepath.Join(profileDir, num)
		if _, err := os.Stat(p); err != nil {
			return "", false
		}
		return p, true
	}
	for _, p := range []string{
		filepath.Join(profileDir, mediaSubdir, name),
		filepath.Join(profileDir, name),
	} {
		if _, err := os.Stat(p); err == nil {
			return p, true
		}
	}
	return "", false
}
