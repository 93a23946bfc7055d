// Package storage defines the vault file-system abstraction.
package storage

import "github.com/starford/perthro/internal/models"

// Provider is the interface for vault file operations. All paths are
// relative to the vault root.
type Provider interface {
	// List walks dir and returns metadata for every .md file under it.
	List(dir string) ([]models.FileMeta, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path, creating parent directories.
	Write(path string, content []byte) error
	// Append appends content to path, creating the file (and parents) when
	// missing. Existing content is never truncated.
	Append(path string, content []byte) error
}
