package models

import "time"

// FileMeta is a lightweight representation of a vault file returned by
// list operations.
type FileMeta struct {
	Path      string
	Checksum  string
	UpdatedAt time.Time
}
