package index

import "time"

// ReviewIndex defines the interface for review-queue operations.
// Consumers should depend on this interface rather than the concrete *DB
// type to facilitate testing with mocks.
type ReviewIndex interface {
	UpsertItems(path, checksum string, items []ItemRow) error
	DeleteByPath(path string) error
	GetItem(id string) (*ItemRow, error)
	Queue(now time.Time, limit int) ([]ItemRow, error)
	Summary(now time.Time) (StatusCounts, error)
	AllChecksums() (map[string]string, error)
	Close() error
}

// Verify *DB satisfies ReviewIndex at compile time.
var _ ReviewIndex = (*DB)(nil)
