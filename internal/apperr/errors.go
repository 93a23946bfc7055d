package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrSourceBusy    = errors.New("source collection is in use: close the owning application (or wait for it to checkpoint) and retry")
)
