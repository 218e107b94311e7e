package domain

import "errors"

var (
	ErrDocumentNotFound     = errors.New("document not found")
	ErrInconsistentPostings = errors.New("inconsistent postings")
	ErrUnknownMethod        = errors.New("unknown scoring method")
	ErrInvalidQuery         = errors.New("invalid query")
	ErrInvalidConfig        = errors.New("invalid config")
	ErrNoIndex              = errors.New("no index found")
)
