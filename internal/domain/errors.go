package domain

import "errors"

var (
	// ErrDuplicate reports a uniqueness violation (feed item url, article slug, tag name).
	ErrDuplicate = errors.New("duplicate record")
	// ErrNotFound reports a missing record.
	ErrNotFound = errors.New("record not found")
	// ErrNoContent means no brief source could be turned into text.
	ErrNoContent = errors.New("no usable content")
	// ErrInvalidResponse marks a text-generation response that does not match the expected shape.
	ErrInvalidResponse = errors.New("invalid model response")
)
