package storage

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrExists              = errors.New("already exists")
	ErrForbidden           = errors.New("forbidden")
	ErrInvalidState        = errors.New("invalid state")
	ErrDuplicateVersion    = errors.New("duplicate version")
	ErrExtraction          = errors.New("extraction failed")
	ErrChecklistIncomplete = errors.New("self-qa checklist incomplete")
	ErrValidation          = errors.New("validation failed")
)
