package model

import "errors"

var (
	// Tombstone lifecycle errors
	ErrTombstoneNotFound = errors.New("tombstone not found")
	ErrDuplicateItem     = errors.New("active tombstone already exists for item")
	ErrIllegalTransition = errors.New("illegal state transition")
	ErrVersionConflict   = errors.New("tombstone version conflict")

	// Restore errors
	ErrRestoreConflict = errors.New("restore target occupied by a different record")
	ErrSchemaMismatch  = errors.New("snapshot schema version not supported")

	// Live store errors
	ErrItemNotFound = errors.New("live item not found")

	// Permission/Access related errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// Generic errors
	ErrUnknownItemType = errors.New("unknown item type")
	ErrInvalidInput    = errors.New("invalid input")
)
