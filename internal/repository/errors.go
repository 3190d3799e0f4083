package repository

import "github.com/pkg/errors"

var (
	// ErrDuplicate is returned by Create when the key already exists
	ErrDuplicate = errors.New("record already exists")
	// ErrNotFound is returned by Update when no record matches
	ErrNotFound = errors.New("record not found")
)
