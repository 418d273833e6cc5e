package storage

import "errors"

var (
	ErrNotFound   = errors.New("record not found")
	ErrUserExists = errors.New("user already exists")
	ErrConstraint = errors.New("record constraint violated")
	ErrStale      = errors.New("record changed since it was read")
)
