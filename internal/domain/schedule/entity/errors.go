package entity

import "errors"

// Domain errors for scheduled posts
var (
	// Validation errors
	ErrEmptyContent        = errors.New("post content is required")
	ErrInvalidThreadLength = errors.New("thread length must be at least 1")
	ErrIndexOutOfRange     = errors.New("scheduled post index out of range")

	// Business logic errors
	ErrPostNotFound = errors.New("scheduled post not found")
)
