package entity

import "errors"

// Domain errors for message handling
var (
	ErrEmptyResponse  = errors.New("response text is required")
	ErrEmptyTargetID  = errors.New("target message id is required")
	ErrUnknownChannel = errors.New("unknown message channel")
)
