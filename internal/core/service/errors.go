package service

import "errors"

var (
	ErrValidation       = errors.New("validation failed")
	ErrInactiveSeller   = errors.New("seller is inactive")
	ErrDuplicateRequest = errors.New("duplicate request")
	ErrNoOp             = errors.New("no change requested")
)
