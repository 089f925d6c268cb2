package contract

import "errors"

var (
	ErrModelInvoke    = errors.New("model invoke failed")
	ErrToolOverflow   = errors.New("tool iteration limit exceeded")
	ErrInvalidMessage = errors.New("message is empty")
	ErrInvalidSession = errors.New("session id is empty")
	ErrValidation     = errors.New("validation failed")
)
