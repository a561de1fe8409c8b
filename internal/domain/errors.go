package domain

import "errors"

// Sentinel errors shared between the store implementations and the services
// that consume them.
var (
	ErrAccountNotFound   = errors.New("account not found")
	ErrUsernameTaken     = errors.New("username already exists")
	ErrRecipientNotFound = errors.New("recipient not found")
)
