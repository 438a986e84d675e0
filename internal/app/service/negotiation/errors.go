package negotiation

import "errors"

var (
	ErrNotFound = errors.New("negotiation not found")
	ErrExpired  = errors.New("negotiation expired")
	ErrClosed   = errors.New("negotiation already concluded")
)
