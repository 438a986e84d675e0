package execution

import "errors"

var (
	ErrNotFound        = errors.New("optimization not found")
	ErrAlreadyExecuted = errors.New("optimization already executed")
	ErrUnknownAction   = errors.New("unknown action type")
)
