package approvals

import "errors"

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrNotFound      = errors.New("approval request not pending")
	ErrInFlight      = errors.New("action already in flight for this request")
	ErrClosed        = errors.New("controller closed")
	ErrUnknownStatus = errors.New("unknown approval status")
)
