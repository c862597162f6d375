package models

import "errors"

// Domain error sentinels shared by repositories, services and handlers.
// Handlers translate them to HTTP status codes with errors.Is.
var (
	ErrNotFound         = errors.New("resource not found")
	ErrForbidden        = errors.New("operation not allowed for this user")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrConflict         = errors.New("resource already exists")
	ErrDeliveryFailure  = errors.New("realtime delivery failed")
)
