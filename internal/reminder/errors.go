package reminder

import (
	"errors"
	"fmt"

	"bdaybot/internal/storage"
)

var (
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrMessagingNotReady  = errors.New("messaging client not ready")
	ErrCheckInProgress    = errors.New("daily check already in progress")
	ErrNotFound           = storage.ErrNotFound
)

// DeliveryError reports a failed group send.
type DeliveryError struct {
	Group string
	Err   error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver to group %q: %v", e.Group, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// ValidationError reports an invalid event field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string { return e.Field + ": " + e.Reason }
