// Package service orchestrates sessions, claims, suggestions, and checkout
// on top of the storage, allocation, suggestion, and payment packages.
package service

import (
	"errors"
	"fmt"

	"github.com/splitsmart/splitsmart/internal/storage"
)

// Error taxonomy. Handlers map these sentinels onto HTTP statuses; callers
// may rely on a non-success response meaning "no state change happened" for
// every money-relevant operation.
var (
	// ErrNotFound: an id does not exist or does not belong to the
	// expected parent.
	ErrNotFound = errors.New("not found")

	// ErrValidation: a required field is missing or malformed.
	ErrValidation = errors.New("validation failed")

	// ErrConflict: a concurrent write already did this; re-read state.
	ErrConflict = errors.New("conflict")

	// ErrUpstream: the receipt parser or suggestion model failed in a way
	// no fallback could recover.
	ErrUpstream = errors.New("upstream failure")

	// ErrStore: the session store failed.
	ErrStore = errors.New("store failure")
)

// wrapStoreErr converts storage sentinel errors into the service taxonomy,
// keeping the original message chain for logs.
func wrapStoreErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, storage.ErrNotFound):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case errors.Is(err, storage.ErrConflict):
		return fmt.Errorf("%w: %v", ErrConflict, err)
	default:
		return fmt.Errorf("%w: %v", ErrStore, err)
	}
}

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
