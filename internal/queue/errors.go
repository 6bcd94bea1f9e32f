package queue

import (
	"errors"

	"github.com/mahirjain10/s3-thumbnailer/internal/types"
)

type ProcessingError struct {
	Err     error
	Requeue bool
}

func (p ProcessingError) Error() string {
	return p.Err.Error()
}

func (p ProcessingError) Unwrap() error {
	return p.Err
}

// ShouldRequeue reports whether a failed delivery may succeed on redelivery.
// Only store faults other than a missing object qualify; bad events and bad
// images go to the dead-letter exchange.
func ShouldRequeue(err error) bool {
	var storeErr *types.StoreError
	if !errors.As(err, &storeErr) {
		return false
	}
	return !errors.Is(err, types.ErrNotFound)
}
