package types

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound matches a StoreError raised for a missing object.
	ErrNotFound = errors.New("object not found")
	// ErrInvalidEvent is returned for trigger payloads that carry no usable record.
	ErrInvalidEvent = errors.New("invalid event")
)

// DecodeError means the bytes are not an image we can read, or the image is degenerate.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

type EncodeError struct {
	Format string
	Err    error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode %s: %v", e.Format, e.Err)
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}

// StoreError wraps any failure talking to the object store.
type StoreError struct {
	Op       string
	Bucket   string
	Key      string
	NotFound bool
	Err      error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s s3://%s/%s: %v", e.Op, e.Bucket, e.Key, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func (e *StoreError) Is(target error) bool {
	return target == ErrNotFound && e.NotFound
}
