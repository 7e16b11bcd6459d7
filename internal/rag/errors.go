package rag

import (
	"errors"
	"fmt"
)

var ErrInvalidChunking = errors.New("chunk size must be greater than overlap and overlap must not be negative")

// ConfigurationError reports a missing or invalid setting found at startup.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration %s: %s", e.Field, e.Reason)
}

type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("chunk storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

type EmbeddingError struct {
	Err error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding failed: %v", e.Err)
}

func (e *EmbeddingError) Unwrap() error {
	return e.Err
}

func IsStorageError(err error) bool {
	var target *StorageError
	return errors.As(err, &target)
}

func IsEmbeddingError(err error) bool {
	var target *EmbeddingError
	return errors.As(err, &target)
}
