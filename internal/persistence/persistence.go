// Package persistence stores small per-admin preferences, such as the
// products view mode, in a key/value backend.
package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	apperrors "github.com/utafrali/catalogadmin/pkg/errors"
)

// Service is an asynchronous key/value store. Set returns the value as read
// back from storage after the write. Get returns an error matching
// apperrors.ErrNotFound when key is absent.
type Service interface {
	Set(ctx context.Context, key string, value []byte) ([]byte, error)
	Get(ctx context.Context, key string) ([]byte, error)
}

// Set stores value under key as JSON and returns the stored value decoded.
func Set[T any](ctx context.Context, svc Service, key string, value T) (T, error) {
	var zero T
	raw, err := json.Marshal(value)
	if err != nil {
		return zero, fmt.Errorf("encode %s: %w", key, err)
	}
	stored, err := svc.Set(ctx, key, raw)
	if err != nil {
		return zero, err
	}
	return decode[T](key, stored)
}

// Get loads the JSON value stored under key.
func Get[T any](ctx context.Context, svc Service, key string) (T, error) {
	raw, err := svc.Get(ctx, key)
	if err != nil {
		var zero T
		return zero, err
	}
	return decode[T](key, raw)
}

func decode[T any](key string, raw []byte) (T, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("decode %s: %w", key, err)
	}
	return v, nil
}

// IsNotFound reports whether err means the key is absent.
func IsNotFound(err error) bool {
	return errors.Is(err, apperrors.ErrNotFound)
}
