// Package store is the key-value capability shared by question generation,
// the test catalog and the attempt runner.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Well-known keys.
const (
	// KeyQuestions holds the last parsed question sequence.
	KeyQuestions = "qcm_questions"
	// KeyTests holds the ordered test catalog.
	KeyTests = "tests"
)

// ErrNotFound is returned by Get when the key is absent.
var ErrNotFound = errors.New("store: key not found")

// Store persists opaque values by key.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Locker is implemented by stores that can serialize writers across processes.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func() error, err error)
}

// GetJSON decodes the value under key into dst.
func GetJSON(ctx context.Context, s Store, key string, dst any) error {
	data, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

// PutJSON encodes v and stores it under key.
func PutJSON(ctx context.Context, s Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Put(ctx, key, data)
}

// Scoped returns a view of s whose keys are prefixed with namespace.
func Scoped(s Store, namespace string) Store {
	if namespace == "" {
		return s
	}
	return &scoped{inner: s, prefix: namespace + ":"}
}

type scoped struct {
	inner  Store
	prefix string
}

func (s *scoped) Get(ctx context.Context, key string) ([]byte, error) {
	return s.inner.Get(ctx, s.prefix+key)
}

func (s *scoped) Put(ctx context.Context, key string, value []byte) error {
	return s.inner.Put(ctx, s.prefix+key, value)
}

func (s *scoped) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, s.prefix+key)
}

func (s *scoped) Lock(ctx context.Context, key string) (func() error, error) {
	if l, ok := s.inner.(Locker); ok {
		return l.Lock(ctx, s.prefix+key)
	}
	return func() error { return nil }, nil
}
