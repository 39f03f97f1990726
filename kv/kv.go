// Package kv is the key-value document store the rest of the backend persists
// through: JSON documents addressed by string keys, with partial updates
// targeting dot-separated field paths. Updates to a single key are atomic,
// which is the only serialization the callers rely on: concurrent updates to
// different fields of the same document commute.
package kv

import (
	"context"
	"errors"
)

var (
	ErrNotFound = errors.New("kv: key not found")
	ErrExists   = errors.New("kv: key already exists")
)

type Bucket interface {
	// Get unmarshals the document at key into dest. Returns ErrNotFound if
	// the key is absent.
	Get(ctx context.Context, key string, dest any) error

	// Put atomically creates the document at key. Returns ErrExists if the
	// key is already taken; it never overwrites.
	Put(ctx context.Context, key string, doc any) error

	// Update merges the named field paths into the document at key, in one
	// atomic per-key operation. Values may be Trim() to delete a path or
	// Append(v) to push onto a list-valued path. Returns ErrNotFound if the
	// key is absent.
	Update(ctx context.Context, key string, fields map[string]any) error

	// Delete removes the document at key. Deleting an absent key is a no-op.
	Delete(ctx context.Context, key string) error
}

type trimValue struct{}

// Trim marks a field path for deletion in an Update call.
func Trim() any { return trimValue{} }

type appendValue struct{ v any }

// Append marks a field path for an atomic list append in an Update call.
func Append(v any) any { return appendValue{v: v} }
