package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrCorruptCache marks a cache entry that exists but cannot be decoded.
// Callers must treat it as a cache miss, never as a user-visible failure.
type ErrCorruptCache struct {
	Path string
	Err  error
}

func (e ErrCorruptCache) Error() string {
	return fmt.Sprintf("corrupt cache entry %s: %v", e.Path, e.Err)
}

func (e ErrCorruptCache) Unwrap() error {
	return e.Err
}

func NewCorruptCache(path string, err error) error {
	return ErrCorruptCache{Path: path, Err: err}
}

func IsCorruptCache(err error) bool {
	var corrupt ErrCorruptCache
	return stderrors.As(err, &corrupt)
}

// ErrCacheMiss means no entry exists at all.
type ErrCacheMiss struct {
	Path string
}

func (e ErrCacheMiss) Error() string {
	return fmt.Sprintf("no cache entry at %s", e.Path)
}

func NewCacheMiss(path string) error {
	return ErrCacheMiss{Path: path}
}

func IsCacheMiss(err error) bool {
	var miss ErrCacheMiss
	return stderrors.As(err, &miss)
}

// ErrCacheWrite wraps failures persisting a snapshot.
type ErrCacheWrite struct {
	Path string
	Err  error
}

func (e ErrCacheWrite) Error() string {
	return fmt.Sprintf("failed to write cache entry %s: %v", e.Path, e.Err)
}

func (e ErrCacheWrite) Unwrap() error {
	return e.Err
}

func NewCacheWrite(path string, err error) error {
	return ErrCacheWrite{Path: path, Err: err}
}
