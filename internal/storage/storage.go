// Package storage abstracts the persistent store the engine reads WAV
// assets from. The engine only needs to open a path for reading and seek
// within it; mounting/formatting is the caller's concern.
package storage

import (
	"errors"
	"fmt"
	"io"
)

// ErrNotFound is returned by Open when path does not exist in the store.
var ErrNotFound = errors.New("storage: not found")

// SoundAssetPath returns the store-relative path of the WAV asset for
// soundIndex, the one layout both the command adapter's storage lookup and
// anything that seeds the store agree on.
func SoundAssetPath(soundIndex uint16) string {
	return fmt.Sprintf("sounds/%04d.wav", soundIndex)
}

// Reader is a seekable byte source for one opened asset.
type Reader interface {
	io.Reader
	io.Closer
	// SeekSet repositions the reader to an absolute byte offset.
	SeekSet(offset int64) error
}

// Store opens assets by path and reports whether the backing medium is
// mounted/available.
type Store interface {
	Open(path string) (Reader, error)
	IsMounted() bool
}
