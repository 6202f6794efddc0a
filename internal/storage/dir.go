package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// DirStore serves assets from a root directory on the filesystem, standing
// in for the embedded module's mounted SD card / flash partition.
type DirStore struct {
	root string
}

// NewDirStore returns a Store rooted at dir. dir is not validated here;
// IsMounted reports whether it currently exists and is a directory.
func NewDirStore(dir string) *DirStore {
	return &DirStore{root: dir}
}

// IsMounted reports whether the root directory currently exists.
func (d *DirStore) IsMounted() bool {
	info, err := os.Stat(d.root)
	return err == nil && info.IsDir()
}

// Open opens path relative to the store root for reading.
func (d *DirStore) Open(path string) (Reader, error) {
	full := filepath.Join(d.root, filepath.FromSlash(path))
	f, err := os.Open(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("storage: open %s: %w", path, err)
	}
	return &fileReader{f: f}, nil
}

type fileReader struct {
	f *os.File
}

func (r *fileReader) Read(p []byte) (int, error) { return r.f.Read(p) }
func (r *fileReader) Close() error                { return r.f.Close() }

func (r *fileReader) SeekSet(offset int64) error {
	_, err := r.f.Seek(offset, io.SeekStart)
	return err
}
