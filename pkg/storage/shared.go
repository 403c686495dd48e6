package storage

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"sync"
)

// ErrNotPublished is returned by Attach when no dataset was published under
// the requested path.
var ErrNotPublished = errors.New("dataset not published to shared memory")

type sharedEntry struct {
	ds   *Dataset
	refs int
}

// region is the process-wide shared dataset registry, keyed by clean
// absolute path.
var region = struct {
	sync.Mutex
	entries map[string]*sharedEntry
}{entries: map[string]*sharedEntry{}}

func regionKey(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

// Publish loads the dataset at path into the shared region. Publishing an
// already published path returns the existing dataset.
func Publish(path string) (*Dataset, error) {
	key := regionKey(path)

	region.Lock()
	if e, ok := region.entries[key]; ok {
		region.Unlock()
		return e.ds, nil
	}
	region.Unlock()

	ds, err := Load(path)
	if err != nil {
		return nil, fmt.Errorf("publish: %w", err)
	}

	region.Lock()
	defer region.Unlock()
	if e, ok := region.entries[key]; ok {
		return e.ds, nil // lost a concurrent publish
	}
	region.entries[key] = &sharedEntry{ds: ds}
	log.Printf("Published dataset %s to shared memory", key)
	return ds, nil
}

// Attach returns the dataset published under path and records one more user.
func Attach(path string) (*Dataset, error) {
	key := regionKey(path)
	region.Lock()
	defer region.Unlock()
	e, ok := region.entries[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotPublished, key)
	}
	e.refs++
	return e.ds, nil
}

// Release drops one user recorded by Attach.
func Release(path string) {
	key := regionKey(path)
	region.Lock()
	defer region.Unlock()
	if e, ok := region.entries[key]; ok && e.refs > 0 {
		e.refs--
	}
}

// Unpublish removes the dataset from the shared region. Handles that are
// still attached keep using it; it returns the number of such handles.
func Unpublish(path string) int {
	key := regionKey(path)
	region.Lock()
	defer region.Unlock()
	e, ok := region.entries[key]
	if !ok {
		return 0
	}
	delete(region.entries, key)
	return e.refs
}
