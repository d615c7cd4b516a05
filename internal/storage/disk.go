package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"hostel-portal/pkg/logger"
)

// DiskStorage keeps every key in one JSON object file. The whole document is
// cached in memory and rewritten atomically (temp file + rename) on change.
type DiskStorage struct {
	path  string
	mu    sync.RWMutex
	cache map[string]json.RawMessage
}

func NewDiskStorage(path string) *DiskStorage {
	return &DiskStorage{
		path:  path,
		cache: make(map[string]json.RawMessage),
	}
}

func (d *DiskStorage) Init() error {
	if err := os.MkdirAll(filepath.Dir(d.path), 0755); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageInit, err)
	}

	if err := d.load(); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageInit, err)
	}

	logger.Debugf("Local store loaded from %s (%d keys)", d.path, len(d.cache))
	return nil
}

func (d *DiskStorage) load() error {
	data, err := os.ReadFile(d.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}

	items := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidData, err)
	}

	d.mu.Lock()
	d.cache = items
	d.mu.Unlock()
	return nil
}

// flush must be called with d.mu held for writing.
func (d *DiskStorage) flush() error {
	tempPath := d.path + ".tmp"

	data, err := json.MarshalIndent(d.cache, "", "  ")
	if err != nil {
		return err
	}

	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return err
	}

	return os.Rename(tempPath, d.path)
}

func (d *DiskStorage) Get(key string) (json.RawMessage, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	v, ok := d.cache[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return append(json.RawMessage(nil), v...), nil
}

func (d *DiskStorage) Set(key string, value json.RawMessage) error {
	if !json.Valid(value) {
		return ErrInvalidData
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	prev, existed := d.cache[key]
	d.cache[key] = append(json.RawMessage(nil), value...)
	if err := d.flush(); err != nil {
		if existed {
			d.cache[key] = prev
		} else {
			delete(d.cache, key)
		}
		return fmt.Errorf("%w: %v", ErrFileOperation, err)
	}
	return nil
}

func (d *DiskStorage) Remove(key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	prev, ok := d.cache[key]
	if !ok {
		return ErrKeyNotFound
	}
	delete(d.cache, key)
	if err := d.flush(); err != nil {
		d.cache[key] = prev
		return fmt.Errorf("%w: %v", ErrFileOperation, err)
	}
	return nil
}

func (d *DiskStorage) Keys() ([]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	keys := make([]string, 0, len(d.cache))
	for k := range d.cache {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (d *DiskStorage) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.cache = make(map[string]json.RawMessage)
	return nil
}
