package storage

import (
	"encoding/json"
	"fmt"
)

// Store is a small persisted key/value record, the server-side stand-in for
// the browser's local storage. Values are raw JSON documents.
type Store interface {
	Get(key string) (json.RawMessage, error)
	Set(key string, value json.RawMessage) error
	Remove(key string) error
	Keys() ([]string, error)

	Init() error
	Close() error
}

// GetJSON decodes the value under key into out.
func GetJSON(s Store, key string, out interface{}) error {
	raw, err := s.Get(key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: key %s: %v", ErrInvalidData, key, err)
	}
	return nil
}

// SetJSON encodes value and stores it under key.
func SetJSON(s Store, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: key %s: %v", ErrInvalidData, key, err)
	}
	return s.Set(key, raw)
}
