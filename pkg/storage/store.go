// Package storage provides the key-value store the engine persists through
// and the typed repository built on top of it.
package storage

import (
	"errors"
	"sort"
	"strings"
)

// Key prefixes of the persisted layout.
const (
	CatalogPrefix = "catalog-"
	SprintPrefix  = "sprint-"
	EventPrefix   = "event-"
	ConfigKey     = "config-sprint"
)

// ErrKeyNotFound is returned by Get for an absent key.
var ErrKeyNotFound = errors.New("key not found")

// Entry is one key/value pair returned by Scan.
type Entry struct {
	Key   string
	Value []byte
}

// Store is an opaque key to JSON document mapping. Writes are atomic per key
// and last-write-wins.
type Store interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(key string) error
	// Scan returns every entry whose key starts with prefix, sorted by key.
	Scan(prefix string) ([]Entry, error)
	Close() error
}

func validKey(key string) error {
	if key == "" {
		return errors.New("key cannot be empty")
	}
	if strings.ContainsAny(key, `/\`) || strings.Contains(key, "..") {
		return errors.New("invalid key: " + key)
	}
	return nil
}

func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
}
