package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/Benny93/prefill-go/internal/prefill"
)

// Key prefixes for different data types
const (
	prefixMappings = "m:" // form mapping set
	prefixRevision = "v:" // form revision id
)

// BadgerBackend is a BadgerDB-backed storage implementation.
type BadgerBackend struct {
	db          *badger.DB
	initialized bool
	readOnly    bool
	mu          sync.RWMutex
	formCount   int
}

// NewBadgerBackend creates a new BadgerDB backend.
func NewBadgerBackend() *BadgerBackend {
	return &BadgerBackend{}
}

// Initialize opens or creates the BadgerDB database at the given path.
func (b *BadgerBackend) Initialize(path string, readOnly bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	opts := badger.DefaultOptions(path).
		WithNumCompactors(2).
		WithNumMemtables(5).
		WithLoggingLevel(badger.ERROR) // Suppress INFO/WARNING logs

	if readOnly {
		opts = opts.WithReadOnly(true)
	}

	var err error
	b.db, err = badger.Open(opts)
	if err != nil {
		return fmt.Errorf("opening badger DB: %w", err)
	}

	b.initialized = true
	b.readOnly = readOnly

	return b.countForms()
}

// countForms recounts the stored form configurations.
func (b *BadgerBackend) countForms() error {
	b.formCount = 0

	return b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixMappings)
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			b.formCount++
		}
		return nil
	})
}

// Close releases all resources held by the backend.
func (b *BadgerBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.db == nil {
		return nil
	}

	err := b.db.Close()
	b.db = nil
	b.initialized = false
	return err
}

// Persist implements MappingBackend. The mapping set and its revision are
// written in one transaction.
func (b *BadgerBackend) Persist(ctx context.Context, formID string, mappings map[string]prefill.Mapping) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.initialized {
		return ErrNotInitialized
	}
	if b.readOnly {
		return errReadOnly(formID)
	}
	if mappings == nil {
		mappings = map[string]prefill.Mapping{}
	}

	data, err := json.Marshal(mappings)
	if err != nil {
		return fmt.Errorf("marshaling mappings: %w", err)
	}

	txn := b.db.NewTransaction(true)
	defer txn.Discard()

	_, err = txn.Get(b.mappingsKey(formID))
	isNew := errors.Is(err, badger.ErrKeyNotFound)
	if err != nil && !isNew {
		return fmt.Errorf("getting mappings: %w", err)
	}

	if err := txn.Set(b.mappingsKey(formID), data); err != nil {
		return fmt.Errorf("setting mappings: %w", err)
	}
	if err := txn.Set(b.revisionKey(formID), []byte(uuid.NewString())); err != nil {
		return fmt.Errorf("setting revision: %w", err)
	}

	if err := txn.Commit(); err != nil {
		return fmt.Errorf("committing mappings for form %s: %w", formID, err)
	}
	if isNew {
		b.formCount++
	}
	return nil
}

// LoadAll implements MappingBackend.
func (b *BadgerBackend) LoadAll(ctx context.Context) (map[string]map[string]prefill.Mapping, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.initialized {
		return nil, ErrNotInitialized
	}

	out := make(map[string]map[string]prefill.Mapping)

	txn := b.db.NewTransaction(false)
	defer txn.Discard()

	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefixMappings)
	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Rewind(); it.Valid(); it.Next() {
		item := it.Item()
		formID := strings.TrimPrefix(string(item.Key()), prefixMappings)

		var mappings map[string]prefill.Mapping
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &mappings)
		}); err != nil {
			return nil, fmt.Errorf("unmarshaling mappings for form %s: %w", formID, err)
		}
		if mappings == nil {
			mappings = map[string]prefill.Mapping{}
		}
		out[formID] = mappings
	}

	return out, nil
}

// Revision implements MappingBackend.
func (b *BadgerBackend) Revision(ctx context.Context, formID string) (string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.initialized {
		return "", ErrNotInitialized
	}

	txn := b.db.NewTransaction(false)
	defer txn.Discard()

	item, err := txn.Get(b.revisionKey(formID))
	if err == badger.ErrKeyNotFound {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("getting revision: %w", err)
	}

	val, err := item.ValueCopy(nil)
	if err != nil {
		return "", fmt.Errorf("reading revision: %w", err)
	}
	return string(val), nil
}

// FormCount returns the number of stored form configurations.
func (b *BadgerBackend) FormCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.formCount
}

func (b *BadgerBackend) mappingsKey(formID string) []byte {
	return []byte(prefixMappings + formID)
}

func (b *BadgerBackend) revisionKey(formID string) []byte {
	return []byte(prefixRevision + formID)
}
