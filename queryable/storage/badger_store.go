// Package storage provides a BadgerDB-backed record source. Records persist
// as JSON values under type-prefixed keys; navigations persist as references
// and resolve lazily, cached per store session so each entity materializes
// once and record identity holds across fetches.
package storage

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"

	"github.com/boginw/jsonapi/queryable/executor"
)

// BadgerStore implements executor.Source over BadgerDB.
type BadgerStore struct {
	db *badger.DB

	mu    sync.Mutex
	cache map[string]*executor.Record // storage/id -> materialized record
}

// Open opens or creates a store at the given path.
func Open(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // Disable BadgerDB logs

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}
	return &BadgerStore{
		db:    db,
		cache: make(map[string]*executor.Record),
	}, nil
}

// Close closes the underlying database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// Put persists records, including their navigation links as references.
// Linked records must themselves be persisted for navigations to resolve.
func (s *BadgerStore) Put(records ...*executor.Record) error {
	return s.db.Update(func(txn *badger.Txn) error {
		for _, rec := range records {
			if rec.ID == "" {
				return fmt.Errorf("record of type %s has no id", rec.Storage)
			}
			encoded, err := json.Marshal(toWire(rec))
			if err != nil {
				return fmt.Errorf("encode record %s: %w", rec, err)
			}
			if err := txn.Set(recordKey(rec.Storage, rec.ID), encoded); err != nil {
				return err
			}
		}
		return nil
	})
}

// Records implements executor.Source with a prefix scan over one storage
// type.
func (s *BadgerStore) Records(storage string) ([]*executor.Record, error) {
	var records []*executor.Record
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		prefix := []byte("r/" + storage + "/")
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var w wireRecord
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &w)
			}); err != nil {
				return err
			}
			rec, err := s.materialize(&w)
			if err != nil {
				return err
			}
			records = append(records, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Related implements executor.Source. The first resolution of a navigation
// fetches the referenced records and links them into the record, so repeated
// traversals and include prefetches hit the cache.
func (s *BadgerStore) Related(rec *executor.Record, navigation string) ([]*executor.Record, bool, error) {
	if related, toMany, ok := rec.Related(navigation); ok {
		return related, toMany, nil
	}

	w, err := s.load(rec.Storage, rec.ID)
	if err != nil {
		return nil, false, err
	}
	rel, ok := w.Rels[navigation]
	if !ok {
		// Unknown navigation resolves as an empty to-one.
		rec.LinkOne(navigation, nil)
		return nil, false, nil
	}

	targets := make([]*executor.Record, 0, len(rel.Refs))
	for _, ref := range rel.Refs {
		target, err := s.fetch(ref.Storage, ref.ID)
		if err != nil {
			return nil, false, err
		}
		targets = append(targets, target)
	}
	if rel.ToMany {
		rec.LinkMany(navigation, targets...)
	} else if len(targets) > 0 {
		rec.LinkOne(navigation, targets[0])
	} else {
		rec.LinkOne(navigation, nil)
	}

	related, toMany, _ := rec.Related(navigation)
	return related, toMany, nil
}

func (s *BadgerStore) fetch(storage, id string) (*executor.Record, error) {
	w, err := s.load(storage, id)
	if err != nil {
		return nil, err
	}
	return s.materialize(w)
}

func (s *BadgerStore) load(storage, id string) (*wireRecord, error) {
	var w wireRecord
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(recordKey(storage, id))
		if err != nil {
			return fmt.Errorf("record %s/%s: %w", storage, id, err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &w)
		})
	})
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// materialize returns the session-unique record for a wire record, creating
// it with its scalars on first sight. Navigations stay unresolved until
// Related asks for them.
func (s *BadgerStore) materialize(w *wireRecord) (*executor.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := w.Storage + "/" + w.ID
	if rec, ok := s.cache[key]; ok {
		return rec, nil
	}

	rec := executor.NewRecord(w.Storage, w.ID)
	for prop, wv := range w.Attrs {
		v, err := decodeValue(wv)
		if err != nil {
			return nil, fmt.Errorf("record %s: property %s: %w", key, prop, err)
		}
		rec.Set(prop, v)
	}
	s.cache[key] = rec
	return rec, nil
}

func toWire(rec *executor.Record) *wireRecord {
	w := &wireRecord{
		Storage: rec.Storage,
		ID:      rec.ID,
		Attrs:   make(map[string]wireValue, len(rec.Attrs)),
		Rels:    make(map[string]wireRel),
	}
	for prop, v := range rec.Attrs {
		w.Attrs[prop] = encodeValue(v)
	}
	for _, nav := range rec.Navigations() {
		related, toMany, _ := rec.Related(nav)
		rel := wireRel{ToMany: toMany, Refs: make([]wireRef, 0, len(related))}
		for _, target := range related {
			rel.Refs = append(rel.Refs, wireRef{Storage: target.Storage, ID: target.ID})
		}
		w.Rels[nav] = rel
	}
	return w
}

func recordKey(storage, id string) []byte {
	return []byte("r/" + storage + "/" + id)
}
