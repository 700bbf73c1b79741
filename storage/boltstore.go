// Package storage persists ledger state in a bbolt database: a
// single-slot snapshot of the full aggregate plus an append-only
// journal of observable events for external indexers.
package storage

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"go.etcd.io/bbolt"

	"github.com/refnetorg/refledger-go/ledger"
)

var (
	bucketState  = []byte("state")
	bucketEvents = []byte("events")

	keySnapshot = []byte("snapshot")
)

// BoltStore wraps a bbolt database holding the ledger snapshot and the
// event journal.
type BoltStore struct {
	db *bbolt.DB
}

// Open opens or creates the bbolt database at dbPath. The parent
// directory is created if it does not exist.
func Open(dbPath string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("storage: create directory: %w", err)
	}
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("storage: open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketState, bucketEvents} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("storage: create bucket %q: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

// Close closes the underlying database.
func (s *BoltStore) Close() error { return s.db.Close() }

// SaveSnapshot replaces the stored snapshot. Called after every
// successful ledger operation; bbolt makes the replacement atomic.
func (s *BoltStore) SaveSnapshot(snap *ledger.Snapshot) error {
	if snap == nil {
		return fmt.Errorf("%w: snapshot", ErrNilParam)
	}
	data, err := encodeGob(snap)
	if err != nil {
		return fmt.Errorf("storage: encode snapshot: %w", err)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketState).Put(keySnapshot, data)
	})
}

// LoadSnapshot returns the stored snapshot, or ErrNoSnapshot when the
// store has never been written.
func (s *BoltStore) LoadSnapshot() (*ledger.Snapshot, error) {
	var snap *ledger.Snapshot
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketState).Get(keySnapshot)
		if data == nil {
			return ErrNoSnapshot
		}
		snap = &ledger.Snapshot{}
		if err := decodeGob(data, snap); err != nil {
			return fmt.Errorf("storage: decode snapshot: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// AppendEvent adds one event to the journal under the next sequence
// number.
func (s *BoltStore) AppendEvent(e ledger.Event) error {
	data, err := encodeGob(&e)
	if err != nil {
		return fmt.Errorf("storage: encode event: %w", err)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketEvents)
		seq, err := b.NextSequence()
		if err != nil {
			return fmt.Errorf("storage: next sequence: %w", err)
		}
		return b.Put(seqKey(seq), data)
	})
}

// Events returns the full journal in append order.
func (s *BoltStore) Events() ([]ledger.Event, error) {
	var out []ledger.Event
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketEvents).ForEach(func(_, v []byte) error {
			var e ledger.Event
			if err := decodeGob(v, &e); err != nil {
				return fmt.Errorf("storage: decode event: %w", err)
			}
			out = append(out, e)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Journal returns a ledger.Recorder that appends every event to the
// store. Append failures do not reach the ledger (events are advisory,
// never load-bearing); onError, if non-nil, observes them.
func (s *BoltStore) Journal(onError func(error)) ledger.Recorder {
	return &journalRecorder{store: s, onError: onError}
}

type journalRecorder struct {
	store   *BoltStore
	onError func(error)
}

func (j *journalRecorder) Record(e ledger.Event) {
	if err := j.store.AppendEvent(e); err != nil && j.onError != nil {
		j.onError(err)
	}
}

// seqKey encodes a journal sequence number as an 8-byte big-endian key
// for sorted iteration.
func seqKey(seq uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, seq)
	return k
}

// encodeGob serializes a value using gob encoding.
func encodeGob(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decodeGob deserializes gob-encoded data into a value.
func decodeGob(data []byte, v interface{}) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}
