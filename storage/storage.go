// storage package keeps the data served by the bulletin board data service
// in a prefixed key-value store. The following prefixes are used:
//   - 'e/' for elections, keyed by slug
//   - 'b/' for ballots, keyed by slug and serial number
//   - 'r/' for the results submitted for every ballot
//   - 't/' for the tally results of elections
//
// Ballot keys are ordered by serial number, so listings are stable between
// requests.
package storage

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/prefixeddb"
)

var (
	// Prefixes for the keys in the database.
	electionPrefix       = []byte("e/")
	ballotPrefix         = []byte("b/")
	ballotResultPrefix   = []byte("r/")
	electionResultPrefix = []byte("t/")
)

var (
	// ErrNotFound is returned when an artifact is not stored.
	ErrNotFound = errors.New("not found")
	// ErrInvalidKey is returned for empty slugs or slugs containing the
	// key separator.
	ErrInvalidKey = errors.New("invalid key")
)

// Storage wraps the database with typed accessors for every artifact.
type Storage struct {
	db         db.Database
	globalLock sync.Mutex
}

// New creates a new Storage instance.
func New(db db.Database) *Storage {
	return &Storage{db: db}
}

// Close closes the storage.
func (s *Storage) Close() {
	s.db.Close()
}

// setArtifact encodes and stores an artifact under prefix and key.
func (s *Storage) setArtifact(prefix, key []byte, artifact any) error {
	val, err := encodeArtifact(artifact)
	if err != nil {
		return fmt.Errorf("encode artifact: %w", err)
	}
	wTx := prefixeddb.NewPrefixedWriteTx(s.db.WriteTx(), prefix)
	if err := wTx.Set(key, val); err != nil {
		wTx.Discard()
		return err
	}
	return wTx.Commit()
}

// getArtifact decodes the artifact stored under prefix and key into out.
// It returns ErrNotFound if there is none.
func (s *Storage) getArtifact(prefix, key []byte, out any) error {
	rd := prefixeddb.NewPrefixedReader(s.db, prefix)
	data, err := rd.Get(key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return ErrNotFound
		}
		return err
	}
	if data == nil {
		return ErrNotFound
	}
	if err := decodeArtifact(data, out); err != nil {
		return fmt.Errorf("decode artifact: %w", err)
	}
	return nil
}

// slugKey returns the key of an election.
func slugKey(slug string) ([]byte, error) {
	if slug == "" {
		return nil, ErrInvalidKey
	}
	for i := 0; i < len(slug); i++ {
		if slug[i] == '/' {
			return nil, ErrInvalidKey
		}
	}
	return []byte(slug), nil
}

// serialKey returns the key of a ballot: the election slug, a separator
// and the big-endian serial number.
func serialKey(slug string, serial int) ([]byte, error) {
	k, err := slugKey(slug)
	if err != nil {
		return nil, err
	}
	if serial < 0 {
		return nil, fmt.Errorf("%w: negative serial number", ErrInvalidKey)
	}
	k = append(k, '/')
	return binary.BigEndian.AppendUint64(k, uint64(serial)), nil
}
