package storage

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/vocdoni/demos-tally/types"
	"go.vocdoni.io/dvote/db/prefixeddb"
)

// BallotFilter selects ballots in listings. A nil IsCast matches every
// ballot.
type BallotFilter struct {
	IsCast *bool
}

func (f *BallotFilter) match(b *types.Ballot) bool {
	if f == nil || f.IsCast == nil {
		return true
	}
	return (b.CastPart() != nil) == *f.IsCast
}

// SetBallot stores a ballot of an existing election. The ballot URL is not
// stored, it is built by the data service.
func (s *Storage) SetBallot(slug string, b *types.Ballot) error {
	if b == nil {
		return fmt.Errorf("nil ballot")
	}
	if _, err := s.Election(slug); err != nil {
		return fmt.Errorf("ballot election %q: %w", slug, err)
	}
	key, err := serialKey(slug, b.SerialNumber)
	if err != nil {
		return err
	}
	stored := *b
	stored.URL = ""
	return s.setArtifact(ballotPrefix, key, &stored)
}

// Ballot retrieves a ballot by serial number.
func (s *Storage) Ballot(slug string, serial int) (*types.Ballot, error) {
	key, err := serialKey(slug, serial)
	if err != nil {
		return nil, err
	}
	b := &types.Ballot{}
	if err := s.getArtifact(ballotPrefix, key, b); err != nil {
		return nil, err
	}
	return b, nil
}

// Ballots returns up to limit ballots matching the filter, skipping the
// first offset matches, in serial number order. It also returns the total
// number of matching ballots. A limit lower than one means no limit.
func (s *Storage) Ballots(slug string, filter *BallotFilter, offset, limit int) ([]*types.Ballot, int, error) {
	prefix, err := slugKey(slug)
	if err != nil {
		return nil, 0, err
	}
	prefix = append(prefix, '/')
	var (
		matches  []*types.Ballot
		innerErr error
	)
	rd := prefixeddb.NewPrefixedReader(s.db, ballotPrefix)
	if err := rd.Iterate(prefix, func(_, v []byte) bool {
		b := &types.Ballot{}
		if err := decodeArtifact(v, b); err != nil {
			innerErr = fmt.Errorf("decode ballot: %w", err)
			return false
		}
		if filter.match(b) {
			matches = append(matches, b)
		}
		return true
	}); err != nil {
		return nil, 0, fmt.Errorf("iterate ballots: %w", err)
	}
	if innerErr != nil {
		return nil, 0, innerErr
	}
	// in-memory databases do not iterate in key order
	slices.SortFunc(matches, func(a, b *types.Ballot) int {
		return cmp.Compare(a.SerialNumber, b.SerialNumber)
	})
	count := len(matches)
	if offset >= count {
		return []*types.Ballot{}, count, nil
	}
	matches = matches[offset:]
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, count, nil
}

// BallotResult returns the result submitted for a ballot.
func (s *Storage) BallotResult(slug string, serial int) (*types.BallotResult, error) {
	key, err := serialKey(slug, serial)
	if err != nil {
		return nil, err
	}
	r := &types.BallotResult{}
	if err := s.getArtifact(ballotResultPrefix, key, r); err != nil {
		return nil, err
	}
	return r, nil
}

// SetBallotResult stores the result submitted for an existing ballot. The
// result must have one part per ballot part, with matching cast state.
func (s *Storage) SetBallotResult(slug string, serial int, r *types.BallotResult) error {
	s.globalLock.Lock()
	defer s.globalLock.Unlock()

	b, err := s.Ballot(slug, serial)
	if err != nil {
		return err
	}
	if len(r.Parts) != len(b.Parts) {
		return fmt.Errorf("%w: result has %d parts, ballot has %d", types.ErrConsistency, len(r.Parts), len(b.Parts))
	}
	for i, p := range r.Parts {
		if p == nil {
			return fmt.Errorf("%w: null result part %d", types.ErrConsistency, i)
		}
		if b.Parts[i].IsCast && len(b.Parts[i].Questions) > 0 && !p.IsCast() {
			return fmt.Errorf("%w: part %d is cast", types.ErrConsistency, i)
		}
		if !b.Parts[i].IsCast && p.IsCast() {
			return fmt.Errorf("%w: part %d is not cast", types.ErrConsistency, i)
		}
	}
	key, _ := serialKey(slug, serial)
	return s.setArtifact(ballotResultPrefix, key, r)
}
