package storage

import (
	"fmt"
	"slices"

	"github.com/vocdoni/demos-tally/types"
	"go.vocdoni.io/dvote/db/prefixeddb"
)

// Election retrieves an election. It returns ErrNotFound if it does not exist.
func (s *Storage) Election(slug string) (*types.Election, error) {
	key, err := slugKey(slug)
	if err != nil {
		return nil, err
	}
	e := &types.Election{}
	if err := s.getArtifact(electionPrefix, key, e); err != nil {
		return nil, err
	}
	return e, nil
}

// SetElection stores an election under its slug.
func (s *Storage) SetElection(e *types.Election) error {
	if e == nil {
		return fmt.Errorf("nil election")
	}
	key, err := slugKey(e.Slug)
	if err != nil {
		return err
	}
	return s.setArtifact(electionPrefix, key, e)
}

// ListElections returns the slugs of the stored elections.
func (s *Storage) ListElections() ([]string, error) {
	var slugs []string
	rd := prefixeddb.NewPrefixedReader(s.db, electionPrefix)
	if err := rd.Iterate(nil, func(k, _ []byte) bool {
		slugs = append(slugs, string(k))
		return true
	}); err != nil {
		return nil, fmt.Errorf("iterate elections: %w", err)
	}
	slices.Sort(slugs)
	return slugs, nil
}

// ElectionResult returns the tally result submitted for an election.
func (s *Storage) ElectionResult(slug string) (*types.ElectionResult, error) {
	key, err := slugKey(slug)
	if err != nil {
		return nil, err
	}
	r := &types.ElectionResult{}
	if err := s.getArtifact(electionResultPrefix, key, r); err != nil {
		return nil, err
	}
	return r, nil
}

// SetElectionResult stores the tally result of an existing election. A
// result can only be stored once.
func (s *Storage) SetElectionResult(slug string, r *types.ElectionResult) error {
	s.globalLock.Lock()
	defer s.globalLock.Unlock()

	e, err := s.Election(slug)
	if err != nil {
		return err
	}
	if len(r.Questions) != len(e.Questions) {
		return fmt.Errorf("%w: result has %d questions, election has %d",
			types.ErrConsistency, len(r.Questions), len(e.Questions))
	}
	if _, err := s.ElectionResult(slug); err == nil {
		return fmt.Errorf("%w: election result already submitted", types.ErrConsistency)
	}
	key, _ := slugKey(slug)
	return s.setArtifact(electionResultPrefix, key, r)
}
