// Package tally runs the trustee side of the tally: it accumulates the
// decommitments of every cast ballot, answers the zero knowledge proofs of
// cast parts and opens the not cast parts, using a pool of workers over
// disjoint ballot ranges.
package tally

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/vocdoni/demos-tally/types"
)

const (
	// DefaultPageSize is the number of ballots requested per page.
	DefaultPageSize = 100
	// DefaultWorkers is used when the configuration does not set a number
	// of workers.
	DefaultWorkers = 1
)

const (
	electionFields = "ballots_url,coins,question_count,questions(option_count,blank_option_count)"
	ballotFields   = "url,serial_number,parts(tag,is_cast,questions(index,options(index,is_voted)))"
)

// ErrConfig is returned for invalid configurations.
var ErrConfig = fmt.Errorf("%w: invalid tally configuration", types.ErrFormat)

// DataService is the remote service holding the election and its ballots.
// URLs are absolute; params are key/value pairs added to the query string.
type DataService interface {
	Get(ctx context.Context, url string, params []string, out any) error
	Patch(ctx context.Context, url string, body any) error
}

// Config is the configuration of a tally run.
type Config struct {
	// ElectionURL is the election resource of the data service.
	ElectionURL string
	// SecretKey is the base64 encoded trustee key.
	SecretKey string
	Workers   int
	PageSize  int
	// Progress, if set, is called with the number of ballots processed
	// since the last call. It is called concurrently by every worker.
	Progress func(n int)
}

// key validates the configuration and returns the decoded trustee key.
func (c *Config) key() ([]byte, error) {
	if c.ElectionURL == "" {
		return nil, fmt.Errorf("%w: missing election url", ErrConfig)
	}
	k := strings.TrimSpace(c.SecretKey)
	if k == "" {
		return nil, fmt.Errorf("%w: missing secret key", ErrConfig)
	}
	key, err := base64.StdEncoding.DecodeString(k)
	if err != nil {
		return nil, fmt.Errorf("%w: secret key is not valid base64", ErrConfig)
	}
	if c.Workers < 0 || c.PageSize < 0 {
		return nil, fmt.Errorf("%w: negative workers or page size", ErrConfig)
	}
	return key, nil
}

func (c *Config) workers() int {
	if c.Workers == 0 {
		return DefaultWorkers
	}
	return c.Workers
}

func (c *Config) pageSize() int {
	if c.PageSize == 0 {
		return DefaultPageSize
	}
	return c.PageSize
}
