package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/vocdoni/demos-tally/log"
	stg "github.com/vocdoni/demos-tally/storage"
	"github.com/vocdoni/demos-tally/types"
)

func ballotURL(r *http.Request, slug string, serial int) string {
	return electionURL(r, slug) + "/ballots/" + strconv.Itoa(serial)
}

func serialParam(r *http.Request) (int, error) {
	serial, err := strconv.Atoi(chi.URLParam(r, BallotURLParam))
	if err != nil || serial < 0 {
		return 0, ErrMalformedSerialNumber
	}
	return serial, nil
}

// pageURL returns the listing URL of the request with a different offset.
func pageURL(r *http.Request, offset int) *string {
	q := r.URL.Query()
	q.Set(OffsetParam, strconv.Itoa(offset))
	u := requestBaseURL(r) + r.URL.Path + "?" + q.Encode()
	return &u
}

// ballots lists the ballots of an election in serial number order
// GET /elections/{slug}/ballots?is_cast=&limit=&offset=&fields=
func (a *API) ballots(w http.ResponseWriter, r *http.Request) {
	fields, err := parseFields(r.URL.Query().Get(FieldsParam))
	if err != nil {
		ErrMalformedFields.WithErr(err).Write(w)
		return
	}
	limit, err := intParam(r, LimitParam, DefaultLimit)
	if err != nil {
		writeError(w, err)
		return
	}
	if limit == 0 {
		limit = DefaultLimit
	}
	limit = min(limit, MaxLimit)
	offset, err := intParam(r, OffsetParam, 0)
	if err != nil {
		writeError(w, err)
		return
	}
	filter := &stg.BallotFilter{}
	if s := r.URL.Query().Get(IsCastParam); s != "" {
		isCast, err := strconv.ParseBool(s)
		if err != nil {
			ErrMalformedParam.Withf("%s must be a boolean", IsCastParam).Write(w)
			return
		}
		filter.IsCast = &isCast
	}

	slug := chi.URLParam(r, ElectionURLParam)
	if _, err := a.storage.Election(slug); err != nil {
		storageError(err, ErrElectionNotFound).Write(w)
		return
	}
	ballots, count, err := a.storage.Ballots(slug, filter, offset, limit)
	if err != nil {
		storageError(err, ErrElectionNotFound).Write(w)
		return
	}

	page := &BallotsPage{Count: count, Results: make([]json.RawMessage, 0, len(ballots))}
	for _, b := range ballots {
		b.URL = ballotURL(r, slug, b.SerialNumber)
		data, err := json.Marshal(b)
		if err != nil {
			ErrMarshalingServerJSONFailed.WithErr(err).Write(w)
			return
		}
		if data, err = fields.filterJSON(data); err != nil {
			ErrMarshalingServerJSONFailed.WithErr(err).Write(w)
			return
		}
		page.Results = append(page.Results, data)
	}
	if offset+limit < count {
		page.Next = pageURL(r, offset+limit)
	}
	if offset > 0 {
		page.Previous = pageURL(r, max(0, offset-limit))
	}
	httpWriteJSON(w, page)
}

// validateBallot checks a ballot against the shape of its election.
func validateBallot(e *types.Election, b *types.Ballot) error {
	if b == nil || len(b.Parts) == 0 {
		return fmt.Errorf("ballot without parts")
	}
	cast := 0
	for i, p := range b.Parts {
		if p == nil || p.Tag == "" {
			return fmt.Errorf("ballot %d part %d without tag", b.SerialNumber, i)
		}
		if p.IsCast {
			cast++
		}
		for _, q := range p.Questions {
			if q == nil || q.Index < 0 || q.Index >= len(e.Questions) {
				return fmt.Errorf("ballot %d part %s has an invalid question", b.SerialNumber, p.Tag)
			}
			if len(q.Options) != e.Questions[q.Index].OptionCount {
				return fmt.Errorf("ballot %d part %s question %d has %d options, expected %d",
					b.SerialNumber, p.Tag, q.Index, len(q.Options), e.Questions[q.Index].OptionCount)
			}
		}
	}
	if cast > 1 {
		return fmt.Errorf("ballot %d has %d cast parts", b.SerialNumber, cast)
	}
	return nil
}

// newBallots stores a list of ballots of an election
// POST /elections/{slug}/ballots
func (a *API) newBallots(w http.ResponseWriter, r *http.Request) {
	var ballots []*types.Ballot
	if err := json.NewDecoder(r.Body).Decode(&ballots); err != nil {
		ErrMalformedBody.Withf("could not decode request body: %v", err).Write(w)
		return
	}
	slug := chi.URLParam(r, ElectionURLParam)
	e, err := a.storage.Election(slug)
	if err != nil {
		storageError(err, ErrElectionNotFound).Write(w)
		return
	}
	for _, b := range ballots {
		if err := validateBallot(e, b); err != nil {
			ErrMalformedBody.WithErr(err).Write(w)
			return
		}
	}
	for _, b := range ballots {
		if err := a.storage.SetBallot(slug, b); err != nil {
			storageError(err, ErrElectionNotFound).Write(w)
			return
		}
	}
	log.Infow("new ballots", "slug", slug, "count", len(ballots))
	httpWriteJSON(w, &NewBallotsResponse{Stored: len(ballots)})
}

// ballot returns a single ballot
// GET /elections/{slug}/ballots/{serial}?fields=
func (a *API) ballot(w http.ResponseWriter, r *http.Request) {
	fields, err := parseFields(r.URL.Query().Get(FieldsParam))
	if err != nil {
		ErrMalformedFields.WithErr(err).Write(w)
		return
	}
	serial, err := serialParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	slug := chi.URLParam(r, ElectionURLParam)
	b, err := a.storage.Ballot(slug, serial)
	if err != nil {
		storageError(err, ErrBallotNotFound).Write(w)
		return
	}
	b.URL = ballotURL(r, slug, serial)
	data, err := json.Marshal(b)
	if err != nil {
		ErrMarshalingServerJSONFailed.WithErr(err).Write(w)
		return
	}
	if data, err = fields.filterJSON(data); err != nil {
		ErrMarshalingServerJSONFailed.WithErr(err).Write(w)
		return
	}
	httpWriteRawJSON(w, data)
}

// submitBallotResult stores the result of a ballot
// PATCH /elections/{slug}/ballots/{serial}
func (a *API) submitBallotResult(w http.ResponseWriter, r *http.Request) {
	serial, err := serialParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	res := &types.BallotResult{}
	if err := json.NewDecoder(r.Body).Decode(res); err != nil {
		ErrMalformedBody.Withf("could not decode request body: %v", err).Write(w)
		return
	}
	slug := chi.URLParam(r, ElectionURLParam)
	if err := a.storage.SetBallotResult(slug, serial, res); err != nil {
		storageError(err, ErrBallotNotFound).Write(w)
		return
	}
	log.Debugw("ballot result submitted", "slug", slug, "serial", serial)
	httpWriteOK(w)
}

// ballotResult returns the submitted result of a ballot
// GET /elections/{slug}/ballots/{serial}/result
func (a *API) ballotResult(w http.ResponseWriter, r *http.Request) {
	serial, err := serialParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	res, err := a.storage.BallotResult(chi.URLParam(r, ElectionURLParam), serial)
	if err != nil {
		storageError(err, ErrResultNotFound).Write(w)
		return
	}
	httpWriteJSON(w, res)
}
