package api

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/vocdoni/demos-tally/log"
	"github.com/vocdoni/demos-tally/types"
)

func electionURL(r *http.Request, slug string) string {
	return requestBaseURL(r) + "/elections/" + url.PathEscape(slug)
}

// elections lists the slugs of the stored elections
// GET /elections
func (a *API) elections(w http.ResponseWriter, r *http.Request) {
	slugs, err := a.storage.ListElections()
	if err != nil {
		ErrGenericInternalServerError.WithErr(err).Write(w)
		return
	}
	if slugs == nil {
		slugs = []string{}
	}
	httpWriteJSON(w, &ElectionList{Elections: slugs})
}

// election returns an election, optionally restricted to the requested
// fields
// GET /elections/{slug}?fields=...
func (a *API) election(w http.ResponseWriter, r *http.Request) {
	fields, err := parseFields(r.URL.Query().Get(FieldsParam))
	if err != nil {
		ErrMalformedFields.WithErr(err).Write(w)
		return
	}
	slug := chi.URLParam(r, ElectionURLParam)
	e, err := a.storage.Election(slug)
	if err != nil {
		storageError(err, ErrElectionNotFound).Write(w)
		return
	}
	e.URL = electionURL(r, slug)
	e.BallotsURL = e.URL + "/ballots"
	data, err := json.Marshal(e)
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

// newElection stores an election
// POST /elections/{slug}
func (a *API) newElection(w http.ResponseWriter, r *http.Request) {
	e := &types.Election{}
	if err := json.NewDecoder(r.Body).Decode(e); err != nil {
		ErrMalformedBody.Withf("could not decode request body: %v", err).Write(w)
		return
	}
	e.Slug = chi.URLParam(r, ElectionURLParam)
	if e.QuestionCount == 0 {
		e.QuestionCount = len(e.Questions)
	}
	// urls are built per request, never stored
	e.URL = ""
	e.BallotsURL = electionURL(r, e.Slug) + "/ballots"
	if err := e.Validate(); err != nil {
		ErrInvalidElection.WithErr(err).Write(w)
		return
	}
	e.BallotsURL = ""
	if err := a.storage.SetElection(e); err != nil {
		storageError(err, ErrElectionNotFound).Write(w)
		return
	}
	log.Infow("new election", "slug", e.Slug, "questions", e.QuestionCount)
	httpWriteOK(w)
}

// submitElectionResult stores the tally result of an election
// PATCH /elections/{slug}
func (a *API) submitElectionResult(w http.ResponseWriter, r *http.Request) {
	res := &types.ElectionResult{}
	if err := json.NewDecoder(r.Body).Decode(res); err != nil {
		ErrMalformedBody.Withf("could not decode request body: %v", err).Write(w)
		return
	}
	slug := chi.URLParam(r, ElectionURLParam)
	if err := a.storage.SetElectionResult(slug, res); err != nil {
		storageError(err, ErrElectionNotFound).Write(w)
		return
	}
	log.Infow("election result submitted", "slug", slug)
	httpWriteOK(w)
}

// electionResult returns the submitted tally result
// GET /elections/{slug}/result
func (a *API) electionResult(w http.ResponseWriter, r *http.Request) {
	res, err := a.storage.ElectionResult(chi.URLParam(r, ElectionURLParam))
	if err != nil {
		storageError(err, ErrResultNotFound).Write(w)
		return
	}
	httpWriteJSON(w, res)
}
