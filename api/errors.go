package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/vocdoni/demos-tally/log"
)

// Error is a bulletin board error reply: a numeric code from the catalogue
// in errors_definition.go, the HTTP status to answer with and the cause.
type Error struct {
	Err        error
	Code       int
	HTTPstatus int
}

// MarshalJSON renders the error body, for example
// {"error":"ballot not found","code":40009}. The HTTP status is not part of it.
func (e Error) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Err  string `json:"error"`
		Code int    `json:"code"`
	}{e.Err.Error(), e.Code})
}

func (e Error) Error() string {
	return e.Err.Error()
}

// Unwrap exposes the cause, so storage and tally errors can be matched with
// errors.Is on a reply.
func (e Error) Unwrap() error {
	return e.Err
}

// Write sends the error as a JSON reply with its HTTP status.
func (e Error) Write(w http.ResponseWriter) {
	msg, err := json.Marshal(e)
	if err != nil {
		log.Warnw("marshal api error", "error", err.Error())
		http.Error(w, "marshal failed", http.StatusInternalServerError)
		return
	}
	log.Debugw("api error reply", "error", e.Error(), "code", e.Code, "status", e.HTTPstatus)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.HTTPstatus)
	_, _ = w.Write(append(msg, '\n'))
}

// Withf returns a copy of e whose cause carries the formatted detail.
func (e Error) Withf(format string, args ...any) Error {
	return Error{
		Err:        fmt.Errorf("%w: %s", e.Err, fmt.Sprintf(format, args...)),
		Code:       e.Code,
		HTTPstatus: e.HTTPstatus,
	}
}

// WithErr returns a copy of e whose cause carries err.
func (e Error) WithErr(err error) Error {
	return Error{
		Err:        fmt.Errorf("%w: %w", e.Err, err),
		Code:       e.Code,
		HTTPstatus: e.HTTPstatus,
	}
}
