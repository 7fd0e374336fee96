package api

import "encoding/json"

// ElectionList is the response to the elections listing.
type ElectionList struct {
	Elections []string `json:"elections"`
}

// BallotsPage is a page of the ballot listing. Results are already
// filtered by the fields selector of the request.
type BallotsPage struct {
	Count    int               `json:"count"`
	Next     *string           `json:"next"`
	Previous *string           `json:"previous"`
	Results  []json.RawMessage `json:"results"`
}

// NewBallotsResponse is the response to a ballot upload.
type NewBallotsResponse struct {
	Stored int `json:"stored"`
}
