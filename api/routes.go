package api

const (
	// PingEndpoint is the endpoint for checking the API status
	PingEndpoint = "/ping"
	// MetricsEndpoint serves the Prometheus metrics
	MetricsEndpoint = "/metrics"
	// ElectionsEndpoint lists the stored elections
	ElectionsEndpoint = "/elections"
	// ElectionEndpoint is the election resource. GET returns the election,
	// POST stores it and PATCH submits the tally result.
	ElectionURLParam = "slug"
	ElectionEndpoint = "/elections/{" + ElectionURLParam + "}"
	// ElectionResultEndpoint returns the submitted tally result
	ElectionResultEndpoint = ElectionEndpoint + "/result"
	// BallotsEndpoint lists the ballots of an election. POST stores ballots.
	BallotsEndpoint = ElectionEndpoint + "/ballots"
	// BallotEndpoint is the ballot resource. PATCH submits the ballot result.
	BallotURLParam = "serial"
	BallotEndpoint = BallotsEndpoint + "/{" + BallotURLParam + "}"
	// BallotResultEndpoint returns the submitted ballot result
	BallotResultEndpoint = BallotEndpoint + "/result"
)

// Query parameters of the listing endpoints.
const (
	FieldsParam = "fields"
	IsCastParam = "is_cast"
	LimitParam  = "limit"
	OffsetParam = "offset"

	// DefaultLimit is the page size used when no limit is requested.
	DefaultLimit = 100
	// MaxLimit is the largest page size served.
	MaxLimit = 1000
)
