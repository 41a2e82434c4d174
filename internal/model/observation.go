package model

// Observation is one (x, y) pair extracted from a successful rates response.
type Observation struct {
	Key  string  // query key the observation was fetched for
	Date string  // date reported by the API, may differ from Key on non-trading days
	X    float64
	Y    float64
}

// Outcome tags the result of a single fetch attempt.
type Outcome string

const (
	OutcomeSuccess   Outcome = "SUCCESS"
	OutcomeSkipped   Outcome = "SKIPPED"
	OutcomeOffline   Outcome = "OFFLINE"
	OutcomeCancelled Outcome = "CANCELLED"
)

// SkipReason explains why a key was skipped.
type SkipReason string

const (
	SkipNone      SkipReason = ""
	SkipBuild     SkipReason = "build"
	SkipTimeout   SkipReason = "timeout"
	SkipTransport SkipReason = "transport"
	SkipStatus    SkipReason = "status"
	SkipDecode    SkipReason = "decode"
)

// Attempt records what happened to one query key.
type Attempt struct {
	Key         string
	Outcome     Outcome
	Reason      SkipReason
	Detail      string // error text for skipped attempts
	Observation Observation
}

// FetchStatus is the run-level status of a fetch.
type FetchStatus string

const (
	FetchStatusComplete  FetchStatus = "COMPLETE"
	FetchStatusOffline   FetchStatus = "OFFLINE"
	FetchStatusCancelled FetchStatus = "CANCELLED"
)

// FetchResult is the output of one collector run.
type FetchResult struct {
	Status       FetchStatus
	Observations []Observation
	Attempts     []Attempt
}

// Skipped returns the number of attempts that were skipped.
func (r *FetchResult) Skipped() int {
	n := 0
	for _, a := range r.Attempts {
		if a.Outcome == OutcomeSkipped {
			n++
		}
	}
	return n
}
