package pipeline

import (
	"fmt"
	"strconv"
)

// Decision is the outcome of the freshness gate.
type Decision int

const (
	Refresh Decision = iota
	ServeCached
)

func (d Decision) String() string {
	if d == ServeCached {
		return "serve_cached"
	}
	return "refresh"
}

// GateInput is what the freshness gate needs to know about one request.
type GateInput struct {
	HasCache      bool
	CachedMaxYear string
	FetchedYear   string
	PinnedYear    *int
}

// Decide returns whether fetched data must be recomputed and persisted, or
// whether the cached rows can be served as they are. Filings of a closed
// fiscal year are immutable, so a fetched year that is not newer than the
// cached one cannot carry new information. The reason is for logs.
func Decide(in GateInput) (Decision, string) {
	if !in.HasCache {
		return Refresh, "no cached rows"
	}
	if in.PinnedYear != nil {
		return Refresh, fmt.Sprintf("year %d pinned by caller", *in.PinnedYear)
	}

	cached, err := strconv.Atoi(in.CachedMaxYear)
	if err != nil {
		return Refresh, fmt.Sprintf("cached year %q unparsable", in.CachedMaxYear)
	}
	fetched, err := strconv.Atoi(in.FetchedYear)
	if err != nil {
		return Refresh, fmt.Sprintf("fetched year %q unparsable", in.FetchedYear)
	}

	if fetched > cached {
		return Refresh, fmt.Sprintf("fetched %d newer than cached %d", fetched, cached)
	}
	return ServeCached, fmt.Sprintf("fetched %d not newer than cached %d", fetched, cached)
}
