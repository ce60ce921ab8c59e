package risk

import "math"

// PlausibleEquity reports whether an equity sample from the bridge can be
// trusted to drive state. During bridge outages the platform has been seen
// returning the nominal demo balance for every login; a sample exactly equal
// to that sentinel on an account whose initial balance differs is a stale or
// mock read and must not trigger a breach or a start-of-day reset.
func PlausibleEquity(equity, initialBalance, mockSentinel float64) bool {
	if math.IsNaN(equity) || math.IsInf(equity, 0) {
		return false
	}
	if equity < 0 {
		return false
	}
	if equity == mockSentinel && initialBalance != mockSentinel {
		return false
	}
	return true
}
