package booth

import (
	"time"

	"github.com/mazen160/go-random"
)

// outcome classifies a single fetch attempt for the retry policy.
type outcome int

const (
	outcomeSuccess outcome = iota
	// confirmed absent upstream, never retried
	outcomeNotFound
	// http 429/503, the marketplace rate limits aggressively and
	// these usually clear within seconds
	outcomeThrottled
	// transport level timeout
	outcomeTimeout
	// any other http status, terminal as-is
	outcomeHTTPError
	// transport failure that is not a timeout
	outcomeTransport
)

func (o outcome) transient() bool {
	return o == outcomeThrottled || o == outcomeTimeout || o == outcomeTransport
}

var baseDelays = []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}

// retryDelay is the whole retry policy: given the 0-based attempt that
// just finished and its outcome, it reports how long to back off
// before the next attempt, or false to stop. maxRetries is the total
// attempt budget.
func retryDelay(attempt int, o outcome, maxRetries int) (time.Duration, bool) {
	if !o.transient() {
		return 0, false
	}
	if attempt >= maxRetries-1 {
		return 0, false
	}
	base := baseDelays[len(baseDelays)-1]
	if attempt < len(baseDelays) {
		base = baseDelays[attempt]
	}
	return base + jitter(), true
}

// up to ±200ms so a fleet of polite clients does not resonate with
// each other against the same host.
func jitter() time.Duration {
	ms, err := random.IntRange(-200, 201)
	if err != nil {
		return 0
	}
	return time.Duration(ms) * time.Millisecond
}
