package sslog

import "time"

// measureClockResolutionNs estimates the wall clock's effective
// resolution by sampling time.Now() back to back until it observes the
// clock actually advance, and returns that first nonzero delta, rather
// than trusting a hardcoded constant that may not hold on every platform.
// The result is stored in the catalog header, where the reader takes it
// from.
func measureClockResolutionNs() float64 {
	const maxSamples = 1000
	start := time.Now()
	for i := 0; i < maxSamples; i++ {
		now := time.Now()
		if delta := now.Sub(start); delta > 0 {
			return float64(delta.Nanoseconds())
		}
	}
	return float64(time.Microsecond.Nanoseconds())
}
