// Package rtt implements the smoothed round-trip-time estimator:
// classic srtt/rttvar tracking feeding a probe-timeout (PTO) calculation.
package rtt

import "time"

const (
	alpha = 1.0 / 8.0
	beta  = 1.0 / 4.0

	// granularity is the clock-granularity floor added to both the PTO and
	// the conservative estimate.
	granularity = time.Millisecond

	// defaultSRTT is used until the first sample arrives.
	defaultSRTT = 333 * time.Millisecond
)

// Estimator tracks smoothed RTT and RTT variance, in the style of the
// classic TCP/QUIC RTO estimator.
type Estimator struct {
	srtt    time.Duration
	rttvar  time.Duration
	sampled bool
}

// New returns an Estimator seeded with the default initial srtt.
func New() *Estimator {
	return &Estimator{srtt: defaultSRTT}
}

// Sample feeds one observed round-trip sample into the estimator.
func (e *Estimator) Sample(r time.Duration) {
	if !e.sampled {
		e.srtt = r
		e.rttvar = r / 2
		e.sampled = true
		return
	}
	diff := e.srtt - r
	if diff < 0 {
		diff = -diff
	}
	e.rttvar = scale(e.rttvar, 1-beta) + scale(diff, beta)
	e.srtt = scale(e.srtt, 1-alpha) + scale(r, alpha)
}

// scale multiplies a duration by a float factor without overflowing for
// realistic RTT magnitudes.
func scale(d time.Duration, f float64) time.Duration {
	return time.Duration(float64(d) * f)
}

// SRTT returns the current smoothed RTT estimate.
func (e *Estimator) SRTT() time.Duration { return e.srtt }

// RTTVar returns the current RTT variance estimate.
func (e *Estimator) RTTVar() time.Duration { return e.rttvar }

// PTO returns the probe timeout: srtt + max(4*rttvar, granularity).
func (e *Estimator) PTO() time.Duration {
	return e.srtt + max(4*e.rttvar, granularity)
}

// Conservative returns a wider estimate for bandwidth/user-visible purposes:
// srtt + max(16*rttvar, granularity).
func (e *Estimator) Conservative() time.Duration {
	return e.srtt + max(16*e.rttvar, granularity)
}

func max(a, b time.Duration) time.Duration {
	if a > b {
		return a
	}
	return b
}
