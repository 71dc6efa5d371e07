package gateway

import "time"

// packetLimiter is a sliding one-second window over the last N packet times.
// It is owned by a single read loop and needs no locking.
type packetLimiter struct {
	stamps   []time.Time
	next     int
	rejected int
}

func newPacketLimiter(perSecond int) *packetLimiter {
	if perSecond < 1 {
		perSecond = DefaultPacketsPerSecond
	}
	return &packetLimiter{stamps: make([]time.Time, perSecond)}
}

// Allow records a packet at now and reports whether it is within the limit.
// Rejected packets are not recorded.
func (l *packetLimiter) Allow(now time.Time) bool {
	oldest := l.stamps[l.next]
	if !oldest.IsZero() && now.Sub(oldest) < rateWindow {
		l.rejected++
		return false
	}
	l.stamps[l.next] = now
	l.next = (l.next + 1) % len(l.stamps)
	return true
}

// shouldLog is true for the first rejection and then every rateLogEvery.
func (l *packetLimiter) shouldLog() bool {
	return l.rejected%rateLogEvery == 1
}
