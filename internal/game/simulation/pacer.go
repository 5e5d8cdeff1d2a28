package simulation

import "time"

// MaxCatchUpTicks bounds how many ticks a frame-driven loop runs after a
// stall before it drops the backlog.
const MaxCatchUpTicks = 10

// Pacer converts wall-clock frames into a fixed tick cadence.
type Pacer struct {
	interval time.Duration
	maxTicks int
	last     time.Time
}

func NewPacer(interval time.Duration, maxTicks int, start time.Time) *Pacer {
	return &Pacer{interval: interval, maxTicks: max(maxTicks, 1), last: start}
}

// Due returns how many ticks should run at now. A backlog larger than the
// cap is discarded, so the simulation resumes from now instead of racing
// to catch up.
func (p *Pacer) Due(now time.Time) int {
	if p.interval <= 0 || now.Before(p.last) {
		p.last = now
		return 0
	}
	n := int(now.Sub(p.last) / p.interval)
	if n > p.maxTicks {
		p.last = now
		return p.maxTicks
	}
	p.last = p.last.Add(time.Duration(n) * p.interval)
	return n
}
