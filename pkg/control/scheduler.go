package control

import "github.com/godrip/godrip/pkg/wire"

// Scheduler decides when the periodic report is due. It fires at most once
// per poll and resynchronizes to the poll time on every fire, so a poll that
// arrives late (for example after a watering pulse) never produces catch-up
// reports for the intervals it missed.
type Scheduler struct {
	interval Millis
	prev     Millis
	started  bool
	sampler  *Sampler
}

// NewScheduler creates a scheduler that samples once per interval.
func NewScheduler(interval Millis, sampler *Sampler) *Scheduler {
	return &Scheduler{interval: interval, sampler: sampler}
}

// Poll checks whether a report is due at the given time and, if so, takes
// exactly one sample. The first poll after construction always fires, so a
// fresh board reports immediately. The elapsed-time comparison is uint32
// subtraction, which stays correct across counter wraparound.
func (s *Scheduler) Poll(now Millis) (wire.Reading, bool) {
	if s.started && now-s.prev < s.interval {
		return wire.Reading{}, false
	}

	s.started = true
	s.prev = now
	return s.sampler.Sample(), true
}
