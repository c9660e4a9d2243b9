package internal

import (
	"github.com/pkg/errors"
)

// Scheduler coordinates drain cycles. A drain keeps looping while new
// work is scheduled (effects may write signals, which schedules more
// effects into the same drain), with a guard against runaway loops.
type Scheduler struct {
	// incremented each completed drain cycle; used for diagnostics
	clock uint64

	scheduled bool
	running   bool
}

func NewScheduler() *Scheduler {
	return &Scheduler{}
}

func (s *Scheduler) Schedule() {
	s.scheduled = true
}

func (s *Scheduler) IsScheduled() bool {
	return s.scheduled
}

func (s *Scheduler) IsRunning() bool {
	return s.running
}

func (s *Scheduler) Time() uint64 {
	return s.clock
}

// Run invokes fn while work remains scheduled. Reentrant calls (a
// write inside an effect ends its implicit batch mid-drain) return
// immediately; the outer drain picks the new work up.
func (s *Scheduler) Run(fn func()) error {
	if s.running {
		return nil
	}
	s.running = true
	defer func() { s.running = false }()

	count := 0
	for s.scheduled {
		s.scheduled = false

		count++
		if count > 1e5 {
			return errors.New("possible infinite update loop detected")
		}

		fn()
	}

	s.clock++
	return nil
}
