package control

import (
	"context"
	"io"
	"time"

	"github.com/godrip/godrip/pkg/wire"
)

// Loop ties the core together: one scheduler, one command reader, one
// actuator, one serial writer, no concurrency. Each iteration first emits a
// due report, then executes at most one pending command.
type Loop struct {
	clock    Clock
	sched    *Scheduler
	cmds     *CommandReader
	act      *Actuator
	out      io.Writer
	waterFor time.Duration

	buf  []byte
	idle func()
}

// NewLoop composes the control core. out receives the report lines; waterFor
// is the fixed duration handed to the actuator for every watering command.
func NewLoop(clock Clock, sched *Scheduler, cmds *CommandReader, act *Actuator, out io.Writer, waterFor time.Duration) *Loop {
	return &Loop{
		clock:    clock,
		sched:    sched,
		cmds:     cmds,
		act:      act,
		out:      out,
		waterFor: waterFor,
		buf:      make([]byte, 0, 32),
		idle:     func() { time.Sleep(time.Millisecond) },
	}
}

// Step runs one loop iteration. A watering command blocks the iteration for
// the whole pulse; report polls missed during the pulse are not made up, the
// scheduler simply resynchronizes on the next iteration.
func (l *Loop) Step() {
	if reading, due := l.sched.Poll(l.clock()); due {
		l.buf = wire.AppendReport(l.buf[:0], reading)
		l.out.Write(l.buf)
	}

	if line, ok := l.cmds.Poll(); ok {
		if wire.IsWaterCommand(line) {
			l.act.Run(Request{Duration: l.waterFor})
		}
		// Any other token is ignored.
	}
}

// Run drives Step until ctx is cancelled. On the device the context never
// expires and Run spins forever; the idle pause keeps the loop polling far
// faster than bytes can arrive at the configured baud rate.
func (l *Loop) Run(ctx context.Context) {
	for ctx.Err() == nil {
		l.Step()
		l.idle()
	}
}
