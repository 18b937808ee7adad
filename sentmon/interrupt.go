package sentmon

import (
	"context"
	"os"
	"os/signal"
	"sync/atomic"
)

// Bridge converts terminal interrupts into the supervisor's interrupt
// policy. The first interrupt is acknowledged and swallowed, since the
// worker shares the signal and is expected to shut itself down. Any
// further interrupt is also swallowed while the worker still runs; once
// the worker is confirmed gone, the next interrupt force-exits the
// whole program with ExitInterrupt.
type Bridge struct {
	// warned is the single piece of shared interrupt state: false until
	// the first interrupt, true forever after.
	warned atomic.Bool

	alive func() bool
	exit  func(int)
	j     Journaler
}

// NewBridge creates an interrupt bridge. alive must be a read-only
// liveness probe of the current worker, safe to call from the signal
// path.
func NewBridge(alive func() bool, j Journaler) *Bridge {
	return &Bridge{
		alive: alive,
		exit:  os.Exit,
		j:     j,
	}
}

// Listen installs the bridge as the interrupt handler and serves signal
// deliveries in the background until the context is canceled.
func (b *Bridge) Listen(ctx context.Context) {
	ch := make(chan os.Signal, 4)
	signal.Notify(ch, os.Interrupt)

	go func() {
		defer signal.Stop(ch)

		for {
			select {
			case <-ctx.Done():
				return
			case <-ch:
				b.deliver()
			}
		}
	}()
}

func (b *Bridge) deliver() {
	if b.warned.CompareAndSwap(false, true) {
		b.j.Write(&EventInterruptAck{})
		return
	}

	// The user is hammering Ctrl-C. As long as the worker is still
	// shutting down there is nothing more to do; once it is gone,
	// bypass the loop entirely.
	if !b.alive() {
		b.j.Write(&EventSupervisorExit{Code: ExitInterrupt})
		b.exit(ExitInterrupt)
	}
}
