// Package signals installs the simulator's cooperative Ctrl-C handling
// (spec.md §5: "external signal requests a cooperative stop between
// ticks; no mid-tick abort"). SetupHandler may only be called once per
// process, matching the teacher's (test-only) contract for this package.
package signals

import (
	"os"
	"os/signal"
)

var once bool

// SetupHandler installs a SIGINT handler and returns a channel that is
// closed the first time the signal arrives. The tick loop should check the
// channel between ticks and stop cooperatively; it must never abort
// mid-tick. Calling SetupHandler more than once panics.
func SetupHandler() <-chan struct{} {
	if once {
		panic("signals: SetupHandler called more than once")
	}
	once = true

	stop := make(chan struct{})
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)

	go func() {
		<-sigCh
		close(stop)
	}()

	return stop
}
