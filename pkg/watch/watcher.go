// Package watch drives the permission-state poll loop. On a fixed cadence it
// queries the oracle, compares against the last observed state, and on change
// drives the overlay and, when entering the undecided state, the prompt
// trigger. Control flow is one-directional and cyclic only through the timer.
package watch

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-drift/netgate/pkg/permission"
)

// DefaultInterval is the poll cadence.
const DefaultInterval = 500 * time.Millisecond

// Presenter shows and hides the blocking overlay. *overlay.Blocker
// satisfies it.
type Presenter interface {
	Show()
	Hide()
}

// Trigger provokes the platform's native permission prompt. *probe.Prober
// satisfies it.
type Trigger interface {
	Provoke(ctx context.Context)
}

// Options configures a Watcher. The zero value selects defaults.
type Options struct {
	// Interval is the poll cadence. Defaults to DefaultInterval.
	Interval time.Duration

	// WarmUp delays activation after Run starts. Ticks that fire during the
	// warm-up window are suppressed entirely, including the oracle read.
	// This avoids reacting to a transient initial state before the page has
	// finished its own setup. Defaults to zero (no delay).
	WarmUp time.Duration

	// Clock is the time source used for warm-up gating. Defaults to
	// system time.
	Clock Clock

	// Logf receives transition log lines. Defaults to log.Printf.
	// Purely observational; never consumed programmatically.
	Logf func(format string, args ...any)
}

// Watcher polls the permission oracle and dispatches state transitions.
//
// Per tick: read the current state, and if it differs from the session's
// stored state, record it and dispatch. Undecided shows the overlay and
// fires the trigger; granted and denied hide the overlay; unknown is
// recorded with no presentation action. Equal states are a complete no-op.
//
// A tick whose query is still outstanding blocks the next tick from
// starting, so a single slow query cannot double-fire a transition's side
// effects. No single tick's failure is fatal; the loop continues
// indefinitely.
type Watcher struct {
	session   *Session
	oracle    permission.Oracle
	presenter Presenter
	trigger   Trigger

	interval time.Duration
	warmUp   time.Duration
	clock    Clock
	logf     func(format string, args ...any)

	inFlight atomic.Bool

	activateMu sync.Mutex
	activateAt time.Time
}

// New creates a watcher with a fresh session.
func New(oracle permission.Oracle, presenter Presenter, trigger Trigger, opts Options) *Watcher {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Clock == nil {
		opts.Clock = systemClock{}
	}
	if opts.Logf == nil {
		opts.Logf = log.Printf
	}
	return &Watcher{
		session:   NewSession(),
		oracle:    oracle,
		presenter: presenter,
		trigger:   trigger,
		interval:  opts.Interval,
		warmUp:    opts.WarmUp,
		clock:     opts.Clock,
		logf:      opts.Logf,
	}
}

// Session returns the watcher's session.
func (w *Watcher) Session() *Session {
	return w.session
}

// Activate marks the session active and starts the warm-up window. Run
// calls this; tests may call it directly and drive Tick by hand.
func (w *Watcher) Activate() {
	w.activateMu.Lock()
	w.activateAt = w.clock.Now().Add(w.warmUp)
	w.activateMu.Unlock()
	w.session.setActive(true)
}

// Run activates the session and polls until ctx is canceled. It never
// returns an error: individual tick failures are diagnostics only.
func (w *Watcher) Run(ctx context.Context) {
	w.Activate()
	defer w.session.setActive(false)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Tick(ctx)
		}
	}
}

// Tick executes one poll-and-compare-and-dispatch cycle. Ticks are true
// no-ops while the session is inactive or warming up (no oracle read), and
// while a previous tick's query is still outstanding.
func (w *Watcher) Tick(ctx context.Context) {
	if !w.session.Active() {
		return
	}
	w.activateMu.Lock()
	activateAt := w.activateAt
	w.activateMu.Unlock()
	if w.clock.Now().Before(activateAt) {
		return
	}
	if !w.inFlight.CompareAndSwap(false, true) {
		return
	}
	defer w.inFlight.Store(false)

	observed := w.oracle.Query(ctx)
	prev, changed := w.session.record(observed)
	if !changed {
		return
	}

	w.logf("netgate: session %s permission %s -> %s", w.session.ID(), prev, observed)

	switch observed {
	case permission.StateUndecided:
		w.presenter.Show()
		// Fire-and-forget: the trigger's outcome is ignored by contract and
		// the tick does not wait for it.
		w.trigger.Provoke(ctx)
	case permission.StateGranted, permission.StateDenied:
		w.presenter.Hide()
	case permission.StateUnknown:
		// Recorded only. The first-ever tick may land here via the unset
		// sentinel; it surfaces a log line and nothing else.
	}
}
