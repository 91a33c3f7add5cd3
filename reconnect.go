package glyphterm

import (
	"context"
	"fmt"

	"pkt.systems/pslog"
)

// transitions is the allowed lifecycle graph. Exited moves to
// Reconnecting only through an explicit Reconnect call.
var transitions = map[StatusKind][]StatusKind{
	StatusStarting:     {StatusConnected, StatusFailed},
	StatusConnected:    {StatusExited, StatusFailed},
	StatusExited:       {StatusReconnecting},
	StatusReconnecting: {StatusConnected, StatusFailed},
	StatusFailed:       {StatusStarting},
}

func allowed(from, to StatusKind) bool {
	for _, k := range transitions[from] {
		if k == to {
			return true
		}
	}
	return false
}

// LifecycleOptions configures a Lifecycle.
type LifecycleOptions struct {
	// Observer is called on the render thread after every transition.
	Observer func(from, to SessionStatus)
	Logger   pslog.Logger
}

type spawnResult struct {
	handle *SessionHandle
	err    error
}

// Lifecycle drives the session state exposed to the UI. It is owned by
// the render thread; respawns run in the background and are collected by
// Poll so the Reconnecting state is observable for at least one frame.
type Lifecycle struct {
	mgr      *SessionManager
	state    SessionStatus
	handle   *SessionHandle
	pending  chan spawnResult
	observer func(from, to SessionStatus)
	logger   pslog.Logger
}

// NewLifecycle creates a lifecycle in the Starting state.
func NewLifecycle(mgr *SessionManager, opts LifecycleOptions) *Lifecycle {
	logger := opts.Logger
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	return &Lifecycle{mgr: mgr, state: Starting(), observer: opts.Observer, logger: logger}
}

// Status returns the current state.
func (l *Lifecycle) Status() SessionStatus {
	return l.state
}

// Session returns the handle of the connected or most recently exited
// session, or nil.
func (l *Lifecycle) Session() *SessionHandle {
	return l.handle
}

// Start performs the initial spawn synchronously. It is valid only in
// the Starting state with no spawn in flight.
func (l *Lifecycle) Start(ctx context.Context, cols, rows int) error {
	if l.state.Kind != StatusStarting || l.pending != nil {
		return fmt.Errorf("start from %s: %w", l.state, ErrInvalidTransition)
	}
	h, err := l.mgr.Start(ctx, cols, rows)
	l.finish(spawnResult{handle: h, err: err})
	return err
}

// Reconnect respawns an exited session in the background.
func (l *Lifecycle) Reconnect(ctx context.Context, cols, rows int) error {
	if l.state.Kind != StatusExited {
		return fmt.Errorf("reconnect from %s: %w", l.state, ErrInvalidTransition)
	}
	l.transition(Reconnecting())
	l.spawn(ctx, cols, rows)
	return nil
}

// Retry re-enters Starting from Failed and spawns in the background.
func (l *Lifecycle) Retry(ctx context.Context, cols, rows int) error {
	if l.state.Kind != StatusFailed {
		return fmt.Errorf("retry from %s: %w", l.state, ErrInvalidTransition)
	}
	l.transition(Starting())
	l.spawn(ctx, cols, rows)
	return nil
}

func (l *Lifecycle) spawn(ctx context.Context, cols, rows int) {
	ch := make(chan spawnResult, 1)
	l.pending = ch
	go func() {
		h, err := l.mgr.Start(ctx, cols, rows)
		ch <- spawnResult{handle: h, err: err}
	}()
}

// Poll advances the state from observations made since the last frame: a
// completed background spawn, or the connected session's reader ending.
// It never blocks.
func (l *Lifecycle) Poll() SessionStatus {
	if l.pending != nil {
		select {
		case res := <-l.pending:
			l.pending = nil
			l.finish(res)
		default:
		}
		return l.state
	}
	if l.state.Kind == StatusConnected && l.handle != nil && l.handle.Exited() {
		if err := l.handle.WaitError(); err != nil {
			l.transition(Failed(err.Error()))
		} else {
			l.transition(l.handle.exitStatus())
		}
	}
	return l.state
}

// Pending reports whether a background spawn is in flight.
func (l *Lifecycle) Pending() bool {
	return l.pending != nil
}

func (l *Lifecycle) finish(res spawnResult) {
	if res.err != nil {
		l.transition(Failed(res.err.Error()))
		return
	}
	l.handle = res.handle
	l.transition(Connected())
}

func (l *Lifecycle) transition(to SessionStatus) {
	from := l.state
	if !allowed(from.Kind, to.Kind) {
		l.logger.Warn("lifecycle transition rejected", "from", from.String(), "to", to.String())
		return
	}
	l.state = to
	l.logger.Info("session status", "from", from.String(), "to", to.String())
	if l.observer != nil {
		l.observer(from, to)
	}
}
