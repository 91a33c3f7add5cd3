package glyphterm

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type transitionLog struct {
	got []string
}

func (l *transitionLog) observe(from, to SessionStatus) {
	l.got = append(l.got, from.Kind.String()+">"+to.Kind.String())
}

func newTestLifecycle(sp *fakeSpawner) (*Lifecycle, *transitionLog) {
	log := &transitionLog{}
	mgr := newTestManager(sp, Command{Program: "sh"})
	return NewLifecycle(mgr, LifecycleOptions{Observer: log.observe}), log
}

func pollUntil(t *testing.T, l *Lifecycle, kind StatusKind) {
	t.Helper()
	eventually(t, kind.String(), func() bool {
		if h := l.Session(); h != nil {
			h.Channel().Drain()
		}
		return l.Poll().Kind == kind
	})
}

func TestLifecycleExitAndReconnect(t *testing.T) {
	sp := &fakeSpawner{}
	l, log := newTestLifecycle(sp)
	ctx := context.Background()

	if err := l.Start(ctx, 80, 24); err != nil {
		t.Fatalf("start: %v", err)
	}
	first := l.Session()
	sp.pty(0).Exit(0)
	pollUntil(t, l, StatusExited)
	if got := l.Status(); got != Exited(0) {
		t.Fatalf("status = %s, want %s", got, Exited(0))
	}

	if err := l.Reconnect(ctx, 80, 24); err != nil {
		t.Fatalf("reconnect: %v", err)
	}
	if l.Status().Kind != StatusReconnecting {
		t.Fatalf("status = %s, want reconnecting before the next poll", l.Status())
	}
	pollUntil(t, l, StatusConnected)
	if l.Session() == first || l.Pending() {
		t.Fatalf("reconnect did not install a new session")
	}
	defer l.Session().Terminate()

	want := "starting>connected connected>exited exited>reconnecting reconnecting>connected"
	if got := strings.Join(log.got, " "); got != want {
		t.Fatalf("transitions = %q, want %q", got, want)
	}
}

func TestLifecycleRejectsInvalidRequests(t *testing.T) {
	sp := &fakeSpawner{}
	l, _ := newTestLifecycle(sp)
	ctx := context.Background()

	if err := l.Reconnect(ctx, 80, 24); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("reconnect from starting = %v", err)
	}
	if err := l.Start(ctx, 80, 24); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer l.Session().Terminate()
	for name, err := range map[string]error{
		"start":     l.Start(ctx, 80, 24),
		"reconnect": l.Reconnect(ctx, 80, 24),
		"retry":     l.Retry(ctx, 80, 24),
	} {
		if !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("%s while connected = %v, want ErrInvalidTransition", name, err)
		}
	}
	if l.Status().Kind != StatusConnected {
		t.Fatalf("rejected requests changed status to %s", l.Status())
	}
}

func TestLifecycleSpawnFailureAndRetry(t *testing.T) {
	sp := &fakeSpawner{err: errors.New("no ptys left")}
	l, log := newTestLifecycle(sp)
	ctx := context.Background()

	if err := l.Start(ctx, 80, 24); err == nil {
		t.Fatalf("expected start to fail")
	}
	st := l.Status()
	if st.Kind != StatusFailed || !strings.HasPrefix(st.Reason, "spawn error") {
		t.Fatalf("status = %+v", st)
	}

	sp.setErr(nil)
	if err := l.Retry(ctx, 80, 24); err != nil {
		t.Fatalf("retry: %v", err)
	}
	pollUntil(t, l, StatusConnected)
	defer l.Session().Terminate()

	want := "starting>failed failed>starting starting>connected"
	if got := strings.Join(log.got, " "); got != want {
		t.Fatalf("transitions = %q, want %q", got, want)
	}
	if sp.spawned() != 2 {
		t.Fatalf("spawn calls = %d, want 2", sp.spawned())
	}
}

func TestLifecycleWaitErrorFails(t *testing.T) {
	sp := &fakeSpawner{}
	l, _ := newTestLifecycle(sp)
	if err := l.Start(context.Background(), 80, 24); err != nil {
		t.Fatalf("start: %v", err)
	}
	sp.pty(0).ExitWithError(errors.New("wait: no child"))
	pollUntil(t, l, StatusFailed)
	if got := l.Status().Reason; got != "wait: no child" {
		t.Fatalf("reason = %q", got)
	}
}
