package glyphterm

import (
	"sync"
	"testing"
	"time"

	"github.com/phroun/glyphterm/internal/ptytest"
)

type fakeSpawner struct {
	mu   sync.Mutex
	err  error
	ptys []*ptytest.PTY
	cmds []Command
	size [][2]int
}

func (s *fakeSpawner) Spawn(cmd Command, cols, rows int) (PTY, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cmds = append(s.cmds, cmd)
	s.size = append(s.size, [2]int{cols, rows})
	if s.err != nil {
		return nil, s.err
	}
	p := ptytest.New()
	s.ptys = append(s.ptys, p)
	return p, nil
}

func (s *fakeSpawner) setErr(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

func (s *fakeSpawner) pty(i int) *ptytest.PTY {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ptys[i]
}

func (s *fakeSpawner) spawned() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cmds)
}

// eventually polls cond until it holds or a second passes.
func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

// drainAll collects channel output until end of stream.
func drainAll(t *testing.T, ch *ByteChannel) string {
	t.Helper()
	var out []byte
	eventually(t, "end of stream", func() bool {
		data, eof := ch.Drain()
		out = append(out, data...)
		return eof
	})
	return string(out)
}
