package glyphterm

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"pkt.systems/pslog"
)

// DefaultReadChunk is the default reader buffer size.
const DefaultReadChunk = 4096

// terminateGrace is how long Terminate waits after hangup before killing.
const terminateGrace = 500 * time.Millisecond

// SessionOptions configures a SessionManager.
type SessionOptions struct {
	Command Command
	// Spawner defaults to LocalSpawner.
	Spawner      Spawner
	ChannelDepth int
	ReadChunk    int
	Logger       pslog.Logger
}

// SessionManager owns the child process of the current session and its
// reader goroutine. At most one reader runs at a time: Start joins the
// previous session's reader before spawning.
type SessionManager struct {
	opts   SessionOptions
	logger pslog.Logger

	mu     sync.Mutex
	handle *SessionHandle
	status SessionStatus
	nextID uint64
}

// NewSessionManager creates a manager. No process is started.
func NewSessionManager(opts SessionOptions) *SessionManager {
	if opts.Spawner == nil {
		opts.Spawner = LocalSpawner{}
	}
	if opts.ReadChunk <= 0 {
		opts.ReadChunk = DefaultReadChunk
	}
	logger := opts.Logger
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	return &SessionManager{opts: opts, logger: logger, status: Starting()}
}

// SessionHandle is one running child process with its byte channel.
type SessionHandle struct {
	ID      uint64
	Command Command

	pty     PTY
	channel *ByteChannel
	logger  pslog.Logger

	writeMu sync.Mutex

	exited   atomic.Bool
	exitCode atomic.Int64
	waitErr  atomic.Pointer[error]

	cancel    context.CancelFunc
	done      chan struct{} // closed when the reader returns
	closeOnce sync.Once
}

// Start spawns the configured command at cols x rows and starts its
// reader. Any previous session is terminated first.
func (m *SessionManager) Start(ctx context.Context, cols, rows int) (*SessionHandle, error) {
	m.mu.Lock()
	old := m.handle
	m.handle = nil
	m.status = Starting()
	m.nextID++
	id := m.nextID
	m.mu.Unlock()

	if old != nil {
		old.Terminate()
	}

	cmd := m.command()
	logger := m.logger.With("session", id)
	p, err := m.opts.Spawner.Spawn(cmd, cols, rows)
	if err != nil {
		serr := NewSpawnError(cmd.Program, err)
		logger.Warn("spawn failed", "command", cmd.String(), "kind", serr.Kind.String(), "err", err)
		m.setStatus(Failed(serr.Error()))
		return nil, serr
	}

	readCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	h := &SessionHandle{
		ID:      id,
		Command: cmd,
		pty:     p,
		channel: NewByteChannel(m.opts.ChannelDepth),
		logger:  logger,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	h.exitCode.Store(-1)
	go h.read(readCtx, m.opts.ReadChunk)

	m.mu.Lock()
	m.handle = h
	m.status = Connected()
	m.mu.Unlock()
	logger.Info("session started", "command", cmd.String(), "cols", cols, "rows", rows)
	return h, nil
}

func (m *SessionManager) command() Command {
	cmd := m.opts.Command
	if cmd.Program == "" {
		cmd.Program = DefaultShell()
	}
	env := make([]string, 0, len(cmd.Env)+2)
	env = append(env, "TERM=xterm-256color", "COLORTERM=truecolor")
	cmd.Env = append(env, cmd.Env...)
	return cmd
}

func (m *SessionManager) setStatus(s SessionStatus) {
	m.mu.Lock()
	m.status = s
	m.mu.Unlock()
}

// Handle returns the current session, or nil.
func (m *SessionManager) Handle() *SessionHandle {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.handle
}

// Status returns the last observed session state without blocking.
func (m *SessionManager) Status() SessionStatus {
	m.mu.Lock()
	h, s := m.handle, m.status
	m.mu.Unlock()
	if h != nil && s.Kind == StatusConnected && h.Exited() {
		return h.exitStatus()
	}
	return s
}

// Write sends p to the current session.
func (m *SessionManager) Write(p []byte) (int, error) {
	h := m.Handle()
	if h == nil {
		return 0, &WriteError{Err: ErrNoSession}
	}
	return h.Write(p)
}

// Resize propagates new dimensions to the current session. A session that
// has already exited is logged and ignored.
func (m *SessionManager) Resize(cols, rows int) error {
	h := m.Handle()
	if h == nil {
		return nil
	}
	return h.Resize(cols, rows)
}

// Terminate stops the current session. It is idempotent.
func (m *SessionManager) Terminate() {
	h := m.Handle()
	if h == nil {
		return
	}
	h.Terminate()
}

// Channel returns the session's output channel.
func (h *SessionHandle) Channel() *ByteChannel {
	return h.channel
}

// Exited reports whether the reader has observed the end of the child's output.
func (h *SessionHandle) Exited() bool {
	return h.exited.Load()
}

// ExitCode returns the child's exit code, or -1 while running or when unknown.
func (h *SessionHandle) ExitCode() int {
	return int(h.exitCode.Load())
}

// WaitError returns the error from waiting on the child, if any. A
// non-nil value means the exit code could not be determined.
func (h *SessionHandle) WaitError() error {
	if p := h.waitErr.Load(); p != nil {
		return *p
	}
	return nil
}

func (h *SessionHandle) exitStatus() SessionStatus {
	return Exited(h.ExitCode())
}

// Done is closed when the reader goroutine has returned.
func (h *SessionHandle) Done() <-chan struct{} {
	return h.done
}

func (h *SessionHandle) read(ctx context.Context, size int) {
	defer close(h.done)
	buf := make([]byte, size)
	for {
		n, err := h.pty.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			if perr := h.channel.Push(ctx, chunk); perr != nil {
				h.logger.Debug("reader stopped", "reason", perr)
				break
			}
		}
		if err != nil {
			h.logger.Debug("pty read ended", "err", err)
			break
		}
	}
	code, err := h.pty.Wait()
	h.exitCode.Store(int64(code))
	if err != nil {
		h.waitErr.Store(&err)
	}
	h.exited.Store(true)
	if err := h.channel.PushEOF(ctx); err != nil && !errors.Is(err, ErrChannelClosed) {
		h.logger.Debug("end of stream not delivered", "err", err)
	}
	h.logger.Info("session exited", "exit_code", code)
}

// Write forwards p to the child. Writes are serialized with each other
// but never contend with the reader.
func (h *SessionHandle) Write(p []byte) (int, error) {
	if h.Exited() {
		return 0, &WriteError{Err: ErrSessionExited}
	}
	h.writeMu.Lock()
	defer h.writeMu.Unlock()
	n, err := h.pty.Write(p)
	if err != nil {
		return n, &WriteError{Err: err}
	}
	return n, nil
}

// Resize propagates cols x rows to the PTY.
func (h *SessionHandle) Resize(cols, rows int) error {
	if h.Exited() || !h.pty.Alive() {
		h.logger.Debug("resize after exit ignored", "cols", cols, "rows", rows)
		return nil
	}
	if err := h.pty.Resize(cols, rows); err != nil {
		h.logger.Warn("pty resize failed", "cols", cols, "rows", rows, "err", err)
		return err
	}
	return nil
}

// Terminate hangs up the child, kills it if it lingers, closes the PTY
// and the channel, and waits for the reader to return. It is idempotent.
func (h *SessionHandle) Terminate() {
	h.closeOnce.Do(func() {
		if err := h.pty.Hangup(); err != nil {
			h.logger.Debug("hangup failed", "err", err)
		}
		h.channel.Close()
		h.cancel()
		if err := h.pty.Close(); err != nil {
			h.logger.Debug("pty close failed", "err", err)
		}
		select {
		case <-h.done:
		case <-time.After(terminateGrace):
			if err := h.pty.Kill(); err != nil {
				h.logger.Warn("kill failed", "err", err)
			}
			<-h.done
		}
		h.logger.Info("session terminated")
	})
}
