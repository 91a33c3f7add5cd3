package glyphterm

import (
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"strings"
)

var (
	// ErrSessionExited is returned by writes to a session whose child has exited.
	ErrSessionExited = errors.New("session exited")
	// ErrNoSession is returned when no session has been started.
	ErrNoSession = errors.New("no session")
	// ErrInvalidTransition is returned when a lifecycle request is not
	// allowed from the current state.
	ErrInvalidTransition = errors.New("invalid lifecycle transition")
	// ErrChannelClosed is returned by pushes into a closed ByteChannel.
	ErrChannelClosed = errors.New("byte channel closed")
	// ErrUnsupported is returned by spawners on platforms without a PTY.
	ErrUnsupported = errors.New("pty not supported on this platform")
)

// SpawnErrorKind classifies why a child process could not be started.
type SpawnErrorKind int

const (
	SpawnOther SpawnErrorKind = iota
	SpawnNotFound
	SpawnPermissionDenied
	SpawnResourceExhausted
)

func (k SpawnErrorKind) String() string {
	switch k {
	case SpawnNotFound:
		return "executable not found"
	case SpawnPermissionDenied:
		return "permission denied"
	case SpawnResourceExhausted:
		return "resource exhausted"
	default:
		return "other"
	}
}

// SpawnError reports a failed session start.
type SpawnError struct {
	Kind    SpawnErrorKind
	Command string
	Err     error
}

func (e *SpawnError) Error() string {
	var sb strings.Builder
	sb.WriteString("spawn error")
	if e.Command != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Command)
	}
	sb.WriteString(": ")
	sb.WriteString(e.Kind.String())
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}

// NewSpawnError wraps err with a classification derived from it.
func NewSpawnError(command string, err error) *SpawnError {
	var se *SpawnError
	if errors.As(err, &se) {
		return se
	}
	return &SpawnError{Kind: classifySpawn(err), Command: command, Err: err}
}

func classifySpawn(err error) SpawnErrorKind {
	switch {
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		return SpawnNotFound
	case errors.Is(err, fs.ErrPermission):
		return SpawnPermissionDenied
	case resourceExhausted(err):
		return SpawnResourceExhausted
	default:
		return SpawnOther
	}
}

// WriteError reports a failed write to the child.
type WriteError struct {
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write to session: %v", e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}
