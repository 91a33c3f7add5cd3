package glyphterm

import "fmt"

// StatusKind names a session lifecycle state.
type StatusKind int

const (
	StatusStarting StatusKind = iota
	StatusConnected
	StatusReconnecting
	StatusExited
	StatusFailed
)

func (k StatusKind) String() string {
	switch k {
	case StatusStarting:
		return "starting"
	case StatusConnected:
		return "connected"
	case StatusReconnecting:
		return "reconnecting"
	case StatusExited:
		return "exited"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// SessionStatus is the lifecycle state of a session. Reason is set for
// StatusFailed; ExitCode is meaningful for StatusExited when HasExitCode.
type SessionStatus struct {
	Kind        StatusKind
	Reason      string
	ExitCode    int
	HasExitCode bool
}

func Starting() SessionStatus     { return SessionStatus{Kind: StatusStarting} }
func Connected() SessionStatus    { return SessionStatus{Kind: StatusConnected} }
func Reconnecting() SessionStatus { return SessionStatus{Kind: StatusReconnecting} }

// Exited returns an exited status carrying code; a negative code means
// the exit code is unknown.
func Exited(code int) SessionStatus {
	if code < 0 {
		return SessionStatus{Kind: StatusExited}
	}
	return SessionStatus{Kind: StatusExited, ExitCode: code, HasExitCode: true}
}

func Failed(reason string) SessionStatus {
	return SessionStatus{Kind: StatusFailed, Reason: reason}
}

// String returns the status text shown to the user.
func (s SessionStatus) String() string {
	switch s.Kind {
	case StatusExited:
		if s.HasExitCode {
			return fmt.Sprintf("exited (code %d)", s.ExitCode)
		}
		return "exited"
	case StatusFailed:
		if s.Reason != "" {
			return "failed: " + s.Reason
		}
		return "failed"
	default:
		return s.Kind.String()
	}
}
