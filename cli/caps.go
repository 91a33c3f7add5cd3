package cli

import (
	"os"
	"strings"

	"golang.org/x/term"
)

// Capabilities describes the host terminal that glyphterm draws into.
type Capabilities struct {
	TermType   string // e.g., "xterm-256color"
	IsTerminal bool   // true if stdout is an interactive terminal
	ColorDepth int    // 8=basic, 16=extended, 256=256color, 24=truecolor

	// Screen dimensions
	Width  int // columns
	Height int // rows
}

// DetectCapabilities inspects TERM, COLORTERM and the size of fd.
func DetectCapabilities(fd int) Capabilities {
	c := Capabilities{
		TermType:   os.Getenv("TERM"),
		IsTerminal: term.IsTerminal(fd),
		Width:      80,
		Height:     24,
	}
	if c.TermType == "" {
		c.TermType = "unknown"
	}
	c.ColorDepth = colorDepth(c.TermType, os.Getenv("COLORTERM"))
	if c.IsTerminal {
		if w, h, err := term.GetSize(fd); err == nil && w > 0 && h > 0 {
			c.Width, c.Height = w, h
		}
	}
	return c
}

func colorDepth(termType, colorTerm string) int {
	switch strings.ToLower(colorTerm) {
	case "truecolor", "24bit":
		return 24
	}
	switch {
	case strings.Contains(termType, "direct"), strings.Contains(termType, "truecolor"):
		return 24
	case strings.Contains(termType, "256color"):
		return 256
	case termType == "dumb", termType == "unknown":
		return 8
	default:
		return 16
	}
}
