package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	glyphterm "github.com/phroun/glyphterm"
	"github.com/phroun/glyphterm/app"
	"github.com/phroun/glyphterm/cli"
	"github.com/phroun/glyphterm/geometry"
	"github.com/phroun/glyphterm/internal/appconfig"
	"pkt.systems/pslog"
)

const snapshotPoll = 10 * time.Millisecond

type snapshotOptions struct {
	configPath string
	timeout    time.Duration
	cols, rows int
	ansi       bool
	showLog    bool
}

func newSnapshotCmd() *cobra.Command {
	var opts snapshotOptions
	cmd := &cobra.Command{
		Use:   "snapshot [flags] -- command [args...]",
		Short: "Run a command headless and print the resulting screen",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := appconfig.Load(opts.configPath)
			if err != nil {
				return err
			}
			if opts.cols > 0 {
				cfg.Terminal.Cols = opts.cols
			}
			if opts.rows > 0 {
				cfg.Terminal.Rows = opts.rows
			}
			if cfg.Terminal.Capacity < cfg.Terminal.Rows {
				cfg.Terminal.Capacity = cfg.Terminal.Rows
			}
			logger := pslog.Ctx(cmd.Context())
			a := newApp(cfg, commandFor(cfg, args), logger)
			defer a.Close()
			if err := a.Start(cmd.Context()); err != nil {
				return err
			}
			status := waitForExit(cmd, a, opts.timeout)
			return writeSnapshot(cmd.OutOrStdout(), a, status, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "path to config file")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 5*time.Second, "how long to wait for the command to exit")
	cmd.Flags().IntVar(&opts.cols, "cols", 0, "grid columns (default from config)")
	cmd.Flags().IntVar(&opts.rows, "rows", 0, "grid rows (default from config)")
	cmd.Flags().BoolVar(&opts.ansi, "ansi", false, "print the screen with ANSI colors")
	cmd.Flags().BoolVar(&opts.showLog, "log", false, "print the captured output log")
	cmd.Flags().SetInterspersed(false)
	return cmd
}

// waitForExit pumps a until its session leaves the running states or the
// timeout passes, and returns the final status.
func waitForExit(cmd *cobra.Command, a *app.App, timeout time.Duration) glyphterm.SessionStatus {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	tick := time.NewTicker(snapshotPoll)
	defer tick.Stop()
	for {
		a.Pump()
		st := a.Lifecycle().Status()
		if st.Kind == glyphterm.StatusExited || st.Kind == glyphterm.StatusFailed {
			return st
		}
		select {
		case <-cmd.Context().Done():
			return st
		case <-deadline.C:
			pslog.Ctx(cmd.Context()).Warn("snapshot timed out", "timeout", timeout)
			return st
		case <-tick.C:
		}
	}
}

func writeSnapshot(w io.Writer, a *app.App, status glyphterm.SessionStatus, opts snapshotOptions) error {
	now := time.Now()
	frame := a.Frame(now)
	if opts.ansi {
		caps := cli.Capabilities{TermType: "xterm-256color", ColorDepth: 24}
		if _, err := io.WriteString(w, cli.RenderToString(a, caps, cli.Options{}, now)+"\n"); err != nil {
			return err
		}
	} else {
		lines := a.Buffer().Text()
		for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
			lines = lines[:len(lines)-1]
		}
		for _, line := range lines {
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
	}
	if _, err := fmt.Fprintf(w, "# %s | %dx%d | scrollback %d | quads: %d color, %d glyph\n",
		status, frame.Status.Cols, frame.Status.Rows, a.Buffer().ScrollbackLen(),
		len(frame.Colors)/geometry.VerticesPerQuad, len(frame.Glyphs)/geometry.VerticesPerQuad); err != nil {
		return err
	}
	if opts.showLog {
		for _, l := range a.OutputLog() {
			prefix := "<"
			if l.Direction == glyphterm.DirectionInput {
				prefix = ">"
			}
			if _, err := fmt.Fprintf(w, "%s %s\n", prefix, l.Text); err != nil {
				return err
			}
		}
	}
	if status.Kind == glyphterm.StatusFailed {
		return errors.New(status.String())
	}
	return nil
}
