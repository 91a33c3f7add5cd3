package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	glyphterm "github.com/phroun/glyphterm"
	"github.com/phroun/glyphterm/app"
	"github.com/phroun/glyphterm/cli"
	"github.com/phroun/glyphterm/geometry"
	"github.com/phroun/glyphterm/internal/appconfig"
	"pkt.systems/pslog"
)

func newRunCmd() *cobra.Command {
	var cfgPath string
	cmd := &cobra.Command{
		Use:   "run [-- command [args...]]",
		Short: "Run a shell or command inside the host terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTerminal(cmd, cfgPath, args)
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	cmd.Flags().SetInterspersed(false)
	return cmd
}

// runTerminal owns the host screen until the user quits, so logs go to
// the configured file instead of stderr.
func runTerminal(cmd *cobra.Command, cfgPath string, args []string) error {
	cfg, err := appconfig.Load(cfgPath)
	if err != nil {
		return err
	}
	border, err := cli.ParseBorderStyle(cfg.Host.Border)
	if err != nil {
		return err
	}

	logger, closeLog, err := fileLogger(cfg.Log.File)
	if err != nil {
		return err
	}
	defer closeLog()
	ctx := pslog.ContextWithLogger(cmd.Context(), logger)

	a := newApp(cfg, commandFor(cfg, args), logger)
	term := cli.New(a, cli.Options{
		BorderStyle:   border,
		Title:         cfg.Host.Title,
		ShowStatusBar: cfg.Host.StatusBar,
		Mouse:         cfg.Host.Mouse,
		Logger:        logger,
	})
	logger.Info("terminal start", "config", cfgPath, "color_depth", term.Capabilities().ColorDepth)
	err = term.Run(ctx)
	logger.Info("terminal stop", "status", a.Status().Session.String())
	return err
}

func fileLogger(path string) (pslog.Logger, func(), error) {
	if path == "" {
		return pslog.LoggerFromEnv(
			pslog.WithEnvWriter(io.Discard),
			pslog.WithEnvOptions(pslog.Options{Mode: pslog.ModeStructured, NoColor: true}),
		), func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	logger := pslog.LoggerFromEnv(
		pslog.WithEnvWriter(f),
		pslog.WithEnvOptions(pslog.Options{Mode: pslog.ModeStructured, NoColor: true}),
	)
	return logger, func() { _ = f.Close() }, nil
}

// commandFor returns the command from the arguments, or the configured shell.
func commandFor(cfg appconfig.Config, args []string) glyphterm.Command {
	cmd := cfg.Command()
	if len(args) > 0 {
		cmd.Program = args[0]
		cmd.Args = append([]string(nil), args[1:]...)
	}
	return cmd
}

func newApp(cfg appconfig.Config, command glyphterm.Command, logger pslog.Logger) *app.App {
	scheme := cfg.Scheme()
	return app.New(app.Options{
		Cols:     cfg.Terminal.Cols,
		Rows:     cfg.Terminal.Rows,
		Capacity: cfg.Terminal.Capacity,
		LogLines: cfg.Terminal.LogLines,
		Session: glyphterm.SessionOptions{
			Command:      command,
			ChannelDepth: cfg.Terminal.ChannelDepth,
			ReadChunk:    cfg.Terminal.ReadChunk,
			Logger:       logger,
		},
		Glyphs:        geometry.NewFixedAtlas(cfg.Render.CellWidth, cfg.Render.CellHeight),
		Scheme:        &scheme,
		QuickCommands: cfg.QuickCommands,
		Logger:        logger,
	})
}
