package appconfig

import (
	"maps"
	"os"
	"path/filepath"
	"slices"

	glyphterm "github.com/phroun/glyphterm"
)

// Config is the top-level application configuration.
type Config struct {
	ConfigVersion int                     `mapstructure:"config_version" yaml:"config_version"`
	Shell         ShellConfig             `mapstructure:"shell" yaml:"shell"`
	Terminal      TerminalConfig          `mapstructure:"terminal" yaml:"terminal"`
	Render        RenderConfig            `mapstructure:"render" yaml:"render"`
	Host          HostConfig              `mapstructure:"host" yaml:"host"`
	Log           LogConfig               `mapstructure:"log" yaml:"log"`
	QuickCommands glyphterm.QuickCommands `mapstructure:"quick_commands" yaml:"quick_commands"`
}

// CurrentConfigVersion marks the supported config version.
const CurrentConfigVersion = 1

// ShellConfig selects the child process. An empty program means $SHELL.
type ShellConfig struct {
	Program    string            `mapstructure:"program" yaml:"program"`
	Args       []string          `mapstructure:"args" yaml:"args"`
	Env        map[string]string `mapstructure:"env" yaml:"env"`
	WorkingDir string            `mapstructure:"working_dir" yaml:"working_dir"`
}

// TerminalConfig sizes the grid, history and output pipeline.
type TerminalConfig struct {
	Cols int `mapstructure:"cols" yaml:"cols"`
	Rows int `mapstructure:"rows" yaml:"rows"`
	// Capacity bounds grid plus scrollback rows.
	Capacity     int `mapstructure:"capacity" yaml:"capacity"`
	ChannelDepth int `mapstructure:"channel_depth" yaml:"channel_depth"`
	ReadChunk    int `mapstructure:"read_chunk" yaml:"read_chunk"`
	LogLines     int `mapstructure:"log_lines" yaml:"log_lines"`
}

// RenderConfig holds cell metrics and colors as #RRGGBB.
type RenderConfig struct {
	CellWidth  float32 `mapstructure:"cell_width" yaml:"cell_width"`
	CellHeight float32 `mapstructure:"cell_height" yaml:"cell_height"`
	Background string  `mapstructure:"background" yaml:"background"`
	Foreground string  `mapstructure:"foreground" yaml:"foreground"`
	Selection  string  `mapstructure:"selection" yaml:"selection"`
	Cursor     string  `mapstructure:"cursor" yaml:"cursor"`
}

// HostConfig controls the host-terminal front end.
type HostConfig struct {
	// Border is one of none, single, double, heavy or rounded.
	Border    string `mapstructure:"border" yaml:"border"`
	Title     string `mapstructure:"title" yaml:"title"`
	StatusBar bool   `mapstructure:"status_bar" yaml:"status_bar"`
	Mouse     bool   `mapstructure:"mouse" yaml:"mouse"`
}

// LogConfig controls where logs go while the terminal owns the screen.
type LogConfig struct {
	File string `mapstructure:"file" yaml:"file"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() (Config, error) {
	stateDir, err := defaultStateDir()
	if err != nil {
		return Config{}, err
	}
	return Config{
		ConfigVersion: CurrentConfigVersion,
		Shell: ShellConfig{
			Args: []string{},
			Env:  map[string]string{},
		},
		Terminal: TerminalConfig{
			Cols:         80,
			Rows:         24,
			Capacity:     10000,
			ChannelDepth: glyphterm.DefaultChannelDepth,
			ReadChunk:    glyphterm.DefaultReadChunk,
			LogLines:     glyphterm.DefaultOutputLogLines,
		},
		Render: RenderConfig{
			CellWidth:  8,
			CellHeight: 16,
			Background: "#121212",
			Foreground: "#CCCCCC",
			Selection:  "#B4B4B4",
			Cursor:     "#CCCCCC",
		},
		Host: HostConfig{
			Border:    "rounded",
			Title:     "glyphterm",
			StatusBar: true,
			Mouse:     true,
		},
		Log: LogConfig{
			File: filepath.Join(stateDir, "glyphterm.log"),
		},
		QuickCommands: glyphterm.QuickCommands{},
	}, nil
}

// DefaultConfigPath returns the default config file location.
func DefaultConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "glyphterm", "config.yaml"), nil
}

func defaultStateDir() (string, error) {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "glyphterm"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "state", "glyphterm"), nil
}

// Command returns the shell command described by the config.
func (c Config) Command() glyphterm.Command {
	cmd := glyphterm.Command{
		Program: c.Shell.Program,
		Args:    append([]string(nil), c.Shell.Args...),
		Dir:     c.Shell.WorkingDir,
	}
	for _, k := range slices.Sorted(maps.Keys(c.Shell.Env)) {
		cmd.Env = append(cmd.Env, k+"="+c.Shell.Env[k])
	}
	return cmd
}

// Scheme returns the color scheme with the configured overrides applied.
// Colors are validated by Load.
func (c Config) Scheme() glyphterm.ColorScheme {
	s := glyphterm.DefaultColorScheme()
	if col, ok := glyphterm.ParseHexColor(c.Render.Background); ok {
		s.Background = col
		s.SelectionForeground = col
	}
	if col, ok := glyphterm.ParseHexColor(c.Render.Foreground); ok {
		s.Foreground = col
	}
	if col, ok := glyphterm.ParseHexColor(c.Render.Selection); ok {
		s.Selection = col
	}
	if col, ok := glyphterm.ParseHexColor(c.Render.Cursor); ok {
		s.Cursor = col
	}
	return s
}
