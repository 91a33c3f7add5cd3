package appconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	glyphterm "github.com/phroun/glyphterm"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Load reads configuration from the provided path. If path is empty, uses DefaultConfigPath.
// A missing file yields the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return Config{}, err
		}
		path = defaultPath
	}

	cfg, err := DefaultConfig()
	if err != nil {
		return Config{}, err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetDefault("config_version", cfg.ConfigVersion)
	v.SetDefault("shell.program", cfg.Shell.Program)
	v.SetDefault("shell.args", cfg.Shell.Args)
	v.SetDefault("shell.env", cfg.Shell.Env)
	v.SetDefault("shell.working_dir", cfg.Shell.WorkingDir)
	v.SetDefault("terminal.cols", cfg.Terminal.Cols)
	v.SetDefault("terminal.rows", cfg.Terminal.Rows)
	v.SetDefault("terminal.capacity", cfg.Terminal.Capacity)
	v.SetDefault("terminal.channel_depth", cfg.Terminal.ChannelDepth)
	v.SetDefault("terminal.read_chunk", cfg.Terminal.ReadChunk)
	v.SetDefault("terminal.log_lines", cfg.Terminal.LogLines)
	v.SetDefault("render.cell_width", cfg.Render.CellWidth)
	v.SetDefault("render.cell_height", cfg.Render.CellHeight)
	v.SetDefault("render.background", cfg.Render.Background)
	v.SetDefault("render.foreground", cfg.Render.Foreground)
	v.SetDefault("render.selection", cfg.Render.Selection)
	v.SetDefault("render.cursor", cfg.Render.Cursor)
	v.SetDefault("host.border", cfg.Host.Border)
	v.SetDefault("host.title", cfg.Host.Title)
	v.SetDefault("host.status_bar", cfg.Host.StatusBar)
	v.SetDefault("host.mouse", cfg.Host.Mouse)
	v.SetDefault("log.file", cfg.Log.File)
	v.SetDefault("quick_commands", cfg.QuickCommands)

	configLoaded := false
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return Config{}, err
		}
	} else {
		configLoaded = true
	}

	if configLoaded {
		if !v.InConfig("config_version") {
			return Config{}, fmt.Errorf("config_version is required; expected %d", CurrentConfigVersion)
		}
		if v.GetInt("config_version") != CurrentConfigVersion {
			return Config{}, fmt.Errorf("unsupported config_version %d; expected %d", v.GetInt("config_version"), CurrentConfigVersion)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	if configLoaded {
		// Viper lowercases map keys; environment names are case sensitive.
		env, err := readShellEnv(path)
		if err != nil {
			return Config{}, err
		}
		if env != nil {
			cfg.Shell.Env = env
		}
	}
	expandConfigEnv(&cfg)
	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func readShellEnv(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw struct {
		Shell struct {
			Env map[string]string `yaml:"env"`
		} `yaml:"shell"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse shell.env: %w", err)
	}
	return raw.Shell.Env, nil
}

func validate(cfg Config) error {
	t := cfg.Terminal
	if t.Cols < 1 || t.Rows < 1 {
		return fmt.Errorf("terminal.cols and terminal.rows must be positive (got %dx%d)", t.Cols, t.Rows)
	}
	if t.Capacity < t.Rows {
		return fmt.Errorf("terminal.capacity %d must be at least terminal.rows %d", t.Capacity, t.Rows)
	}
	if t.ChannelDepth < 1 {
		return fmt.Errorf("terminal.channel_depth must be positive")
	}
	if t.ReadChunk < 1 {
		return fmt.Errorf("terminal.read_chunk must be positive")
	}
	if cfg.Render.CellWidth <= 0 || cfg.Render.CellHeight <= 0 {
		return fmt.Errorf("render.cell_width and render.cell_height must be positive")
	}
	colors := []struct{ key, value string }{
		{"render.background", cfg.Render.Background},
		{"render.foreground", cfg.Render.Foreground},
		{"render.selection", cfg.Render.Selection},
		{"render.cursor", cfg.Render.Cursor},
	}
	for _, c := range colors {
		if _, ok := glyphterm.ParseHexColor(c.value); !ok {
			return fmt.Errorf("%s must be #RGB or #RRGGBB, got %q", c.key, c.value)
		}
	}
	switch cfg.Host.Border {
	case "", "none", "single", "double", "heavy", "rounded":
	default:
		return fmt.Errorf("host.border must be none, single, double, heavy or rounded, got %q", cfg.Host.Border)
	}
	seen := map[string]bool{}
	for i, q := range cfg.QuickCommands {
		if strings.TrimSpace(q.Command) == "" {
			return fmt.Errorf("quick_commands[%d] has no command", i)
		}
		if q.ID != "" {
			if seen[q.ID] {
				return fmt.Errorf("quick_commands[%d] duplicates id %q", i, q.ID)
			}
			seen[q.ID] = true
		}
	}
	return nil
}

func expandConfigEnv(cfg *Config) {
	if cfg == nil {
		return
	}
	cfg.Shell.Program = expandEnv(cfg.Shell.Program)
	cfg.Shell.WorkingDir = expandEnv(cfg.Shell.WorkingDir)
	for i, arg := range cfg.Shell.Args {
		cfg.Shell.Args[i] = expandEnv(arg)
	}
	cfg.Log.File = expandEnv(cfg.Log.File)
	// Quick commands without an id are addressed by position.
	for i := range cfg.QuickCommands {
		if cfg.QuickCommands[i].ID == "" {
			cfg.QuickCommands[i].ID = fmt.Sprintf("cmd-%d", i+1)
		}
	}
}

func expandEnv(value string) string {
	if value == "" {
		return value
	}
	return os.Expand(value, func(key string) string {
		if key == "" {
			return ""
		}
		if val, ok := os.LookupEnv(key); ok {
			return val
		}
		return "$" + key
	})
}

// WriteDefault writes the default config to the target path.
func WriteDefault(path string, overwrite bool) (string, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return "", err
		}
		path = defaultPath
	}

	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return "", fmt.Errorf("config already exists at %s", path)
		}
	}

	cfg, err := DefaultConfig()
	if err != nil {
		return "", err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", err
	}
	return path, nil
}
