package appconfig

import (
	"testing"

	glyphterm "github.com/phroun/glyphterm"
)

func TestDefaultConfigSizes(t *testing.T) {
	cfg, err := DefaultConfig()
	if err != nil {
		t.Fatalf("default config: %v", err)
	}
	if cfg.Terminal.ChannelDepth != glyphterm.DefaultChannelDepth || cfg.Terminal.ReadChunk != glyphterm.DefaultReadChunk {
		t.Fatalf("pipeline defaults = %+v", cfg.Terminal)
	}
	if cfg.Terminal.Capacity < cfg.Terminal.Rows {
		t.Fatalf("capacity %d below rows %d", cfg.Terminal.Capacity, cfg.Terminal.Rows)
	}
}

func TestDefaultConfigLogFileHonorsStateHome(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", "/state")
	cfg, err := DefaultConfig()
	if err != nil {
		t.Fatalf("default config: %v", err)
	}
	if cfg.Log.File != "/state/glyphterm/glyphterm.log" {
		t.Fatalf("log file = %q", cfg.Log.File)
	}
}

func TestSchemeOverrides(t *testing.T) {
	cfg, _ := DefaultConfig()
	cfg.Render.Cursor = "#f00"
	s := cfg.Scheme()
	if s.Cursor.R != 0xff || s.Cursor.G != 0 || s.Cursor.B != 0 {
		t.Fatalf("cursor = %+v", s.Cursor)
	}
	if s.Background != s.SelectionForeground {
		t.Fatalf("selection foreground should follow the background")
	}
}
