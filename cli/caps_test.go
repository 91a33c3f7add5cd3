package cli

import "testing"

func TestColorDepth(t *testing.T) {
	tests := []struct {
		term, colorTerm string
		want            int
	}{
		{"xterm-256color", "truecolor", 24},
		{"xterm", "24bit", 24},
		{"xterm-direct", "", 24},
		{"xterm-256color", "", 256},
		{"screen-256color", "", 256},
		{"xterm", "", 16},
		{"dumb", "", 8},
		{"unknown", "", 8},
	}
	for _, tc := range tests {
		if got := colorDepth(tc.term, tc.colorTerm); got != tc.want {
			t.Fatalf("colorDepth(%q, %q) = %d, want %d", tc.term, tc.colorTerm, got, tc.want)
		}
	}
}

func TestParseBorderStyle(t *testing.T) {
	tests := []struct {
		name string
		want BorderStyle
	}{
		{"", BorderNone},
		{"none", BorderNone},
		{"single", BorderSingle},
		{"double", BorderDouble},
		{"heavy", BorderHeavy},
		{"rounded", BorderRounded},
	}
	for _, tc := range tests {
		got, err := ParseBorderStyle(tc.name)
		if err != nil || got != tc.want {
			t.Fatalf("ParseBorderStyle(%q) = %v, %v", tc.name, got, err)
		}
	}
	if _, err := ParseBorderStyle("dotted"); err == nil {
		t.Fatalf("expected an error for an unknown style")
	}
}
