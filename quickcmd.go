package glyphterm

import (
	"slices"
	"strings"
	"unicode"
)

// KeyBinding is a shortcut for a quick command. Key is a printable
// character ("1", "a") or a function key name ("F5").
type KeyBinding struct {
	Ctrl  bool   `mapstructure:"ctrl" yaml:"ctrl"`
	Alt   bool   `mapstructure:"alt" yaml:"alt"`
	Shift bool   `mapstructure:"shift" yaml:"shift"`
	Key   string `mapstructure:"key" yaml:"key"`
}

// IsEmpty reports whether no key is bound.
func (k KeyBinding) IsEmpty() bool {
	return k.Key == ""
}

// String renders the binding as "Ctrl+Alt+Shift+key".
func (k KeyBinding) String() string {
	if k.IsEmpty() {
		return ""
	}
	var parts []string
	if k.Ctrl {
		parts = append(parts, "Ctrl")
	}
	if k.Alt {
		parts = append(parts, "Alt")
	}
	if k.Shift {
		parts = append(parts, "Shift")
	}
	return strings.Join(append(parts, k.Key), "+")
}

func (k KeyBinding) matches(o KeyBinding) bool {
	return k.Ctrl == o.Ctrl && k.Alt == o.Alt && k.Shift == o.Shift && strings.EqualFold(k.Key, o.Key)
}

var functionKeyNames = map[Key]string{
	KeyF1: "F1", KeyF2: "F2", KeyF3: "F3", KeyF4: "F4",
	KeyF5: "F5", KeyF6: "F6", KeyF7: "F7", KeyF8: "F8",
	KeyF9: "F9", KeyF10: "F10", KeyF11: "F11", KeyF12: "F12",
}

// BindingFor returns the binding a key event would trigger.
func BindingFor(ev KeyEvent) KeyBinding {
	kb := KeyBinding{
		Ctrl:  ev.Mods&ModCtrl != 0,
		Alt:   ev.Mods&ModAlt != 0,
		Shift: ev.Mods&ModShift != 0,
	}
	switch {
	case ev.Key == KeyRune && ev.Rune != 0:
		kb.Key = string(unicode.ToLower(ev.Rune))
	default:
		kb.Key = functionKeyNames[ev.Key]
	}
	return kb
}

// QuickCommand is a named command string sent to the shell on demand.
type QuickCommand struct {
	ID          string     `mapstructure:"id" yaml:"id"`
	Name        string     `mapstructure:"name" yaml:"name"`
	Command     string     `mapstructure:"command" yaml:"command"`
	AutoExecute bool       `mapstructure:"auto_execute" yaml:"auto_execute"`
	Tag         string     `mapstructure:"tag" yaml:"tag"`
	KeyBinding  KeyBinding `mapstructure:"keybinding" yaml:"keybinding"`
}

// Payload returns the bytes to send: the command, followed by a carriage
// return when it executes immediately.
func (q QuickCommand) Payload() []byte {
	if q.AutoExecute {
		return []byte(q.Command + "\r")
	}
	return []byte(q.Command)
}

// QuickCommands is an ordered set of quick commands.
type QuickCommands []QuickCommand

// Tags returns the sorted, distinct non-empty tags.
func (qs QuickCommands) Tags() []string {
	var tags []string
	for _, q := range qs {
		if q.Tag != "" && !slices.Contains(tags, q.Tag) {
			tags = append(tags, q.Tag)
		}
	}
	slices.Sort(tags)
	return tags
}

// ByTag returns the commands carrying tag, in order.
func (qs QuickCommands) ByTag(tag string) QuickCommands {
	var out QuickCommands
	for _, q := range qs {
		if q.Tag == tag {
			out = append(out, q)
		}
	}
	return out
}

// Find returns the first command bound to kb.
func (qs QuickCommands) Find(kb KeyBinding) (QuickCommand, bool) {
	if kb.IsEmpty() {
		return QuickCommand{}, false
	}
	for _, q := range qs {
		if !q.KeyBinding.IsEmpty() && q.KeyBinding.matches(kb) {
			return q, true
		}
	}
	return QuickCommand{}, false
}
