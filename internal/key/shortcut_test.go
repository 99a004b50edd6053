package key

import (
	"errors"
	"testing"
)

func TestParseShortcutSingleKey(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"a", "a"},
		{"K", "K"},
		{"1", "1"},
		{"?", "?"},
		{"space", "Space"},
		{"plus", "Plus"},
		{"Enter", "Enter"},
		{"escape", "Escape"},
		{"Up", "ArrowUp"},
	}

	for _, tt := range tests {
		c, err := ParseShortcut(tt.text, PlatformOther)
		if err != nil {
			t.Errorf("ParseShortcut(%q) error = %v", tt.text, err)
			continue
		}
		if got := c.Canonical(); got != tt.want {
			t.Errorf("ParseShortcut(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestParseShortcutModifiers(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"ctrl+s", "Control+s"},
		{"control+s", "Control+s"},
		{"alt+f", "Alt+f"},
		{"option+f", "Alt+f"},
		{"cmd+p", "Meta+p"},
		{"command+p", "Meta+p"},
		{"meta+p", "Meta+p"},
		{"ctrl+alt+x", "Control+Alt+x"},
		{"ctrl+shift+k", "Control+Shift+K"},
		{"shift+ctrl+k", "Control+Shift+K"},
		{"ctrl+alt+meta+shift+z", "Control+Alt+Meta+Shift+Z"},
		{"shift+/", "Shift+/"},
		{"ctrl+space", "Control+Space"},
	}

	for _, tt := range tests {
		c, err := ParseShortcut(tt.text, PlatformOther)
		if err != nil {
			t.Errorf("ParseShortcut(%q) error = %v", tt.text, err)
			continue
		}
		if got := c.Canonical(); got != tt.want {
			t.Errorf("ParseShortcut(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestParseShortcutOrderInvariance(t *testing.T) {
	a := MustParseShortcut("shift+ctrl+k", PlatformOther)
	b := MustParseShortcut("ctrl+shift+k", PlatformOther)

	if a.Canonical() != b.Canonical() {
		t.Errorf("order-variant canonical forms: %q vs %q", a.Canonical(), b.Canonical())
	}
	if a.Canonical() != "Control+Shift+K" {
		t.Errorf("canonical = %q, want %q", a.Canonical(), "Control+Shift+K")
	}
}

func TestParseShortcutModAlias(t *testing.T) {
	tests := []struct {
		text     string
		platform Platform
		same     string
	}{
		{"mod+s", PlatformMac, "cmd+s"},
		{"mod+s", PlatformOther, "ctrl+s"},
		{"mod+shift+k", PlatformMac, "cmd+shift+k"},
		{"mod+shift+k", PlatformOther, "ctrl+shift+k"},
	}

	for _, tt := range tests {
		got := MustParseShortcut(tt.text, tt.platform)
		want := MustParseShortcut(tt.same, tt.platform)
		if !got.Equals(want) {
			t.Errorf("ParseShortcut(%q, %v) = %q, want %q (from %q)",
				tt.text, tt.platform, got.Canonical(), want.Canonical(), tt.same)
		}
	}
}

func TestParseShortcutIdempotence(t *testing.T) {
	// Feeding a canonical form back through the parser must not change it.
	specs := []string{"ctrl+shift+k", "mod+s", "alt+space", "?", "K"}

	for _, spec := range specs {
		first := MustParseShortcut(spec, PlatformOther)
		second, err := ParseShortcut(first.Canonical(), PlatformOther)
		if err != nil {
			t.Errorf("reparsing canonical %q: %v", first.Canonical(), err)
			continue
		}
		if !first.Equals(second) {
			t.Errorf("not idempotent: %q -> %q -> %q",
				spec, first.Canonical(), second.Canonical())
		}
	}
}

func TestParseShortcutErrors(t *testing.T) {
	tests := []struct {
		text string
		want error
	}{
		{"", ErrEmptyShortcut},
		{"   ", ErrEmptyShortcut},
		{"ctrl+", ErrInvalidShortcut},
		{"ctrl+shift", ErrInvalidShortcut},
		{"a+b", ErrInvalidShortcut},
		{"mod+ctrl+s", ErrInvalidShortcut},
		{"mod+meta+s", ErrInvalidShortcut},
		{"ctrl+foo", ErrInvalidShortcut},
	}

	for _, tt := range tests {
		_, err := ParseShortcut(tt.text, PlatformOther)
		if !errors.Is(err, tt.want) {
			t.Errorf("ParseShortcut(%q) error = %v, want %v", tt.text, err, tt.want)
		}
	}
}

func TestModShiftOnMacAllowed(t *testing.T) {
	// mod+shift is not a misconfiguration; only mod with explicit
	// ctrl/meta is.
	c, err := ParseShortcut("mod+shift+p", PlatformMac)
	if err != nil {
		t.Fatalf("ParseShortcut(mod+shift+p) error = %v", err)
	}
	if got := c.Canonical(); got != "Meta+Shift+P" {
		t.Errorf("canonical = %q, want %q", got, "Meta+Shift+P")
	}
}
