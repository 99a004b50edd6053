package key

import (
	"runtime"
	"strings"
)

// Platform selects platform-dependent normalization rules.
type Platform uint8

const (
	// PlatformOther covers Linux, Windows, and everything that is not
	// macOS. The "mod" alias resolves to Control.
	PlatformOther Platform = iota

	// PlatformMac enables macOS rules: "mod" resolves to Meta, Option
	// produces dead symbols that map back to their physical key, and
	// Shift+Meta chords may report lower-case keys.
	PlatformMac
)

// NativePlatform returns the platform of the running process.
func NativePlatform() Platform {
	if runtime.GOOS == "darwin" {
		return PlatformMac
	}
	return PlatformOther
}

// Chord is one normalized key-combination: a key name plus modifier flags.
// The Key field is never a bare modifier name.
type Chord struct {
	// Key is the key name, e.g. "k", "K", "Enter", "Space".
	Key string

	// Mods contains the active modifier keys.
	Mods Modifier
}

// Canonical returns the unique serialization of the chord: present
// modifiers in fixed order (Control, Alt, Meta, Shift) joined by "+",
// then the key name. Two semantically equal chords always serialize
// identically; this is the sole equality test used by the trie.
func (c Chord) Canonical() string {
	parts := c.Mods.names()
	if len(parts) == 0 {
		return c.Key
	}
	return strings.Join(parts, "+") + "+" + c.Key
}

// WithoutShift returns a copy of the chord with the Shift flag dropped.
// Used for the shift-symbol fallback during trie lookup: a handler
// registered as plain "?" should match a Shift-chorded keystroke.
func (c Chord) WithoutShift() Chord {
	c.Mods = c.Mods.Without(ModShift)
	return c
}

// Equals returns true if two chords normalize to the same canonical string.
func (c Chord) Equals(other Chord) bool {
	return c.Key == other.Key && c.Mods == other.Mods
}

// IsZero returns true for an unpopulated chord.
func (c Chord) IsZero() bool {
	return c.Key == "" && c.Mods == ModNone
}

// String implements fmt.Stringer.
func (c Chord) String() string {
	return c.Canonical()
}
