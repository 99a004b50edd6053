package key

import "strings"

// Modifier represents keyboard modifier keys.
type Modifier uint8

const (
	// ModNone indicates no modifiers.
	ModNone Modifier = 0

	// ModCtrl indicates the Control key.
	ModCtrl Modifier = 1 << iota

	// ModAlt indicates the Alt key (Option on macOS).
	ModAlt

	// ModMeta indicates the Meta key (Cmd on macOS, Win on Windows).
	ModMeta

	// ModShift indicates the Shift key.
	ModShift
)

// Has returns true if m contains the specified modifier.
func (m Modifier) Has(mod Modifier) bool {
	return m&mod != 0
}

// HasCtrl returns true if Control is pressed.
func (m Modifier) HasCtrl() bool {
	return m.Has(ModCtrl)
}

// HasAlt returns true if Alt is pressed.
func (m Modifier) HasAlt() bool {
	return m.Has(ModAlt)
}

// HasMeta returns true if Meta is pressed.
func (m Modifier) HasMeta() bool {
	return m.Has(ModMeta)
}

// HasShift returns true if Shift is pressed.
func (m Modifier) HasShift() bool {
	return m.Has(ModShift)
}

// With returns a new Modifier with the specified modifier added.
func (m Modifier) With(mod Modifier) Modifier {
	return m | mod
}

// Without returns a new Modifier with the specified modifier removed.
func (m Modifier) Without(mod Modifier) Modifier {
	return m &^ mod
}

// IsEmpty returns true if no modifiers are set.
func (m Modifier) IsEmpty() bool {
	return m == ModNone
}

// names returns the canonical modifier names in the fixed serialization
// order: Control, Alt, Meta, Shift. Two semantically equal modifier sets
// always produce the same slice.
func (m Modifier) names() []string {
	if m == ModNone {
		return nil
	}

	parts := make([]string, 0, 4)
	if m.HasCtrl() {
		parts = append(parts, "Control")
	}
	if m.HasAlt() {
		parts = append(parts, "Alt")
	}
	if m.HasMeta() {
		parts = append(parts, "Meta")
	}
	if m.HasShift() {
		parts = append(parts, "Shift")
	}
	return parts
}

// String returns the canonical representation like "Control+Shift".
func (m Modifier) String() string {
	return strings.Join(m.names(), "+")
}

// modifierNameMap maps modifier names (lowercase) to Modifier values.
// The "mod" alias is platform-dependent and resolved by ParseShortcut.
var modifierNameMap = map[string]Modifier{
	"ctrl":    ModCtrl,
	"control": ModCtrl,
	"alt":     ModAlt,
	"option":  ModAlt,
	"shift":   ModShift,
	"meta":    ModMeta,
	"cmd":     ModMeta,
	"command": ModMeta,
}

// ModifierFromName returns the Modifier for a given name (case-insensitive).
// Returns ModNone if the name is not a modifier.
func ModifierFromName(name string) Modifier {
	if m, ok := modifierNameMap[strings.ToLower(strings.TrimSpace(name))]; ok {
		return m
	}
	return ModNone
}
