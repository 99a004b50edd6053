// Package key provides key event normalization for the dispatch engine.
//
// This package defines the fundamental types for representing keyboard
// input:
//
//   - Modifier: the modifier keys (Ctrl, Alt, Shift, Meta)
//   - Chord: one normalized key-combination
//   - Event: a raw key event as delivered by a host adapter
//   - Sequence: an ordered series of chords forming one binding
//
// Every chord has exactly one canonical string form, built by emitting the
// present modifiers in a fixed order (Control, Alt, Meta, Shift) joined by
// "+", followed by the key name:
//
//	"k"
//	"Control+Shift+K"
//	"Alt+Meta+Space"
//
// The canonical string is the sole equality and lookup key used by the
// trie and the dispatch machine. Both user-authored shortcut strings
// (ParseShortcut) and raw host events (NormalizeEvent) funnel into it, so
// a shortcut registered as "mod+s" and an event produced by pressing the
// platform's primary modifier plus s always meet on the same string.
//
// # Shortcut specifications
//
// Shortcut strings are "+"-separated, case-insensitive for modifier
// detection, and order-insensitive:
//
//	"mod+s"          - Meta+s on macOS, Control+s elsewhere
//	"ctrl+shift+k"   - same chord as "shift+ctrl+k"
//	"alt+space"      - named keys: Space, Plus, Enter, Escape, ...
//
// Parsing is strict: a missing key token, a second key token, or "mod"
// combined with an explicit "ctrl"/"meta" is an error.
package key
