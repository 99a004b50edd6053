package key

import (
	"fmt"
	"time"
)

// EventType identifies which native listener produced an event.
type EventType uint8

const (
	// KeyDown is the default event type.
	KeyDown EventType = iota

	// KeyUp fires when a key is released.
	KeyUp

	// KeyPress fires for character-producing keystrokes.
	KeyPress
)

// String returns the wire name of the event type.
func (t EventType) String() string {
	switch t {
	case KeyDown:
		return "keydown"
	case KeyUp:
		return "keyup"
	case KeyPress:
		return "keypress"
	default:
		return fmt.Sprintf("EventType(%d)", t)
	}
}

// ParseEventType parses a wire name like "keydown". An empty string
// resolves to KeyDown, the default.
func ParseEventType(s string) (EventType, error) {
	switch s {
	case "", "keydown":
		return KeyDown, nil
	case "keyup":
		return KeyUp, nil
	case "keypress":
		return KeyPress, nil
	default:
		return KeyDown, fmt.Errorf("unknown event type %q", s)
	}
}

// Event is a raw key event as delivered by a host adapter, before
// normalization.
type Event struct {
	// Type is the native listener the event arrived on.
	Type EventType

	// Key is the raw key name as reported by the host, e.g. "k", "K",
	// "?", "Enter", or a macOS Option symbol like "∫".
	Key string

	// Mods contains the active modifier keys.
	Mods Modifier

	// Time is when the event occurred.
	Time time.Time

	// FromEditable marks events originating from an editable target
	// (text inputs and the like). The registry drops them before they
	// reach the normalizer.
	FromEditable bool
}

// NewEvent creates a key-down event with the current timestamp.
func NewEvent(name string, mods Modifier) Event {
	return Event{Type: KeyDown, Key: name, Mods: mods, Time: time.Now()}
}

// NormalizeEvent converts a raw event into its canonical chord.
//
// On macOS two corrections apply before serialization. Option is a
// dead-symbol modifier: the host reports the symbol the key produced
// ("∫" for Option+b), so the symbol is mapped back to the physical key
// it came from. And when Shift and Meta are both held the host may
// report a lower-case key where an upper-case one was intended.
//
// Space and "+" map to the named tokens Space and Plus since the
// canonical serialization uses "+" as a separator.
func NormalizeEvent(ev Event, p Platform) Chord {
	name := ev.Key

	if p == PlatformMac {
		if ev.Mods.HasAlt() {
			if base, ok := macOptionSymbols[name]; ok {
				name = base
			}
		}
		if ev.Mods.HasShift() && ev.Mods.HasMeta() {
			if upper, ok := macShiftMetaUpper[name]; ok {
				name = upper
			}
		}
	}

	switch name {
	case " ":
		name = "Space"
	case "+":
		name = "Plus"
	}

	return Chord{Key: name, Mods: ev.Mods}
}
