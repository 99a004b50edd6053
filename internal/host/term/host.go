// Package term adapts a tcell terminal screen to the key registry.
//
// Terminals only report complete key presses; there is no way to
// observe a key going up separately from it going down. The Host
// therefore accepts KeyDown attachments only and rejects KeyUp and
// KeyPress.
package term

import (
	"errors"
	"fmt"
	"sync"
	"unicode"

	"github.com/gdamore/tcell/v2"

	"github.com/keyweave/keyweave/internal/key"
)

// ErrUnsupportedEventType is returned by Attach for event types a
// terminal cannot observe.
var ErrUnsupportedEventType = errors.New("terminal host only observes key presses")

// Host implements registry.ListenerHost over a tcell.Screen and feeds
// translated key events to a dispatch function.
type Host struct {
	screen tcell.Screen

	mu       sync.Mutex
	attached map[key.EventType]bool
	dispatch func(key.Event) bool
}

// NewHost creates a host over an initialized screen. The dispatch
// function is set separately with Bind because the registry that
// supplies it is constructed with the host.
func NewHost(screen tcell.Screen) *Host {
	return &Host{
		screen:   screen,
		attached: make(map[key.EventType]bool),
	}
}

// Bind sets the function that receives translated key events,
// typically registry.Dispatch.
func (h *Host) Bind(dispatch func(key.Event) bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.dispatch = dispatch
}

// Attach implements registry.ListenerHost.
func (h *Host) Attach(et key.EventType) error {
	if et != key.KeyDown {
		return fmt.Errorf("%s: %w", et, ErrUnsupportedEventType)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.attached[et] = true
	return nil
}

// Detach implements registry.ListenerHost.
func (h *Host) Detach(et key.EventType) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.attached, et)
}

// Run polls the screen for events until Stop is called or the screen
// is finalized. Key events are translated and handed to the bound
// dispatch function while a KeyDown listener is attached.
func (h *Host) Run() error {
	for {
		ev := h.screen.PollEvent()
		if ev == nil {
			return nil
		}

		switch e := ev.(type) {
		case *tcell.EventKey:
			kev, ok := translateKey(e)
			if !ok {
				continue
			}
			h.mu.Lock()
			dispatch := h.dispatch
			listening := h.attached[key.KeyDown]
			h.mu.Unlock()
			if listening && dispatch != nil {
				dispatch(kev)
			}

		case *tcell.EventResize:
			h.screen.Sync()

		case *tcell.EventInterrupt:
			return nil
		}
	}
}

// Stop unblocks Run.
func (h *Host) Stop() {
	_ = h.screen.PostEvent(tcell.NewEventInterrupt(nil)) // best-effort; queue may be full
}

// translateKey converts a tcell key event to a key.Event. The second
// return is false for keys that have no stable name (e.g. unmapped
// control sequences).
func translateKey(e *tcell.EventKey) (key.Event, bool) {
	mods := translateMods(e.Modifiers())

	name, ok := specialKeyName(e.Key())
	switch {
	case ok:
		// Named key. tcell folds Ctrl+M into Enter, Ctrl+I into
		// Tab and Ctrl+H into Backspace; those arrive here.

	case e.Key() >= tcell.KeyCtrlA && e.Key() <= tcell.KeyCtrlZ:
		// Control chords arrive as C0 codes without ModCtrl set.
		name = string(rune('a' + e.Key() - tcell.KeyCtrlA))
		mods = mods.With(key.ModCtrl)

	case e.Key() == tcell.KeyRune:
		r := e.Rune()
		if unicode.IsUpper(r) {
			// The terminal reports the shifted rune but not the
			// Shift modifier itself.
			mods = mods.With(key.ModShift)
		}
		name = string(r)

	default:
		return key.Event{}, false
	}

	return key.Event{
		Type: key.KeyDown,
		Key:  name,
		Mods: mods,
		Time: e.When(),
	}, true
}

// specialKeyName maps tcell named keys to the registry's key names.
func specialKeyName(k tcell.Key) (string, bool) {
	switch k {
	case tcell.KeyEnter:
		return "Enter", true
	case tcell.KeyTab:
		return "Tab", true
	case tcell.KeyEscape:
		return "Escape", true
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		return "Backspace", true
	case tcell.KeyDelete:
		return "Delete", true
	case tcell.KeyInsert:
		return "Insert", true
	case tcell.KeyHome:
		return "Home", true
	case tcell.KeyEnd:
		return "End", true
	case tcell.KeyPgUp:
		return "PageUp", true
	case tcell.KeyPgDn:
		return "PageDown", true
	case tcell.KeyUp:
		return "ArrowUp", true
	case tcell.KeyDown:
		return "ArrowDown", true
	case tcell.KeyLeft:
		return "ArrowLeft", true
	case tcell.KeyRight:
		return "ArrowRight", true
	case tcell.KeyF1:
		return "F1", true
	case tcell.KeyF2:
		return "F2", true
	case tcell.KeyF3:
		return "F3", true
	case tcell.KeyF4:
		return "F4", true
	case tcell.KeyF5:
		return "F5", true
	case tcell.KeyF6:
		return "F6", true
	case tcell.KeyF7:
		return "F7", true
	case tcell.KeyF8:
		return "F8", true
	case tcell.KeyF9:
		return "F9", true
	case tcell.KeyF10:
		return "F10", true
	case tcell.KeyF11:
		return "F11", true
	case tcell.KeyF12:
		return "F12", true
	default:
		return "", false
	}
}

// translateMods converts a tcell modifier mask.
func translateMods(m tcell.ModMask) key.Modifier {
	var mods key.Modifier
	if m&tcell.ModCtrl != 0 {
		mods = mods.With(key.ModCtrl)
	}
	if m&tcell.ModAlt != 0 {
		mods = mods.With(key.ModAlt)
	}
	if m&tcell.ModMeta != 0 {
		mods = mods.With(key.ModMeta)
	}
	if m&tcell.ModShift != 0 {
		mods = mods.With(key.ModShift)
	}
	return mods
}
