package key

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// Parse errors.
var (
	ErrEmptyShortcut   = errors.New("empty shortcut specification")
	ErrInvalidShortcut = errors.New("invalid shortcut specification")
)

// namedKeys maps key-token aliases (lowercase) to canonical key names.
// Space and Plus get named tokens because the canonical serialization
// uses "+" as a separator.
var namedKeys = map[string]string{
	"space":      "Space",
	"plus":       "Plus",
	"esc":        "Escape",
	"escape":     "Escape",
	"enter":      "Enter",
	"return":     "Enter",
	"tab":        "Tab",
	"backspace":  "Backspace",
	"delete":     "Delete",
	"del":        "Delete",
	"insert":     "Insert",
	"home":       "Home",
	"end":        "End",
	"pageup":     "PageUp",
	"pagedown":   "PageDown",
	"up":         "ArrowUp",
	"arrowup":    "ArrowUp",
	"down":       "ArrowDown",
	"arrowdown":  "ArrowDown",
	"left":       "ArrowLeft",
	"arrowleft":  "ArrowLeft",
	"right":      "ArrowRight",
	"arrowright": "ArrowRight",
	"f1":         "F1",
	"f2":         "F2",
	"f3":         "F3",
	"f4":         "F4",
	"f5":         "F5",
	"f6":         "F6",
	"f7":         "F7",
	"f8":         "F8",
	"f9":         "F9",
	"f10":        "F10",
	"f11":        "F11",
	"f12":        "F12",
}

// ParseShortcut parses a user-authored shortcut string like "mod+s" or
// "Ctrl+Shift+K" into a normalized chord.
//
// Tokens are split on "+" and lower-cased for modifier detection only;
// the key token keeps its identity (case carries meaning for letters).
// Aliases: "mod" resolves to Meta on macOS and Control elsewhere,
// "cmd"/"command" to Meta, "control" to Control, "option" to Alt.
//
// Parsing is strict: no key token, a second key token, or "mod" combined
// with an explicit "ctrl"/"meta" fails with ErrInvalidShortcut.
func ParseShortcut(text string, p Platform) (Chord, error) {
	if strings.TrimSpace(text) == "" {
		return Chord{}, ErrEmptyShortcut
	}

	var (
		mods             Modifier
		keyTok           string
		usedMod          bool
		explicitCtrlMeta bool
	)

	for _, tok := range strings.Split(text, "+") {
		trimmed := strings.TrimSpace(tok)
		lower := strings.ToLower(trimmed)

		switch lower {
		case "":
			return Chord{}, fmt.Errorf("%w: empty token in %q", ErrInvalidShortcut, text)
		case "mod":
			usedMod = true
			if p == PlatformMac {
				mods = mods.With(ModMeta)
			} else {
				mods = mods.With(ModCtrl)
			}
			continue
		}

		if m := ModifierFromName(lower); m != ModNone {
			if m == ModCtrl || m == ModMeta {
				explicitCtrlMeta = true
			}
			mods = mods.With(m)
			continue
		}

		if keyTok != "" {
			return Chord{}, fmt.Errorf("%w: multiple key tokens in %q", ErrInvalidShortcut, text)
		}
		keyTok = trimmed
	}

	if usedMod && explicitCtrlMeta {
		return Chord{}, fmt.Errorf("%w: %q combines mod with an explicit ctrl/meta", ErrInvalidShortcut, text)
	}
	if keyTok == "" {
		return Chord{}, fmt.Errorf("%w: no key token in %q", ErrInvalidShortcut, text)
	}

	name, err := resolveKeyToken(keyTok, mods)
	if err != nil {
		return Chord{}, err
	}

	return Chord{Key: name, Mods: mods}, nil
}

// resolveKeyToken maps a key token to its canonical key name.
func resolveKeyToken(tok string, mods Modifier) (string, error) {
	if name, ok := namedKeys[strings.ToLower(tok)]; ok {
		return name, nil
	}

	runes := []rune(tok)
	if len(runes) != 1 {
		return "", fmt.Errorf("%w: unknown key %q", ErrInvalidShortcut, tok)
	}

	r := runes[0]
	// Under Shift the host reports the shifted character, so "shift+k"
	// must normalize to the same chord as a raw Shift+K event.
	if mods.HasShift() && unicode.IsLower(r) {
		r = unicode.ToUpper(r)
	}
	return string(r), nil
}

// MustParseShortcut parses a shortcut and panics on error.
// Use only for known-valid shortcuts in initialization code.
func MustParseShortcut(text string, p Platform) Chord {
	c, err := ParseShortcut(text, p)
	if err != nil {
		panic("invalid shortcut: " + text + ": " + err.Error())
	}
	return c
}
