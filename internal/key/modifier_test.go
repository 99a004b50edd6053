package key

import "testing"

func TestModifierHas(t *testing.T) {
	m := ModCtrl | ModShift

	if !m.HasCtrl() {
		t.Error("HasCtrl() = false, want true")
	}
	if !m.HasShift() {
		t.Error("HasShift() = false, want true")
	}
	if m.HasAlt() {
		t.Error("HasAlt() = true, want false")
	}
	if m.HasMeta() {
		t.Error("HasMeta() = true, want false")
	}
}

func TestModifierWithWithout(t *testing.T) {
	m := ModNone.With(ModCtrl).With(ModAlt)
	if !m.HasCtrl() || !m.HasAlt() {
		t.Errorf("With chain = %v, want Ctrl|Alt", m)
	}

	m = m.Without(ModCtrl)
	if m.HasCtrl() {
		t.Error("Without(ModCtrl) still has Ctrl")
	}
	if !m.HasAlt() {
		t.Error("Without(ModCtrl) dropped Alt")
	}
}

func TestModifierString(t *testing.T) {
	tests := []struct {
		mods Modifier
		want string
	}{
		{ModNone, ""},
		{ModCtrl, "Control"},
		{ModShift | ModCtrl, "Control+Shift"},
		{ModMeta | ModAlt, "Alt+Meta"},
		{ModCtrl | ModAlt | ModMeta | ModShift, "Control+Alt+Meta+Shift"},
	}

	for _, tt := range tests {
		if got := tt.mods.String(); got != tt.want {
			t.Errorf("Modifier(%b).String() = %q, want %q", tt.mods, got, tt.want)
		}
	}
}

func TestModifierFromName(t *testing.T) {
	tests := []struct {
		name string
		want Modifier
	}{
		{"ctrl", ModCtrl},
		{"Control", ModCtrl},
		{"ALT", ModAlt},
		{"option", ModAlt},
		{"shift", ModShift},
		{"meta", ModMeta},
		{"cmd", ModMeta},
		{"command", ModMeta},
		{"k", ModNone},
		{"", ModNone},
	}

	for _, tt := range tests {
		if got := ModifierFromName(tt.name); got != tt.want {
			t.Errorf("ModifierFromName(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
