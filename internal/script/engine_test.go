package script

import (
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	lua "github.com/yuin/gopher-lua"

	"github.com/keyweave/keyweave/internal/bindings"
)

func newEngine(t *testing.T, opts ...EngineOption) *Engine {
	t.Helper()
	e, err := NewEngine(opts...)
	if err != nil {
		t.Fatalf("NewEngine error = %v", err)
	}
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func TestResolveAndInvoke(t *testing.T) {
	e := newEngine(t)

	var count atomic.Int32
	e.RegisterFunc("bump", func(l *lua.LState) int {
		count.Add(1)
		return 0
	})

	if err := e.LoadString(`function save_all() bump() end`); err != nil {
		t.Fatalf("LoadString error = %v", err)
	}

	action, err := e.Resolve("lua:save_all")
	if err != nil {
		t.Fatalf("Resolve error = %v", err)
	}

	action()
	action()
	if got := count.Load(); got != 2 {
		t.Errorf("action fired %d times, want 2", got)
	}
}

func TestResolveUnprefixedIsUnknown(t *testing.T) {
	e := newEngine(t)

	if _, err := e.Resolve("file.save"); !errors.Is(err, bindings.ErrUnknownAction) {
		t.Errorf("Resolve(file.save) error = %v, want ErrUnknownAction", err)
	}
}

func TestResolveMissingFunction(t *testing.T) {
	e := newEngine(t)

	if _, err := e.Resolve("lua:nope"); !errors.Is(err, bindings.ErrUnknownAction) {
		t.Errorf("Resolve(lua:nope) error = %v, want ErrUnknownAction", err)
	}
}

func TestResolveNonFunctionGlobal(t *testing.T) {
	e := newEngine(t)

	if err := e.LoadString(`answer = 42`); err != nil {
		t.Fatalf("LoadString error = %v", err)
	}
	if _, err := e.Resolve("lua:answer"); err == nil {
		t.Error("Resolve(lua:answer) succeeded for a non-function global")
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "actions.lua")
	code := []byte(`
hits = 0
function hit() hits = hits + 1 end
`)
	if err := os.WriteFile(path, code, 0o644); err != nil {
		t.Fatalf("WriteFile error = %v", err)
	}

	e := newEngine(t)
	if err := e.LoadFile(path); err != nil {
		t.Fatalf("LoadFile error = %v", err)
	}

	action, err := e.Resolve("lua:hit")
	if err != nil {
		t.Fatalf("Resolve error = %v", err)
	}
	action()
	action()
	action()

	if err := e.LoadString(`assert(hits == 3, "hits = " .. hits)`); err != nil {
		t.Errorf("hits check failed: %v", err)
	}
}

func TestErrorHandler(t *testing.T) {
	var gotAction string
	var gotErr error
	e := newEngine(t, WithErrorHandler(func(action string, err error) {
		gotAction = action
		gotErr = err
	}))

	if err := e.LoadString(`function boom() error("kaput") end`); err != nil {
		t.Fatalf("LoadString error = %v", err)
	}

	action, err := e.Resolve("lua:boom")
	if err != nil {
		t.Fatalf("Resolve error = %v", err)
	}
	action()

	if gotAction != "lua:boom" {
		t.Errorf("error handler action = %q, want %q", gotAction, "lua:boom")
	}
	if gotErr == nil {
		t.Error("error handler did not receive an error")
	}
}

func TestUnsafeLibrariesClosed(t *testing.T) {
	e := newEngine(t)

	for _, name := range []string{"io", "os", "debug"} {
		if err := e.LoadString(`assert(` + name + ` == nil)`); err != nil {
			t.Errorf("library %s is open: %v", name, err)
		}
	}
}

func TestClosedEngine(t *testing.T) {
	e, err := NewEngine()
	if err != nil {
		t.Fatalf("NewEngine error = %v", err)
	}
	if err := e.Close(); err != nil {
		t.Fatalf("Close error = %v", err)
	}
	if err := e.Close(); err != nil {
		t.Errorf("second Close error = %v", err)
	}

	if err := e.LoadString(`x = 1`); !errors.Is(err, ErrEngineClosed) {
		t.Errorf("LoadString on closed engine error = %v, want ErrEngineClosed", err)
	}
	if _, err := e.Resolve("lua:x"); !errors.Is(err, ErrEngineClosed) {
		t.Errorf("Resolve on closed engine error = %v, want ErrEngineClosed", err)
	}
}
