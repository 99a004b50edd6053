// Package script provides Lua-scripted actions for key bindings.
//
// Binding files may name actions with a "lua:" prefix; the Engine
// resolves such names to global functions defined in a loaded Lua
// script:
//
//	engine, err := script.NewEngine()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer engine.Close()
//
//	if err := engine.LoadFile("actions.lua"); err != nil {
//	    log.Fatal(err)
//	}
//
//	// action = "lua:save_all" calls the Lua global save_all().
//	ids, err := bindings.Apply(reg, file, bindings.Multi{builtins, engine})
package script

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	lua "github.com/yuin/gopher-lua"

	"github.com/keyweave/keyweave/internal/bindings"
)

// Prefix marks an action name as Lua-scripted.
const Prefix = "lua:"

// Errors for script engine operations.
var (
	// ErrEngineClosed is returned when operating on a closed engine.
	ErrEngineClosed = errors.New("script engine is closed")
)

// Engine wraps a gopher-lua state and resolves "lua:" action names to
// calls into it.
//
// IMPORTANT: gopher-lua's LState is not goroutine-safe. The mutex in
// this struct serializes all access, including calls made by resolved
// action closures, so an action may be invoked from any goroutine.
type Engine struct {
	mu     sync.Mutex
	l      *lua.LState
	closed bool

	// onError, when set, receives errors raised by scripted actions.
	// Action closures have no error return, so this is the only way a
	// script failure surfaces at dispatch time.
	onError func(action string, err error)
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithErrorHandler sets the callback invoked when a scripted action fails.
func WithErrorHandler(fn func(action string, err error)) EngineOption {
	return func(e *Engine) {
		e.onError = fn
	}
}

// NewEngine creates a Lua engine with only safe standard libraries open.
func NewEngine(opts ...EngineOption) (*Engine, error) {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}

	l := lua.NewState(lua.Options{
		SkipOpenLibs: true, // opened selectively below
	})
	e.l = l

	openSafeLibraries(l)

	return e, nil
}

// openSafeLibraries opens only safe Lua standard libraries.
func openSafeLibraries(l *lua.LState) {
	lua.OpenBase(l)
	lua.OpenTable(l)
	lua.OpenString(l)
	lua.OpenMath(l)

	// Intentionally not opened:
	// - io (file system access)
	// - os (system calls, execute)
	// - debug (can bypass restrictions)
	// - package (can load arbitrary modules)
}

// LoadFile executes a Lua file, defining its globals in the engine.
// Execution is synchronous and blocks until completion or error.
func (e *Engine) LoadFile(path string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrEngineClosed
	}

	return e.doWithRecovery(func() error {
		return e.l.DoFile(path)
	})
}

// LoadString executes a Lua chunk, defining its globals in the engine.
func (e *Engine) LoadString(code string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrEngineClosed
	}

	return e.doWithRecovery(func() error {
		return e.l.DoString(code)
	})
}

// RegisterFunc registers a Go function as a global Lua function, so
// scripts can call back into the host.
func (e *Engine) RegisterFunc(name string, fn lua.LGFunction) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return
	}

	e.l.SetGlobal(name, e.l.NewFunction(fn))
}

// RegisterModule registers a module table with the given functions.
func (e *Engine) RegisterModule(name string, funcs map[string]lua.LGFunction) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return
	}

	mod := e.l.SetFuncs(e.l.NewTable(), funcs)
	e.l.SetGlobal(name, mod)
}

// Resolve implements bindings.Resolver. Names without the "lua:"
// prefix are reported as unknown so another resolver can claim them.
// The named global must exist and be a function at resolve time; the
// returned closure calls it on each invocation.
func (e *Engine) Resolve(name string) (func(), error) {
	fn, ok := strings.CutPrefix(name, Prefix)
	if !ok {
		return nil, fmt.Errorf("action %q: %w", name, bindings.ErrUnknownAction)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil, ErrEngineClosed
	}

	val := e.l.GetGlobal(fn)
	if val == lua.LNil {
		return nil, fmt.Errorf("action %q: lua function %q not defined: %w", name, fn, bindings.ErrUnknownAction)
	}
	if val.Type() != lua.LTFunction {
		return nil, fmt.Errorf("action %q: lua global %q is a %s, not a function", name, fn, val.Type())
	}

	return func() {
		if err := e.call(fn); err != nil && e.onError != nil {
			e.onError(name, err)
		}
	}, nil
}

// call invokes a global Lua function with no arguments, discarding
// return values.
func (e *Engine) call(fn string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrEngineClosed
	}

	fnVal := e.l.GetGlobal(fn)
	if fnVal.Type() != lua.LTFunction {
		return fmt.Errorf("lua global %q is a %s, not a function", fn, fnVal.Type())
	}

	stackTop := e.l.GetTop()
	e.l.Push(fnVal)

	var callErr error
	func() {
		defer func() {
			if r := recover(); r != nil {
				callErr = fmt.Errorf("lua panic: %v", r)
			}
		}()
		callErr = e.l.PCall(0, lua.MultRet, nil)
	}()
	if callErr != nil {
		return callErr
	}

	if n := e.l.GetTop() - stackTop; n > 0 {
		e.l.Pop(n)
	}
	return nil
}

// doWithRecovery executes a function with panic recovery.
func (e *Engine) doWithRecovery(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	return fn()
}

// Close releases the Lua state. After Close, all other methods return
// ErrEngineClosed or are no-ops.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}

	e.l.Close()
	e.closed = true
	return nil
}
