// Package main is an interactive demo for the keyweave dispatch engine.
//
// It loads a TOML bindings file, wires the bound actions to a tcell
// terminal, and echoes each fired action on screen. Actions prefixed
// with "lua:" resolve against an optional Lua script.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"github.com/sirupsen/logrus"
	lua "github.com/yuin/gopher-lua"

	"github.com/keyweave/keyweave/internal/bindings"
	"github.com/keyweave/keyweave/internal/host/term"
	"github.com/keyweave/keyweave/internal/key"
	"github.com/keyweave/keyweave/internal/registry"
	"github.com/keyweave/keyweave/internal/script"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
)

type options struct {
	bindingsPath string
	scriptPath   string
	logPath      string
	watch        bool
}

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	log := newLogger(opts.logPath)

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to create terminal: %v\n", err)
		return 1
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize terminal: %v\n", err)
		return 1
	}
	defer screen.Fini()

	host := term.NewHost(screen)
	reg := registry.New(key.NativePlatform(), host)
	host.Bind(reg.Dispatch)

	status := newStatusLine(screen)

	resolve, cleanup, err := buildResolver(opts, host, status, log)
	if err != nil {
		screen.Fini()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer cleanup()

	file, err := bindings.Load(opts.bindingsPath)
	if err != nil {
		screen.Fini()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	ids, err := bindings.Apply(reg, file, resolve)
	if err != nil {
		screen.Fini()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	for _, g := range reg.Conflicts() {
		log.WithFields(logrus.Fields{
			"sequence": g.Key,
			"handlers": len(g.Handlers),
		}).Warn("conflicting bindings")
	}

	if opts.watch {
		w, err := bindings.NewWatcher(opts.bindingsPath, reg, resolve, ids, log)
		if err != nil {
			screen.Fini()
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		defer w.Close()
	}

	cancel := reg.Subscribe(func() {
		status.set(fmt.Sprintf("%d bindings loaded", len(reg.Handlers())))
	})
	defer cancel()

	// Handle signals for graceful shutdown.
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signals
		host.Stop()
	}()

	if err := host.Run(); err != nil {
		screen.Fini()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// buildResolver assembles the action resolver chain: builtins first,
// then the Lua engine when a script is given. The returned cleanup
// closes the engine.
func buildResolver(opts options, host *term.Host, status *statusLine, log *logrus.Logger) (bindings.Resolver, func(), error) {
	builtins := bindings.Table{
		"app.quit": host.Stop,
		"app.hello": func() {
			status.set("hello from keyweave")
		},
	}

	if opts.scriptPath == "" {
		return builtins, func() {}, nil
	}

	engine, err := script.NewEngine(script.WithErrorHandler(func(action string, err error) {
		log.WithField("action", action).WithError(err).Error("script action failed")
		status.set(fmt.Sprintf("%s: %v", action, err))
	}))
	if err != nil {
		return nil, nil, fmt.Errorf("creating script engine: %w", err)
	}
	engine.RegisterFunc("echo", status.echoFunc())
	if err := engine.LoadFile(opts.scriptPath); err != nil {
		_ = engine.Close()
		return nil, nil, fmt.Errorf("loading script %s: %w", opts.scriptPath, err)
	}

	return bindings.Multi{builtins, engine}, func() { _ = engine.Close() }, nil
}

func newLogger(path string) *logrus.Logger {
	log := logrus.New()
	if path == "" {
		// The terminal is occupied; without a log file, drop logs.
		log.SetOutput(io.Discard)
		return log
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.SetOutput(io.Discard)
		return log
	}
	log.SetOutput(f)
	return log
}

func parseFlags() options {
	var opts options
	var showVersion bool

	flag.StringVar(&opts.bindingsPath, "bindings", "keyweave.toml", "Path to bindings file")
	flag.StringVar(&opts.bindingsPath, "b", "keyweave.toml", "Path to bindings file (shorthand)")
	flag.StringVar(&opts.scriptPath, "script", "", "Path to Lua actions script")
	flag.StringVar(&opts.scriptPath, "s", "", "Path to Lua actions script (shorthand)")
	flag.StringVar(&opts.logPath, "log", "", "Path to log file")
	flag.BoolVar(&opts.watch, "watch", false, "Reload the bindings file when it changes")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Keyweave - key-sequence dispatch demo\n\n")
		fmt.Fprintf(os.Stderr, "Usage: keyweave [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  keyweave -b bindings.toml            Load bindings\n")
		fmt.Fprintf(os.Stderr, "  keyweave -b bindings.toml -watch     Reload on change\n")
		fmt.Fprintf(os.Stderr, "  keyweave -b bindings.toml -s fn.lua  With Lua actions\n")
	}

	flag.Parse()

	if showVersion {
		fmt.Printf("Keyweave %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		os.Exit(0)
	}

	return opts
}

// statusLine draws a single message on the bottom row of the screen.
type statusLine struct {
	mu     sync.Mutex
	screen tcell.Screen
}

func newStatusLine(screen tcell.Screen) *statusLine {
	s := &statusLine{screen: screen}
	s.set("keyweave ready - bind app.quit to leave")
	return s
}

func (s *statusLine) set(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	width, height := s.screen.Size()
	row := height - 1
	if row < 0 {
		return
	}
	style := tcell.StyleDefault.Reverse(true)
	col := 0
	for _, r := range msg {
		if col >= width {
			break
		}
		s.screen.SetContent(col, row, r, nil, style)
		col++
	}
	for ; col < width; col++ {
		s.screen.SetContent(col, row, ' ', nil, style)
	}
	s.screen.Show()
}

// echoFunc exposes the status line to Lua as echo(msg).
func (s *statusLine) echoFunc() lua.LGFunction {
	return func(l *lua.LState) int {
		s.set(l.CheckString(1))
		return 0
	}
}
