// Package bindings loads shortcut bindings from TOML files and applies
// them to a registry in bulk. A bindings file looks like:
//
//	[[binding]]
//	keys = "mod+s"
//	action = "file.save"
//	description = "Save the current file"
//	category = "file"
//
//	[[binding]]
//	keys = "g h"
//	action = "nav.home"
//	timeout_ms = 500
//
// Space-separated keys form a multi-key sequence. Actions are names
// resolved against a Resolver at apply time.
package bindings

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/keyweave/keyweave/internal/key"
	"github.com/keyweave/keyweave/internal/registry"
)

// Load errors.
var (
	ErrNoKeys        = errors.New("binding has no keys")
	ErrNoAction      = errors.New("binding has no action")
	ErrUnknownAction = errors.New("unknown action")
)

// File is the parsed form of one bindings file.
type File struct {
	Bindings []Binding `toml:"binding"`
}

// Binding is one entry in a bindings file.
type Binding struct {
	Keys           string `toml:"keys"`
	Action         string `toml:"action"`
	Description    string `toml:"description"`
	Category       string `toml:"category"`
	Event          string `toml:"event"`
	TimeoutMs      int    `toml:"timeout_ms"`
	PreventDefault bool   `toml:"prevent_default"`
	Disabled       bool   `toml:"disabled"`
}

// Load reads a bindings file from disk.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading bindings file %s: %w", path, err)
	}
	return parse(data)
}

// LoadReader reads a bindings file from an io.Reader.
func LoadReader(r io.Reader) (*File, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading bindings: %w", err)
	}
	return parse(data)
}

func parse(data []byte) (*File, error) {
	var f File
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decoding bindings: %w", err)
	}

	for i, b := range f.Bindings {
		if b.Keys == "" {
			return nil, fmt.Errorf("binding %d: %w", i, ErrNoKeys)
		}
		if b.Action == "" {
			return nil, fmt.Errorf("binding %d (%q): %w", i, b.Keys, ErrNoAction)
		}
	}
	return &f, nil
}

// Config converts one binding into a registry config, resolving its
// action through the resolver.
func (b Binding) Config(resolve Resolver) (registry.Config, error) {
	et, err := key.ParseEventType(b.Event)
	if err != nil {
		return registry.Config{}, fmt.Errorf("binding %q: %w", b.Keys, err)
	}

	fn, err := resolve.Resolve(b.Action)
	if err != nil {
		return registry.Config{}, fmt.Errorf("binding %q: %w", b.Keys, err)
	}

	cfg := registry.Config{
		EventType:      et,
		Timeout:        time.Duration(b.TimeoutMs) * time.Millisecond,
		PreventDefault: b.PreventDefault,
		Description:    b.Description,
		Category:       b.Category,
		Disabled:       b.Disabled,
	}

	// Shortcut parsing is platform-dependent and happens inside the
	// registry; here only the single-key/sequence split is decided.
	if fields := strings.Fields(b.Keys); len(fields) > 1 {
		cfg.Sequence = fields
		cfg.OnComplete = fn
	} else {
		cfg.Key = b.Keys
		cfg.OnPress = fn
	}
	return cfg, nil
}

// Apply registers every binding in the file. On error, registrations
// made so far are rolled back and the error returned.
func Apply(reg *registry.Registry, f *File, resolve Resolver) ([]registry.ID, error) {
	ids := make([]registry.ID, 0, len(f.Bindings))

	for _, b := range f.Bindings {
		cfg, err := b.Config(resolve)
		if err != nil {
			rollback(reg, ids)
			return nil, err
		}

		id, err := reg.Register(cfg)
		if err != nil {
			rollback(reg, ids)
			return nil, fmt.Errorf("registering %q: %w", b.Keys, err)
		}
		if id != 0 {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func rollback(reg *registry.Registry, ids []registry.ID) {
	for _, id := range ids {
		reg.Unregister(id)
	}
}
