// Package registry assigns handler ids, owns the trie and dispatch
// machine, and exposes register/unregister, conflict reporting, and
// change subscriptions to framework-glue callers.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/keyweave/keyweave/internal/dispatch"
	"github.com/keyweave/keyweave/internal/key"
	"github.com/keyweave/keyweave/internal/trie"
)

// DefaultTimeout is the disambiguation window applied when a config
// names none.
const DefaultTimeout = 1000 * time.Millisecond

// ErrNoCallback is returned when a config carries neither OnPress nor
// OnComplete.
var ErrNoCallback = errors.New("binding has no callback")

// ID identifies a registered handler. Ids are assigned monotonically;
// the zero ID is never assigned and unregistering it is a no-op.
type ID int64

// ListenerHost attaches and detaches a host's native key listeners.
// The registry owns the lifecycle: a listener is created on the first
// registration needing its event type and torn down when the last
// handler using it unregisters.
type ListenerHost interface {
	Attach(et key.EventType) error
	Detach(et key.EventType)
}

// Config describes one registration. Exactly one of Key (single
// keypress, OnPress) or Sequence (chord, OnComplete) is set.
type Config struct {
	// Key is a single shortcut like "mod+s".
	Key string

	// Sequence is an ordered list of shortcut strings like
	// ["g", "h"].
	Sequence []string

	// EventType defaults to KeyDown.
	EventType key.EventType

	// Timeout is the maximum pause between keys of a sequence and the
	// disambiguation window for extendable matches. Defaults to
	// DefaultTimeout.
	Timeout time.Duration

	// PreventDefault asks the host to suppress its default action.
	// Honored only when the handler fires immediately.
	PreventDefault bool

	// Description and Category are display metadata for shortcut help.
	Description string
	Category    string

	// OnPress is the callback for single-key configs.
	OnPress func()

	// OnComplete is the callback for sequence configs.
	OnComplete func()

	// Disabled registrations are accepted as no-ops and yield ID 0.
	Disabled bool
}

// Handler is the stored record for one live registration. Handlers are
// never mutated in place; a config change is unregister plus register.
type Handler struct {
	ID             ID
	Sequence       key.Sequence
	EventType      key.EventType
	Timeout        time.Duration
	PreventDefault bool
	Description    string
	Category       string

	callback func()
}

// HandlerInfo is the read-only snapshot form exposed for UI display.
type HandlerInfo struct {
	ID          ID
	Sequence    string
	EventType   key.EventType
	Description string
	Category    string
}

// ConflictGroup reports multiple live handlers sharing one
// fully-normalized sequence. Conflicts are a design-time signal, not a
// dispatch-time hazard: the trie prevents two handlers from occupying
// the same (sequence, event type) slot.
type ConflictGroup struct {
	Key      string
	Handlers []HandlerInfo
}

// Registry owns the dispatch machine and all live handlers.
type Registry struct {
	mu        sync.RWMutex
	platform  key.Platform
	machine   *dispatch.Machine
	host      ListenerHost
	handlers  map[ID]*Handler
	listeners map[key.EventType]int
	subs      map[uuid.UUID]func()
	nextID    ID
}

// New creates a registry. host may be nil when no native listeners are
// managed (tests, replayed event streams).
func New(p key.Platform, host ListenerHost) *Registry {
	return &Registry{
		platform:  p,
		machine:   dispatch.New(p),
		host:      host,
		handlers:  make(map[ID]*Handler),
		listeners: make(map[key.EventType]int),
		subs:      make(map[uuid.UUID]func()),
	}
}

// Register validates and normalizes the config, inserts it into the
// trie, and stores the handler record. A Disabled config is a no-op
// returning ID 0.
func (r *Registry) Register(cfg Config) (ID, error) {
	if cfg.Disabled {
		return 0, nil
	}

	h, err := r.compile(cfg)
	if err != nil {
		return 0, err
	}

	r.mu.Lock()
	r.nextID++
	h.ID = r.nextID

	spec := dispatch.Spec{
		Timeout:        h.Timeout,
		PreventDefault: h.PreventDefault,
		Invoke:         h.callback,
	}
	if err := r.machine.Insert(h.Sequence, h.EventType, int64(h.ID), spec); err != nil {
		r.nextID--
		r.mu.Unlock()
		return 0, err
	}

	if err := r.attachLocked(h.EventType); err != nil {
		r.machine.Remove(h.Sequence, h.EventType, int64(h.ID))
		r.nextID--
		r.mu.Unlock()
		return 0, fmt.Errorf("attaching %s listener: %w", h.EventType, err)
	}

	r.handlers[h.ID] = h
	notify := r.subscribersLocked()
	r.mu.Unlock()

	runAll(notify)
	return h.ID, nil
}

// Unregister removes the trie entry and handler record. Unknown or zero
// ids are a no-op; callers may call it defensively during teardown.
func (r *Registry) Unregister(id ID) {
	r.mu.Lock()
	h, ok := r.handlers[id]
	if !ok {
		r.mu.Unlock()
		return
	}

	r.machine.Remove(h.Sequence, h.EventType, int64(h.ID))
	delete(r.handlers, id)
	r.detachLocked(h.EventType)

	// With no listeners left at all, no pending state can resolve.
	if len(r.handlers) == 0 {
		r.machine.Reset()
	}

	notify := r.subscribersLocked()
	r.mu.Unlock()

	runAll(notify)
}

// Reregister replaces a previous registration unless the submitted
// config is identical to the stored one, in which case the existing id
// is kept to avoid churn on re-submission. The replacement is validated
// first: a config that would fail Register leaves the previous
// registration untouched.
func (r *Registry) Reregister(prev ID, cfg Config) (ID, error) {
	r.mu.RLock()
	h, ok := r.handlers[prev]
	unchanged := ok && h.matches(cfg, r.platform)
	r.mu.RUnlock()

	if unchanged {
		return prev, nil
	}

	if cfg.Disabled {
		r.Unregister(prev)
		return 0, nil
	}

	next, err := r.compile(cfg)
	if err != nil {
		return 0, err
	}
	if id, bound := r.machine.Bound(next.Sequence, next.EventType); bound && id != int64(prev) {
		return 0, fmt.Errorf("%w: %q (%s)", trie.ErrDuplicateBinding, next.Sequence.Canonical(), next.EventType)
	}

	r.Unregister(prev)
	return r.Register(cfg)
}

// Dispatch feeds one raw event through the engine. Events from editable
// targets are filtered before they reach the normalizer. The return
// value tells the host whether to suppress its default action.
func (r *Registry) Dispatch(ev key.Event) bool {
	if ev.FromEditable {
		return false
	}
	return r.machine.Feed(ev)
}

// Handlers returns a snapshot of all live registrations, ordered by id.
func (r *Registry) Handlers() []HandlerInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]HandlerInfo, 0, len(r.handlers))
	for _, h := range r.handlers {
		infos = append(infos, h.info())
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}

// Conflicts groups live handlers by identical fully-normalized sequence
// string; any group with more than one member is a conflict. The result
// is derived on demand and never stored.
func (r *Registry) Conflicts() []ConflictGroup {
	r.mu.RLock()
	byKey := make(map[string][]HandlerInfo)
	for _, h := range r.handlers {
		canon := h.Sequence.Canonical()
		byKey[canon] = append(byKey[canon], h.info())
	}
	r.mu.RUnlock()

	groups := make([]ConflictGroup, 0)
	for canon, infos := range byKey {
		if len(infos) < 2 {
			continue
		}
		sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
		groups = append(groups, ConflictGroup{Key: canon, Handlers: infos})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Key < groups[j].Key })
	return groups
}

// Subscribe registers a change callback. It fires once immediately,
// then on every register and unregister; there is no payload, callers
// pull the state they need. The returned function cancels the
// subscription.
func (r *Registry) Subscribe(fn func()) func() {
	token := uuid.New()

	r.mu.Lock()
	r.subs[token] = fn
	r.mu.Unlock()

	fn()

	return func() {
		r.mu.Lock()
		delete(r.subs, token)
		r.mu.Unlock()
	}
}

// compile validates a config and resolves it to a handler record.
func (r *Registry) compile(cfg Config) (*Handler, error) {
	var (
		seq key.Sequence
		cb  func()
		err error
	)

	switch {
	case cfg.Key != "":
		var c key.Chord
		c, err = key.ParseShortcut(cfg.Key, r.platform)
		seq = key.Sequence{c}
		cb = cfg.OnPress
	case len(cfg.Sequence) > 0:
		seq, err = key.ParseSequence(cfg.Sequence, r.platform)
		cb = cfg.OnComplete
	default:
		return nil, key.ErrEmptySequence
	}
	if err != nil {
		return nil, err
	}
	if cb == nil {
		return nil, ErrNoCallback
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Handler{
		Sequence:       seq,
		EventType:      cfg.EventType,
		Timeout:        timeout,
		PreventDefault: cfg.PreventDefault,
		Description:    cfg.Description,
		Category:       cfg.Category,
		callback:       cb,
	}, nil
}

// matches reports whether a stored handler equals a submitted config
// field-by-field (callbacks excluded; function identity is meaningless
// across re-submissions).
func (h *Handler) matches(cfg Config, p key.Platform) bool {
	var seq key.Sequence
	if cfg.Key != "" {
		c, err := key.ParseShortcut(cfg.Key, p)
		if err != nil {
			return false
		}
		seq = key.Sequence{c}
	} else {
		var err error
		seq, err = key.ParseSequence(cfg.Sequence, p)
		if err != nil {
			return false
		}
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return h.Sequence.Equals(seq) &&
		h.EventType == cfg.EventType &&
		h.Timeout == timeout &&
		h.PreventDefault == cfg.PreventDefault &&
		h.Description == cfg.Description &&
		h.Category == cfg.Category
}

func (h *Handler) info() HandlerInfo {
	return HandlerInfo{
		ID:          h.ID,
		Sequence:    h.Sequence.Canonical(),
		EventType:   h.EventType,
		Description: h.Description,
		Category:    h.Category,
	}
}

// attachLocked bumps the listener refcount for an event type, attaching
// the native listener on first use. Caller holds the write lock.
func (r *Registry) attachLocked(et key.EventType) error {
	if r.listeners[et] == 0 && r.host != nil {
		if err := r.host.Attach(et); err != nil {
			return err
		}
	}
	r.listeners[et]++
	return nil
}

// detachLocked drops the refcount, tearing down the native listener
// when the last handler for the event type goes away.
func (r *Registry) detachLocked(et key.EventType) {
	r.listeners[et]--
	if r.listeners[et] <= 0 {
		delete(r.listeners, et)
		if r.host != nil {
			r.host.Detach(et)
		}
	}
}

func (r *Registry) subscribersLocked() []func() {
	fns := make([]func(), 0, len(r.subs))
	for _, fn := range r.subs {
		fns = append(fns, fn)
	}
	return fns
}

func runAll(fns []func()) {
	for _, fn := range fns {
		fn()
	}
}
