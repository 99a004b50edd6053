// Package dispatch implements the timeout-driven disambiguation state
// machine that decides, one keystroke at a time, whether to fire a
// handler immediately, wait for a possible continuation, or reset.
//
// The machine cannot know if more keys are coming. When a matched node
// both resolves to a handler and has children (a handler on "g" while
// "g h" is also registered), it withholds the shorter match and arms a
// single cancellable timer; the next keystroke or the timer, whichever
// comes first, settles the ambiguity.
package dispatch

import (
	"sync"
	"time"

	"github.com/keyweave/keyweave/internal/key"
	"github.com/keyweave/keyweave/internal/trie"
)

// Spec carries the per-handler data the machine needs at dispatch time.
type Spec struct {
	// Timeout is the maximum tolerated pause between any two keys of
	// the handler's sequence, and the disambiguation window for a
	// completed-but-extendable match.
	Timeout time.Duration

	// PreventDefault requests suppression of the host's default action.
	// Honored only on the immediate-fire path; a deferred fire has
	// already returned control to the host.
	PreventDefault bool

	// Invoke is the handler callback.
	Invoke func()
}

// run is the dispatch state for one event type. A nil node means the
// machine is at Root with no in-progress sequence. stamps holds one
// timestamp per chord consumed since the last reset. armedID is the
// handler a pending timer would fire, so removal can cancel it.
type run struct {
	node    *trie.Node
	stamps  []time.Time
	timer   *time.Timer
	armedID int64
	gen     uint64
}

// clear resets the run to Root, cancelling any pending timer. Bumping
// the generation invalidates a timer callback that already fired but has
// not taken the lock yet.
func (r *run) clear() {
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	r.node = nil
	r.stamps = r.stamps[:0]
	r.armedID = 0
	r.gen++
}

// maxGap returns the largest gap between consecutive recorded timestamps.
// A slow first keystroke followed by fast ones is treated identically to
// fast-first/slow-later.
func (r *run) maxGap() time.Duration {
	var max time.Duration
	for i := 1; i < len(r.stamps); i++ {
		if gap := r.stamps[i].Sub(r.stamps[i-1]); gap > max {
			max = gap
		}
	}
	return max
}

// Machine owns the trie and one run per event type. Event types are
// logically independent sub-machines multiplexed over the same trie:
// they share structure but not timers or buffered timestamps.
type Machine struct {
	mu       sync.Mutex
	platform key.Platform
	trie     *trie.Trie
	specs    map[int64]Spec
	runs     map[key.EventType]*run
}

// New creates a machine for the given platform.
func New(p key.Platform) *Machine {
	return &Machine{
		platform: p,
		trie:     trie.New(),
		specs:    make(map[int64]Spec),
		runs:     make(map[key.EventType]*run),
	}
}

// Insert registers a handler's sequence and dispatch spec.
func (m *Machine) Insert(seq key.Sequence, et key.EventType, id int64, spec Spec) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.trie.Insert(seq, et, id); err != nil {
		return err
	}
	m.specs[id] = spec
	return nil
}

// Remove deletes a handler's sequence and spec. A pending
// disambiguation timer armed for this handler is cancelled; the removed
// callback must not fire after Remove returns.
func (m *Machine) Remove(seq key.Sequence, et key.EventType, id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.trie.Remove(seq, et)
	delete(m.specs, id)

	for _, r := range m.runs {
		if r.timer != nil && r.armedID == id {
			r.clear()
		}
	}
}

// Reset clears all in-progress state and cancels pending timers.
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.runs {
		r.clear()
	}
}

// Feed consumes one raw key event. It returns true when the host should
// suppress its default action for this keystroke, which happens only on
// an immediate fire of a handler requesting it.
func (m *Machine) Feed(ev key.Event) bool {
	chord := key.NormalizeEvent(ev, m.platform)

	m.mu.Lock()
	r := m.runFor(ev.Type)

	// Any keystroke cancels a pending disambiguation timer; the timer
	// and the next key are mutually exclusive resolutions.
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
		r.gen++
	}

	fire, prevent := m.step(r, ev, chord)
	m.mu.Unlock()

	if fire != nil {
		fire()
	}
	return prevent
}

// step advances one run by one chord. It returns the callback to invoke
// after the lock is released, if any. The retry loop implements the
// single-keystroke retry rule: a key that breaks an in-progress sequence
// is re-attempted once as if freshly arriving at Root, so one keystroke
// can both terminate a dead sequence and begin a new one. Depth is
// bounded at one because the retry starts from Root, where no further
// dead-end retry is possible.
func (m *Machine) step(r *run, ev key.Event, chord key.Chord) (fire func(), prevent bool) {
	retried := false

	for {
		wasAtRoot := r.node == nil
		node := m.trie.StepEvent(chord, r.node)

		if node == nil {
			// The key continues no live sequence.
			r.clear()
			if !wasAtRoot && !retried {
				retried = true
				continue
			}
			return nil, false
		}

		if id, ok := node.HandlerID(ev.Type); ok {
			spec := m.specs[id]
			r.stamps = append(r.stamps, ev.Time)

			if r.maxGap() > spec.Timeout {
				// Stale run.
				firstOfRun := len(r.stamps) == 1
				r.clear()
				if !firstOfRun && !retried {
					retried = true
					continue
				}
				return nil, false
			}

			if node.HasChildren() {
				// A longer sequence could still complete; withhold
				// firing and arm the disambiguation timer.
				r.node = node
				m.arm(r, ev.Type, id, spec)
				return nil, false
			}

			// The match cannot be extended: fire now. This is the only
			// branch where PreventDefault is honored.
			r.clear()
			return spec.Invoke, spec.PreventDefault
		}

		if node.HasChildren() {
			// No handler yet, but a sequence is in progress.
			r.stamps = append(r.stamps, ev.Time)
			r.node = node
			return nil, false
		}

		// Dead end: no handler, no children.
		r.clear()
		if !wasAtRoot && !retried {
			retried = true
			continue
		}
		return nil, false
	}
}

// arm schedules the deferred fire for a completed-but-extendable match.
// At most one timer is outstanding per run; arming replaces any prior
// one (the caller has already cancelled it). The deferred path never
// suppresses the host default: the event has long since returned control
// to the host by the time the timer fires.
func (m *Machine) arm(r *run, et key.EventType, id int64, spec Spec) {
	gen := r.gen
	r.armedID = id
	r.timer = time.AfterFunc(spec.Timeout, func() {
		m.mu.Lock()
		cur, ok := m.runs[et]
		if !ok || cur.gen != gen {
			m.mu.Unlock()
			return
		}
		cur.clear()
		m.mu.Unlock()

		spec.Invoke()
	})
}

// Bound reports the handler already occupying the (sequence, event
// type) slot, if any. Used to reject a replacement registration before
// any destructive step.
func (m *Machine) Bound(seq key.Sequence, et key.EventType) (int64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var node *trie.Node
	for _, c := range seq {
		node = m.trie.Step(c.Canonical(), node)
		if node == nil {
			return 0, false
		}
	}
	return node.HandlerID(et)
}

// runFor returns the run for an event type, creating it on first use.
// Caller must hold the lock.
func (m *Machine) runFor(et key.EventType) *run {
	r, ok := m.runs[et]
	if !ok {
		r = &run{}
		m.runs[et] = r
	}
	return r
}

// Pending reports whether a sequence is in progress for the event type.
func (m *Machine) Pending(et key.EventType) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.runs[et]
	return ok && r.node != nil
}
