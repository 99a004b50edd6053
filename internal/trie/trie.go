// Package trie implements the prefix tree the dispatch machine walks.
//
// Edges are labeled with canonical chord strings, so equality along every
// edge is canonical-string equality: normalization happens exactly once,
// at registration and at event time, and raw strings are never compared.
// Terminal nodes carry one handler id per event type.
package trie

import (
	"errors"
	"fmt"

	"github.com/keyweave/keyweave/internal/key"
)

// ErrDuplicateBinding is returned when a handler is inserted at a
// (sequence, event type) pair that is already occupied. This is a
// programmer error surfaced at registration, not a runtime condition.
var ErrDuplicateBinding = errors.New("duplicate binding for sequence and event type")

// Trie is a prefix tree keyed by canonical chord strings. The trie
// exclusively owns its nodes; nodes hold no back-references.
type Trie struct {
	root *Node
}

// Node is one trie node. Children are keyed by the canonical string of
// the next chord; handlers map event types to the handler terminating
// at this node.
type Node struct {
	children map[string]*Node
	handlers map[key.EventType]int64
}

// New creates an empty trie.
func New() *Trie {
	return &Trie{root: newNode()}
}

func newNode() *Node {
	return &Node{children: make(map[string]*Node)}
}

// Root returns the root node.
func (t *Trie) Root() *Node {
	return t.root
}

// Insert walks or creates one child per chord in the sequence and records
// the handler id at the terminal node. Inserting a second handler at an
// identical (sequence, event type) pair fails with ErrDuplicateBinding.
func (t *Trie) Insert(seq key.Sequence, et key.EventType, id int64) error {
	if len(seq) == 0 {
		return key.ErrEmptySequence
	}

	node := t.root
	for _, c := range seq {
		label := c.Canonical()
		child, ok := node.children[label]
		if !ok {
			child = newNode()
			node.children[label] = child
		}
		node = child
	}

	if node.handlers == nil {
		node.handlers = make(map[key.EventType]int64)
	}
	if _, exists := node.handlers[et]; exists {
		return fmt.Errorf("%w: %q (%s)", ErrDuplicateBinding, seq.Canonical(), et)
	}
	node.handlers[et] = id
	return nil
}

// Remove walks to the terminal node and deletes the event type entry.
// Missing paths are a no-op. Now-empty intermediate nodes are not pruned;
// trie size is bounded by live registrations and churn is low-frequency
// for a UI-level shortcut set.
func (t *Trie) Remove(seq key.Sequence, et key.EventType) {
	node := t.root
	for _, c := range seq {
		child, ok := node.children[c.Canonical()]
		if !ok {
			return
		}
		node = child
	}
	delete(node.handlers, et)
}

// Step advances from a node along the edge labeled with the canonical
// string. A nil from starts at the root. Returns nil when no registered
// sequence continues this way.
func (t *Trie) Step(canonical string, from *Node) *Node {
	if from == nil {
		from = t.root
	}
	return from.children[canonical]
}

// StepEvent advances using a normalized chord, applying the shift-symbol
// fallback: many symbols are only reachable by holding Shift ("?" is
// Shift+/), so if the exact chord has no edge and Shift was held, the
// lookup is retried without the Shift flag. A handler registered as
// "shift+?" is found by the first, exact attempt.
func (t *Trie) StepEvent(c key.Chord, from *Node) *Node {
	if node := t.Step(c.Canonical(), from); node != nil {
		return node
	}
	if c.Mods.HasShift() {
		return t.Step(c.WithoutShift().Canonical(), from)
	}
	return nil
}

// HandlerID returns the handler terminating at this node for the given
// event type.
func (n *Node) HandlerID(et key.EventType) (int64, bool) {
	id, ok := n.handlers[et]
	return id, ok
}

// HasChildren returns true if a longer sequence passes through this node.
func (n *Node) HasChildren() bool {
	return len(n.children) > 0
}
