package key

import (
	"errors"
	"strings"
)

// ErrEmptySequence is returned when a binding names no keys at all.
var ErrEmptySequence = errors.New("empty key sequence")

// Sequence is an ordered, non-empty list of chords. Comparison is
// positional: "g h" and "h g" are different sequences.
type Sequence []Chord

// Canonical returns the unique serialization of the sequence: the
// canonical strings of its chords joined by single spaces. Used as the
// grouping key for conflict detection.
func (s Sequence) Canonical() string {
	parts := make([]string, len(s))
	for i, c := range s {
		parts[i] = c.Canonical()
	}
	return strings.Join(parts, " ")
}

// Equals returns true if two sequences are chord-for-chord identical.
func (s Sequence) Equals(other Sequence) bool {
	if len(s) != len(other) {
		return false
	}
	for i, c := range s {
		if !c.Equals(other[i]) {
			return false
		}
	}
	return true
}

// String implements fmt.Stringer.
func (s Sequence) String() string {
	return s.Canonical()
}

// ParseSequence parses a list of shortcut strings into a sequence.
func ParseSequence(shortcuts []string, p Platform) (Sequence, error) {
	if len(shortcuts) == 0 {
		return nil, ErrEmptySequence
	}

	seq := make(Sequence, 0, len(shortcuts))
	for _, text := range shortcuts {
		c, err := ParseShortcut(text, p)
		if err != nil {
			return nil, err
		}
		seq = append(seq, c)
	}
	return seq, nil
}

// ParseSequenceString parses a space-separated sequence like "g h" or
// "ctrl+x ctrl+s". A string without spaces yields a length-1 sequence.
func ParseSequenceString(text string, p Platform) (Sequence, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return nil, ErrEmptySequence
	}
	return ParseSequence(fields, p)
}
