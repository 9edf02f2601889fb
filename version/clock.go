// Package version provides the vector clock used to track causality between
// replicated writes. A vector clock carries one counter per node that has
// ever coordinated a write for a key, plus a millisecond timestamp, and can
// determine whether one version happened-before, happened-after, or is
// concurrent with another.
//
// The binary and base64 forms are wire formats shared with every other
// client of the cluster and must not change.
package version

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"sort"
	"time"

	storeErrors "github.com/c0deZ3R0/go-store-kit/errors"
)

// Vector clock constraints
const (
	// MaxEntries is the maximum number of node entries a clock can track.
	MaxEntries = 0x7fff

	// MaxNodeID is the largest node id a clock entry may carry.
	MaxNodeID = 0x7fff
)

// Entry is a single (node id, counter) pair in a clock's version list.
type Entry struct {
	NodeID  uint16
	Counter uint64
}

// Occurred is the result of comparing two clocks under the causal
// partial order.
type Occurred int

const (
	// Before means the other clock dominates this one. Clocks with equal
	// version sets also report Before; this matches the historical
	// definition relied on for sort stability, so callers must treat it
	// as "resolve arbitrarily", not as a meaningful ordering.
	Before Occurred = -1

	// Concurrent means neither clock dominates the other.
	Concurrent Occurred = 0

	// After means this clock dominates the other.
	After Occurred = 1
)

func (o Occurred) String() string {
	switch o {
	case Before:
		return "before"
	case After:
		return "after"
	default:
		return "concurrent"
	}
}

// Clock is an immutable vector clock. The zero-value-like empty clock
// (from New) is the version of a key that has never been written.
// Incremented returns a new clock rather than mutating in place.
type Clock struct {
	// entries is kept sorted by node id; each node id appears at most once.
	entries   []Entry
	timestamp int64 // milliseconds since the Unix epoch
}

// New creates an empty Clock stamped with the current time.
func New() *Clock {
	return &Clock{timestamp: time.Now().UnixMilli()}
}

// FromEntries creates a Clock from a version list and a millisecond
// timestamp. The entries are copied and sorted by node id. The timestamp
// is stored verbatim, zero included, so decoded clocks round-trip
// byte for byte; Incremented is where a zero timestamp means "now".
func FromEntries(entries []Entry, timestampMS int64) (*Clock, error) {
	if len(entries) > MaxEntries {
		return nil, storeErrors.NewCapacityError(storeErrors.OpDecode,
			fmt.Errorf("clock has %d entries, maximum is %d", len(entries), MaxEntries))
	}

	copied := make([]Entry, len(entries))
	copy(copied, entries)
	sort.Slice(copied, func(i, j int) bool { return copied[i].NodeID < copied[j].NodeID })

	for i, e := range copied {
		if e.NodeID > MaxNodeID {
			return nil, storeErrors.NewRangeError(storeErrors.OpDecode,
				fmt.Errorf("node id %d is outside of the acceptable range", e.NodeID))
		}
		if i > 0 && copied[i-1].NodeID == e.NodeID {
			return nil, storeErrors.NewConfigurationError(storeErrors.OpDecode,
				fmt.Errorf("duplicate node id %d in version list", e.NodeID))
		}
	}

	return &Clock{entries: copied, timestamp: timestampMS}, nil
}

// Entries returns a copy of the version list, sorted by node id.
func (c *Clock) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Timestamp returns the clock's millisecond timestamp.
func (c *Clock) Timestamp() int64 {
	return c.timestamp
}

// Counter returns the counter for a node id, or 0 if the node has never
// written this key.
func (c *Clock) Counter(nodeID uint16) uint64 {
	for _, e := range c.entries {
		if e.NodeID == nodeID {
			return e.Counter
		}
	}
	return 0
}

// Size returns the number of node entries in the clock.
func (c *Clock) Size() int {
	return len(c.entries)
}

// IsZero returns true if no node has ever written this version.
func (c *Clock) IsZero() bool {
	return len(c.entries) == 0
}

// Clone creates a deep copy of the Clock.
func (c *Clock) Clone() *Clock {
	return &Clock{entries: c.Entries(), timestamp: c.timestamp}
}

// Equal reports whether two clocks carry the same version set.
// The timestamp is not part of a clock's identity.
func (c *Clock) Equal(other *Clock) bool {
	if other == nil {
		return c.IsZero()
	}
	if len(c.entries) != len(other.entries) {
		return false
	}
	for i, e := range c.entries {
		if other.entries[i] != e {
			return false
		}
	}
	return true
}

func (c *Clock) String() string {
	return fmt.Sprintf("Clock(%v, %d)", c.entries, c.timestamp)
}

// Incremented returns a copy of the clock with the counter for nodeID
// bumped by one, appending a fresh (nodeID, 1) entry if the node has not
// written this key before. A timestamp of zero means "now".
//
// Returns a range error if nodeID exceeds MaxNodeID and a capacity error
// if appending a new entry would exceed MaxEntries.
func (c *Clock) Incremented(nodeID uint16, timestampMS int64) (*Clock, error) {
	if nodeID > MaxNodeID {
		return nil, storeErrors.NewRangeError(storeErrors.OpEncode,
			fmt.Errorf("node id %d is outside of the acceptable range", nodeID))
	}
	if timestampMS == 0 {
		timestampMS = time.Now().UnixMilli()
	}

	entries := c.Entries()
	pos := sort.Search(len(entries), func(i int) bool { return entries[i].NodeID >= nodeID })
	if pos < len(entries) && entries[pos].NodeID == nodeID {
		entries[pos].Counter++
	} else {
		if len(entries) >= MaxEntries {
			return nil, storeErrors.NewCapacityError(storeErrors.OpEncode,
				fmt.Errorf("vector clock is full: %d entries", len(entries)))
		}
		entries = append(entries, Entry{})
		copy(entries[pos+1:], entries[pos:])
		entries[pos] = Entry{NodeID: nodeID, Counter: 1}
	}

	return &Clock{entries: entries, timestamp: timestampMS}, nil
}

// Compare determines the causal relationship between two clocks.
//
// The comparison is a merge-walk over both version lists sorted by node id:
// a higher counter for a shared node id marks that side bigger, and an
// entry present on only one side marks that side bigger (missing history
// means smaller). Both sides bigger is Concurrent; only c bigger is After;
// only other bigger, or the sets being equal, is Before.
func (c *Clock) Compare(other *Clock) Occurred {
	if other == nil {
		other = &Clock{}
	}

	var cBigger, otherBigger bool
	v1, v2 := c.entries, other.entries
	p1, p2 := 0, 0
	for p1 < len(v1) && p2 < len(v2) {
		e1, e2 := v1[p1], v2[p2]
		switch {
		case e1.NodeID == e2.NodeID:
			if e1.Counter > e2.Counter {
				cBigger = true
			} else if e2.Counter > e1.Counter {
				otherBigger = true
			}
			p1++
			p2++
		case e1.NodeID > e2.NodeID:
			// c is missing a version that other has
			otherBigger = true
			p2++
		default:
			// other is missing a version that c has
			cBigger = true
			p1++
		}
	}
	if p1 < len(v1) {
		cBigger = true
	} else if p2 < len(v2) {
		otherBigger = true
	}

	switch {
	case cBigger && otherBigger:
		return Concurrent
	case cBigger:
		return After
	default:
		// Equal version sets report Before, arbitrarily.
		return Before
	}
}

// counterWidth returns the smallest byte width (at least 1, at most 8)
// that fits the largest counter in the version list.
func (c *Clock) counterWidth() int {
	var max uint64
	for _, e := range c.entries {
		if e.Counter > max {
			max = e.Counter
		}
	}
	width := 1
	for width < 8 && max >= 1<<(8*uint(width)) {
		width++
	}
	return width
}

// EncodedSize returns the length in bytes of the clock's binary form.
func (c *Clock) EncodedSize() int {
	return 2 + 1 + len(c.entries)*(2+c.counterWidth()) + 8
}

// Bytes encodes the clock into its binary wire form: a uint16 entry count,
// a one-byte counter width (recomputed from the actual maximum counter on
// every encode), the entries as uint16 node id plus a big-endian counter of
// that width, and a uint64 millisecond timestamp.
func (c *Clock) Bytes() []byte {
	width := c.counterWidth()
	buf := make([]byte, 0, c.EncodedSize())

	buf = binary.BigEndian.AppendUint16(buf, uint16(len(c.entries)))
	buf = append(buf, byte(width))
	for _, e := range c.entries {
		buf = binary.BigEndian.AppendUint16(buf, e.NodeID)
		for shift := 8 * (width - 1); shift >= 0; shift -= 8 {
			buf = append(buf, byte(e.Counter>>uint(shift)))
		}
	}
	return binary.BigEndian.AppendUint64(buf, uint64(c.timestamp))
}

// Base64 returns the standard-base64 text form of the binary encoding.
func (c *Clock) Base64() string {
	return base64.StdEncoding.EncodeToString(c.Bytes())
}

// Decode parses a clock from the front of data, returning the clock and the
// number of bytes consumed. Trailing bytes are left untouched; this is how
// a clock is split off the front of a clock+value chunk.
func Decode(data []byte) (*Clock, int, error) {
	if len(data) < 3 {
		return nil, 0, storeErrors.NewProtocolError(storeErrors.OpDecode,
			fmt.Errorf("clock header needs 3 bytes, found %d", len(data)))
	}
	numEntries := int(binary.BigEndian.Uint16(data[:2]))
	width := int(data[2])
	if width < 1 || width > 8 {
		return nil, 0, storeErrors.NewProtocolError(storeErrors.OpDecode,
			fmt.Errorf("invalid clock counter width %d", width))
	}
	need := 2 + 1 + numEntries*(2+width) + 8
	if len(data) < need {
		return nil, 0, storeErrors.NewProtocolError(storeErrors.OpDecode,
			fmt.Errorf("too few bytes: expected at least %d but found only %d", need, len(data)))
	}

	entries := make([]Entry, 0, numEntries)
	index := 3
	for i := 0; i < numEntries; i++ {
		nodeID := binary.BigEndian.Uint16(data[index : index+2])
		var counter uint64
		for _, b := range data[index+2 : index+2+width] {
			counter = counter<<8 | uint64(b)
		}
		entries = append(entries, Entry{NodeID: nodeID, Counter: counter})
		index += 2 + width
	}
	timestamp := int64(binary.BigEndian.Uint64(data[index : index+8]))

	clock, err := FromEntries(entries, timestamp)
	if err != nil {
		return nil, 0, err
	}
	return clock, need, nil
}

// FromBytes parses a clock from its binary form, ignoring trailing bytes.
func FromBytes(data []byte) (*Clock, error) {
	clock, _, err := Decode(data)
	return clock, err
}

// FromBase64 parses a clock from its base64 text form.
func FromBase64(s string) (*Clock, error) {
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, storeErrors.NewProtocolError(storeErrors.OpDecode,
			fmt.Errorf("invalid base64 clock: %w", err))
	}
	return FromBytes(data)
}
