package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	storeErrors "github.com/c0deZ3R0/go-store-kit/errors"
)

func mustClock(t *testing.T, entries []Entry, ts int64) *Clock {
	t.Helper()
	c, err := FromEntries(entries, ts)
	require.NoError(t, err)
	return c
}

func TestNew(t *testing.T) {
	c := New()

	if !c.IsZero() {
		t.Error("new clock should be zero")
	}
	if c.Size() != 0 {
		t.Errorf("new clock size should be 0, got %d", c.Size())
	}
	if c.Timestamp() == 0 {
		t.Error("new clock should be stamped with the current time")
	}
}

func TestFromEntries_KeepsZeroTimestamp(t *testing.T) {
	// A wire timestamp of zero is a legal value and must survive a decode
	// round trip untouched.
	c := mustClock(t, []Entry{{NodeID: 0, Counter: 1}}, 0)
	assert.Equal(t, int64(0), c.Timestamp())

	decoded, err := FromBytes(c.Bytes())
	require.NoError(t, err)
	assert.Equal(t, int64(0), decoded.Timestamp())
	assert.Equal(t, c.Bytes(), decoded.Bytes())
}

func TestFromBase64_KnownVector(t *testing.T) {
	// Encoding produced by an interoperating client for versions [(0, 1)]
	// at timestamp 1233963501558.
	const encoded = "AAEBAAABAAABH030x/Y="

	c, err := FromBase64(encoded)
	require.NoError(t, err)

	assert.Equal(t, []Entry{{NodeID: 0, Counter: 1}}, c.Entries())
	assert.Equal(t, int64(1233963501558), c.Timestamp())
	assert.Equal(t, encoded, c.Base64())
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		entries []Entry
	}{
		{"empty", nil},
		{"single entry", []Entry{{0, 1}}},
		{"multiple entries", []Entry{{0, 3}, {5, 1}, {17, 9}}},
		{"two byte counter", []Entry{{1, 256}}},
		{"max single byte counter", []Entry{{1, 255}}},
		{"wide counter", []Entry{{1, 1}, {2, 1 << 40}}},
		{"max width counter", []Entry{{9, 1 << 60}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orig := mustClock(t, tt.entries, 1233963501558)

			decoded, n, err := Decode(orig.Bytes())
			require.NoError(t, err)
			assert.Equal(t, len(orig.Bytes()), n)
			assert.True(t, orig.Equal(decoded))
			assert.Equal(t, orig.Timestamp(), decoded.Timestamp())
		})
	}
}

func TestDecode_IgnoresTrailingBytes(t *testing.T) {
	c := mustClock(t, []Entry{{3, 7}}, 42)
	chunk := append(c.Bytes(), []byte("payload")...)

	decoded, n, err := Decode(chunk)
	require.NoError(t, err)
	assert.True(t, c.Equal(decoded))
	assert.Equal(t, []byte("payload"), chunk[n:])
	assert.Equal(t, c.EncodedSize(), n)
}

func TestDecode_Truncated(t *testing.T) {
	full := mustClock(t, []Entry{{3, 7}, {4, 1}}, 42).Bytes()

	for cut := 0; cut < len(full); cut++ {
		_, _, err := Decode(full[:cut])
		if !storeErrors.IsProtocol(err) {
			t.Fatalf("Decode of %d/%d bytes: expected protocol error, got %v", cut, len(full), err)
		}
	}
}

func TestCounterWidth(t *testing.T) {
	tests := []struct {
		counter uint64
		width   int
	}{
		{0, 1},
		{1, 1},
		{255, 1},
		{256, 2},
		{65535, 2},
		{65536, 3},
		{1 << 56, 8},
		{^uint64(0), 8},
	}

	for _, tt := range tests {
		c := mustClock(t, []Entry{{0, tt.counter}}, 1)
		if got := int(c.Bytes()[2]); got != tt.width {
			t.Errorf("counter %d: expected width %d, got %d", tt.counter, tt.width, got)
		}
	}
}

func TestIncremented(t *testing.T) {
	empty := New()

	one, err := empty.Incremented(4, 100)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), one.Counter(4))
	assert.Equal(t, int64(100), one.Timestamp())
	assert.True(t, empty.IsZero(), "Incremented must not mutate the receiver")

	two, err := one.Incremented(4, 200)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), two.Counter(4))
	assert.Equal(t, uint64(1), one.Counter(4))

	// A new node id is inserted keeping entries sorted.
	mixed, err := two.Incremented(1, 300)
	require.NoError(t, err)
	assert.Equal(t, []Entry{{1, 1}, {4, 2}}, mixed.Entries())
}

func TestIncremented_NodeIDRange(t *testing.T) {
	_, err := New().Incremented(MaxNodeID+1, 0)
	assert.True(t, storeErrors.IsKind(err, storeErrors.KindRange))

	_, err = New().Incremented(MaxNodeID, 0)
	assert.NoError(t, err)
}

func TestCompare(t *testing.T) {
	base := mustClock(t, []Entry{{1, 1}, {2, 1}}, 10)

	tests := []struct {
		name     string
		a, b     *Clock
		expected Occurred
	}{
		{
			name:     "equal version sets report before",
			a:        base,
			b:        mustClock(t, []Entry{{1, 1}, {2, 1}}, 99),
			expected: Before,
		},
		{
			name:     "both empty",
			a:        New(),
			b:        New(),
			expected: Before,
		},
		{
			name:     "dominated on shared node",
			a:        base,
			b:        mustClock(t, []Entry{{1, 2}, {2, 1}}, 10),
			expected: Before,
		},
		{
			name:     "dominating on shared node",
			a:        mustClock(t, []Entry{{1, 2}, {2, 1}}, 10),
			b:        base,
			expected: After,
		},
		{
			name:     "superset dominates",
			a:        mustClock(t, []Entry{{1, 1}, {2, 1}, {3, 1}}, 10),
			b:        base,
			expected: After,
		},
		{
			name:     "missing history means smaller",
			a:        mustClock(t, []Entry{{1, 1}}, 10),
			b:        base,
			expected: Before,
		},
		{
			name:     "each missing an entry the other has",
			a:        mustClock(t, []Entry{{1, 1}}, 10),
			b:        mustClock(t, []Entry{{2, 1}}, 10),
			expected: Concurrent,
		},
		{
			name:     "higher counters on both sides",
			a:        mustClock(t, []Entry{{1, 2}, {2, 1}}, 10),
			b:        mustClock(t, []Entry{{1, 1}, {2, 2}}, 10),
			expected: Concurrent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.a.Compare(tt.b))
		})
	}
}

func TestCompare_IncrementedDominatesParent(t *testing.T) {
	parent := mustClock(t, []Entry{{1, 3}}, 10)
	child, err := parent.Incremented(1, 20)
	require.NoError(t, err)

	assert.Equal(t, After, child.Compare(parent))
	assert.Equal(t, Before, parent.Compare(child))
}

func TestCompare_NilIsEmpty(t *testing.T) {
	c := mustClock(t, []Entry{{1, 1}}, 10)

	assert.Equal(t, After, c.Compare(nil))
	assert.Equal(t, Before, New().Compare(nil))
}

func TestEqual(t *testing.T) {
	a := mustClock(t, []Entry{{1, 1}}, 10)
	b := mustClock(t, []Entry{{1, 1}}, 999)

	// Timestamp is not part of a clock's identity.
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(New()))
	assert.False(t, a.Equal(nil))
	assert.True(t, New().Equal(nil))
}

func TestFromEntries_Validation(t *testing.T) {
	_, err := FromEntries([]Entry{{1, 1}, {1, 2}}, 10)
	assert.Error(t, err, "duplicate node ids must be rejected")

	c, err := FromEntries([]Entry{{9, 1}, {2, 1}}, 10)
	require.NoError(t, err)
	assert.Equal(t, []Entry{{2, 1}, {9, 1}}, c.Entries(), "entries are sorted by node id")
}

func TestClone_Isolated(t *testing.T) {
	a := mustClock(t, []Entry{{1, 1}}, 10)
	b := a.Clone()

	c, err := b.Incremented(1, 20)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), a.Counter(1))
	assert.Equal(t, uint64(2), c.Counter(1))
}
