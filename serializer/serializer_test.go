package serializer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	storeErrors "github.com/c0deZ3R0/go-store-kit/errors"
)

func strPtr(s string) *string { return &s }

func TestString_RoundTrip(t *testing.T) {
	s := String{}

	data, err := s.ToBytes(strPtr("héllo"))
	require.NoError(t, err)
	assert.Equal(t, []byte("héllo"), data)

	value, err := s.FromBytes(data)
	require.NoError(t, err)
	assert.Equal(t, "héllo", *value)
}

func TestString_RejectsNull(t *testing.T) {
	_, err := String{}.ToBytes(nil)
	assert.True(t, storeErrors.IsConfiguration(err))
}

func TestVersionedString(t *testing.T) {
	ser, err := New(Config{
		TypeName:   "json",
		SchemaMap:  map[uint8]string{0: `"string"`},
		HasVersion: true,
	})
	require.NoError(t, err)

	t.Run("encodes version byte and length prefix", func(t *testing.T) {
		data, err := ser.ToBytes(strPtr("ab"))
		require.NoError(t, err)
		assert.Equal(t, []byte{0x00, 0x00, 0x02, 'a', 'b'}, data)
	})

	t.Run("null encodes as length -1", func(t *testing.T) {
		data, err := ser.ToBytes(nil)
		require.NoError(t, err)
		assert.Equal(t, []byte{0x00, 0xff, 0xff}, data)

		value, err := ser.FromBytes(data)
		require.NoError(t, err)
		assert.Nil(t, value)
	})

	t.Run("round trip", func(t *testing.T) {
		data, err := ser.ToBytes(strPtr("héllo wörld"))
		require.NoError(t, err)
		value, err := ser.FromBytes(data)
		require.NoError(t, err)
		assert.Equal(t, "héllo wörld", *value)
	})

	t.Run("unknown schema version", func(t *testing.T) {
		_, err := ser.FromBytes([]byte{0x07, 0x00, 0x01, 'x'})
		assert.True(t, storeErrors.IsProtocol(err))
	})

	t.Run("truncated payload", func(t *testing.T) {
		_, err := ser.FromBytes([]byte{0x00, 0x00, 0x05, 'x'})
		assert.True(t, storeErrors.IsProtocol(err))
	})
}

func TestVersionedString_NoVersionByte(t *testing.T) {
	ser, err := New(Config{
		TypeName:   "json",
		SchemaMap:  map[uint8]string{0: `"string"`},
		HasVersion: false,
	})
	require.NoError(t, err)

	data, err := ser.ToBytes(strPtr("x"))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x01, 'x'}, data)

	value, err := ser.FromBytes(data)
	require.NoError(t, err)
	assert.Equal(t, "x", *value)
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"unknown type", Config{TypeName: "avro"}},
		{"string with schema", Config{TypeName: "string", SchemaMap: map[uint8]string{0: "x"}}},
		{"json with unsupported schema", Config{TypeName: "json", SchemaMap: map[uint8]string{0: `"int32"`}, HasVersion: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			assert.True(t, storeErrors.IsConfiguration(err))
		})
	}
}

func TestNew_NewestSchemaWins(t *testing.T) {
	ser, err := New(Config{
		TypeName:   "json",
		SchemaMap:  map[uint8]string{0: `"string"`, 2: `"string"`},
		HasVersion: true,
	})
	require.NoError(t, err)

	data, err := ser.ToBytes(strPtr("x"))
	require.NoError(t, err)
	assert.Equal(t, byte(2), data[0])
}
