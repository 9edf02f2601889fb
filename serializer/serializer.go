// Package serializer converts logical keys and values to and from the raw
// bytes stored in the cluster. Which serializer a store uses is part of the
// store's server-side definition, so the byte forms here must match what
// every other client of the same store produces.
package serializer

import (
	"encoding/binary"
	"fmt"

	storeErrors "github.com/c0deZ3R0/go-store-kit/errors"
)

// Serializer is a pluggable byte codec for logical keys and values.
// A nil pointer represents an explicit null value; not every codec can
// carry one.
type Serializer interface {
	// ToBytes converts a value to its stored byte form
	ToBytes(value *string) ([]byte, error)
	// FromBytes converts a stored byte form back to a value
	FromBytes(data []byte) (*string, error)
}

// String is a raw UTF-8 passthrough codec. It has no room for a null
// marker, so nil values are rejected.
type String struct{}

func (String) ToBytes(value *string) ([]byte, error) {
	if value == nil {
		return nil, storeErrors.NewConfigurationError(storeErrors.OpEncode,
			fmt.Errorf("string serializer cannot encode a null value"))
	}
	return []byte(*value), nil
}

func (String) FromBytes(data []byte) (*string, error) {
	s := string(data)
	return &s, nil
}

// VersionedString is a length-prefixed UTF-8 codec: an optional one-byte
// schema version, an int16 big-endian length, and the payload. Length -1
// marks an explicit null value. The newest schema version is used for
// every encode.
type VersionedString struct {
	schemaMap  map[uint8]string
	hasVersion bool
	newest     uint8
}

const nullLength = -1

func (s *VersionedString) ToBytes(value *string) ([]byte, error) {
	var buf []byte
	if s.hasVersion {
		buf = append(buf, s.newest)
	}
	if value == nil {
		marker := int16(nullLength)
		return binary.BigEndian.AppendUint16(buf, uint16(marker)), nil
	}
	payload := []byte(*value)
	if len(payload) > 0x7fff {
		return nil, storeErrors.NewCapacityError(storeErrors.OpEncode,
			fmt.Errorf("value of %d bytes exceeds int16 length prefix", len(payload)))
	}
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(payload)))
	return append(buf, payload...), nil
}

func (s *VersionedString) FromBytes(data []byte) (*string, error) {
	offset := 0
	schema := uint8(0)
	if s.hasVersion {
		if len(data) < 1 {
			return nil, storeErrors.NewProtocolError(storeErrors.OpDecode,
				fmt.Errorf("missing schema version byte"))
		}
		schema = data[0]
		offset = 1
	}
	if _, ok := s.schemaMap[schema]; !ok {
		return nil, storeErrors.NewProtocolError(storeErrors.OpDecode,
			fmt.Errorf("unknown schema version %d", schema))
	}
	if len(data) < offset+2 {
		return nil, storeErrors.NewProtocolError(storeErrors.OpDecode,
			fmt.Errorf("missing length prefix"))
	}
	length := int(int16(binary.BigEndian.Uint16(data[offset : offset+2])))
	offset += 2
	if length == nullLength {
		return nil, nil
	}
	if length < 0 || len(data) < offset+length {
		return nil, storeErrors.NewProtocolError(storeErrors.OpDecode,
			fmt.Errorf("length prefix %d does not fit %d remaining bytes", length, len(data)-offset))
	}
	value := string(data[offset : offset+length])
	return &value, nil
}

// Config describes a serializer as it appears in a store definition: the
// schema type name, the per-version schema text, and whether encoded values
// carry a version byte. All fields are fixed after parsing.
type Config struct {
	TypeName   string
	SchemaMap  map[uint8]string
	HasVersion bool
}

// New builds the Serializer for a store definition's serializer config.
// Unknown schema type names are a configuration error.
func New(cfg Config) (Serializer, error) {
	switch cfg.TypeName {
	case "string":
		// The raw string codec carries no schema metadata.
		if len(cfg.SchemaMap) != 0 {
			return nil, storeErrors.NewConfigurationError(storeErrors.OpBootstrap,
				fmt.Errorf("string serializer does not accept schema metadata"))
		}
		return String{}, nil
	case "json":
		// Only the '"string"' schema of the json serializer family is
		// supported; it is what the upstream stores ship with.
		for v, schema := range cfg.SchemaMap {
			if schema != `"string"` {
				return nil, storeErrors.NewConfigurationError(storeErrors.OpBootstrap,
					fmt.Errorf("unsupported json schema %q for version %d", schema, v))
			}
		}
		newest := uint8(0)
		for v := range cfg.SchemaMap {
			if v > newest {
				newest = v
			}
		}
		return &VersionedString{
			schemaMap:  cfg.SchemaMap,
			hasVersion: cfg.HasVersion,
			newest:     newest,
		}, nil
	default:
		return nil, storeErrors.NewConfigurationError(storeErrors.OpBootstrap,
			fmt.Errorf("unknown serializer type %q", cfg.TypeName))
	}
}
