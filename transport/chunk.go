package transport

import (
	"encoding/binary"
	"fmt"

	storeErrors "github.com/c0deZ3R0/go-store-kit/errors"
	"github.com/c0deZ3R0/go-store-kit/version"
)

// Both protocols return GET results as chunks of the same shape: the
// encoded vector clock immediately followed by the raw value bytes. The
// clock's own encoded length is what splits the two.

// SplitChunk decodes one clock+value chunk into a Versioned pair.
func SplitChunk(chunk []byte) (Versioned, error) {
	clock, n, err := version.Decode(chunk)
	if err != nil {
		return Versioned{}, err
	}
	return Versioned{Value: chunk[n:], Version: clock}, nil
}

// EncodeChunk is the inverse of SplitChunk.
func EncodeChunk(v Versioned) []byte {
	encoded := v.Version.Bytes()
	return append(encoded, v.Value...)
}

// DecodeChunkStream parses a concatenation of (int32 length, chunk)
// records, the shape of an HTTP GET response body.
func DecodeChunkStream(data []byte) ([]Versioned, error) {
	var results []Versioned
	index := 0
	for index < len(data) {
		if len(data)-index < 4 {
			return nil, storeErrors.NewProtocolError(storeErrors.OpDecode,
				fmt.Errorf("truncated chunk length at offset %d", index))
		}
		size := int(int32(binary.BigEndian.Uint32(data[index : index+4])))
		index += 4
		if size < 0 || len(data)-index < size {
			return nil, storeErrors.NewProtocolError(storeErrors.OpDecode,
				fmt.Errorf("chunk length %d does not fit %d remaining bytes", size, len(data)-index))
		}
		v, err := SplitChunk(data[index : index+size])
		if err != nil {
			return nil, err
		}
		results = append(results, v)
		index += size
	}
	return results, nil
}

// EncodeChunkStream is the inverse of DecodeChunkStream.
func EncodeChunkStream(results []Versioned) []byte {
	var buf []byte
	for _, v := range results {
		chunk := EncodeChunk(v)
		buf = binary.BigEndian.AppendUint32(buf, uint32(len(chunk)))
		buf = append(buf, chunk...)
	}
	return buf
}
