// Package tcptransport implements the native socket protocol of the store
// over plain TCP. Every operation dials a fresh connection, performs one
// request/response exchange, and closes it.
package tcptransport

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"time"

	storeErrors "github.com/c0deZ3R0/go-store-kit/errors"
	"github.com/c0deZ3R0/go-store-kit/transport"
	"github.com/c0deZ3R0/go-store-kit/version"
)

// Protocol opcodes
const (
	opGet    byte = 1
	opPut    byte = 2
	opDelete byte = 3
)

// Server error codes carried in the response header
const (
	codeObsoleteVersion  = 4
	codeInconsistentData = 8
)

// Transport speaks the native socket protocol to a single node.
type Transport struct {
	addr    string
	options *transport.Options
}

var _ transport.Transport = (*Transport)(nil)

// New creates a socket transport for the node at host:port.
// If options is nil, transport.DefaultOptions is used.
func New(host string, port int, options *transport.Options) *Transport {
	if options == nil {
		options = transport.DefaultOptions()
	}
	return &Transport{
		addr:    net.JoinHostPort(host, fmt.Sprintf("%d", port)),
		options: options,
	}
}

func (t *Transport) dial(ctx context.Context) (net.Conn, error) {
	dialer := net.Dialer{Timeout: t.options.DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", t.addr)
	if err != nil {
		return nil, err
	}
	if tcpConn, ok := conn.(*net.TCPConn); ok {
		// One short exchange per connection; buffering writes only adds latency.
		_ = tcpConn.SetNoDelay(true)
	}
	if t.options.RequestTimeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(t.options.RequestTimeout))
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	return conn, nil
}

// request frames an operation header: opcode, int16 store name length and
// bytes, int32 key length and bytes, then the operation-specific trailer.
func request(opcode byte, store string, key, trailer []byte) []byte {
	buf := make([]byte, 0, 1+2+len(store)+4+len(key)+len(trailer))
	buf = append(buf, opcode)
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(store)))
	buf = append(buf, store...)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(key)))
	buf = append(buf, key...)
	return append(buf, trailer...)
}

// sendCommand writes a framed request and consumes the int16 error code
// that starts every response, mapping non-zero codes to their error kinds.
func sendCommand(op storeErrors.Operation, conn net.Conn, payload []byte) error {
	if _, err := conn.Write(payload); err != nil {
		return storeErrors.NewNetworkError(op, err)
	}

	var header [2]byte
	if _, err := io.ReadFull(conn, header[:]); err != nil {
		return storeErrors.NewNetworkError(op, err)
	}
	errCode := int16(binary.BigEndian.Uint16(header[:]))
	if errCode == 0 {
		return nil
	}

	if _, err := io.ReadFull(conn, header[:]); err != nil {
		return storeErrors.NewNetworkError(op, err)
	}
	msgLen := int(int16(binary.BigEndian.Uint16(header[:])))
	if msgLen < 0 {
		return storeErrors.NewProtocolError(op,
			fmt.Errorf("negative error message length %d", msgLen))
	}
	msg := make([]byte, msgLen)
	if _, err := io.ReadFull(conn, msg); err != nil {
		return storeErrors.NewNetworkError(op, err)
	}

	switch errCode {
	case codeObsoleteVersion:
		return storeErrors.NewObsoleteVersionError(op, string(msg))
	case codeInconsistentData:
		return storeErrors.NewInconsistentDataError(op, fmt.Errorf("%s", msg))
	default:
		return storeErrors.NewProtocolError(op,
			fmt.Errorf("unknown server error code %d: %s", errCode, msg))
	}
}

// GetRaw implements transport.Transport.
func (t *Transport) GetRaw(ctx context.Context, store string, key []byte) ([]transport.Versioned, error) {
	conn, err := t.dial(ctx)
	if err != nil {
		return nil, storeErrors.NewNetworkError(storeErrors.OpGet, err)
	}
	defer conn.Close()

	if err := sendCommand(storeErrors.OpGet, conn, request(opGet, store, key, nil)); err != nil {
		return nil, err
	}

	var lenBuf [4]byte
	if _, err := io.ReadFull(conn, lenBuf[:]); err != nil {
		return nil, storeErrors.NewNetworkError(storeErrors.OpGet, err)
	}
	numResults := int(int32(binary.BigEndian.Uint32(lenBuf[:])))
	if numResults < 0 {
		return nil, storeErrors.NewProtocolError(storeErrors.OpGet,
			fmt.Errorf("negative result count %d", numResults))
	}

	results := make([]transport.Versioned, 0, numResults)
	for i := 0; i < numResults; i++ {
		if _, err := io.ReadFull(conn, lenBuf[:]); err != nil {
			return nil, storeErrors.NewNetworkError(storeErrors.OpGet, err)
		}
		chunkLen := int(int32(binary.BigEndian.Uint32(lenBuf[:])))
		if chunkLen < 0 {
			return nil, storeErrors.NewProtocolError(storeErrors.OpGet,
				fmt.Errorf("negative chunk length %d", chunkLen))
		}
		chunk := make([]byte, chunkLen)
		if _, err := io.ReadFull(conn, chunk); err != nil {
			return nil, storeErrors.NewNetworkError(storeErrors.OpGet, err)
		}
		v, err := transport.SplitChunk(chunk)
		if err != nil {
			return nil, err
		}
		results = append(results, v)
	}
	return results, nil
}

// PutRaw implements transport.Transport. ver must not be nil.
func (t *Transport) PutRaw(ctx context.Context, store string, key, value []byte, ver *version.Clock) error {
	conn, err := t.dial(ctx)
	if err != nil {
		return storeErrors.NewNetworkError(storeErrors.OpPut, err)
	}
	defer conn.Close()

	chunk := transport.EncodeChunk(transport.Versioned{Value: value, Version: ver})
	trailer := binary.BigEndian.AppendUint32(nil, uint32(len(chunk)))
	trailer = append(trailer, chunk...)
	return sendCommand(storeErrors.OpPut, conn, request(opPut, store, key, trailer))
}

// DeleteRaw implements transport.Transport. ver must not be nil.
func (t *Transport) DeleteRaw(ctx context.Context, store string, key []byte, ver *version.Clock) (bool, error) {
	conn, err := t.dial(ctx)
	if err != nil {
		return false, storeErrors.NewNetworkError(storeErrors.OpDelete, err)
	}
	defer conn.Close()

	encoded := ver.Bytes()
	trailer := binary.BigEndian.AppendUint16(nil, uint16(len(encoded)))
	trailer = append(trailer, encoded...)
	if err := sendCommand(storeErrors.OpDelete, conn, request(opDelete, store, key, trailer)); err != nil {
		return false, err
	}

	var deleted [1]byte
	if _, err := io.ReadFull(conn, deleted[:]); err != nil {
		return false, storeErrors.NewNetworkError(storeErrors.OpDelete, err)
	}
	return deleted[0] == 0x01, nil
}
