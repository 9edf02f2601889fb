// Package httptransport implements the store's HTTP protocol. Keys are
// addressed as /{store}/{hex(key)} and the vector clock travels in the
// X-vldmt-version header as base64.
package httptransport

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"

	storeErrors "github.com/c0deZ3R0/go-store-kit/errors"
	"github.com/c0deZ3R0/go-store-kit/transport"
	"github.com/c0deZ3R0/go-store-kit/version"
)

// VersionHeader carries the base64 vector clock on PUT and DELETE requests.
const VersionHeader = "X-vldmt-version"

// Transport speaks the HTTP protocol to a single node.
type Transport struct {
	client  *http.Client
	baseURL string // e.g. "http://node0.example.com:8081"
	options *transport.Options
}

var _ transport.Transport = (*Transport)(nil)

// New creates an HTTP transport for the node at baseURL.
// If a custom http.Client is not provided, one honoring the transport
// options' request timeout is constructed.
func New(baseURL string, client *http.Client, options *transport.Options) *Transport {
	if options == nil {
		options = transport.DefaultOptions()
	}
	if client == nil {
		client = &http.Client{Timeout: options.RequestTimeout}
	}
	return &Transport{
		client:  client,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		options: options,
	}
}

func (t *Transport) storePath(store string, key []byte) string {
	return fmt.Sprintf("%s/%s/%s", t.baseURL, store, hex.EncodeToString(key))
}

// do performs one exchange and returns the response body on any 2xx status.
// A 409 is decoded into an obsolete-version error; anything else non-2xx is
// a protocol error carrying path and status.
func (t *Transport) do(ctx context.Context, op storeErrors.Operation, method, url string, body []byte, ver *version.Clock) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, storeErrors.NewWithComponent(op, "transport", fmt.Errorf("failed to create request: %w", err))
	}
	if ver != nil {
		req.Header.Set(VersionHeader, ver.Base64())
	}
	if body != nil {
		req.ContentLength = int64(len(body))
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, storeErrors.NewNetworkError(op, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, storeErrors.NewNetworkError(op, err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return respBody, nil
	case resp.StatusCode == http.StatusConflict:
		return nil, storeErrors.NewObsoleteVersionError(op, conflictMessage(respBody))
	default:
		return nil, storeErrors.NewProtocolError(op,
			fmt.Errorf("response failure for %s %s: %d %s", method, url, resp.StatusCode, resp.Status))
	}
}

// conflictMessage digs the server's message out of a 409 body: an HTML page
// whose <pre> element holds an escaped XML error fragment with a <message>
// child. Falls back to the raw body when the fragment cannot be parsed.
func conflictMessage(body []byte) string {
	text := string(body)
	start := strings.Index(text, "<pre>")
	end := strings.LastIndex(text, "</pre>")
	if start < 0 || end < start {
		return strings.TrimSpace(text)
	}
	fragment := html.UnescapeString(text[start+len("<pre>") : end])

	var parsed struct {
		Message string `xml:"message"`
	}
	if err := xml.Unmarshal([]byte(fragment), &parsed); err != nil || parsed.Message == "" {
		return strings.TrimSpace(fragment)
	}
	return parsed.Message
}

// GetRaw implements transport.Transport.
func (t *Transport) GetRaw(ctx context.Context, store string, key []byte) ([]transport.Versioned, error) {
	body, err := t.do(ctx, storeErrors.OpGet, http.MethodGet, t.storePath(store, key), nil, nil)
	if err != nil {
		return nil, err
	}
	return transport.DecodeChunkStream(body)
}

// PutRaw implements transport.Transport. ver must not be nil.
func (t *Transport) PutRaw(ctx context.Context, store string, key, value []byte, ver *version.Clock) error {
	_, err := t.do(ctx, storeErrors.OpPut, http.MethodPut, t.storePath(store, key), value, ver)
	return err
}

// DeleteRaw implements transport.Transport. ver must not be nil.
//
// The HTTP protocol has no deletion flag in its response, so a successful
// DELETE always reports true.
func (t *Transport) DeleteRaw(ctx context.Context, store string, key []byte, ver *version.Clock) (bool, error) {
	if _, err := t.do(ctx, storeErrors.OpDelete, http.MethodDelete, t.storePath(store, key), nil, ver); err != nil {
		return false, err
	}
	return true, nil
}
