package storekit

import (
	"net/http"

	"github.com/c0deZ3R0/go-store-kit/logging"
	"github.com/c0deZ3R0/go-store-kit/transport"
)

type clientOptions struct {
	transportOptions *transport.Options
	httpClient       *http.Client
	logger           *logging.Logger
}

func defaultClientOptions() clientOptions {
	return clientOptions{
		transportOptions: transport.DefaultOptions(),
		logger:           logging.Default(),
	}
}

// Option configures a Client.
type Option func(*clientOptions)

// WithTransportOptions sets the dial and request timeouts applied to every
// node transport, including the bootstrap connection.
func WithTransportOptions(opts *transport.Options) Option {
	return func(o *clientOptions) {
		if opts != nil {
			o.transportOptions = opts
		}
	}
}

// WithHTTPClient overrides the HTTP client used by HTTP-transport nodes.
func WithHTTPClient(client *http.Client) Option {
	return func(o *clientOptions) {
		o.httpClient = client
	}
}

// WithLogger overrides the client's logger.
func WithLogger(logger *logging.Logger) Option {
	return func(o *clientOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}
