package storekit

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/c0deZ3R0/go-store-kit/cluster"
	storeErrors "github.com/c0deZ3R0/go-store-kit/errors"
	"github.com/c0deZ3R0/go-store-kit/logging"
	"github.com/c0deZ3R0/go-store-kit/metrics"
	"github.com/c0deZ3R0/go-store-kit/routing"
	"github.com/c0deZ3R0/go-store-kit/serializer"
)

// Names under which a cluster publishes its own metadata.
const (
	metadataStore  = "metadata"
	clusterInfoKey = "cluster.xml"
	storesInfoKey  = "stores.xml"
)

// Default bootstrap ports per URL scheme.
const (
	defaultSocketPort = 6666
	defaultHTTPPort   = 8081
)

// Client is a connected view of one cluster: its node set and the store
// definitions it serves. Construct it with Connect; obtain per-store
// handles with Store.
type Client struct {
	clusterName string
	nodes       []*cluster.Node
	stores      map[string]*cluster.StoreDef
	options     clientOptions
	logger      *logging.Logger
}

// Connect bootstraps a client from a single contact point. The URL scheme
// selects the bootstrap transport: "tcp://host[:port]" uses the native
// socket protocol (default port 6666), "http://host[:port]" the HTTP
// protocol (default port 8081). The contact point only has to be a member
// of the cluster; the real topology comes from the metadata it serves.
func Connect(ctx context.Context, bootstrapURL string, opts ...Option) (*Client, error) {
	options := defaultClientOptions()
	for _, opt := range opts {
		opt(&options)
	}

	contact, err := bootstrapNode(bootstrapURL, options)
	if err != nil {
		metrics.BootstrapTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	client, err := bootstrap(ctx, contact, options)
	if err != nil {
		metrics.BootstrapTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.BootstrapTotal.WithLabelValues("success").Inc()

	client.logger.InfoContext(ctx, "cluster bootstrap complete",
		slog.String("cluster", client.clusterName),
		slog.Int("nodes", len(client.nodes)),
		slog.Int("stores", len(client.stores)))
	return client, nil
}

// bootstrapNode builds the unrouted contact-point node from a bootstrap URL.
func bootstrapNode(bootstrapURL string, options clientOptions) (*cluster.Node, error) {
	u, err := url.Parse(bootstrapURL)
	if err != nil || u.Hostname() == "" {
		return nil, storeErrors.NewConfigurationError(storeErrors.OpBootstrap,
			fmt.Errorf("invalid bootstrap url %q", bootstrapURL))
	}

	cfg := cluster.NodeConfig{
		ID:         cluster.NoID,
		Host:       u.Hostname(),
		Options:    options.transportOptions,
		HTTPClient: options.httpClient,
	}
	port := 0
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil {
			return nil, storeErrors.NewConfigurationError(storeErrors.OpBootstrap,
				fmt.Errorf("invalid bootstrap port %q", p))
		}
	}

	switch u.Scheme {
	case "tcp":
		if port == 0 {
			port = defaultSocketPort
		}
		cfg.SocketPort = port
	case "http":
		if port == 0 {
			port = defaultHTTPPort
		}
		cfg.HTTPPort = port
	default:
		return nil, storeErrors.NewConfigurationError(storeErrors.OpBootstrap,
			fmt.Errorf("unsupported bootstrap scheme %q", u.Scheme))
	}
	return cluster.NewNode(cfg), nil
}

// bootstrap fetches cluster.xml and stores.xml from the contact point's
// metadata store and parses them into a Client.
func bootstrap(ctx context.Context, contact *cluster.Node, options clientOptions) (*Client, error) {
	metadata := &Store{
		name:     metadataStore,
		conn:     directConn{node: contact},
		keySer:   serializer.String{},
		valueSer: serializer.String{},
		logger:   options.logger.WithStore(metadataStore),
	}

	clusterDoc, _, err := metadata.Get(ctx, clusterInfoKey)
	if err != nil {
		return nil, err
	}
	if clusterDoc == nil {
		return nil, storeErrors.NewConfigurationError(storeErrors.OpBootstrap,
			fmt.Errorf("contact point returned no cluster metadata"))
	}
	storesDoc, _, err := metadata.Get(ctx, storesInfoKey)
	if err != nil {
		return nil, err
	}
	if storesDoc == nil {
		return nil, storeErrors.NewConfigurationError(storeErrors.OpBootstrap,
			fmt.Errorf("contact point returned no store metadata"))
	}

	name, nodes, err := cluster.ParseCluster([]byte(*clusterDoc), cluster.NodeConfig{
		Options:    options.transportOptions,
		HTTPClient: options.httpClient,
	})
	if err != nil {
		return nil, err
	}
	stores, err := cluster.ParseStores([]byte(*storesDoc))
	if err != nil {
		return nil, err
	}

	return &Client{
		clusterName: name,
		nodes:       nodes,
		stores:      stores,
		options:     options,
		logger:      options.logger,
	}, nil
}

// ClusterName returns the name declared in the cluster metadata.
func (c *Client) ClusterName() string { return c.clusterName }

// Nodes returns the cluster's node set.
func (c *Client) Nodes() []*cluster.Node {
	return append([]*cluster.Node(nil), c.nodes...)
}

// StoreNames returns the names of every store the cluster serves.
func (c *Client) StoreNames() []string {
	names := make([]string, 0, len(c.stores))
	for name := range c.stores {
		names = append(names, name)
	}
	return names
}

// Store returns a handle for the named store, routed across the full node
// set per the store's replication settings.
func (c *Client) Store(name string) (*Store, error) {
	def, ok := c.stores[name]
	if !ok {
		return nil, storeErrors.NewConfigurationError(storeErrors.OpBootstrap,
			fmt.Errorf("cluster serves no store named %q", name))
	}
	router, err := routing.New(def, c.nodes)
	if err != nil {
		return nil, err
	}
	return &Store{
		name:     name,
		def:      def,
		conn:     router,
		keySer:   def.KeySerializer,
		valueSer: def.ValueSerializer,
		logger:   c.logger.WithStore(name),
	}, nil
}
