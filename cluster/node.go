// Package cluster models the cluster topology a client routes against: the
// member nodes, the stores they serve, and the bootstrap metadata both are
// parsed from.
package cluster

import (
	"fmt"
	"net/http"

	"github.com/c0deZ3R0/go-store-kit/transport"
	"github.com/c0deZ3R0/go-store-kit/transport/httptransport"
	"github.com/c0deZ3R0/go-store-kit/transport/tcptransport"
)

// NoID marks a node whose identity has not been assigned yet, such as the
// bootstrap contact point before cluster metadata is known.
const NoID = -1

// Node is one cluster member. It is immutable after construction and owns
// exactly one transport: the socket protocol when a socket port is
// configured, the HTTP protocol otherwise. The choice is a capability of
// the node, made once and never switched at runtime.
type Node struct {
	id         int
	host       string
	httpPort   int
	socketPort int // 0 when not configured
	partitions []int
	transport  transport.Transport
}

// NodeConfig carries the raw fields a Node is built from.
type NodeConfig struct {
	ID         int
	Host       string
	HTTPPort   int
	SocketPort int
	Partitions []int

	// Transport options applied to whichever protocol the node selects.
	Options *transport.Options

	// HTTPClient overrides the HTTP client for HTTP-transport nodes.
	HTTPClient *http.Client

	// Transport, when set, is used verbatim instead of the port-based
	// protocol selection.
	Transport transport.Transport
}

// NewNode constructs a Node and selects its transport.
func NewNode(cfg NodeConfig) *Node {
	n := &Node{
		id:         cfg.ID,
		host:       cfg.Host,
		httpPort:   cfg.HTTPPort,
		socketPort: cfg.SocketPort,
		partitions: append([]int(nil), cfg.Partitions...),
	}
	if cfg.Transport != nil {
		n.transport = cfg.Transport
	} else if cfg.SocketPort != 0 {
		n.transport = tcptransport.New(cfg.Host, cfg.SocketPort, cfg.Options)
	} else {
		baseURL := fmt.Sprintf("http://%s:%d", cfg.Host, cfg.HTTPPort)
		n.transport = httptransport.New(baseURL, cfg.HTTPClient, cfg.Options)
	}
	return n
}

// ID returns the node's cluster-assigned id, or NoID before bootstrap.
func (n *Node) ID() int { return n.id }

// Host returns the node's hostname.
func (n *Node) Host() string { return n.host }

// HTTPPort returns the node's HTTP port.
func (n *Node) HTTPPort() int { return n.httpPort }

// SocketPort returns the node's socket port, or 0 if not configured.
func (n *Node) SocketPort() int { return n.socketPort }

// Partitions returns a copy of the partition ids this node owns.
func (n *Node) Partitions() []int {
	return append([]int(nil), n.partitions...)
}

// Transport returns the wire transport selected for this node.
func (n *Node) Transport() transport.Transport { return n.transport }

func (n *Node) String() string {
	return fmt.Sprintf("Node(id=%d host=%s http=%d socket=%d partitions=%v)",
		n.id, n.host, n.httpPort, n.socketPort, n.partitions)
}
