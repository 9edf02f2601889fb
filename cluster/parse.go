package cluster

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	storeErrors "github.com/c0deZ3R0/go-store-kit/errors"
	"github.com/c0deZ3R0/go-store-kit/serializer"
)

// Cluster is the parsed bootstrap metadata: the named node set plus the
// store definitions served by it.
type Cluster struct {
	Name   string
	Nodes  []*Node
	Stores map[string]*StoreDef
}

type clusterXML struct {
	Name    string      `xml:"name"`
	Servers []serverXML `xml:"server"`
}

type serverXML struct {
	ID         string `xml:"id"`
	Host       string `xml:"host"`
	HTTPPort   string `xml:"http-port"`
	SocketPort string `xml:"socket-port"`
	Partitions string `xml:"partitions"`
}

type storesXML struct {
	Stores []storeXML `xml:"store"`
}

type storeXML struct {
	Name              string        `xml:"name"`
	Persistence       string        `xml:"persistence"`
	Routing           string        `xml:"routing"`
	ReplicationFactor string        `xml:"replication-factor"`
	RequiredReads     string        `xml:"required-reads"`
	RequiredWrites    string        `xml:"required-writes"`
	PreferredReads    string        `xml:"preferred-reads"`
	PreferredWrites   string        `xml:"preferred-writes"`
	RetentionDays     string        `xml:"retention-days"`
	KeySerializer     serializerXML `xml:"key-serializer"`
	ValueSerializer   serializerXML `xml:"value-serializer"`
}

type serializerXML struct {
	Type        string          `xml:"type"`
	SchemaInfos []schemaInfoXML `xml:"schema-info"`
}

type schemaInfoXML struct {
	Version string `xml:"version,attr"`
	Text    string `xml:",chardata"`
}

// ParseCluster parses a cluster.xml document into the node set.
func ParseCluster(data []byte, nodeCfg NodeConfig) (string, []*Node, error) {
	var doc clusterXML
	if err := xml.Unmarshal(data, &doc); err != nil {
		return "", nil, storeErrors.NewConfigurationError(storeErrors.OpBootstrap,
			fmt.Errorf("malformed cluster metadata: %w", err))
	}
	if len(doc.Servers) == 0 {
		return "", nil, storeErrors.NewConfigurationError(storeErrors.OpBootstrap,
			fmt.Errorf("cluster metadata lists no servers"))
	}

	nodes := make([]*Node, 0, len(doc.Servers))
	for _, server := range doc.Servers {
		id, err := strconv.Atoi(strings.TrimSpace(server.ID))
		if err != nil {
			return "", nil, storeErrors.NewConfigurationError(storeErrors.OpBootstrap,
				fmt.Errorf("server has invalid id %q", server.ID))
		}
		httpPort, err := strconv.Atoi(strings.TrimSpace(server.HTTPPort))
		if err != nil {
			return "", nil, storeErrors.NewConfigurationError(storeErrors.OpBootstrap,
				fmt.Errorf("server %d has invalid http-port %q", id, server.HTTPPort))
		}
		// A missing or non-numeric socket port downgrades the node to the
		// HTTP transport rather than failing bootstrap.
		socketPort, err := strconv.Atoi(strings.TrimSpace(server.SocketPort))
		if err != nil {
			socketPort = 0
		}
		partitions, err := parsePartitionList(server.Partitions)
		if err != nil {
			return "", nil, storeErrors.NewConfigurationError(storeErrors.OpBootstrap,
				fmt.Errorf("server %d: %w", id, err))
		}

		cfg := nodeCfg
		cfg.ID = id
		cfg.Host = server.Host
		cfg.HTTPPort = httpPort
		cfg.SocketPort = socketPort
		cfg.Partitions = partitions
		nodes = append(nodes, NewNode(cfg))
	}
	return doc.Name, nodes, nil
}

func parsePartitionList(s string) ([]int, error) {
	var partitions []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid partition id %q", part)
		}
		partitions = append(partitions, id)
	}
	return partitions, nil
}

// ParseStores parses a stores.xml document into store definitions keyed by
// store name.
func ParseStores(data []byte) (map[string]*StoreDef, error) {
	var doc storesXML
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, storeErrors.NewConfigurationError(storeErrors.OpBootstrap,
			fmt.Errorf("malformed stores metadata: %w", err))
	}

	stores := make(map[string]*StoreDef, len(doc.Stores))
	for _, s := range doc.Stores {
		def, err := parseStoreDef(s)
		if err != nil {
			return nil, err
		}
		stores[def.Name] = def
	}
	return stores, nil
}

func parseStoreDef(s storeXML) (*StoreDef, error) {
	required := func(field, value string) (int, error) {
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return 0, storeErrors.NewConfigurationError(storeErrors.OpBootstrap,
				fmt.Errorf("store %q has invalid %s %q", s.Name, field, value))
		}
		return n, nil
	}
	optional := func(value string) int {
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return 0
		}
		return n
	}

	replication, err := required("replication-factor", s.ReplicationFactor)
	if err != nil {
		return nil, err
	}
	requiredReads, err := required("required-reads", s.RequiredReads)
	if err != nil {
		return nil, err
	}
	requiredWrites, err := required("required-writes", s.RequiredWrites)
	if err != nil {
		return nil, err
	}

	keySer, err := parseSerializer(s.KeySerializer)
	if err != nil {
		return nil, err
	}
	valueSer, err := parseSerializer(s.ValueSerializer)
	if err != nil {
		return nil, err
	}

	return &StoreDef{
		Name:              s.Name,
		Persistence:       s.Persistence,
		Routing:           s.Routing,
		ReplicationFactor: replication,
		RequiredReads:     requiredReads,
		RequiredWrites:    requiredWrites,
		PreferredReads:    optional(s.PreferredReads),
		PreferredWrites:   optional(s.PreferredWrites),
		RetentionDays:     optional(s.RetentionDays),
		KeySerializer:     keySer,
		ValueSerializer:   valueSer,
	}, nil
}

// parseSerializer builds the serializer config from a key-serializer or
// value-serializer element. A schema-info version attribute of "none"
// means encoded values carry no version byte; a missing attribute means
// version 0.
func parseSerializer(x serializerXML) (serializer.Serializer, error) {
	schemaMap := make(map[uint8]string)
	hasVersion := true
	for _, info := range x.SchemaInfos {
		v := strings.TrimSpace(info.Version)
		ver := 0
		switch v {
		case "":
		case "none":
			hasVersion = false
		default:
			parsed, err := strconv.Atoi(v)
			if err != nil || parsed < 0 || parsed > 255 {
				return nil, storeErrors.NewConfigurationError(storeErrors.OpBootstrap,
					fmt.Errorf("invalid schema version %q", info.Version))
			}
			ver = parsed
		}
		schemaMap[uint8(ver)] = strings.TrimSpace(info.Text)
	}
	return serializer.New(serializer.Config{
		TypeName:   x.Type,
		SchemaMap:  schemaMap,
		HasVersion: hasVersion,
	})
}
