package hnsw

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
)

type serializedConfig struct {
	M              int          `json:"m"`
	EfConstruction int          `json:"efConstruction"`
	EfSearch       int          `json:"efSearch"`
	Kind           DistanceKind `json:"kind"`
}

type serializedNode struct {
	ID          uint32     `json:"id"`
	Vector      string     `json:"vector"`
	Connections [][]uint32 `json:"connections"`
}

type serializedGraph struct {
	Dimensions int              `json:"dimensions"`
	Config     serializedConfig `json:"config"`
	Nodes      []serializedNode `json:"nodes"`
	EntryPoint uint32           `json:"entryPoint"`
	HasEntry   bool             `json:"hasEntry"`
	MaxLevel   int              `json:"maxLevel"`
}

func encodeVector(v []float32) string {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}

	return base64.StdEncoding.EncodeToString(buf)
}

func decodeVector(s string, dimension int) ([]float32, error) {
	buf, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("hnsw: decode vector: %w", err)
	}

	if len(buf) != 4*dimension {
		return nil, fmt.Errorf("hnsw: decoded vector has %d bytes, want %d", len(buf), 4*dimension)
	}

	out := make([]float32, dimension)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}

	return out, nil
}

// MarshalJSON serializes the graph into the documented snapshot format:
// dimensions, config, per-node vectors and per-layer adjacency, entry
// point and max level.
func (h *HNSW) MarshalJSON() ([]byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	graph := serializedGraph{
		Dimensions: h.dimension,
		Config: serializedConfig{
			M:              h.opts.M,
			EfConstruction: h.opts.EfConstruction,
			EfSearch:       h.opts.EfSearch,
			Kind:           h.opts.Kind,
		},
		EntryPoint: h.entryPoint,
		HasEntry:   h.hasEntry,
		MaxLevel:   h.maxLevel,
		Nodes:      make([]serializedNode, 0, len(h.nodes)),
	}

	for _, n := range h.nodes {
		graph.Nodes = append(graph.Nodes, serializedNode{
			ID:          n.ID,
			Vector:      encodeVector(n.Vector),
			Connections: n.Connections,
		})
	}

	return json.Marshal(graph)
}

// UnmarshalJSON replaces the graph's contents with a previously serialized
// snapshot. The distance function is re-resolved from the recorded kind;
// a custom DistanceFunc set via WithDistanceFunc is not recorded, so after
// a round trip the graph uses the built-in function for that kind.
func (h *HNSW) UnmarshalJSON(data []byte) error {
	var graph serializedGraph
	if err := json.Unmarshal(data, &graph); err != nil {
		return err
	}

	nodes := make(map[uint32]*Node, len(graph.Nodes))
	for _, sn := range graph.Nodes {
		vec, err := decodeVector(sn.Vector, graph.Dimensions)
		if err != nil {
			return err
		}

		nodes[sn.ID] = &Node{
			ID:          sn.ID,
			Vector:      vec,
			Level:       len(sn.Connections) - 1,
			Connections: sn.Connections,
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.dimension = graph.Dimensions
	h.opts = Options{
		M:              graph.Config.M,
		EfConstruction: graph.Config.EfConstruction,
		EfSearch:       graph.Config.EfSearch,
		Kind:           graph.Config.Kind,
	}
	h.dist = resolveDistanceFunc(graph.Config.Kind)
	h.nodes = nodes
	h.entryPoint = graph.EntryPoint
	h.hasEntry = graph.HasEntry
	h.maxLevel = graph.MaxLevel

	return nil
}
