package graph

import (
	"github.com/dominikbraun/graph"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	ourFault = "This is a Forge bug."
)

type (
	// Directed is a directed graph whose vertices are keyed by the string
	// returned from the hash function given at construction.
	Directed[V any] struct {
		hash       func(V) string
		underlying graph.Graph[string, V]
	}

	Edge[V any] struct {
		Source      V
		Destination V
	}
)

func NewDirected[V any](hash func(V) string) *Directed[V] {
	return &Directed[V]{
		hash:       hash,
		underlying: graph.New(hash, graph.Directed()),
	}
}

// AddVertex adds v to the graph. Adding the same vertex twice is a no-op.
func (d *Directed[V]) AddVertex(v V) {
	err := d.underlying.AddVertex(v)
	if err != nil && !errors.Is(err, graph.ErrVertexAlreadyExists) {
		zap.S().With(zap.Error(err)).Errorf(`Unexpected error while adding %s. %s`, v, ourFault)
	}
}

// AddVerticesAndEdge adds both vertices if they are not yet present, then the edge between them.
func (d *Directed[V]) AddVerticesAndEdge(source V, dest V) {
	d.AddVertex(source)
	d.AddVertex(dest)
	d.AddEdge(d.hash(source), d.hash(dest))
}

// AddEdge adds an edge between two already-added vertices. Duplicate edges are a no-op.
func (d *Directed[V]) AddEdge(source string, dest string) {
	err := d.underlying.AddEdge(source, dest)
	if err != nil && !errors.Is(err, graph.ErrEdgeAlreadyExists) {
		zap.S().With(zap.Error(err)).Errorf(
			`Unexpected error while adding edge between "%v" and "%v"`, source, dest)
	}
}

// GetVertex returns the vertex with the given id, or the zero value if none exists.
func (d *Directed[V]) GetVertex(id string) V {
	v, err := d.underlying.Vertex(id)
	if err != nil && !errors.Is(err, graph.ErrVertexNotFound) {
		zap.S().With(zap.Error(err)).Errorf(`Unexpected error while getting vertex for "%v"`, id)
	}
	return v
}

func (d *Directed[V]) GetEdge(source string, dest string) (Edge[V], bool) {
	e, err := d.underlying.Edge(source, dest)
	if err != nil {
		if !errors.Is(err, graph.ErrEdgeNotFound) {
			zap.S().With(zap.Error(err)).Errorf(`Unexpected error while getting edge "%v" -> "%v"`, source, dest)
		}
		return Edge[V]{}, false
	}
	return Edge[V]{Source: e.Source, Destination: e.Target}, true
}

func (d *Directed[V]) GetAllVertices() []V {
	predecessors, err := d.underlying.PredecessorMap()
	if err != nil {
		// The underlying store is in-memory and only errors for stores backed by
		// external systems, so this is unreachable in practice.
		panic(err)
	}
	var vertices []V
	for vId := range predecessors {
		if v, err := d.underlying.Vertex(vId); err == nil {
			vertices = append(vertices, v)
		} else {
			zap.S().Errorf(`Couldn't resolve vertex with id="%s". %s`, vId, ourFault)
		}
	}
	return vertices
}

func (d *Directed[V]) GetAllEdges() []Edge[V] {
	fullAdjacency, err := d.underlying.AdjacencyMap()
	if err != nil {
		panic(err)
	}
	var results []Edge[V]
	for _, edges := range fullAdjacency {
		for _, edge := range edges {
			sourceV, err := d.underlying.Vertex(edge.Source)
			if err != nil {
				zap.S().With(zap.Error(err)).Errorf(
					`Ignoring edge %v because I couldn't resolve the source vertex. %s`, edge, ourFault)
				continue
			}
			destV, err := d.underlying.Vertex(edge.Target)
			if err != nil {
				zap.S().With(zap.Error(err)).Errorf(
					`Ignoring edge %v because I couldn't resolve the destination vertex. %s`, edge, ourFault)
				continue
			}
			results = append(results, Edge[V]{Source: sourceV, Destination: destV})
		}
	}
	return results
}

// OutgoingVertices returns the direct successors of from.
func (d *Directed[V]) OutgoingVertices(from V) []V {
	return handleNeighbors(d, d.hash(from), outgoing)
}

// IncomingVertices returns the direct predecessors of to.
func (d *Directed[V]) IncomingVertices(to V) []V {
	return handleNeighbors(d, d.hash(to), incoming)
}

type direction bool

const (
	outgoing direction = true
	incoming direction = false
)

func handleNeighbors[V any](d *Directed[V], id string, dir direction) []V {
	// The graph library only exposes full adjacency/predecessor maps, so each
	// traversal is O(n) in the size of the graph. Definition-time graphs are
	// small enough that this does not matter.
	var full map[string]map[string]graph.Edge[string]
	var err error
	if dir == outgoing {
		full, err = d.underlying.AdjacencyMap()
	} else {
		full, err = d.underlying.PredecessorMap()
	}
	if err != nil {
		panic(err)
	}
	var results []V
	for neighborId := range full[id] {
		if v, err := d.underlying.Vertex(neighborId); err == nil {
			results = append(results, v)
		} else {
			zap.S().With(zap.Error(err)).Errorf(
				`Ignoring neighbor %s of %s because I couldn't resolve it. %s`, neighborId, id, ourFault)
		}
	}
	return results
}
