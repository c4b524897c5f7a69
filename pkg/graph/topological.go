package graph

import (
	"sort"

	"github.com/dominikbraun/graph"
	"github.com/pkg/errors"
)

// VertexIdsInTopologicalOrder returns the vertex ids such that every edge
// source sorts before its destination. Ties are broken lexicographically so
// the ordering is stable across runs.
func (d *Directed[V]) VertexIdsInTopologicalOrder() ([]string, error) {
	predecessorMap, err := d.underlying.PredecessorMap()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get predecessor map")
	}

	var queue []string
	forEachStable(predecessorMap, func(vertex string, predecessors map[string]graph.Edge[string]) {
		if len(predecessors) == 0 {
			queue = append(queue, vertex)
		}
	})

	order := make([]string, 0, len(predecessorMap))
	visited := make(map[string]struct{})
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if _, ok := visited[current]; ok {
			continue
		}
		order = append(order, current)
		visited[current] = struct{}{}

		forEachStable(predecessorMap, func(vertex string, predecessors map[string]graph.Edge[string]) {
			delete(predecessors, current)
			if len(predecessors) == 0 {
				queue = append(queue, vertex)
			}
		})
	}

	gOrder, err := d.underlying.Order()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get graph order")
	}
	if len(order) != gOrder {
		return nil, errors.New("topological sort cannot be computed on graph with cycles")
	}
	return order, nil
}

func forEachStable(in map[string]map[string]graph.Edge[string], f func(string, map[string]graph.Edge[string])) {
	keys := make([]string, 0, len(in))
	for k := range in {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		f(k, in[k])
	}
}
