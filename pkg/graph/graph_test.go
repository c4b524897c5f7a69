package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type DummyVertex string

func (v DummyVertex) Id() string { return string(v) }

func TestEmptyGraph(t *testing.T) {
	assert := assert.New(t)
	d := NewDirected(DummyVertex.Id)
	assert.Empty(d.GetAllVertices())
	assert.Empty(d.GetAllEdges())
}

func TestSimpleGraph(t *testing.T) {
	// A ┬─➤ B
	//   └─➤ C
	assert := assert.New(t)
	a, b, c := DummyVertex("a"), DummyVertex("b"), DummyVertex("c")
	d := NewDirected(DummyVertex.Id)
	d.AddVertex(a)
	d.AddVertex(b)
	d.AddVertex(c)
	d.AddEdge(a.Id(), b.Id())
	d.AddEdge(a.Id(), c.Id())

	assert.ElementsMatch([]DummyVertex{a, b, c}, d.GetAllVertices())
	assert.ElementsMatch(
		[]Edge[DummyVertex]{
			{Source: a, Destination: b},
			{Source: a, Destination: c},
		},
		d.GetAllEdges())
	assert.ElementsMatch([]DummyVertex{b, c}, d.OutgoingVertices(a))
	assert.ElementsMatch([]DummyVertex{a}, d.IncomingVertices(b))
	assert.Empty(d.IncomingVertices(a))
}

func TestDuplicateVerticesAndEdges(t *testing.T) {
	assert := assert.New(t)
	a, b := DummyVertex("a"), DummyVertex("b")
	d := NewDirected(DummyVertex.Id)
	d.AddVerticesAndEdge(a, b)
	d.AddVerticesAndEdge(a, b)

	assert.Len(d.GetAllVertices(), 2)
	assert.Len(d.GetAllEdges(), 1)
}

func TestGetEdge(t *testing.T) {
	assert := assert.New(t)
	a, b := DummyVertex("a"), DummyVertex("b")
	d := NewDirected(DummyVertex.Id)
	d.AddVerticesAndEdge(a, b)

	edge, found := d.GetEdge("a", "b")
	assert.True(found)
	assert.Equal(a, edge.Source)
	assert.Equal(b, edge.Destination)

	_, found = d.GetEdge("b", "a")
	assert.False(found)
}

func TestTopologicalOrder(t *testing.T) {
	// A ─➤ B ─➤ D
	//  └─➤ C ──┘
	assert := assert.New(t)
	d := NewDirected(DummyVertex.Id)
	a, b, c, dd := DummyVertex("a"), DummyVertex("b"), DummyVertex("c"), DummyVertex("d")
	d.AddVerticesAndEdge(a, b)
	d.AddVerticesAndEdge(a, c)
	d.AddVerticesAndEdge(b, dd)
	d.AddVerticesAndEdge(c, dd)

	order, err := d.VertexIdsInTopologicalOrder()
	if !assert.NoError(err) {
		return
	}
	assert.Equal([]string{"a", "b", "c", "d"}, order)
}

func TestTopologicalOrderCycle(t *testing.T) {
	assert := assert.New(t)
	d := NewDirected(DummyVertex.Id)
	a, b := DummyVertex("a"), DummyVertex("b")
	d.AddVerticesAndEdge(a, b)
	d.AddVerticesAndEdge(b, a)

	_, err := d.VertexIdsInTopologicalOrder()
	assert.Error(err)
}
