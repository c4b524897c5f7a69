package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type testResource struct {
	Name          string
	Type          string
	ConstructsRef BaseConstructSet
	Upstream      *testResource
	Values        []IaCValue
}

func (r *testResource) Id() ResourceId {
	t := r.Type
	if t == "" {
		t = "test"
	}
	return ResourceId{Provider: "test", Type: t, Name: r.Name}
}

func (r *testResource) BaseConstructsRef() BaseConstructSet { return r.ConstructsRef }

func TestAddResourceIsIdempotent(t *testing.T) {
	assert := assert.New(t)
	rg := NewResourceGraph()

	first := &testResource{Name: "a"}
	rg.AddResource(first)
	rg.AddResource(&testResource{Name: "a"})

	assert.Len(rg.ListResources(), 1)
	assert.Same(first, rg.GetResource(first.Id()), "first registration wins")
}

func TestAddDependency(t *testing.T) {
	assert := assert.New(t)
	rg := NewResourceGraph()

	a := &testResource{Name: "a"}
	b := &testResource{Name: "b"}
	rg.AddDependency(a, b)

	assert.Len(rg.ListResources(), 2)
	_, found := rg.GetDependency(a.Id(), b.Id())
	assert.True(found)
	_, found = rg.GetDependency(b.Id(), a.Id())
	assert.False(found)

	assert.Equal([]Resource{b}, rg.GetDownstreamResources(a))
	assert.Equal([]Resource{a}, rg.GetUpstreamResources(b))
}

func TestAddDependenciesReflect(t *testing.T) {
	assert := assert.New(t)
	rg := NewResourceGraph()

	up := &testResource{Name: "up"}
	ref := &testResource{Name: "ref"}
	source := &testResource{
		Name:     "source",
		Upstream: up,
		Values:   []IaCValue{{Resource: ref, Property: "arn"}},
	}
	rg.AddDependenciesReflect(source)

	_, found := rg.GetDependency(source.Id(), up.Id())
	assert.True(found, "pointer field becomes an edge")
	_, found = rg.GetDependency(source.Id(), ref.Id())
	assert.True(found, "IaCValue element becomes an edge")
}

func TestGetResourceTyped(t *testing.T) {
	assert := assert.New(t)
	rg := NewResourceGraph()

	a := &testResource{Name: "a"}
	rg.AddResource(a)

	got, ok := GetResource[*testResource](rg, a.Id())
	assert.True(ok)
	assert.Same(a, got)

	_, ok = GetResource[*testResource](rg, ResourceId{Provider: "test", Type: "test", Name: "missing"})
	assert.False(ok)
}

func TestOutputs(t *testing.T) {
	assert := assert.New(t)
	rg := NewResourceGraph()

	a := &testResource{Name: "a"}
	rg.AddOutput(Output{Name: "Endpoint", Value: IaCValue{Resource: a, Property: "url"}})
	rg.AddOutput(Output{Name: "Arn", Value: IaCValue{Resource: a, Property: "arn"}})

	out, ok := rg.GetOutput("Endpoint")
	assert.True(ok)
	assert.Equal("url", out.Value.Property)

	names := []string{}
	for _, o := range rg.ListOutputs() {
		names = append(names, o.Name)
	}
	assert.Equal([]string{"Arn", "Endpoint"}, names, "outputs are sorted by name")
}

func TestBaseConstructSet(t *testing.T) {
	assert := assert.New(t)

	a := &testResource{Name: "a"}
	b := &testResource{Name: "b"}

	s := BaseConstructSetOf(a)
	assert.True(s.Has(a.Id()))
	assert.False(s.Has(b.Id()))

	clone := s.CloneWith(BaseConstructSetOf(b))
	assert.True(clone.Has(a.Id()))
	assert.True(clone.Has(b.Id()))
	assert.False(s.Has(b.Id()), "CloneWith must not mutate the receiver")

	assert.Equal([]ResourceId{a.Id(), b.Id()}, clone.Ids())
}
