package core

import (
	"reflect"
	"sort"

	"github.com/forgeplatform/forge/pkg/graph"
	"go.uber.org/zap"
)

type (
	// ResourceGraph holds every resource defined so far plus the ordering
	// edges the downstream engine needs to apply changes safely. An edge
	// source -> dest means dest must exist before source can be created.
	ResourceGraph struct {
		underlying *graph.Directed[Resource]
		outputs    map[string]Output
	}

	// Output is a named value published by a construct for whatever
	// serializes the template, e.g. a deployed endpoint URL.
	Output struct {
		Name        string
		Description string
		Value       IaCValue
	}
)

func NewResourceGraph() *ResourceGraph {
	return &ResourceGraph{
		underlying: graph.NewDirected(func(r Resource) string { return r.Id().String() }),
		outputs:    make(map[string]Output),
	}
}

func (rg *ResourceGraph) AddResource(resource Resource) {
	if rg.GetResource(resource.Id()) == nil {
		rg.underlying.AddVertex(resource)
		zap.S().Debugf("adding resource: %s", resource.Id())
	}
}

// AddDependency records that source depends on dest. Both resources are added
// to the graph if not yet present.
func (rg *ResourceGraph) AddDependency(source Resource, dest Resource) {
	rg.AddResource(source)
	rg.AddResource(dest)
	rg.underlying.AddEdge(source.Id().String(), dest.Id().String())
	zap.S().Debugf("adding %s -> %s", source.Id(), dest.Id())
}

func (rg *ResourceGraph) GetResource(id ResourceId) Resource {
	return rg.underlying.GetVertex(id.String())
}

// GetResource returns the resource with the given id as a T, if it exists and has that type.
func GetResource[T Resource](g *ResourceGraph, id ResourceId) (resource T, ok bool) {
	found := g.GetResource(id)
	if found == nil {
		return
	}
	resource, ok = found.(T)
	return
}

func (rg *ResourceGraph) GetDependency(source ResourceId, dest ResourceId) (graph.Edge[Resource], bool) {
	return rg.underlying.GetEdge(source.String(), dest.String())
}

func (rg *ResourceGraph) ListResources() []Resource {
	return rg.underlying.GetAllVertices()
}

func (rg *ResourceGraph) ListDependencies() []graph.Edge[Resource] {
	return rg.underlying.GetAllEdges()
}

func (rg *ResourceGraph) GetDownstreamResources(source Resource) []Resource {
	return rg.underlying.OutgoingVertices(source)
}

func (rg *ResourceGraph) GetUpstreamResources(source Resource) []Resource {
	return rg.underlying.IncomingVertices(source)
}

func (rg *ResourceGraph) VertexIdsInTopologicalOrder() ([]string, error) {
	return rg.underlying.VertexIdsInTopologicalOrder()
}

// AddOutput publishes a named output value. Re-publishing a name overwrites it.
func (rg *ResourceGraph) AddOutput(output Output) {
	rg.outputs[output.Name] = output
	zap.S().Debugf("adding output: %s", output.Name)
}

func (rg *ResourceGraph) GetOutput(name string) (Output, bool) {
	o, ok := rg.outputs[name]
	return o, ok
}

// ListOutputs returns the published outputs sorted by name.
func (rg *ResourceGraph) ListOutputs() []Output {
	outputs := make([]Output, 0, len(rg.outputs))
	for _, o := range rg.outputs {
		outputs = append(outputs, o)
	}
	sort.Slice(outputs, func(i, j int) bool { return outputs[i].Name < outputs[j].Name })
	return outputs
}

// AddDependenciesReflect uses reflection to inspect the fields of the resource
// given and add a dependency edge for each direct dependency.
//
// Supported field types (`*T` is a struct that implements Resource)
// - `SingleDependency   Resource`
// - `SpecificDependency *T`
// - `DependencyArray  []Resource`
// - `SpecificDepArray []*T`
// - `DependencyMap  map[string]Resource`
// - `SpecificDepMap map[string]*T`
func (rg *ResourceGraph) AddDependenciesReflect(source Resource) {
	rg.AddResource(source)

	sourceValue := reflect.ValueOf(source)
	sourceType := sourceValue.Type()
	if sourceType.Kind() == reflect.Pointer {
		sourceValue = sourceValue.Elem()
		sourceType = sourceType.Elem()
	}
	add := func(targetValue reflect.Value) {
		if targetValue.Kind() == reflect.Pointer && targetValue.IsNil() {
			return
		}
		if !targetValue.CanInterface() {
			return
		}
		switch target := targetValue.Interface().(type) {
		case Resource:
			rg.AddDependency(source, target)
		case *IaCValue:
			if target.Resource != nil {
				rg.AddDependency(source, target.Resource)
			}
		case IaCValue:
			if target.Resource != nil {
				rg.AddDependency(source, target.Resource)
			}
		}
	}
	for i := 0; i < sourceType.NumField(); i++ {
		fieldValue := sourceValue.Field(i)
		switch fieldValue.Kind() {
		case reflect.Slice, reflect.Array:
			for elemIdx := 0; elemIdx < fieldValue.Len(); elemIdx++ {
				add(fieldValue.Index(elemIdx))
			}

		case reflect.Map:
			for iter := fieldValue.MapRange(); iter.Next(); {
				add(iter.Value())
			}

		default:
			add(fieldValue)
		}
	}
}
