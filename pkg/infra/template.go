package infra

import (
	"fmt"
	"reflect"
	"regexp"
	"sort"

	"github.com/forgeplatform/forge/pkg/config"
	"github.com/forgeplatform/forge/pkg/core"
	"github.com/forgeplatform/forge/pkg/io"
	"github.com/forgeplatform/forge/pkg/provider/aws/resources"
	"github.com/iancoleman/strcase"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Plugin renders a resource graph into the declarative template consumed by
// the downstream provisioning engine. Resources are listed dependencies-first
// so the engine can apply the template top to bottom.
type Plugin struct {
	Config *config.Application
}

func (p Plugin) Translate(dag *core.ResourceGraph) ([]io.File, error) {
	for _, res := range dag.ListResources() {
		if deployment, ok := res.(*resources.ApiDeployment); ok {
			if err := deployment.RefreshTriggers(dag); err != nil {
				return nil, err
			}
		}
	}

	b := newTemplateBuilder(dag)
	doc, err := b.Render(p.Config)
	if err != nil {
		return nil, err
	}
	buf, err := yaml.Marshal(doc)
	if err != nil {
		return nil, errors.Wrap(err, "could not render template")
	}

	name := "forge"
	if p.Config != nil && p.Config.AppName != "" {
		name = p.Config.AppName
	}
	return []io.File{&io.RawFile{FPath: fmt.Sprintf("%s.yaml", name), Content: buf}}, nil
}

type templateBuilder struct {
	dag        *core.ResourceGraph
	logicalIds map[core.ResourceId]string
	taken      map[string]bool
}

var nonAlnumPattern = regexp.MustCompile(`[^a-zA-Z0-9]+`)

func newTemplateBuilder(dag *core.ResourceGraph) *templateBuilder {
	return &templateBuilder{
		dag:        dag,
		logicalIds: make(map[core.ResourceId]string),
		taken:      make(map[string]bool),
	}
}

// LogicalId returns the stable template-local name for a resource. Deployments
// fold their content fingerprint into the name, so a model change shows up as
// a brand new template entry rather than a mutation of the old one.
func (b *templateBuilder) LogicalId(res core.Resource) string {
	id := res.Id()
	if logicalId, ok := b.logicalIds[id]; ok {
		return logicalId
	}

	raw := fmt.Sprintf("%s %s", id.Type, id.Name)
	if deployment, ok := res.(*resources.ApiDeployment); ok {
		if fingerprint := deployment.Triggers["fingerprint"]; fingerprint != "" {
			raw = fmt.Sprintf("%s %s", raw, fingerprint)
		}
	}
	logicalId := strcase.ToCamel(nonAlnumPattern.ReplaceAllString(raw, " "))

	candidate := logicalId
	for n := 2; b.taken[candidate]; n++ {
		candidate = fmt.Sprintf("%s%d", logicalId, n)
	}
	b.taken[candidate] = true
	b.logicalIds[id] = candidate
	return candidate
}

func (b *templateBuilder) Render(cfg *config.Application) (*yaml.Node, error) {
	ids, err := b.dag.VertexIdsInTopologicalOrder()
	if err != nil {
		return nil, errors.Wrap(err, "could not order resources")
	}
	// Topological order puts dependents first; the engine wants dependencies first.
	for i, j := 0, len(ids)-1; i < j; i, j = i+1, j-1 {
		ids[i], ids[j] = ids[j], ids[i]
	}

	doc := &yaml.Node{Kind: yaml.MappingNode}
	if cfg != nil {
		appendScalarPair(doc, "app", cfg.AppName)
		provider := cfg.Provider
		if provider == "" {
			provider = resources.AWS_PROVIDER
		}
		appendScalarPair(doc, "provider", provider)
	}

	resourcesNode := &yaml.Node{Kind: yaml.MappingNode}
	for _, idStr := range ids {
		var id core.ResourceId
		if err := id.UnmarshalText([]byte(idStr)); err != nil {
			return nil, err
		}
		res := b.dag.GetResource(id)
		entry, err := b.resourceNode(res)
		if err != nil {
			return nil, err
		}
		appendPair(resourcesNode, b.LogicalId(res), entry)
	}
	appendPair(doc, "resources", resourcesNode)

	if outputs := b.dag.ListOutputs(); len(outputs) > 0 {
		outputsNode := &yaml.Node{Kind: yaml.MappingNode}
		for _, out := range outputs {
			entry := &yaml.Node{Kind: yaml.MappingNode}
			if out.Description != "" {
				appendScalarPair(entry, "description", out.Description)
			}
			appendScalarPair(entry, "value", b.iacRef(out.Value))
			appendPair(outputsNode, out.Name, entry)
		}
		appendPair(doc, "outputs", outputsNode)
	}
	return doc, nil
}

func (b *templateBuilder) resourceNode(res core.Resource) (*yaml.Node, error) {
	entry := &yaml.Node{Kind: yaml.MappingNode}
	appendScalarPair(entry, "type", res.Id().QualifiedTypeName())

	properties, err := b.propertiesNode(res)
	if err != nil {
		return nil, err
	}
	if len(properties.Content) > 0 {
		appendPair(entry, "properties", properties)
	}

	var dependsOn []string
	for _, dep := range b.dag.GetDownstreamResources(res) {
		dependsOn = append(dependsOn, b.LogicalId(dep))
	}
	if len(dependsOn) > 0 {
		sort.Strings(dependsOn)
		node := &yaml.Node{}
		if err := node.Encode(dependsOn); err != nil {
			return nil, err
		}
		appendPair(entry, "dependsOn", node)
	}
	return entry, nil
}

// iacRef renders a late-bound value as `${LogicalId#property}` for the engine
// to resolve at apply time.
func (b *templateBuilder) iacRef(value core.IaCValue) string {
	if value.Resource == nil {
		return value.Property
	}
	if value.Property == "" {
		return fmt.Sprintf("${%s}", b.LogicalId(value.Resource))
	}
	return fmt.Sprintf("${%s#%s}", b.LogicalId(value.Resource), value.Property)
}

// propertiesNode walks the resource's exported fields and emits them in
// declaration order. Resource and IaCValue fields become references; Name and
// provenance bookkeeping are template metadata, not properties, and are skipped.
func (b *templateBuilder) propertiesNode(res core.Resource) (*yaml.Node, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	value := reflect.ValueOf(res)
	if value.Kind() == reflect.Pointer {
		value = value.Elem()
	}
	structType := value.Type()
	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		if !field.IsExported() || field.Name == "Name" || field.Name == "ConstructsRef" {
			continue
		}
		fieldNode, ok, err := b.valueNode(value.Field(i))
		if err != nil {
			return nil, errors.Wrapf(err, "could not render %s.%s", res.Id(), field.Name)
		}
		if ok {
			appendPair(node, strcase.ToLowerCamel(field.Name), fieldNode)
		}
	}
	return node, nil
}

func (b *templateBuilder) valueNode(value reflect.Value) (*yaml.Node, bool, error) {
	if !value.IsValid() {
		return nil, false, nil
	}
	if value.Kind() == reflect.Pointer || value.Kind() == reflect.Interface {
		if value.IsNil() {
			return nil, false, nil
		}
	}
	if !value.CanInterface() {
		return nil, false, nil
	}

	switch typed := value.Interface().(type) {
	case core.Resource:
		return scalarNode(fmt.Sprintf("${%s}", b.LogicalId(typed))), true, nil
	case core.IaCValue:
		if typed.Resource == nil && typed.Property == "" {
			return nil, false, nil
		}
		return scalarNode(b.iacRef(typed)), true, nil
	case *core.IaCValue:
		return b.valueNode(value.Elem())
	case core.BaseConstructSet:
		return nil, false, nil
	}

	switch value.Kind() {
	case reflect.Pointer:
		return b.valueNode(value.Elem())

	case reflect.Struct:
		node := &yaml.Node{Kind: yaml.MappingNode}
		structType := value.Type()
		for i := 0; i < structType.NumField(); i++ {
			field := structType.Field(i)
			if !field.IsExported() {
				continue
			}
			fieldNode, ok, err := b.valueNode(value.Field(i))
			if err != nil {
				return nil, false, err
			}
			if ok {
				appendPair(node, strcase.ToLowerCamel(field.Name), fieldNode)
			}
		}
		if len(node.Content) == 0 {
			return nil, false, nil
		}
		return node, true, nil

	case reflect.Slice, reflect.Array:
		if value.Len() == 0 {
			return nil, false, nil
		}
		node := &yaml.Node{Kind: yaml.SequenceNode}
		for i := 0; i < value.Len(); i++ {
			elemNode, ok, err := b.valueNode(value.Index(i))
			if err != nil {
				return nil, false, err
			}
			if ok {
				node.Content = append(node.Content, elemNode)
			}
		}
		return node, true, nil

	case reflect.Map:
		if value.Len() == 0 {
			return nil, false, nil
		}
		keys := make([]string, 0, value.Len())
		elems := make(map[string]reflect.Value, value.Len())
		for iter := value.MapRange(); iter.Next(); {
			key := fmt.Sprintf("%v", iter.Key().Interface())
			keys = append(keys, key)
			elems[key] = iter.Value()
		}
		sort.Strings(keys)
		node := &yaml.Node{Kind: yaml.MappingNode}
		for _, key := range keys {
			elemNode, ok, err := b.valueNode(elems[key])
			if err != nil {
				return nil, false, err
			}
			if ok {
				appendPair(node, key, elemNode)
			}
		}
		return node, true, nil

	case reflect.String:
		if value.String() == "" {
			return nil, false, nil
		}
		return scalarNode(value.String()), true, nil

	default:
		node := &yaml.Node{}
		if err := node.Encode(value.Interface()); err != nil {
			return nil, false, err
		}
		return node, true, nil
	}
}

func scalarNode(v string) *yaml.Node {
	node := &yaml.Node{}
	node.SetString(v)
	return node
}

func appendPair(mapping *yaml.Node, key string, value *yaml.Node) {
	mapping.Content = append(mapping.Content, scalarNode(key), value)
}

func appendScalarPair(mapping *yaml.Node, key string, value string) {
	appendPair(mapping, key, scalarNode(value))
}
