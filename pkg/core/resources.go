package core

import "sort"

type (
	// BaseConstruct is any definition-time node that can appear as the
	// provenance of a resource.
	BaseConstruct interface {
		Id() ResourceId
	}

	// Resource is a node in the resource graph that will be serialized into
	// the infrastructure template.
	Resource interface {
		BaseConstruct
		// BaseConstructsRef returns the set of constructs which caused this resource to exist
		BaseConstructsRef() BaseConstructSet
	}

	// ExpandableResource is a resource whose creation wires itself (and any
	// required collaborators) into the graph.
	ExpandableResource[P any] interface {
		Resource
		Create(dag *ResourceGraph, params P) error
	}

	// ConfigurableResource is a resource with independently-defaulted settings.
	ConfigurableResource[P any] interface {
		Resource
		Configure(params P) error
	}

	BaseConstructSet map[ResourceId]BaseConstruct

	// IaCValue is a late-bound reference to a property of a resource, resolved
	// by the downstream provisioning engine rather than at definition time.
	IaCValue struct {
		Resource Resource
		Property string
	}
)

func BaseConstructSetOf(constructs ...BaseConstruct) BaseConstructSet {
	s := make(BaseConstructSet, len(constructs))
	for _, c := range constructs {
		s.Add(c)
	}
	return s
}

func (s *BaseConstructSet) Add(c BaseConstruct) {
	if c == nil {
		return
	}
	if *s == nil {
		*s = make(BaseConstructSet)
	}
	(*s)[c.Id()] = c
}

func (s *BaseConstructSet) AddAll(other BaseConstructSet) {
	for _, c := range other {
		s.Add(c)
	}
}

func (s BaseConstructSet) Has(id ResourceId) bool {
	_, ok := s[id]
	return ok
}

func (s BaseConstructSet) Clone() BaseConstructSet {
	clone := make(BaseConstructSet, len(s))
	clone.AddAll(s)
	return clone
}

func (s BaseConstructSet) CloneWith(other BaseConstructSet) BaseConstructSet {
	clone := s.Clone()
	clone.AddAll(other)
	return clone
}

// Ids returns the member ids in a stable order.
func (s BaseConstructSet) Ids() []ResourceId {
	ids := make([]ResourceId, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}
