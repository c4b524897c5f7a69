package core

import (
	"fmt"
	"strings"
)

// ResourceId identifies a resource within the definition graph. Its string
// form is "provider:type:name" and is what downstream engines key on.
type ResourceId struct {
	Provider string `yaml:"provider" toml:"provider"`
	Type     string `yaml:"type" toml:"type"`
	Name     string `yaml:"name" toml:"name"`
}

func (id ResourceId) IsZero() bool {
	return id == ResourceId{}
}

func (id ResourceId) String() string {
	return id.Provider + ":" + id.Type + ":" + id.Name
}

func (id ResourceId) QualifiedTypeName() string {
	return id.Provider + ":" + id.Type
}

func (id ResourceId) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *ResourceId) UnmarshalText(data []byte) error {
	parts := strings.SplitN(string(data), ":", 3)
	if len(parts) != 3 {
		return fmt.Errorf("invalid number of parts (%d) in resource id '%s'", len(parts), string(data))
	}
	id.Provider = parts[0]
	id.Type = parts[1]
	id.Name = parts[2]
	return nil
}
