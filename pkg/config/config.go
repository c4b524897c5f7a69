package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

type (
	Application struct {
		AppName  string `json:"app" yaml:"app" toml:"app"`
		Provider string `json:"provider" yaml:"provider" toml:"provider"`

		// Format is what format the file was originally in so that when we
		// write the resolved config back out, it keeps the same format.
		Format string `json:"-" yaml:"-" toml:"-"`

		Path   string `json:"path" yaml:"path" toml:"path"`
		OutDir string `json:"out_dir" yaml:"out_dir" toml:"out_dir"`

		Defaults   Defaults             `json:"defaults" yaml:"defaults" toml:"defaults"`
		Gateways   map[string]*Gateway  `json:"gateways,omitempty" yaml:"gateways,omitempty" toml:"gateways,omitempty"`
		Identities map[string]*Identity `json:"identities,omitempty" yaml:"identities,omitempty" toml:"identities,omitempty"`
	}

	Gateway struct {
		StageName              string   `json:"stage_name,omitempty" yaml:"stage_name,omitempty" toml:"stage_name,omitempty"`
		Deploy                 *bool    `json:"deploy,omitempty" yaml:"deploy,omitempty" toml:"deploy,omitempty"`
		RetainDeployments      *bool    `json:"retain_deployments,omitempty" yaml:"retain_deployments,omitempty" toml:"retain_deployments,omitempty"`
		CloudWatchRole         *bool    `json:"cloudwatch_role,omitempty" yaml:"cloudwatch_role,omitempty" toml:"cloudwatch_role,omitempty"`
		Description            string   `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty"`
		BinaryMediaTypes       []string `json:"binary_media_types,omitempty" yaml:"binary_media_types,omitempty" toml:"binary_media_types,omitempty"`
		MinimumCompressionSize *int     `json:"minimum_compression_size,omitempty" yaml:"minimum_compression_size,omitempty" toml:"minimum_compression_size,omitempty"`
		ApiKeySourceType       string   `json:"api_key_source_type,omitempty" yaml:"api_key_source_type,omitempty" toml:"api_key_source_type,omitempty"`
		Routes                 []Route  `json:"routes,omitempty" yaml:"routes,omitempty" toml:"routes,omitempty"`
	}

	Route struct {
		Path   string `json:"path" yaml:"path" toml:"path"`
		Method string `json:"method" yaml:"method" toml:"method"`
	}

	Identity struct {
		// Kind is either "group" or "user"; empty defaults to "group".
		Kind            string   `json:"kind,omitempty" yaml:"kind,omitempty" toml:"kind,omitempty"`
		PhysicalName    string   `json:"physical_name,omitempty" yaml:"physical_name,omitempty" toml:"physical_name,omitempty"`
		Path            string   `json:"path,omitempty" yaml:"path,omitempty" toml:"path,omitempty"`
		ManagedPolicies []string `json:"managed_policies,omitempty" yaml:"managed_policies,omitempty" toml:"managed_policies,omitempty"`
		// Groups lists group identities a user belongs to. Only meaningful for users.
		Groups []string `json:"groups,omitempty" yaml:"groups,omitempty" toml:"groups,omitempty"`
	}

	Defaults struct {
		Gateway  Gateway  `json:"gateway" yaml:"gateway" toml:"gateway"`
		Identity Identity `json:"identity" yaml:"identity" toml:"identity"`
	}
)

func ReadConfig(fpath string) (Application, error) {
	var appCfg Application

	f, err := os.Open(fpath)
	if err != nil {
		return appCfg, err
	}
	defer f.Close() // nolint:errcheck

	switch filepath.Ext(fpath) {
	case ".json":
		err = json.NewDecoder(f).Decode(&appCfg)
		appCfg.Format = "json"

	case ".yaml", ".yml":
		err = yaml.NewDecoder(f).Decode(&appCfg)
		appCfg.Format = "yaml"

	case ".toml":
		err = toml.NewDecoder(f).Decode(&appCfg)
		appCfg.Format = "toml"

	default:
		err = fmt.Errorf("unsupported config file extension %q (use json, yaml, or toml)", filepath.Ext(fpath))
	}
	return appCfg, err
}

// WriteTo writes the config in its original format, defaulting to yaml.
func (a Application) WriteTo(w io.Writer) error {
	switch a.Format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(a)
	case "toml":
		return toml.NewEncoder(w).Encode(a)
	default:
		return yaml.NewEncoder(w).Encode(a)
	}
}

func (cfg *Gateway) Merge(other Gateway) {
	if other.StageName != "" {
		cfg.StageName = other.StageName
	}
	if other.Deploy != nil {
		cfg.Deploy = other.Deploy
	}
	if other.RetainDeployments != nil {
		cfg.RetainDeployments = other.RetainDeployments
	}
	if other.CloudWatchRole != nil {
		cfg.CloudWatchRole = other.CloudWatchRole
	}
	if other.Description != "" {
		cfg.Description = other.Description
	}
	if len(other.BinaryMediaTypes) > 0 {
		cfg.BinaryMediaTypes = other.BinaryMediaTypes
	}
	if other.MinimumCompressionSize != nil {
		cfg.MinimumCompressionSize = other.MinimumCompressionSize
	}
	if other.ApiKeySourceType != "" {
		cfg.ApiKeySourceType = other.ApiKeySourceType
	}
	if len(other.Routes) > 0 {
		cfg.Routes = other.Routes
	}
}

func (cfg *Identity) Merge(other Identity) {
	if other.Kind != "" {
		cfg.Kind = other.Kind
	}
	if other.PhysicalName != "" {
		cfg.PhysicalName = other.PhysicalName
	}
	if other.Path != "" {
		cfg.Path = other.Path
	}
	if len(other.ManagedPolicies) > 0 {
		cfg.ManagedPolicies = other.ManagedPolicies
	}
	if len(other.Groups) > 0 {
		cfg.Groups = other.Groups
	}
}

// GetGateway returns the `Gateway` config for the gateway specified by `id`
// merged with the defaults.
func (a Application) GetGateway(id string) Gateway {
	cfg := Gateway{}
	cfg.Merge(a.Defaults.Gateway)
	if gcfg, ok := a.Gateways[id]; ok {
		cfg.Merge(*gcfg)
	}
	return cfg
}

// GetIdentity returns the `Identity` config for the identity specified by `id`
// merged with the defaults.
func (a Application) GetIdentity(id string) Identity {
	cfg := Identity{}
	cfg.Merge(a.Defaults.Identity)
	if icfg, ok := a.Identities[id]; ok {
		cfg.Merge(*icfg)
	}
	if cfg.Kind == "" {
		cfg.Kind = "group"
	}
	return cfg
}
