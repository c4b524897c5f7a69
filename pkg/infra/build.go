package infra

import (
	"sort"

	"github.com/forgeplatform/forge/pkg/config"
	"github.com/forgeplatform/forge/pkg/core"
	"github.com/forgeplatform/forge/pkg/multierr"
	"github.com/forgeplatform/forge/pkg/provider/aws/resources"
	"go.uber.org/zap"
)

// configConstruct ties resources back to the config entry that produced them.
type configConstruct struct {
	kind string
	name string
}

func (c configConstruct) Id() core.ResourceId {
	return core.ResourceId{Provider: "forge", Type: c.kind, Name: c.name}
}

// BuildGraph constructs the resource graph described by cfg: one RestApi per
// gateway entry and one group or user per identity entry. Group identities are
// built before users so memberships can resolve.
func BuildGraph(cfg config.Application) (*core.ResourceGraph, error) {
	dag := core.NewResourceGraph()
	var merr multierr.Error

	for _, name := range sortedKeys(cfg.Gateways) {
		if err := buildGateway(dag, cfg, name); err != nil {
			merr.Append(err)
		}
	}

	identityNames := sortedKeys(cfg.Identities)
	for _, name := range identityNames {
		if icfg := cfg.GetIdentity(name); icfg.Kind == "group" {
			if err := buildGroup(dag, cfg, name, icfg); err != nil {
				merr.Append(err)
			}
		}
	}
	for _, name := range identityNames {
		if icfg := cfg.GetIdentity(name); icfg.Kind == "user" {
			if err := buildUser(dag, cfg, name, icfg); err != nil {
				merr.Append(err)
			}
		}
	}
	return dag, merr.ErrOrNil()
}

func buildGateway(dag *core.ResourceGraph, cfg config.Application, name string) error {
	gw := cfg.GetGateway(name)
	refs := core.BaseConstructSetOf(configConstruct{kind: "gateway", name: name})

	params := resources.RestApiCreateParams{
		AppName:           cfg.AppName,
		Name:              name,
		Refs:              refs,
		Deploy:            gw.Deploy,
		RetainDeployments: gw.RetainDeployments,
		CloudWatchRole:    gw.CloudWatchRole,
		Description:       gw.Description,
	}
	if gw.StageName != "" {
		params.DeployOptions = &resources.StageOptions{StageName: gw.StageName}
	}

	api := &resources.RestApi{}
	if err := api.Create(dag, params); err != nil {
		return err
	}
	err := api.Configure(resources.RestApiConfigureParams{
		BinaryMediaTypes:       gw.BinaryMediaTypes,
		MinimumCompressionSize: gw.MinimumCompressionSize,
		ApiKeySourceType:       gw.ApiKeySourceType,
	})
	if err != nil {
		return err
	}

	for _, route := range gw.Routes {
		if route.Path == "" || route.Path == "/" {
			api.OnMethod(dag, route.Method, nil, refs.Clone())
			continue
		}
		resource := api.AddResource(dag, route.Path, refs.Clone())
		resource.OnMethod(dag, route.Method, nil, refs.Clone())
	}

	for _, diagnostic := range api.Validate() {
		zap.S().Warn(diagnostic)
	}
	return nil
}

func buildGroup(dag *core.ResourceGraph, cfg config.Application, name string, icfg config.Identity) error {
	group := &resources.IamGroup{}
	return group.Create(dag, resources.GroupCreateParams{
		AppName:           cfg.AppName,
		Name:              name,
		Refs:              core.BaseConstructSetOf(configConstruct{kind: "identity", name: name}),
		GroupName:         icfg.PhysicalName,
		Path:              icfg.Path,
		ManagedPolicyArns: icfg.ManagedPolicies,
	})
}

func buildUser(dag *core.ResourceGraph, cfg config.Application, name string, icfg config.Identity) error {
	user := &resources.IamUser{}
	err := user.Create(dag, resources.UserCreateParams{
		AppName:  cfg.AppName,
		Name:     name,
		Refs:     core.BaseConstructSetOf(configConstruct{kind: "identity", name: name}),
		UserName: icfg.PhysicalName,
	})
	if err != nil {
		return err
	}
	if len(icfg.ManagedPolicies) > 0 {
		zap.S().Warnf("identity %s: managed policies on users are not supported, attach them to a group", name)
	}
	for _, groupName := range icfg.Groups {
		member := &resources.IamGroup{}
		if err := member.Create(dag, resources.GroupCreateParams{
			AppName: cfg.AppName,
			Name:    groupName,
			Refs:    core.BaseConstructSetOf(configConstruct{kind: "identity", name: name}),
		}); err != nil {
			return err
		}
		group, _ := core.GetResource[*resources.IamGroup](dag, member.Id())
		group.AddUser(dag, user)
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
