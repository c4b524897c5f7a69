package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, name string, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func Test_ReadConfigYaml(t *testing.T) {
	assert := assert.New(t)

	path := writeTempConfig(t, "forge.yaml", `
app: my-app
provider: aws
out_dir: compiled
gateways:
  api:
    stage_name: dev
    routes:
      - path: /users
        method: GET
identities:
  admins:
    managed_policies:
      - arn:aws:iam::aws:policy/ReadOnlyAccess
`)
	cfg, err := ReadConfig(path)
	if !assert.NoError(err) {
		return
	}
	assert.Equal("my-app", cfg.AppName)
	assert.Equal("aws", cfg.Provider)
	assert.Equal("yaml", cfg.Format)
	assert.Equal("compiled", cfg.OutDir)
	if assert.Contains(cfg.Gateways, "api") {
		assert.Equal("dev", cfg.Gateways["api"].StageName)
		assert.Equal([]Route{{Path: "/users", Method: "GET"}}, cfg.Gateways["api"].Routes)
	}
	if assert.Contains(cfg.Identities, "admins") {
		assert.Equal([]string{"arn:aws:iam::aws:policy/ReadOnlyAccess"}, cfg.Identities["admins"].ManagedPolicies)
	}
}

func Test_ReadConfigToml(t *testing.T) {
	assert := assert.New(t)

	path := writeTempConfig(t, "forge.toml", `
app = "my-app"
provider = "aws"

[gateways.api]
stage_name = "dev"
`)
	cfg, err := ReadConfig(path)
	if !assert.NoError(err) {
		return
	}
	assert.Equal("my-app", cfg.AppName)
	assert.Equal("toml", cfg.Format)
	if assert.Contains(cfg.Gateways, "api") {
		assert.Equal("dev", cfg.Gateways["api"].StageName)
	}
}

func Test_ReadConfigJson(t *testing.T) {
	assert := assert.New(t)

	path := writeTempConfig(t, "forge.json", `{"app": "my-app", "provider": "aws"}`)
	cfg, err := ReadConfig(path)
	if !assert.NoError(err) {
		return
	}
	assert.Equal("my-app", cfg.AppName)
	assert.Equal("json", cfg.Format)
}

func Test_ReadConfigUnsupportedExtension(t *testing.T) {
	assert := assert.New(t)

	path := writeTempConfig(t, "forge.ini", "app = my-app")
	_, err := ReadConfig(path)
	assert.ErrorContains(err, "unsupported config file extension")
}

func Test_GetGatewayMergesDefaults(t *testing.T) {
	assert := assert.New(t)
	deployFalse := false

	cfg := Application{
		Defaults: Defaults{
			Gateway: Gateway{StageName: "prod", ApiKeySourceType: "HEADER"},
		},
		Gateways: map[string]*Gateway{
			"api":   {StageName: "dev", Deploy: &deployFalse},
			"other": {},
		},
	}

	api := cfg.GetGateway("api")
	assert.Equal("dev", api.StageName, "per-gateway value wins")
	assert.Equal("HEADER", api.ApiKeySourceType, "default fills the gap")
	if assert.NotNil(api.Deploy) {
		assert.False(*api.Deploy)
	}

	other := cfg.GetGateway("other")
	assert.Equal("prod", other.StageName)
	assert.Nil(other.Deploy)

	missing := cfg.GetGateway("missing")
	assert.Equal("prod", missing.StageName, "unknown ids get pure defaults")
}

func Test_GetIdentityDefaultsKind(t *testing.T) {
	assert := assert.New(t)

	cfg := Application{
		Identities: map[string]*Identity{
			"admins": {Path: "/teams/"},
			"alice":  {Kind: "user", Groups: []string{"admins"}},
		},
	}

	admins := cfg.GetIdentity("admins")
	assert.Equal("group", admins.Kind)
	assert.Equal("/teams/", admins.Path)

	alice := cfg.GetIdentity("alice")
	assert.Equal("user", alice.Kind)
	assert.Equal([]string{"admins"}, alice.Groups)
}

func Test_WriteToRoundTrips(t *testing.T) {
	assert := assert.New(t)

	cfg := Application{
		AppName:  "my-app",
		Provider: "aws",
		Format:   "yaml",
		Gateways: map[string]*Gateway{"api": {StageName: "dev"}},
	}
	buf := new(bytes.Buffer)
	if !assert.NoError(cfg.WriteTo(buf)) {
		return
	}
	assert.Contains(buf.String(), "app: my-app")
	assert.Contains(buf.String(), "stage_name: dev")
}
