package infra

import (
	"regexp"
	"strings"
	"testing"

	"github.com/forgeplatform/forge/pkg/config"
	"github.com/forgeplatform/forge/pkg/core"
	"github.com/forgeplatform/forge/pkg/provider/aws/resources"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTestGraph(t *testing.T) *core.ResourceGraph {
	t.Helper()
	dag := core.NewResourceGraph()

	api := &resources.RestApi{}
	err := api.Create(dag, resources.RestApiCreateParams{
		AppName:        "my-app",
		Name:           "api",
		Refs:           core.BaseConstructSetOf(configConstruct{kind: "gateway", name: "api"}),
		CloudWatchRole: new(bool),
	})
	require.NoError(t, err)
	require.NoError(t, api.Configure(resources.RestApiConfigureParams{}))
	api.OnMethod(dag, "get", nil, core.BaseConstructSetOf(configConstruct{kind: "gateway", name: "api"}))
	return dag
}

func translate(t *testing.T, dag *core.ResourceGraph) string {
	t.Helper()
	plugin := Plugin{Config: &config.Application{AppName: "my-app", Provider: "aws"}}
	files, err := plugin.Translate(dag)
	require.NoError(t, err)
	require.Len(t, files, 1)

	buf := new(strings.Builder)
	_, err = files[0].WriteTo(buf)
	require.NoError(t, err)
	return buf.String()
}

func Test_TranslateRendersTemplate(t *testing.T) {
	assert := assert.New(t)
	dag := buildTestGraph(t)

	plugin := Plugin{Config: &config.Application{AppName: "my-app", Provider: "aws"}}
	files, err := plugin.Translate(dag)
	if !assert.NoError(err) {
		return
	}
	if !assert.Len(files, 1) {
		return
	}
	assert.Equal("my-app.yaml", files[0].Path())

	out := translate(t, dag)
	assert.Contains(out, "app: my-app")
	assert.Contains(out, "provider: aws")
	assert.Contains(out, "RestApiMyAppApi:")
	assert.Contains(out, "type: aws:rest_api")
	assert.Contains(out, "ApiStageMyAppApiProd:")
	assert.Contains(out, "stageName: prod")
	assert.Regexp(regexp.MustCompile(`ApiDeploymentMyAppApi[A-F0-9a-f]{8}:`), out,
		"the deployment folds its fingerprint into the logical id")
	assert.Contains(out, "MyAppApiEndpoint:")
	assert.Contains(out, "value: ${ApiStageMyAppApiProd#stage_invoke_url}")
}

func Test_TranslateOrdersDependenciesFirst(t *testing.T) {
	assert := assert.New(t)
	out := translate(t, buildTestGraph(t))

	api := strings.Index(out, "  RestApiMyAppApi:")
	stage := strings.Index(out, "  ApiStageMyAppApiProd:")
	deployment := strings.Index(out, "  ApiDeploymentMyAppApi")
	if !assert.True(api >= 0 && stage >= 0 && deployment >= 0) {
		return
	}
	assert.Less(api, deployment, "the api is created before its deployment")
	assert.Less(deployment, stage, "the deployment is created before the stage pointing at it")
}

func Test_TranslateEmitsDependsOn(t *testing.T) {
	assert := assert.New(t)
	out := translate(t, buildTestGraph(t))

	stageStart := strings.Index(out, "ApiStageMyAppApiProd:")
	if !assert.True(stageStart >= 0) {
		return
	}
	// The block ends at the next key of equal or shallower indentation.
	stageBlock := out[stageStart:]
	if end := regexp.MustCompile(`\n {0,4}\S`).FindStringIndex(stageBlock); end != nil {
		stageBlock = stageBlock[:end[0]]
	}
	assert.Contains(stageBlock, "dependsOn:")
	assert.Contains(stageBlock, "- RestApiMyAppApi")
	assert.Regexp(regexp.MustCompile(`- ApiDeploymentMyAppApi[A-F0-9a-f]{8}`), stageBlock)
}

func Test_TranslateIsDeterministic(t *testing.T) {
	assert := assert.New(t)
	first := translate(t, buildTestGraph(t))
	second := translate(t, buildTestGraph(t))
	assert.Equal(first, second)
}

func Test_TranslateChangedModelChangesDeploymentId(t *testing.T) {
	assert := assert.New(t)
	first := translate(t, buildTestGraph(t))

	changed := buildTestGraph(t)
	api, _ := core.GetResource[*resources.RestApi](changed, core.ResourceId{
		Provider: "aws", Type: "rest_api", Name: "my-app-api",
	})
	api.AddResource(changed, "users", core.BaseConstructSetOf(configConstruct{kind: "gateway", name: "api"}))
	second := translate(t, changed)

	deploymentId := regexp.MustCompile(`ApiDeploymentMyAppApi[A-F0-9a-f]{8}`)
	assert.NotEqual(deploymentId.FindString(first), deploymentId.FindString(second))
}

func Test_LogicalIdCollisionsGetSuffixed(t *testing.T) {
	assert := assert.New(t)
	dag := core.NewResourceGraph()
	b := newTemplateBuilder(dag)

	first := b.LogicalId(&resources.IamGroup{Name: "my-grp"})
	second := b.LogicalId(&resources.IamGroup{Name: "my.grp"})
	again := b.LogicalId(&resources.IamGroup{Name: "my-grp"})

	assert.Equal("IamGroupMyGrp", first)
	assert.Equal(first, again, "ids are stable per resource")
	assert.Equal("IamGroupMyGrp2", second)
}
