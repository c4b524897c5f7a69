package resources

import (
	"crypto/sha256"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/forgeplatform/forge/pkg/core"
	"github.com/forgeplatform/forge/pkg/sanitization/aws"
	"github.com/iancoleman/strcase"
	"gopkg.in/yaml.v3"
)

const (
	API_GATEWAY_REST_TYPE        = "rest_api"
	API_GATEWAY_RESOURCE_TYPE    = "api_resource"
	API_GATEWAY_METHOD_TYPE      = "api_method"
	API_GATEWAY_INTEGRATION_TYPE = "api_integration"
	API_GATEWAY_DEPLOYMENT_TYPE  = "api_deployment"
	API_GATEWAY_STAGE_TYPE       = "api_stage"
	API_GATEWAY_ACCOUNT_TYPE     = "api_account"

	STAGE_INVOKE_URL_IAC_VALUE = "stage_invoke_url"

	// MAX_MINIMUM_COMPRESSION_SIZE is the provider-imposed upper bound, in bytes.
	MAX_MINIMUM_COMPRESSION_SIZE = 10485760

	DEFAULT_STAGE_NAME = "prod"
)

var restApiSanitizer = aws.RestApiSanitizer
var apiResourceSanitizer = aws.ApiResourceSanitizer
var stageNameSanitizer = aws.StageNameSanitizer

var (
	pathParamPattern      = regexp.MustCompile(":([^/]+)")
	wildcardSuffixPattern = regexp.MustCompile("[*]}")
	doubledSlashPattern   = regexp.MustCompile("//+")
)

type (
	// RestApi models an API gateway. It owns a root resource, optionally an
	// auto-managed immutable deployment plus a stage pointing at it, and
	// optionally a logging role for the gateway service.
	RestApi struct {
		Name                   string
		ConstructsRef          core.BaseConstructSet `yaml:"-"`
		Description            string
		BinaryMediaTypes       []string
		EndpointTypes          []string
		MinimumCompressionSize *int
		ApiKeySourceType       string
		Policy                 *PolicyDocument `yaml:"-"`
		CloneFrom              *RestApi        `yaml:"-"`
		RetainDeployments      bool

		RootResource       *ApiResource    `yaml:"-"`
		DefaultIntegration *ApiIntegration `yaml:"-"`

		// LatestDeployment and DeploymentStage are set when auto-deploy is
		// enabled, or when a stage is assigned externally.
		LatestDeployment *ApiDeployment `yaml:"-"`
		DeploymentStage  *ApiStage      `yaml:"-"`

		methods []*ApiMethod
	}

	ApiResource struct {
		Name           string
		ConstructsRef  core.BaseConstructSet `yaml:"-"`
		RestApi        *RestApi              `yaml:"-"`
		PathPart       string
		ParentResource *ApiResource
	}

	ApiMethod struct {
		Name          string
		ConstructsRef core.BaseConstructSet `yaml:"-"`
		RestApi       *RestApi              `yaml:"-"`
		Resource      *ApiResource
		HttpMethod    string
		Authorization string
	}

	ApiIntegration struct {
		Name                  string
		ConstructsRef         core.BaseConstructSet `yaml:"-"`
		RestApi               *RestApi              `yaml:"-"`
		Resource              *ApiResource
		Method                *ApiMethod
		RequestParameters     map[string]string
		IntegrationHttpMethod string
		Type                  string
		Uri                   core.IaCValue `yaml:"-"`
	}

	// ApiDeployment is an immutable snapshot of an API's configuration. Its
	// triggers hold a fingerprint of the API model so that any model change
	// yields a new downstream instance while identical models are deduplicated.
	ApiDeployment struct {
		Name          string
		ConstructsRef core.BaseConstructSet `yaml:"-"`
		RestApi       *RestApi
		Retain        bool
		Triggers      map[string]string
	}

	// ApiStage is a named, mutable pointer to a specific deployment. The
	// stage name is part of its identity, so renaming a stage forces
	// recreation rather than in-place mutation.
	ApiStage struct {
		Name          string
		ConstructsRef core.BaseConstructSet `yaml:"-"`
		StageName     string
		Description   string
		RestApi       *RestApi
		Deployment    *ApiDeployment
	}

	// ApiAccount carries the account-level gateway settings, i.e. the
	// CloudWatch logging role.
	ApiAccount struct {
		Name           string
		ConstructsRef  core.BaseConstructSet `yaml:"-"`
		CloudWatchRole core.IaCValue         `yaml:"-"`
	}

	// StageOptions names the stage created for an auto-managed deployment.
	StageOptions struct {
		StageName   string
		Description string
	}
)

type RestApiCreateParams struct {
	AppName string
	Name    string
	Refs    core.BaseConstructSet

	// Deploy controls whether an immutable deployment and a stage pointing at
	// it are managed automatically. Defaults to true.
	Deploy *bool
	// DeployOptions configures the auto-managed stage. Supplying it while
	// Deploy is false is a configuration conflict.
	DeployOptions *StageOptions
	// RetainDeployments keeps superseded deployments instead of deleting
	// them. Defaults to true.
	RetainDeployments *bool
	// CloudWatchRole creates an assumable logging role for the gateway
	// service bound to the managed logging policy. Defaults to true.
	CloudWatchRole *bool

	EndpointTypes          []string
	BinaryMediaTypes       []string
	MinimumCompressionSize *int
	ApiKeySourceType       string
	CloneFrom              *RestApi
	DefaultIntegration     *ApiIntegration
	Policy                 *PolicyDocument
	Description            string
}

func (api *RestApi) Create(dag *core.ResourceGraph, params RestApiCreateParams) error {
	name := restApiSanitizer.Apply(fmt.Sprintf("%s-%s", params.AppName, params.Name))
	if params.AppName == "" {
		name = restApiSanitizer.Apply(params.Name)
	}
	api.Name = name
	api.ConstructsRef = params.Refs.Clone()

	existingApi, found := core.GetResource[*RestApi](dag, api.Id())
	if found {
		existingApi.ConstructsRef.AddAll(params.Refs)
		return nil
	}

	deploy := params.Deploy == nil || *params.Deploy
	if !deploy && params.DeployOptions != nil {
		return core.NewConfigurationError(api, "deployOptions cannot be supplied when deploy is disabled")
	}
	if err := validateMinimumCompressionSize(api, params.MinimumCompressionSize); err != nil {
		return err
	}

	api.Description = params.Description
	api.EndpointTypes = params.EndpointTypes
	api.MinimumCompressionSize = params.MinimumCompressionSize
	api.ApiKeySourceType = params.ApiKeySourceType
	api.CloneFrom = params.CloneFrom
	api.Policy = params.Policy
	api.DefaultIntegration = params.DefaultIntegration
	api.RetainDeployments = params.RetainDeployments == nil || *params.RetainDeployments

	dag.AddResource(api)

	api.RootResource = &ApiResource{
		Name:          apiResourceSanitizer.Apply(fmt.Sprintf("%s-/", api.Name)),
		ConstructsRef: params.Refs.Clone(),
		RestApi:       api,
		PathPart:      "/",
	}
	dag.AddDependenciesReflect(api.RootResource)

	if deploy {
		if err := api.configureDeployment(dag, params.DeployOptions); err != nil {
			return err
		}
	}
	if params.CloudWatchRole == nil || *params.CloudWatchRole {
		if err := api.configureCloudWatchRole(dag); err != nil {
			return err
		}
	}
	return nil
}

type RestApiConfigureParams struct {
	BinaryMediaTypes       []string
	MinimumCompressionSize *int
	ApiKeySourceType       string
}

func (api *RestApi) Configure(params RestApiConfigureParams) error {
	api.BinaryMediaTypes = []string{"application/octet-stream", "image/*"}
	if len(params.BinaryMediaTypes) > 0 {
		api.BinaryMediaTypes = params.BinaryMediaTypes
	}
	if params.MinimumCompressionSize != nil {
		if err := validateMinimumCompressionSize(api, params.MinimumCompressionSize); err != nil {
			return err
		}
		api.MinimumCompressionSize = params.MinimumCompressionSize
	}
	api.ApiKeySourceType = "HEADER"
	if params.ApiKeySourceType != "" {
		api.ApiKeySourceType = params.ApiKeySourceType
	}
	return nil
}

func validateMinimumCompressionSize(api *RestApi, size *int) error {
	if size == nil {
		return nil
	}
	if *size < 0 || *size > MAX_MINIMUM_COMPRESSION_SIZE {
		return core.NewValidationError(api, "minimum compression size must be between 0 and %d, got %d", MAX_MINIMUM_COMPRESSION_SIZE, *size)
	}
	return nil
}

// configureDeployment creates the API's one auto-managed deployment and the
// stage pointing at it, then publishes the stage URL as an output.
func (api *RestApi) configureDeployment(dag *core.ResourceGraph, options *StageOptions) error {
	stageName := DEFAULT_STAGE_NAME
	if options != nil && options.StageName != "" {
		stageName = stageNameSanitizer.Apply(options.StageName)
	}

	deployment := NewApiDeployment(api, api.ConstructsRef.Clone())
	deployment.Retain = api.RetainDeployments
	dag.AddDependenciesReflect(deployment)

	stage := NewApiStage(deployment, stageName, api.ConstructsRef.Clone())
	if options != nil {
		stage.Description = options.Description
	}
	dag.AddDependenciesReflect(stage)

	api.LatestDeployment = deployment
	api.DeploymentStage = stage

	dag.AddOutput(core.Output{
		Name:        fmt.Sprintf("%sEndpoint", strcase.ToCamel(api.Name)),
		Description: fmt.Sprintf("Invoke URL of the %s stage", stageName),
		Value:       core.IaCValue{Resource: stage, Property: STAGE_INVOKE_URL_IAC_VALUE},
	})
	return nil
}

// configureCloudWatchRole creates the assumable logging role and the account
// settings resource that references it. The account must be created after the
// gateway, because the account-level logging configuration reaches the API
// indirectly through the account; the edge makes that ordering explicit.
func (api *RestApi) configureCloudWatchRole(dag *core.ResourceGraph) error {
	role := &IamRole{}
	err := role.Create(dag, RoleCreateParams{
		AppName: api.Name,
		Name:    "cloudwatch",
		Refs:    api.ConstructsRef.Clone(),
	})
	if err != nil {
		return err
	}
	role.AssumeRolePolicyDoc = API_GATEWAY_ASSUMER_ROLE_POLICY
	role.AddAwsManagedPolicies([]string{CLOUDWATCH_LOGS_POLICY})

	account := &ApiAccount{
		Name:           fmt.Sprintf("%s-account", api.Name),
		ConstructsRef:  api.ConstructsRef.Clone(),
		CloudWatchRole: core.IaCValue{Resource: role, Property: ARN_IAC_VALUE},
	}
	dag.AddDependenciesReflect(account)
	dag.AddDependency(account, api)
	return nil
}

// AddResource creates and returns a child resource under the implicit root.
func (api *RestApi) AddResource(dag *core.ResourceGraph, pathPart string, refs core.BaseConstructSet) *ApiResource {
	resource := NewApiResource(pathPart, api, refs, convertPath(pathPart, true), api.RootResource)
	dag.AddDependenciesReflect(resource)
	return resource
}

// OnMethod creates and returns a method on the root resource.
func (api *RestApi) OnMethod(dag *core.ResourceGraph, httpMethod string, integration *ApiIntegration, refs core.BaseConstructSet) *ApiMethod {
	return api.RootResource.OnMethod(dag, httpMethod, integration, refs)
}

// attachMethod is the registration hook invoked whenever a method is created
// for this API. It only feeds Validate.
func (api *RestApi) attachMethod(method *ApiMethod) {
	api.methods = append(api.methods, method)
}

// ExecuteApiArn builds the ARN of this API's invocation identity. Region and
// account are left as wildcards for the engine to narrow.
func (api *RestApi) ExecuteApiArn(method string, path string, stage string) (string, error) {
	if method == "" {
		method = "*"
	}
	if path == "" {
		path = "/*"
	}
	if stage == "" {
		stage = "*"
	}
	if !strings.HasPrefix(path, "/") {
		return "", core.NewValidationError(api, `path must begin with "/": "%s"`, path)
	}
	return fmt.Sprintf("arn:aws:execute-api:*:*:%s/%s/%s%s", api.Name, stage, method, path), nil
}

// Url returns the invoke URL of the API's stage.
func (api *RestApi) Url() (core.IaCValue, error) {
	return api.UrlForPath("/")
}

// UrlForPath returns the invoke URL of the API's stage for the given path.
func (api *RestApi) UrlForPath(path string) (core.IaCValue, error) {
	if api.DeploymentStage == nil {
		return core.IaCValue{}, core.NewStateError(api, "api has no deployment stage; enable deploy or assign one")
	}
	if path == "" {
		path = "/"
	}
	if !strings.HasPrefix(path, "/") {
		return core.IaCValue{}, core.NewValidationError(api, `path must begin with "/": "%s"`, path)
	}
	property := STAGE_INVOKE_URL_IAC_VALUE
	if path != "/" {
		property = fmt.Sprintf("%s%s", STAGE_INVOKE_URL_IAC_VALUE, path)
	}
	return core.IaCValue{Resource: api.DeploymentStage, Property: property}, nil
}

// Validate returns advisory diagnostics; the caller decides whether they are
// fatal. An API with no methods at all is almost certainly a mistake.
func (api *RestApi) Validate() []string {
	var diagnostics []string
	if len(api.methods) == 0 {
		diagnostics = append(diagnostics, fmt.Sprintf("rest api %s does not define any methods", api.Name))
	}
	return diagnostics
}

// BaseConstructsRef returns the constructs the cloud resource is correlated to
func (api *RestApi) BaseConstructsRef() core.BaseConstructSet {
	return api.ConstructsRef
}

// Id returns the id of the cloud resource
func (api *RestApi) Id() core.ResourceId {
	return core.ResourceId{
		Provider: AWS_PROVIDER,
		Type:     API_GATEWAY_REST_TYPE,
		Name:     api.Name,
	}
}

// convertPath normalizes a route path for the gateway:
//   - ":param" segments become "{param}"
//   - wildcards become greedy ("{param+}") iff wildcardsToGreedy is true
//   - doubled slashes collapse
func convertPath(path string, wildcardsToGreedy bool) string {
	path = pathParamPattern.ReplaceAllString(path, "{$1}")
	greedyMarker := ""
	if wildcardsToGreedy {
		greedyMarker = "+"
	}
	path = wildcardSuffixPattern.ReplaceAllString(path, greedyMarker+"}")
	path = doubledSlashPattern.ReplaceAllString(path, "/")
	return path
}

func NewApiResource(currSegment string, api *RestApi, refs core.BaseConstructSet, pathPart string, parentResource *ApiResource) *ApiResource {
	return &ApiResource{
		Name:           apiResourceSanitizer.Apply(fmt.Sprintf("%s-%s", api.Name, currSegment)),
		ConstructsRef:  refs,
		RestApi:        api,
		PathPart:       pathPart,
		ParentResource: parentResource,
	}
}

// OnMethod creates and returns a method on this resource, falling back to the
// API's default integration when none is given.
func (res *ApiResource) OnMethod(dag *core.ResourceGraph, httpMethod string, integration *ApiIntegration, refs core.BaseConstructSet) *ApiMethod {
	api := res.RestApi
	method := NewApiMethod(res, api, refs, strings.ToUpper(httpMethod))
	dag.AddDependenciesReflect(method)

	if integration == nil && api.DefaultIntegration != nil {
		// Each fallback use gets its own integration resource; sharing the
		// default would re-point one graph node across methods.
		clone := *api.DefaultIntegration
		clone.Name = ""
		integration = &clone
	}
	if integration != nil {
		integration.RestApi = api
		integration.Resource = res
		integration.Method = method
		if integration.Name == "" {
			integration.Name = method.Name
		}
		dag.AddDependenciesReflect(integration)
	}
	api.attachMethod(method)
	return method
}

// BaseConstructsRef returns the constructs the cloud resource is correlated to
func (res *ApiResource) BaseConstructsRef() core.BaseConstructSet {
	return res.ConstructsRef
}

// Id returns the id of the cloud resource
func (res *ApiResource) Id() core.ResourceId {
	return core.ResourceId{
		Provider: AWS_PROVIDER,
		Type:     API_GATEWAY_RESOURCE_TYPE,
		Name:     res.Name,
	}
}

func NewApiMethod(resource *ApiResource, api *RestApi, refs core.BaseConstructSet, httpMethod string) *ApiMethod {
	name := fmt.Sprintf("%s-%s", api.Name, httpMethod)
	if resource != nil {
		name = fmt.Sprintf("%s-%s", resource.Name, httpMethod)
	}
	return &ApiMethod{
		Name:          name,
		ConstructsRef: refs,
		RestApi:       api,
		Resource:      resource,
		HttpMethod:    httpMethod,
		Authorization: "None",
	}
}

type ApiMethodConfigureParams struct {
	Authorization string
}

func (method *ApiMethod) Configure(params ApiMethodConfigureParams) error {
	method.Authorization = "None"
	if params.Authorization != "" {
		method.Authorization = params.Authorization
	}
	return nil
}

// BaseConstructsRef returns the constructs the cloud resource is correlated to
func (method *ApiMethod) BaseConstructsRef() core.BaseConstructSet {
	return method.ConstructsRef
}

// Id returns the id of the cloud resource
func (method *ApiMethod) Id() core.ResourceId {
	return core.ResourceId{
		Provider: AWS_PROVIDER,
		Type:     API_GATEWAY_METHOD_TYPE,
		Name:     method.Name,
	}
}

// BaseConstructsRef returns the constructs the cloud resource is correlated to
func (integration *ApiIntegration) BaseConstructsRef() core.BaseConstructSet {
	return integration.ConstructsRef
}

// Id returns the id of the cloud resource
func (integration *ApiIntegration) Id() core.ResourceId {
	return core.ResourceId{
		Provider: AWS_PROVIDER,
		Type:     API_GATEWAY_INTEGRATION_TYPE,
		Name:     integration.Name,
	}
}

func NewApiDeployment(api *RestApi, refs core.BaseConstructSet) *ApiDeployment {
	return &ApiDeployment{
		Name:          api.Name,
		ConstructsRef: refs,
		RestApi:       api,
		Triggers:      map[string]string{},
	}
}

// RefreshTriggers recomputes the deployment's fingerprint from the full API
// model in the graph: the api itself and every resource, method, and
// integration belonging to it. Identical models produce identical triggers,
// so redeploys happen exactly when the model changes.
func (deployment *ApiDeployment) RefreshTriggers(dag *core.ResourceGraph) error {
	model := map[string]core.Resource{}
	for _, res := range dag.ListResources() {
		switch r := res.(type) {
		case *RestApi:
			if r == deployment.RestApi {
				model[r.Id().String()] = r
			}
		case *ApiResource:
			if r.RestApi == deployment.RestApi {
				model[r.Id().String()] = r
			}
		case *ApiMethod:
			if r.RestApi == deployment.RestApi {
				model[r.Id().String()] = r
			}
		case *ApiIntegration:
			if r.RestApi == deployment.RestApi {
				model[r.Id().String()] = r
			}
		}
	}

	ids := make([]string, 0, len(model))
	for id := range model {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	hash := sha256.New()
	for _, id := range ids {
		props, err := yaml.Marshal(model[id])
		if err != nil {
			return core.NewStateError(deployment, "could not fingerprint %s: %v", id, err)
		}
		_, _ = fmt.Fprintf(hash, "%s\n", id)
		_, _ = hash.Write(props)
	}

	deployment.Triggers = map[string]string{
		"fingerprint": fmt.Sprintf("%x", hash.Sum(nil))[:8],
	}
	return nil
}

// BaseConstructsRef returns the constructs the cloud resource is correlated to
func (deployment *ApiDeployment) BaseConstructsRef() core.BaseConstructSet {
	return deployment.ConstructsRef
}

// Id returns the id of the cloud resource
func (deployment *ApiDeployment) Id() core.ResourceId {
	return core.ResourceId{
		Provider: AWS_PROVIDER,
		Type:     API_GATEWAY_DEPLOYMENT_TYPE,
		Name:     deployment.Name,
	}
}

func NewApiStage(deployment *ApiDeployment, stageName string, refs core.BaseConstructSet) *ApiStage {
	return &ApiStage{
		Name:          fmt.Sprintf("%s-%s", deployment.Name, stageName),
		ConstructsRef: refs,
		Deployment:    deployment,
		RestApi:       deployment.RestApi,
		StageName:     stageName,
	}
}

// BaseConstructsRef returns the constructs the cloud resource is correlated to
func (stage *ApiStage) BaseConstructsRef() core.BaseConstructSet {
	return stage.ConstructsRef
}

// Id returns the id of the cloud resource
func (stage *ApiStage) Id() core.ResourceId {
	return core.ResourceId{
		Provider: AWS_PROVIDER,
		Type:     API_GATEWAY_STAGE_TYPE,
		Name:     stage.Name,
	}
}

// BaseConstructsRef returns the constructs the cloud resource is correlated to
func (account *ApiAccount) BaseConstructsRef() core.BaseConstructSet {
	return account.ConstructsRef
}

// Id returns the id of the cloud resource
func (account *ApiAccount) Id() core.ResourceId {
	return core.ResourceId{
		Provider: AWS_PROVIDER,
		Type:     API_GATEWAY_ACCOUNT_TYPE,
		Name:     account.Name,
	}
}
