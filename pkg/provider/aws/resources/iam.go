package resources

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/forgeplatform/forge/pkg/core"
	"github.com/forgeplatform/forge/pkg/sanitization/aws"
)

const (
	IAM_ROLE_TYPE          = "iam_role"
	IAM_POLICY_TYPE        = "iam_policy"
	IAM_GROUP_TYPE         = "iam_group"
	IAM_USER_TYPE          = "iam_user"
	IAM_STATEMENT_ENTRY    = "iam_statement_entry"
	VERSION                = "2012-10-17"
	GROUP_NAME_IAC_VALUE   = "group_name"
	USER_NAME_IAC_VALUE    = "user_name"
	CLOUDWATCH_LOGS_POLICY = "arn:aws:iam::aws:policy/service-role/AmazonAPIGatewayPushToCloudWatchLogs"
)

var roleSanitizer = aws.IamRoleSanitizer
var policySanitizer = aws.IamPolicySanitizer
var groupSanitizer = aws.IamGroupSanitizer
var userSanitizer = aws.IamUserSanitizer

// ServiceAssumeRolePolicy returns the trust document that lets the given
// service principal assume a role.
func ServiceAssumeRolePolicy(service string) *PolicyDocument {
	return &PolicyDocument{
		Version: VERSION,
		Statement: []StatementEntry{
			{
				Action: []string{"sts:AssumeRole"},
				Principal: &Principal{
					Service: service,
				},
				Effect: "Allow",
			},
		},
	}
}

var API_GATEWAY_ASSUMER_ROLE_POLICY = ServiceAssumeRolePolicy("apigateway.amazonaws.com")

type (
	IamRole struct {
		Name                string
		ConstructsRef       core.BaseConstructSet `yaml:"-"`
		AssumeRolePolicyDoc *PolicyDocument
		ManagedPolicies     []core.IaCValue `yaml:"-"`
		AwsManagedPolicies  []string
		InlinePolicies      []*IamInlinePolicy `yaml:"-"`
	}

	// IamGroup models an identity group: managed-policy attachments by ARN,
	// externally attached policy objects by reference, and at most one
	// lazily-created default inline policy.
	IamGroup struct {
		Name          string
		ConstructsRef core.BaseConstructSet `yaml:"-"`
		// GroupName is the explicit physical name; when empty the engine
		// generates one from the logical name.
		GroupName         string
		Path              string
		ManagedPolicyArns []string
		AttachedPolicies  []*IamPolicy `yaml:"-"`
		DefaultPolicy     *IamPolicy   `yaml:"-"`
	}

	// IamUser is authoritative for its own group memberships.
	IamUser struct {
		Name          string
		ConstructsRef core.BaseConstructSet `yaml:"-"`
		UserName      string
		Groups        []*IamGroup `yaml:"-"`
	}

	IamPolicy struct {
		Name          string
		ConstructsRef core.BaseConstructSet `yaml:"-"`
		Policy        *PolicyDocument       `yaml:"-"`
		// AttachedTo records every identity this policy is attached to,
		// supporting many-to-many diagnostics.
		AttachedTo core.BaseConstructSet `yaml:"-"`
	}

	IamInlinePolicy struct {
		Name          string
		ConstructsRef core.BaseConstructSet `yaml:"-"`
		Policy        *PolicyDocument       `yaml:"-"`
	}

	PolicyDocument struct {
		Version   string
		Statement []StatementEntry
	}

	StatementEntry struct {
		Effect    string
		Action    []string
		Resource  []core.IaCValue `yaml:"-"`
		Principal *Principal
		Condition *Condition
	}

	Principal struct {
		Service   string
		Federated core.IaCValue `yaml:"-"`
		AWS       core.IaCValue `yaml:"-"`
	}

	Condition struct {
		StringEquals map[string]string
		Null         map[string]string
	}
)

type RoleCreateParams struct {
	AppName string
	Name    string
	Refs    core.BaseConstructSet
}

func (role *IamRole) Create(dag *core.ResourceGraph, params RoleCreateParams) error {
	role.Name = roleSanitizer.Apply(fmt.Sprintf("%s-%s", params.AppName, params.Name))
	role.ConstructsRef = params.Refs.Clone()

	if dag.GetResource(role.Id()) != nil {
		return fmt.Errorf("iam role with name %s already exists", role.Name)
	}

	dag.AddResource(role)
	return nil
}

func (role *IamRole) AddAwsManagedPolicies(policies []string) {
	currPolicies := map[string]bool{}
	for _, pol := range role.AwsManagedPolicies {
		currPolicies[pol] = true
	}
	for _, pol := range policies {
		if !currPolicies[pol] {
			role.AwsManagedPolicies = append(role.AwsManagedPolicies, pol)
			currPolicies[pol] = true
		}
	}
}

// BaseConstructsRef returns the constructs the cloud resource is correlated to
func (role *IamRole) BaseConstructsRef() core.BaseConstructSet {
	return role.ConstructsRef
}

// Id returns the id of the cloud resource
func (role *IamRole) Id() core.ResourceId {
	return core.ResourceId{
		Provider: AWS_PROVIDER,
		Type:     IAM_ROLE_TYPE,
		Name:     role.Name,
	}
}

type GroupCreateParams struct {
	AppName string
	Name    string
	Refs    core.BaseConstructSet
	// GroupName sets an explicit physical name on the underlying resource.
	GroupName string
	Path      string
	// ManagedPolicyArns seeds the managed-policy list. An empty list collapses
	// to unset, per the underlying schema's convention.
	ManagedPolicyArns []string
}

func (group *IamGroup) Create(dag *core.ResourceGraph, params GroupCreateParams) error {
	group.Name = groupSanitizer.Apply(fmt.Sprintf("%s-%s", params.AppName, params.Name))
	group.ConstructsRef = params.Refs.Clone()

	existingGroup, found := core.GetResource[*IamGroup](dag, group.Id())
	if found {
		existingGroup.ConstructsRef.AddAll(params.Refs)
		return nil
	}

	group.GroupName = params.GroupName
	group.Path = params.Path
	if len(params.ManagedPolicyArns) > 0 {
		group.ManagedPolicyArns = append([]string{}, params.ManagedPolicyArns...)
	}
	dag.AddResource(group)
	return nil
}

// BaseConstructsRef returns the constructs the cloud resource is correlated to
func (group *IamGroup) BaseConstructsRef() core.BaseConstructSet {
	return group.ConstructsRef
}

// Id returns the id of the cloud resource
func (group *IamGroup) Id() core.ResourceId {
	return core.ResourceId{
		Provider: AWS_PROVIDER,
		Type:     IAM_GROUP_TYPE,
		Name:     group.Name,
	}
}

// GroupArn returns a late-bound reference to the group's ARN.
func (group *IamGroup) GroupArn() core.IaCValue {
	return core.IaCValue{Resource: group, Property: ARN_IAC_VALUE}
}

// PhysicalGroupName returns a late-bound reference to the group's physical name.
func (group *IamGroup) PhysicalGroupName() core.IaCValue {
	return core.IaCValue{Resource: group, Property: GROUP_NAME_IAC_VALUE}
}

// AttachManagedPolicy appends arn to the managed-policy list. Order is
// preserved and duplicates are kept; the underlying schema has no identity
// concept for list members.
func (group *IamGroup) AttachManagedPolicy(arn string) {
	group.ManagedPolicyArns = append(group.ManagedPolicyArns, arn)
}

// AttachInlinePolicy attaches policy by reference and tells the policy that
// this group is now one of its attachment targets.
func (group *IamGroup) AttachInlinePolicy(dag *core.ResourceGraph, policy *IamPolicy) {
	group.AttachedPolicies = append(group.AttachedPolicies, policy)
	policy.AttachTo(group)
	dag.AddDependency(group, policy)
}

// AddUser delegates membership to the user, which is authoritative for its
// own group list.
func (group *IamGroup) AddUser(dag *core.ResourceGraph, user *IamUser) {
	user.AddToGroup(dag, group)
}

// AddToPolicy appends statement to the group's default inline policy,
// creating the policy on first use. Subsequent calls reuse the same policy.
func (group *IamGroup) AddToPolicy(dag *core.ResourceGraph, statement StatementEntry) *IamPolicy {
	if group.DefaultPolicy == nil {
		group.DefaultPolicy = &IamPolicy{
			Name:          policySanitizer.Apply(fmt.Sprintf("%s-default", group.Name)),
			ConstructsRef: group.ConstructsRef.Clone(),
			Policy:        &PolicyDocument{Version: VERSION},
		}
		group.AttachInlinePolicy(dag, group.DefaultPolicy)
	}
	group.DefaultPolicy.AddStatement(statement)
	return group.DefaultPolicy
}

type UserCreateParams struct {
	AppName  string
	Name     string
	Refs     core.BaseConstructSet
	UserName string
}

func (user *IamUser) Create(dag *core.ResourceGraph, params UserCreateParams) error {
	user.Name = userSanitizer.Apply(fmt.Sprintf("%s-%s", params.AppName, params.Name))
	user.ConstructsRef = params.Refs.Clone()

	existingUser, found := core.GetResource[*IamUser](dag, user.Id())
	if found {
		existingUser.ConstructsRef.AddAll(params.Refs)
		return nil
	}
	user.UserName = params.UserName
	dag.AddResource(user)
	return nil
}

// BaseConstructsRef returns the constructs the cloud resource is correlated to
func (user *IamUser) BaseConstructsRef() core.BaseConstructSet {
	return user.ConstructsRef
}

// Id returns the id of the cloud resource
func (user *IamUser) Id() core.ResourceId {
	return core.ResourceId{
		Provider: AWS_PROVIDER,
		Type:     IAM_USER_TYPE,
		Name:     user.Name,
	}
}

// AddToGroup records the membership on the user and wires the ordering edge.
func (user *IamUser) AddToGroup(dag *core.ResourceGraph, group *IamGroup) {
	for _, g := range user.Groups {
		if g == group {
			return
		}
	}
	user.Groups = append(user.Groups, group)
	dag.AddDependency(user, group)
}

func NewIamPolicy(appName string, policyName string, ref core.BaseConstruct, policy *PolicyDocument) *IamPolicy {
	return &IamPolicy{
		Name:          policySanitizer.Apply(fmt.Sprintf("%s-%s", appName, policyName)),
		ConstructsRef: core.BaseConstructSetOf(ref),
		Policy:        policy,
	}
}

type IamPolicyCreateParams struct {
	AppName string
	Name    string
	Refs    core.BaseConstructSet
}

func (policy *IamPolicy) Create(dag *core.ResourceGraph, params IamPolicyCreateParams) error {
	policy.Name = policySanitizer.Apply(fmt.Sprintf("%s-%s", params.AppName, params.Name))
	policy.ConstructsRef = params.Refs.Clone()
	existingPolicy, found := core.GetResource[*IamPolicy](dag, policy.Id())
	if found {
		existingPolicy.ConstructsRef.AddAll(params.Refs)
		return nil
	}
	dag.AddResource(policy)
	return nil
}

// AttachTo records target as an attachment target of this policy.
func (policy *IamPolicy) AttachTo(target core.BaseConstruct) {
	policy.AttachedTo.Add(target)
}

// AddStatement appends a statement verbatim, preserving order and duplicates.
func (policy *IamPolicy) AddStatement(statement StatementEntry) {
	if policy.Policy == nil {
		policy.Policy = &PolicyDocument{Version: VERSION}
	}
	policy.Policy.Statement = append(policy.Policy.Statement, statement)
}

// AddPolicyDocument merges doc's statements into the policy, de-duplicating
// statements that are identical.
func (policy *IamPolicy) AddPolicyDocument(doc *PolicyDocument) {
	if policy.Policy == nil {
		policy.Policy = doc
		return
	}
	policy.Policy.Statement = append(policy.Policy.Statement, doc.Statement...)
	policy.Policy.Deduplicate()
}

// BaseConstructsRef returns the constructs the cloud resource is correlated to
func (policy *IamPolicy) BaseConstructsRef() core.BaseConstructSet {
	return policy.ConstructsRef
}

// Id returns the id of the cloud resource
func (policy *IamPolicy) Id() core.ResourceId {
	return core.ResourceId{
		Provider: AWS_PROVIDER,
		Type:     IAM_POLICY_TYPE,
		Name:     policy.Name,
	}
}

func NewIamInlinePolicy(policyName string, refs core.BaseConstructSet, policy *PolicyDocument) *IamInlinePolicy {
	return &IamInlinePolicy{
		Name:          policySanitizer.Apply(policyName),
		ConstructsRef: refs,
		Policy:        policy,
	}
}

func CreateAllowPolicyDocument(actions []string, resources []core.IaCValue) *PolicyDocument {
	return &PolicyDocument{
		Version: VERSION,
		Statement: []StatementEntry{
			{
				Effect:   "Allow",
				Action:   actions,
				Resource: resources,
			},
		},
	}
}

func (s StatementEntry) Id() core.ResourceId {
	resourcesHash := sha256.New()
	for _, r := range s.Resource {
		if r.Resource != nil {
			_, _ = fmt.Fprintf(resourcesHash, "%s.%s", r.Resource.Id(), r.Property)
		} else {
			_, _ = fmt.Fprint(resourcesHash, r.Property)
		}
	}

	return core.ResourceId{
		Provider: AWS_PROVIDER,
		Type:     IAM_STATEMENT_ENTRY,
		Name:     fmt.Sprintf("%x/%s/%s", resourcesHash.Sum(nil), s.Effect, strings.Join(s.Action, ",")),
	}
}

func (d *PolicyDocument) Deduplicate() {
	keys := make(map[core.ResourceId]struct{})
	var unique []StatementEntry
	for _, stmt := range d.Statement {
		id := stmt.Id()
		if _, ok := keys[id]; !ok {
			keys[id] = struct{}{}
			unique = append(unique, stmt)
		}
	}
	d.Statement = unique
}
