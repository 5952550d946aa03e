package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/acm"
	acmtypes "github.com/aws/aws-sdk-go-v2/service/acm/types"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront"
	cftypes "github.com/aws/aws-sdk-go-v2/service/cloudfront/types"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/codebuild"
	cbtypes "github.com/aws/aws-sdk-go-v2/service/codebuild/types"
	"github.com/aws/aws-sdk-go-v2/service/codecommit"
	cctypes "github.com/aws/aws-sdk-go-v2/service/codecommit/types"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/route53"
	r53types "github.com/aws/aws-sdk-go-v2/service/route53/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/aws/smithy-go"
)

const (
	fakeAccount   = "123456789012"
	fakeZoneID    = "Z0DEMO"
	fakeCertARN   = "arn:aws:acm:us-east-1:123456789012:certificate/demo"
	fakeDistID    = "E2DEMO"
	fakeCDNDomain = "d111111abcdef8.cloudfront.net"
)

func apiError(code, message string) error {
	return &smithy.GenericAPIError{Code: code, Message: message}
}

type fakeDistribution struct {
	config *cftypes.DistributionConfig
	status string
	etag   int
	polls  int
}

// fakePlatform is an in-memory account shared by every fake client. Calls
// are recorded in order as "service:Operation detail".
type fakePlatform struct {
	mu    sync.Mutex
	calls []string

	buckets       map[string]*s3.CreateBucketInput
	bucketObjects map[string][]string
	bucketPolicy  map[string]string
	notifications map[string]*s3types.NotificationConfiguration

	repos    map[string]bool
	triggers map[string][]cctypes.RepositoryTrigger
	projects map[string]*codebuild.CreateProjectInput

	policies     map[string]string
	roles        map[string]string
	attachments  map[string]string
	functions    map[string]*lambda.CreateFunctionInput
	permissions  map[string][]*lambda.AddPermissionInput
	rules        map[string]*eventbridge.PutRuleInput
	targets      map[string][]string
	logGroups    map[string]bool
	records      map[string]r53types.ResourceRecordSet
	zones        []r53types.HostedZone
	certificate  *acm.RequestCertificateInput
	certDescribe int

	distribution *fakeDistribution

	// knobs
	recordAfter       int
	pendingAfterDNS   int
	certFinalStatus   acmtypes.CertificateStatus
	deployedAfter     int
	lambdaPropagation int
	buildPropagation  int
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		buckets:       map[string]*s3.CreateBucketInput{},
		bucketObjects: map[string][]string{},
		bucketPolicy:  map[string]string{},
		notifications: map[string]*s3types.NotificationConfiguration{},
		repos:         map[string]bool{},
		triggers:      map[string][]cctypes.RepositoryTrigger{},
		projects:      map[string]*codebuild.CreateProjectInput{},
		policies:      map[string]string{},
		roles:         map[string]string{},
		attachments:   map[string]string{},
		functions:     map[string]*lambda.CreateFunctionInput{},
		permissions:   map[string][]*lambda.AddPermissionInput{},
		rules:         map[string]*eventbridge.PutRuleInput{},
		targets:       map[string][]string{},
		logGroups:     map[string]bool{},
		records:       map[string]r53types.ResourceRecordSet{},
		zones: []r53types.HostedZone{
			{Id: aws.String("/hostedzone/Z0OTHER"), Name: aws.String("example.org.")},
			{Id: aws.String("/hostedzone/" + fakeZoneID), Name: aws.String("example.com.")},
		},
		recordAfter:     1,
		pendingAfterDNS: 1,
		certFinalStatus: acmtypes.CertificateStatusIssued,
		deployedAfter:   2,
	}
}

func (f *fakePlatform) record(service, op string, detail ...string) {
	entry := service + ":" + op
	if len(detail) > 0 {
		entry += " " + strings.Join(detail, " ")
	}
	f.calls = append(f.calls, entry)
}

// Calls returns a copy of the call log
func (f *fakePlatform) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// Count returns the number of calls whose entry starts with prefix
func (f *fakePlatform) Count(prefix string) int {
	n := 0
	for _, c := range f.Calls() {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

// Index returns the position of the first call starting with prefix
func (f *fakePlatform) Index(prefix string) int {
	for i, c := range f.Calls() {
		if strings.HasPrefix(c, prefix) {
			return i
		}
	}
	return -1
}

func (f *fakePlatform) clients() Clients {
	return Clients{
		S3:          &fakeS3{f},
		CodeCommit:  &fakeCodeCommit{f},
		CodeBuild:   &fakeCodeBuild{f},
		IAM:         &fakeIAM{f},
		Lambda:      &fakeLambda{f},
		ACM:         &fakeACM{f},
		Route53:     &fakeRoute53{f},
		CloudFront:  &fakeCloudFront{f},
		EventBridge: &fakeEventBridge{f},
		Logs:        &fakeLogs{f},
		STS:         &fakeSTS{f},
	}
}

func recordKey(name string, t r53types.RRType) string {
	return fqdn(name) + "|" + string(t)
}

// s3

type fakeS3 struct{ *fakePlatform }

func (f *fakeS3) HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("s3", "HeadBucket", aws.ToString(params.Bucket))
	if _, ok := f.buckets[aws.ToString(params.Bucket)]; !ok {
		return nil, apiError("NotFound", "Not Found")
	}
	return &s3.HeadBucketOutput{}, nil
}

func (f *fakeS3) CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("s3", "CreateBucket", aws.ToString(params.Bucket))
	f.buckets[aws.ToString(params.Bucket)] = params
	return &s3.CreateBucketOutput{}, nil
}

func (f *fakeS3) DeletePublicAccessBlock(ctx context.Context, params *s3.DeletePublicAccessBlockInput, optFns ...func(*s3.Options)) (*s3.DeletePublicAccessBlockOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("s3", "DeletePublicAccessBlock")
	return &s3.DeletePublicAccessBlockOutput{}, nil
}

func (f *fakeS3) PutBucketAcl(ctx context.Context, params *s3.PutBucketAclInput, optFns ...func(*s3.Options)) (*s3.PutBucketAclOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("s3", "PutBucketAcl", string(params.ACL))
	return &s3.PutBucketAclOutput{}, nil
}

func (f *fakeS3) PutBucketTagging(ctx context.Context, params *s3.PutBucketTaggingInput, optFns ...func(*s3.Options)) (*s3.PutBucketTaggingOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("s3", "PutBucketTagging")
	return &s3.PutBucketTaggingOutput{}, nil
}

func (f *fakeS3) PutBucketWebsite(ctx context.Context, params *s3.PutBucketWebsiteInput, optFns ...func(*s3.Options)) (*s3.PutBucketWebsiteOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("s3", "PutBucketWebsite", aws.ToString(params.WebsiteConfiguration.IndexDocument.Suffix))
	return &s3.PutBucketWebsiteOutput{}, nil
}

func (f *fakeS3) PutBucketPolicy(ctx context.Context, params *s3.PutBucketPolicyInput, optFns ...func(*s3.Options)) (*s3.PutBucketPolicyOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("s3", "PutBucketPolicy")
	f.bucketPolicy[aws.ToString(params.Bucket)] = aws.ToString(params.Policy)
	return &s3.PutBucketPolicyOutput{}, nil
}

func (f *fakeS3) PutBucketNotificationConfiguration(ctx context.Context, params *s3.PutBucketNotificationConfigurationInput, optFns ...func(*s3.Options)) (*s3.PutBucketNotificationConfigurationOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("s3", "PutBucketNotificationConfiguration")
	f.notifications[aws.ToString(params.Bucket)] = params.NotificationConfiguration
	return &s3.PutBucketNotificationConfigurationOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("s3", "ListObjectsV2")
	bucket := aws.ToString(params.Bucket)
	if _, ok := f.buckets[bucket]; !ok {
		return nil, apiError("NoSuchBucket", "The specified bucket does not exist")
	}
	out := &s3.ListObjectsV2Output{}
	for _, key := range f.bucketObjects[bucket] {
		out.Contents = append(out.Contents, s3types.Object{Key: aws.String(key)})
	}
	return out, nil
}

func (f *fakeS3) DeleteObjects(ctx context.Context, params *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("s3", "DeleteObjects", fmt.Sprint(len(params.Delete.Objects)))
	delete(f.bucketObjects, aws.ToString(params.Bucket))
	return &s3.DeleteObjectsOutput{}, nil
}

func (f *fakeS3) DeleteBucket(ctx context.Context, params *s3.DeleteBucketInput, optFns ...func(*s3.Options)) (*s3.DeleteBucketOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("s3", "DeleteBucket")
	bucket := aws.ToString(params.Bucket)
	if _, ok := f.buckets[bucket]; !ok {
		return nil, apiError("NoSuchBucket", "The specified bucket does not exist")
	}
	if len(f.bucketObjects[bucket]) > 0 {
		return nil, apiError("BucketNotEmpty", "The bucket you tried to delete is not empty")
	}
	delete(f.buckets, bucket)
	return &s3.DeleteBucketOutput{}, nil
}

// codecommit

type fakeCodeCommit struct{ *fakePlatform }

func (f *fakeCodeCommit) CreateRepository(ctx context.Context, params *codecommit.CreateRepositoryInput, optFns ...func(*codecommit.Options)) (*codecommit.CreateRepositoryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	name := aws.ToString(params.RepositoryName)
	f.record("codecommit", "CreateRepository", name)
	if f.repos[name] {
		return nil, apiError("RepositoryNameExistsException", "Repository named "+name+" already exists")
	}
	f.repos[name] = true
	return &codecommit.CreateRepositoryOutput{
		RepositoryMetadata: &cctypes.RepositoryMetadata{
			Arn:          aws.String("arn:aws:codecommit:us-east-1:" + fakeAccount + ":" + name),
			CloneUrlHttp: aws.String("https://git-codecommit.us-east-1.amazonaws.com/v1/repos/" + name),
			CloneUrlSsh:  aws.String("ssh://git-codecommit.us-east-1.amazonaws.com/v1/repos/" + name),
		},
	}, nil
}

func (f *fakeCodeCommit) PutRepositoryTriggers(ctx context.Context, params *codecommit.PutRepositoryTriggersInput, optFns ...func(*codecommit.Options)) (*codecommit.PutRepositoryTriggersOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("codecommit", "PutRepositoryTriggers")
	f.triggers[aws.ToString(params.RepositoryName)] = params.Triggers
	return &codecommit.PutRepositoryTriggersOutput{}, nil
}

func (f *fakeCodeCommit) DeleteRepository(ctx context.Context, params *codecommit.DeleteRepositoryInput, optFns ...func(*codecommit.Options)) (*codecommit.DeleteRepositoryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("codecommit", "DeleteRepository")
	delete(f.repos, aws.ToString(params.RepositoryName))
	delete(f.triggers, aws.ToString(params.RepositoryName))
	return &codecommit.DeleteRepositoryOutput{}, nil
}

// codebuild

type fakeCodeBuild struct{ *fakePlatform }

func (f *fakeCodeBuild) CreateProject(ctx context.Context, params *codebuild.CreateProjectInput, optFns ...func(*codebuild.Options)) (*codebuild.CreateProjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	name := aws.ToString(params.Name)
	f.record("codebuild", "CreateProject", name)
	if f.buildPropagation > 0 {
		f.buildPropagation--
		return nil, apiError("InvalidInputException", "CodeBuild is not authorized to perform: sts:AssumeRole on "+aws.ToString(params.ServiceRole))
	}
	if _, ok := f.projects[name]; ok {
		return nil, apiError("ResourceAlreadyExistsException", "project already exists")
	}
	f.projects[name] = params
	f.logGroups["/aws/codebuild/"+name] = true
	return &codebuild.CreateProjectOutput{
		Project: &cbtypes.Project{
			Name: params.Name,
			Arn:  aws.String("arn:aws:codebuild:us-east-1:" + fakeAccount + ":project/" + name),
		},
	}, nil
}

func (f *fakeCodeBuild) DeleteProject(ctx context.Context, params *codebuild.DeleteProjectInput, optFns ...func(*codebuild.Options)) (*codebuild.DeleteProjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("codebuild", "DeleteProject")
	delete(f.projects, aws.ToString(params.Name))
	return &codebuild.DeleteProjectOutput{}, nil
}

// iam

type fakeIAM struct{ *fakePlatform }

func (f *fakeIAM) CreatePolicy(ctx context.Context, params *iam.CreatePolicyInput, optFns ...func(*iam.Options)) (*iam.CreatePolicyOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	arn := "arn:aws:iam::" + fakeAccount + ":policy" + aws.ToString(params.Path) + aws.ToString(params.PolicyName)
	f.record("iam", "CreatePolicy", aws.ToString(params.PolicyName))
	if _, ok := f.policies[arn]; ok {
		return nil, apiError("EntityAlreadyExists", "policy exists")
	}
	f.policies[arn] = aws.ToString(params.PolicyDocument)
	return &iam.CreatePolicyOutput{Policy: &iamtypes.Policy{Arn: aws.String(arn)}}, nil
}

func (f *fakeIAM) CreateRole(ctx context.Context, params *iam.CreateRoleInput, optFns ...func(*iam.Options)) (*iam.CreateRoleOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	name := aws.ToString(params.RoleName)
	f.record("iam", "CreateRole", name)
	if _, ok := f.roles[name]; ok {
		return nil, apiError("EntityAlreadyExists", "role exists")
	}
	f.roles[name] = aws.ToString(params.AssumeRolePolicyDocument)
	arn := "arn:aws:iam::" + fakeAccount + ":role" + aws.ToString(params.Path) + name
	return &iam.CreateRoleOutput{Role: &iamtypes.Role{Arn: aws.String(arn), RoleName: params.RoleName}}, nil
}

func (f *fakeIAM) AttachRolePolicy(ctx context.Context, params *iam.AttachRolePolicyInput, optFns ...func(*iam.Options)) (*iam.AttachRolePolicyOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("iam", "AttachRolePolicy", aws.ToString(params.RoleName))
	f.attachments[aws.ToString(params.RoleName)] = aws.ToString(params.PolicyArn)
	return &iam.AttachRolePolicyOutput{}, nil
}

func (f *fakeIAM) GetRole(ctx context.Context, params *iam.GetRoleInput, optFns ...func(*iam.Options)) (*iam.GetRoleOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("iam", "GetRole", aws.ToString(params.RoleName))
	if _, ok := f.roles[aws.ToString(params.RoleName)]; !ok {
		return nil, apiError("NoSuchEntity", "role not found")
	}
	return &iam.GetRoleOutput{Role: &iamtypes.Role{RoleName: params.RoleName}}, nil
}

func (f *fakeIAM) DetachRolePolicy(ctx context.Context, params *iam.DetachRolePolicyInput, optFns ...func(*iam.Options)) (*iam.DetachRolePolicyOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("iam", "DetachRolePolicy", aws.ToString(params.RoleName))
	role := aws.ToString(params.RoleName)
	if f.attachments[role] != aws.ToString(params.PolicyArn) {
		return nil, apiError("NoSuchEntity", "policy not attached")
	}
	delete(f.attachments, role)
	return &iam.DetachRolePolicyOutput{}, nil
}

func (f *fakeIAM) DeleteRole(ctx context.Context, params *iam.DeleteRoleInput, optFns ...func(*iam.Options)) (*iam.DeleteRoleOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	role := aws.ToString(params.RoleName)
	f.record("iam", "DeleteRole", role)
	if _, ok := f.roles[role]; !ok {
		return nil, apiError("NoSuchEntity", "role not found")
	}
	if _, ok := f.attachments[role]; ok {
		return nil, apiError("DeleteConflict", "policy still attached")
	}
	delete(f.roles, role)
	return &iam.DeleteRoleOutput{}, nil
}

func (f *fakeIAM) DeletePolicy(ctx context.Context, params *iam.DeletePolicyInput, optFns ...func(*iam.Options)) (*iam.DeletePolicyOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	arn := aws.ToString(params.PolicyArn)
	f.record("iam", "DeletePolicy", arn)
	if _, ok := f.policies[arn]; !ok {
		return nil, apiError("NoSuchEntity", "policy not found")
	}
	delete(f.policies, arn)
	return &iam.DeletePolicyOutput{}, nil
}

// lambda

type fakeLambda struct{ *fakePlatform }

func (f *fakeLambda) CreateFunction(ctx context.Context, params *lambda.CreateFunctionInput, optFns ...func(*lambda.Options)) (*lambda.CreateFunctionOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	name := aws.ToString(params.FunctionName)
	f.record("lambda", "CreateFunction", name)
	if f.lambdaPropagation > 0 {
		f.lambdaPropagation--
		return nil, apiError("InvalidParameterValueException", "The role defined for the function cannot be assumed by Lambda.")
	}
	if _, ok := f.functions[name]; ok {
		return nil, apiError("ResourceConflictException", "Function already exist: "+name)
	}
	f.functions[name] = params
	f.logGroups["/aws/lambda/"+name] = true
	return &lambda.CreateFunctionOutput{
		FunctionName: params.FunctionName,
		FunctionArn:  aws.String("arn:aws:lambda:us-east-1:" + fakeAccount + ":function:" + name),
	}, nil
}

func (f *fakeLambda) AddPermission(ctx context.Context, params *lambda.AddPermissionInput, optFns ...func(*lambda.Options)) (*lambda.AddPermissionOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	name := aws.ToString(params.FunctionName)
	f.record("lambda", "AddPermission", name, aws.ToString(params.Principal))
	f.permissions[name] = append(f.permissions[name], params)
	return &lambda.AddPermissionOutput{}, nil
}

func (f *fakeLambda) DeleteFunction(ctx context.Context, params *lambda.DeleteFunctionInput, optFns ...func(*lambda.Options)) (*lambda.DeleteFunctionOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	name := aws.ToString(params.FunctionName)
	f.record("lambda", "DeleteFunction", name)
	if _, ok := f.functions[name]; !ok {
		return nil, apiError("ResourceNotFoundException", "Function not found: "+name)
	}
	delete(f.functions, name)
	delete(f.permissions, name)
	return &lambda.DeleteFunctionOutput{}, nil
}

// acm

type fakeACM struct{ *fakePlatform }

func (f *fakeACM) validationRecord() *acmtypes.ResourceRecord {
	return &acmtypes.ResourceRecord{
		Name:  aws.String("_x1.demo.example.com."),
		Type:  acmtypes.RecordTypeCname,
		Value: aws.String("_x2.acm-validations.aws."),
	}
}

func (f *fakeACM) RequestCertificate(ctx context.Context, params *acm.RequestCertificateInput, optFns ...func(*acm.Options)) (*acm.RequestCertificateOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("acm", "RequestCertificate", aws.ToString(params.DomainName))
	f.certificate = params
	f.certDescribe = 0
	return &acm.RequestCertificateOutput{CertificateArn: aws.String(fakeCertARN)}, nil
}

func (f *fakeACM) DescribeCertificate(ctx context.Context, params *acm.DescribeCertificateInput, optFns ...func(*acm.Options)) (*acm.DescribeCertificateOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.certificate == nil {
		f.record("acm", "DescribeCertificate")
		return nil, apiError("ResourceNotFoundException", "certificate not found")
	}
	f.certDescribe++

	detail := &acmtypes.CertificateDetail{
		CertificateArn: aws.String(fakeCertARN),
		DomainName:     f.certificate.DomainName,
		Status:         acmtypes.CertificateStatusPendingValidation,
	}
	option := acmtypes.DomainValidation{DomainName: f.certificate.DomainName}
	if f.certDescribe > f.recordAfter {
		option.ResourceRecord = f.validationRecord()
	}
	detail.DomainValidationOptions = []acmtypes.DomainValidation{option}

	if _, published := f.records[recordKey("_x1.demo.example.com.", r53types.RRTypeCname)]; published {
		if f.pendingAfterDNS > 0 {
			f.pendingAfterDNS--
		} else {
			detail.Status = f.certFinalStatus
		}
	}

	f.record("acm", "DescribeCertificate", string(detail.Status))
	return &acm.DescribeCertificateOutput{Certificate: detail}, nil
}

func (f *fakeACM) ListCertificates(ctx context.Context, params *acm.ListCertificatesInput, optFns ...func(*acm.Options)) (*acm.ListCertificatesOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("acm", "ListCertificates")
	out := &acm.ListCertificatesOutput{}
	if f.certificate != nil {
		out.CertificateSummaryList = []acmtypes.CertificateSummary{
			{CertificateArn: aws.String("arn:aws:acm:us-east-1:123456789012:certificate/other"), DomainName: aws.String("www.example.org")},
			{CertificateArn: aws.String(fakeCertARN), DomainName: f.certificate.DomainName},
		}
	}
	return out, nil
}

func (f *fakeACM) DeleteCertificate(ctx context.Context, params *acm.DeleteCertificateInput, optFns ...func(*acm.Options)) (*acm.DeleteCertificateOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("acm", "DeleteCertificate")
	if f.certificate == nil {
		return nil, apiError("ResourceNotFoundException", "certificate not found")
	}
	f.certificate = nil
	return &acm.DeleteCertificateOutput{}, nil
}

// route53

type fakeRoute53 struct{ *fakePlatform }

func (f *fakeRoute53) ListHostedZonesByName(ctx context.Context, params *route53.ListHostedZonesByNameInput, optFns ...func(*route53.Options)) (*route53.ListHostedZonesByNameOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("route53", "ListHostedZonesByName", aws.ToString(params.DNSName))
	return &route53.ListHostedZonesByNameOutput{HostedZones: f.zones}, nil
}

func (f *fakeRoute53) ChangeResourceRecordSets(ctx context.Context, params *route53.ChangeResourceRecordSetsInput, optFns ...func(*route53.Options)) (*route53.ChangeResourceRecordSetsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, change := range params.ChangeBatch.Changes {
		rrs := change.ResourceRecordSet
		key := recordKey(aws.ToString(rrs.Name), rrs.Type)
		f.record("route53", "ChangeResourceRecordSets", string(change.Action), string(rrs.Type), fqdn(aws.ToString(rrs.Name)))
		switch change.Action {
		case r53types.ChangeActionUpsert:
			f.records[key] = *rrs
		case r53types.ChangeActionDelete:
			if _, ok := f.records[key]; !ok {
				return nil, apiError("InvalidChangeBatch", "record not found")
			}
			delete(f.records, key)
		}
	}
	return &route53.ChangeResourceRecordSetsOutput{}, nil
}

func (f *fakeRoute53) ListResourceRecordSets(ctx context.Context, params *route53.ListResourceRecordSetsInput, optFns ...func(*route53.Options)) (*route53.ListResourceRecordSetsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("route53", "ListResourceRecordSets")
	out := &route53.ListResourceRecordSetsOutput{}
	for _, rrs := range f.records {
		out.ResourceRecordSets = append(out.ResourceRecordSets, rrs)
	}
	return out, nil
}

// cloudfront

type fakeCloudFront struct{ *fakePlatform }

func (f *fakeCloudFront) etag() *string {
	return aws.String(fmt.Sprintf("E%d", f.distribution.etag))
}

func (f *fakeCloudFront) CreateDistributionWithTags(ctx context.Context, params *cloudfront.CreateDistributionWithTagsInput, optFns ...func(*cloudfront.Options)) (*cloudfront.CreateDistributionWithTagsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("cloudfront", "CreateDistributionWithTags")
	if f.distribution != nil {
		return nil, apiError("CNAMEAlreadyExists", "alias in use")
	}
	f.distribution = &fakeDistribution{
		config: params.DistributionConfigWithTags.DistributionConfig,
		status: "InProgress",
		etag:   1,
	}
	return &cloudfront.CreateDistributionWithTagsOutput{
		Distribution: &cftypes.Distribution{
			Id:         aws.String(fakeDistID),
			ARN:        aws.String("arn:aws:cloudfront::" + fakeAccount + ":distribution/" + fakeDistID),
			DomainName: aws.String(fakeCDNDomain),
			Status:     aws.String("InProgress"),
		},
		ETag: f.etag(),
	}, nil
}

func (f *fakeCloudFront) GetDistribution(ctx context.Context, params *cloudfront.GetDistributionInput, optFns ...func(*cloudfront.Options)) (*cloudfront.GetDistributionOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.distribution == nil {
		f.record("cloudfront", "GetDistribution")
		return nil, apiError("NoSuchDistribution", "not found")
	}
	d := f.distribution
	d.polls++
	if d.polls >= f.deployedAfter {
		d.status = distributionDeployed
	}
	f.record("cloudfront", "GetDistribution", d.status)
	return &cloudfront.GetDistributionOutput{
		Distribution: &cftypes.Distribution{
			Id:         aws.String(fakeDistID),
			DomainName: aws.String(fakeCDNDomain),
			Status:     aws.String(d.status),
		},
		ETag: f.etag(),
	}, nil
}

func (f *fakeCloudFront) GetDistributionConfig(ctx context.Context, params *cloudfront.GetDistributionConfigInput, optFns ...func(*cloudfront.Options)) (*cloudfront.GetDistributionConfigOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("cloudfront", "GetDistributionConfig")
	if f.distribution == nil {
		return nil, apiError("NoSuchDistribution", "not found")
	}
	cfg := *f.distribution.config
	return &cloudfront.GetDistributionConfigOutput{DistributionConfig: &cfg, ETag: f.etag()}, nil
}

func (f *fakeCloudFront) ListDistributions(ctx context.Context, params *cloudfront.ListDistributionsInput, optFns ...func(*cloudfront.Options)) (*cloudfront.ListDistributionsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("cloudfront", "ListDistributions")
	list := &cftypes.DistributionList{IsTruncated: aws.Bool(false)}
	if f.distribution != nil {
		list.Items = []cftypes.DistributionSummary{
			{
				Id:         aws.String(fakeDistID),
				DomainName: aws.String(fakeCDNDomain),
				Status:     aws.String(f.distribution.status),
				Aliases:    f.distribution.config.Aliases,
			},
		}
	}
	return &cloudfront.ListDistributionsOutput{DistributionList: list}, nil
}

func (f *fakeCloudFront) UpdateDistribution(ctx context.Context, params *cloudfront.UpdateDistributionInput, optFns ...func(*cloudfront.Options)) (*cloudfront.UpdateDistributionOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("cloudfront", "UpdateDistribution")
	if aws.ToString(params.IfMatch) != aws.ToString(f.etag()) {
		return nil, apiError("PreconditionFailed", "etag mismatch")
	}
	d := f.distribution
	d.config = params.DistributionConfig
	d.status = "InProgress"
	d.polls = 0
	d.etag++
	return &cloudfront.UpdateDistributionOutput{ETag: f.etag()}, nil
}

func (f *fakeCloudFront) DeleteDistribution(ctx context.Context, params *cloudfront.DeleteDistributionInput, optFns ...func(*cloudfront.Options)) (*cloudfront.DeleteDistributionOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("cloudfront", "DeleteDistribution")
	if f.distribution == nil {
		return nil, apiError("NoSuchDistribution", "not found")
	}
	if aws.ToString(params.IfMatch) != aws.ToString(f.etag()) {
		return nil, apiError("PreconditionFailed", "etag mismatch")
	}
	if aws.ToBool(f.distribution.config.Enabled) || f.distribution.status != distributionDeployed {
		return nil, apiError("DistributionNotDisabled", "distribution is still enabled")
	}
	f.distribution = nil
	return &cloudfront.DeleteDistributionOutput{}, nil
}

// eventbridge

type fakeEventBridge struct{ *fakePlatform }

func (f *fakeEventBridge) PutRule(ctx context.Context, params *eventbridge.PutRuleInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutRuleOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	name := aws.ToString(params.Name)
	f.record("eventbridge", "PutRule", name)
	f.rules[name] = params
	return &eventbridge.PutRuleOutput{RuleArn: aws.String("arn:aws:events:us-east-1:" + fakeAccount + ":rule/" + name)}, nil
}

func (f *fakeEventBridge) PutTargets(ctx context.Context, params *eventbridge.PutTargetsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutTargetsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rule := aws.ToString(params.Rule)
	f.record("eventbridge", "PutTargets", rule)
	for _, target := range params.Targets {
		f.targets[rule] = append(f.targets[rule], aws.ToString(target.Arn))
	}
	return &eventbridge.PutTargetsOutput{}, nil
}

func (f *fakeEventBridge) RemoveTargets(ctx context.Context, params *eventbridge.RemoveTargetsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.RemoveTargetsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rule := aws.ToString(params.Rule)
	f.record("eventbridge", "RemoveTargets", rule)
	if _, ok := f.rules[rule]; !ok {
		return nil, apiError("ResourceNotFoundException", "Rule "+rule+" does not exist")
	}
	delete(f.targets, rule)
	return &eventbridge.RemoveTargetsOutput{}, nil
}

func (f *fakeEventBridge) DeleteRule(ctx context.Context, params *eventbridge.DeleteRuleInput, optFns ...func(*eventbridge.Options)) (*eventbridge.DeleteRuleOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("eventbridge", "DeleteRule")
	delete(f.rules, aws.ToString(params.Name))
	return &eventbridge.DeleteRuleOutput{}, nil
}

// cloudwatch logs

type fakeLogs struct{ *fakePlatform }

func (f *fakeLogs) DeleteLogGroup(ctx context.Context, params *cloudwatchlogs.DeleteLogGroupInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.DeleteLogGroupOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	group := aws.ToString(params.LogGroupName)
	f.record("logs", "DeleteLogGroup", group)
	if !f.logGroups[group] {
		return nil, apiError("ResourceNotFoundException", "The specified log group does not exist.")
	}
	delete(f.logGroups, group)
	return &cloudwatchlogs.DeleteLogGroupOutput{}, nil
}

// sts

type fakeSTS struct{ *fakePlatform }

func (f *fakeSTS) GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("sts", "GetCallerIdentity")
	return &sts.GetCallerIdentityOutput{Account: aws.String(fakeAccount)}, nil
}
