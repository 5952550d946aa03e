package di

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/acm"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/codebuild"
	"github.com/aws/aws-sdk-go-v2/service/codecommit"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/route53"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/savaki/static-site/internal/config"
	"github.com/savaki/static-site/internal/constants"
	"github.com/savaki/static-site/internal/orchestrator"
	"github.com/savaki/static-site/internal/policy"
)

// ProvideAWSConfig loads the SDK configuration for the site's region. When an
// endpoint URL is configured every client talks to it with static test
// credentials, which is how the tool runs against a local AWS emulator.
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.EndpointURL != "" {
		opts = append(opts,
			awsconfig.WithBaseEndpoint(cfg.EndpointURL),
			awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("test", "test", "")),
		)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return awsCfg, nil
}

// ProvideClients builds one client per service. Certificates are always
// requested in us-east-1 since CloudFront accepts no other region.
func ProvideClients(awsCfg aws.Config, cfg *config.Config) orchestrator.Clients {
	pathStyle := cfg.EndpointURL != ""

	return orchestrator.Clients{
		S3: s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			o.UsePathStyle = pathStyle
		}),
		CodeCommit: codecommit.NewFromConfig(awsCfg),
		CodeBuild:  codebuild.NewFromConfig(awsCfg),
		IAM:        iam.NewFromConfig(awsCfg),
		Lambda:     lambda.NewFromConfig(awsCfg),
		ACM: acm.NewFromConfig(awsCfg, func(o *acm.Options) {
			o.Region = constants.CertificateRegion
		}),
		Route53:     route53.NewFromConfig(awsCfg),
		CloudFront:  cloudfront.NewFromConfig(awsCfg),
		EventBridge: eventbridge.NewFromConfig(awsCfg),
		Logs:        cloudwatchlogs.NewFromConfig(awsCfg),
		STS:         sts.NewFromConfig(awsCfg),
	}
}

// ProvideValidator compiles the permission scoping policy
func ProvideValidator() (*policy.Validator, error) {
	validator, err := policy.NewValidator()
	if err != nil {
		return nil, fmt.Errorf("failed to create policy validator: %w", err)
	}
	return validator, nil
}

func ProvideProvisioner(cfg *config.Config, clients orchestrator.Clients, validator *policy.Validator) *orchestrator.Provisioner {
	return orchestrator.New(cfg, clients, validator)
}
