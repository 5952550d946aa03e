package orchestrator

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/acm"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/codebuild"
	"github.com/aws/aws-sdk-go-v2/service/codecommit"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	r53types "github.com/aws/aws-sdk-go-v2/service/route53/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/rs/zerolog"
	"github.com/savaki/static-site/internal/config"
	"github.com/savaki/static-site/internal/errors"
)

// teardownStep removes one resource. Missing resources are not an error.
type teardownStep struct {
	name string
	run  func(ctx context.Context) error
}

// Teardown removes every resource the provisioning run creates, in reverse
// order. It keeps going past failures and returns them joined.
func (p *Provisioner) Teardown(ctx context.Context) error {
	logger := zerolog.Ctx(ctx)

	identity, err := p.clients.STS.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return fmt.Errorf("failed to get caller identity: %w", err)
	}
	account := aws.ToString(identity.Account)

	n := p.names
	steps := []teardownStep{
		{"dns", p.deleteAliases},
		{"schedule", p.deleteSchedule},
		{"function " + n.LogCleanupFunction, p.deleteFunction(n.LogCleanupFunction)},
		{"role " + n.Roles.LogCleanup, p.deleteRole(account, n.Roles.LogCleanup, n.Policies.LogCleanup, n.Paths.LogCleanup)},
		{"function " + n.InvalidationFunction, p.deleteFunction(n.InvalidationFunction)},
		{"role " + n.Roles.Invalidation, p.deleteRole(account, n.Roles.Invalidation, n.Policies.Invalidation, n.Paths.Invalidation)},
		{"distribution", p.deleteDistribution},
		{"certificate", p.deleteCertificate},
		{"function " + n.TriggerFunction, p.deleteFunction(n.TriggerFunction)},
		{"role " + n.Roles.Trigger, p.deleteRole(account, n.Roles.Trigger, n.Policies.Trigger, n.Paths.Trigger)},
		{"build project", p.deleteBuildProject},
		{"role " + n.Roles.Build, p.deleteRole(account, n.Roles.Build, n.Policies.Build, n.Paths.Build)},
		{"repository", p.deleteRepository},
		{"bucket", p.deleteBucket},
		{"log groups", p.deleteLogGroups},
	}

	var errs []error
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		logger.Info().Str("step", step.name).Msg("Removing")
		if err := step.run(ctx); err != nil {
			logger.Error().Err(err).Str("step", step.name).Msg("Failed to remove")
			errs = append(errs, fmt.Errorf("%s: %w", step.name, err))
		}
	}
	return errors.Join(errs...)
}

// ignoreNotFound treats a missing resource as removed
func ignoreNotFound(err error) error {
	if err == nil || errors.IsNotFound(err) {
		return nil
	}
	return err
}

func (p *Provisioner) deleteAliases(ctx context.Context) error {
	zoneID, err := p.hostedZoneID(ctx)
	if err != nil {
		if errors.Is(err, errors.ErrHostedZoneNotFound) {
			return nil
		}
		return err
	}

	records, err := p.findRecords(ctx, zoneID, p.names.Bucket, r53types.RRTypeA, r53types.RRTypeAaaa)
	if err != nil || len(records) == 0 {
		return err
	}

	var changes []r53types.Change
	for i := range records {
		changes = append(changes, r53types.Change{
			Action:            r53types.ChangeActionDelete,
			ResourceRecordSet: &records[i],
		})
	}
	return p.changeRecords(ctx, zoneID, "Remove alias records for "+p.names.Bucket, changes...)
}

func (p *Provisioner) deleteSchedule(ctx context.Context) error {
	_, err := p.clients.EventBridge.RemoveTargets(ctx, &eventbridge.RemoveTargetsInput{
		Rule: aws.String(p.names.LogCleanupRule),
		Ids:  []string{p.names.LogCleanupFunction},
	})
	if err := ignoreNotFound(err); err != nil {
		return fmt.Errorf("failed to remove schedule targets: %w", err)
	}

	_, err = p.clients.EventBridge.DeleteRule(ctx, &eventbridge.DeleteRuleInput{
		Name: aws.String(p.names.LogCleanupRule),
	})
	if err := ignoreNotFound(err); err != nil {
		return fmt.Errorf("failed to delete schedule: %w", err)
	}
	return nil
}

func (p *Provisioner) deleteFunction(name string) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		_, err := p.clients.Lambda.DeleteFunction(ctx, &lambda.DeleteFunctionInput{
			FunctionName: aws.String(name),
		})
		if err := ignoreNotFound(err); err != nil {
			return fmt.Errorf("failed to delete function %s: %w", name, err)
		}
		return nil
	}
}

func (p *Provisioner) deleteRole(account, role, policyName, path string) func(ctx context.Context) error {
	policyARN := fmt.Sprintf("arn:aws:iam::%s:policy%s%s", account, path, policyName)
	return func(ctx context.Context) error {
		_, err := p.clients.IAM.DetachRolePolicy(ctx, &iam.DetachRolePolicyInput{
			RoleName:  aws.String(role),
			PolicyArn: aws.String(policyARN),
		})
		if err := ignoreNotFound(err); err != nil {
			return fmt.Errorf("failed to detach policy: %w", err)
		}

		_, err = p.clients.IAM.DeleteRole(ctx, &iam.DeleteRoleInput{
			RoleName: aws.String(role),
		})
		if err := ignoreNotFound(err); err != nil {
			return fmt.Errorf("failed to delete role: %w", err)
		}

		_, err = p.clients.IAM.DeletePolicy(ctx, &iam.DeletePolicyInput{
			PolicyArn: aws.String(policyARN),
		})
		if err := ignoreNotFound(err); err != nil {
			return fmt.Errorf("failed to delete policy: %w", err)
		}
		return nil
	}
}

// deleteDistribution disables the distribution, waits for the change to
// deploy and deletes it
func (p *Provisioner) deleteDistribution(ctx context.Context) error {
	summary, err := p.findDistribution(ctx)
	if err != nil || summary == nil {
		return err
	}
	id := aws.ToString(summary.Id)

	current, err := p.clients.CloudFront.GetDistributionConfig(ctx, &cloudfront.GetDistributionConfigInput{
		Id: aws.String(id),
	})
	if err != nil {
		return ignoreNotFound(err)
	}
	if current.DistributionConfig == nil {
		return fmt.Errorf("distribution %s has no config", id)
	}

	if aws.ToBool(current.DistributionConfig.Enabled) {
		current.DistributionConfig.Enabled = aws.Bool(false)
		if _, err := p.clients.CloudFront.UpdateDistribution(ctx, &cloudfront.UpdateDistributionInput{
			Id:                 aws.String(id),
			IfMatch:            current.ETag,
			DistributionConfig: current.DistributionConfig,
		}); err != nil {
			return fmt.Errorf("failed to disable distribution %s: %w", id, err)
		}
		zerolog.Ctx(ctx).Info().Str("distribution", id).Msg("Disabled distribution, waiting for deployment")
	}

	if err := p.waitForDeployed(ctx, id); err != nil {
		return err
	}

	latest, err := p.clients.CloudFront.GetDistribution(ctx, &cloudfront.GetDistributionInput{
		Id: aws.String(id),
	})
	if err != nil {
		return ignoreNotFound(err)
	}
	_, err = p.clients.CloudFront.DeleteDistribution(ctx, &cloudfront.DeleteDistributionInput{
		Id:      aws.String(id),
		IfMatch: latest.ETag,
	})
	if err := ignoreNotFound(err); err != nil {
		return fmt.Errorf("failed to delete distribution %s: %w", id, err)
	}
	return nil
}

// deleteCertificate removes the validation record and the certificate
func (p *Provisioner) deleteCertificate(ctx context.Context) error {
	certARN, err := p.findCertificate(ctx)
	if err != nil || certARN == "" {
		return err
	}

	cert, err := p.describeCertificate(ctx, certARN)
	if err != nil {
		return ignoreNotFound(err)
	}

	zoneID, err := p.hostedZoneID(ctx)
	if err != nil && !errors.Is(err, errors.ErrHostedZoneNotFound) {
		return err
	}
	if zoneID != "" {
		for _, option := range cert.DomainValidationOptions {
			record := option.ResourceRecord
			if record == nil {
				continue
			}
			existing, err := p.findRecords(ctx, zoneID, aws.ToString(record.Name), r53types.RRType(record.Type))
			if err != nil {
				return err
			}
			for i := range existing {
				if err := p.changeRecords(ctx, zoneID, "Remove certificate validation record", r53types.Change{
					Action:            r53types.ChangeActionDelete,
					ResourceRecordSet: &existing[i],
				}); err != nil {
					return err
				}
			}
		}
	}

	_, err = p.clients.ACM.DeleteCertificate(ctx, &acm.DeleteCertificateInput{
		CertificateArn: aws.String(certARN),
	})
	if err := ignoreNotFound(err); err != nil {
		return fmt.Errorf("failed to delete certificate %s: %w", certARN, err)
	}
	return nil
}

func (p *Provisioner) deleteBuildProject(ctx context.Context) error {
	_, err := p.clients.CodeBuild.DeleteProject(ctx, &codebuild.DeleteProjectInput{
		Name: aws.String(p.names.BuildProject),
	})
	if err := ignoreNotFound(err); err != nil {
		return fmt.Errorf("failed to delete build project: %w", err)
	}
	return nil
}

func (p *Provisioner) deleteRepository(ctx context.Context) error {
	_, err := p.clients.CodeCommit.DeleteRepository(ctx, &codecommit.DeleteRepositoryInput{
		RepositoryName: aws.String(p.names.Repository),
	})
	if err := ignoreNotFound(err); err != nil {
		return fmt.Errorf("failed to delete repository: %w", err)
	}
	return nil
}

// deleteBucket empties and deletes the bucket
func (p *Provisioner) deleteBucket(ctx context.Context) error {
	bucket := p.names.Bucket

	paginator := s3.NewListObjectsV2Paginator(p.clients.S3, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return ignoreNotFound(err)
		}
		if len(page.Contents) == 0 {
			continue
		}

		var objects []s3types.ObjectIdentifier
		for _, obj := range page.Contents {
			objects = append(objects, s3types.ObjectIdentifier{Key: obj.Key})
		}
		if _, err := p.clients.S3.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(bucket),
			Delete: &s3types.Delete{Objects: objects, Quiet: aws.Bool(true)},
		}); err != nil {
			return fmt.Errorf("failed to empty bucket %s: %w", bucket, err)
		}
	}

	_, err := p.clients.S3.DeleteBucket(ctx, &s3.DeleteBucketInput{
		Bucket: aws.String(bucket),
	})
	if err := ignoreNotFound(err); err != nil {
		return fmt.Errorf("failed to delete bucket %s: %w", bucket, err)
	}
	return nil
}

func (p *Provisioner) deleteLogGroups(ctx context.Context) error {
	groups := []string{
		p.names.BuildLog,
		config.FunctionLog(p.names.TriggerFunction),
		config.FunctionLog(p.names.InvalidationFunction),
		config.FunctionLog(p.names.LogCleanupFunction),
	}
	for _, group := range groups {
		_, err := p.clients.Logs.DeleteLogGroup(ctx, &cloudwatchlogs.DeleteLogGroupInput{
			LogGroupName: aws.String(group),
		})
		if err := ignoreNotFound(err); err != nil {
			return fmt.Errorf("failed to delete log group %s: %w", group, err)
		}
	}
	return nil
}
