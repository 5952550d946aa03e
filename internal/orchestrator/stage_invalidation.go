package orchestrator

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"
	"github.com/savaki/static-site/internal/constants"
	"github.com/savaki/static-site/internal/policy"
)

func (p *Provisioner) invalidationStage() Stage {
	return stage{
		name:     "invalidation",
		requires: []Key{KeyCDNID, KeyCDNARN, KeyBucketName, KeyBucketARN},
		produces: []Key{KeyInvalidationFunctionARN, KeyInvalidationFunction},
		run:      p.createInvalidationHandler,
	}
}

// createInvalidationHandler deploys the handler that flushes the CDN and
// subscribes it to every object change in the bucket
func (p *Provisioner) createInvalidationHandler(ctx context.Context, state *State) error {
	bucket := state.Value(KeyBucketName)

	roleARN, err := p.createRole(ctx, roleSpec{
		Role:        p.names.Roles.Invalidation,
		Policy:      p.names.Policies.Invalidation,
		Path:        p.names.Paths.Invalidation,
		Service:     "lambda.amazonaws.com",
		Description: "Role assumed by the cdn invalidation handler",
		Permissions: policy.InvalidationPolicy(state.Value(KeyCDNARN)),
	})
	if err != nil {
		return err
	}

	fn, err := p.createFunction(ctx, functionSpec{
		Name:        p.names.InvalidationFunction,
		Handler:     constants.InvalidateCDNHandler,
		RoleARN:     roleARN,
		Description: "Invalidates cached cdn objects when the bucket changes",
		Timeout:     180,
		Environment: map[string]string{
			constants.EnvCDNDistributionID: state.Value(KeyCDNID),
			constants.EnvSettleDelay:       p.cfg.InvalidationSettle.String(),
		},
	})
	if err != nil {
		return err
	}
	functionARN := aws.ToString(fn.FunctionArn)

	if err := p.allowInvoke(ctx, p.names.InvalidationFunction, "enable-s3-to-invoke-function", "s3.amazonaws.com", state.Value(KeyBucketARN)); err != nil {
		return err
	}

	if _, err := p.clients.S3.PutBucketNotificationConfiguration(ctx, &s3.PutBucketNotificationConfigurationInput{
		Bucket: aws.String(bucket),
		NotificationConfiguration: &s3types.NotificationConfiguration{
			LambdaFunctionConfigurations: []s3types.LambdaFunctionConfiguration{
				{
					Id:                aws.String(p.names.InvalidationFunction),
					LambdaFunctionArn: aws.String(functionARN),
					Events: []s3types.Event{
						s3types.Event("s3:ObjectCreated:*"),
						s3types.Event("s3:ObjectRemoved:*"),
					},
				},
			},
		},
	}); err != nil {
		return fmt.Errorf("failed to configure notifications on %s: %w", bucket, err)
	}
	zerolog.Ctx(ctx).Info().Str("bucket", bucket).Msg("Subscribed invalidation handler to bucket events")

	state.Set(KeyInvalidationFunctionARN, functionARN)
	state.Set(KeyInvalidationFunction, aws.ToString(fn.FunctionName))
	return nil
}
