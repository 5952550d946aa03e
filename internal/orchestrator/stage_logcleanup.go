package orchestrator

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	ebtypes "github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/rs/zerolog"
	"github.com/savaki/static-site/internal/config"
	"github.com/savaki/static-site/internal/constants"
	"github.com/savaki/static-site/internal/policy"
	"github.com/savaki/static-site/internal/utils"
)

func (p *Provisioner) logCleanupStage() Stage {
	return stage{
		name:     "logcleanup",
		requires: []Key{KeyTriggerFunctionName, KeyInvalidationFunction},
		produces: []Key{KeyLogCleanupFunctionARN, KeyLogCleanupRuleARN},
		run:      p.createLogCleanup,
	}
}

// createLogCleanup deploys the scheduled handler that deletes the build
// and handler log groups
func (p *Provisioner) createLogCleanup(ctx context.Context, state *State) error {
	logger := zerolog.Ctx(ctx)
	triggerFn := state.Value(KeyTriggerFunctionName)
	invalidationFn := state.Value(KeyInvalidationFunction)

	roleARN, err := p.createRole(ctx, roleSpec{
		Role:        p.names.Roles.LogCleanup,
		Policy:      p.names.Policies.LogCleanup,
		Path:        p.names.Paths.LogCleanup,
		Service:     "lambda.amazonaws.com",
		Description: "Role assumed by the log cleanup handler",
		Permissions: policy.LogCleanupPolicy(p.names.BuildProject, triggerFn, invalidationFn),
	})
	if err != nil {
		return err
	}

	fn, err := p.createFunction(ctx, functionSpec{
		Name:        p.names.LogCleanupFunction,
		Handler:     constants.LogCleanupHandler,
		RoleARN:     roleARN,
		Description: "Deletes build and handler log groups on a schedule",
		Timeout:     120,
		Environment: map[string]string{
			constants.EnvBuildLog:           p.names.BuildLog,
			constants.EnvTriggerLog:         config.FunctionLog(triggerFn),
			constants.EnvCDNInvalidationLog: config.FunctionLog(invalidationFn),
		},
	})
	if err != nil {
		return err
	}
	functionARN := aws.ToString(fn.FunctionArn)

	rule, err := p.clients.EventBridge.PutRule(ctx, &eventbridge.PutRuleInput{
		Name:               aws.String(p.names.LogCleanupRule),
		ScheduleExpression: aws.String(p.cfg.LogRetentionRate),
		State:              ebtypes.RuleStateEnabled,
		Description:        aws.String(p.description("Log cleanup schedule")),
		Tags: utils.MergeTags(func(k, v string) ebtypes.Tag {
			return ebtypes.Tag{Key: aws.String(k), Value: aws.String(v)}
		}, p.tags()),
	})
	if err != nil {
		return fmt.Errorf("failed to create schedule %s: %w", p.names.LogCleanupRule, err)
	}
	ruleARN := aws.ToString(rule.RuleArn)

	if err := p.allowInvoke(ctx, p.names.LogCleanupFunction, "enable-events-to-invoke-function", "events.amazonaws.com", ruleARN); err != nil {
		return err
	}

	targets, err := p.clients.EventBridge.PutTargets(ctx, &eventbridge.PutTargetsInput{
		Rule: aws.String(p.names.LogCleanupRule),
		Targets: []ebtypes.Target{
			{
				Id:  aws.String(p.names.LogCleanupFunction),
				Arn: aws.String(functionARN),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to target schedule %s: %w", p.names.LogCleanupRule, err)
	}
	if len(targets.FailedEntries) > 0 {
		entry := targets.FailedEntries[0]
		return fmt.Errorf("failed to target schedule %s: %s: %s", p.names.LogCleanupRule, aws.ToString(entry.ErrorCode), aws.ToString(entry.ErrorMessage))
	}
	logger.Info().
		Str("rule", ruleARN).
		Str("schedule", p.cfg.LogRetentionRate).
		Msg("Scheduled log cleanup")

	state.Set(KeyLogCleanupFunctionARN, functionARN)
	state.Set(KeyLogCleanupRuleARN, ruleARN)
	return nil
}
