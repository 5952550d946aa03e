package orchestrator

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/codecommit"
	cctypes "github.com/aws/aws-sdk-go-v2/service/codecommit/types"
	"github.com/rs/zerolog"
	"github.com/savaki/static-site/internal/constants"
	"github.com/savaki/static-site/internal/policy"
)

func (p *Provisioner) triggerStage() Stage {
	return stage{
		name:     "trigger",
		requires: []Key{KeyRepoARN, KeyBuildARN},
		produces: []Key{KeyTriggerFunctionARN, KeyTriggerFunctionName},
		run:      p.createBuildTrigger,
	}
}

// createBuildTrigger deploys the handler that starts a build on every
// commit and registers it on the repository
func (p *Provisioner) createBuildTrigger(ctx context.Context, state *State) error {
	repoARN := state.Value(KeyRepoARN)

	roleARN, err := p.createRole(ctx, roleSpec{
		Role:        p.names.Roles.Trigger,
		Policy:      p.names.Policies.Trigger,
		Path:        p.names.Paths.Trigger,
		Service:     "lambda.amazonaws.com",
		Description: "Role assumed by the build trigger",
		Permissions: policy.TriggerPolicy(repoARN, state.Value(KeyBuildARN)),
	})
	if err != nil {
		return err
	}

	fn, err := p.createFunction(ctx, functionSpec{
		Name:        p.names.TriggerFunction,
		Handler:     constants.TriggerBuildHandler,
		RoleARN:     roleARN,
		Description: "Starts a build when a commit is pushed",
		Timeout:     30,
		Environment: map[string]string{
			constants.EnvBuildProjectName: p.names.BuildProject,
		},
	})
	if err != nil {
		return err
	}
	functionARN := aws.ToString(fn.FunctionArn)

	if err := p.allowInvoke(ctx, p.names.TriggerFunction, "enable-codecommit-to-invoke-function", "codecommit.amazonaws.com", repoARN); err != nil {
		return err
	}

	if _, err := p.clients.CodeCommit.PutRepositoryTriggers(ctx, &codecommit.PutRepositoryTriggersInput{
		RepositoryName: aws.String(p.names.Repository),
		Triggers: []cctypes.RepositoryTrigger{
			{
				Name:           aws.String(p.names.RepoTrigger),
				DestinationArn: aws.String(functionARN),
				Branches:       []string{p.cfg.Branch},
				Events:         []cctypes.RepositoryTriggerEventEnum{cctypes.RepositoryTriggerEventEnumAll},
			},
		},
	}); err != nil {
		return fmt.Errorf("failed to register repository trigger %s: %w", p.names.RepoTrigger, err)
	}
	zerolog.Ctx(ctx).Info().
		Str("trigger", p.names.RepoTrigger).
		Str("branch", p.cfg.Branch).
		Msg("Registered repository trigger")

	state.Set(KeyTriggerFunctionARN, functionARN)
	state.Set(KeyTriggerFunctionName, aws.ToString(fn.FunctionName))
	return nil
}
