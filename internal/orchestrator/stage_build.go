package orchestrator

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/codebuild"
	cbtypes "github.com/aws/aws-sdk-go-v2/service/codebuild/types"
	"github.com/rs/zerolog"
	"github.com/savaki/static-site/internal/constants"
	"github.com/savaki/static-site/internal/policy"
	"github.com/savaki/static-site/internal/utils"
)

func (p *Provisioner) buildStage() Stage {
	return stage{
		name:     "build",
		requires: []Key{KeyRepoARN, KeyRepoCloneHTTP, KeyBucketARN, KeyBucketName},
		produces: []Key{KeyBuildARN, KeyBuildRoleARN},
		run:      p.createBuildProject,
	}
}

func (p *Provisioner) createBuildProject(ctx context.Context, state *State) error {
	roleARN, err := p.createRole(ctx, roleSpec{
		Role:        p.names.Roles.Build,
		Policy:      p.names.Policies.Build,
		Path:        p.names.Paths.Build,
		Service:     "codebuild.amazonaws.com",
		Description: "Role assumed by the site build project",
		Permissions: policy.BuildPolicy(state.Value(KeyRepoARN), state.Value(KeyBucketARN)),
	})
	if err != nil {
		return err
	}
	state.Set(KeyBuildRoleARN, roleARN)

	input := &codebuild.CreateProjectInput{
		Name:        aws.String(p.names.BuildProject),
		Description: aws.String(p.description("Build project")),
		Source: &cbtypes.ProjectSource{
			Type:          cbtypes.SourceTypeCodecommit,
			Location:      aws.String(state.Value(KeyRepoCloneHTTP)),
			GitCloneDepth: aws.Int32(1),
		},
		SourceVersion: aws.String("refs/heads/" + p.cfg.Branch),
		Artifacts: &cbtypes.ProjectArtifacts{
			Type: cbtypes.ArtifactsTypeNoArtifacts,
		},
		Environment: &cbtypes.ProjectEnvironment{
			Type:        cbtypes.EnvironmentTypeLinuxContainer,
			ComputeType: cbtypes.ComputeTypeBuildGeneral1Small,
			Image:       aws.String(p.cfg.BuildImage),
			EnvironmentVariables: []cbtypes.EnvironmentVariable{
				{
					Name:  aws.String(constants.EnvSiteBucket),
					Value: aws.String(state.Value(KeyBucketName)),
					Type:  cbtypes.EnvironmentVariableTypePlaintext,
				},
			},
		},
		ServiceRole: aws.String(roleARN),
		LogsConfig: &cbtypes.LogsConfig{
			CloudWatchLogs: &cbtypes.CloudWatchLogsConfig{
				Status: cbtypes.LogsConfigStatusTypeEnabled,
			},
		},
		Tags: utils.MergeTags(func(k, v string) cbtypes.Tag {
			return cbtypes.Tag{Key: aws.String(k), Value: aws.String(v)}
		}, p.tags()),
	}

	var out *codebuild.CreateProjectOutput
	err = p.retryPropagation(ctx, "build project "+p.names.BuildProject, func(ctx context.Context) error {
		var err error
		out, err = p.clients.CodeBuild.CreateProject(ctx, input)
		return err
	})
	if err != nil {
		return conflict(err, fmt.Errorf("failed to create build project %s: %w", p.names.BuildProject, err))
	}
	if out.Project == nil {
		return fmt.Errorf("create build project %s returned no project", p.names.BuildProject)
	}

	state.Set(KeyBuildARN, aws.ToString(out.Project.Arn))
	zerolog.Ctx(ctx).Info().
		Str("project", p.names.BuildProject).
		Str("arn", aws.ToString(out.Project.Arn)).
		Msg("Created build project")
	return nil
}
