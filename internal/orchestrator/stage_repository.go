package orchestrator

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/codecommit"
	"github.com/rs/zerolog"
)

func (p *Provisioner) repositoryStage() Stage {
	return stage{
		name:     "repository",
		produces: []Key{KeyRepoARN, KeyRepoCloneHTTP, KeyRepoCloneSSH},
		run:      p.createRepository,
	}
}

func (p *Provisioner) createRepository(ctx context.Context, state *State) error {
	out, err := p.clients.CodeCommit.CreateRepository(ctx, &codecommit.CreateRepositoryInput{
		RepositoryName:        aws.String(p.names.Repository),
		RepositoryDescription: aws.String("Software repository for " + p.cfg.ProjectDescription),
		Tags:                  p.tags(),
	})
	if err != nil {
		return conflict(err, fmt.Errorf("failed to create repository %s: %w", p.names.Repository, err))
	}
	if out.RepositoryMetadata == nil {
		return fmt.Errorf("create repository %s returned no metadata", p.names.Repository)
	}

	meta := out.RepositoryMetadata
	state.Set(KeyRepoARN, aws.ToString(meta.Arn))
	state.Set(KeyRepoCloneHTTP, aws.ToString(meta.CloneUrlHttp))
	state.Set(KeyRepoCloneSSH, aws.ToString(meta.CloneUrlSsh))

	zerolog.Ctx(ctx).Info().
		Str("repository", p.names.Repository).
		Str("clone_url", aws.ToString(meta.CloneUrlSsh)).
		Msg("Created repository")
	return nil
}
