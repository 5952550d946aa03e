package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/codebuild"
	"github.com/rs/zerolog"
	"github.com/savaki/static-site/internal/constants"
	"github.com/savaki/static-site/internal/di"
	"github.com/urfave/cli/v2"
)

// BuildStarter is the subset of the CodeBuild client the handler needs
type BuildStarter interface {
	StartBuild(ctx context.Context, params *codebuild.StartBuildInput, optFns ...func(*codebuild.Options)) (*codebuild.StartBuildOutput, error)
}

// Handler starts one build of the site project for every repository event
type Handler struct {
	client  BuildStarter
	project string
}

// NewHandler creates a handler bound to the named build project
func NewHandler(client BuildStarter, project string) (*Handler, error) {
	if project == "" {
		return nil, fmt.Errorf("%s is not set", constants.EnvBuildProjectName)
	}
	return &Handler{
		client:  client,
		project: project,
	}, nil
}

// HandleEvent ignores the event body; any push to the watched branch rebuilds the site
func (h *Handler) HandleEvent(ctx context.Context, event json.RawMessage) error {
	logger := zerolog.Ctx(ctx)

	out, err := h.client.StartBuild(ctx, &codebuild.StartBuildInput{
		ProjectName: aws.String(h.project),
	})
	if err != nil {
		return fmt.Errorf("failed to start build of %s: %w", h.project, err)
	}

	buildID := ""
	if out.Build != nil {
		buildID = aws.ToString(out.Build.Id)
	}
	logger.Info().
		Str("project", h.project).
		Str("build_id", buildID).
		Int("event_bytes", len(event)).
		Msg("Started build")

	return nil
}

func main() {
	logger := di.ProvideLogger().With().Str("lambda", "trigger-build").Logger()
	ctx := logger.WithContext(context.Background())

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load AWS config")
	}

	if os.Getenv("AWS_LAMBDA_RUNTIME_API") != "" {
		handler, err := NewHandler(codebuild.NewFromConfig(cfg), os.Getenv(constants.EnvBuildProjectName))
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to create handler")
		}

		wrappedHandler := func(ctx context.Context, event json.RawMessage) error {
			ctx = logger.WithContext(ctx)
			return handler.HandleEvent(ctx, event)
		}
		lambda.Start(wrappedHandler)
		return
	}

	app := &cli.App{
		Name:  "trigger-build",
		Usage: "Start a build of the site project",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "project",
				Usage:   "Build project name",
				EnvVars: []string{constants.EnvBuildProjectName},
			},
		},
		Action: func(c *cli.Context) error {
			handler, err := NewHandler(codebuild.NewFromConfig(cfg), c.String("project"))
			if err != nil {
				return err
			}
			return handler.HandleEvent(logger.WithContext(c.Context), json.RawMessage(`{}`))
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Error().Err(err).Msg("Application error")
		os.Exit(1)
	}
}
