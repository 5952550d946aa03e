package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/rs/zerolog"
	"github.com/savaki/static-site/internal/constants"
	"github.com/savaki/static-site/internal/di"
	"github.com/savaki/static-site/internal/errors"
	"github.com/urfave/cli/v2"
)

// LogGroupDeleter is the subset of the CloudWatch Logs client the handler needs
type LogGroupDeleter interface {
	DeleteLogGroup(ctx context.Context, params *cloudwatchlogs.DeleteLogGroupInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.DeleteLogGroupOutput, error)
}

// Handler deletes the site's log groups on a schedule
type Handler struct {
	client LogGroupDeleter
	groups []string
}

// NewHandler creates a handler for the given log groups. Empty names are skipped.
func NewHandler(client LogGroupDeleter, groups ...string) *Handler {
	var names []string
	for _, g := range groups {
		if g != "" {
			names = append(names, g)
		}
	}
	return &Handler{
		client: client,
		groups: names,
	}
}

// groupsFromEnv returns the build, trigger and invalidation log groups
func groupsFromEnv() []string {
	return []string{
		os.Getenv(constants.EnvBuildLog),
		os.Getenv(constants.EnvTriggerLog),
		os.Getenv(constants.EnvCDNInvalidationLog),
	}
}

// HandleEvent deletes every group. A group that does not exist yet is not an
// error; other failures are collected so one bad group does not stop the rest.
func (h *Handler) HandleEvent(ctx context.Context, event events.CloudWatchEvent) error {
	logger := zerolog.Ctx(ctx)

	var errs []error
	deleted := 0
	for _, group := range h.groups {
		_, err := h.client.DeleteLogGroup(ctx, &cloudwatchlogs.DeleteLogGroupInput{
			LogGroupName: aws.String(group),
		})
		switch {
		case err == nil:
			deleted++
			logger.Info().Str("log_group", group).Msg("Deleted log group")
		case errors.IsNotFound(err):
			logger.Debug().Str("log_group", group).Msg("Log group does not exist")
		default:
			logger.Error().Err(err).Str("log_group", group).Msg("Failed to delete log group")
			errs = append(errs, fmt.Errorf("failed to delete log group %s: %w", group, err))
		}
	}

	logger.Info().
		Str("event_id", event.ID).
		Int("deleted", deleted).
		Int("failed", len(errs)).
		Msg("Log cleanup complete")

	return errors.Join(errs...)
}

func main() {
	logger := di.ProvideLogger().With().Str("lambda", "log-cleanup").Logger()
	ctx := logger.WithContext(context.Background())

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load AWS config")
	}
	client := cloudwatchlogs.NewFromConfig(cfg)

	if os.Getenv("AWS_LAMBDA_RUNTIME_API") != "" {
		handler := NewHandler(client, groupsFromEnv()...)

		wrappedHandler := func(ctx context.Context, event events.CloudWatchEvent) error {
			ctx = logger.WithContext(ctx)
			return handler.HandleEvent(ctx, event)
		}
		lambda.Start(wrappedHandler)
		return
	}

	app := &cli.App{
		Name:  "log-cleanup",
		Usage: "Delete the site's build and handler log groups",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:  "group",
				Usage: "Log group to delete (repeatable); defaults to the handler environment",
			},
		},
		Action: func(c *cli.Context) error {
			groups := c.StringSlice("group")
			if len(groups) == 0 {
				groups = groupsFromEnv()
			}
			handler := NewHandler(client, groups...)
			return handler.HandleEvent(logger.WithContext(c.Context), events.CloudWatchEvent{ID: "cli"})
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Error().Err(err).Msg("Application error")
		os.Exit(1)
	}
}
