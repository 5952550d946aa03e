package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront/types"
	"github.com/rs/zerolog"
	"github.com/savaki/static-site/internal/constants"
	"github.com/savaki/static-site/internal/di"
	"github.com/segmentio/ksuid"
	"github.com/urfave/cli/v2"
)

const defaultSettle = 60 * time.Second

// Invalidator is the subset of the CloudFront client the handler needs
type Invalidator interface {
	CreateInvalidation(ctx context.Context, params *cloudfront.CreateInvalidationInput, optFns ...func(*cloudfront.Options)) (*cloudfront.CreateInvalidationOutput, error)
}

// Handler invalidates every cached object of one distribution after the
// bucket changes
type Handler struct {
	client         Invalidator
	distributionID string
	settle         time.Duration
}

// NewHandler creates a handler for the given distribution
func NewHandler(client Invalidator, distributionID string, settle time.Duration) (*Handler, error) {
	if distributionID == "" {
		return nil, fmt.Errorf("%s is not set", constants.EnvCDNDistributionID)
	}
	return &Handler{
		client:         client,
		distributionID: distributionID,
		settle:         settle,
	}, nil
}

// settleFromEnv parses SETTLE_DELAY, falling back to the default when unset
func settleFromEnv(value string) (time.Duration, error) {
	if value == "" {
		return defaultSettle, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", constants.EnvSettleDelay, value, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid %s %q: must not be negative", constants.EnvSettleDelay, value)
	}
	return d, nil
}

// HandleS3Event waits for the burst of bucket writes to settle, then issues
// a single wildcard invalidation
func (h *Handler) HandleS3Event(ctx context.Context, event events.S3Event) error {
	logger := zerolog.Ctx(ctx)

	logger.Info().
		Int("records", len(event.Records)).
		Dur("settle", h.settle).
		Msg("Bucket changed, waiting before invalidation")

	if h.settle > 0 {
		select {
		case <-time.After(h.settle):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	out, err := h.client.CreateInvalidation(ctx, &cloudfront.CreateInvalidationInput{
		DistributionId: aws.String(h.distributionID),
		InvalidationBatch: &types.InvalidationBatch{
			CallerReference: aws.String(ksuid.New().String()),
			Paths: &types.Paths{
				Quantity: aws.Int32(1),
				Items:    []string{"/*"},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create invalidation for %s: %w", h.distributionID, err)
	}

	invalidationID := ""
	if out.Invalidation != nil {
		invalidationID = aws.ToString(out.Invalidation.Id)
	}
	logger.Info().
		Str("distribution_id", h.distributionID).
		Str("invalidation_id", invalidationID).
		Msg("Created invalidation")

	return nil
}

func main() {
	logger := di.ProvideLogger().With().Str("lambda", "invalidate-cdn").Logger()
	ctx := logger.WithContext(context.Background())

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load AWS config")
	}
	client := cloudfront.NewFromConfig(cfg)

	if os.Getenv("AWS_LAMBDA_RUNTIME_API") != "" {
		settle, err := settleFromEnv(os.Getenv(constants.EnvSettleDelay))
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to read settle delay")
		}
		handler, err := NewHandler(client, os.Getenv(constants.EnvCDNDistributionID), settle)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to create handler")
		}

		wrappedHandler := func(ctx context.Context, event events.S3Event) error {
			ctx = logger.WithContext(ctx)
			return handler.HandleS3Event(ctx, event)
		}
		lambda.Start(wrappedHandler)
		return
	}

	app := &cli.App{
		Name:  "invalidate-cdn",
		Usage: "Invalidate every cached object of a distribution",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "distribution-id",
				Usage:   "CloudFront distribution id",
				EnvVars: []string{constants.EnvCDNDistributionID},
			},
			&cli.DurationFlag{
				Name:  "settle",
				Usage: "Delay before the invalidation is issued",
				Value: 0,
			},
		},
		Action: func(c *cli.Context) error {
			handler, err := NewHandler(client, c.String("distribution-id"), c.Duration("settle"))
			if err != nil {
				return err
			}
			return handler.HandleS3Event(logger.WithContext(c.Context), events.S3Event{})
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Error().Err(err).Msg("Application error")
		os.Exit(1)
	}
}
