package di

import (
	"context"
	"fmt"
	"os"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/rs/zerolog"
	"github.com/savaki/static-site/internal/config"
)

// ProvideSSMClient provides an SSM client for Parameter Store access
// Returns nil if no path was given or SSM is disabled (for local development)
func ProvideSSMClient(ctx context.Context, path SSMPath) (*ssm.Client, error) {
	if path == "" || os.Getenv("DISABLE_SSM") == "true" {
		return nil, nil
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config for parameter store: %w", err)
	}
	return ssm.NewFromConfig(cfg), nil
}

// ProvideSources orders the configuration sources, lowest precedence first:
// the project name, the YAML file, then Parameter Store
func ProvideSources(ctx context.Context, ssmClient *ssm.Client, file ConfigFile, path SSMPath, project string) []config.Source {
	logger := zerolog.Ctx(ctx)

	var sources []config.Source
	if project != "" {
		sources = append(sources, config.StaticSource{Config: config.Config{ProjectName: project}})
	}
	if file != "" {
		logger.Info().Str("file", string(file)).Msg("Using configuration file")
		sources = append(sources, config.NewFileSource(string(file)))
	}
	if ssmClient != nil {
		logger.Info().Str("path", string(path)).Msg("Using AWS Systems Manager Parameter Store for configuration")
		sources = append(sources, config.NewSSMParameterStore(ssmClient, string(path)))
	}
	return sources
}

// ProvideAppConfig loads and validates the site configuration
func ProvideAppConfig(ctx context.Context, sources []config.Source, overrides Overrides) (*config.Config, error) {
	logger := zerolog.Ctx(ctx)

	cfg, err := config.Load(ctx, overrides.Config, sources...)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger.Info().
		Str("project", cfg.ProjectName).
		Str("domain", cfg.Domain).
		Str("dns_zone", cfg.DNSZone).
		Str("region", cfg.Region).
		Bool("has_endpoint_url", cfg.EndpointURL != "").
		Msg("Configuration loaded successfully")

	return cfg, nil
}
