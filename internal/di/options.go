package di

import (
	"context"

	"github.com/savaki/static-site/internal/config"
)

// ConfigFile is the path of an optional YAML configuration file
type ConfigFile string

// SSMPath is the Parameter Store path configuration is read from; empty skips it
type SSMPath string

// Overrides holds values set on the command line; they win over every source
type Overrides struct {
	*config.Config
}

// Option is a function that configures the dependency injection container.
type Option func(*options)

// WithContext sets the context handed to providers. It should carry the logger.
func WithContext(ctx context.Context) Option {
	return func(opts *options) {
		opts.ctx = ctx
	}
}

func WithConfigFile(path string) Option {
	return func(opts *options) {
		opts.configFile = ConfigFile(path)
	}
}

func WithSSMPath(path string) Option {
	return func(opts *options) {
		opts.ssmPath = SSMPath(path)
	}
}

func WithOverrides(cfg *config.Config) Option {
	return func(opts *options) {
		opts.overrides = cfg
	}
}

// WithProviders adds constructor functions to the dependency injection container.
// Each provider should be a constructor function that returns one or more values.
// Providers can declare dependencies as function parameters, which will be
// automatically resolved by the container.
//
// Example:
//
//	WithProviders(
//	    func() *Database { return &Database{} },
//	    func(db *Database) *Service { return &Service{DB: db} },
//	)
func WithProviders(providers ...any) Option {
	return func(opts *options) {
		opts.providers = append(opts.providers, providers...)
	}
}

type options struct {
	ctx        context.Context
	configFile ConfigFile
	ssmPath    SSMPath
	overrides  *config.Config
	providers  []any
}
