// Package di provides a lightweight wrapper around uber's dig dependency injection framework.
// It wires the site configuration, AWS clients and provisioner, and provides
// type-safe dependency retrieval with generics.
package di

import (
	"context"

	"go.uber.org/dig"
)

// Container defines a dependency injection container based on uber's dig.
// This interface allows for easy testing and mocking of the DI container.
type Container interface {
	// Invoke executes a function, injecting its dependencies from the container.
	Invoke(function any, opts ...dig.InvokeOption) error

	// Provide registers a constructor function in the container.
	Provide(constructor any, opts ...dig.ProvideOption) error

	// Scope creates a scoped sub-container with its own set of values.
	Scope(name string, opts ...dig.ScopeOption) *dig.Scope
}

// MustGet returns an instance constructed via dependency injection or panics.
// This is a convenience function for retrieving a dependency from the container
// when you're certain it exists. If the dependency cannot be resolved, it will panic.
//
// Example:
//
//	db := MustGet[*Database](container)
func MustGet[T any](container Container) (want T) {
	callback := func(got T) {
		want = got
	}
	if err := container.Invoke(callback); err != nil {
		panic(err)
	}
	return want
}

// New creates a new dependency injection container for the given project.
// The project name is automatically registered as a string dependency
// that can be injected as a regular string parameter; it seeds the
// configuration below every other source.
//
// Example:
//
//	container, err := New("demo",
//	    WithConfigFile("site.yaml"),
//	    WithOverrides(&config.Config{Region: "eu-west-1"}),
//	)
//	provisioner := MustGet[*orchestrator.Provisioner](container)
func New(project string, opts ...Option) (Container, error) {
	// Build options
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	// Create dig container
	container := dig.New()
	ctx := o.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	if err := container.Provide(func() context.Context { return ctx }); err != nil {
		return nil, err
	}
	if err := container.Provide(func() string { return project }); err != nil {
		return nil, err
	}
	if err := container.Provide(func() ConfigFile { return o.configFile }); err != nil {
		return nil, err
	}
	if err := container.Provide(func() SSMPath { return o.ssmPath }); err != nil {
		return nil, err
	}
	if err := container.Provide(func() Overrides { return Overrides{Config: o.overrides} }); err != nil {
		return nil, err
	}

	// Register core constructors
	for _, provider := range core {
		if err := container.Provide(provider); err != nil {
			return nil, err
		}
	}

	// Register all provided constructors
	for _, provider := range o.providers {
		if err := container.Provide(provider); err != nil {
			return nil, err
		}
	}

	return container, nil
}

var core = []any{
	ProvideSSMClient,
	ProvideSources,
	ProvideAppConfig,
	ProvideAWSConfig,
	ProvideClients,
	ProvideValidator,
	ProvideProvisioner,
}
