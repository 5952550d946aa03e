// Package orchestrator provisions, inspects and removes the AWS resources
// behind a static website.
package orchestrator

import (
	"context"
	"time"

	"github.com/savaki/static-site/internal/artifact"
	"github.com/savaki/static-site/internal/config"
	"github.com/savaki/static-site/internal/constants"
	"github.com/savaki/static-site/internal/policy"
	"github.com/savaki/static-site/internal/utils"
)

// defaultPropagationInterval spaces retries while IAM changes propagate
const defaultPropagationInterval = 2 * time.Second

// Provisioner builds the stage list for one site
type Provisioner struct {
	cfg       *config.Config
	names     config.Names
	clients   Clients
	validator *policy.Validator

	artifacts           func(handler string) ([]byte, error)
	propagationInterval time.Duration
}

// Option customizes a Provisioner
type Option func(*Provisioner)

// WithArtifacts replaces the handler packager
func WithArtifacts(fn func(handler string) ([]byte, error)) Option {
	return func(p *Provisioner) {
		p.artifacts = fn
	}
}

// WithPropagationInterval sets the retry spacing used while roles propagate
func WithPropagationInterval(d time.Duration) Option {
	return func(p *Provisioner) {
		p.propagationInterval = d
	}
}

// New creates a Provisioner for cfg
func New(cfg *config.Config, clients Clients, validator *policy.Validator, opts ...Option) *Provisioner {
	p := &Provisioner{
		cfg:                 cfg,
		names:               cfg.Names(),
		clients:             clients,
		validator:           validator,
		propagationInterval: defaultPropagationInterval,
	}
	p.artifacts = func(handler string) ([]byte, error) {
		return artifact.Package(cfg.ArtifactsDir, handler)
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Result is what the operator needs after a successful run
type Result struct {
	SiteURL       string `json:"site_url"`
	CloneURLHTTP  string `json:"clone_url_http"`
	CloneURLSSH   string `json:"clone_url_ssh"`
	Distribution  string `json:"distribution_id"`
	CDNDomain     string `json:"cdn_domain"`
	CertificateID string `json:"certificate_arn"`
}

// Stages returns the provisioning stages in run order
func (p *Provisioner) Stages() []Stage {
	return []Stage{
		p.storageStage(),
		p.repositoryStage(),
		p.buildStage(),
		p.triggerStage(),
		p.certificateStage(),
		p.cdnStage(),
		p.invalidationStage(),
		p.logCleanupStage(),
		p.dnsStage(),
	}
}

// Sequencer returns a Sequencer over Stages
func (p *Provisioner) Sequencer() *Sequencer {
	return NewSequencer(p.Stages()...)
}

// Provision runs every stage. On failure the partial state is still
// returned so the operator can see what was created.
func (p *Provisioner) Provision(ctx context.Context) (*Result, *State, error) {
	seq := p.Sequencer()
	if err := seq.Validate(); err != nil {
		return nil, nil, err
	}

	state := NewState()
	if err := seq.Run(ctx, state); err != nil {
		return nil, state, err
	}

	return &Result{
		SiteURL:       state.Value(KeySiteURL),
		CloneURLHTTP:  state.Value(KeyRepoCloneHTTP),
		CloneURLSSH:   state.Value(KeyRepoCloneSSH),
		Distribution:  state.Value(KeyCDNID),
		CDNDomain:     state.Value(KeyCDNDomain),
		CertificateID: state.Value(KeyCertificateARN),
	}, state, nil
}

// tags returns the default tags merged with the configured ones
func (p *Provisioner) tags() map[string]string {
	return utils.MergeMaps(
		map[string]string{
			"Name":                 p.names.Bucket,
			"Project":              p.cfg.ProjectName,
			constants.ManagedByTag: constants.ManagedByValue,
		},
		p.cfg.Tags,
	)
}

func (p *Provisioner) description(what string) string {
	return what + ". Part of " + p.cfg.ProjectDescription
}

// Domain returns the site domain
func (p *Provisioner) Domain() string {
	return p.cfg.Domain
}
