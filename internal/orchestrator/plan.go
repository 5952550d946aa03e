package orchestrator

import (
	"context"
	"fmt"

	"github.com/savaki/static-site/internal/config"
	"github.com/savaki/static-site/internal/policy"
)

// PlannedStage is one stage as it would run
type PlannedStage struct {
	Name     string `json:"name"`
	Requires []Key  `json:"requires,omitempty"`
	Produces []Key  `json:"produces"`
}

// PlannedPolicy is a permission policy as it would be created
type PlannedPolicy struct {
	Name       string          `json:"name"`
	Role       string          `json:"role"`
	Path       string          `json:"path"`
	Document   policy.Document `json:"document"`
	Violations []string        `json:"violations,omitempty"`
}

// Plan describes a run without calling any API
type Plan struct {
	Names    config.Names    `json:"names"`
	Stages   []PlannedStage  `json:"stages"`
	Bucket   policy.Document `json:"bucket_policy"`
	Policies []PlannedPolicy `json:"policies"`
}

// Allowed reports whether every planned policy passed validation
func (p *Plan) Allowed() bool {
	for _, pp := range p.Policies {
		if len(pp.Violations) > 0 {
			return false
		}
	}
	return true
}

// Plan renders the stage order, derived names and every policy document.
// ARNs that only exist after creation are shown as placeholders.
func (p *Provisioner) Plan(ctx context.Context) (*Plan, error) {
	seq := p.Sequencer()
	if err := seq.Validate(); err != nil {
		return nil, err
	}

	plan := &Plan{
		Names:  p.names,
		Bucket: policy.BucketPolicy(p.names.BucketARN),
	}
	for _, s := range seq.Stages() {
		plan.Stages = append(plan.Stages, PlannedStage{
			Name:     s.Name(),
			Requires: s.Requires(),
			Produces: s.Produces(),
		})
	}

	region := p.cfg.Region
	repoARN := fmt.Sprintf("arn:aws:codecommit:%s:<account>:%s", region, p.names.Repository)
	projectARN := fmt.Sprintf("arn:aws:codebuild:%s:<account>:project/%s", region, p.names.BuildProject)
	distributionARN := "arn:aws:cloudfront::<account>:distribution/<id>"

	specs := []roleSpec{
		{
			Role:        p.names.Roles.Build,
			Policy:      p.names.Policies.Build,
			Path:        p.names.Paths.Build,
			Permissions: policy.BuildPolicy(repoARN, p.names.BucketARN),
		},
		{
			Role:        p.names.Roles.Trigger,
			Policy:      p.names.Policies.Trigger,
			Path:        p.names.Paths.Trigger,
			Permissions: policy.TriggerPolicy(repoARN, projectARN),
		},
		{
			Role:        p.names.Roles.Invalidation,
			Policy:      p.names.Policies.Invalidation,
			Path:        p.names.Paths.Invalidation,
			Permissions: policy.InvalidationPolicy(distributionARN),
		},
		{
			Role:        p.names.Roles.LogCleanup,
			Policy:      p.names.Policies.LogCleanup,
			Path:        p.names.Paths.LogCleanup,
			Permissions: policy.LogCleanupPolicy(p.names.BuildProject, p.names.TriggerFunction, p.names.InvalidationFunction),
		},
	}

	for _, spec := range specs {
		result, err := p.validator.Evaluate(ctx, spec.Permissions)
		if err != nil {
			return nil, err
		}
		plan.Policies = append(plan.Policies, PlannedPolicy{
			Name:       spec.Policy,
			Role:       spec.Role,
			Path:       spec.Path,
			Document:   spec.Permissions,
			Violations: result.Violations,
		})
	}

	return plan, nil
}
