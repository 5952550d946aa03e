package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"
	"github.com/rs/zerolog"
	"github.com/savaki/static-site/internal/errors"
	"github.com/savaki/static-site/internal/policy"
	"github.com/savaki/static-site/internal/utils"
)

// roleSpec describes one policy/role pair
type roleSpec struct {
	Role        string
	Policy      string
	Path        string
	Service     string
	Description string
	Permissions policy.Document
}

func newIAMTag(key, value string) iamtypes.Tag {
	return iamtypes.Tag{Key: aws.String(key), Value: aws.String(value)}
}

// createRole validates and creates the permission policy, creates the role
// trusting spec.Service, attaches the policy and waits until the role is
// visible. It returns the role ARN.
func (p *Provisioner) createRole(ctx context.Context, spec roleSpec) (string, error) {
	logger := zerolog.Ctx(ctx)

	if err := p.validator.Validate(ctx, spec.Policy, spec.Permissions); err != nil {
		return "", err
	}

	permissions, err := spec.Permissions.JSON()
	if err != nil {
		return "", err
	}
	trust, err := policy.TrustPolicy(spec.Service).JSON()
	if err != nil {
		return "", err
	}

	tags := utils.MergeTags(newIAMTag, p.tags())

	createdPolicy, err := p.clients.IAM.CreatePolicy(ctx, &iam.CreatePolicyInput{
		PolicyName:     aws.String(spec.Policy),
		Path:           aws.String(spec.Path),
		PolicyDocument: aws.String(permissions),
		Description:    aws.String(p.description(spec.Description)),
		Tags:           tags,
	})
	if err != nil {
		return "", conflict(err, fmt.Errorf("failed to create policy %s: %w", spec.Policy, err))
	}
	policyARN := aws.ToString(createdPolicy.Policy.Arn)
	logger.Info().Str("policy", policyARN).Msg("Created policy")

	createdRole, err := p.clients.IAM.CreateRole(ctx, &iam.CreateRoleInput{
		RoleName:                 aws.String(spec.Role),
		Path:                     aws.String(spec.Path),
		AssumeRolePolicyDocument: aws.String(trust),
		Description:              aws.String(p.description(spec.Description)),
		Tags:                     tags,
	})
	if err != nil {
		return "", conflict(err, fmt.Errorf("failed to create role %s: %w", spec.Role, err))
	}
	roleARN := aws.ToString(createdRole.Role.Arn)
	logger.Info().Str("role", roleARN).Msg("Created role")

	if _, err := p.clients.IAM.AttachRolePolicy(ctx, &iam.AttachRolePolicyInput{
		RoleName:  aws.String(spec.Role),
		PolicyArn: aws.String(policyARN),
	}); err != nil {
		return "", fmt.Errorf("failed to attach policy %s to role %s: %w", spec.Policy, spec.Role, err)
	}

	if err := p.waitForRole(ctx, spec.Role); err != nil {
		return "", err
	}
	return roleARN, nil
}

// waitForRole waits for a role to be visible to GetRole
func (p *Provisioner) waitForRole(ctx context.Context, roleName string) error {
	wait := waitFor("role "+roleName, p.propagationInterval, p.cfg.RoleWait)
	return wait.Poll(ctx, func(ctx context.Context) (bool, error) {
		_, err := p.clients.IAM.GetRole(ctx, &iam.GetRoleInput{
			RoleName: aws.String(roleName),
		})
		if err == nil {
			return true, nil
		}
		if errors.IsNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get role %s: %w", roleName, err)
	})
}

// isPropagationError matches the errors services return while a freshly
// created role is not yet assumable
func isPropagationError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	switch {
	case errors.HasCode(err, "InvalidParameterValueException"):
		return strings.Contains(msg, "cannot be assumed")
	case errors.HasCode(err, "InvalidInputException"):
		return strings.Contains(msg, "not authorized to perform: sts:AssumeRole")
	}
	return false
}

// retryPropagation calls fn until it succeeds or fails with something other
// than a propagation error, within the role wait bound
func (p *Provisioner) retryPropagation(ctx context.Context, what string, fn func(ctx context.Context) error) error {
	logger := zerolog.Ctx(ctx)
	wait := waitFor(what, p.propagationInterval, p.cfg.RoleWait)
	return wait.Poll(ctx, func(ctx context.Context) (bool, error) {
		err := fn(ctx)
		if err == nil {
			return true, nil
		}
		if isPropagationError(err) {
			logger.Debug().Err(err).Str("what", what).Msg("Role not yet assumable")
			return false, nil
		}
		return false, err
	})
}

// conflict maps create conflicts onto ErrAlreadyExists and leaves every
// other error as wrapped
func conflict(cause, wrapped error) error {
	if errors.IsAlreadyExists(cause) {
		return fmt.Errorf("%w: %w", errors.ErrAlreadyExists, wrapped)
	}
	return wrapped
}
