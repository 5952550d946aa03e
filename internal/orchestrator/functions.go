package orchestrator

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	lambdatypes "github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/rs/zerolog"
	"github.com/savaki/static-site/internal/constants"
)

// functionSpec describes one handler deployment
type functionSpec struct {
	Name        string
	Handler     string
	RoleARN     string
	Description string
	Timeout     int32
	Environment map[string]string
}

// createFunction packages and deploys a handler, retrying while its role
// is not yet assumable
func (p *Provisioner) createFunction(ctx context.Context, spec functionSpec) (*lambda.CreateFunctionOutput, error) {
	code, err := p.artifacts(spec.Handler)
	if err != nil {
		return nil, err
	}

	input := &lambda.CreateFunctionInput{
		FunctionName:  aws.String(spec.Name),
		Role:          aws.String(spec.RoleARN),
		Runtime:       lambdatypes.Runtime(constants.HandlerRuntime),
		Handler:       aws.String(constants.HandlerEntrypoint),
		Architectures: []lambdatypes.Architecture{lambdatypes.ArchitectureArm64},
		Code:          &lambdatypes.FunctionCode{ZipFile: code},
		Description:   aws.String(p.description(spec.Description)),
		Timeout:       aws.Int32(spec.Timeout),
		Environment:   &lambdatypes.Environment{Variables: spec.Environment},
		Tags:          p.tags(),
	}

	var out *lambda.CreateFunctionOutput
	err = p.retryPropagation(ctx, "function "+spec.Name, func(ctx context.Context) error {
		var err error
		out, err = p.clients.Lambda.CreateFunction(ctx, input)
		return err
	})
	if err != nil {
		return nil, conflict(err, fmt.Errorf("failed to create function %s: %w", spec.Name, err))
	}

	zerolog.Ctx(ctx).Info().
		Str("function", aws.ToString(out.FunctionName)).
		Str("arn", aws.ToString(out.FunctionArn)).
		Msg("Created function")
	return out, nil
}

// allowInvoke lets a service principal invoke a function for events from
// sourceARN
func (p *Provisioner) allowInvoke(ctx context.Context, function, statementID, principal, sourceARN string) error {
	if _, err := p.clients.Lambda.AddPermission(ctx, &lambda.AddPermissionInput{
		FunctionName: aws.String(function),
		StatementId:  aws.String(statementID),
		Action:       aws.String("lambda:InvokeFunction"),
		Principal:    aws.String(principal),
		SourceArn:    aws.String(sourceARN),
	}); err != nil {
		return fmt.Errorf("failed to allow %s to invoke %s: %w", principal, function, err)
	}
	return nil
}
