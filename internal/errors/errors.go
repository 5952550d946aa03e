package errors

import (
	"errors"

	"github.com/aws/smithy-go"
)

var (
	ErrInvalidConfig      = errors.New("invalid configuration")
	ErrAlreadyExists      = errors.New("resource already exists")
	ErrTimeout            = errors.New("timed out waiting for resource")
	ErrCertificateFailed  = errors.New("certificate validation failed")
	ErrHostedZoneNotFound = errors.New("hosted zone not found")
	ErrPolicyViolation    = errors.New("policy document violates permission scoping")
	ErrMissingInput       = errors.New("stage input not produced by an earlier stage")
	ErrArtifactNotFound   = errors.New("handler artifact not found")
)

// Is reports whether any error in err's tree matches target
func Is(err, target error) bool { return errors.Is(err, target) }

// As finds the first error in err's tree that matches target
func As(err error, target any) bool { return errors.As(err, target) }

// Join wraps errs into a single error, or nil when all are nil
func Join(errs ...error) error { return errors.Join(errs...) }

// HasCode reports whether err carries one of the given AWS API error codes.
func HasCode(err error, codes ...string) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	for _, code := range codes {
		if apiErr.ErrorCode() == code {
			return true
		}
	}
	return false
}

// IsNotFound reports whether err is one of the "does not exist" codes used
// by the services this tool talks to.
func IsNotFound(err error) bool {
	return HasCode(err,
		"NotFound",
		"NoSuchBucket",
		"NoSuchEntity",
		"NoSuchDistribution",
		"NoSuchHostedZone",
		"ResourceNotFoundException",
		"RepositoryDoesNotExistException",
	)
}

// IsAlreadyExists reports whether err is a create conflict.
func IsAlreadyExists(err error) bool {
	return HasCode(err,
		"BucketAlreadyExists",
		"BucketAlreadyOwnedByYou",
		"EntityAlreadyExists",
		"RepositoryNameExistsException",
		"ResourceAlreadyExistsException",
		"ResourceConflictException",
		"DistributionAlreadyExists",
		"CNAMEAlreadyExists",
	)
}
