package orchestrator

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"
	"github.com/savaki/static-site/internal/constants"
	"github.com/savaki/static-site/internal/errors"
	"github.com/savaki/static-site/internal/policy"
	"github.com/savaki/static-site/internal/utils"
)

const (
	indexDocument = "index.html"
	errorDocument = "error.html"
)

func (p *Provisioner) storageStage() Stage {
	return stage{
		name:     "storage",
		produces: []Key{KeyBucketName, KeyBucketARN},
		run:      p.createBucket,
	}
}

// createBucket creates the public website bucket. An existing bucket is a
// conflict even when the caller already owns it.
func (p *Provisioner) createBucket(ctx context.Context, state *State) error {
	logger := zerolog.Ctx(ctx)
	bucket := p.names.Bucket

	exists, err := p.bucketExists(ctx, bucket)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: bucket %s", errors.ErrAlreadyExists, bucket)
	}

	input := &s3.CreateBucketInput{
		Bucket:          aws.String(bucket),
		ObjectOwnership: s3types.ObjectOwnershipObjectWriter,
	}
	if p.cfg.Region != constants.DefaultRegion {
		input.CreateBucketConfiguration = &s3types.CreateBucketConfiguration{
			LocationConstraint: s3types.BucketLocationConstraint(p.cfg.Region),
		}
	}
	if _, err := p.clients.S3.CreateBucket(ctx, input); err != nil {
		return conflict(err, fmt.Errorf("failed to create bucket %s: %w", bucket, err))
	}
	logger.Info().Str("bucket", bucket).Msg("Created bucket")

	if _, err := p.clients.S3.DeletePublicAccessBlock(ctx, &s3.DeletePublicAccessBlockInput{
		Bucket: aws.String(bucket),
	}); err != nil {
		return fmt.Errorf("failed to remove public access block from %s: %w", bucket, err)
	}

	if _, err := p.clients.S3.PutBucketAcl(ctx, &s3.PutBucketAclInput{
		Bucket: aws.String(bucket),
		ACL:    s3types.BucketCannedACLPublicRead,
	}); err != nil {
		return fmt.Errorf("failed to set acl on %s: %w", bucket, err)
	}

	if _, err := p.clients.S3.PutBucketTagging(ctx, &s3.PutBucketTaggingInput{
		Bucket: aws.String(bucket),
		Tagging: &s3types.Tagging{
			TagSet: utils.MergeTags(func(k, v string) s3types.Tag {
				return s3types.Tag{Key: aws.String(k), Value: aws.String(v)}
			}, p.tags()),
		},
	}); err != nil {
		return fmt.Errorf("failed to tag bucket %s: %w", bucket, err)
	}

	if _, err := p.clients.S3.PutBucketWebsite(ctx, &s3.PutBucketWebsiteInput{
		Bucket: aws.String(bucket),
		WebsiteConfiguration: &s3types.WebsiteConfiguration{
			IndexDocument: &s3types.IndexDocument{Suffix: aws.String(indexDocument)},
			ErrorDocument: &s3types.ErrorDocument{Key: aws.String(errorDocument)},
		},
	}); err != nil {
		return fmt.Errorf("failed to configure website on %s: %w", bucket, err)
	}

	bucketPolicy, err := policy.BucketPolicy(p.names.BucketARN).JSON()
	if err != nil {
		return err
	}
	if _, err := p.clients.S3.PutBucketPolicy(ctx, &s3.PutBucketPolicyInput{
		Bucket: aws.String(bucket),
		Policy: aws.String(bucketPolicy),
	}); err != nil {
		return fmt.Errorf("failed to put bucket policy on %s: %w", bucket, err)
	}
	logger.Info().Str("bucket", bucket).Msg("Configured website bucket")

	state.Set(KeyBucketName, bucket)
	state.Set(KeyBucketARN, p.names.BucketARN)
	return nil
}

// bucketExists reports whether the bucket name is taken. A forbidden
// response means another account owns it.
func (p *Provisioner) bucketExists(ctx context.Context, bucket string) (bool, error) {
	_, err := p.clients.S3.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(bucket),
	})
	switch {
	case err == nil:
		return true, nil
	case errors.IsNotFound(err):
		return false, nil
	case errors.HasCode(err, "Forbidden", "AccessDenied"):
		return true, nil
	default:
		return false, fmt.Errorf("failed to check bucket %s: %w", bucket, err)
	}
}
