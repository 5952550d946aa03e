package orchestrator

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront"
	cftypes "github.com/aws/aws-sdk-go-v2/service/cloudfront/types"
	"github.com/rs/zerolog"
	"github.com/savaki/static-site/internal/utils"
	"github.com/segmentio/ksuid"
)

const distributionDeployed = "Deployed"

func (p *Provisioner) cdnStage() Stage {
	return stage{
		name:     "cdn",
		requires: []Key{KeyCertificateARN, KeyBucketName},
		produces: []Key{KeyCDNID, KeyCDNARN, KeyCDNDomain},
		run:      p.createDistribution,
	}
}

// distributionConfig is the CDN in front of the bucket's website endpoint
func (p *Provisioner) distributionConfig(certARN string) *cftypes.DistributionConfig {
	domain := p.names.Bucket
	return &cftypes.DistributionConfig{
		CallerReference: aws.String(ksuid.New().String()),
		Comment:         aws.String("Static website cdn"),
		Enabled:         aws.Bool(true),
		Aliases: &cftypes.Aliases{
			Quantity: aws.Int32(1),
			Items:    []string{domain},
		},
		DefaultRootObject: aws.String(indexDocument),
		Origins: &cftypes.Origins{
			Quantity: aws.Int32(1),
			Items: []cftypes.Origin{
				{
					Id:         aws.String(domain),
					DomainName: aws.String(p.names.Origin),
					CustomOriginConfig: &cftypes.CustomOriginConfig{
						HTTPPort:             aws.Int32(80),
						HTTPSPort:            aws.Int32(443),
						OriginProtocolPolicy: cftypes.OriginProtocolPolicy("http-only"),
					},
				},
			},
		},
		DefaultCacheBehavior: &cftypes.DefaultCacheBehavior{
			TargetOriginId:       aws.String(domain),
			ViewerProtocolPolicy: cftypes.ViewerProtocolPolicy("redirect-to-https"),
			ForwardedValues: &cftypes.ForwardedValues{
				QueryString: aws.Bool(false),
				Cookies: &cftypes.CookiePreference{
					Forward: cftypes.ItemSelection("none"),
				},
			},
			TrustedSigners: &cftypes.TrustedSigners{
				Enabled:  aws.Bool(false),
				Quantity: aws.Int32(0),
			},
			MinTTL:     aws.Int64(0),
			DefaultTTL: aws.Int64(86400),
			MaxTTL:     aws.Int64(31536000),
		},
		ViewerCertificate: &cftypes.ViewerCertificate{
			ACMCertificateArn:      aws.String(certARN),
			SSLSupportMethod:       cftypes.SSLSupportMethod("sni-only"),
			MinimumProtocolVersion: cftypes.MinimumProtocolVersion("TLSv1.2_2021"),
		},
		HttpVersion: cftypes.HttpVersion("http2"),
	}
}

// createDistribution creates the CDN and waits until it is deployed
func (p *Provisioner) createDistribution(ctx context.Context, state *State) error {
	logger := zerolog.Ctx(ctx)

	out, err := p.clients.CloudFront.CreateDistributionWithTags(ctx, &cloudfront.CreateDistributionWithTagsInput{
		DistributionConfigWithTags: &cftypes.DistributionConfigWithTags{
			DistributionConfig: p.distributionConfig(state.Value(KeyCertificateARN)),
			Tags: &cftypes.Tags{
				Items: utils.MergeTags(func(k, v string) cftypes.Tag {
					return cftypes.Tag{Key: aws.String(k), Value: aws.String(v)}
				}, p.tags()),
			},
		},
	})
	if err != nil {
		return conflict(err, fmt.Errorf("failed to create distribution for %s: %w", p.names.Bucket, err))
	}
	if out.Distribution == nil {
		return fmt.Errorf("create distribution for %s returned no distribution", p.names.Bucket)
	}

	id := aws.ToString(out.Distribution.Id)
	state.Set(KeyCDNID, id)
	state.Set(KeyCDNARN, aws.ToString(out.Distribution.ARN))
	state.Set(KeyCDNDomain, aws.ToString(out.Distribution.DomainName))
	logger.Info().
		Str("distribution", id).
		Str("domain", aws.ToString(out.Distribution.DomainName)).
		Msg("Created distribution, waiting for deployment")

	return p.waitForDeployed(ctx, id)
}

// waitForDeployed polls the distribution at the CDN interval until its
// status is Deployed
func (p *Provisioner) waitForDeployed(ctx context.Context, id string) error {
	wait := Wait{
		What:        "distribution " + id,
		Interval:    p.cfg.CDNPoll,
		MaxAttempts: p.cfg.CDNMaxAttempts,
	}
	return wait.Poll(ctx, func(ctx context.Context) (bool, error) {
		out, err := p.clients.CloudFront.GetDistribution(ctx, &cloudfront.GetDistributionInput{
			Id: aws.String(id),
		})
		if err != nil {
			return false, fmt.Errorf("failed to get distribution %s: %w", id, err)
		}
		if out.Distribution == nil {
			return false, nil
		}
		status := aws.ToString(out.Distribution.Status)
		zerolog.Ctx(ctx).Info().Str("distribution", id).Str("status", status).Msg("Distribution status")
		return status == distributionDeployed, nil
	})
}
