package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/acm"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront"
	cftypes "github.com/aws/aws-sdk-go-v2/service/cloudfront/types"
	r53types "github.com/aws/aws-sdk-go-v2/service/route53/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// Report is the observed state of a provisioned site
type Report struct {
	Account            string   `json:"account"`
	CertificateARN     string   `json:"certificate_arn,omitempty"`
	CertificateStatus  string   `json:"certificate_status,omitempty"`
	DistributionID     string   `json:"distribution_id,omitempty"`
	DistributionStatus string   `json:"distribution_status,omitempty"`
	DistributionDomain string   `json:"distribution_domain,omitempty"`
	Records            []string `json:"records,omitempty"`
}

// Healthy reports whether the site is fully served
func (r *Report) Healthy() bool {
	return r.CertificateStatus == "ISSUED" &&
		r.DistributionStatus == distributionDeployed &&
		len(r.Records) == 2
}

// Verify looks up the certificate, distribution and alias records of the
// site. Missing resources leave their fields empty.
func (p *Provisioner) Verify(ctx context.Context) (*Report, error) {
	identity, err := p.clients.STS.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return nil, fmt.Errorf("failed to get caller identity: %w", err)
	}
	report := &Report{Account: aws.ToString(identity.Account)}

	certARN, err := p.findCertificate(ctx)
	if err != nil {
		return nil, err
	}
	if certARN != "" {
		cert, err := p.describeCertificate(ctx, certARN)
		if err != nil {
			return nil, err
		}
		report.CertificateARN = certARN
		report.CertificateStatus = string(cert.Status)
	}

	dist, err := p.findDistribution(ctx)
	if err != nil {
		return nil, err
	}
	if dist != nil {
		report.DistributionID = aws.ToString(dist.Id)
		report.DistributionStatus = aws.ToString(dist.Status)
		report.DistributionDomain = aws.ToString(dist.DomainName)
	}

	zoneID, err := p.hostedZoneID(ctx)
	if err != nil {
		return nil, err
	}
	records, err := p.findRecords(ctx, zoneID, p.names.Bucket, r53types.RRTypeA, r53types.RRTypeAaaa)
	if err != nil {
		return nil, err
	}
	for _, rrs := range records {
		target := ""
		if rrs.AliasTarget != nil {
			target = aws.ToString(rrs.AliasTarget.DNSName)
		}
		report.Records = append(report.Records, fmt.Sprintf("%s %s -> %s", aws.ToString(rrs.Name), rrs.Type, target))
	}

	return report, nil
}

// findCertificate returns the ARN of the certificate issued for the site
// domain, or "" when none exists
func (p *Provisioner) findCertificate(ctx context.Context) (string, error) {
	paginator := acm.NewListCertificatesPaginator(p.clients.ACM, &acm.ListCertificatesInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return "", fmt.Errorf("failed to list certificates: %w", err)
		}
		for _, summary := range page.CertificateSummaryList {
			if strings.EqualFold(aws.ToString(summary.DomainName), p.names.Bucket) {
				return aws.ToString(summary.CertificateArn), nil
			}
		}
	}
	return "", nil
}

// findDistribution returns the distribution aliased to the site domain
func (p *Provisioner) findDistribution(ctx context.Context) (*cftypes.DistributionSummary, error) {
	var marker *string
	for {
		out, err := p.clients.CloudFront.ListDistributions(ctx, &cloudfront.ListDistributionsInput{
			Marker: marker,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list distributions: %w", err)
		}
		if out.DistributionList == nil {
			return nil, nil
		}
		for _, summary := range out.DistributionList.Items {
			if summary.Aliases == nil {
				continue
			}
			for _, alias := range summary.Aliases.Items {
				if strings.EqualFold(alias, p.names.Bucket) {
					return &summary, nil
				}
			}
		}
		if !aws.ToBool(out.DistributionList.IsTruncated) {
			return nil, nil
		}
		marker = out.DistributionList.NextMarker
	}
}
