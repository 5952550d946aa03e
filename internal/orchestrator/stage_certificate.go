package orchestrator

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/acm"
	acmtypes "github.com/aws/aws-sdk-go-v2/service/acm/types"
	r53types "github.com/aws/aws-sdk-go-v2/service/route53/types"
	"github.com/rs/zerolog"
	"github.com/savaki/static-site/internal/errors"
	"github.com/savaki/static-site/internal/utils"
)

const validationRecordTTL = 300

func (p *Provisioner) certificateStage() Stage {
	return stage{
		name:     "certificate",
		produces: []Key{KeyCertificateARN, KeyZoneID},
		run:      p.issueCertificate,
	}
}

// issueCertificate requests a DNS validated certificate, publishes the
// validation record and waits for issuance
func (p *Provisioner) issueCertificate(ctx context.Context, state *State) error {
	logger := zerolog.Ctx(ctx)
	domain := p.names.Bucket

	requested, err := p.clients.ACM.RequestCertificate(ctx, &acm.RequestCertificateInput{
		DomainName:       aws.String(domain),
		ValidationMethod: acmtypes.ValidationMethodDns,
		Tags: utils.MergeTags(func(k, v string) acmtypes.Tag {
			return acmtypes.Tag{Key: aws.String(k), Value: aws.String(v)}
		}, p.tags()),
	})
	if err != nil {
		return fmt.Errorf("failed to request certificate for %s: %w", domain, err)
	}
	certARN := aws.ToString(requested.CertificateArn)
	state.Set(KeyCertificateARN, certARN)
	logger.Info().Str("certificate", certARN).Msg("Requested certificate")

	record, err := p.validationRecord(ctx, certARN)
	if err != nil {
		return err
	}

	zoneID, err := p.hostedZoneID(ctx)
	if err != nil {
		return err
	}
	state.Set(KeyZoneID, zoneID)

	if err := p.changeRecords(ctx, zoneID, "Certificate validation for "+domain, r53types.Change{
		Action: r53types.ChangeActionUpsert,
		ResourceRecordSet: &r53types.ResourceRecordSet{
			Name:            record.Name,
			Type:            r53types.RRType(record.Type),
			TTL:             aws.Int64(validationRecordTTL),
			ResourceRecords: []r53types.ResourceRecord{{Value: record.Value}},
		},
	}); err != nil {
		return err
	}
	logger.Info().Str("record", aws.ToString(record.Name)).Msg("Published validation record")

	return p.waitForIssued(ctx, certARN)
}

// validationRecord waits until ACM has generated the DNS validation record
func (p *Provisioner) validationRecord(ctx context.Context, certARN string) (*acmtypes.ResourceRecord, error) {
	var record *acmtypes.ResourceRecord
	wait := waitFor("validation record for "+certARN, p.cfg.CertificatePoll, p.cfg.CertificateTimeout)
	err := wait.Poll(ctx, func(ctx context.Context) (bool, error) {
		cert, err := p.describeCertificate(ctx, certARN)
		if err != nil {
			return false, err
		}
		for _, option := range cert.DomainValidationOptions {
			if option.ResourceRecord != nil && aws.ToString(option.ResourceRecord.Name) != "" {
				record = option.ResourceRecord
				return true, nil
			}
		}
		return false, nil
	})
	return record, err
}

// waitForIssued polls the certificate until it is issued or fails
func (p *Provisioner) waitForIssued(ctx context.Context, certARN string) error {
	logger := zerolog.Ctx(ctx)
	wait := waitFor("certificate "+certARN, p.cfg.CertificatePoll, p.cfg.CertificateTimeout)
	return wait.Poll(ctx, func(ctx context.Context) (bool, error) {
		cert, err := p.describeCertificate(ctx, certARN)
		if err != nil {
			return false, err
		}
		switch cert.Status {
		case acmtypes.CertificateStatusIssued:
			logger.Info().Str("certificate", certARN).Msg("Certificate issued")
			return true, nil
		case acmtypes.CertificateStatusPendingValidation:
			return false, nil
		default:
			return false, fmt.Errorf("%w: %s is %s", errors.ErrCertificateFailed, certARN, cert.Status)
		}
	})
}

func (p *Provisioner) describeCertificate(ctx context.Context, certARN string) (*acmtypes.CertificateDetail, error) {
	out, err := p.clients.ACM.DescribeCertificate(ctx, &acm.DescribeCertificateInput{
		CertificateArn: aws.String(certARN),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to describe certificate %s: %w", certARN, err)
	}
	if out.Certificate == nil {
		return nil, fmt.Errorf("certificate %s has no detail", certARN)
	}
	return out.Certificate, nil
}
