package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/route53"
	r53types "github.com/aws/aws-sdk-go-v2/service/route53/types"
	"github.com/savaki/static-site/internal/errors"
)

func fqdn(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if strings.HasSuffix(name, ".") {
		return name
	}
	return name + "."
}

// hostedZoneID resolves the configured zone to its bare id
func (p *Provisioner) hostedZoneID(ctx context.Context) (string, error) {
	zone := fqdn(p.cfg.DNSZone)
	out, err := p.clients.Route53.ListHostedZonesByName(ctx, &route53.ListHostedZonesByNameInput{
		DNSName: aws.String(zone),
	})
	if err != nil {
		return "", fmt.Errorf("failed to list hosted zones for %s: %w", zone, err)
	}
	for _, hz := range out.HostedZones {
		if fqdn(aws.ToString(hz.Name)) == zone {
			return strings.TrimPrefix(aws.ToString(hz.Id), "/hostedzone/"), nil
		}
	}
	return "", fmt.Errorf("%w: %s", errors.ErrHostedZoneNotFound, p.cfg.DNSZone)
}

// changeRecords applies the given changes to a zone
func (p *Provisioner) changeRecords(ctx context.Context, zoneID, comment string, changes ...r53types.Change) error {
	if _, err := p.clients.Route53.ChangeResourceRecordSets(ctx, &route53.ChangeResourceRecordSetsInput{
		HostedZoneId: aws.String(zoneID),
		ChangeBatch: &r53types.ChangeBatch{
			Comment: aws.String(comment),
			Changes: changes,
		},
	}); err != nil {
		return fmt.Errorf("failed to change records in zone %s: %w", zoneID, err)
	}
	return nil
}

// findRecords returns the record sets in zoneID named name with one of types
func (p *Provisioner) findRecords(ctx context.Context, zoneID, name string, types ...r53types.RRType) ([]r53types.ResourceRecordSet, error) {
	name = fqdn(name)
	out, err := p.clients.Route53.ListResourceRecordSets(ctx, &route53.ListResourceRecordSetsInput{
		HostedZoneId:    aws.String(zoneID),
		StartRecordName: aws.String(name),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list records for %s: %w", name, err)
	}

	var found []r53types.ResourceRecordSet
	for _, rrs := range out.ResourceRecordSets {
		if fqdn(aws.ToString(rrs.Name)) != name {
			continue
		}
		for _, t := range types {
			if rrs.Type == t {
				found = append(found, rrs)
				break
			}
		}
	}
	return found, nil
}
