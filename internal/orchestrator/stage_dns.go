package orchestrator

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	r53types "github.com/aws/aws-sdk-go-v2/service/route53/types"
	"github.com/rs/zerolog"
	"github.com/savaki/static-site/internal/constants"
)

func (p *Provisioner) dnsStage() Stage {
	return stage{
		name:     "dns",
		requires: []Key{KeyZoneID, KeyCDNDomain},
		produces: []Key{KeySiteURL},
		run:      p.createAliases,
	}
}

func aliasChange(action r53types.ChangeAction, name string, rrType r53types.RRType, target string) r53types.Change {
	return r53types.Change{
		Action: action,
		ResourceRecordSet: &r53types.ResourceRecordSet{
			Name: aws.String(name),
			Type: rrType,
			AliasTarget: &r53types.AliasTarget{
				DNSName:      aws.String(target),
				HostedZoneId: aws.String(constants.CloudFrontHostedZoneID),
			},
		},
	}
}

// createAliases points the site domain at the distribution. The cdn stage
// only completes once the distribution is deployed.
func (p *Provisioner) createAliases(ctx context.Context, state *State) error {
	domain := p.names.Bucket
	target := state.Value(KeyCDNDomain)

	if err := p.changeRecords(ctx, state.Value(KeyZoneID), "Alias records for "+domain,
		aliasChange(r53types.ChangeActionUpsert, domain, r53types.RRTypeA, target),
		aliasChange(r53types.ChangeActionUpsert, domain, r53types.RRTypeAaaa, target),
	); err != nil {
		return err
	}

	url := "https://" + domain
	state.Set(KeySiteURL, url)
	zerolog.Ctx(ctx).Info().Str("url", url).Str("target", target).Msg("Published alias records")
	return nil
}
