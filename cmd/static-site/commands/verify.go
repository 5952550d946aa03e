package commands

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
)

// VerifyCommand returns the verify command
func VerifyCommand(logger *zerolog.Logger) *cli.Command {
	return &cli.Command{
		Name:  "verify",
		Usage: "Report certificate status, distribution status and DNS records",
		Flags: siteFlags(),
		Action: func(c *cli.Context) error {
			provisioner, err := newProvisioner(c)
			if err != nil {
				return err
			}

			report, err := provisioner.Verify(c.Context)
			if err != nil {
				return err
			}
			if err := printJSON(c.App.Writer, report); err != nil {
				return err
			}

			if !report.Healthy() {
				return fmt.Errorf("site is not fully provisioned")
			}
			logger.Info().Str("distribution_id", report.DistributionID).Msg("Site is healthy")
			return nil
		},
	}
}
