package commands

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
)

// TeardownCommand returns the teardown command
func TeardownCommand(logger *zerolog.Logger) *cli.Command {
	return &cli.Command{
		Name:  "teardown",
		Usage: "Remove every resource of the site in reverse order",
		Description: `Deletes the DNS aliases, schedule, handlers, roles, distribution,
certificate, build project, repository and bucket (including its objects).
Resources that do not exist are skipped, so teardown may be re-run.

Examples:
  # Delete without confirmation prompt
  static-site teardown --config site.yaml --force`,
		Flags: append(siteFlags(),
			&cli.BoolFlag{
				Name:    "force",
				Aliases: []string{"f"},
				Usage:   "Skip confirmation prompt",
			},
		),
		Action: func(c *cli.Context) error {
			provisioner, err := newProvisioner(c)
			if err != nil {
				return err
			}

			if !c.Bool("force") {
				prompt := fmt.Sprintf("This deletes every resource of %s, including the bucket contents. Are you sure?", provisioner.Domain())
				if !confirm(os.Stdin, c.App.Writer, prompt) {
					fmt.Fprintln(c.App.Writer, "Teardown cancelled")
					return nil
				}
			}

			if err := provisioner.Teardown(c.Context); err != nil {
				return err
			}
			logger.Info().Msg("Teardown complete")
			return nil
		},
	}
}
