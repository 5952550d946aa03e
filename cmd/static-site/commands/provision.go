package commands

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"
	"github.com/savaki/static-site/internal/orchestrator"
	"github.com/urfave/cli/v2"
)

// ProvisionCommand returns the provision command, which runs every stage in order
func ProvisionCommand(logger *zerolog.Logger) *cli.Command {
	return &cli.Command{
		Name:  "provision",
		Usage: "Create every resource of the site",
		Description: `Creates the bucket, repository, build project, build trigger, certificate,
distribution, invalidation handler, log cleanup schedule and DNS aliases, in
that order. A failed run leaves what it created in place; use teardown to
remove it. Running twice fails at the bucket.`,
		Flags: append(siteFlags(),
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Show what would be created without creating it",
			},
		),
		Action: func(c *cli.Context) error {
			provisioner, err := newProvisioner(c)
			if err != nil {
				return err
			}

			if c.Bool("dry-run") {
				return writePlan(c, provisioner)
			}

			result, state, err := provisioner.Provision(c.Context)
			if err != nil {
				if state != nil {
					printState(c, state)
				}
				return err
			}

			logger.Info().Str("site_url", result.SiteURL).Msg("Site provisioned")
			w := c.App.Writer
			fmt.Fprintf(w, "Site URL:           %s\n", result.SiteURL)
			fmt.Fprintf(w, "Repository (HTTPS): %s\n", result.CloneURLHTTP)
			fmt.Fprintf(w, "Repository (SSH):   %s\n", result.CloneURLSSH)
			fmt.Fprintf(w, "Distribution:       %s (%s)\n", result.Distribution, result.CDNDomain)
			fmt.Fprintf(w, "Certificate:        %s\n", result.CertificateID)
			return nil
		},
	}
}

// PlanCommand returns the plan command, an alias of provision --dry-run
func PlanCommand(logger *zerolog.Logger) *cli.Command {
	return &cli.Command{
		Name:  "plan",
		Usage: "Print the stage order, derived names and policy documents",
		Flags: siteFlags(),
		Action: func(c *cli.Context) error {
			provisioner, err := newProvisioner(c)
			if err != nil {
				return err
			}
			return writePlan(c, provisioner)
		},
	}
}

func writePlan(c *cli.Context, provisioner *orchestrator.Provisioner) error {
	plan, err := provisioner.Plan(c.Context)
	if err != nil {
		return err
	}
	if err := printJSON(c.App.Writer, plan); err != nil {
		return err
	}
	if !plan.Allowed() {
		return fmt.Errorf("plan contains policy violations")
	}
	return nil
}

// printState lists what a failed run produced, in key order
func printState(c *cli.Context, state *orchestrator.State) {
	snapshot := state.Snapshot()
	if len(snapshot) == 0 {
		return
	}

	keys := make([]string, 0, len(snapshot))
	for k := range snapshot {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)

	fmt.Fprintln(c.App.ErrWriter, "Created before the failure:")
	for _, k := range keys {
		fmt.Fprintf(c.App.ErrWriter, "  %s = %s\n", k, snapshot[orchestrator.Key(k)])
	}
}
