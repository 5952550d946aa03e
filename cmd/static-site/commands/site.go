package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/savaki/static-site/internal/config"
	"github.com/savaki/static-site/internal/di"
	"github.com/savaki/static-site/internal/orchestrator"
	"github.com/urfave/cli/v2"
)

// siteFlags are shared by every command. Flags and their environment
// variables win over the config file and Parameter Store.
func siteFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "YAML configuration file",
			EnvVars: []string{"STATIC_SITE_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "ssm-path",
			Usage:   "Parameter Store path holding one parameter per field, e.g. /static-site/demo",
			EnvVars: []string{"STATIC_SITE_SSM_PATH"},
		},
		&cli.StringFlag{
			Name:    "project",
			Usage:   "Project name; prefixes every derived resource name",
			EnvVars: []string{"PROJECT_NAME"},
		},
		&cli.StringFlag{
			Name:    "description",
			Usage:   "Project description",
			EnvVars: []string{"PROJECT_DESCRIPTION"},
		},
		&cli.StringFlag{
			Name:    "domain",
			Usage:   "Site domain, also the bucket name",
			EnvVars: []string{"DOMAIN"},
		},
		&cli.StringFlag{
			Name:    "dns-zone",
			Usage:   "Route53 hosted zone the domain belongs to",
			EnvVars: []string{"DNS_ZONE"},
		},
		&cli.StringFlag{
			Name:    "region",
			Usage:   "AWS region for every resource except the certificate",
			EnvVars: []string{"AWS_REGION"},
		},
		&cli.StringFlag{
			Name:  "branch",
			Usage: "Branch that triggers a build",
		},
		&cli.StringFlag{
			Name:  "artifacts-dir",
			Usage: "Directory holding <handler>/bootstrap binaries",
		},
		&cli.StringFlag{
			Name:    "endpoint-url",
			Usage:   "Alternate AWS endpoint, e.g. http://localhost:4566",
			EnvVars: []string{"AWS_ENDPOINT_URL"},
		},
	}
}

// overridesFromFlags collects every flag that was set into a partial Config
func overridesFromFlags(c *cli.Context) *config.Config {
	return &config.Config{
		ProjectName:        c.String("project"),
		ProjectDescription: c.String("description"),
		Domain:             c.String("domain"),
		DNSZone:            c.String("dns-zone"),
		Region:             c.String("region"),
		Branch:             c.String("branch"),
		ArtifactsDir:       c.String("artifacts-dir"),
		EndpointURL:        c.String("endpoint-url"),
	}
}

func newProvisioner(c *cli.Context) (*orchestrator.Provisioner, error) {
	container, err := di.New(c.String("project"),
		di.WithContext(c.Context),
		di.WithConfigFile(c.String("config")),
		di.WithSSMPath(c.String("ssm-path")),
		di.WithOverrides(overridesFromFlags(c)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create container: %w", err)
	}

	var provisioner *orchestrator.Provisioner
	if err := container.Invoke(func(p *orchestrator.Provisioner) { provisioner = p }); err != nil {
		return nil, err
	}
	return provisioner, nil
}

// confirm reads a yes/no answer; anything but "yes" declines
func confirm(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprintf(out, "%s (yes/no): ", prompt)
	var response string
	if _, err := fmt.Fscanln(in, &response); err != nil {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(response), "yes")
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
