package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/savaki/static-site/cmd/static-site/commands"
	"github.com/savaki/static-site/internal/di"
	"github.com/urfave/cli/v2"
)

func main() {
	logger := di.ProvideLogger()
	ctx, stop := signal.NotifyContext(logger.WithContext(context.Background()), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.App{
		Name:  "static-site",
		Usage: "Provision a static website on AWS",
		Description: `Creates, inspects and removes the AWS resources that serve a static website.

This tool provides commands for:
  - Provisioning the bucket, repository, build, certificate, CDN and DNS records
  - Printing the plan and every IAM policy without calling AWS
  - Verifying certificate, distribution and DNS state
  - Tearing the site down in reverse order`,
		Commands: []*cli.Command{
			commands.ProvisionCommand(&logger),
			commands.PlanCommand(&logger),
			commands.VerifyCommand(&logger),
			commands.TeardownCommand(&logger),
		},
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		logger.Error().Err(err).Msg("Application error")
		stop()
		os.Exit(1)
	}
}
