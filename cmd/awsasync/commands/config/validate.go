package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/awsasync/cmd/awsasync/cmdutil"
	"github.com/marmos91/awsasync/internal/cli/output"
	"github.com/marmos91/awsasync/pkg/awsclient"
	"github.com/marmos91/awsasync/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate the awsasync configuration file.

Checks for syntax errors, missing required fields, and invalid values.

Examples:
  # Validate default config
  awsasync config validate

  # Validate specific config file
  awsasync config validate --config /etc/awsasync/config.yaml`,
	Args: cobra.NoArgs,
	RunE: runConfigValidate,
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(cmdutil.Flags.ConfigFile)
	if err != nil {
		return err
	}

	warnings := Warnings(cfg)

	p, err := cmdutil.GetPrinter(cmd)
	if err != nil {
		return err
	}

	p.Printf("Configuration file: %s\n", configPath())
	p.Success("Validation: OK")

	if len(warnings) > 0 {
		p.Println("\nWarnings:")
		for _, w := range warnings {
			p.Warning("  - " + w)
		}
	}

	p.Println("\nConfiguration summary:")
	return output.PrintKeyValues(p.Writer(), [][2]string{
		{"Workers", fmt.Sprint(cfg.Offload.Workers)},
		{"Executor", cfg.Offload.Executor},
		{"AWS region", orDefault(cfg.AWS.Region, "(SDK default)")},
		{"Gateway port", fmt.Sprint(cfg.Gateway.Port)},
		{"Gateway services", fmt.Sprint(cfg.Gateway.Services)},
		{"Log level", cfg.Logging.Level},
	})
}

// Warnings returns the problems of cfg that do not make it invalid.
func Warnings(cfg *config.Config) []string {
	var warnings []string

	if !cfg.Gateway.HasJWTSecret() {
		warnings = append(warnings, "Gateway JWT secret not configured - the API will accept unauthenticated requests")
	}

	known := make(map[string]bool)
	for _, s := range awsclient.Services() {
		known[s] = true
	}
	for _, s := range cfg.Gateway.Services {
		if !known[s] {
			warnings = append(warnings, fmt.Sprintf("Gateway service %q is not available (available: %v)", s, awsclient.Services()))
		}
	}

	if cfg.AWS.Region == "" && cfg.AWS.Endpoint == "" {
		warnings = append(warnings, "AWS region not configured - relying on AWS_REGION or the shared config")
	}

	if cfg.Metrics.Enabled && cfg.Metrics.Port == cfg.Gateway.Port {
		warnings = append(warnings, "Metrics port equals gateway port - metrics are only served by the gateway")
	}

	return warnings
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
