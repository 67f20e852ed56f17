package config

import (
	"github.com/spf13/cobra"

	"github.com/marmos91/awsasync/cmd/awsasync/cmdutil"
	"github.com/marmos91/awsasync/internal/cli/output"
	"github.com/marmos91/awsasync/pkg/config"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Display current configuration",
	Long: `Display the effective awsasync configuration: file values merged with
defaults and AWSASYNC_* environment overrides.

Secrets are never printed. Outputs YAML unless --output json is given.

Examples:
  # Show default config as YAML
  awsasync config show

  # Show as JSON
  awsasync config show -o json`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(cmdutil.Flags.ConfigFile)
	if err != nil {
		return err
	}

	format, err := output.ParseFormat(cmdutil.Flags.Output)
	if err != nil {
		return err
	}

	redacted := *cfg
	if redacted.Gateway.JWTSecret != "" {
		redacted.Gateway.JWTSecret = "<redacted>"
	}
	if redacted.AWS.SecretAccessKey != "" {
		redacted.AWS.SecretAccessKey = "<redacted>"
	}
	if redacted.AWS.SessionToken != "" {
		redacted.AWS.SessionToken = "<redacted>"
	}

	if format == output.FormatJSON {
		return output.PrintJSON(cmd.OutOrStdout(), redacted)
	}
	return output.PrintYAML(cmd.OutOrStdout(), redacted)
}
