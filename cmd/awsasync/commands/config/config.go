// Package config implements configuration management subcommands.
package config

import (
	"github.com/spf13/cobra"

	"github.com/marmos91/awsasync/cmd/awsasync/cmdutil"
	"github.com/marmos91/awsasync/pkg/config"
)

// Cmd is the config subcommand.
var Cmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management",
	Long: `Manage awsasync configuration files.

Subcommands:
  init      Create a sample configuration file
  show      Display current configuration
  validate  Validate configuration file
  schema    Generate JSON schema for IDE/validation`,
	Annotations: map[string]string{cmdutil.AnnotationSkipRuntime: "true"},
}

func init() {
	Cmd.AddCommand(initCmd)
	Cmd.AddCommand(showCmd)
	Cmd.AddCommand(validateCmd)
	Cmd.AddCommand(schemaCmd)
}

// configPath returns --config or the default location.
func configPath() string {
	if cmdutil.Flags.ConfigFile != "" {
		return cmdutil.Flags.ConfigFile
	}
	return config.GetDefaultConfigPath()
}
