package config

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/awsasync/cmd/awsasync/cmdutil"
	"github.com/marmos91/awsasync/internal/cli/prompt"
	"github.com/marmos91/awsasync/pkg/config"
	"github.com/marmos91/awsasync/pkg/gateway"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a sample configuration file",
	Long: `Initialize a sample awsasync configuration file.

By default, the configuration file is created at $XDG_CONFIG_HOME/awsasync/config.yaml.
Use --config to specify a custom path.

Examples:
  # Initialize with default location
  awsasync config init

  # Initialize with custom path
  awsasync config init --config /etc/awsasync/config.yaml

  # Force overwrite existing config
  awsasync config init --force`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Force overwrite existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	path := configPath()
	force := initForce

	err := config.InitConfigToPath(path, force)
	if errors.Is(err, config.ErrConfigExists) && cmdutil.IsInteractive() {
		confirmed, perr := prompt.Confirm(fmt.Sprintf("Overwrite %s", path), false)
		if perr != nil {
			return perr
		}
		if !confirmed {
			return prompt.ErrAborted
		}
		err = config.InitConfigToPath(path, true)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Configuration file created at: %s\n", path)
	fmt.Fprintln(out, "\nNext steps:")
	fmt.Fprintln(out, "  1. Set aws.region (and aws.endpoint for LocalStack or MinIO)")
	fmt.Fprintln(out, "  2. List operations with: awsasync ops s3")
	fmt.Fprintf(out, "  3. Or start the gateway with: awsasync serve --config %s\n", path)
	fmt.Fprintln(out, "\nSecurity note:")
	fmt.Fprintln(out, "  A random gateway JWT secret has been generated for development use.")
	fmt.Fprintln(out, "  For production, generate a secure secret and use an environment variable:")
	fmt.Fprintf(out, "    export %s=$(openssl rand -hex 32)\n", gateway.EnvJWTSecret)

	return nil
}
