// Package commands implements the awsasync CLI.
package commands

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/marmos91/awsasync/cmd/awsasync/cmdutil"
	configcmd "github.com/marmos91/awsasync/cmd/awsasync/commands/config"

	// Import prometheus metrics to register init() functions
	_ "github.com/marmos91/awsasync/pkg/metrics/prometheus"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "awsasync",
	Short: "Call blocking AWS SDK clients through awaitable counterparts",
	Long: `awsasync augments AWS SDK clients with an Async counterpart for every
operation. Counterparts run the blocking call on a bounded worker pool and
return a future that is awaited later.

Use "awsasync [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmdutil.SkipsRuntime(cmd) {
			return cmdutil.ApplyLogLevel()
		}
		return setupRuntime(cmd.Context())
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return teardown()
	},
}

// Execute runs the root command. Runtime resources are released even when
// the command fails.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if terr := teardown(); err == nil {
		err = terr
	}
	return err
}

// GetRootCmd returns the root command for testing purposes.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

// teardown is safe to call more than once; only the first call after a
// setup has work to do.
func teardown() error {
	teardownMu.Lock()
	defer teardownMu.Unlock()
	return shutdownRuntime()
}

var teardownMu sync.Mutex

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cmdutil.Flags.ConfigFile, "config", "", "Path to config file (default: $XDG_CONFIG_HOME/awsasync/config.yaml)")
	flags.StringVarP(&cmdutil.Flags.Output, "output", "o", "table", "Output format (table|json|yaml)")
	flags.StringVar(&cmdutil.Flags.LogLevel, "log-level", "", "Override the configured log level (debug|info|warn|error)")
	flags.BoolVar(&cmdutil.Flags.NoColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(opsCmd)
	rootCmd.AddCommand(callCmd)
	rootCmd.AddCommand(benchCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configcmd.Cmd)
	rootCmd.AddCommand(completionCmd)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
