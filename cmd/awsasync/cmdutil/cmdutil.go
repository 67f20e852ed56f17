// Package cmdutil holds state shared by the awsasync subcommands.
package cmdutil

import (
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/marmos91/awsasync/internal/cli/output"
	"github.com/marmos91/awsasync/internal/logger"
	"github.com/marmos91/awsasync/pkg/config"
)

// GlobalFlags are the persistent flags of the root command.
type GlobalFlags struct {
	ConfigFile string
	Output     string
	LogLevel   string
	NoColor    bool
}

// Flags is populated by the root command before any subcommand runs.
var Flags GlobalFlags

// Config is the configuration loaded by the root command. It is nil for
// commands that skip runtime setup.
var Config *config.Config

// AnnotationSkipRuntime marks commands that run without loading the
// configuration or starting telemetry, metrics and the default pool.
const AnnotationSkipRuntime = "awsasync/skip-runtime"

// SkipsRuntime reports whether cmd or one of its parents is annotated with
// AnnotationSkipRuntime.
func SkipsRuntime(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if _, ok := c.Annotations[AnnotationSkipRuntime]; ok {
			return true
		}
	}
	return false
}

// GetPrinter returns a printer for cmd's stdout honouring --output and --no-color.
func GetPrinter(cmd *cobra.Command) (*output.Printer, error) {
	format, err := output.ParseFormat(Flags.Output)
	if err != nil {
		return nil, err
	}
	return output.NewPrinter(cmd.OutOrStdout(), format, !Flags.NoColor && isTerminal()), nil
}

// PrintOutput prints data with the command's printer.
func PrintOutput(cmd *cobra.Command, data any) error {
	p, err := GetPrinter(cmd)
	if err != nil {
		return err
	}
	return p.Print(data)
}

// ApplyLogLevel overrides the configured log level with --log-level.
func ApplyLogLevel() error {
	if Flags.LogLevel == "" {
		return nil
	}
	if _, ok := logger.ParseLevel(Flags.LogLevel); !ok {
		return fmt.Errorf("invalid log level %q (valid: debug, info, warn, error)", Flags.LogLevel)
	}
	logger.SetLevel(strings.ToUpper(Flags.LogLevel))
	return nil
}

// IsInteractive reports whether stdin is a terminal, so prompts can be shown.
func IsInteractive() bool {
	return isTTY(os.Stdin)
}

func isTerminal() bool {
	return isTTY(os.Stdout)
}

func isTTY(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
