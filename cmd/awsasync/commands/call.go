package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/marmos91/awsasync/cmd/awsasync/cmdutil"
	"github.com/marmos91/awsasync/internal/cli/prompt"
	"github.com/marmos91/awsasync/internal/logger"
	"github.com/marmos91/awsasync/pkg/augment"
	"github.com/marmos91/awsasync/pkg/awsclient"
)

var (
	callInput     string
	callInputFile string
	callTimeout   time.Duration
)

var callCmd = &cobra.Command{
	Use:   "call <service> [operation]",
	Short: "Invoke an operation through its Async counterpart",
	Long: `Invoke one operation of a service through its Async counterpart and
print the result once the future resolves.

The operation may be given as the metadata identifier (list_buckets), the
method name (ListBuckets) or the counterpart name (ListBucketsAsync). Without
an operation an interactive picker is shown.

SDK operations take their input as a JSON object with the SDK field names.
Other operations take a JSON array of positional arguments.

Examples:
  # List buckets
  awsasync call s3 ListBuckets

  # Head an object
  awsasync call s3 head_object --input '{"Bucket":"data","Key":"a.txt"}'

  # Input from a file (use - for stdin)
  awsasync call s3 PutBucketTagging --input-file tagging.json

  # Simulated service
  awsasync call sim echo --input '["a","b"]'`,
	Args:              cobra.RangeArgs(1, 2),
	ValidArgsFunction: completeServices,
	RunE:              runCall,
}

func init() {
	callCmd.Flags().StringVar(&callInput, "input", "", "Operation input as JSON")
	callCmd.Flags().StringVar(&callInputFile, "input-file", "", "Read the operation input from a file (- for stdin)")
	callCmd.Flags().DurationVar(&callTimeout, "timeout", 30*time.Second, "Maximum time to wait for the result (0 waits forever)")
	callCmd.MarkFlagsMutuallyExclusive("input", "input-file")
}

func runCall(cmd *cobra.Command, args []string) error {
	service := args[0]
	client, err := newAsyncClient(cmd, service)
	if err != nil {
		return err
	}

	cp, err := resolveCounterpart(client, service, args[1:])
	if err != nil {
		return err
	}
	op := cp.Operation()

	body, err := readCallInput(cmd, op)
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)
	if callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, callTimeout)
		defer cancel()
	}

	callArgs, err := awsclient.DecodeArgs(ctx, op, body)
	if err != nil {
		return err
	}

	start := time.Now()
	future := cp.Call(callArgs...)
	logger.Debug("Counterpart called",
		logger.KeyService, service,
		logger.KeyCounterpart, cp.Name(),
		logger.KeyCallID, future.ID())

	results, err := future.Await(ctx)
	if err != nil {
		return callError(cp.Name(), err)
	}

	logger.Debug("Counterpart resolved",
		logger.KeyCounterpart, cp.Name(),
		logger.KeyCallID, future.ID(),
		logger.KeyDurationMs, time.Since(start).Milliseconds())

	switch len(results) {
	case 0:
		p, err := cmdutil.GetPrinter(cmd)
		if err != nil {
			return err
		}
		p.Success(fmt.Sprintf("%s completed", cp.Name()))
		return nil
	case 1:
		return cmdutil.PrintOutput(cmd, results[0])
	default:
		return cmdutil.PrintOutput(cmd, results)
	}
}

// resolveCounterpart finds the counterpart named in rest, or asks for one.
func resolveCounterpart(client *augment.Client[any], service string, rest []string) (*augment.Counterpart, error) {
	var name string
	if len(rest) > 0 {
		name = rest[0]
	} else {
		if !cmdutil.IsInteractive() {
			return nil, fmt.Errorf("operation is required when stdin is not a terminal")
		}

		ops := client.Operations()
		options := make([]prompt.SelectOption, 0, len(ops))
		for _, op := range ops {
			options = append(options, prompt.SelectOption{
				Label:       op.Counterpart,
				Value:       op.Counterpart,
				Description: signature(op),
			})
		}

		var err error
		name, err = prompt.Select(fmt.Sprintf("Operation of %s", service), options)
		if err != nil {
			return nil, err
		}
	}

	cp, ok := client.Find(name)
	if !ok {
		return nil, fmt.Errorf("service %s has no operation %q (see: awsasync ops %s)", service, name, service)
	}
	return cp, nil
}

// readCallInput returns the JSON input from --input, --input-file or an
// interactive prompt. Nil means no input.
func readCallInput(cmd *cobra.Command, op augment.Operation) ([]byte, error) {
	switch {
	case callInput != "":
		return []byte(callInput), nil
	case callInputFile == "-":
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("failed to read input from stdin: %w", err)
		}
		return data, nil
	case callInputFile != "":
		data, err := os.ReadFile(callInputFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read input file: %w", err)
		}
		return data, nil
	}

	if !cmdutil.IsInteractive() || !takesInput(op) {
		return nil, nil
	}

	def := "[]"
	if _, ok := awsclient.InputType(op); ok {
		def = "{}"
	}
	input, err := prompt.InputJSON("Input (JSON)", def)
	if err != nil {
		return nil, err
	}
	return []byte(input), nil
}

// takesInput reports whether op has parameters other than a context.
func takesInput(op augment.Operation) bool {
	if op.Type == nil {
		return false
	}
	for i := 0; i < op.Type.NumIn(); i++ {
		if op.Type.In(i) != contextType {
			return true
		}
	}
	return false
}

func callError(counterpart string, err error) error {
	if code, msg, ok := awsclient.APIError(err); ok {
		return fmt.Errorf("%s failed: %s: %s", counterpart, code, msg)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s did not complete within %s", counterpart, callTimeout)
	}
	return fmt.Errorf("%s failed: %w", counterpart, err)
}

// newAsyncClient builds the augmented client of service from the loaded
// configuration. Counterparts run on the default pool.
func newAsyncClient(cmd *cobra.Command, service string) (*augment.Client[any], error) {
	var cfg awsclient.Config
	if cmdutil.Config != nil {
		cfg = cmdutil.Config.AWS
	}
	return awsclient.NewAsync(commandContext(cmd), service, cfg)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func completeServices(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return awsclient.Services(), cobra.ShellCompDirectiveNoFileComp
}
