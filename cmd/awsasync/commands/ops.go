package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"

	"github.com/marmos91/awsasync/cmd/awsasync/cmdutil"
	"github.com/marmos91/awsasync/pkg/augment"
	"github.com/marmos91/awsasync/pkg/awsclient"
)

var opsSchema string

var opsCmd = &cobra.Command{
	Use:   "ops <service>",
	Short: "List the operations and Async counterparts of a service",
	Long: `List every operation of a service client together with the Async
counterpart installed for it.

With --schema, print the JSON schema of one operation's input instead.

Examples:
  # List S3 operations
  awsasync ops s3

  # As JSON
  awsasync ops s3 -o json

  # Input schema of PutObject
  awsasync ops s3 --schema PutObject`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeServices,
	RunE:              runOps,
}

func init() {
	opsCmd.Flags().StringVar(&opsSchema, "schema", "", "Print the JSON schema of this operation's input")
}

// OperationRow is one line of the ops listing.
type OperationRow struct {
	Name        string `json:"name" yaml:"name"`
	Method      string `json:"method" yaml:"method"`
	Counterpart string `json:"counterpart" yaml:"counterpart"`
	Signature   string `json:"signature" yaml:"signature"`
}

// OperationList is the ops output.
type OperationList struct {
	Service    string            `json:"service" yaml:"service"`
	Operations []OperationRow    `json:"operations" yaml:"operations"`
	Skipped    []augment.Skipped `json:"skipped,omitempty" yaml:"skipped,omitempty"`
}

// Headers implements output.TableRenderer.
func (l OperationList) Headers() []string {
	return []string{"OPERATION", "METHOD", "COUNTERPART", "SIGNATURE"}
}

// Rows implements output.TableRenderer.
func (l OperationList) Rows() [][]string {
	rows := make([][]string, 0, len(l.Operations))
	for _, op := range l.Operations {
		rows = append(rows, []string{op.Name, op.Method, op.Counterpart, op.Signature})
	}
	return rows
}

// Footer implements output.Footered.
func (l OperationList) Footer() []string {
	summary := fmt.Sprintf("%d counterparts", len(l.Operations))
	if len(l.Skipped) > 0 {
		summary += fmt.Sprintf(", %d skipped", len(l.Skipped))
	}
	return []string{summary, "", "", ""}
}

func runOps(cmd *cobra.Command, args []string) error {
	client, err := newAsyncClient(cmd, args[0])
	if err != nil {
		return err
	}

	if opsSchema != "" {
		cp, ok := client.Find(opsSchema)
		if !ok {
			return fmt.Errorf("service %s has no operation %q", args[0], opsSchema)
		}
		data, err := inputSchema(cp.Operation())
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return err
	}

	list := OperationList{Service: args[0], Skipped: client.Skipped()}
	for _, op := range client.Operations() {
		list.Operations = append(list.Operations, OperationRow{
			Name:        op.Name,
			Method:      op.Method,
			Counterpart: op.Counterpart,
			Signature:   signature(op),
		})
	}
	return cmdutil.PrintOutput(cmd, list)
}

// inputSchema returns the JSON schema of the document accepted by call and
// the gateway for op.
func inputSchema(op augment.Operation) ([]byte, error) {
	t, ok := awsclient.InputType(op)
	if !ok {
		return nil, fmt.Errorf("%s takes positional arguments (%s); pass them as a JSON array", op.Method, signature(op))
	}

	reflector := jsonschema.Reflector{
		DoNotReference: true,
		Anonymous:      true,
	}
	schema := reflector.ReflectFromType(t.Elem())
	schema.Title = t.Elem().Name()

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to generate schema: %w", err)
	}
	return data, nil
}

// signature renders op as "(in) out" with the SDK functional options elided.
func signature(op augment.Operation) string {
	if op.Type == nil {
		return ""
	}
	if in, ok := awsclient.InputType(op); ok {
		return fmt.Sprintf("(ctx, %s) (%s, error)", in, op.Type.Out(0))
	}

	params := make([]string, op.Type.NumIn())
	for i := range params {
		p := op.Type.In(i)
		if op.Type.IsVariadic() && i == len(params)-1 {
			params[i] = "..." + p.Elem().String()
			continue
		}
		params[i] = typeName(p)
	}

	results := make([]string, op.Type.NumOut())
	for i := range results {
		results[i] = typeName(op.Type.Out(i))
	}

	sig := "(" + strings.Join(params, ", ") + ")"
	switch len(results) {
	case 0:
	case 1:
		sig += " " + results[0]
	default:
		sig += " (" + strings.Join(results, ", ") + ")"
	}
	return sig
}

func typeName(t reflect.Type) string {
	if t == contextType {
		return "ctx"
	}
	return t.String()
}

var contextType = reflect.TypeFor[context.Context]()
