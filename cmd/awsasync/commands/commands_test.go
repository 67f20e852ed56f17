package commands

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/awsasync/cmd/awsasync/cmdutil"
	"github.com/marmos91/awsasync/internal/simclient"
	"github.com/marmos91/awsasync/pkg/awsclient"
	"github.com/marmos91/awsasync/pkg/gateway"
	"github.com/marmos91/awsasync/pkg/offload"
)

const testSecret = "test-secret-key-that-is-at-least-32-characters-long"

// isolateEnv points every configuration source at an empty temp dir.
func isolateEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("AWS_CONFIG_FILE", filepath.Join(dir, "aws-config"))
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", filepath.Join(dir, "aws-credentials"))
	t.Setenv("AWS_PROFILE", "")
	t.Setenv(gateway.EnvJWTSecret, "")
	for _, kv := range os.Environ() {
		key, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(key, "AWSASYNC_") {
			t.Setenv(key, "")
			_ = os.Unsetenv(key)
		}
	}
	return dir
}

// writeConfig writes a config file with stderr logging at error level.
func writeConfig(t *testing.T, dir, extra string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	content := "logging:\n  level: error\n  output: stderr\n" + extra
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

// resetFlags restores every flag of cmd and its children to its default.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// run executes the CLI with args and returns its stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := GetRootCmd()
	resetFlags(root)
	cmdutil.Config = nil

	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	t.Cleanup(func() {
		root.SetOut(nil)
		root.SetErr(nil)
		root.SetArgs(nil)
	})

	err := root.Execute()
	require.NoError(t, teardown())
	return out.String(), err
}

func TestVersion(t *testing.T) {
	t.Run("short", func(t *testing.T) {
		out, err := run(t, "version", "--short")
		require.NoError(t, err)
		assert.Equal(t, Version+"\n", out)
	})

	t.Run("full", func(t *testing.T) {
		out, err := run(t, "version")
		require.NoError(t, err)
		assert.Contains(t, out, "awsasync "+Version)
		assert.Contains(t, out, "Go version:")
	})
}

func TestCompletion(t *testing.T) {
	out, err := run(t, "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, out, "awsasync")

	_, err = run(t, "completion", "tcsh")
	assert.Error(t, err)
}

func TestSimServiceRegistered(t *testing.T) {
	assert.Contains(t, awsclient.Services(), SimService)
}

func TestOps(t *testing.T) {
	dir := isolateEnv(t)
	cfg := writeConfig(t, dir, "")

	t.Run("json", func(t *testing.T) {
		out, err := run(t, "ops", "sim", "-o", "json", "--config", cfg)
		require.NoError(t, err)

		var list OperationList
		require.NoError(t, json.Unmarshal([]byte(out), &list))
		assert.Equal(t, "sim", list.Service)
		require.Len(t, list.Operations, len(simclient.Operations))
		assert.Equal(t, "sleep", list.Operations[0].Name)
		assert.Equal(t, "SleepAsync", list.Operations[0].Counterpart)
		assert.Equal(t, "(ctx, time.Duration) (time.Duration, error)", list.Operations[0].Signature)
	})

	t.Run("table", func(t *testing.T) {
		out, err := run(t, "ops", "sim", "--config", cfg)
		require.NoError(t, err)
		assert.Contains(t, out, "GetHTTPStatusAsync")
		assert.Contains(t, strings.ToLower(out), "5 counterparts")
	})

	t.Run("unknown service", func(t *testing.T) {
		_, err := run(t, "ops", "dynamo", "--config", cfg)
		require.Error(t, err)
		assert.ErrorIs(t, err, awsclient.ErrUnknownService)
	})
}

func TestOpsSchema(t *testing.T) {
	dir := isolateEnv(t)
	cfg := writeConfig(t, dir, "aws:\n  region: us-east-1\n  access_key_id: test\n  secret_access_key: test\n")

	t.Run("sdk input", func(t *testing.T) {
		out, err := run(t, "ops", "s3", "--schema", "head_bucket", "--config", cfg)
		require.NoError(t, err)

		var schema map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &schema))
		assert.Equal(t, "HeadBucketInput", schema["title"])
		props, ok := schema["properties"].(map[string]any)
		require.True(t, ok, "schema has no properties: %s", out)
		assert.Contains(t, props, "Bucket")
	})

	t.Run("positional operation", func(t *testing.T) {
		_, err := run(t, "ops", "sim", "--schema", "echo", "--config", cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "positional arguments")
	})

	t.Run("unknown operation", func(t *testing.T) {
		_, err := run(t, "ops", "sim", "--schema", "teleport", "--config", cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "teleport")
	})
}

func TestCallSim(t *testing.T) {
	dir := isolateEnv(t)
	cfg := writeConfig(t, dir, "")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"echo", []string{"echo", "--input", `["a","b"]`}, "[\n  \"a\",\n  \"b\"\n]\n"},
		{"counterpart name", []string{"GetHTTPStatusAsync", "--input", `[418]`}, "\"I'm a teapot\"\n"},
		{"method name", []string{"GetHTTPStatus", "--input", `[404]`}, "\"Not Found\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"call", "sim"}, tt.args...)
			args = append(args, "-o", "json", "--config", cfg)
			out, err := run(t, args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestCallInputFile(t *testing.T) {
	dir := isolateEnv(t)
	cfg := writeConfig(t, dir, "")

	input := filepath.Join(dir, "input.json")
	require.NoError(t, os.WriteFile(input, []byte(`["x"]`), 0644))

	out, err := run(t, "call", "sim", "echo", "--input-file", input, "-o", "json", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, `"x"`)
}

func TestCallErrors(t *testing.T) {
	dir := isolateEnv(t)
	cfg := writeConfig(t, dir, "")

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"unknown operation", []string{"teleport"}, `no operation "teleport"`},
		{"bad arguments", []string{"get_http_status", "--input", `["x"]`}, "argument 0"},
		{"operation failure", []string{"fail", "--input", `["boom"]`}, "simulated failure: boom"},
		{"panic", []string{"panic", "--input", `["boom"]`}, "panicked"},
		{"timeout", []string{"sleep", "--input", `[5000000000]`, "--timeout", "50ms"}, "did not complete within 50ms"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"call", "sim"}, tt.args...)
			args = append(args, "--config", cfg)
			_, err := run(t, args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCallS3(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		if r.URL.Path != "/" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`<Error><Code>NoSuchBucket</Code><Message>gone</Message></Error>`))
			return
		}
		_, _ = w.Write([]byte(`<ListAllMyBucketsResult><Buckets><Bucket><Name>alpha</Name></Bucket></Buckets></ListAllMyBucketsResult>`))
	}))
	defer srv.Close()

	dir := isolateEnv(t)
	cfg := writeConfig(t, dir, "aws:\n  region: us-east-1\n  endpoint: "+srv.URL+
		"\n  access_key_id: test\n  secret_access_key: test\n  force_path_style: true\n  max_attempts: 1\n")

	t.Run("list buckets", func(t *testing.T) {
		out, err := run(t, "call", "s3", "ListBuckets", "-o", "json", "--config", cfg)
		require.NoError(t, err)
		assert.Contains(t, out, `"alpha"`)
	})

	t.Run("api error", func(t *testing.T) {
		_, err := run(t, "call", "s3", "head_bucket", "--input", `{"Bucket":"gone"}`, "--config", cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "HeadBucketAsync failed")
	})
}

func TestBench(t *testing.T) {
	pool, err := offload.NewPool(offload.Config{Workers: 10, Executor: offload.ExecutorNative}, nil)
	require.NoError(t, err)
	defer func() { _ = pool.Close() }()

	report, err := Bench(t.Context(), pool, 10, 50*time.Millisecond)
	require.NoError(t, err)
	require.Len(t, report.Passes, 2)

	concurrent, sequential := report.Passes[0], report.Passes[1]
	assert.Equal(t, "concurrent", concurrent.Mode)
	assert.Less(t, concurrent.Elapsed, 300*time.Millisecond)
	assert.GreaterOrEqual(t, sequential.Elapsed, 500*time.Millisecond)
	assert.Greater(t, report.Speedup, 1.5)
}

func TestBenchCommand(t *testing.T) {
	dir := isolateEnv(t)
	cfg := writeConfig(t, dir, "")

	out, err := run(t, "bench", "--count", "4", "--latency", "10ms", "--workers", "4", "--executor", "queue", "-o", "json", "--config", cfg)
	require.NoError(t, err)

	var report BenchReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.Len(t, report.Passes, 2)
	assert.Equal(t, "queue", report.Passes[0].Executor)
	assert.Equal(t, 4, report.Passes[0].Workers)

	_, err = run(t, "bench", "--count", "0", "--config", cfg)
	assert.Error(t, err)
}

func TestServeToken(t *testing.T) {
	dir := isolateEnv(t)

	t.Run("without secret", func(t *testing.T) {
		cfg := writeConfig(t, dir, "")
		_, err := run(t, "serve", "token", "--config", cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), gateway.EnvJWTSecret)
	})

	t.Run("scoped", func(t *testing.T) {
		cfg := writeConfig(t, dir, "gateway:\n  jwt_secret: "+testSecret+"\n")
		out, err := run(t, "serve", "token", "--subject", "ci", "--service", "sts", "--config", cfg)
		require.NoError(t, err)

		tokens, err := gateway.NewTokenService(testSecret)
		require.NoError(t, err)
		claims, err := tokens.Validate(strings.TrimSpace(out))
		require.NoError(t, err)
		assert.Equal(t, "ci", claims.Subject)
		assert.Equal(t, []string{"sts"}, claims.Services)
	})
}

func TestConfigCommands(t *testing.T) {
	dir := isolateEnv(t)
	path := filepath.Join(dir, "awsasync.yaml")

	out, err := run(t, "config", "init", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration file created at: "+path)
	assert.FileExists(t, path)

	_, err = run(t, "config", "init", "--config", path)
	require.Error(t, err, "init must not overwrite without --force")

	_, err = run(t, "config", "init", "--force", "--config", path)
	require.NoError(t, err)

	out, err = run(t, "config", "show", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "offload:")
	assert.Contains(t, out, "<redacted>")

	out, err = run(t, "config", "validate", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Validation: OK")
	assert.Contains(t, out, "AWS region not configured")

	out, err = run(t, "config", "schema")
	require.NoError(t, err)
	assert.Contains(t, out, "awsasync Configuration")

	schemaFile := filepath.Join(dir, "schema.json")
	_, err = run(t, "config", "schema", "--file", schemaFile)
	require.NoError(t, err)
	assert.FileExists(t, schemaFile)
}

func TestConfigValidateRejectsInvalid(t *testing.T) {
	dir := isolateEnv(t)
	cfg := writeConfig(t, dir, "offload:\n  executor: threads\n")

	_, err := run(t, "config", "validate", "--config", cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oneof")
}

func TestSignature(t *testing.T) {
	client, err := awsclient.NewAsync(t.Context(), SimService, awsclient.Config{})
	require.NoError(t, err)

	want := map[string]string{
		"Echo":          "(...string) []string",
		"Fail":          "(string) error",
		"GetHTTPStatus": "(int) (string, error)",
		"Panic":         "(interface {})",
	}
	for _, op := range client.Operations() {
		if w, ok := want[op.Method]; ok {
			assert.Equal(t, w, signature(op), op.Method)
		}
	}
}
