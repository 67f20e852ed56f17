package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/marmos91/awsasync/cmd/awsasync/cmdutil"
	"github.com/marmos91/awsasync/internal/logger"
	"github.com/marmos91/awsasync/pkg/augment"
	"github.com/marmos91/awsasync/pkg/awsclient"
	"github.com/marmos91/awsasync/pkg/gateway"
	"github.com/marmos91/awsasync/pkg/metrics"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the configured clients over HTTP",
	Long: `Run the HTTP gateway. Every service listed in gateway.services is
augmented and its counterparts can be invoked with
POST /api/v1/services/{service}/operations/{operation}.

When gateway.jwt_secret (or AWSASYNC_GATEWAY_JWT_SECRET) is set, /api/v1
requires a bearer token; issue one with "awsasync serve token".

When metrics are enabled they are served on /metrics of the gateway, and on
metrics.port as well when it differs from the gateway port.

Examples:
  # Serve s3 and sts on the configured port
  awsasync serve

  # Serve on another port
  awsasync serve --port 9000`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var (
	tokenSubject  string
	tokenTTL      time.Duration
	tokenServices []string
)

var serveTokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a bearer token for the gateway",
	Long: `Issue a bearer token signed with the configured gateway secret.

Examples:
  # Token valid for every service
  awsasync serve token --subject ci

  # Token limited to sts for one hour
  awsasync serve token --subject ci --service sts --ttl 1h`,
	Args: cobra.NoArgs,
	RunE: runServeToken,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Listen port (default: gateway.port from config)")

	serveTokenCmd.Flags().StringVar(&tokenSubject, "subject", "awsasync", "Token subject")
	serveTokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "Token lifetime")
	serveTokenCmd.Flags().StringSliceVar(&tokenServices, "service", nil, "Restrict the token to these services (repeatable)")
	serveCmd.AddCommand(serveTokenCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := cmdutil.Config
	gwCfg := cfg.Gateway
	if servePort > 0 {
		gwCfg.Port = servePort
	}

	ctx := commandContext(cmd)

	clients := make(map[string]*augment.Client[any], len(gwCfg.Services))
	for _, service := range gwCfg.Services {
		client, err := awsclient.NewAsync(ctx, service, cfg.AWS)
		if err != nil {
			return err
		}
		clients[service] = client
		logger.Info("Service exposed",
			logger.KeyService, service,
			logger.KeyCount, len(client.Operations()))
	}

	server, err := gateway.NewServer(gwCfg, clients, metrics.Handler(),
		gateway.WithMetrics(metrics.NewGatewayMetrics()))
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Start(gctx)
	})
	if cfg.Metrics.Enabled && cfg.Metrics.Port != gwCfg.Port {
		g.Go(func() error {
			return metrics.Serve(gctx, cfg.Metrics.Port)
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("gateway stopped: %w", err)
	}
	logger.Info("Gateway stopped")
	return nil
}

func runServeToken(cmd *cobra.Command, args []string) error {
	gwCfg := cmdutil.Config.Gateway
	if !gwCfg.HasJWTSecret() {
		return fmt.Errorf("no gateway secret configured; set gateway.jwt_secret or %s", gateway.EnvJWTSecret)
	}

	tokens, err := gateway.NewTokenService(gwCfg.GetJWTSecret())
	if err != nil {
		return err
	}

	token, err := tokens.Issue(tokenSubject, tokenTTL, tokenServices...)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
	return err
}
