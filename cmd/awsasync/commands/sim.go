package commands

import (
	"context"
	"time"

	"github.com/marmos91/awsasync/internal/simclient"
	"github.com/marmos91/awsasync/pkg/awsclient"
)

// SimService is the name of the simulated service available to every command.
const SimService = "sim"

// SimLatency is the per-call latency of the "sim" service.
const SimLatency = 100 * time.Millisecond

func init() {
	awsclient.Register(SimService, func(context.Context, awsclient.Config) (any, error) {
		return simclient.New(SimLatency), nil
	})
}
