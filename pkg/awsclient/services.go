package awsclient

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/marmos91/awsasync/pkg/augment"
)

// ErrUnknownService is returned by New for names that were never registered.
var ErrUnknownService = errors.New("awsclient: unknown service")

// Factory builds the raw client of a service.
type Factory func(ctx context.Context, cfg Config) (any, error)

var (
	servicesMu sync.RWMutex
	services   = make(map[string]Factory)
)

// Register makes a service available to New under name, replacing any
// previous factory with that name.
func Register(name string, f Factory) {
	if f == nil {
		panic("awsclient: Register with nil factory")
	}

	servicesMu.Lock()
	services[name] = f
	servicesMu.Unlock()
}

// Services returns the registered service names, sorted.
func Services() []string {
	servicesMu.RLock()
	names := make([]string, 0, len(services))
	for name := range services {
		names = append(names, name)
	}
	servicesMu.RUnlock()

	slices.Sort(names)
	return names
}

// New builds the raw client of service.
func New(ctx context.Context, service string, cfg Config) (any, error) {
	servicesMu.RLock()
	f, ok := services[service]
	servicesMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownService, service, Services())
	}

	client, err := f(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create %s client: %w", service, err)
	}
	return client, nil
}

// NewAsync builds the client of service and augments it.
func NewAsync(ctx context.Context, service string, cfg Config, opts ...augment.Option) (*augment.Client[any], error) {
	client, err := New(ctx, service, cfg)
	if err != nil {
		return nil, err
	}
	return augment.Augment(client, opts...)
}
