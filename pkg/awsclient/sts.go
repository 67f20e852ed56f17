package awsclient

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/marmos91/awsasync/pkg/augment"
)

// ServiceSTS is the registry name of the STS client.
const ServiceSTS = "sts"

func init() {
	augment.Register((*sts.Client)(nil), augment.Methods(SDKConvention))
	Register(ServiceSTS, func(ctx context.Context, cfg Config) (any, error) {
		return newSTSClient(ctx, cfg)
	})
}

func newSTSClient(ctx context.Context, cfg Config) (*sts.Client, error) {
	awsCfg, err := LoadAWSConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var stsOpts []func(*sts.Options)
	if cfg.Endpoint != "" {
		stsOpts = append(stsOpts, func(o *sts.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}

	return sts.NewFromConfig(awsCfg, stsOpts...), nil
}

// NewSTS returns an augmented STS client.
func NewSTS(ctx context.Context, cfg Config, opts ...augment.Option) (*augment.Client[*sts.Client], error) {
	client, err := newSTSClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return augment.Augment(client, opts...)
}
