package awsclient

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/marmos91/awsasync/pkg/augment"
)

// ServiceS3 is the registry name of the S3 client.
const ServiceS3 = "s3"

func init() {
	augment.Register((*s3.Client)(nil), augment.Methods(SDKConvention))
	Register(ServiceS3, func(ctx context.Context, cfg Config) (any, error) {
		return newS3Client(ctx, cfg)
	})
}

func newS3Client(ctx context.Context, cfg Config) (*s3.Client, error) {
	awsCfg, err := LoadAWSConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var s3Opts []func(*s3.Options)

	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}

	if cfg.ForcePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	return s3.NewFromConfig(awsCfg, s3Opts...), nil
}

// NewS3 returns an augmented S3 client: ListBuckets gets ListBucketsAsync,
// GetObject gets GetObjectAsync, and so on for every API operation.
func NewS3(ctx context.Context, cfg Config, opts ...augment.Option) (*augment.Client[*s3.Client], error) {
	client, err := newS3Client(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return augment.Augment(client, opts...)
}
