// Package awsclient builds AWS SDK for Go v2 service clients and wraps them
// with augment so every API operation gets an Async counterpart.
//
// Service clients are looked up by name ("s3", "sts") in a registry that other
// packages can extend with Register. The built-in clients are registered with
// augment using SDKConvention, which recognises the SDK operation signature
// func(context.Context, *XxxInput, ...func(*Options)) (*XxxOutput, error).
package awsclient

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"

	"github.com/marmos91/awsasync/internal/logger"
)

// Config selects the account, region and endpoint of the service clients.
type Config struct {
	// Region is the AWS region (e.g., "us-east-1"). Empty uses the SDK default chain.
	Region string `mapstructure:"region" yaml:"region" json:"region,omitempty"`

	// Endpoint overrides the service endpoint (LocalStack, MinIO, ...).
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint" json:"endpoint,omitempty" validate:"omitempty,url"`

	// Profile is the shared config profile to load.
	Profile string `mapstructure:"profile" yaml:"profile" json:"profile,omitempty"`

	// Static credentials. When AccessKeyID is empty the SDK default chain is used.
	AccessKeyID     string `mapstructure:"access_key_id" yaml:"access_key_id" json:"access_key_id,omitempty"`
	SecretAccessKey string `mapstructure:"secret_access_key" yaml:"secret_access_key" json:"-" validate:"required_with=AccessKeyID"`
	SessionToken    string `mapstructure:"session_token" yaml:"session_token" json:"-"`

	// ForcePathStyle uses path-style S3 addressing (required by most S3-compatible servers).
	ForcePathStyle bool `mapstructure:"force_path_style" yaml:"force_path_style" json:"force_path_style,omitempty"`

	// MaxAttempts caps SDK retries. Zero keeps the SDK default.
	MaxAttempts int `mapstructure:"max_attempts" yaml:"max_attempts" json:"max_attempts,omitempty" validate:"omitempty,min=1,max=20"`
}

// LoadAWSConfig resolves an aws.Config from cfg on top of the SDK default chain.
func LoadAWSConfig(ctx context.Context, cfg Config) (aws.Config, error) {
	var opts []func(*awsconfig.LoadOptions) error

	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}

	if cfg.Profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(cfg.Profile))
	}

	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken),
		))
	}

	if cfg.MaxAttempts > 0 {
		opts = append(opts, awsconfig.WithRetryMaxAttempts(cfg.MaxAttempts))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}

	logger.Debug("AWS config loaded",
		logger.KeyRegion, awsCfg.Region,
		logger.KeyEndpoint, cfg.Endpoint)

	return awsCfg, nil
}
