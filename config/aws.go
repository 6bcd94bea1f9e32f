package config

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
)

// InitializeAws resolves credentials and region through the SDK's default chain.
func InitializeAws(ctx context.Context, c *Config) (aws.Config, error) {
	var opts []func(*config.LoadOptions) error
	if c.AwsRegion != "" {
		opts = append(opts, config.WithRegion(c.AwsRegion))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("error while initializing aws: %w", err)
	}
	return cfg, nil
}
