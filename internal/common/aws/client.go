// Package aws builds the SES and SNS clients used for document delivery.
package aws

import (
	"context"
	"errors"
	"fmt"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/smithy-go"

	"shop-documents/internal/common/config"
)

const defaultRequestTimeout = 20 * time.Second

// LoadConfig resolves credentials from the default chain. A non-empty
// cfg.Endpoint routes every service to that URL.
func LoadConfig(ctx context.Context, cfg config.AWSConfig) (awssdk.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithRetryMaxAttempts(3),
	}
	if cfg.Endpoint != "" {
		opts = append(opts, awsconfig.WithEndpointResolverWithOptions(StaticEndpoint(cfg.Endpoint)))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return awssdk.Config{}, fmt.Errorf("load AWS config for %s: %w", cfg.Region, err)
	}
	return awsCfg, nil
}

// StaticEndpoint resolves every service and region to url.
func StaticEndpoint(url string) awssdk.EndpointResolverWithOptions {
	return awssdk.EndpointResolverWithOptionsFunc(func(service, region string, _ ...interface{}) (awssdk.Endpoint, error) {
		return awssdk.Endpoint{
			URL:               url,
			SigningRegion:     region,
			HostnameImmutable: true,
		}, nil
	})
}

// describe prefixes err with the service operation and, for API errors,
// the AWS error code.
func describe(op string, err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%s: %s: %w", op, apiErr.ErrorCode(), err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = defaultRequestTimeout
	}
	return context.WithTimeout(ctx, d)
}
