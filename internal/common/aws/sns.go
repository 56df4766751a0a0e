package aws

import (
	"context"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// SNSClient publishes SMS notifications straight to phone numbers.
type SNSClient struct {
	client  *sns.Client
	timeout time.Duration
}

func NewSNSClient(cfg awssdk.Config, timeout time.Duration) *SNSClient {
	return &SNSClient{client: sns.NewFromConfig(cfg), timeout: timeout}
}

func (s *SNSClient) Publish(ctx context.Context, input *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	out, err := s.client.Publish(ctx, input, optFns...)
	if err != nil {
		return nil, describe("sns Publish", err)
	}
	return out, nil
}
