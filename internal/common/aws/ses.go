package aws

import (
	"context"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
)

// SESClient sends the raw MIME messages that carry order documents.
type SESClient struct {
	client           *ses.Client
	configurationSet string
	timeout          time.Duration
}

// NewSESClient tags every message with configurationSet when it is set.
func NewSESClient(cfg awssdk.Config, configurationSet string, timeout time.Duration) *SESClient {
	return &SESClient{
		client:           ses.NewFromConfig(cfg),
		configurationSet: configurationSet,
		timeout:          timeout,
	}
}

// SendRawEmail sends a complete MIME message, attachments included.
func (s *SESClient) SendRawEmail(ctx context.Context, input *ses.SendRawEmailInput, optFns ...func(*ses.Options)) (*ses.SendRawEmailOutput, error) {
	if s.configurationSet != "" && input.ConfigurationSetName == nil {
		input.ConfigurationSetName = awssdk.String(s.configurationSet)
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	out, err := s.client.SendRawEmail(ctx, input, optFns...)
	if err != nil {
		return nil, describe("ses SendRawEmail", err)
	}
	return out, nil
}
