package deliverorderdocument

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"shop-documents/internal/common/errors"
	"shop-documents/internal/common/logger"
	"shop-documents/internal/common/validation"
	"shop-documents/internal/delivery"
)

func createTestConfig() *Config {
	return &Config{Timeout: 5 * time.Second}
}

func createTestLogger(t *testing.T) logger.Logger {
	return logger.NewZapAdapter(zaptest.NewLogger(t))
}

type fakeDeliverer struct {
	result *delivery.Result
	err    error
	got    delivery.Request
}

func (f *fakeDeliverer) DeliverOrder(_ context.Context, req delivery.Request) (*delivery.Result, error) {
	f.got = req
	return f.result, f.err
}

func TestExecute_Sent(t *testing.T) {
	fake := &fakeDeliverer{result: &delivery.Result{
		DeliveryID: "dlv-1",
		Status:     delivery.StatusSent,
		EmailSent:  true,
		SMSSent:    true,
		Recipient:  "ana@example.com",
		DocumentID: "doc-1",
		MessageID:  "msg-1",
		SentAt:     "2024-05-03T10:30:00Z",
	}}
	handler := NewHandler(createTestConfig(), fake, createTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{ClientID: 3, Email: "ana@example.com", Format: "pdf"})
	require.NoError(t, err)

	assert.Equal(t, delivery.Request{ClientID: 3, Email: "ana@example.com", Format: "pdf"}, fake.got)
	assert.Equal(t, "sent", output.DeliveryStatus)
	assert.True(t, output.EmailSent)
	assert.True(t, output.SMSSent)
	assert.Equal(t, "msg-1", output.MessageID)

	vars := map[string]interface{}{}
	raw, err := json.Marshal(output)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &vars))
	assert.True(t, validation.ValidateInput(vars, GetOutputSchema()).Valid)
}

func TestExecute_DisabledCompletes(t *testing.T) {
	fake := &fakeDeliverer{result: &delivery.Result{DeliveryID: "dlv-2", Status: delivery.StatusDisabled}}
	handler := NewHandler(createTestConfig(), fake, createTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{ClientID: 3})
	require.NoError(t, err)
	assert.Equal(t, delivery.StatusDisabled, output.DeliveryStatus)
	assert.False(t, output.EmailSent)
}

func TestExecute_DeliveryErrorPropagates(t *testing.T) {
	fake := &fakeDeliverer{err: errors.NewDeliveryError("email", assert.AnError)}
	handler := NewHandler(createTestConfig(), fake, createTestLogger(t))

	_, err := handler.Execute(context.Background(), &Input{ClientID: 3})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeDeliveryFailed))
	assert.True(t, errors.AsStandard(err).Retryable)
}

func TestParseInput(t *testing.T) {
	tests := []struct {
		name      string
		variables string
		wantErr   bool
	}{
		{name: "minimal", variables: `{"clienteId":4}`},
		{name: "overrides", variables: `{"clienteId":4,"email":"a@b.co","phone":"+525512345678","format":"docx"}`},
		{name: "missing client", variables: `{"email":"a@b.co"}`, wantErr: true},
		{name: "bad phone", variables: `{"clienteId":4,"phone":"call me"}`, wantErr: true},
		{name: "bad format", variables: `{"clienteId":4,"format":"html"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input, err := parseInput(tt.variables)
			if tt.wantErr {
				assert.True(t, errors.HasCode(err, errors.ErrCodeValidationFailed))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, int64(4), input.ClientID)
		})
	}
}
