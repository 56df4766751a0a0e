package delivery

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"strings"
	"sync"
	"testing"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shop-documents/internal/common/errors"
	"shop-documents/internal/common/logger"
	"shop-documents/internal/documents/composer"
	"shop-documents/internal/models"
)

// ==========================
// Test doubles
// ==========================

type fakeComposer struct {
	err   error
	calls []string
}

func (f *fakeComposer) doc(kind, name, contentType string) (*composer.Document, error) {
	f.calls = append(f.calls, kind)
	if f.err != nil {
		return nil, f.err
	}
	return &composer.Document{
		ID:          "doc-" + kind,
		Kind:        kind,
		FileName:    name,
		ContentType: contentType,
		Data:        bytes.Repeat([]byte("PK\x03\x04order"), 40),
	}, nil
}

func (f *fakeComposer) ComposeOrderDocument(context.Context, int64) (*composer.Document, error) {
	return f.doc(composer.KindOrder, composer.OrderFileName, "application/vnd.openxmlformats-officedocument.wordprocessingml.document")
}

func (f *fakeComposer) ComposeOrderPDF(context.Context, int64) (*composer.Document, error) {
	return f.doc(composer.KindOrderPDF, composer.OrderPDFFileName, "application/pdf")
}

type fakeOrders struct {
	rec *models.OrderRecord
	err error
}

func (f *fakeOrders) FetchOrderRecord(context.Context, int64) (*models.OrderRecord, error) {
	return f.rec, f.err
}

type fakeSES struct {
	mu     sync.Mutex
	inputs []*ses.SendRawEmailInput
	err    error
}

func (f *fakeSES) SendRawEmail(_ context.Context, in *ses.SendRawEmailInput, _ ...func(*ses.Options)) (*ses.SendRawEmailOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inputs = append(f.inputs, in)
	if f.err != nil {
		return nil, f.err
	}
	return &ses.SendRawEmailOutput{MessageId: awssdk.String(fmt.Sprintf("msg-%d", len(f.inputs)))}, nil
}

type fakeSNS struct {
	mu     sync.Mutex
	inputs []*sns.PublishInput
	err    error
}

func (f *fakeSNS) Publish(_ context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inputs = append(f.inputs, in)
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{MessageId: awssdk.String("sms-1")}, nil
}

func contactRecord() *models.OrderRecord {
	return &models.OrderRecord{
		OrderID: sql.NullString{String: "1542", Valid: true},
		Email:   sql.NullString{String: "juan@example.com", Valid: true},
		Mobile:  sql.NullString{String: "+528341234567", Valid: true},
	}
}

func testConfig() *Config {
	return &Config{
		EmailEnabled: true,
		SMSEnabled:   true,
		FromEmail:    "ordenes@trotamundos.example",
		SMSSenderID:  "Trotamundos",
		ShopName:     "Servicio Automotriz Trotamundos",
	}
}

type fixture struct {
	svc      *Service
	composer *fakeComposer
	ses      *fakeSES
	sns      *fakeSNS
}

func newFixture(t *testing.T, cfg *Config, orders *fakeOrders) *fixture {
	f := &fixture{composer: &fakeComposer{}, ses: &fakeSES{}, sns: &fakeSNS{}}
	deps := ServiceDependencies{
		Composer: f.composer,
		Email:    f.ses,
		SMS:      f.sns,
		Logger:   logger.NewTestLogger(t),
	}
	if orders != nil {
		deps.Orders = orders
	}
	f.svc = NewService(deps, cfg)
	f.svc.now = func() time.Time { return time.Date(2024, 5, 3, 10, 30, 0, 0, time.UTC) }
	return f
}

func requireCode(t *testing.T, err error, code errors.ErrorCode) *errors.StandardError {
	t.Helper()
	require.Error(t, err)
	stdErr, ok := err.(*errors.StandardError)
	require.True(t, ok, "expected *StandardError, got %T", err)
	assert.Equal(t, code, stdErr.Code)
	return stdErr
}

// ==========================
// DeliverOrder
// ==========================

func TestDeliverOrder_EmailAndSMS(t *testing.T) {
	f := newFixture(t, testConfig(), &fakeOrders{rec: contactRecord()})

	res, err := f.svc.DeliverOrder(context.Background(), Request{ClientID: 42})
	require.NoError(t, err)

	assert.Equal(t, StatusSent, res.Status)
	assert.True(t, res.EmailSent)
	assert.True(t, res.SMSSent)
	assert.Equal(t, "juan@example.com", res.Recipient)
	assert.Equal(t, "doc-order", res.DocumentID)
	assert.Equal(t, composer.OrderFileName, res.FileName)
	assert.Equal(t, "msg-1", res.MessageID)
	assert.Equal(t, "2024-05-03T10:30:00Z", res.SentAt)
	assert.NotEmpty(t, res.DeliveryID)
	assert.Equal(t, []string{composer.KindOrder}, f.composer.calls)

	require.Len(t, f.ses.inputs, 1)
	in := f.ses.inputs[0]
	assert.Equal(t, "ordenes@trotamundos.example", *in.Source)
	assert.Equal(t, []string{"juan@example.com"}, in.Destinations)

	require.Len(t, f.sns.inputs, 1)
	sms := f.sns.inputs[0]
	assert.Equal(t, "+528341234567", *sms.PhoneNumber)
	assert.Contains(t, *sms.Message, "juan@example.com")
	assert.Equal(t, "Trotamundos", *sms.MessageAttributes["AWS.SNS.SMS.SenderID"].StringValue)
	assert.Equal(t, "Transactional", *sms.MessageAttributes["AWS.SNS.SMS.SMSType"].StringValue)
}

func TestDeliverOrder_AttachmentRoundTrip(t *testing.T) {
	f := newFixture(t, testConfig(), nil)

	_, err := f.svc.DeliverOrder(context.Background(), Request{ClientID: 7, Email: "ana@example.com", Format: "pdf"})
	require.NoError(t, err)
	require.Len(t, f.ses.inputs, 1)

	msg, err := mail.ReadMessage(bytes.NewReader(f.ses.inputs[0].RawMessage.Data))
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", msg.Header.Get("To"))

	subject, err := new(mime.WordDecoder).DecodeHeader(msg.Header.Get("Subject"))
	require.NoError(t, err)
	assert.Equal(t, "Orden de servicio - Servicio Automotriz Trotamundos", subject)

	mediaType, params, err := mime.ParseMediaType(msg.Header.Get("Content-Type"))
	require.NoError(t, err)
	assert.Equal(t, "multipart/mixed", mediaType)

	mr := multipart.NewReader(msg.Body, params["boundary"])

	text, err := mr.NextPart()
	require.NoError(t, err)
	body, err := io.ReadAll(text)
	require.NoError(t, err)
	assert.Contains(t, string(body), composer.OrderPDFFileName)

	attachment, err := mr.NextPart()
	require.NoError(t, err)
	assert.Equal(t, composer.OrderPDFFileName, attachment.FileName())
	assert.True(t, strings.HasPrefix(attachment.Header.Get("Content-Type"), "application/pdf"))

	encoded, err := io.ReadAll(attachment)
	require.NoError(t, err)
	decoded, err := base64.StdEncoding.DecodeString(string(encoded))
	require.NoError(t, err)
	assert.Equal(t, bytes.Repeat([]byte("PK\x03\x04order"), 40), decoded)

	_, err = mr.NextPart()
	assert.Equal(t, io.EOF, err)
}

func TestDeliverOrder_FormatSelectsRenderer(t *testing.T) {
	tests := []struct {
		format string
		want   string
	}{
		{"", composer.KindOrder},
		{"docx", composer.KindOrder},
		{"PDF", composer.KindOrderPDF},
	}
	for _, tt := range tests {
		t.Run("format "+tt.format, func(t *testing.T) {
			f := newFixture(t, testConfig(), nil)
			_, err := f.svc.DeliverOrder(context.Background(), Request{ClientID: 1, Email: "a@example.com", Format: tt.format})
			require.NoError(t, err)
			assert.Equal(t, []string{tt.want}, f.composer.calls)
		})
	}
}

func TestDeliverOrder_RequestOverridesRecord(t *testing.T) {
	f := newFixture(t, testConfig(), &fakeOrders{rec: contactRecord()})

	res, err := f.svc.DeliverOrder(context.Background(), Request{ClientID: 42, Email: "otro@example.com", Phone: "+5215550000"})
	require.NoError(t, err)
	assert.Equal(t, "otro@example.com", res.Recipient)
	assert.Equal(t, "+5215550000", *f.sns.inputs[0].PhoneNumber)
}

func TestDeliverOrder_EmailFailure(t *testing.T) {
	f := newFixture(t, testConfig(), &fakeOrders{rec: contactRecord()})
	f.ses.err = fmt.Errorf("MessageRejected: Email address is not verified")

	res, err := f.svc.DeliverOrder(context.Background(), Request{ClientID: 42})
	assert.Nil(t, res)
	stdErr := requireCode(t, err, errors.ErrCodeDeliveryFailed)
	assert.True(t, stdErr.Retryable)
	assert.Equal(t, "email", stdErr.Metadata["channel"])
	assert.Empty(t, f.sns.inputs)
}

func TestDeliverOrder_SMSFailureAfterEmail(t *testing.T) {
	f := newFixture(t, testConfig(), &fakeOrders{rec: contactRecord()})
	f.sns.err = fmt.Errorf("throttled")

	res, err := f.svc.DeliverOrder(context.Background(), Request{ClientID: 42})
	require.NoError(t, err)
	assert.Equal(t, StatusSent, res.Status)
	assert.True(t, res.EmailSent)
	assert.False(t, res.SMSSent)
}

func TestDeliverOrder_SMSOnlyFailure(t *testing.T) {
	cfg := testConfig()
	cfg.EmailEnabled = false
	f := newFixture(t, cfg, &fakeOrders{rec: contactRecord()})
	f.sns.err = fmt.Errorf("throttled")

	_, err := f.svc.DeliverOrder(context.Background(), Request{ClientID: 42})
	stdErr := requireCode(t, err, errors.ErrCodeDeliveryFailed)
	assert.Equal(t, "sms", stdErr.Metadata["channel"])
	assert.Empty(t, f.ses.inputs)
}

func TestDeliverOrder_Disabled(t *testing.T) {
	tests := []struct {
		name   string
		cfg    *Config
		orders *fakeOrders
	}{
		{"channels disabled", &Config{}, &fakeOrders{rec: contactRecord()}},
		{"no contact details", testConfig(), &fakeOrders{rec: &models.OrderRecord{}}},
		{"contact lookup fails", testConfig(), &fakeOrders{err: fmt.Errorf("timeout")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.cfg, tt.orders)

			res, err := f.svc.DeliverOrder(context.Background(), Request{ClientID: 42})
			require.NoError(t, err)
			assert.Equal(t, StatusDisabled, res.Status)
			assert.False(t, res.EmailSent)
			assert.False(t, res.SMSSent)
			assert.Equal(t, "doc-order", res.DocumentID)
			assert.Empty(t, f.ses.inputs)
			assert.Empty(t, f.sns.inputs)
		})
	}
}

func TestDeliverOrder_Validation(t *testing.T) {
	tests := []struct {
		name string
		req  Request
	}{
		{"unknown format", Request{ClientID: 1, Format: "odt"}},
		{"missing client", Request{Email: "a@example.com"}},
		{"bad e-mail", Request{ClientID: 1, Email: "not-an-address"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, testConfig(), nil)
			_, err := f.svc.DeliverOrder(context.Background(), tt.req)
			requireCode(t, err, errors.ErrCodeValidationFailed)
			assert.Empty(t, f.composer.calls)
		})
	}
}

func TestDeliverOrder_ComposerErrorPropagates(t *testing.T) {
	f := newFixture(t, testConfig(), nil)
	f.composer.err = errors.NewNotFoundError("order", "999999")

	_, err := f.svc.DeliverOrder(context.Background(), Request{ClientID: 999999, Email: "a@example.com"})
	requireCode(t, err, errors.ErrCodeNotFound)
	assert.Empty(t, f.ses.inputs)
}

func TestDeliverOrder_NoComposer(t *testing.T) {
	svc := NewService(ServiceDependencies{}, nil)
	_, err := svc.DeliverOrder(context.Background(), Request{ClientID: 1})
	requireCode(t, err, errors.ErrCodeInternal)
}

// ==========================
// BuildMessage
// ==========================

func TestBuildMessage_RequiresAddresses(t *testing.T) {
	_, err := BuildMessage(Message{To: "a@example.com"})
	assert.Error(t, err)
}

func TestBuildMessage_WrapsBase64(t *testing.T) {
	raw, err := BuildMessage(Message{
		From:       "a@example.com",
		To:         "b@example.com",
		Subject:    "Orden",
		Body:       "Adjunto",
		Attachment: &composer.Document{FileName: "x.pdf", ContentType: "application/pdf", Data: bytes.Repeat([]byte{0xff}, 300)},
	})
	require.NoError(t, err)

	for _, line := range strings.Split(string(raw), "\r\n") {
		assert.LessOrEqual(t, len(line), 998)
	}
	assert.Contains(t, string(raw), `Content-Disposition: attachment; filename="x.pdf"`)
}

func TestWrapBase64(t *testing.T) {
	out := string(wrapBase64(bytes.Repeat([]byte("a"), 120)))
	lines := strings.Split(strings.TrimSuffix(out, "\r\n"), "\r\n")
	require.Len(t, lines, 3)
	assert.Len(t, lines[0], base64LineLength)
	assert.Len(t, lines[1], base64LineLength)
}
