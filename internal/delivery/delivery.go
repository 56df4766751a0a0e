// Package delivery sends generated service orders to customers by e-mail
// (AWS SES) and notifies them by SMS (AWS SNS).
package delivery

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/google/uuid"

	"shop-documents/internal/common/errors"
	"shop-documents/internal/common/logger"
	"shop-documents/internal/common/metrics"
	"shop-documents/internal/documents/composer"
	"shop-documents/internal/models"
)

const (
	StatusSent     = "sent"
	StatusFailed   = "failed"
	StatusDisabled = "disabled"
)

const (
	FormatDOCX = "docx"
	FormatPDF  = "pdf"
)

const (
	channelEmail = "email"
	channelSMS   = "sms"
)

// EmailSender is satisfied by *ses.Client and aws.SESClient.
type EmailSender interface {
	SendRawEmail(ctx context.Context, params *ses.SendRawEmailInput, optFns ...func(*ses.Options)) (*ses.SendRawEmailOutput, error)
}

// SMSSender is satisfied by *sns.Client and aws.SNSClient.
type SMSSender interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// DocumentComposer renders the order being delivered.
type DocumentComposer interface {
	ComposeOrderDocument(ctx context.Context, clientID int64) (*composer.Document, error)
	ComposeOrderPDF(ctx context.Context, clientID int64) (*composer.Document, error)
}

type Config struct {
	EmailEnabled bool
	SMSEnabled   bool
	FromEmail    string
	SMSSenderID  string
	ShopName     string
}

type ServiceDependencies struct {
	Composer DocumentComposer
	// Orders supplies the customer's contact details when the request omits them.
	Orders composer.OrderSource
	Email  EmailSender
	SMS    SMSSender
	Logger logger.Logger
}

type Request struct {
	ClientID int64  `json:"clienteId"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Format   string `json:"format,omitempty"`
}

type Result struct {
	DeliveryID string `json:"deliveryId"`
	Status     string `json:"status"`
	EmailSent  bool   `json:"emailSent"`
	SMSSent    bool   `json:"smsSent"`
	Recipient  string `json:"recipient,omitempty"`
	DocumentID string `json:"documentId,omitempty"`
	FileName   string `json:"fileName,omitempty"`
	MessageID  string `json:"messageId,omitempty"`
	SentAt     string `json:"sentAt"`
}

type Service struct {
	config   *Config
	composer DocumentComposer
	orders   composer.OrderSource
	email    EmailSender
	sms      SMSSender
	logger   logger.Logger
	now      func() time.Time
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	if config == nil {
		config = &Config{}
	}
	log := deps.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Service{
		config:   config,
		composer: deps.Composer,
		orders:   deps.Orders,
		email:    deps.Email,
		sms:      deps.SMS,
		logger:   log.WithFields(map[string]interface{}{"component": "delivery"}),
		now:      time.Now,
	}
}

// DeliverOrder composes the service order of req.ClientID and sends it.
//
// An e-mail failure fails the delivery. An SMS failure after the e-mail went
// out is logged and reported as smsSent=false.
func (s *Service) DeliverOrder(ctx context.Context, req Request) (*Result, error) {
	format, err := parseFormat(req.Format)
	if err != nil {
		return nil, errors.NewValidationError("Invalid delivery format", err.Error())
	}
	if req.ClientID <= 0 {
		return nil, errors.NewValidationError("Invalid delivery request", "clienteId must be positive")
	}
	if req.Email != "" {
		if _, err := mail.ParseAddress(req.Email); err != nil {
			return nil, errors.NewValidationError("Invalid recipient e-mail", err.Error())
		}
	}
	if s.composer == nil {
		return nil, errors.NewInternalError("Document composer is not configured", nil)
	}

	doc, err := s.compose(ctx, format, req.ClientID)
	if err != nil {
		return nil, err
	}

	email, phone := s.contacts(ctx, req)
	if email != "" {
		addr, err := mail.ParseAddress(email)
		if err != nil {
			return nil, errors.NewValidationError("Invalid recipient e-mail", err.Error())
		}
		email = addr.Address
	}

	result := &Result{
		DeliveryID: uuid.New().String(),
		Status:     StatusDisabled,
		Recipient:  email,
		DocumentID: doc.ID,
		FileName:   doc.FileName,
	}

	sendEmail := s.config.EmailEnabled && s.email != nil && email != ""
	sendSMS := s.config.SMSEnabled && s.sms != nil && phone != ""
	if !sendEmail && !sendSMS {
		s.logger.Info("Delivery disabled or no recipient", map[string]interface{}{
			"clientId":     req.ClientID,
			"emailEnabled": s.config.EmailEnabled,
			"smsEnabled":   s.config.SMSEnabled,
			"hasEmail":     email != "",
			"hasPhone":     phone != "",
		})
		metrics.DeliveriesSent.WithLabelValues("none", StatusDisabled).Inc()
		result.SentAt = s.now().UTC().Format(time.RFC3339)
		return result, nil
	}

	if sendEmail {
		messageID, err := s.sendEmail(ctx, email, doc)
		if err != nil {
			metrics.DeliveriesSent.WithLabelValues(channelEmail, StatusFailed).Inc()
			s.logger.Error("Failed to send order e-mail", map[string]interface{}{
				"clientId":  req.ClientID,
				"recipient": email,
				"error":     err.Error(),
			})
			return nil, errors.NewDeliveryError(channelEmail, err).
				WithMetadata("clientId", req.ClientID).
				WithMetadata("deliveryId", result.DeliveryID)
		}
		metrics.DeliveriesSent.WithLabelValues(channelEmail, StatusSent).Inc()
		result.EmailSent = true
		result.MessageID = messageID
	}

	if sendSMS {
		if err := s.sendSMS(ctx, phone, doc, email); err != nil {
			metrics.DeliveriesSent.WithLabelValues(channelSMS, StatusFailed).Inc()
			s.logger.Warn("Failed to send order SMS", map[string]interface{}{
				"clientId": req.ClientID,
				"error":    err.Error(),
			})
			if !result.EmailSent {
				return nil, errors.NewDeliveryError(channelSMS, err).
					WithMetadata("clientId", req.ClientID).
					WithMetadata("deliveryId", result.DeliveryID)
			}
		} else {
			metrics.DeliveriesSent.WithLabelValues(channelSMS, StatusSent).Inc()
			result.SMSSent = true
		}
	}

	result.Status = StatusSent
	result.SentAt = s.now().UTC().Format(time.RFC3339)

	s.logger.Info("Order delivered", map[string]interface{}{
		"clientId":   req.ClientID,
		"deliveryId": result.DeliveryID,
		"documentId": result.DocumentID,
		"emailSent":  result.EmailSent,
		"smsSent":    result.SMSSent,
	})
	return result, nil
}

func parseFormat(format string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatDOCX:
		return FormatDOCX, nil
	case FormatPDF:
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("format must be %q or %q, got %q", FormatDOCX, FormatPDF, format)
	}
}

func (s *Service) compose(ctx context.Context, format string, clientID int64) (*composer.Document, error) {
	if format == FormatPDF {
		return s.composer.ComposeOrderPDF(ctx, clientID)
	}
	return s.composer.ComposeOrderDocument(ctx, clientID)
}

// contacts fills missing recipient fields from the order record.
func (s *Service) contacts(ctx context.Context, req Request) (email, phone string) {
	email, phone = strings.TrimSpace(req.Email), strings.TrimSpace(req.Phone)
	if (email != "" && phone != "") || s.orders == nil {
		return email, phone
	}

	rec, err := s.orders.FetchOrderRecord(ctx, req.ClientID)
	if err != nil || rec == nil {
		if err != nil {
			s.logger.Debug("Contact lookup failed", map[string]interface{}{
				"clientId": req.ClientID,
				"error":    err.Error(),
			})
		}
		return email, phone
	}
	return withDefaults(rec, email, phone)
}

func withDefaults(rec *models.OrderRecord, email, phone string) (string, string) {
	if email == "" {
		email = rec.ContactEmail()
	}
	if phone == "" {
		phone = rec.ContactPhone()
	}
	return email, phone
}

func (s *Service) sendEmail(ctx context.Context, to string, doc *composer.Document) (string, error) {
	raw, err := BuildMessage(Message{
		From:       s.config.FromEmail,
		To:         to,
		Subject:    s.subject(),
		Body:       s.body(doc),
		Attachment: doc,
	})
	if err != nil {
		return "", fmt.Errorf("build message: %w", err)
	}

	out, err := s.email.SendRawEmail(ctx, &ses.SendRawEmailInput{
		RawMessage:   &sestypes.RawMessage{Data: raw},
		Source:       awssdk.String(s.config.FromEmail),
		Destinations: []string{to},
	})
	if err != nil {
		return "", err
	}
	if out == nil || out.MessageId == nil {
		return "", stderrors.New("SES returned no message id")
	}
	return *out.MessageId, nil
}

func (s *Service) sendSMS(ctx context.Context, phone string, doc *composer.Document, email string) error {
	text := fmt.Sprintf("%s: su orden de servicio (%s) está lista.", s.shopName(), doc.FileName)
	if email != "" {
		text = fmt.Sprintf("%s: enviamos su orden de servicio a %s.", s.shopName(), email)
	}

	input := &sns.PublishInput{
		PhoneNumber: awssdk.String(phone),
		Message:     awssdk.String(text),
		MessageAttributes: map[string]snstypes.MessageAttributeValue{
			"AWS.SNS.SMS.SMSType": {
				DataType:    awssdk.String("String"),
				StringValue: awssdk.String("Transactional"),
			},
		},
	}
	if s.config.SMSSenderID != "" {
		input.MessageAttributes["AWS.SNS.SMS.SenderID"] = snstypes.MessageAttributeValue{
			DataType:    awssdk.String("String"),
			StringValue: awssdk.String(s.config.SMSSenderID),
		}
	}

	_, err := s.sms.Publish(ctx, input)
	return err
}

func (s *Service) shopName() string {
	if s.config.ShopName != "" {
		return s.config.ShopName
	}
	return "Taller"
}

func (s *Service) subject() string {
	return "Orden de servicio - " + s.shopName()
}

func (s *Service) body(doc *composer.Document) string {
	return fmt.Sprintf("Estimado cliente,\r\n\r\nAdjuntamos su orden de servicio (%s).\r\n\r\n%s\r\n",
		doc.FileName, s.shopName())
}
