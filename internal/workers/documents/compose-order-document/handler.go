package composeorderdocument

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"shop-documents/internal/common/camunda"
	"shop-documents/internal/common/errors"
	"shop-documents/internal/common/logger"
	"shop-documents/internal/documents/composer"
)

const (
	TaskType = "compose-order-document"
)

type Composer interface {
	ComposeOrderDocument(ctx context.Context, clientID int64) (*composer.Document, error)
	ComposeOrderPDF(ctx context.Context, clientID int64) (*composer.Document, error)
}

type Handler struct {
	config   *Config
	composer Composer
	errors   *errors.ErrorHandler
	logger   logger.Logger
}

func NewHandler(config *Config, c Composer, log logger.Logger) *Handler {
	if config == nil {
		config = LoadConfig()
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:   config,
		composer: c,
		errors:   errors.NewErrorHandler(log),
		logger:   log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	input, err := parseInput(job.Variables)
	if err != nil {
		h.errors.HandleJobError(ctx, client, job, err)
		return
	}

	output, err := h.execute(ctx, input)
	if err != nil {
		h.errors.HandleJobError(ctx, client, job, err)
		return
	}

	h.completeJob(ctx, client, job, output)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.ClientID <= 0 {
		return nil, errors.NewValidationError("Invalid clienteId", "clienteId must be a positive integer")
	}

	var (
		doc *composer.Document
		err error
	)
	switch strings.ToLower(input.Format) {
	case "", "docx":
		doc, err = h.composer.ComposeOrderDocument(ctx, input.ClientID)
	case "pdf":
		doc, err = h.composer.ComposeOrderPDF(ctx, input.ClientID)
	default:
		return nil, errors.NewValidationError("Invalid format", fmt.Sprintf("unsupported format %q", input.Format))
	}
	if err != nil {
		return nil, err
	}

	if doc.Size() > h.config.MaxDocumentBytes {
		return nil, errors.NewValidationError("Document too large for process variables",
			fmt.Sprintf("%d bytes exceeds the %d byte limit", doc.Size(), h.config.MaxDocumentBytes))
	}

	return &Output{
		DocumentID:     doc.ID,
		FileName:       doc.FileName,
		ContentType:    doc.ContentType,
		SizeBytes:      doc.Size(),
		DocumentBase64: base64.StdEncoding.EncodeToString(doc.Data),
	}, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	if err := camunda.CompleteJob(ctx, client, job.Key, output); err != nil {
		h.logger.Error("failed to complete job", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}
	h.logger.Info("job completed", map[string]interface{}{
		"jobKey":     job.Key,
		"documentId": output.DocumentID,
		"fileName":   output.FileName,
	})
}
