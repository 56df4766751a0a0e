package composeevidencedocument

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"shop-documents/internal/common/camunda"
	"shop-documents/internal/common/errors"
	"shop-documents/internal/common/logger"
	"shop-documents/internal/documents/composer"
	"shop-documents/internal/models"
)

const (
	TaskType = "compose-evidence-document"
)

type Composer interface {
	ComposeEvidenceDocument(ctx context.Context, req composer.EvidenceRequest) (*composer.Document, error)
	ComposeChecklistEvidence(ctx context.Context, checklistID int64, placeholders models.PlaceholderSet, leftLogo, rightLogo string) (*composer.Document, error)
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

// Execute runs the composition without a job, for tests and reuse.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	var (
		doc *composer.Document
		err error
	)
	if input.ChecklistID != nil {
		doc, err = h.composer.ComposeChecklistEvidence(ctx, *input.ChecklistID, input.Placeholders, input.LogoBase64, input.LogoDerechoBase64)
	} else {
		layout, lerr := composer.ParseLayout(input.Layout)
		if lerr != nil {
			return nil, errors.NewValidationError("Invalid layout", lerr.Error())
		}
		doc, err = h.composer.ComposeEvidenceDocument(ctx, composer.EvidenceRequest{
			Placeholders: input.Placeholders,
			Images:       input.ImagesBase64,
			LeftLogo:     input.LogoBase64,
			RightLogo:    input.LogoDerechoBase64,
			Layout:       layout,
		})
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
		Images:         doc.Images,
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
		"sizeBytes":  output.SizeBytes,
	})
}
