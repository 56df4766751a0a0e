package deliverorderdocument

import (
	"context"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"shop-documents/internal/common/camunda"
	"shop-documents/internal/common/errors"
	"shop-documents/internal/common/logger"
	"shop-documents/internal/delivery"
)

const (
	TaskType = "deliver-order-document"
)

type Deliverer interface {
	DeliverOrder(ctx context.Context, req delivery.Request) (*delivery.Result, error)
}

type Handler struct {
	config    *Config
	deliverer Deliverer
	errors    *errors.ErrorHandler
	logger    logger.Logger
}

func NewHandler(config *Config, deliverer Deliverer, log logger.Logger) *Handler {
	if config == nil {
		config = LoadConfig()
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:    config,
		deliverer: deliverer,
		errors:    errors.NewErrorHandler(log),
		logger:    log,
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

// execute completes with deliveryStatus "disabled" when no channel could be
// used, so the process can branch on it instead of handling an incident.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	res, err := h.deliverer.DeliverOrder(ctx, delivery.Request{
		ClientID: input.ClientID,
		Email:    input.Email,
		Phone:    input.Phone,
		Format:   input.Format,
	})
	if err != nil {
		return nil, err
	}

	if res.Status == delivery.StatusDisabled {
		h.logger.Warn("order document not delivered, no channel available", map[string]interface{}{
			"clienteId":  input.ClientID,
			"deliveryId": res.DeliveryID,
		})
	}

	return &Output{
		DeliveryID:     res.DeliveryID,
		DeliveryStatus: res.Status,
		EmailSent:      res.EmailSent,
		SMSSent:        res.SMSSent,
		Recipient:      res.Recipient,
		DocumentID:     res.DocumentID,
		MessageID:      res.MessageID,
		SentAt:         res.SentAt,
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
		"jobKey":         job.Key,
		"deliveryId":     output.DeliveryID,
		"deliveryStatus": output.DeliveryStatus,
	})
}
