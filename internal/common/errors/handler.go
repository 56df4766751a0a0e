package errors

import (
	"context"
	"encoding/json"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/commands"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

// Logger is the part of logger.Logger the job error handler needs.
type Logger interface {
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// ErrorHandler reports a failed document job back to the broker. Retryable
// failures go back to the job with a backoff; everything else is thrown as a
// BPMN error the process can catch.
type ErrorHandler struct {
	logger Logger
	// backoff is the delay before the broker hands a failed job out again.
	backoff func(code ErrorCode) time.Duration
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger, backoff: retryBackoff}
}

func retryBackoff(code ErrorCode) time.Duration {
	switch code {
	case ErrCodeDeliveryFailed:
		return 30 * time.Second
	case ErrCodeUpstreamFailed:
		return 5 * time.Second
	default:
		return 0
	}
}

// HandleJobError normalizes err and fails or throws the job accordingly.
func (h *ErrorHandler) HandleJobError(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	stdErr := AsStandard(err)
	bpmnErr := ConvertToBPMNError(stdErr)
	bpmnErr.ErrorVariables["jobKey"] = job.Key

	if bpmnErr.Retries > 0 && job.Retries > 1 {
		retries := job.Retries - 1
		if int(retries) > bpmnErr.Retries {
			retries = int32(bpmnErr.Retries)
		}
		h.logger.Warn("document job failed, returning it for retry", h.fields(job, stdErr, bpmnErr, retries))
		h.failJob(ctx, client, job, stdErr.Code, bpmnErr, retries)
		return
	}

	h.logger.Error("document job failed, throwing BPMN error", h.fields(job, stdErr, bpmnErr, 0))
	h.throwBPMNError(ctx, client, job, bpmnErr)
}

func (h *ErrorHandler) failJob(ctx context.Context, client worker.JobClient, job entities.Job, code ErrorCode, bpmnErr *BPMNError, retries int32) {
	step := client.NewFailJobCommand().
		JobKey(job.Key).
		Retries(retries).
		ErrorMessage(bpmnErr.Message)
	if d := h.backoff(code); d > 0 {
		step = step.RetryBackoff(d)
	}

	var cmd commands.DispatchFailJobCommand = step
	if vars, err := json.Marshal(bpmnErr.ToErrorVariables()); err == nil {
		if withVars, err := step.VariablesFromString(string(vars)); err == nil {
			cmd = withVars
		}
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.reportSendFailure("fail job", job, err)
	}
}

func (h *ErrorHandler) throwBPMNError(ctx context.Context, client worker.JobClient, job entities.Job, bpmnErr *BPMNError) {
	step := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(bpmnErr.Code).
		ErrorMessage(bpmnErr.Message)

	var cmd commands.DispatchThrowErrorCommand = step
	if vars, err := json.Marshal(bpmnErr.ToErrorVariables()); err == nil {
		if withVars, err := step.VariablesFromString(string(vars)); err == nil {
			cmd = withVars
		}
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.reportSendFailure("throw error", job, err)
	}
}

func (h *ErrorHandler) reportSendFailure(command string, job entities.Job, err error) {
	h.logger.Error("failed to report job error to broker", map[string]interface{}{
		"command": command,
		"jobKey":  job.Key,
		"error":   err.Error(),
	})
}

func (h *ErrorHandler) fields(job entities.Job, stdErr *StandardError, bpmnErr *BPMNError, retries int32) map[string]interface{} {
	fields := map[string]interface{}{
		"jobKey":             job.Key,
		"jobType":            job.Type,
		"processInstanceKey": job.ProcessInstanceKey,
		"errorCode":          string(stdErr.Code),
		"bpmnErrorCode":      bpmnErr.Code,
		"message":            bpmnErr.Message,
		"retriesLeft":        retries,
	}
	if stdErr.Details != "" {
		fields["details"] = stdErr.Details
	}
	for k, v := range stdErr.Metadata {
		fields[k] = v
	}
	return fields
}
