// pkg/registry/schema.go
package registry

import "shop-documents/internal/common/validation"

// ActivityRegistry is the published catalogue of job types this service
// handles, read by process modellers.
type ActivityRegistry struct {
	Version     string     `json:"version"`
	LastUpdated string     `json:"lastUpdated"`
	Activities  []Activity `json:"activities"`
}

type Activity struct {
	ID           string                `json:"id"`
	DisplayName  string                `json:"displayName"`
	Description  string                `json:"description"`
	Category     string                `json:"category"`
	Version      string                `json:"version"`
	TaskType     string                `json:"taskType"`
	InputSchema  validation.JSONSchema `json:"inputSchema"`
	OutputSchema validation.JSONSchema `json:"outputSchema"`
	// ErrorCodes are the BPMN error codes the job can throw.
	ErrorCodes []string `json:"errorCodes"`
	Timeout    string   `json:"timeout"`
	Retries    int      `json:"retries"`
	Tags       []string `json:"tags"`
}
