// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"time"

	"shop-documents/internal/common/errors"
	"shop-documents/internal/common/validation"
	deliver "shop-documents/internal/workers/communication/deliver-order-document"
	evidence "shop-documents/internal/workers/documents/compose-evidence-document"
	order "shop-documents/internal/workers/documents/compose-order-document"
)

const Version = "1.0.0"

func bpmnCodes(codes ...errors.ErrorCode) []string {
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		out = append(out, errors.BPMNErrorMapping[c])
	}
	return out
}

// Catalog returns the activities implemented by the workers in this module.
func Catalog() []Activity {
	return []Activity{
		{
			ID:           evidence.TaskType,
			DisplayName:  "Compose Evidence Document",
			Description:  "Renders the photographic evidence .docx from placeholders and posted or stored photos",
			Category:     "documents",
			Version:      Version,
			TaskType:     evidence.TaskType,
			InputSchema:  evidence.GetInputSchema(),
			OutputSchema: evidence.GetOutputSchema(),
			ErrorCodes:   bpmnCodes(errors.ErrCodeValidationFailed, errors.ErrCodeUpstreamFailed, errors.ErrCodeInternal),
			Timeout:      evidence.LoadConfig().Timeout.String(),
			Retries:      errors.GetRetryCount(errors.ErrCodeUpstreamFailed),
			Tags:         []string{"docx", "evidence"},
		},
		{
			ID:           order.TaskType,
			DisplayName:  "Compose Order Document",
			Description:  "Renders the service order with contract pages as .docx or PDF",
			Category:     "documents",
			Version:      Version,
			TaskType:     order.TaskType,
			InputSchema:  order.GetInputSchema(),
			OutputSchema: order.GetOutputSchema(),
			ErrorCodes:   bpmnCodes(errors.ErrCodeValidationFailed, errors.ErrCodeNotFound, errors.ErrCodeUpstreamFailed, errors.ErrCodeInternal),
			Timeout:      order.LoadConfig().Timeout.String(),
			Retries:      errors.GetRetryCount(errors.ErrCodeUpstreamFailed),
			Tags:         []string{"docx", "pdf", "order"},
		},
		{
			ID:           deliver.TaskType,
			DisplayName:  "Deliver Order Document",
			Description:  "Sends the service order to the customer by e-mail with an SMS notice",
			Category:     "communication",
			Version:      Version,
			TaskType:     deliver.TaskType,
			InputSchema:  deliver.GetInputSchema(),
			OutputSchema: deliver.GetOutputSchema(),
			ErrorCodes:   bpmnCodes(errors.ErrCodeValidationFailed, errors.ErrCodeNotFound, errors.ErrCodeDeliveryFailed, errors.ErrCodeInternal),
			Timeout:      deliver.LoadConfig().Timeout.String(),
			Retries:      errors.GetRetryCount(errors.ErrCodeDeliveryFailed),
			Tags:         []string{"ses", "sns", "order"},
		},
	}
}

// Build returns a registry holding the current catalog.
func Build(now time.Time) *ActivityRegistry {
	return &ActivityRegistry{
		Version:     Version,
		LastUpdated: now.UTC().Format(time.RFC3339),
		Activities:  Catalog(),
	}
}

func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg ActivityRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse registry %s: %w", path, err)
	}
	return &reg, nil
}

func SaveRegistry(reg *ActivityRegistry, path string) error {
	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write registry file: %w", err)
	}
	return nil
}

// Validate checks required fields, duplicate IDs and that every schema
// compiles.
func Validate(reg *ActivityRegistry) error {
	if len(reg.Activities) == 0 {
		return fmt.Errorf("registry contains no activities")
	}
	ids := make(map[string]bool, len(reg.Activities))
	for _, a := range reg.Activities {
		if a.ID == "" {
			return fmt.Errorf("activity missing required field: ID")
		}
		if ids[a.ID] {
			return fmt.Errorf("duplicate activity ID: %s", a.ID)
		}
		ids[a.ID] = true

		if a.DisplayName == "" || a.TaskType == "" || a.Category == "" {
			return fmt.Errorf("activity %s missing displayName, taskType or category", a.ID)
		}
		if _, err := time.ParseDuration(a.Timeout); err != nil {
			return fmt.Errorf("activity %s: invalid timeout %q", a.ID, a.Timeout)
		}
		if _, err := validation.Compile(a.InputSchema); err != nil {
			return fmt.Errorf("activity %s: input schema: %w", a.ID, err)
		}
		if _, err := validation.Compile(a.OutputSchema); err != nil {
			return fmt.Errorf("activity %s: output schema: %w", a.ID, err)
		}
	}
	return nil
}

// Drift lists the IDs whose entry in reg differs from the catalog, plus
// catalog entries missing from reg and reg entries unknown to the catalog.
func Drift(reg *ActivityRegistry) []string {
	published := make(map[string]Activity, len(reg.Activities))
	for _, a := range reg.Activities {
		published[a.ID] = a
	}

	var drift []string
	for _, want := range Catalog() {
		got, ok := published[want.ID]
		delete(published, want.ID)
		if !ok || !sameActivity(got, want) {
			drift = append(drift, want.ID)
		}
	}
	for id := range published {
		drift = append(drift, id)
	}
	sort.Strings(drift)
	return drift
}

// sameActivity compares through JSON so decoded and built entries match.
func sameActivity(a, b Activity) bool {
	var x, y interface{}
	ja, _ := json.Marshal(a)
	jb, _ := json.Marshal(b)
	_ = json.Unmarshal(ja, &x)
	_ = json.Unmarshal(jb, &y)
	return reflect.DeepEqual(x, y)
}
