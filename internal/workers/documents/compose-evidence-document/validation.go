package composeevidencedocument

import (
	"encoding/json"
	"strings"

	"shop-documents/internal/common/errors"
	"shop-documents/internal/common/validation"
)

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"placeholders"},
		Properties: map[string]validation.Property{
			"checklistId": {
				Type:        "integer",
				Description: "Checklist whose stored photos are printed",
				Minimum:     validation.FloatPtr(1),
			},
			"placeholders": {
				Type:                 "object",
				Description:          "Label/value pairs printed above the photos",
				AdditionalProperties: &validation.Property{Type: "string"},
			},
			"imagesBase64": {
				Type:        "array",
				Description: "Photos as base64 strings",
				Items:       &validation.Property{Type: "string", MinLength: validation.IntPtr(1)},
			},
			"logoBase64": {
				Type:        "string",
				Description: "Left header logo",
			},
			"logoDerechoBase64": {
				Type:        "string",
				Description: "Right header logo",
			},
			"layout": {
				Type: "string",
				Enum: []string{"compact", "generic"},
			},
		},
		// Process scopes carry unrelated variables.
		AdditionalProperties: true,
	}
}

func GetOutputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type: "object",
		Properties: map[string]validation.Property{
			"documentId":     {Type: "string"},
			"fileName":       {Type: "string"},
			"contentType":    {Type: "string"},
			"sizeBytes":      {Type: "integer"},
			"images":         {Type: "integer"},
			"documentBase64": {Type: "string"},
		},
		AdditionalProperties: false,
	}
}

var inputSchema = validation.MustCompile(GetInputSchema())

// parseInput validates the job variables and decodes them.
func parseInput(variables string) (*Input, error) {
	result, err := inputSchema.ValidateBytes([]byte(variables))
	if err != nil {
		return nil, errors.NewValidationError("Invalid job variables", err.Error())
	}
	if !result.Valid {
		return nil, errors.NewValidationError("Invalid job variables", strings.Join(result.GetErrorMessages(), "; "))
	}

	var input Input
	if err := json.Unmarshal([]byte(variables), &input); err != nil {
		return nil, errors.NewValidationError("Invalid job variables", err.Error())
	}
	if input.ChecklistID == nil && len(input.ImagesBase64) == 0 {
		return nil, errors.NewValidationError("Invalid job variables", "either checklistId or imagesBase64 is required")
	}
	return &input, nil
}
