package composeorderdocument

import (
	"encoding/json"
	"strings"

	"shop-documents/internal/common/errors"
	"shop-documents/internal/common/validation"
)

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"clienteId"},
		Properties: map[string]validation.Property{
			"clienteId": {
				Type:        "integer",
				Description: "Client whose service order is rendered",
				Minimum:     validation.FloatPtr(1),
			},
			"format": {
				Type:    "string",
				Enum:    []string{"docx", "pdf"},
				Default: "docx",
			},
		},
		AdditionalProperties: true,
	}
}

var inputSchema = validation.MustCompile(GetInputSchema())

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
	return &input, nil
}

func GetOutputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"documentId", "fileName", "contentType", "sizeBytes", "documentBase64"},
		Properties: map[string]validation.Property{
			"documentId":     {Type: "string"},
			"fileName":       {Type: "string"},
			"contentType":    {Type: "string"},
			"sizeBytes":      {Type: "integer"},
			"documentBase64": {Type: "string"},
		},
		AdditionalProperties: false,
	}
}
