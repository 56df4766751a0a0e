package deliverorderdocument

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
				Type:    "integer",
				Minimum: validation.FloatPtr(1),
			},
			"email": {
				Type:        "string",
				Description: "Overrides the e-mail on the order record",
				MaxLength:   validation.IntPtr(254),
			},
			"phone": {
				Type:        "string",
				Description: "Overrides the mobile on the order record",
				Pattern:     validation.StringPtr(`^\+?[0-9]{10,15}$`),
			},
			"format": {
				Type: "string",
				Enum: []string{"docx", "pdf"},
			},
		},
		AdditionalProperties: true,
	}
}

func GetOutputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"deliveryId", "deliveryStatus", "emailSent", "smsSent", "sentAt"},
		Properties: map[string]validation.Property{
			"deliveryId":     {Type: "string"},
			"deliveryStatus": {Type: "string", Enum: []string{"sent", "disabled"}},
			"emailSent":      {Type: "boolean"},
			"smsSent":        {Type: "boolean"},
			"recipient":      {Type: "string"},
			"documentId":     {Type: "string"},
			"messageId":      {Type: "string"},
			"sentAt":         {Type: "string"},
		},
		AdditionalProperties: false,
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
