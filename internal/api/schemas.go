package api

import "shop-documents/internal/common/validation"

var placeholdersProperty = validation.Property{
	Type:                 "object",
	Description:          "Label/value pairs printed above the photos",
	AdditionalProperties: &validation.Property{Type: "string"},
}

var logoProperty = validation.Property{
	Type:        "string",
	Description: "Base64 logo, optionally data-URI prefixed",
}

var evidenceSchema = validation.MustCompile(validation.JSONSchema{
	Type:     "object",
	Required: []string{"placeholders", "images_base64", "logo_base64", "logo_derecho_base64"},
	Properties: map[string]validation.Property{
		"placeholders": placeholdersProperty,
		"images_base64": {
			Type:        "array",
			Description: "Evidence photos as base64 strings",
			MinItems:    validation.IntPtr(1),
			Items:       &validation.Property{Type: "string", MinLength: validation.IntPtr(1)},
		},
		"logo_base64":         logoProperty,
		"logo_derecho_base64": logoProperty,
	},
	AdditionalProperties: false,
})

var checklistEvidenceSchema = validation.MustCompile(validation.JSONSchema{
	Type:     "object",
	Required: []string{"id_checklist", "placeholders", "logo_base64", "logo_derecho_base64"},
	Properties: map[string]validation.Property{
		"id_checklist": {
			Type:        "integer",
			Description: "Checklist whose stored photos are printed",
			Minimum:     validation.FloatPtr(1),
		},
		"placeholders":        placeholdersProperty,
		"logo_base64":         logoProperty,
		"logo_derecho_base64": logoProperty,
	},
	AdditionalProperties: false,
})

var sendOrderSchema = validation.MustCompile(validation.JSONSchema{
	Type:     "object",
	Required: []string{"clienteId"},
	Properties: map[string]validation.Property{
		"clienteId": {
			Type:        "integer",
			Description: "Client whose service order is sent",
			Minimum:     validation.FloatPtr(1),
		},
		"email": {
			Type:        "string",
			Description: "Recipient; defaults to the e-mail on the order",
			MaxLength:   validation.IntPtr(255),
		},
		"phone": {
			Type:        "string",
			Description: "SMS recipient in E.164; defaults to the order's mobile",
			Pattern:     validation.StringPtr(`^\+?[0-9]{10,15}$`),
		},
		"format": {
			Type: "string",
			Enum: []string{"docx", "pdf"},
		},
	},
	AdditionalProperties: false,
})
