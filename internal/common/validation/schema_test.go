package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchema() JSONSchema {
	return JSONSchema{
		Type:     "object",
		Required: []string{"clienteId"},
		Properties: map[string]Property{
			"clienteId": {Type: "integer", Minimum: FloatPtr(1)},
			"format":    {Type: "string", Enum: []string{"docx", "pdf"}},
			"email":     {Type: "string", MaxLength: IntPtr(10)},
			"images": {
				Type:     "array",
				MinItems: IntPtr(1),
				Items:    &Property{Type: "string", MinLength: IntPtr(1)},
			},
			"placeholders": {
				Type:                 "object",
				AdditionalProperties: &Property{Type: "string"},
			},
		},
		AdditionalProperties: false,
	}
}

func TestSchema_ValidateBytes(t *testing.T) {
	s := MustCompile(testSchema())

	tests := []struct {
		name      string
		body      string
		wantField string
		wantCode  string
	}{
		{"valid", `{"clienteId": 42, "format": "pdf", "placeholders": {"folio": "A1"}}`, "", ""},
		{"missing required", `{"format": "pdf"}`, "clienteId", "REQUIRED_FIELD_MISSING"},
		{"wrong type", `{"clienteId": "42"}`, "clienteId", "INVALID_TYPE"},
		{"below minimum", `{"clienteId": 0}`, "clienteId", "MINIMUM_VIOLATION"},
		{"bad enum", `{"clienteId": 1, "format": "odt"}`, "format", "INVALID_ENUM_VALUE"},
		{"too long", `{"clienteId": 1, "email": "someone@example.com"}`, "email", "MAX_LENGTH_VIOLATION"},
		{"extra field", `{"clienteId": 1, "foo": true}`, "foo", "EXTRA_FIELD"},
		{"empty array", `{"clienteId": 1, "images": []}`, "images", "MIN_ITEMS_VIOLATION"},
		{"non-string placeholder", `{"clienteId": 1, "placeholders": {"km": 12}}`, "placeholders.km", "INVALID_TYPE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := s.ValidateBytes([]byte(tt.body))
			require.NoError(t, err)
			if tt.wantCode == "" {
				assert.True(t, res.Valid, res.GetErrorMessages())
				assert.Empty(t, res.Errors)
				return
			}
			assert.False(t, res.Valid)
			require.NotEmpty(t, res.Errors)
			assert.True(t, res.HasErrors(tt.wantField), "errors: %v", res.GetErrorMessages())
			assert.Equal(t, tt.wantCode, res.GetErrorsForField(tt.wantField)[0].Code)
		})
	}
}

func TestSchema_ValidateBytes_NotJSON(t *testing.T) {
	s := MustCompile(testSchema())
	_, err := s.ValidateBytes([]byte(`{"clienteId": `))
	assert.Error(t, err)
}

func TestValidateInput(t *testing.T) {
	res := ValidateInput(map[string]interface{}{"clienteId": float64(7), "format": "docx"}, testSchema())
	assert.True(t, res.Valid)

	res = ValidateInput(map[string]interface{}{"images": []interface{}{""}}, testSchema())
	assert.False(t, res.Valid)
	assert.True(t, res.HasErrors("clienteId"))
	assert.True(t, res.HasErrors("images"))
}

func TestCompile_InvalidSchema(t *testing.T) {
	_, err := Compile(JSONSchema{Type: "object", Properties: map[string]Property{"x": {Type: "not-a-type"}}})
	assert.Error(t, err)
	assert.Panics(t, func() {
		MustCompile(JSONSchema{Type: "object", Properties: map[string]Property{"x": {Type: "not-a-type"}}})
	})
}

func TestGetErrorMessages(t *testing.T) {
	vr := &ValidationResult{Errors: []ValidationError{{Field: "clienteId", Message: "is required"}}}
	assert.Equal(t, []string{"clienteId: is required"}, vr.GetErrorMessages())
}
