package composeevidencedocument

import (
	"context"
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"shop-documents/internal/common/errors"
	"shop-documents/internal/common/logger"
	"shop-documents/internal/documents/composer"
	"shop-documents/internal/models"
)

// ==========================================
// Test Helpers
// ==========================================

func createTestConfig() *Config {
	return &Config{
		Timeout:          5 * time.Second,
		MaxDocumentBytes: 1 << 20,
	}
}

func createTestLogger(t *testing.T) logger.Logger {
	return logger.NewZapAdapter(zaptest.NewLogger(t))
}

type fakeComposer struct {
	doc         *composer.Document
	err         error
	lastRequest *composer.EvidenceRequest
	checklistID int64
}

func (f *fakeComposer) ComposeEvidenceDocument(_ context.Context, req composer.EvidenceRequest) (*composer.Document, error) {
	f.lastRequest = &req
	return f.doc, f.err
}

func (f *fakeComposer) ComposeChecklistEvidence(_ context.Context, checklistID int64, _ models.PlaceholderSet, _, _ string) (*composer.Document, error) {
	f.checklistID = checklistID
	return f.doc, f.err
}

func testDocument(size int) *composer.Document {
	return &composer.Document{
		ID:          "doc-1",
		Kind:        composer.KindEvidence,
		FileName:    composer.EvidenceFileName,
		ContentType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		Data:        make([]byte, size),
		Images:      2,
	}
}

func int64Ptr(v int64) *int64 { return &v }

// ==========================================
// Execute Tests
// ==========================================

func TestExecute_ImagesPath(t *testing.T) {
	fake := &fakeComposer{doc: testDocument(128)}
	handler := NewHandler(createTestConfig(), fake, createTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{
		Placeholders: models.NewPlaceholderSet("placa", "ABC-123"),
		ImagesBase64: []string{"aW1n", "aW1n"},
		LogoBase64:   "bG9nbw==",
		Layout:       "generic",
	})
	require.NoError(t, err)

	require.NotNil(t, fake.lastRequest)
	assert.Equal(t, composer.LayoutGeneric, fake.lastRequest.Layout)
	assert.Len(t, fake.lastRequest.Images, 2)
	assert.Equal(t, "bG9nbw==", fake.lastRequest.LeftLogo)

	assert.Equal(t, "doc-1", output.DocumentID)
	assert.Equal(t, composer.EvidenceFileName, output.FileName)
	assert.Equal(t, 128, output.SizeBytes)
	assert.Equal(t, 2, output.Images)

	decoded, err := base64.StdEncoding.DecodeString(output.DocumentBase64)
	require.NoError(t, err)
	assert.Len(t, decoded, 128)
}

func TestExecute_DefaultsToCompactLayout(t *testing.T) {
	fake := &fakeComposer{doc: testDocument(10)}
	handler := NewHandler(createTestConfig(), fake, createTestLogger(t))

	_, err := handler.Execute(context.Background(), &Input{ImagesBase64: []string{"aW1n"}})
	require.NoError(t, err)
	assert.Equal(t, composer.LayoutCompact, fake.lastRequest.Layout)
}

func TestExecute_ChecklistPath(t *testing.T) {
	fake := &fakeComposer{doc: testDocument(10)}
	handler := NewHandler(createTestConfig(), fake, createTestLogger(t))

	_, err := handler.Execute(context.Background(), &Input{ChecklistID: int64Ptr(42)})
	require.NoError(t, err)
	assert.Equal(t, int64(42), fake.checklistID)
	assert.Nil(t, fake.lastRequest)
}

func TestExecute_Errors(t *testing.T) {
	tests := []struct {
		name     string
		fake     *fakeComposer
		input    *Input
		wantCode errors.ErrorCode
	}{
		{
			name:     "unknown layout",
			fake:     &fakeComposer{doc: testDocument(10)},
			input:    &Input{ImagesBase64: []string{"aW1n"}, Layout: "poster"},
			wantCode: errors.ErrCodeValidationFailed,
		},
		{
			name:     "composer failure propagates",
			fake:     &fakeComposer{err: errors.NewUpstreamError("Failed to fetch evidence images", nil)},
			input:    &Input{ChecklistID: int64Ptr(7)},
			wantCode: errors.ErrCodeUpstreamFailed,
		},
		{
			name:     "document above variable limit",
			fake:     &fakeComposer{doc: testDocument(2 << 20)},
			input:    &Input{ImagesBase64: []string{"aW1n"}},
			wantCode: errors.ErrCodeValidationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewHandler(createTestConfig(), tt.fake, createTestLogger(t))
			output, err := handler.Execute(context.Background(), tt.input)
			assert.Nil(t, output)
			assert.True(t, errors.HasCode(err, tt.wantCode), "got %v", err)
		})
	}
}

// ==========================================
// Input Parsing Tests
// ==========================================

func TestParseInput(t *testing.T) {
	tests := []struct {
		name      string
		variables string
		wantErr   bool
	}{
		{
			name:      "images with extra process variables",
			variables: `{"placeholders":{"placa":"ABC"},"imagesBase64":["aW1n"],"logoBase64":"","logoDerechoBase64":"","orderStatus":"open"}`,
		},
		{
			name:      "checklist",
			variables: `{"placeholders":{},"checklistId":12,"logoBase64":"","logoDerechoBase64":""}`,
		},
		{
			name:      "neither images nor checklist",
			variables: `{"placeholders":{}}`,
			wantErr:   true,
		},
		{
			name:      "missing placeholders",
			variables: `{"imagesBase64":["aW1n"]}`,
			wantErr:   true,
		},
		{
			name:      "non-positive checklist",
			variables: `{"placeholders":{},"checklistId":0}`,
			wantErr:   true,
		},
		{
			name:      "bad layout",
			variables: `{"placeholders":{},"imagesBase64":["aW1n"],"layout":"poster"}`,
			wantErr:   true,
		},
		{
			name:      "not JSON",
			variables: `placeholders`,
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input, err := parseInput(tt.variables)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.HasCode(err, errors.ErrCodeValidationFailed))
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, input)
		})
	}
}

func TestParseInput_KeepsPlaceholderOrder(t *testing.T) {
	input, err := parseInput(`{"placeholders":{"zeta":"1","alpha":"2"},"imagesBase64":["aW1n"]}`)
	require.NoError(t, err)
	require.Len(t, input.Placeholders, 2)
	assert.Equal(t, "zeta", input.Placeholders[0].Key)
	assert.Equal(t, "alpha", input.Placeholders[1].Key)
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, LoadConfig().Validate())
	assert.Error(t, (&Config{MaxDocumentBytes: 1}).Validate())
	assert.Error(t, (&Config{Timeout: time.Second}).Validate())
}
