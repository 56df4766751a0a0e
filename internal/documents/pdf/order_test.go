package pdf

import (
	"bytes"
	"database/sql"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
	"time"

	"codeberg.org/go-pdf/fpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shop-documents/internal/documents/imageasset"
	"shop-documents/internal/models"
)

func testRecord() *models.OrderRecord {
	return &models.OrderRecord{
		OrderID: sql.NullString{String: "1542", Valid: true},
		Name:    sql.NullString{String: "Juan Pérez", Valid: true},
		Street:  sql.NullString{String: "Av. Hidalgo 1200 Interior 4, entre Morelos y Juárez", Valid: true},
	}
}

func testLogo(t *testing.T) *imageasset.Asset {
	img := image.NewRGBA(image.Rect(0, 0, 40, 20))
	for x := 0; x < 40; x++ {
		img.Set(x, 10, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return &imageasset.Asset{Data: buf.Bytes(), Format: "png", SourceFormat: "png", Width: 40, Height: 20}
}

func TestRenderOrder(t *testing.T) {
	data, err := RenderOrder(testRecord(), Options{
		Logo:       testLogo(t),
		Letterhead: []string{"Servicio Automotriz Trotamundos", "Col. Héroe de Nacozari, C.P. 87030"},
		Contract:   "PRIMERA. El taller...\n\nSEGUNDA. El cliente...",
		Author:     "Servicio Automotriz Trotamundos",
		Created:    time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
	assert.Contains(t, string(data), "/Count 2")
	assert.Contains(t, string(data), "/Subtype /Image")
}

func TestRenderOrder_WithoutLogo(t *testing.T) {
	data, err := RenderOrder(&models.OrderRecord{}, Options{})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
	assert.NotContains(t, string(data), "/Subtype /Image")
}

func TestRenderOrder_Errors(t *testing.T) {
	_, err := RenderOrder(nil, Options{})
	assert.ErrorIs(t, err, ErrNilRecord)

	_, err = RenderOrder(testRecord(), Options{Logo: &imageasset.Asset{Data: []byte("x"), Format: "webp"}})
	assert.ErrorIs(t, err, imageasset.ErrUndecodable)
}

func TestContractParagraphs(t *testing.T) {
	text := "  PRIMERA. uno\r\n\r\n\n\nSEGUNDA. dos\ncontinúa  \n\n   \n\nTERCERA."
	assert.Equal(t, []string{"PRIMERA. uno", "SEGUNDA. dos\ncontinúa", "TERCERA."}, ContractParagraphs(text))
	assert.Empty(t, ContractParagraphs(""))
}

func TestFit_MeasuresTranslatedText(t *testing.T) {
	doc := fpdf.New("P", "mm", "Letter", "")
	doc.SetFont("Helvetica", "", 8)
	tr := doc.UnicodeTranslatorFromDescriptor("")

	accented := tr(strings.Repeat("ÑÁÉÍÓÚ", 4))
	w := doc.GetStringWidth(accented) + 2*doc.GetCellMargin()
	assert.Equal(t, accented, fit(doc, accented, w))

	long := tr("Colonia Héroe de Nacozari, Ciudad Victoria, Tamaulipas, México")
	got := fit(doc, long, 30)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.True(t, strings.HasPrefix(long, strings.TrimSuffix(got, "...")))
	assert.LessOrEqual(t, doc.GetStringWidth(got), 30-2*doc.GetCellMargin())
}
