package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shop-documents/internal/documents/docx"
)

func writeSample(t *testing.T) string {
	t.Helper()
	doc := docx.New()
	doc.Body().AddParagraph().AddRun("Orden de servicio").Bold()
	table := doc.Body().AddTable(2, 2)
	table.Cell(0, 0).SetText("NOMBRE:")
	table.Cell(0, 1).SetText("Ana")
	doc.Body().AddPageBreak()

	data, err := doc.Bytes()
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "sample.docx")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestInspect_Text(t *testing.T) {
	path := writeSample(t)

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--cells", path})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "table 1: 2x2")
	assert.Contains(t, out.String(), "| NOMBRE: | Ana |")
}

func TestInspect_JSON(t *testing.T) {
	path := writeSample(t)

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--json", path})
	require.NoError(t, cmd.Execute())

	var summary fileSummary
	require.NoError(t, json.Unmarshal(out.Bytes(), &summary))
	require.Len(t, summary.Body.Tables, 1)
	assert.Equal(t, 2, summary.Body.Tables[0].Rows)
	assert.Equal(t, 1, summary.Body.PageBreaks)
	assert.Nil(t, summary.Body.Tables[0].Cells)
}

func TestInspect_NotADocx(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.docx")
	require.NoError(t, os.WriteFile(path, []byte("not a zip"), 0o600))

	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{path})
	assert.Error(t, cmd.Execute())
}
