// Package pdf renders the service order as a PDF with the same cover and
// contract pages as the Word version.
package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"codeberg.org/go-pdf/fpdf"

	"shop-documents/internal/documents/imageasset"
	"shop-documents/internal/models"
)

// ContentType is the media type of rendered documents.
const ContentType = "application/pdf"

var ErrNilRecord = errors.New("PDF_NIL_RECORD")

// Page geometry in millimetres, Letter portrait.
const (
	marginTopBottom = 10.16 // 0.4in
	marginSides     = 12.7  // 0.5in
	logoWidth       = 30.48 // 1.2in
	labelWidth      = 50.0  // 5cm
	valueWidth      = 70.0  // 7cm
	headerHeight    = 7.0
	rowHeight       = 4.233 // 240 twips
	notesHeight     = 6.35  // 360 twips
	sectionGap      = 4.0
	contractLeading = 2.4
)

// Options carries the assets that are not part of the order record.
type Options struct {
	// Logo is drawn in the letterhead when set.
	Logo       *imageasset.Asset
	Letterhead []string
	Contract   string
	Author     string
	// Created pins the document creation date; zero uses the current time.
	Created time.Time
}

type renderer struct {
	doc   *fpdf.Fpdf
	tr    func(string) string
	left  float64
	width float64
}

// RenderOrder draws the cover page of rec followed by the contract page.
func RenderOrder(rec *models.OrderRecord, opts Options) ([]byte, error) {
	if rec == nil {
		return nil, ErrNilRecord
	}

	doc := fpdf.New("P", "mm", "Letter", "")
	doc.SetMargins(marginSides, marginTopBottom, marginSides)
	doc.SetAutoPageBreak(true, marginTopBottom)
	doc.SetTitle("Orden de Servicio "+rec.OrderNumber(), true)
	if opts.Author != "" {
		doc.SetAuthor(opts.Author, true)
	}
	if !opts.Created.IsZero() {
		doc.SetCreationDate(opts.Created)
	}

	pageW, _ := doc.GetPageSize()
	r := &renderer{
		doc:   doc,
		tr:    doc.UnicodeTranslatorFromDescriptor(""),
		left:  marginSides,
		width: pageW - 2*marginSides,
	}

	doc.AddPage()
	if err := r.letterhead(rec, opts); err != nil {
		return nil, err
	}
	r.fieldTable("Información del Cliente", rec.CustomerFields())
	r.fieldTable("Detalles del Vehículo", rec.VehicleFields())
	r.fieldTable("Inventario del Vehículo", rec.InventoryFields())
	r.observations()
	r.signatures()

	doc.AddPage()
	r.contract(opts.Contract)

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("render order pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *renderer) letterhead(rec *models.OrderRecord, opts Options) error {
	doc := r.doc
	top := doc.GetY()
	col := r.width / 3
	bottom := top

	if opts.Logo != nil {
		kind, err := imageType(opts.Logo.Format)
		if err != nil {
			return err
		}
		options := fpdf.ImageOptions{ImageType: kind}
		info := doc.RegisterImageOptionsReader("letterhead-logo", options, bytes.NewReader(opts.Logo.Data))
		if doc.Err() {
			return fmt.Errorf("register logo: %w", doc.Error())
		}
		doc.ImageOptions("letterhead-logo", r.left, top, logoWidth, 0, false, options, 0, "")
		if w := info.Width(); w > 0 {
			bottom = top + logoWidth*info.Height()/w
		}
	}

	doc.SetTextColor(0, 0, 0)
	doc.SetXY(r.left+col, top)
	doc.SetFont("Times", "B", 10)
	doc.CellFormat(col, 4.5, r.tr("ORDEN DE SERVICIO"), "", 2, "C", false, 0, "")
	doc.SetFont("Times", "", 8)
	for _, line := range opts.Letterhead {
		doc.CellFormat(col, 3.5, r.tr(line), "", 2, "C", false, 0, "")
	}
	if y := doc.GetY(); y > bottom {
		bottom = y
	}

	doc.SetXY(r.left+2*col, top)
	doc.SetFont("Times", "B", 10)
	doc.CellFormat(col, 4.5, "ORDEN", "", 2, "R", false, 0, "")
	doc.CellFormat(col, 4.5, r.tr("No. "+rec.OrderNumber()), "", 2, "R", false, 0, "")
	if y := doc.GetY(); y > bottom {
		bottom = y
	}

	doc.SetXY(r.left, bottom+sectionGap)
	return nil
}

func (r *renderer) tableX() float64 {
	return r.left + (r.width-labelWidth-valueWidth)/2
}

func (r *renderer) headerRow(title string, widths ...float64) {
	doc := r.doc
	doc.SetX(r.tableX())
	doc.SetFillColor(0x80, 0x80, 0x80)
	doc.SetTextColor(0xff, 0xff, 0xff)
	doc.SetFont("Times", "B", 11)
	for i, w := range widths {
		text := ""
		if i == 0 {
			text = r.tr(title)
		}
		ln := 0
		if i == len(widths)-1 {
			ln = 1
		}
		doc.CellFormat(w, headerHeight, text, "1", ln, "C", true, 0, "")
	}
	doc.SetTextColor(0, 0, 0)
}

func (r *renderer) fieldTable(title string, fields []models.Field) {
	doc := r.doc
	doc.SetLineWidth(0.3)
	r.headerRow(title, labelWidth, valueWidth)

	doc.SetFont("Times", "B", 9)
	for _, f := range fields {
		doc.SetX(r.tableX())
		doc.CellFormat(labelWidth, rowHeight, r.tr(f.Label), "1", 0, "C", false, 0, "")
		doc.CellFormat(valueWidth, rowHeight, fit(doc, r.tr(f.Value), valueWidth), "1", 1, "C", false, 0, "")
	}
	doc.Ln(sectionGap)
}

func (r *renderer) observations() {
	r.headerRow("Observaciones", labelWidth+valueWidth)
	r.doc.SetX(r.tableX())
	r.doc.CellFormat(labelWidth+valueWidth, notesHeight, "", "1", 1, "L", false, 0, "")
	r.doc.Ln(sectionGap * 2)
}

func (r *renderer) signatures() {
	doc := r.doc
	half := (labelWidth + valueWidth) / 2
	doc.SetFont("Times", "B", 9)

	doc.SetX(r.tableX())
	doc.CellFormat(half, rowHeight, "__________________________", "", 0, "C", false, 0, "")
	doc.CellFormat(half, rowHeight, "__________________________", "", 1, "C", false, 0, "")
	doc.SetX(r.tableX())
	doc.CellFormat(half, rowHeight, "Firma del Proveedor", "", 0, "C", false, 0, "")
	doc.CellFormat(half, rowHeight, "Firma del Cliente", "", 1, "C", false, 0, "")
}

func (r *renderer) contract(text string) {
	doc := r.doc
	doc.SetFont("Times", "", 5.5)
	for _, para := range ContractParagraphs(text) {
		doc.MultiCell(0, contractLeading, r.tr(para), "", "J", false)
		doc.Ln(contractLeading / 2)
	}
}

// ContractParagraphs splits the contract at blank lines and trims each block.
func ContractParagraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var paras []string
	for _, block := range strings.Split(text, "\n\n") {
		if block = strings.TrimSpace(block); block != "" {
			paras = append(paras, block)
		}
	}
	return paras
}

// fit shortens s with an ellipsis until it fits in a cell of width w. s must
// already be translated to the font's code page, one byte per glyph.
func fit(doc *fpdf.Fpdf, s string, w float64) string {
	limit := w - 2*doc.GetCellMargin()
	if doc.GetStringWidth(s) <= limit {
		return s
	}
	n := len(s)
	for n > 0 && doc.GetStringWidth(s[:n]+"...") > limit {
		n--
	}
	return s[:n] + "..."
}

func imageType(format string) (string, error) {
	switch format {
	case "png":
		return "PNG", nil
	case "jpeg", "jpg":
		return "JPG", nil
	case "gif":
		return "GIF", nil
	default:
		return "", fmt.Errorf("%w: %s", imageasset.ErrUndecodable, format)
	}
}
