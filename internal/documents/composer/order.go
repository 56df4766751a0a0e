package composer

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"shop-documents/internal/common/errors"
	"shop-documents/internal/documents/docx"
	"shop-documents/internal/documents/imageasset"
	"shop-documents/internal/documents/pdf"
	"shop-documents/internal/models"
	"shop-documents/internal/repository"
)

const (
	orderLogoWidth   = 1.2 // inches
	orderBorder      = 24  // eighths of a point
	orderHeaderFill  = "808080"
	orderFont        = "Times New Roman"
	orderRowHeight   = 240
	orderNotesHeight = 360
	signatureLine    = "__________________________"
)

// orderMargins are 0.4in top/bottom and 0.5in left/right.
var orderMargins = docx.Margins{Top: 576, Bottom: 576, Left: 720, Right: 720, Header: 360, Footer: 360}

// ComposeOrderDocument renders the service order of clientID as a Word document.
func (s *Service) ComposeOrderDocument(ctx context.Context, clientID int64) (*Document, error) {
	return s.compose(ctx, KindOrder, formatID(clientID), func(ctx context.Context) (*Document, error) {
		rec, err := s.lookupOrder(ctx, clientID)
		if err != nil {
			return nil, err
		}
		logo, err := s.shopLogo()
		if err != nil {
			return nil, err
		}

		doc, err := s.buildOrderDocx(rec, logo)
		if err != nil {
			return nil, err
		}
		data, err := doc.Bytes()
		if err != nil {
			return nil, errors.NewInternalError("Failed to write order document", err)
		}

		images := 0
		if logo != nil {
			images = 1
		}
		return newDocument(KindOrder, OrderFileName, docx.ContentType, data, images), nil
	})
}

// ComposeOrderPDF renders the service order of clientID as a PDF.
func (s *Service) ComposeOrderPDF(ctx context.Context, clientID int64) (*Document, error) {
	return s.compose(ctx, KindOrderPDF, formatID(clientID), func(ctx context.Context) (*Document, error) {
		rec, err := s.lookupOrder(ctx, clientID)
		if err != nil {
			return nil, err
		}
		logo, err := s.shopLogo()
		if err != nil {
			return nil, err
		}

		data, err := pdf.RenderOrder(rec, pdf.Options{
			Logo:       logo,
			Letterhead: s.config.Letterhead,
			Contract:   s.assets.Contract,
			Author:     s.config.ShopName,
			Created:    s.now(),
		})
		if err != nil {
			return nil, errors.NewInternalError("Failed to render order PDF", err)
		}

		images := 0
		if logo != nil {
			images = 1
		}
		return newDocument(KindOrderPDF, OrderPDFFileName, pdf.ContentType, data, images), nil
	})
}

func (s *Service) lookupOrder(ctx context.Context, clientID int64) (*models.OrderRecord, error) {
	if s.orders == nil {
		return nil, errors.NewInternalError("Order store is not configured", nil)
	}

	rec, err := s.orders.FetchOrderRecord(ctx, clientID)
	switch {
	case stderrors.Is(err, repository.ErrNotFound):
		return nil, errors.NewNotFoundError("order", formatID(clientID))
	case err != nil:
		return nil, errors.NewUpstreamError("Failed to fetch order record", err).
			WithMetadata("clientId", clientID)
	case rec == nil:
		return nil, errors.NewNotFoundError("order", formatID(clientID))
	}
	return rec, nil
}

// shopLogo decodes the configured letterhead logo; no logo configured is not an error.
func (s *Service) shopLogo() (*imageasset.Asset, error) {
	if s.assets.ShopLogo == "" {
		return nil, nil
	}
	logo, err := s.decoder.Decode(s.assets.ShopLogo)
	if err != nil {
		return nil, errors.NewInternalError("Invalid shop logo asset", err)
	}
	return logo, nil
}

func (s *Service) buildOrderDocx(rec *models.OrderRecord, logo *imageasset.Asset) (*docx.Document, error) {
	doc := docx.New()
	doc.Title = "Orden de Servicio " + rec.OrderNumber()
	doc.Creator = s.config.ShopName
	doc.SetMargins(orderMargins)
	body := doc.Body()

	if err := s.letterhead(body, rec, logo); err != nil {
		return nil, err
	}
	fieldTable(body, "Información del Cliente", rec.CustomerFields())
	fieldTable(body, "Detalles del Vehículo", rec.VehicleFields())
	fieldTable(body, "Inventario del Vehículo", rec.InventoryFields())
	observationsTable(body)

	body.AddParagraph().SetAlignment(docx.AlignCenter)
	signatureTable(body)

	body.AddPageBreak()
	for _, para := range pdf.ContractParagraphs(s.assets.Contract) {
		body.AddParagraph().SetLineSpacing(240).AddRun(para).Size(5.5)
	}
	return doc, nil
}

func (s *Service) letterhead(body *docx.Body, rec *models.OrderRecord, logo *imageasset.Asset) error {
	band := body.AddTable(1, 3).SetStyle("")

	if logo != nil {
		if err := addScaledPicture(band.Cell(0, 0).Paragraph(), logo, orderLogoWidth); err != nil {
			return err
		}
	}

	lines := append([]string{"ORDEN DE SERVICIO"}, s.config.Letterhead...)
	band.Cell(0, 1).Paragraph().SetAlignment(docx.AlignCenter).
		AddRun(strings.Join(lines, "\n")).Size(8)

	band.Cell(0, 2).Paragraph().SetAlignment(docx.AlignRight).
		AddRun(fmt.Sprintf("ORDEN\nNo. %s", rec.OrderNumber()))
	return nil
}

func borderedTable(body *docx.Body, rows, cols int) *docx.Table {
	return body.AddTable(rows, cols).SetBorders(docx.SingleBorder(orderBorder))
}

func shadedHeader(cell *docx.Cell, title string) {
	cell.SetShading(orderHeaderFill)
	p := cell.Paragraph().SetAlignment(docx.AlignCenter)
	if title != "" {
		p.AddRun(title).Font(orderFont).Size(11).Bold().Color("FFFFFF")
	}
}

// fieldTable draws a titled two-column table with one row per field.
func fieldTable(body *docx.Body, title string, fields []models.Field) {
	t := borderedTable(body, len(fields)+1, 2).
		SetColumnWidths(docx.CmTwips(5), docx.CmTwips(7))

	shadedHeader(t.Cell(0, 0), title)
	shadedHeader(t.Cell(0, 1), "")

	for i, f := range fields {
		row := i + 1
		t.Row(row).SetHeight(orderRowHeight, true)
		for c, text := range []string{f.Label, f.Value} {
			t.Cell(row, c).Paragraph().SetAlignment(docx.AlignCenter).
				AddRun(text).Font(orderFont).Size(9).Bold()
		}
	}
}

func observationsTable(body *docx.Body) {
	t := borderedTable(body, 2, 1)
	shadedHeader(t.Cell(0, 0), "Observaciones")
	t.Row(1).SetHeight(orderNotesHeight, true)
	t.Cell(1, 0).Paragraph().SetAlignment(docx.AlignLeft)
}

func signatureTable(body *docx.Body) {
	t := body.AddTable(2, 2).SetStyle("").SetAlignment(docx.AlignCenter)
	cells := [][]string{
		{signatureLine, signatureLine},
		{"Firma del Proveedor", "Firma del Cliente"},
	}
	for r, row := range cells {
		for c, text := range row {
			t.Cell(r, c).Paragraph().SetAlignment(docx.AlignCenter).
				AddRun(text).Size(9).Bold()
		}
	}
}
