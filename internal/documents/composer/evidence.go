package composer

import (
	"context"
	"fmt"

	"shop-documents/internal/common/errors"
	"shop-documents/internal/common/metrics"
	"shop-documents/internal/documents/docx"
	"shop-documents/internal/documents/imageasset"
	"shop-documents/internal/models"
)

const (
	headerLogoWidth   = 1.5 // inches
	evidenceImageSide = 2.5 // inches
	placeholderFontPt = 10
	compactColumns    = 4
)

// EvidenceRequest is the input of ComposeEvidenceDocument.
type EvidenceRequest struct {
	Placeholders models.PlaceholderSet
	// Images are base64 payloads, optionally data-URI prefixed.
	Images    []string
	LeftLogo  string
	RightLogo string
	Layout    Layout
}

// ComposeEvidenceDocument renders the photographic evidence document for
// caller-supplied images.
func (s *Service) ComposeEvidenceDocument(ctx context.Context, req EvidenceRequest) (*Document, error) {
	return s.compose(ctx, KindEvidence, "", func(ctx context.Context) (*Document, error) {
		return s.buildEvidence(req)
	})
}

// ComposeChecklistEvidence renders the compact evidence document with the
// photos stored for checklistID.
func (s *Service) ComposeChecklistEvidence(ctx context.Context, checklistID int64, placeholders models.PlaceholderSet, leftLogo, rightLogo string) (*Document, error) {
	subject := formatID(checklistID)
	return s.compose(ctx, KindEvidence, subject, func(ctx context.Context) (*Document, error) {
		if s.evidence == nil {
			return nil, errors.NewInternalError("Evidence store is not configured", nil)
		}

		images, err := s.evidence.FetchEvidenceImages(ctx, checklistID)
		if err != nil {
			return nil, errors.NewUpstreamError("Failed to fetch evidence images", err).
				WithMetadata("checklistId", checklistID)
		}
		if len(images) == 0 {
			return nil, errors.NewUpstreamError("No evidence images found",
				fmt.Errorf("checklist %d has no photos", checklistID)).
				WithMetadata("checklistId", checklistID)
		}

		return s.buildEvidence(EvidenceRequest{
			Placeholders: placeholders,
			Images:       images,
			LeftLogo:     leftLogo,
			RightLogo:    rightLogo,
			Layout:       LayoutCompact,
		})
	})
}

func (s *Service) buildEvidence(req EvidenceRequest) (*Document, error) {
	if len(req.Images) == 0 {
		return nil, errors.NewValidationError("No images supplied", "at least one evidence image is required")
	}

	layout, err := ParseLayout(string(req.Layout))
	if err != nil {
		return nil, errors.NewValidationError("Invalid layout", err.Error())
	}

	images := req.Images
	if layout == LayoutCompact && len(images) > s.config.CompactSlots {
		s.logger.Debug("Truncating evidence images to compact slots", map[string]interface{}{
			"supplied": len(images),
			"slots":    s.config.CompactSlots,
		})
		images = images[:s.config.CompactSlots]
	}

	// Every payload is size-checked before any decoding or layout.
	if req.LeftLogo != "" {
		if err := s.decoder.CheckSize(req.LeftLogo); err != nil {
			return nil, imageError("left logo", err)
		}
	}
	if req.RightLogo != "" {
		if err := s.decoder.CheckSize(req.RightLogo); err != nil {
			return nil, imageError("right logo", err)
		}
	}
	for i, payload := range images {
		if err := s.decoder.CheckSize(payload); err != nil {
			return nil, imageError(fmt.Sprintf("image %d", i), err)
		}
	}

	leftLogo, err := s.decodeOptional(req.LeftLogo, "left logo")
	if err != nil {
		return nil, err
	}
	rightLogo, err := s.decodeOptional(req.RightLogo, "right logo")
	if err != nil {
		return nil, err
	}
	assets := make([]*imageasset.Asset, len(images))
	for i, payload := range images {
		if assets[i], err = s.decoder.Decode(payload); err != nil {
			return nil, imageError(fmt.Sprintf("image %d", i), err)
		}
	}

	doc := docx.New()
	doc.Title = s.config.EvidenceTitle
	doc.Creator = s.config.ShopName

	embedded := 0
	if err := s.evidenceHeader(doc, leftLogo, rightLogo); err != nil {
		return nil, err
	}
	if leftLogo != nil {
		embedded++
	}
	if rightLogo != nil {
		embedded++
	}

	body := doc.Body()
	body.AddParagraph()
	switch layout {
	case LayoutCompact:
		s.compactPlaceholders(body, req.Placeholders)
	case LayoutGeneric:
		genericPlaceholders(body, req.Placeholders)
	}
	body.AddParagraph()

	if err := imageGrid(body, assets); err != nil {
		return nil, err
	}
	embedded += len(assets)

	data, err := doc.Bytes()
	if err != nil {
		return nil, errors.NewInternalError("Failed to write evidence document", err)
	}
	return newDocument(KindEvidence, EvidenceFileName, docx.ContentType, data, embedded), nil
}

func (s *Service) decodeOptional(payload, what string) (*imageasset.Asset, error) {
	if payload == "" {
		return nil, nil
	}
	asset, err := s.decoder.Decode(payload)
	if err != nil {
		return nil, imageError(what, err)
	}
	return asset, nil
}

// evidenceHeader draws the logo | title | logo band in the page header.
func (s *Service) evidenceHeader(doc *docx.Document, left, right *imageasset.Asset) error {
	band := doc.Header().AddTable(1, 3).SetStyle("")

	if left != nil {
		p := band.Cell(0, 0).Paragraph().SetAlignment(docx.AlignLeft)
		if err := addScaledPicture(p, left, headerLogoWidth); err != nil {
			return err
		}
	}

	band.Cell(0, 1).Paragraph().SetAlignment(docx.AlignCenter).
		AddRun(s.config.EvidenceTitle).Bold().Size(12)

	if right != nil {
		p := band.Cell(0, 2).Paragraph().SetAlignment(docx.AlignRight)
		if err := addScaledPicture(p, right, headerLogoWidth); err != nil {
			return err
		}
	}
	return nil
}

// compactPlaceholders fills a rows x 4 grid row-major; slots past the
// placeholder count stay blank and placeholders past the slot count are dropped.
func (s *Service) compactPlaceholders(body *docx.Body, set models.PlaceholderSet) {
	slots := s.config.CompactSlots
	if len(set) > slots {
		s.logger.Debug("Dropping placeholders past compact slots", map[string]interface{}{
			"supplied": len(set),
			"slots":    slots,
		})
	}
	grid := body.AddTable(slots/compactColumns, compactColumns)
	for i := 0; i < slots && i < len(set); i++ {
		p := set[i]
		grid.Cell(i/compactColumns, i%compactColumns).
			SetText(p.Label() + ": " + p.Value).
			Size(placeholderFontPt)
	}
}

// genericPlaceholders lists every placeholder as a KEY: | value row.
func genericPlaceholders(body *docx.Body, set models.PlaceholderSet) {
	if len(set) == 0 {
		return
	}
	list := body.AddTable(len(set), 2)
	for i, p := range set {
		list.Cell(i, 0).SetText(p.Label() + ":").Size(placeholderFontPt)
		list.Cell(i, 1).SetText(p.Value).Size(placeholderFontPt)
	}
}

// imageGrid places image i at row i/2, column i%2, each forced into a square box.
func imageGrid(body *docx.Body, assets []*imageasset.Asset) error {
	rows := (len(assets) + 1) / 2
	grid := body.AddTable(rows, 2)
	side := docx.InchesEMU(evidenceImageSide)

	for i, a := range assets {
		p := grid.Cell(i/2, i%2).Paragraph()
		if _, err := p.AddPicture(a.Data, a.Format, side, side); err != nil {
			return errors.NewInternalError(fmt.Sprintf("Failed to embed image %d", i), err)
		}
		metrics.ImagesEmbedded.WithLabelValues(a.SourceFormat).Inc()
	}
	return nil
}

func addScaledPicture(p *docx.Paragraph, a *imageasset.Asset, widthInches float64) error {
	cx := docx.InchesEMU(widthInches)
	if _, err := p.AddPicture(a.Data, a.Format, cx, a.AspectHeight(cx)); err != nil {
		return errors.NewInternalError("Failed to embed logo", err)
	}
	metrics.ImagesEmbedded.WithLabelValues(a.SourceFormat).Inc()
	return nil
}
