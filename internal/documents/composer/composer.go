// Package composer renders evidence and service-order documents from
// placeholder data, base64 images and order records.
//
// Every operation returns either a complete document or a
// *errors.StandardError; partial output is never returned.
package composer

import (
	"context"
	"fmt"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"shop-documents/internal/audit"
	"shop-documents/internal/common/errors"
	"shop-documents/internal/common/logger"
	"shop-documents/internal/common/metrics"
	"shop-documents/internal/common/observability"
	"shop-documents/internal/documents/imageasset"
	"shop-documents/internal/models"
)

// Document kinds, used in metrics and audit entries.
const (
	KindEvidence = "evidence"
	KindOrder    = "order"
	KindOrderPDF = "order_pdf"
)

const (
	EvidenceFileName = "EvidenciaFotografica.docx"
	OrderFileName    = "orden_servicio.docx"
	OrderPDFFileName = "orden_servicio.pdf"
)

// Layout selects how the evidence placeholder block is drawn.
type Layout string

const (
	// LayoutCompact is a fixed 3x4 grid of "KEY: value" cells.
	LayoutCompact Layout = "compact"
	// LayoutGeneric is a two-column key/value list with one row per placeholder.
	LayoutGeneric Layout = "generic"
)

// ParseLayout accepts "compact", "generic" or empty (compact).
func ParseLayout(s string) (Layout, error) {
	switch Layout(s) {
	case "", LayoutCompact:
		return LayoutCompact, nil
	case LayoutGeneric:
		return LayoutGeneric, nil
	default:
		return "", fmt.Errorf("unknown layout %q", s)
	}
}

// Document is a generated file held in memory.
type Document struct {
	ID          string `json:"documentId"`
	Kind        string `json:"kind"`
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	Data        []byte `json:"-"`
	// Images counts the pictures embedded in the document body and header.
	Images int `json:"images"`
}

// Size returns the document length in bytes.
func (d *Document) Size() int {
	return len(d.Data)
}

// EvidenceSource fetches the photos of a checklist as base64 strings.
type EvidenceSource interface {
	FetchEvidenceImages(ctx context.Context, checklistID int64) ([]string, error)
}

// OrderSource fetches the order record of a client.
type OrderSource interface {
	FetchOrderRecord(ctx context.Context, clientID int64) (*models.OrderRecord, error)
}

// Assets are the fixed inputs of the order document, loaded by the caller.
type Assets struct {
	// ShopLogo is the base64 letterhead logo.
	ShopLogo string
	Contract string
}

type Config struct {
	MaxImageBytes int64
	EvidenceTitle string
	CompactSlots  int
	ShopName      string
	Letterhead    []string
}

func DefaultConfig() *Config {
	return &Config{
		MaxImageBytes: imageasset.DefaultMaxBytes,
		EvidenceTitle: "FORMATO DE EVIDENCIAS FOTOGRÁFICAS",
		CompactSlots:  12,
		ShopName:      "Servicio Automotriz Trotamundos",
		Letterhead: []string{
			"Servicio Automotriz Trotamundos",
			"29 Guerrero y Bravo #422",
			"Col. Héroe de Nacozari, C.P. 87030",
			"Tel: (834) 285 2869 / (834) 285 2872",
			"R.F.C. GACM040320DD9",
		},
	}
}

type ServiceDependencies struct {
	Evidence      EvidenceSource
	Orders        OrderSource
	Assets        Assets
	Logger        logger.Logger
	Observability *observability.Observability
	Audit         audit.Recorder
}

type Service struct {
	config   *Config
	evidence EvidenceSource
	orders   OrderSource
	assets   Assets
	decoder  *imageasset.Decoder
	logger   logger.Logger
	obs      *observability.Observability
	audit    audit.Recorder
	now      func() time.Time
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	if config == nil {
		config = DefaultConfig()
	}
	if config.CompactSlots <= 0 {
		config.CompactSlots = 12
	}
	if config.EvidenceTitle == "" {
		config.EvidenceTitle = DefaultConfig().EvidenceTitle
	}
	log := deps.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	rec := deps.Audit
	if rec == nil {
		rec = audit.NopRecorder{}
	}
	return &Service{
		config:   config,
		evidence: deps.Evidence,
		orders:   deps.Orders,
		assets:   deps.Assets,
		decoder:  imageasset.NewDecoder(config.MaxImageBytes),
		logger:   log.WithFields(map[string]interface{}{"component": "composer"}),
		obs:      deps.Observability,
		audit:    rec,
		now:      time.Now,
	}
}

// compose runs fn inside a span, recovers panics, normalizes the error and
// records metrics, the audit entry and a log line for the attempt.
func (s *Service) compose(ctx context.Context, kind, subject string, fn func(ctx context.Context) (*Document, error)) (doc *Document, err error) {
	ctx, span := s.obs.StartSpan(ctx, "composer."+kind, attribute.String("document.kind", kind))
	defer span.End()

	start := s.now()
	timer := metricsTimer(kind)

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Panic during document composition", map[string]interface{}{
				"kind":  kind,
				"panic": fmt.Sprint(r),
				"stack": string(debug.Stack()),
			})
			doc, err = nil, errors.NewInternalError("Document composition failed", fmt.Errorf("panic: %v", r))
		}

		duration := s.now().Sub(start)
		timer()

		entry := audit.Entry{
			Kind:        kind,
			SubjectID:   subject,
			DurationMs:  duration.Milliseconds(),
			GeneratedAt: start.UTC(),
		}

		if err != nil {
			stdErr := errors.AsStandard(err)
			doc, err = nil, stdErr

			span.RecordError(stdErr)
			span.SetStatus(codes.Error, string(stdErr.Code))
			metrics.DocumentsComposed.WithLabelValues(kind, audit.StatusFailed).Inc()
			s.obs.RecordDocument(ctx, kind, audit.StatusFailed, duration)

			entry.DocumentID = uuid.New().String()
			entry.Status = audit.StatusFailed
			entry.ErrorCode = string(stdErr.Code)
			s.audit.Record(ctx, entry)

			s.logger.Warn("Document composition failed", map[string]interface{}{
				"kind":    kind,
				"subject": subject,
				"code":    stdErr.Code,
				"error":   stdErr.Error(),
			})
			return
		}

		span.SetAttributes(
			attribute.String("document.id", doc.ID),
			attribute.Int("document.size", doc.Size()),
			attribute.Int("document.images", doc.Images),
		)
		metrics.DocumentsComposed.WithLabelValues(kind, audit.StatusSuccess).Inc()
		metrics.DocumentBytes.WithLabelValues(kind).Observe(float64(doc.Size()))
		s.obs.RecordDocument(ctx, kind, audit.StatusSuccess, duration)

		entry.DocumentID = doc.ID
		entry.FileName = doc.FileName
		entry.SizeBytes = doc.Size()
		entry.ImageCount = doc.Images
		entry.Status = audit.StatusSuccess
		s.audit.Record(ctx, entry)

		s.logger.Info("Document composed", map[string]interface{}{
			"kind":       kind,
			"subject":    subject,
			"documentId": doc.ID,
			"sizeBytes":  doc.Size(),
			"images":     doc.Images,
			"durationMs": duration.Milliseconds(),
		})
	}()

	doc, err = fn(ctx)
	return doc, err
}

func metricsTimer(kind string) func() {
	start := time.Now()
	return func() {
		metrics.DocumentComposeDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	}
}

func newDocument(kind, fileName, contentType string, data []byte, images int) *Document {
	return &Document{
		ID:          uuid.New().String(),
		Kind:        kind,
		FileName:    fileName,
		ContentType: contentType,
		Data:        data,
		Images:      images,
	}
}

// imageError classifies an imageasset failure for what.
func imageError(what string, err error) *errors.StandardError {
	if imageasset.IsValidation(err) {
		return errors.NewValidationError(fmt.Sprintf("Invalid %s", what), err.Error())
	}
	return errors.NewInternalError(fmt.Sprintf("Failed to embed %s", what), err)
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
