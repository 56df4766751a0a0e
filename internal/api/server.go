// Package api exposes the document composer and delivery over HTTP.
package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"shop-documents/internal/common/errors"
	httpx "shop-documents/internal/common/http"
	"shop-documents/internal/common/logger"
	"shop-documents/internal/common/validation"
	"shop-documents/internal/delivery"
	"shop-documents/internal/documents/composer"
	"shop-documents/internal/models"
)

// DefaultMaxBodyBytes bounds JSON request bodies; evidence posts carry
// up to a dozen base64 photos.
const DefaultMaxBodyBytes = 64 << 20

type DocumentComposer interface {
	ComposeEvidenceDocument(ctx context.Context, req composer.EvidenceRequest) (*composer.Document, error)
	ComposeChecklistEvidence(ctx context.Context, checklistID int64, placeholders models.PlaceholderSet, leftLogo, rightLogo string) (*composer.Document, error)
	ComposeOrderDocument(ctx context.Context, clientID int64) (*composer.Document, error)
	ComposeOrderPDF(ctx context.Context, clientID int64) (*composer.Document, error)
}

type OrderDeliverer interface {
	DeliverOrder(ctx context.Context, req delivery.Request) (*delivery.Result, error)
}

// ReadinessCheck reports whether a dependency can serve requests.
type ReadinessCheck func(ctx context.Context) error

type Dependencies struct {
	Composer DocumentComposer
	Delivery OrderDeliverer
	// Checks run on /ready, keyed by dependency name.
	Checks map[string]ReadinessCheck
	Logger logger.Logger
}

type Config struct {
	MaxBodyBytes   int64
	RequestTimeout time.Duration
	Version        string
}

type Server struct {
	config   *Config
	composer DocumentComposer
	delivery OrderDeliverer
	checks   map[string]ReadinessCheck
	logger   logger.Logger
}

func NewServer(deps Dependencies, config *Config) *Server {
	if config == nil {
		config = &Config{}
	}
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = 60 * time.Second
	}
	log := deps.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Server{
		config:   config,
		composer: deps.Composer,
		delivery: deps.Delivery,
		checks:   deps.Checks,
		logger:   log.WithFields(map[string]interface{}{"component": "api"}),
	}
}

// Handler returns the routed, instrumented handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	route := func(path, method string, h http.HandlerFunc) {
		mux.Handle(path, httpx.Instrument(path, s.logger, httpx.MethodGuard(method, h)))
	}

	route("/generate_and_download/", http.MethodPost, s.handleEvidence(composer.LayoutGeneric))
	route("/generate_evidence_compact/", http.MethodPost, s.handleEvidence(composer.LayoutCompact))
	route("/generate_and_downloadservice/", http.MethodPost, s.handleChecklistEvidence)
	route("/generate_and_download_orden", http.MethodGet, s.handleOrder(false))
	route("/generate_pdf_orden", http.MethodGet, s.handleOrder(true))
	route("/send_orden/", http.MethodPost, s.handleSendOrder)

	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ready", s.handleReady)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

type evidenceBody struct {
	Placeholders models.PlaceholderSet `json:"placeholders"`
	Images       []string              `json:"images_base64"`
	LeftLogo     string                `json:"logo_base64"`
	RightLogo    string                `json:"logo_derecho_base64"`
}

type checklistEvidenceBody struct {
	ChecklistID  int64                 `json:"id_checklist"`
	Placeholders models.PlaceholderSet `json:"placeholders"`
	LeftLogo     string                `json:"logo_base64"`
	RightLogo    string                `json:"logo_derecho_base64"`
}

func (s *Server) handleEvidence(layout composer.Layout) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body evidenceBody
		if !s.decode(w, r, evidenceSchema, &body) {
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), s.config.RequestTimeout)
		defer cancel()

		doc, err := s.composer.ComposeEvidenceDocument(ctx, composer.EvidenceRequest{
			Placeholders: body.Placeholders,
			Images:       body.Images,
			LeftLogo:     body.LeftLogo,
			RightLogo:    body.RightLogo,
			Layout:       layout,
		})
		s.respondDocument(w, r, doc, err)
	}
}

func (s *Server) handleChecklistEvidence(w http.ResponseWriter, r *http.Request) {
	var body checklistEvidenceBody
	if !s.decode(w, r, checklistEvidenceSchema, &body) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), s.config.RequestTimeout)
	defer cancel()

	doc, err := s.composer.ComposeChecklistEvidence(ctx, body.ChecklistID, body.Placeholders, body.LeftLogo, body.RightLogo)
	s.respondDocument(w, r, doc, err)
}

func (s *Server) handleOrder(asPDF bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientID, err := parseClientID(r.URL.Query().Get("clienteId"))
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), s.config.RequestTimeout)
		defer cancel()

		var doc *composer.Document
		if asPDF {
			doc, err = s.composer.ComposeOrderPDF(ctx, clientID)
		} else {
			doc, err = s.composer.ComposeOrderDocument(ctx, clientID)
		}
		s.respondDocument(w, r, doc, err)
	}
}

func (s *Server) handleSendOrder(w http.ResponseWriter, r *http.Request) {
	if s.delivery == nil {
		httpx.WriteError(w, r, errors.NewInternalError("Delivery is not configured", nil))
		return
	}
	var req delivery.Request
	if !s.decode(w, r, sendOrderSchema, &req) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), s.config.RequestTimeout)
	defer cancel()

	res, err := s.delivery.DeliverOrder(ctx, req)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, res)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": s.config.Version,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := make(map[string]string, len(s.checks))
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			status = http.StatusServiceUnavailable
			checks[name] = err.Error()
			continue
		}
		checks[name] = "ok"
	}

	state := "ready"
	if status != http.StatusOK {
		state = "not_ready"
	}
	httpx.WriteJSON(w, status, map[string]interface{}{
		"status": state,
		"checks": checks,
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// decode validates the body against schema and then unmarshals it into v.
// It writes the error response itself and reports whether to continue.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, schema *validation.Schema, v interface{}) bool {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes))
	if err != nil {
		httpx.WriteError(w, r, errors.NewValidationError("Request body too large or unreadable", err.Error()))
		return false
	}

	result, err := schema.ValidateBytes(data)
	if err != nil {
		httpx.WriteError(w, r, errors.NewValidationError("Malformed JSON body", err.Error()))
		return false
	}
	if !result.Valid {
		httpx.WriteValidationErrors(w, r, result.Errors)
		return false
	}

	if err := json.Unmarshal(data, v); err != nil {
		httpx.WriteError(w, r, errors.NewValidationError("Malformed JSON body", err.Error()))
		return false
	}
	return true
}

func (s *Server) respondDocument(w http.ResponseWriter, r *http.Request, doc *composer.Document, err error) {
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	w.Header().Set("X-Document-ID", doc.ID)
	httpx.WriteAttachment(w, doc.FileName, doc.ContentType, doc.Data)
}

func parseClientID(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, errors.NewValidationError("Missing clienteId", "query parameter clienteId is required")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.NewValidationError("Invalid clienteId", "clienteId must be a positive integer")
	}
	return id, nil
}
