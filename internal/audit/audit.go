// Package audit keeps a trail of document composition attempts.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"shop-documents/internal/common/logger"
)

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Entry is one composition attempt.
type Entry struct {
	DocumentID  string    `json:"documentId"`
	Kind        string    `json:"kind"`
	SubjectID   string    `json:"subjectId,omitempty"`
	FileName    string    `json:"fileName,omitempty"`
	SizeBytes   int       `json:"sizeBytes"`
	ImageCount  int       `json:"imageCount"`
	Status      string    `json:"status"`
	ErrorCode   string    `json:"errorCode,omitempty"`
	DurationMs  int64     `json:"durationMs"`
	GeneratedAt time.Time `json:"generatedAt"`
}

// Recorder stores audit entries. Implementations must not fail the caller.
type Recorder interface {
	Record(ctx context.Context, entry Entry)
}

// NopRecorder discards entries.
type NopRecorder struct{}

func (NopRecorder) Record(context.Context, Entry) {}

// IndexMapping is the mapping the audit index is created with.
var IndexMapping = []byte(`{
  "mappings": {
    "properties": {
      "documentId":  {"type": "keyword"},
      "kind":        {"type": "keyword"},
      "subjectId":   {"type": "keyword"},
      "fileName":    {"type": "keyword"},
      "sizeBytes":   {"type": "long"},
      "imageCount":  {"type": "integer"},
      "status":      {"type": "keyword"},
      "errorCode":   {"type": "keyword"},
      "durationMs":  {"type": "long"},
      "generatedAt": {"type": "date"}
    }
  }
}`)

// IndexCreator creates an index when it is missing.
type IndexCreator interface {
	EnsureIndex(ctx context.Context, index string, mapping []byte) (bool, error)
}

// Bootstrap makes sure index exists with IndexMapping.
func Bootstrap(ctx context.Context, es IndexCreator, index string, log logger.Logger) error {
	created, err := es.EnsureIndex(ctx, index, IndexMapping)
	if err != nil {
		return err
	}
	if created {
		log.Info("Audit index created", map[string]interface{}{"index": index})
	}
	return nil
}

// Indexer is the part of the Elasticsearch client the recorder needs.
type Indexer interface {
	IndexDocument(ctx context.Context, index, id string, body []byte) error
}

// ElasticRecorder writes entries to an Elasticsearch index.
type ElasticRecorder struct {
	indexer Indexer
	index   string
	timeout time.Duration
	logger  logger.Logger
}

func NewElasticRecorder(indexer Indexer, index string, log logger.Logger) *ElasticRecorder {
	return &ElasticRecorder{
		indexer: indexer,
		index:   index,
		timeout: 3 * time.Second,
		logger:  log,
	}
}

// Record indexes entry, logging and swallowing any failure.
func (r *ElasticRecorder) Record(ctx context.Context, entry Entry) {
	body, err := json.Marshal(entry)
	if err != nil {
		r.logger.Warn("Failed to encode audit entry", map[string]interface{}{
			"documentId": entry.DocumentID,
			"error":      err.Error(),
		})
		return
	}

	// The audit write outlives a cancelled request.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()

	if err := r.indexer.IndexDocument(ctx, r.index, entry.DocumentID, body); err != nil {
		r.logger.Warn("Failed to index audit entry", map[string]interface{}{
			"documentId": entry.DocumentID,
			"index":      r.index,
			"error":      err.Error(),
		})
		return
	}

	r.logger.Debug("Audit entry indexed", map[string]interface{}{
		"documentId": entry.DocumentID,
		"kind":       entry.Kind,
		"status":     entry.Status,
	})
}
