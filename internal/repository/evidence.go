// Package repository reads checklist evidence and service orders from the shop database.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"shop-documents/internal/common/database"
	"shop-documents/internal/common/logger"
	"shop-documents/internal/models"
)

var (
	ErrNoRows         = errors.New("EVIDENCE_NO_ROWS")
	ErrNoImageColumns = errors.New("EVIDENCE_NO_IMAGE_COLUMNS")
	ErrNotFound       = errors.New("ORDER_NOT_FOUND")
	ErrQueryFailed    = errors.New("QUERY_FAILED")
)

const (
	evidenceQuery = `SELECT * FROM checklist.sp_get_all_checklist_evidencias($1)`

	// Columns holding photos carry this marker in their name.
	imageColumnMarker = "_foto"
)

// EvidenceStore reads the photos attached to a vehicle checklist.
type EvidenceStore struct {
	db     *database.PostgresClient
	logger logger.Logger
}

func NewEvidenceStore(db *database.PostgresClient, log logger.Logger) *EvidenceStore {
	return &EvidenceStore{db: db, logger: log}
}

// FetchEvidenceImages returns the non-blank photos of a checklist as base64
// strings, column by column in result order and row by row within a column.
func (s *EvidenceStore) FetchEvidenceImages(ctx context.Context, checklistID int64) ([]string, error) {
	evidence, err := s.FetchEvidence(ctx, checklistID)
	if err != nil {
		return nil, err
	}
	images := make([]string, len(evidence))
	for i, e := range evidence {
		images[i] = e.Data
	}
	return images, nil
}

// FetchEvidence is FetchEvidenceImages keeping the source column and row of each photo.
func (s *EvidenceStore) FetchEvidence(ctx context.Context, checklistID int64) ([]models.EvidenceImage, error) {
	ctx, cancel := s.db.WithQueryTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, evidenceQuery, checklistID)
	if err != nil {
		return nil, fmt.Errorf("%w: evidence for checklist %d: %v", ErrQueryFailed, checklistID, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("%w: read columns: %v", ErrQueryFailed, err)
	}

	var table [][]interface{}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		ptrs := make([]interface{}, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("%w: scan evidence row: %v", ErrQueryFailed, err)
		}
		table = append(table, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate evidence rows: %v", ErrQueryFailed, err)
	}

	if len(table) == 0 {
		return nil, fmt.Errorf("%w: checklist %d", ErrNoRows, checklistID)
	}

	var imageCols []int
	for i, name := range columns {
		if strings.Contains(name, imageColumnMarker) {
			imageCols = append(imageCols, i)
		}
	}
	if len(imageCols) == 0 {
		return nil, fmt.Errorf("%w: checklist %d returned %d columns", ErrNoImageColumns, checklistID, len(columns))
	}

	var images []models.EvidenceImage
	for _, col := range imageCols {
		for r, row := range table {
			data, ok := asText(row[col])
			if !ok || strings.TrimSpace(data) == "" {
				continue
			}
			images = append(images, models.EvidenceImage{Column: columns[col], Row: r, Data: data})
		}
	}

	s.logger.Debug("Evidence fetched", map[string]interface{}{
		"checklistId":  checklistID,
		"rows":         len(table),
		"imageColumns": len(imageCols),
		"images":       len(images),
	})

	return images, nil
}

func asText(v interface{}) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, true
	case []byte:
		return string(t), true
	default:
		return "", false
	}
}
