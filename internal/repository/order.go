package repository

import (
	"context"
	"fmt"
	"strings"

	"shop-documents/internal/common/database"
	"shop-documents/internal/common/logger"
	"shop-documents/internal/models"
)

var orderColumns = []string{
	"idOrden", "Nombre", "Facturar_a", "Calle", "Colonia", "Ciudad", "Estado",
	"Tel", "Cel", "Email", "RFC",
	"Marca", "Tipo", "Modelo", "Motor", "Color", "kms", "No_Serie", "Placa",
}

// orderQuery selects the fixed customer and vehicle columns followed by the
// inventory checklist columns in print order.
var orderQuery = func() string {
	cols := make([]string, 0, len(orderColumns)+models.InventoryItemCount)
	for _, c := range orderColumns {
		cols = append(cols, `"`+c+`"`)
	}
	for _, item := range models.InventoryItems {
		cols = append(cols, `"`+item.Column+`"`)
	}
	return "SELECT " + strings.Join(cols, ", ") + " FROM clientes.ordendeservicio($1)"
}()

// OrderStore reads the denormalized service order of a client.
type OrderStore struct {
	db     *database.PostgresClient
	logger logger.Logger
}

func NewOrderStore(db *database.PostgresClient, log logger.Logger) *OrderStore {
	return &OrderStore{db: db, logger: log}
}

// FetchOrderRecord returns the first order row for clientID or ErrNotFound.
func (s *OrderStore) FetchOrderRecord(ctx context.Context, clientID int64) (*models.OrderRecord, error) {
	ctx, cancel := s.db.WithQueryTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, orderQuery, clientID)
	if err != nil {
		return nil, fmt.Errorf("%w: order for client %d: %v", ErrQueryFailed, clientID, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("%w: order for client %d: %v", ErrQueryFailed, clientID, err)
		}
		return nil, fmt.Errorf("%w: client %d", ErrNotFound, clientID)
	}

	rec := &models.OrderRecord{}
	if err := rows.Scan(orderScanTargets(rec)...); err != nil {
		return nil, fmt.Errorf("%w: scan order row: %v", ErrQueryFailed, err)
	}
	return rec, nil
}

func orderScanTargets(r *models.OrderRecord) []interface{} {
	targets := []interface{}{
		&r.OrderID, &r.Name, &r.BillTo, &r.Street, &r.Colonia, &r.City, &r.State,
		&r.Phone, &r.Mobile, &r.Email, &r.RFC,
		&r.Make, &r.Type, &r.Model, &r.Engine, &r.Color, &r.Mileage, &r.SerialNo, &r.Plate,
	}
	for i := range r.Inventory {
		targets = append(targets, &r.Inventory[i])
	}
	return targets
}
