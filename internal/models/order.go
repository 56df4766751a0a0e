package models

import (
	"database/sql"
	"fmt"
)

// MissingValue replaces NULL columns in the printed order.
const MissingValue = "N/A"

// OrderRecord is the denormalized customer, vehicle and inventory row
// returned by clientes.ordendeservicio.
type OrderRecord struct {
	OrderID  sql.NullString `json:"idOrden"`
	Name     sql.NullString `json:"nombre"`
	BillTo   sql.NullString `json:"facturarA"`
	Street   sql.NullString `json:"calle"`
	Colonia  sql.NullString `json:"colonia"`
	City     sql.NullString `json:"ciudad"`
	State    sql.NullString `json:"estado"`
	Phone    sql.NullString `json:"tel"`
	Mobile   sql.NullString `json:"cel"`
	Email    sql.NullString `json:"email"`
	RFC      sql.NullString `json:"rfc"`
	Make     sql.NullString `json:"marca"`
	Type     sql.NullString `json:"tipo"`
	Model    sql.NullString `json:"modelo"`
	Engine   sql.NullString `json:"motor"`
	Color    sql.NullString `json:"color"`
	Mileage  sql.NullString `json:"kms"`
	SerialNo sql.NullString `json:"noSerie"`
	Plate    sql.NullString `json:"placa"`

	// Inventory is indexed like InventoryItems.
	Inventory [InventoryItemCount]sql.NullString `json:"inventario"`
}

// InventoryItem pairs a checklist label with its result column.
type InventoryItem struct {
	Label  string
	Column string
}

// InventoryItemCount is the number of items on the vehicle inventory checklist.
const InventoryItemCount = 19

// InventoryItems lists the vehicle inventory checklist in print order.
var InventoryItems = [InventoryItemCount]InventoryItem{
	{"Espejo Retrovisor", "Espejo_retrovisor"},
	{"Espejo Izquierdo", "Espejo_izquierdo"},
	{"Espejo Derecho", "Espejo_derecho"},
	{"Antena", "Antena"},
	{"Tapones de Ruedas", "Tapones_ruedas"},
	{"Radio", "Radio"},
	{"Encendedor", "Encendedor"},
	{"Gato", "Gato"},
	{"Herramienta", "Herramienta"},
	{"Llanta de Refacción", "Llanta_refaccion"},
	{"Limpiadores", "Limpiadores"},
	{"Pintura Rayada", "Pintura_rayada"},
	{"Cristales Rotos", "Cristales_rotos"},
	{"Golpes", "Golpes"},
	{"Tapetes", "Tapetes"},
	{"Extintor", "Extintor"},
	{"Tapón de Gasolina", "Tapones_gasolina"},
	{"Calaveras Rotas", "Calaveras_rotas"},
	{"Molduras Completas", "Molduras_completas"},
}

// Field is one printed label/value row.
type Field struct {
	Label string
	Value string
}

// OrDefault returns the column value or MissingValue when it is NULL.
func OrDefault(v sql.NullString) string {
	if !v.Valid {
		return MissingValue
	}
	return v.String
}

// OrderNumber is the printed order number.
func (r *OrderRecord) OrderNumber() string {
	return OrDefault(r.OrderID)
}

// CustomerFields returns the "Información del Cliente" rows.
func (r *OrderRecord) CustomerFields() []Field {
	return []Field{
		{"Orden", OrDefault(r.OrderID)},
		{"Nombre", OrDefault(r.Name)},
		{"Facturar a", OrDefault(r.BillTo)},
		{"Dirección", fmt.Sprintf("%s, %s, %s, %s",
			OrDefault(r.Street), OrDefault(r.Colonia), OrDefault(r.City), OrDefault(r.State))},
		{"Teléfono", OrDefault(r.Phone)},
		{"Celular", OrDefault(r.Mobile)},
		{"Email", OrDefault(r.Email)},
		{"RFC", OrDefault(r.RFC)},
	}
}

// VehicleFields returns the "Detalles del Vehículo" rows.
func (r *OrderRecord) VehicleFields() []Field {
	return []Field{
		{"Marca", OrDefault(r.Make)},
		{"Tipo", OrDefault(r.Type)},
		{"Modelo", OrDefault(r.Model)},
		{"Motor", OrDefault(r.Engine)},
		{"Color", OrDefault(r.Color)},
		{"Kilometraje", OrDefault(r.Mileage)},
		{"No. Serie", OrDefault(r.SerialNo)},
		{"Placa", OrDefault(r.Plate)},
	}
}

// InventoryFields returns the "Inventario del Vehículo" rows.
func (r *OrderRecord) InventoryFields() []Field {
	fields := make([]Field, 0, InventoryItemCount)
	for i, item := range InventoryItems {
		fields = append(fields, Field{item.Label, OrDefault(r.Inventory[i])})
	}
	return fields
}

// ContactEmail returns the customer's e-mail if present.
func (r *OrderRecord) ContactEmail() string {
	if r.Email.Valid {
		return r.Email.String
	}
	return ""
}

// ContactPhone prefers the mobile number over the landline.
func (r *OrderRecord) ContactPhone() string {
	if r.Mobile.Valid && r.Mobile.String != "" {
		return r.Mobile.String
	}
	if r.Phone.Valid {
		return r.Phone.String
	}
	return ""
}
