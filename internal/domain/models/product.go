package models

import "time"

// Product is one row of the warehouse inventory.
type Product struct {
	ID               string `json:"id"`
	Name             string `json:"product"`
	Supplier         string `json:"supplier,omitempty"`
	ActiveIngredient string `json:"active_ingredient,omitempty"`
	Category         string `json:"category,omitempty"`
	UnitOfMeasure    string `json:"unit_of_measure,omitempty"`
	Batch            string `json:"batch,omitempty"`
	ExpirationDate   string `json:"expiration_date,omitempty"`
	Stock            int    `json:"stock"`
}

// ProductPatch carries the fields an administrator may change on an existing
// row. Nil fields are left untouched.
type ProductPatch struct {
	Batch          *string `json:"batch"`
	Stock          *int    `json:"stock"`
	ExpirationDate *string `json:"expiration_date"`
}

// IsEmpty reports whether the patch changes nothing.
func (p ProductPatch) IsEmpty() bool {
	return p.Batch == nil && p.Stock == nil && p.ExpirationDate == nil
}

// Table is the in-memory inventory as loaded from the record store.
// Revision is the store revision the products were read at.
type Table struct {
	Revision  int64
	UpdatedAt time.Time
	Products  []Product
}

// Len returns the number of rows.
func (t Table) Len() int {
	return len(t.Products)
}

// Clone returns a deep copy so callers can mutate without touching the source.
func (t Table) Clone() Table {
	out := t
	out.Products = append([]Product(nil), t.Products...)
	return out
}

// AlertClass is the display category derived for a row.
type AlertClass string

const (
	AlertOutOfStock AlertClass = "out_of_stock"
	AlertExpired    AlertClass = "expired"
	AlertNormal     AlertClass = "normal"
)

// ViewRow pairs a product with its alert class. Index is the row position in
// the unfiltered table.
type ViewRow struct {
	Index   int        `json:"index"`
	Product Product    `json:"product"`
	Alert   AlertClass `json:"alert"`
}

// InventorySummary counts rows per alert class.
type InventorySummary struct {
	Total      int `json:"total"`
	OutOfStock int `json:"out_of_stock"`
	Expired    int `json:"expired"`
	Normal     int `json:"normal"`
}
