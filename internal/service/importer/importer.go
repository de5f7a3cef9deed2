package importer

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/lavilla/almacen/internal/domain/models"
	"github.com/lavilla/almacen/internal/service/auth"
)

// Column positions of the CODIFICACION sheet:
// CODIGO, PRODUCTO, PROVEEDOR, ACTIVO, CATEGORIA, UNM, (unused), CADUCIDAD, STOCK, LOTE.
const (
	colCode = iota
	colProduct
	colSupplier
	colActive
	colCategory
	colUnit
	colUnused
	colExpiration
	colStock
	colBatch
)

var (
	// ErrNoRows is returned when the sheet range holds no importable rows.
	ErrNoRows = errors.New("no importable rows in sheet")

	// ErrNotConfigured is returned when no spreadsheet is wired in.
	ErrNotConfigured = errors.New("spreadsheet import is not configured")
)

// RangeReader reads raw cell values from a spreadsheet range.
type RangeReader interface {
	ReadRange(ctx context.Context, sheetRange string) ([][]interface{}, error)
}

// Inventory receives the imported rows.
type Inventory interface {
	AddProducts(ctx context.Context, sess auth.Session, products []models.Product) ([]models.Product, error)
}

// Result describes the outcome of an import.
type Result struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// Service copies the legacy spreadsheet inventory into the record store.
type Service struct {
	reader     RangeReader
	inventory  Inventory
	sheetRange string
	logger     *zap.Logger
}

// NewService wires an importer reading sheetRange.
func NewService(reader RangeReader, inventory Inventory, sheetRange string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{reader: reader, inventory: inventory, sheetRange: sheetRange, logger: logger}
}

// Import reads the sheet and appends every row with a product name.
func (s *Service) Import(ctx context.Context, sess auth.Session) (Result, error) {
	if err := auth.RequireAdmin(sess); err != nil {
		return Result{}, err
	}
	if s.reader == nil {
		return Result{}, ErrNotConfigured
	}

	rows, err := s.reader.ReadRange(ctx, s.sheetRange)
	if err != nil {
		return Result{}, fmt.Errorf("load legacy range: %w", err)
	}

	products, skipped := ParseRows(rows)
	for _, row := range skipped {
		s.logger.Debug("skip legacy row without product", zap.Int("row", row))
	}
	if len(products) == 0 {
		return Result{Skipped: len(skipped)}, ErrNoRows
	}

	added, err := s.inventory.AddProducts(ctx, sess, products)
	if err != nil {
		return Result{}, fmt.Errorf("store imported rows: %w", err)
	}

	res := Result{Imported: len(added), Skipped: len(skipped)}
	s.logger.Info("legacy sheet imported",
		zap.String("range", s.sheetRange),
		zap.Int("imported", res.Imported),
		zap.Int("skipped", res.Skipped))
	return res, nil
}

// ParseRows maps sheet rows to products. It returns the products and the
// zero-based positions of rows that were skipped for lacking a product name.
func ParseRows(rows [][]interface{}) ([]models.Product, []int) {
	products := make([]models.Product, 0, len(rows))
	var skipped []int

	for i, row := range rows {
		name := cell(row, colProduct)
		if name == "" {
			skipped = append(skipped, i)
			continue
		}

		products = append(products, models.Product{
			Name:             name,
			Supplier:         cell(row, colSupplier),
			ActiveIngredient: cell(row, colActive),
			Category:         cell(row, colCategory),
			UnitOfMeasure:    cell(row, colUnit),
			ExpirationDate:   cell(row, colExpiration),
			Stock:            parseStock(cell(row, colStock)),
			Batch:            cell(row, colBatch),
		})
	}

	return products, skipped
}

func cell(row []interface{}, idx int) string {
	if idx >= len(row) || row[idx] == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(row[idx]))
}

// parseStock coerces a STOCK cell. Blank, non numeric or negative values become 0.
func parseStock(value string) int {
	if value == "" {
		return 0
	}
	value = strings.ReplaceAll(value, ",", "")
	if n, err := strconv.Atoi(value); err == nil {
		if n < 0 {
			return 0
		}
		return n
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil && f > 0 {
		return int(f)
	}
	return 0
}
