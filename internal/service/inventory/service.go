package inventory

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lavilla/almacen/internal/domain/models"
	"github.com/lavilla/almacen/internal/service/alerts"
	"github.com/lavilla/almacen/internal/service/auth"
)

// Store is the record store the service reads from and writes through to.
type Store interface {
	Load(ctx context.Context) (models.Table, error)
	Save(ctx context.Context, table models.Table) (models.Table, error)
}

// Classifier derives the alert class of a row.
type Classifier interface {
	Classify(p models.Product) models.AlertClass
}

// Service exposes the inventory view and the admin mutations.
type Service struct {
	store      Store
	classifier Classifier
	logger     *zap.Logger
}

// NewService wires a new inventory service instance.
func NewService(store Store, classifier Classifier, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if classifier == nil {
		classifier = alerts.NewEvaluator(nil)
	}
	return &Service{store: store, classifier: classifier, logger: logger}
}

// GetView loads the table, applies the supplier filter and name search, and
// annotates every remaining row with its alert class.
func (s *Service) GetView(ctx context.Context, supplier, search string) ([]models.ViewRow, error) {
	table, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load inventory: %w", err)
	}

	rows := make([]models.ViewRow, 0, len(table.Products))
	for i, p := range table.Products {
		if !MatchesSupplier(p, supplier) || !MatchesName(p, search) {
			continue
		}
		rows = append(rows, models.ViewRow{
			Index:   i,
			Product: p,
			Alert:   s.classifier.Classify(p),
		})
	}
	return rows, nil
}

// ListSuppliers returns the distinct suppliers of the stored table.
func (s *Service) ListSuppliers(ctx context.Context) ([]string, error) {
	table, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load inventory: %w", err)
	}
	return Suppliers(table.Products), nil
}

// Summary counts the stored rows per alert class.
func (s *Service) Summary(ctx context.Context) (models.InventorySummary, error) {
	rows, err := s.GetView(ctx, AllSuppliers, "")
	if err != nil {
		return models.InventorySummary{}, err
	}

	summary := models.InventorySummary{Total: len(rows)}
	for _, row := range rows {
		switch row.Alert {
		case models.AlertOutOfStock:
			summary.OutOfStock++
		case models.AlertExpired:
			summary.Expired++
		default:
			summary.Normal++
		}
	}
	return summary, nil
}

// AddProduct validates and normalizes p, appends it and persists the table.
func (s *Service) AddProduct(ctx context.Context, sess auth.Session, p models.Product) (models.Product, error) {
	added, err := s.AddProducts(ctx, sess, []models.Product{p})
	if err != nil {
		return models.Product{}, err
	}
	return added[0], nil
}

// AddProducts appends several rows with a single save. Nothing is written if
// any row fails validation.
func (s *Service) AddProducts(ctx context.Context, sess auth.Session, products []models.Product) ([]models.Product, error) {
	if err := auth.RequireAdmin(sess); err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, fmt.Errorf("no products supplied: %w", models.ErrValidation)
	}

	normalized := make([]models.Product, 0, len(products))
	for i, p := range products {
		n, err := normalizeProduct(p)
		if err != nil {
			if len(products) > 1 {
				return nil, fmt.Errorf("row %d: %w", i, err)
			}
			return nil, err
		}
		normalized = append(normalized, n)
	}

	table, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load inventory: %w", err)
	}

	table.Products = append(table.Clone().Products, normalized...)
	if _, err := s.store.Save(ctx, table); err != nil {
		return nil, fmt.Errorf("save inventory: %w", err)
	}

	for _, p := range normalized {
		s.logger.Info("product added",
			zap.String("admin", sess.Username),
			zap.String("id", p.ID),
			zap.String("product", p.Name))
	}
	return normalized, nil
}

// EditProduct applies patch to the row at index and persists the table.
func (s *Service) EditProduct(ctx context.Context, sess auth.Session, index int, patch models.ProductPatch) (models.Product, error) {
	return s.edit(ctx, sess, patch, func(table models.Table) (int, error) {
		return checkIndex(table, index)
	})
}

// EditProductByID applies patch to the row carrying id and persists the table.
func (s *Service) EditProductByID(ctx context.Context, sess auth.Session, id string, patch models.ProductPatch) (models.Product, error) {
	return s.edit(ctx, sess, patch, func(table models.Table) (int, error) {
		return findID(table, id)
	})
}

// DeleteProduct removes the row at index and persists the table.
func (s *Service) DeleteProduct(ctx context.Context, sess auth.Session, index int) (models.Product, error) {
	return s.remove(ctx, sess, func(table models.Table) (int, error) {
		return checkIndex(table, index)
	})
}

// DeleteProductByID removes the row carrying id and persists the table.
func (s *Service) DeleteProductByID(ctx context.Context, sess auth.Session, id string) (models.Product, error) {
	return s.remove(ctx, sess, func(table models.Table) (int, error) {
		return findID(table, id)
	})
}

type locator func(table models.Table) (int, error)

func (s *Service) edit(ctx context.Context, sess auth.Session, patch models.ProductPatch, locate locator) (models.Product, error) {
	if err := auth.RequireAdmin(sess); err != nil {
		return models.Product{}, err
	}
	if patch.IsEmpty() {
		return models.Product{}, fmt.Errorf("patch changes no field: %w", models.ErrValidation)
	}
	if patch.Stock != nil && *patch.Stock < 0 {
		return models.Product{}, fmt.Errorf("stock must not be negative: %w", models.ErrValidation)
	}

	table, err := s.store.Load(ctx)
	if err != nil {
		return models.Product{}, fmt.Errorf("load inventory: %w", err)
	}

	pos, err := locate(table)
	if err != nil {
		return models.Product{}, err
	}

	table = table.Clone()
	updated := applyPatch(table.Products[pos], patch)
	table.Products[pos] = updated

	saved, err := s.store.Save(ctx, table)
	if err != nil {
		return models.Product{}, fmt.Errorf("save inventory: %w", err)
	}

	s.logger.Info("product updated",
		zap.String("admin", sess.Username),
		zap.Int("index", pos),
		zap.String("product", updated.Name))
	return saved.Products[pos], nil
}

func (s *Service) remove(ctx context.Context, sess auth.Session, locate locator) (models.Product, error) {
	if err := auth.RequireAdmin(sess); err != nil {
		return models.Product{}, err
	}

	table, err := s.store.Load(ctx)
	if err != nil {
		return models.Product{}, fmt.Errorf("load inventory: %w", err)
	}

	pos, err := locate(table)
	if err != nil {
		return models.Product{}, err
	}

	removed := table.Products[pos]
	remaining := make([]models.Product, 0, len(table.Products)-1)
	remaining = append(remaining, table.Products[:pos]...)
	remaining = append(remaining, table.Products[pos+1:]...)
	table.Products = remaining

	if _, err := s.store.Save(ctx, table); err != nil {
		return models.Product{}, fmt.Errorf("save inventory: %w", err)
	}

	s.logger.Info("product deleted",
		zap.String("admin", sess.Username),
		zap.Int("index", pos),
		zap.String("product", removed.Name))
	return removed, nil
}

func checkIndex(table models.Table, index int) (int, error) {
	if index < 0 || index >= table.Len() {
		return 0, fmt.Errorf("index %d with %d rows: %w", index, table.Len(), models.ErrIndexOutOfRange)
	}
	return index, nil
}

func findID(table models.Table, id string) (int, error) {
	if id != "" {
		for i, p := range table.Products {
			if p.ID == id {
				return i, nil
			}
		}
	}
	return 0, fmt.Errorf("id %q: %w", id, models.ErrNotFound)
}

func normalizeProduct(p models.Product) (models.Product, error) {
	out := models.Product{
		ID:               uuid.NewString(),
		Name:             strings.TrimSpace(p.Name),
		Supplier:         strings.TrimSpace(p.Supplier),
		ActiveIngredient: strings.TrimSpace(p.ActiveIngredient),
		Category:         strings.TrimSpace(p.Category),
		UnitOfMeasure:    strings.TrimSpace(p.UnitOfMeasure),
		Batch:            strings.TrimSpace(p.Batch),
		ExpirationDate:   alerts.NormalizeDate(p.ExpirationDate),
		Stock:            p.Stock,
	}
	if out.Name == "" {
		return models.Product{}, fmt.Errorf("product name is required: %w", models.ErrValidation)
	}
	if out.Stock < 0 {
		return models.Product{}, fmt.Errorf("stock must not be negative: %w", models.ErrValidation)
	}
	return out, nil
}

func applyPatch(p models.Product, patch models.ProductPatch) models.Product {
	if patch.Batch != nil {
		p.Batch = strings.TrimSpace(*patch.Batch)
	}
	if patch.Stock != nil {
		p.Stock = *patch.Stock
	}
	if patch.ExpirationDate != nil {
		p.ExpirationDate = alerts.NormalizeDate(*patch.ExpirationDate)
	}
	return p
}
