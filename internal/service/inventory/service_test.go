package inventory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lavilla/almacen/internal/domain/models"
	"github.com/lavilla/almacen/internal/repository/filestore"
	"github.com/lavilla/almacen/internal/service/alerts"
	"github.com/lavilla/almacen/internal/service/auth"
)

var admin = auth.Session{Token: "t", Username: "YHUERTA", IsAdmin: true}

type fixture struct {
	svc   *Service
	store *filestore.Store
}

func newFixture(t *testing.T, seed ...models.Product) fixture {
	t.Helper()

	store, err := filestore.NewStore(filepath.Join(t.TempDir(), "inventario.json"), nil)
	require.NoError(t, err)

	if len(seed) > 0 {
		_, err := store.Save(context.Background(), models.Table{Products: seed})
		require.NoError(t, err)
	}

	now := time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)
	evaluator := alerts.NewEvaluator(time.UTC, alerts.WithClock(func() time.Time { return now }))
	return fixture{svc: NewService(store, evaluator, nil), store: store}
}

func threeProducts() []models.Product {
	return []models.Product{
		{ID: "p1", Name: "Aspirin", Supplier: "Bayer", Stock: 0, ExpirationDate: "2020-01-01"},
		{ID: "p2", Name: "Amoxicilina", Supplier: "Genfar", Stock: 5, ExpirationDate: "2024-01-31"},
		{ID: "p3", Name: "Ibuprofeno", Supplier: "Bayer", Stock: 7, ExpirationDate: "2026-12-31"},
	}
}

func (f fixture) load(t *testing.T) models.Table {
	t.Helper()
	table, err := f.store.Load(context.Background())
	require.NoError(t, err)
	return table
}

func TestGetViewClassifiesRows(t *testing.T) {
	f := newFixture(t, threeProducts()...)

	rows, err := f.svc.GetView(context.Background(), AllSuppliers, "")
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, models.AlertOutOfStock, rows[0].Alert)
	assert.Equal(t, models.AlertExpired, rows[1].Alert)
	assert.Equal(t, models.AlertNormal, rows[2].Alert)
}

func TestGetViewKeepsTableIndexes(t *testing.T) {
	f := newFixture(t, threeProducts()...)

	rows, err := f.svc.GetView(context.Background(), "Bayer", "ibu")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 2, rows[0].Index)
	assert.Equal(t, "Ibuprofeno", rows[0].Product.Name)

	assert.Len(t, f.load(t).Products, 3, "filtering never touches the store")
}

func TestGetViewOnMissingStore(t *testing.T) {
	f := newFixture(t)

	rows, err := f.svc.GetView(context.Background(), "", "")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestListSuppliersAndSummary(t *testing.T) {
	f := newFixture(t, threeProducts()...)

	suppliers, err := f.svc.ListSuppliers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Bayer", "Genfar"}, suppliers)

	summary, err := f.svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.InventorySummary{Total: 3, OutOfStock: 1, Expired: 1, Normal: 1}, summary)
}

func TestAddProductAppendsNormalizedRecord(t *testing.T) {
	f := newFixture(t, threeProducts()...)

	added, err := f.svc.AddProduct(context.Background(), admin, models.Product{
		ID:             "client-chosen",
		Name:           "  Paracetamol ",
		Supplier:       " Genfar",
		ExpirationDate: "09/03/2027",
	})
	require.NoError(t, err)
	assert.NotEqual(t, "client-chosen", added.ID)
	assert.Equal(t, "Paracetamol", added.Name)
	assert.Equal(t, "2027-03-09", added.ExpirationDate)
	assert.Equal(t, 0, added.Stock)

	table := f.load(t)
	require.Len(t, table.Products, 4)
	assert.Equal(t, added, table.Products[3])
}

func TestAddProductRejectsEmptyName(t *testing.T) {
	f := newFixture(t, threeProducts()...)
	before := f.load(t)

	_, err := f.svc.AddProduct(context.Background(), admin, models.Product{Name: "", Stock: 5})
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrValidation))

	assert.Equal(t, before, f.load(t))
}

func TestAddProductRejectsNegativeStock(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.AddProduct(context.Background(), admin, models.Product{Name: "Gasas", Stock: -1})
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestAddProductsIsAllOrNothing(t *testing.T) {
	f := newFixture(t, threeProducts()...)

	_, err := f.svc.AddProducts(context.Background(), admin, []models.Product{{Name: "Gasas"}, {Name: " "}})
	require.ErrorIs(t, err, models.ErrValidation)
	assert.Len(t, f.load(t).Products, 3)

	added, err := f.svc.AddProducts(context.Background(), admin, []models.Product{{Name: "Gasas"}, {Name: "Suero", Stock: 2}})
	require.NoError(t, err)
	assert.Len(t, added, 2)
	assert.Len(t, f.load(t).Products, 5)
}

func TestEditProductByIndex(t *testing.T) {
	f := newFixture(t, threeProducts()...)

	batch, stock, date := " L-77 ", 40, "2028/01/01"
	updated, err := f.svc.EditProduct(context.Background(), admin, 1, models.ProductPatch{Batch: &batch, Stock: &stock, ExpirationDate: &date})
	require.NoError(t, err)
	assert.Equal(t, "L-77", updated.Batch)
	assert.Equal(t, 40, updated.Stock)
	assert.Equal(t, "2028-01-01", updated.ExpirationDate)
	assert.Equal(t, "Amoxicilina", updated.Name)

	table := f.load(t)
	assert.Equal(t, updated, table.Products[1])
	assert.Equal(t, threeProducts()[0], table.Products[0])
}

func TestEditProductOutOfRange(t *testing.T) {
	f := newFixture(t, threeProducts()...)
	stock := 1

	for _, idx := range []int{-1, 3, 99} {
		_, err := f.svc.EditProduct(context.Background(), admin, idx, models.ProductPatch{Stock: &stock})
		assert.ErrorIs(t, err, models.ErrIndexOutOfRange)
	}
}

func TestEditProductRejectsNegativeStock(t *testing.T) {
	f := newFixture(t, threeProducts()...)
	stock := -4

	_, err := f.svc.EditProduct(context.Background(), admin, 0, models.ProductPatch{Stock: &stock})
	assert.ErrorIs(t, err, models.ErrValidation)
	assert.Equal(t, 0, f.load(t).Products[0].Stock)
}

func TestEditProductRejectsEmptyPatch(t *testing.T) {
	f := newFixture(t, threeProducts()...)
	before := f.load(t)

	_, err := f.svc.EditProduct(context.Background(), admin, 0, models.ProductPatch{})
	assert.ErrorIs(t, err, models.ErrValidation)
	_, err = f.svc.EditProductByID(context.Background(), admin, "p3", models.ProductPatch{})
	assert.ErrorIs(t, err, models.ErrValidation)

	assert.Equal(t, before.Revision, f.load(t).Revision, "nothing is written")
}

func TestDeleteProductByIndex(t *testing.T) {
	f := newFixture(t, threeProducts()...)

	removed, err := f.svc.DeleteProduct(context.Background(), admin, 1)
	require.NoError(t, err)
	assert.Equal(t, "p2", removed.ID)

	table := f.load(t)
	require.Len(t, table.Products, 2)
	assert.Equal(t, "p1", table.Products[0].ID)
	assert.Equal(t, "p3", table.Products[1].ID)
}

func TestDeleteProductOutOfRangeLeavesTableUnchanged(t *testing.T) {
	f := newFixture(t, threeProducts()...)
	before := f.load(t)

	_, err := f.svc.DeleteProduct(context.Background(), admin, 5)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrIndexOutOfRange))
	assert.Equal(t, before, f.load(t))
}

func TestMutationsByID(t *testing.T) {
	f := newFixture(t, threeProducts()...)
	stock := 11

	updated, err := f.svc.EditProductByID(context.Background(), admin, "p3", models.ProductPatch{Stock: &stock})
	require.NoError(t, err)
	assert.Equal(t, 11, updated.Stock)

	_, err = f.svc.DeleteProductByID(context.Background(), admin, "p1")
	require.NoError(t, err)

	_, err = f.svc.DeleteProductByID(context.Background(), admin, "p1")
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = f.svc.EditProductByID(context.Background(), admin, "", models.ProductPatch{Stock: &stock})
	assert.ErrorIs(t, err, models.ErrNotFound)

	table := f.load(t)
	require.Len(t, table.Products, 2)
	assert.Equal(t, 11, table.Products[1].Stock)
}

// countingStore records calls so tests can assert that rejected operations do no I/O.
type countingStore struct {
	loads, saves int
	table        models.Table
	saveErr      error
}

func (c *countingStore) Load(context.Context) (models.Table, error) {
	c.loads++
	return c.table.Clone(), nil
}

func (c *countingStore) Save(_ context.Context, t models.Table) (models.Table, error) {
	c.saves++
	if c.saveErr != nil {
		return models.Table{}, c.saveErr
	}
	t.Revision++
	c.table = t
	return t, nil
}

func TestMutationsRequireAdmin(t *testing.T) {
	store := &countingStore{table: models.Table{Products: threeProducts()}}
	svc := NewService(store, nil, nil)
	ctx := context.Background()
	stock := 1

	sessions := []auth.Session{auth.Anonymous, {Token: "x", Username: "viewer"}, {Token: "y", IsAdmin: true, ExpiresAt: time.Now().Add(-time.Minute)}}
	for _, sess := range sessions {
		_, err := svc.AddProduct(ctx, sess, models.Product{Name: "Gasas"})
		assert.ErrorIs(t, err, models.ErrUnauthorized)

		_, err = svc.EditProduct(ctx, sess, 0, models.ProductPatch{Stock: &stock})
		assert.ErrorIs(t, err, models.ErrUnauthorized)

		_, err = svc.DeleteProduct(ctx, sess, 0)
		assert.ErrorIs(t, err, models.ErrUnauthorized)

		_, err = svc.DeleteProductByID(ctx, sess, "p1")
		assert.ErrorIs(t, err, models.ErrUnauthorized)
	}

	assert.Zero(t, store.loads)
	assert.Zero(t, store.saves)
}

func TestMutationSurfacesConflict(t *testing.T) {
	store := &countingStore{table: models.Table{Products: threeProducts()}, saveErr: models.ErrConflict}
	svc := NewService(store, nil, nil)

	_, err := svc.DeleteProduct(context.Background(), admin, 0)
	assert.ErrorIs(t, err, models.ErrConflict)
	assert.Len(t, store.table.Products, 3)
}

func TestGetViewSurfacesCorruptStore(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.WriteFile(f.store.Path(), []byte("not-json"), 0o644))

	_, err := f.svc.GetView(context.Background(), "", "")
	assert.ErrorIs(t, err, models.ErrStoreCorrupt)
}
