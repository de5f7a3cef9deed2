package reporting

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lavilla/almacen/internal/domain/models"
)

type stubViews struct {
	rows []models.ViewRow
	err  error
}

func (s stubViews) GetView(_ context.Context, _, _ string) ([]models.ViewRow, error) {
	return s.rows, s.err
}

type recordingStore struct {
	saved   []models.AlertReport
	err     error
	limits  []int64
	history []models.AlertReport
}

func (r *recordingStore) SaveAlertReport(_ context.Context, report models.AlertReport) error {
	r.saved = append(r.saved, report)
	return r.err
}

func (r *recordingStore) LatestAlertReports(_ context.Context, limit int64) ([]models.AlertReport, error) {
	r.limits = append(r.limits, limit)
	return r.history, r.err
}

type recordingSheet struct {
	ranges []string
	rows   [][]interface{}
	err    error
}

func (r *recordingSheet) AppendRow(_ context.Context, sheetRange string, values []interface{}) error {
	r.ranges = append(r.ranges, sheetRange)
	r.rows = append(r.rows, values)
	return r.err
}

type recordingMessenger struct {
	to     []string
	bodies []string
	err    error
}

func (r *recordingMessenger) SendText(_ context.Context, to, body string) (string, error) {
	r.to = append(r.to, to)
	r.bodies = append(r.bodies, body)
	return "wamid.1", r.err
}

func sampleRows() []models.ViewRow {
	return []models.ViewRow{
		{Index: 0, Product: models.Product{Name: "Aspirina", Supplier: "Bayer", Stock: 0, ExpirationDate: "2020-01-01"}, Alert: models.AlertOutOfStock},
		{Index: 1, Product: models.Product{Name: "Gasas", Stock: 4, ExpirationDate: "2024-01-01", Batch: "G7"}, Alert: models.AlertExpired},
		{Index: 2, Product: models.Product{Name: "Alcohol", Stock: 9}, Alert: models.AlertNormal},
	}
}

var lima = time.FixedZone("PET", -5*3600)

func TestGenerateAlertReport(t *testing.T) {
	svc := NewService(stubViews{rows: sampleRows()}, Sinks{}, lima, nil)
	now := time.Date(2025, 3, 2, 2, 30, 0, 0, time.UTC)

	report, err := svc.GenerateAlertReport(context.Background(), now)
	require.NoError(t, err)

	assert.Equal(t, "2025-03-01", report.Date.Format(dateLayout), "date follows the configured zone")
	assert.Equal(t, 3, report.TotalProducts)
	assert.Equal(t, []string{"Aspirina (Bayer)"}, report.OutOfStock)
	assert.Equal(t, []string{"Gasas (lote G7)"}, report.Expired)
	assert.True(t, report.HasAlerts())
}

func TestGenerateAlertReportPropagatesLoadErrors(t *testing.T) {
	svc := NewService(stubViews{err: models.ErrStoreCorrupt}, Sinks{}, lima, nil)
	_, err := svc.GenerateAlertReport(context.Background(), time.Now())
	assert.ErrorIs(t, err, models.ErrStoreCorrupt)
}

func TestFormatReport(t *testing.T) {
	report := models.AlertReport{
		Date:          time.Date(2025, 3, 1, 0, 0, 0, 0, lima),
		TotalProducts: 3,
		OutOfStock:    []string{"Aspirina (Bayer)"},
		Expired:       []string{"Gasas (lote G7)"},
	}

	assert.Equal(t, "Almacén 2025-03-01: 3 productos.\nSin stock (1):\n- Aspirina (Bayer)\nVencidos (1):\n- Gasas (lote G7)", FormatReport(report))

	report.OutOfStock, report.Expired = nil, nil
	assert.Equal(t, "Almacén 2025-03-01: 3 productos.\nSin alertas.", FormatReport(report))
}

func TestPublishAlertReportFansOut(t *testing.T) {
	store := &recordingStore{}
	sheet := &recordingSheet{}
	messenger := &recordingMessenger{}
	svc := NewService(stubViews{rows: sampleRows()}, Sinks{
		Reports:    store,
		Sheet:      sheet,
		SheetRange: "Alertas!A:E",
		Messenger:  messenger,
		Recipient:  "51999888777",
	}, lima, nil)

	now := time.Date(2025, 3, 1, 13, 0, 0, 0, time.UTC)
	report, err := svc.PublishAlertReport(context.Background(), now)
	require.NoError(t, err)

	require.Len(t, store.saved, 1)
	assert.Equal(t, report, store.saved[0])

	require.Len(t, sheet.rows, 1)
	assert.Equal(t, []string{"Alertas!A:E"}, sheet.ranges)
	assert.Equal(t, []interface{}{"2025-03-01", 3, 1, 1, "2025-03-01T13:00:00Z"}, sheet.rows[0])

	assert.Equal(t, []string{"51999888777"}, messenger.to)
	assert.Equal(t, []string{FormatReport(report)}, messenger.bodies)
}

func TestPublishAlertReportSkipsMessageWithoutAlerts(t *testing.T) {
	messenger := &recordingMessenger{}
	rows := []models.ViewRow{{Product: models.Product{Name: "Alcohol", Stock: 9}, Alert: models.AlertNormal}}
	svc := NewService(stubViews{rows: rows}, Sinks{Messenger: messenger, Recipient: "51999888777"}, lima, nil)

	_, err := svc.PublishAlertReport(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Empty(t, messenger.bodies)
}

func TestPublishAlertReportAttemptsEverySink(t *testing.T) {
	storeErr := errors.New("mongo down")
	store := &recordingStore{err: storeErr}
	sheet := &recordingSheet{err: errors.New("quota exceeded")}
	messenger := &recordingMessenger{}
	svc := NewService(stubViews{rows: sampleRows()}, Sinks{
		Reports:    store,
		Sheet:      sheet,
		SheetRange: "Alertas!A:E",
		Messenger:  messenger,
		Recipient:  "51999888777",
	}, lima, nil)

	_, err := svc.PublishAlertReport(context.Background(), time.Now())
	assert.ErrorIs(t, err, storeErr, "first failure is returned")
	assert.Len(t, sheet.rows, 1)
	assert.Len(t, messenger.bodies, 1)
}

func TestHasSinks(t *testing.T) {
	assert.False(t, NewService(stubViews{}, Sinks{}, lima, nil).HasSinks())
	assert.False(t, NewService(stubViews{}, Sinks{Sheet: &recordingSheet{}}, lima, nil).HasSinks(), "sheet needs a range")
	assert.True(t, NewService(stubViews{}, Sinks{Reports: &recordingStore{}}, lima, nil).HasSinks())
}

func TestRecentAlertReports(t *testing.T) {
	created := time.Date(2025, 3, 1, 13, 0, 0, 0, time.UTC)
	store := &recordingStore{history: []models.AlertReport{{TotalProducts: 3, CreatedAt: created}}}
	svc := NewService(stubViews{}, Sinks{Reports: store}, lima, nil)

	reports, err := svc.RecentAlertReports(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, 3, reports[0].TotalProducts)

	_, err = svc.RecentAlertReports(context.Background(), 0)
	require.NoError(t, err)
	_, err = svc.RecentAlertReports(context.Background(), 10000)
	require.NoError(t, err)
	assert.Equal(t, []int64{5, 30, 365}, store.limits)
}

func TestRecentAlertReportsEmptyAndFailing(t *testing.T) {
	svc := NewService(stubViews{}, Sinks{Reports: &recordingStore{}}, lima, nil)
	reports, err := svc.RecentAlertReports(context.Background(), 5)
	require.NoError(t, err)
	assert.NotNil(t, reports)
	assert.Empty(t, reports)

	storeErr := errors.New("mongo down")
	svc = NewService(stubViews{}, Sinks{Reports: &recordingStore{err: storeErr}}, lima, nil)
	_, err = svc.RecentAlertReports(context.Background(), 5)
	assert.ErrorIs(t, err, storeErr)
}

func TestRecentAlertReportsWithoutStore(t *testing.T) {
	svc := NewService(stubViews{}, Sinks{}, lima, nil)
	_, err := svc.RecentAlertReports(context.Background(), 5)
	assert.ErrorIs(t, err, ErrNoReportStore)
}
