package reporting

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/lavilla/almacen/internal/domain/models"
	"github.com/lavilla/almacen/internal/service/inventory"
)

const (
	dateLayout = "2006-01-02"

	defaultHistoryLimit = 30
	maxHistoryLimit     = 365
)

// ErrNoReportStore is returned by history queries when no report store is configured.
var ErrNoReportStore = errors.New("report store not configured")

// ViewSource provides the classified inventory rows.
type ViewSource interface {
	GetView(ctx context.Context, supplier, search string) ([]models.ViewRow, error)
}

// ReportStore persists generated reports and reads them back.
type ReportStore interface {
	SaveAlertReport(ctx context.Context, report models.AlertReport) error
	LatestAlertReports(ctx context.Context, limit int64) ([]models.AlertReport, error)
}

// RowAppender appends a row to a spreadsheet range.
type RowAppender interface {
	AppendRow(ctx context.Context, sheetRange string, values []interface{}) error
}

// Messenger delivers a text message.
type Messenger interface {
	SendText(ctx context.Context, to, body string) (string, error)
}

// Sinks are the optional destinations of a published report. Nil sinks are skipped.
type Sinks struct {
	Reports    ReportStore
	Sheet      RowAppender
	SheetRange string
	Messenger  Messenger
	Recipient  string
}

// Service builds the daily alert report and fans it out to the sinks.
type Service struct {
	views  ViewSource
	sinks  Sinks
	loc    *time.Location
	logger *zap.Logger
}

// NewService wires a new reporting service instance.
func NewService(views ViewSource, sinks Sinks, loc *time.Location, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.Local
	}
	return &Service{views: views, sinks: sinks, loc: loc, logger: logger}
}

// GenerateAlertReport snapshots the rows that are out of stock or expired.
func (s *Service) GenerateAlertReport(ctx context.Context, now time.Time) (models.AlertReport, error) {
	rows, err := s.views.GetView(ctx, inventory.AllSuppliers, "")
	if err != nil {
		return models.AlertReport{}, fmt.Errorf("load inventory view: %w", err)
	}

	local := now.In(s.loc)
	report := models.AlertReport{
		Date:          time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.loc),
		TotalProducts: len(rows),
		OutOfStock:    []string{},
		Expired:       []string{},
		CreatedAt:     now.UTC().Truncate(time.Second),
	}

	for _, row := range rows {
		switch row.Alert {
		case models.AlertOutOfStock:
			report.OutOfStock = append(report.OutOfStock, label(row.Product))
		case models.AlertExpired:
			report.Expired = append(report.Expired, label(row.Product))
		}
	}

	return report, nil
}

// FormatReport renders a report as a plain text message.
func FormatReport(report models.AlertReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Almacén %s: %d productos.", report.Date.Format(dateLayout), report.TotalProducts)

	if !report.HasAlerts() {
		b.WriteString("\nSin alertas.")
		return b.String()
	}

	writeSection(&b, "Sin stock", report.OutOfStock)
	writeSection(&b, "Vencidos", report.Expired)
	return b.String()
}

func writeSection(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "\n%s (%d):", title, len(items))
	for _, item := range items {
		fmt.Fprintf(b, "\n- %s", item)
	}
}

// PublishAlertReport generates the report and hands it to every configured sink.
// All sinks are attempted; the first failure is returned.
func (s *Service) PublishAlertReport(ctx context.Context, now time.Time) (models.AlertReport, error) {
	report, err := s.GenerateAlertReport(ctx, now)
	if err != nil {
		return models.AlertReport{}, err
	}

	var errs []error

	if s.sinks.Reports != nil {
		if err := s.sinks.Reports.SaveAlertReport(ctx, report); err != nil {
			s.logger.Error("failed to store alert report", zap.Error(err))
			errs = append(errs, fmt.Errorf("store report: %w", err))
		}
	}

	if s.sinks.Sheet != nil && s.sinks.SheetRange != "" {
		row := []interface{}{
			report.Date.Format(dateLayout),
			report.TotalProducts,
			len(report.OutOfStock),
			len(report.Expired),
			report.CreatedAt.Format(time.RFC3339),
		}
		if err := s.sinks.Sheet.AppendRow(ctx, s.sinks.SheetRange, row); err != nil {
			s.logger.Error("failed to append alert row", zap.String("range", s.sinks.SheetRange), zap.Error(err))
			errs = append(errs, fmt.Errorf("append report row: %w", err))
		}
	}

	if s.sinks.Messenger != nil && s.sinks.Recipient != "" {
		if report.HasAlerts() {
			if _, err := s.sinks.Messenger.SendText(ctx, s.sinks.Recipient, FormatReport(report)); err != nil {
				s.logger.Error("failed to send alert message", zap.Error(err))
				errs = append(errs, fmt.Errorf("send report: %w", err))
			}
		} else {
			s.logger.Debug("no alerts, message skipped")
		}
	}

	s.logger.Info("alert report published",
		zap.String("date", report.Date.Format(dateLayout)),
		zap.Int("out_of_stock", len(report.OutOfStock)),
		zap.Int("expired", len(report.Expired)),
		zap.Int("failed_sinks", len(errs)))

	if len(errs) > 0 {
		return report, errs[0]
	}
	return report, nil
}

// RecentAlertReports returns up to limit stored reports, newest first. A
// non-positive limit falls back to a month of reports.
func (s *Service) RecentAlertReports(ctx context.Context, limit int) ([]models.AlertReport, error) {
	if s.sinks.Reports == nil {
		return nil, ErrNoReportStore
	}
	switch {
	case limit <= 0:
		limit = defaultHistoryLimit
	case limit > maxHistoryLimit:
		limit = maxHistoryLimit
	}

	reports, err := s.sinks.Reports.LatestAlertReports(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("load alert reports: %w", err)
	}
	if reports == nil {
		reports = []models.AlertReport{}
	}
	return reports, nil
}

func label(p models.Product) string {
	var parts []string
	if p.Supplier != "" {
		parts = append(parts, p.Supplier)
	}
	if p.Batch != "" {
		parts = append(parts, "lote "+p.Batch)
	}
	if len(parts) == 0 {
		return p.Name
	}
	return fmt.Sprintf("%s (%s)", p.Name, strings.Join(parts, ", "))
}

// HasSinks reports whether at least one destination is configured.
func (s *Service) HasSinks() bool {
	return s.sinks.Reports != nil ||
		(s.sinks.Sheet != nil && s.sinks.SheetRange != "") ||
		(s.sinks.Messenger != nil && s.sinks.Recipient != "")
}
