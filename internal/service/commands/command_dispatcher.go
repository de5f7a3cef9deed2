package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/lavilla/almacen/internal/domain/models"
	"github.com/lavilla/almacen/internal/service/inventory"
	"github.com/lavilla/almacen/internal/service/reporting"
)

// maxStockRows caps the rows listed in one reply.
const maxStockRows = 10

const helpMessage = "Consultas disponibles:\n" +
	"/stock <nombre> - existencias de un producto\n" +
	"/alertas - productos sin stock o vencidos\n" +
	"/proveedores - lista de proveedores"

// InventoryReader is the read-only inventory surface the dispatcher queries.
type InventoryReader interface {
	GetView(ctx context.Context, supplier, search string) ([]models.ViewRow, error)
	ListSuppliers(ctx context.Context) ([]string, error)
}

// AlertReporter builds the current alert report.
type AlertReporter interface {
	GenerateAlertReport(ctx context.Context, now time.Time) (models.AlertReport, error)
}

// Dispatcher answers parsed commands.
type Dispatcher interface {
	HandleCommand(ctx context.Context, cmd models.Command, sender string) (string, error)
}

// Service implements the Dispatcher interface. It never mutates the inventory.
type Service struct {
	inventory InventoryReader
	reporting AlertReporter
	logger    *zap.Logger
	now       func() time.Time
}

// NewService constructs a command dispatcher.
func NewService(inv InventoryReader, reporter AlertReporter, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		inventory: inv,
		reporting: reporter,
		logger:    logger,
		now:       time.Now,
	}
}

// HandleCommand runs the query and returns the reply text.
func (s *Service) HandleCommand(ctx context.Context, cmd models.Command, sender string) (string, error) {
	s.logger.Debug("dispatching command", zap.String("command", string(cmd.Type)), zap.String("sender", sender), zap.Strings("args", cmd.Args))

	switch cmd.Type {
	case models.CommandStock:
		return s.stock(ctx, cmd.Query())
	case models.CommandAlerts:
		report, err := s.reporting.GenerateAlertReport(ctx, s.now())
		if err != nil {
			return "", fmt.Errorf("generate alert report: %w", err)
		}
		return reporting.FormatReport(report), nil
	case models.CommandSuppliers:
		suppliers, err := s.inventory.ListSuppliers(ctx)
		if err != nil {
			return "", fmt.Errorf("list suppliers: %w", err)
		}
		if len(suppliers) == 0 {
			return "No hay proveedores registrados.", nil
		}
		return "Proveedores:\n" + strings.Join(suppliers, "\n"), nil
	case models.CommandHelp:
		return helpMessage, nil
	default:
		return "Consulta no reconocida.\n" + helpMessage, nil
	}
}

func (s *Service) stock(ctx context.Context, query string) (string, error) {
	if query == "" {
		return "Indica el producto, por ejemplo: /stock aspirina", nil
	}

	rows, err := s.inventory.GetView(ctx, inventory.AllSuppliers, query)
	if err != nil {
		return "", fmt.Errorf("search inventory: %w", err)
	}
	if len(rows) == 0 {
		return fmt.Sprintf("Sin resultados para %q.", query), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d resultado(s) para %q:", len(rows), query)
	for i, row := range rows {
		if i == maxStockRows {
			fmt.Fprintf(&b, "\n... y %d más", len(rows)-maxStockRows)
			break
		}
		b.WriteString("\n" + stockLine(row))
	}
	return b.String(), nil
}

func stockLine(row models.ViewRow) string {
	p := row.Product
	line := fmt.Sprintf("- %s: %d", p.Name, p.Stock)
	if p.UnitOfMeasure != "" {
		line += " " + p.UnitOfMeasure
	}
	if p.Supplier != "" {
		line += " | " + p.Supplier
	}
	if p.ExpirationDate != "" {
		line += " | vence " + p.ExpirationDate
	}
	switch row.Alert {
	case models.AlertOutOfStock:
		line += " [SIN STOCK]"
	case models.AlertExpired:
		line += " [VENCIDO]"
	}
	return line
}
