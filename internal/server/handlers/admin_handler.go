package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lavilla/almacen/internal/domain/models"
	"github.com/lavilla/almacen/internal/service/auth"
	"github.com/lavilla/almacen/internal/service/importer"
	"github.com/lavilla/almacen/internal/service/reporting"
)

// Importer copies the legacy spreadsheet into the store.
type Importer interface {
	Import(ctx context.Context, sess auth.Session) (importer.Result, error)
}

// AlertPublisher publishes the alert report on demand and lists stored ones.
type AlertPublisher interface {
	PublishAlertReport(ctx context.Context, now time.Time) (models.AlertReport, error)
	RecentAlertReports(ctx context.Context, limit int) ([]models.AlertReport, error)
}

type historyQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=365"`
}

// AdminHandler serves the admin-only maintenance operations.
type AdminHandler struct {
	importer  Importer
	publisher AlertPublisher
	logger    *zap.Logger
}

// NewAdminHandler constructs the HTTP handler adapter.
func NewAdminHandler(imp Importer, publisher AlertPublisher, logger *zap.Logger) *AdminHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminHandler{importer: imp, publisher: publisher, logger: logger}
}

// Import runs the legacy spreadsheet import.
func (h *AdminHandler) Import(c *gin.Context) {
	res, err := h.importer.Import(c.Request.Context(), CurrentSession(c))
	switch {
	case errors.Is(err, importer.ErrNotConfigured):
		h.logger.Warn("import requested without sheets configured")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	case errors.Is(err, importer.ErrNoRows):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "skipped": res.Skipped})
		return
	case err != nil:
		respondError(c, h.logger, "legacy import failed", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// PublishAlerts generates the alert report now and fans it out.
func (h *AdminHandler) PublishAlerts(c *gin.Context) {
	if err := auth.RequireAdmin(CurrentSession(c)); err != nil {
		respondError(c, h.logger, "alert publish rejected", err)
		return
	}

	report, err := h.publisher.PublishAlertReport(c.Request.Context(), time.Now())
	if err != nil {
		if report.CreatedAt.IsZero() {
			respondError(c, h.logger, "alert report generation failed", err)
			return
		}
		h.logger.Error("alert report delivery failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "alert report delivery failed", "report": report})
		return
	}
	c.JSON(http.StatusOK, report)
}

// AlertHistory lists the stored alert reports, newest first.
func (h *AdminHandler) AlertHistory(c *gin.Context) {
	if err := auth.RequireAdmin(CurrentSession(c)); err != nil {
		respondError(c, h.logger, "alert history rejected", err)
		return
	}

	var q historyQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a number up to 365"})
		return
	}

	reports, err := h.publisher.RecentAlertReports(c.Request.Context(), q.Limit)
	switch {
	case errors.Is(err, reporting.ErrNoReportStore):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	case err != nil:
		respondError(c, h.logger, "alert history failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reports": reports, "count": len(reports)})
}
