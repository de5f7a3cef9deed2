package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lavilla/almacen/internal/domain/models"
	"github.com/lavilla/almacen/internal/service/auth"
)

// InventoryService is the inventory surface exposed over HTTP.
type InventoryService interface {
	GetView(ctx context.Context, supplier, search string) ([]models.ViewRow, error)
	ListSuppliers(ctx context.Context) ([]string, error)
	Summary(ctx context.Context) (models.InventorySummary, error)
	AddProduct(ctx context.Context, sess auth.Session, p models.Product) (models.Product, error)
	EditProduct(ctx context.Context, sess auth.Session, index int, patch models.ProductPatch) (models.Product, error)
	EditProductByID(ctx context.Context, sess auth.Session, id string, patch models.ProductPatch) (models.Product, error)
	DeleteProduct(ctx context.Context, sess auth.Session, index int) (models.Product, error)
	DeleteProductByID(ctx context.Context, sess auth.Session, id string) (models.Product, error)
}

// InventoryHandler serves the inventory view and the admin mutations.
type InventoryHandler struct {
	svc    InventoryService
	logger *zap.Logger
}

// NewInventoryHandler constructs the HTTP handler adapter.
func NewInventoryHandler(svc InventoryService, logger *zap.Logger) *InventoryHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InventoryHandler{svc: svc, logger: logger}
}

// List returns the classified rows, optionally narrowed by ?supplier= and ?q=.
func (h *InventoryHandler) List(c *gin.Context) {
	rows, err := h.svc.GetView(c.Request.Context(), c.Query("supplier"), c.Query("q"))
	if err != nil {
		respondError(c, h.logger, "failed loading inventory view", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": rows, "count": len(rows)})
}

// Suppliers returns the distinct supplier names.
func (h *InventoryHandler) Suppliers(c *gin.Context) {
	suppliers, err := h.svc.ListSuppliers(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, "failed listing suppliers", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"suppliers": suppliers})
}

// Summary returns the row counts per alert class.
func (h *InventoryHandler) Summary(c *gin.Context) {
	summary, err := h.svc.Summary(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, "failed computing summary", err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// Add appends a product.
func (h *InventoryHandler) Add(c *gin.Context) {
	var req models.Product
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid product payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	product, err := h.svc.AddProduct(c.Request.Context(), CurrentSession(c), req)
	if err != nil {
		respondError(c, h.logger, "add product failed", err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

// EditAt patches the row at the :index path parameter.
func (h *InventoryHandler) EditAt(c *gin.Context) {
	index, ok := h.indexParam(c)
	if !ok {
		return
	}
	patch, ok := h.bindPatch(c)
	if !ok {
		return
	}

	product, err := h.svc.EditProduct(c.Request.Context(), CurrentSession(c), index, patch)
	if err != nil {
		respondError(c, h.logger, "edit product failed", err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// DeleteAt removes the row at the :index path parameter.
func (h *InventoryHandler) DeleteAt(c *gin.Context) {
	index, ok := h.indexParam(c)
	if !ok {
		return
	}

	product, err := h.svc.DeleteProduct(c.Request.Context(), CurrentSession(c), index)
	if err != nil {
		respondError(c, h.logger, "delete product failed", err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// Edit patches the row with the :id path parameter.
func (h *InventoryHandler) Edit(c *gin.Context) {
	patch, ok := h.bindPatch(c)
	if !ok {
		return
	}

	product, err := h.svc.EditProductByID(c.Request.Context(), CurrentSession(c), c.Param("id"), patch)
	if err != nil {
		respondError(c, h.logger, "edit product failed", err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// Delete removes the row with the :id path parameter.
func (h *InventoryHandler) Delete(c *gin.Context) {
	product, err := h.svc.DeleteProductByID(c.Request.Context(), CurrentSession(c), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, "delete product failed", err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *InventoryHandler) indexParam(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		h.logger.Warn("invalid row index", zap.String("index", c.Param("index")))
		c.JSON(http.StatusBadRequest, gin.H{"error": "index must be an integer"})
		return 0, false
	}
	return index, true
}

func (h *InventoryHandler) bindPatch(c *gin.Context) (models.ProductPatch, bool) {
	var patch models.ProductPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		h.logger.Warn("invalid patch payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return patch, false
	}
	return patch, true
}
