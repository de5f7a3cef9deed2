package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lavilla/almacen/internal/domain/models"
)

const backupSuffix = ".bak"

// Repository defines the persistence operations of the inventory record store.
type Repository interface {
	Load(ctx context.Context) (models.Table, error)
	Save(ctx context.Context, table models.Table) (models.Table, error)
}

// document is the on-disk layout of the store file.
type document struct {
	Revision  int64            `json:"revision"`
	UpdatedAt time.Time        `json:"updated_at"`
	Products  []models.Product `json:"products"`
}

// Store keeps the whole inventory in a single JSON file that is rewritten on
// every save.
type Store struct {
	path   string
	mu     sync.Mutex
	logger *zap.Logger
	now    func() time.Time
}

// NewStore builds a file backed store. The parent directory is created if missing.
func NewStore(path string, logger *zap.Logger) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("store path must not be empty")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store directory %s: %w", dir, err)
		}
	}

	return &Store{
		path:   path,
		logger: logger,
		now:    time.Now,
	}, nil
}

// Path returns the store file location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the store file. A missing file yields an empty table at revision 0.
func (s *Store) Load(ctx context.Context) (models.Table, error) {
	if err := ctx.Err(); err != nil {
		return models.Table{}, err
	}

	doc, _, err := s.read()
	if err != nil {
		return models.Table{}, err
	}

	return models.Table{
		Revision:  doc.Revision,
		UpdatedAt: doc.UpdatedAt,
		Products:  doc.Products,
	}, nil
}

// Save replaces the store content with table. The file on disk must still be at
// table.Revision, otherwise ErrConflict is returned and nothing is written.
// The returned table carries the new revision.
func (s *Store) Save(ctx context.Context, table models.Table) (models.Table, error) {
	if err := ctx.Err(); err != nil {
		return models.Table{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, raw, err := s.read()
	if err != nil && !errors.Is(err, models.ErrStoreCorrupt) {
		return models.Table{}, err
	}
	if err == nil && current.Revision != table.Revision {
		s.logger.Warn("store revision mismatch",
			zap.Int64("expected", table.Revision),
			zap.Int64("actual", current.Revision))
		return models.Table{}, fmt.Errorf("save at revision %d, store is at %d: %w", table.Revision, current.Revision, models.ErrConflict)
	}
	// A corrupt file is only overwritten when the caller starts from scratch.
	if err != nil && table.Revision != 0 {
		return models.Table{}, err
	}

	products := make([]models.Product, len(table.Products))
	copy(products, table.Products)
	for i := range products {
		if products[i].ID == "" {
			products[i].ID = uuid.NewString()
		}
	}

	doc := document{
		Revision:  table.Revision + 1,
		UpdatedAt: s.now().UTC().Truncate(time.Second),
		Products:  products,
	}

	payload, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return models.Table{}, fmt.Errorf("encode inventory: %w", err)
	}

	if len(raw) > 0 {
		if err := writeFileAtomic(s.path+backupSuffix, raw); err != nil {
			return models.Table{}, fmt.Errorf("write backup: %w", err)
		}
	}

	if err := writeFileAtomic(s.path, payload); err != nil {
		return models.Table{}, fmt.Errorf("write store: %w", err)
	}

	s.logger.Debug("inventory saved",
		zap.Int64("revision", doc.Revision),
		zap.Int("products", len(doc.Products)))

	return models.Table{
		Revision:  doc.Revision,
		UpdatedAt: doc.UpdatedAt,
		Products:  products,
	}, nil
}

// read returns the decoded document together with the raw bytes it came from.
func (s *Store) read() (document, []byte, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return document{Products: []models.Product{}}, nil, nil
		}
		return document{}, nil, fmt.Errorf("read store %s: %w", s.path, err)
	}

	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		s.logger.Error("store file could not be decoded", zap.String("path", s.path), zap.Error(err))
		return document{}, raw, fmt.Errorf("decode %s: %v: %w", s.path, err, models.ErrStoreCorrupt)
	}
	if doc.Revision < 0 {
		return document{}, raw, fmt.Errorf("decode %s: negative revision %d: %w", s.path, doc.Revision, models.ErrStoreCorrupt)
	}
	if doc.Products == nil {
		doc.Products = []models.Product{}
	}

	return doc, raw, nil
}

// writeFileAtomic writes data to a temporary file next to path and renames it
// into place so readers never observe a partial write.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return err
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
