package catalog

import (
	"context"
	"encoding/json"
	"os"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/dishbook/backend/internal/domain"
)

// Seed is the JSON layout of a catalog file
type Seed struct {
	Products []domain.Product `json:"products"`
	Tags     []domain.Tag     `json:"tags"`
}

// MemoryCatalog is an in-process catalog, seeded from a file or literal data.
type MemoryCatalog struct {
	mu       sync.RWMutex
	products []domain.Product
	tags     []domain.Tag
	ids      map[string]bool
}

// NewMemoryCatalog creates a catalog holding seed.
func NewMemoryCatalog(seed Seed) *MemoryCatalog {
	c := &MemoryCatalog{ids: make(map[string]bool)}
	c.tags = append(c.tags, seed.Tags...)
	for _, p := range seed.Products {
		c.add(p)
	}
	return c
}

// LoadMemoryCatalog reads a JSON seed file. An empty path gives an empty catalog.
func LoadMemoryCatalog(path string) (*MemoryCatalog, error) {
	if path == "" {
		return NewMemoryCatalog(Seed{}), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "read catalog file %s", path), domain.ErrCatalogUnavailable)
	}

	var seed Seed
	if err := json.Unmarshal(raw, &seed); err != nil {
		return nil, errors.Wrapf(err, "parse catalog file %s", path)
	}
	return NewMemoryCatalog(seed), nil
}

func (c *MemoryCatalog) add(p domain.Product) {
	if c.ids[p.ID] {
		return
	}
	c.ids[p.ID] = true
	c.products = append(c.products, p)
}

// ListProducts returns the global products plus the ones owned by userID, in
// insertion order.
func (c *MemoryCatalog) ListProducts(ctx context.Context, userID string) ([]domain.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return domain.FilterVisible(c.products, userID), nil
}

// ListTags returns the global tags plus the ones owned by userID.
func (c *MemoryCatalog) ListTags(ctx context.Context, userID string) ([]domain.Tag, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	tags := make([]domain.Tag, 0, len(c.tags))
	for _, t := range c.tags {
		if t.VisibleTo(userID) {
			tags = append(tags, t)
		}
	}
	return tags, nil
}

// CreateProducts appends products; existing ids are left untouched.
func (c *MemoryCatalog) CreateProducts(ctx context.Context, products []domain.Product) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, p := range products {
		c.add(p)
	}
	return nil
}
