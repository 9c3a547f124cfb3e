package catalog

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/dishbook/backend/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS products (
	id TEXT PRIMARY KEY,
	owner_id TEXT,
	name TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS tags (
	id TEXT PRIMARY KEY,
	owner_id TEXT,
	name TEXT NOT NULL
);
`

const (
	listProductsQuery = `SELECT id, owner_id, name FROM products WHERE owner_id IS NULL OR owner_id = $1 ORDER BY name, id`
	listTagsQuery     = `SELECT id, owner_id, name FROM tags WHERE owner_id IS NULL OR owner_id = $1 ORDER BY name, id`
	insertProduct     = `INSERT INTO products (id, owner_id, name) VALUES ($1, $2, $3) ON CONFLICT (id) DO NOTHING`
)

// PostgresCatalog is the products and tags vocabulary stored in PostgreSQL.
type PostgresCatalog struct {
	db *sqlx.DB
}

// NewPostgresCatalog connects to dataSourceName and creates the tables.
func NewPostgresCatalog(ctx context.Context, dataSourceName string) (*PostgresCatalog, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dataSourceName)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "connect to database"), domain.ErrCatalogUnavailable)
	}

	c := NewPostgresCatalogFromDB(db)
	if err := c.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return c, nil
}

// NewPostgresCatalogFromDB wraps an open connection.
func NewPostgresCatalogFromDB(db *sqlx.DB) *PostgresCatalog {
	return &PostgresCatalog{db: db}
}

// Migrate creates the catalog tables if they do not exist.
func (c *PostgresCatalog) Migrate(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, schema); err != nil {
		return errors.Mark(errors.Wrap(err, "create catalog tables"), domain.ErrCatalogUnavailable)
	}
	return nil
}

// ListProducts returns the global products plus the ones owned by userID.
func (c *PostgresCatalog) ListProducts(ctx context.Context, userID string) ([]domain.Product, error) {
	products := []domain.Product{}
	if err := c.db.SelectContext(ctx, &products, listProductsQuery, userID); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "list products"), domain.ErrCatalogUnavailable)
	}
	return products, nil
}

// ListTags returns the global tags plus the ones owned by userID.
func (c *PostgresCatalog) ListTags(ctx context.Context, userID string) ([]domain.Tag, error) {
	tags := []domain.Tag{}
	if err := c.db.SelectContext(ctx, &tags, listTagsQuery, userID); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "list tags"), domain.ErrCatalogUnavailable)
	}
	return tags, nil
}

// CreateProducts inserts products in one transaction. Existing ids are left untouched.
func (c *PostgresCatalog) CreateProducts(ctx context.Context, products []domain.Product) error {
	if len(products) == 0 {
		return nil
	}

	tx, err := c.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Mark(errors.Wrap(err, "begin transaction"), domain.ErrCatalogUnavailable)
	}

	for _, p := range products {
		if _, err := tx.ExecContext(ctx, insertProduct, p.ID, p.OwnerID, p.Name); err != nil {
			_ = tx.Rollback()
			return errors.Mark(errors.Wrapf(err, "insert product %s", p.ID), domain.ErrCatalogUnavailable)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Mark(errors.Wrap(err, "commit products"), domain.ErrCatalogUnavailable)
	}
	return nil
}

// Close closes the database connection
func (c *PostgresCatalog) Close() error {
	return c.db.Close()
}
