package catalog

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/cantinalabs/orderdesk/internal/domain"
	"github.com/cantinalabs/orderdesk/internal/storage"
)

// CatalogRepository serves read-only menu queries. It never writes.
type CatalogRepository struct {
	gw     *storage.Gateway
	logger *slog.Logger
}

func NewCatalogRepository(gw *storage.Gateway, logger *slog.Logger) *CatalogRepository {
	return &CatalogRepository{gw: gw, logger: logger}
}

// ListCategories returns all category names in storage order; an empty
// slice when the catalog is empty.
func (r *CatalogRepository) ListCategories(ctx context.Context) ([]string, error) {
	names := []string{}

	err := r.gw.WithinTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `
			SELECT name
			FROM product_types
			ORDER BY id
		`)
		if err != nil {
			return storage.Classify(err)
		}
		defer func() { _ = rows.Close() }()

		for rows.Next() {
			var name string
			if err := rows.Scan(&name); err != nil {
				return storage.Classify(err)
			}
			names = append(names, name)
		}

		return storage.Classify(rows.Err())
	})
	if err != nil {
		r.logger.Error("failed to list categories", "error", err)
		return nil, err
	}

	return names, nil
}

// ActiveProducts returns the active products of the named category. An
// unknown category and a category with no active products both yield an
// empty slice; the two cases are indistinguishable to the caller.
func (r *CatalogRepository) ActiveProducts(ctx context.Context, category string) ([]domain.ProductView, error) {
	products := []domain.ProductView{}

	err := r.gw.WithinTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `
			SELECT p.id, p.name, p.cost, COALESCE(p.description, '')
			FROM products p
			JOIN product_types t ON t.id = p.product_type_id
			WHERE t.name = $1 AND p.is_active
			ORDER BY p.id
		`, category)
		if err != nil {
			return storage.Classify(err)
		}
		defer func() { _ = rows.Close() }()

		for rows.Next() {
			var p domain.ProductView
			if err := rows.Scan(&p.ID, &p.Name, &p.Cost, &p.Description); err != nil {
				return storage.Classify(err)
			}
			products = append(products, p)
		}

		return storage.Classify(rows.Err())
	})
	if err != nil {
		r.logger.Error("failed to list active products", "error", err, "category", category)
		return nil, err
	}

	return products, nil
}
