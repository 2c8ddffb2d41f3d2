package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zorpido/pos/internal/domain/menu"
)

const (
	listMenuItemsSQL = `SELECT id, sku, name, category, price, purchase_price, stock_quantity, low_stock_threshold, availability
		FROM menu_items ORDER BY category, name`

	getMenuItemByIDSQL = `SELECT id, sku, name, category, price, purchase_price, stock_quantity, low_stock_threshold, availability
		FROM menu_items WHERE id = $1`

	getMenuItemBySKUSQL = `SELECT id, sku, name, category, price, purchase_price, stock_quantity, low_stock_threshold, availability
		FROM menu_items WHERE sku = $1`

	updateMenuItemSQL = `UPDATE menu_items
		SET price = $2, purchase_price = $3, stock_quantity = $4, low_stock_threshold = $5, availability = $6
		WHERE id = $1`

	upsertMenuItemSQL = `INSERT INTO menu_items (sku, name, category, price, purchase_price, stock_quantity, low_stock_threshold, availability)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (sku) DO UPDATE
		SET name = EXCLUDED.name, category = EXCLUDED.category, price = EXCLUDED.price,
			purchase_price = EXCLUDED.purchase_price, low_stock_threshold = EXCLUDED.low_stock_threshold
		RETURNING id`
)

var _ menu.Repository = (*MenuRepository)(nil)

// MenuRepository implements menu.Repository backed by PostgreSQL.
type MenuRepository struct {
	pool *pgxpool.Pool
}

// NewMenuRepository returns a MenuRepository that uses the given pool.
func NewMenuRepository(pool *pgxpool.Pool) *MenuRepository {
	return &MenuRepository{pool: pool}
}

// List returns every menu item ordered by category and name.
func (r *MenuRepository) List(ctx context.Context) ([]menu.Item, error) {
	rows, err := r.pool.Query(ctx, listMenuItemsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing menu items: %w", err)
	}
	return pgx.CollectRows(rows, scanMenuItem)
}

// GetByID returns a single menu item by its identifier.
func (r *MenuRepository) GetByID(ctx context.Context, id int64) (*menu.Item, error) {
	rows, err := r.pool.Query(ctx, getMenuItemByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting menu item %d: %w", id, err)
	}

	it, err := pgx.CollectExactlyOneRow(rows, scanMenuItem)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, menu.ErrNotFound
		}
		return nil, fmt.Errorf("getting menu item %d: %w", id, err)
	}
	return &it, nil
}

// GetBySKU returns a single menu item by its stock keeping unit.
func (r *MenuRepository) GetBySKU(ctx context.Context, sku string) (*menu.Item, error) {
	rows, err := r.pool.Query(ctx, getMenuItemBySKUSQL, sku)
	if err != nil {
		return nil, fmt.Errorf("getting menu item %q: %w", sku, err)
	}

	it, err := pgx.CollectExactlyOneRow(rows, scanMenuItem)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, menu.ErrNotFound
		}
		return nil, fmt.Errorf("getting menu item %q: %w", sku, err)
	}
	return &it, nil
}

// Update persists the item's mutable fields.
func (r *MenuRepository) Update(ctx context.Context, item *menu.Item) error {
	tag, err := r.pool.Exec(ctx, updateMenuItemSQL,
		item.ID, item.Price, item.PurchasePrice,
		item.StockQuantity, item.LowStockThreshold, item.Availability,
	)
	if err != nil {
		return fmt.Errorf("updating menu item %d: %w", item.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return menu.ErrNotFound
	}
	return nil
}

// Upsert inserts a menu item keyed by SKU. On conflict the catalog fields are
// refreshed but live stock and availability are left alone.
func (r *MenuRepository) Upsert(ctx context.Context, item *menu.Item) error {
	err := r.pool.QueryRow(ctx, upsertMenuItemSQL,
		item.SKU,
		item.Name,
		item.Category,
		item.Price,
		item.PurchasePrice,
		item.StockQuantity,
		item.LowStockThreshold,
		item.Availability,
	).Scan(&item.ID)
	if err != nil {
		return errors.Wrap(err, "upsert menu item")
	}

	return nil
}

func scanMenuItem(row pgx.CollectableRow) (menu.Item, error) {
	var it menu.Item
	err := row.Scan(
		&it.ID, &it.SKU, &it.Name, &it.Category,
		&it.Price, &it.PurchasePrice,
		&it.StockQuantity, &it.LowStockThreshold, &it.Availability,
	)
	return it, err
}
