package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/devsteam-store/internal/domain/cart"
)

const (
	createCartSQL = `INSERT INTO carts (id, user_id, created_at, finalized, finalized_at, total)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6)`

	getCartByIDSQL = `SELECT id, COALESCE(user_id, ''), created_at, finalized, finalized_at, total, version
		FROM carts WHERE id = $1`

	listCartItemsSQL = `SELECT id, cart_id, game_id, quantity, unit_price
		FROM cart_items WHERE cart_id = $1 ORDER BY id`

	updateCartSQL = `UPDATE carts
		SET finalized = $3, finalized_at = $4, total = $5, version = version + 1
		WHERE id = $1 AND version = $2`

	deleteCartItemsSQL = `DELETE FROM cart_items WHERE cart_id = $1`

	insertCartItemSQL = `INSERT INTO cart_items (id, cart_id, game_id, quantity, unit_price)
		VALUES ($1, $2, $3, $4, $5)`

	deleteCartSQL = `DELETE FROM carts WHERE id = $1`
)

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository implements cart.Repository backed by PostgreSQL. Line items
// live in cart_items with ON DELETE CASCADE, so cart deletion removes them.
type CartRepository struct {
	pool *pgxpool.Pool
}

// NewCartRepository returns a CartRepository that uses the given pool.
func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

// Create inserts a new cart at version zero with no items.
func (r *CartRepository) Create(ctx context.Context, c *cart.Cart) error {
	_, err := r.pool.Exec(ctx, createCartSQL,
		c.ID, c.UserID, c.CreatedAt, c.Finalized, c.FinalizedAt, c.Total,
	)
	if err != nil {
		return fmt.Errorf("creating cart %q: %w", c.ID, err)
	}
	return nil
}

// GetByID returns a cart together with its line items.
func (r *CartRepository) GetByID(ctx context.Context, id string) (*cart.Cart, error) {
	var c cart.Cart
	err := r.pool.QueryRow(ctx, getCartByIDSQL, id).Scan(
		&c.ID, &c.UserID, &c.CreatedAt, &c.Finalized, &c.FinalizedAt, &c.Total, &c.Version,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cart.ErrNotFound
		}
		return nil, fmt.Errorf("getting cart %q: %w", id, err)
	}

	rows, err := r.pool.Query(ctx, listCartItemsSQL, id)
	if err != nil {
		return nil, fmt.Errorf("listing items for cart %q: %w", id, err)
	}
	c.Items, err = pgx.CollectRows(rows, scanCartItem)
	if err != nil {
		return nil, fmt.Errorf("listing items for cart %q: %w", id, err)
	}

	return &c, nil
}

// Save writes the cart row and replaces its item set in one transaction. The
// version guard on the cart row serializes concurrent saves: a mismatch rolls
// everything back and returns cart.ErrConflict.
func (r *CartRepository) Save(ctx context.Context, c *cart.Cart) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning cart save: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, updateCartSQL,
		c.ID, c.Version, c.Finalized, c.FinalizedAt, c.Total,
	)
	if err != nil {
		return fmt.Errorf("updating cart %q: %w", c.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return cart.ErrConflict
	}

	if _, err := tx.Exec(ctx, deleteCartItemsSQL, c.ID); err != nil {
		return fmt.Errorf("clearing items for cart %q: %w", c.ID, err)
	}
	for _, item := range c.Items {
		if _, err := tx.Exec(ctx, insertCartItemSQL,
			item.ID, c.ID, item.GameID, item.Quantity, item.UnitPrice,
		); err != nil {
			return fmt.Errorf("inserting item %q for cart %q: %w", item.ID, c.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing cart %q: %w", c.ID, err)
	}
	c.Version++
	return nil
}

// Delete removes a cart; its items go with it via the FK cascade.
func (r *CartRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteCartSQL, id)
	if err != nil {
		return fmt.Errorf("deleting cart %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return cart.ErrNotFound
	}
	return nil
}

func scanCartItem(row pgx.CollectableRow) (cart.Item, error) {
	var item cart.Item
	err := row.Scan(&item.ID, &item.CartID, &item.GameID, &item.Quantity, &item.UnitPrice)
	return item, err
}
