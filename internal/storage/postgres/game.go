package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/devsteam-store/internal/domain/game"
)

const (
	listGamesSQL = `SELECT id, title, description, genre, price, original_price, discount, banner_path, version, created_at
		FROM games ORDER BY title, id`

	getGameByIDSQL = `SELECT id, title, description, genre, price, original_price, discount, banner_path, version, created_at
		FROM games WHERE id = $1`

	createGameSQL = `INSERT INTO games (id, title, description, genre, price, original_price, discount, banner_path)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	// The version guard makes lost updates detectable: zero rows affected
	// means the row was modified or deleted since it was read.
	updateGameSQL = `UPDATE games
		SET title = $3, description = $4, genre = $5, price = $6, original_price = $7,
			discount = $8, banner_path = $9, version = version + 1
		WHERE id = $1 AND version = $2`

	deleteGameSQL = `DELETE FROM games WHERE id = $1`

	upsertGameSQL = `INSERT INTO games (id, title, description, genre, price, original_price, discount)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			genre = EXCLUDED.genre,
			price = EXCLUDED.price,
			original_price = EXCLUDED.original_price,
			discount = EXCLUDED.discount,
			version = games.version + 1`
)

var _ game.Repository = (*GameRepository)(nil)

// GameRepository implements game.Repository backed by PostgreSQL.
type GameRepository struct {
	pool *pgxpool.Pool
}

// NewGameRepository returns a GameRepository that uses the given pool.
func NewGameRepository(pool *pgxpool.Pool) *GameRepository {
	return &GameRepository{pool: pool}
}

// List returns all games ordered by title.
func (r *GameRepository) List(ctx context.Context) ([]game.Game, error) {
	rows, err := r.pool.Query(ctx, listGamesSQL)
	if err != nil {
		return nil, fmt.Errorf("listing games: %w", err)
	}
	return pgx.CollectRows(rows, scanGame)
}

// GetByID returns a single game by its identifier.
func (r *GameRepository) GetByID(ctx context.Context, id string) (*game.Game, error) {
	rows, err := r.pool.Query(ctx, getGameByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting game %q: %w", id, err)
	}

	g, err := pgx.CollectExactlyOneRow(rows, scanGame)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, game.ErrNotFound
		}
		return nil, fmt.Errorf("getting game %q: %w", id, err)
	}
	return &g, nil
}

// Create inserts a new game at version zero.
func (r *GameRepository) Create(ctx context.Context, g *game.Game) error {
	_, err := r.pool.Exec(ctx, createGameSQL,
		g.ID, g.Title, g.Description, g.Genre,
		g.Price, g.OriginalPrice, g.Discount, g.BannerPath,
	)
	if err != nil {
		return fmt.Errorf("creating game %q: %w", g.ID, err)
	}
	return nil
}

// Update saves a game guarded by its version. Returns game.ErrConflict when
// the stored version no longer matches; the caller decides whether that was a
// concurrent modification or deletion.
func (r *GameRepository) Update(ctx context.Context, g *game.Game) error {
	tag, err := r.pool.Exec(ctx, updateGameSQL,
		g.ID, g.Version,
		g.Title, g.Description, g.Genre,
		g.Price, g.OriginalPrice, g.Discount, g.BannerPath,
	)
	if err != nil {
		return fmt.Errorf("updating game %q: %w", g.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return game.ErrConflict
	}
	g.Version++
	return nil
}

// Upsert inserts or replaces a game record. Used by bulk catalog seeding;
// the API path goes through Create/Update with version guards instead.
func (r *GameRepository) Upsert(ctx context.Context, g *game.Game) error {
	_, err := r.pool.Exec(ctx, upsertGameSQL,
		g.ID, g.Title, g.Description, g.Genre,
		g.Price, g.OriginalPrice, g.Discount,
	)
	if err != nil {
		return fmt.Errorf("upserting game %q: %w", g.ID, err)
	}
	return nil
}

// Delete removes a game. Returns game.ErrNotFound when no row matched.
func (r *GameRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteGameSQL, id)
	if err != nil {
		return fmt.Errorf("deleting game %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return game.ErrNotFound
	}
	return nil
}

func scanGame(row pgx.CollectableRow) (game.Game, error) {
	var g game.Game
	err := row.Scan(
		&g.ID, &g.Title, &g.Description, &g.Genre,
		&g.Price, &g.OriginalPrice, &g.Discount, &g.BannerPath,
		&g.Version, &g.CreatedAt,
	)
	return g, err
}
