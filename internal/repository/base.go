package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/meuat/geo-api/internal/database"
)

// queryOne executes a single-row lookup and maps pgx.ErrNoRows to (nil, nil),
// leaving the not-found decision to the caller. It is shared by every
// fetch-by-key operation so new entities only need a scan function.
func queryOne[T any](ctx context.Context, db *database.Database, sql string, scan func(pgx.Row) (*T, error), args ...any) (*T, error) {
	row := db.Pool.QueryRow(ctx, sql, args...)

	entity, err := scan(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return entity, nil
}
