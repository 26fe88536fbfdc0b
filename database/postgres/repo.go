// Package postgres implements the credential store using PostgreSQL
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hanabi-drive/hanabi"
)

type repo struct {
	pool      *pgxpool.Pool
	tableName string
}

func (r *repo) Insert(ctx context.Context, cred hanabi.Credential) error {
	query := fmt.Sprintf(`INSERT INTO %s (name, password) VALUES ($1, $2)`, pgx.Identifier{r.tableName}.Sanitize())

	if _, err := r.pool.Exec(ctx, query, cred.Name, cred.Password); err != nil {
		return fmt.Errorf("insert: %w", err)
	}
	return nil
}

func (r *repo) Find(ctx context.Context, name, password string) (hanabi.Credential, error) {
	query := fmt.Sprintf(`
		SELECT name, password
		FROM %s
		WHERE name = $1 AND password = $2
		LIMIT 1
	`, pgx.Identifier{r.tableName}.Sanitize())

	var cred hanabi.Credential
	err := r.pool.QueryRow(ctx, query, name, password).Scan(&cred.Name, &cred.Password)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return hanabi.Credential{}, hanabi.ErrNotFound
		}
		return hanabi.Credential{}, fmt.Errorf("find: %w", err)
	}
	return cred, nil
}

func (r *repo) List(ctx context.Context) ([]string, error) {
	query := fmt.Sprintf(`SELECT COALESCE(name, '') FROM %s ORDER BY ctid`, pgx.Identifier{r.tableName}.Sanitize())

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}

	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	return names, nil
}
