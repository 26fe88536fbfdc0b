// Package sqlite implements the credential store using SQLite
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hanabi-drive/hanabi"
)

type repo struct {
	db        *sql.DB
	tableName string
}

func (r *repo) Insert(ctx context.Context, cred hanabi.Credential) error {
	query := fmt.Sprintf(`INSERT INTO %s (name, password) VALUES (?, ?)`, quoteIdentifier(r.tableName)) //nolint:gosec // G201: table name is validated

	if _, err := r.db.ExecContext(ctx, query, cred.Name, cred.Password); err != nil {
		return fmt.Errorf("insert: %w", err)
	}
	return nil
}

func (r *repo) Find(ctx context.Context, name, password string) (hanabi.Credential, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT name, password FROM %s WHERE name = ? AND password = ? LIMIT 1`, quoteIdentifier(r.tableName))

	var cred hanabi.Credential
	err := r.db.QueryRowContext(ctx, query, name, password).Scan(&cred.Name, &cred.Password)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return hanabi.Credential{}, hanabi.ErrNotFound
		}
		return hanabi.Credential{}, fmt.Errorf("find: %w", err)
	}
	return cred, nil
}

func (r *repo) List(ctx context.Context) ([]string, error) {
	query := fmt.Sprintf(`SELECT name FROM %s ORDER BY rowid`, quoteIdentifier(r.tableName)) //nolint:gosec // G201: table name is validated

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	defer func() { _ = rows.Close() }()

	names := []string{}
	for rows.Next() {
		var name sql.NullString
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("list: scan: %w", err)
		}
		names = append(names, name.String)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	return names, nil
}
