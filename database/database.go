package database

import (
	"context"
	"fmt"

	"github.com/hanabi-drive/hanabi"
	"github.com/hanabi-drive/hanabi/database/memory"
	"github.com/hanabi-drive/hanabi/database/postgres"
	"github.com/hanabi-drive/hanabi/database/sqlite"
)

// Config holds the configuration for connecting to a credential backend.
type Config struct {
	// Type specifies the backend: "sqlite", "postgres" or "memory"
	Type string
	// DSN is the data source name (connection string); unused for memory
	DSN string
	// Tables names the credential table
	Tables hanabi.Tables
	// SeedFile is an optional JSON file of credentials loaded into a memory backend
	SeedFile string
}

// Database is a connected credential backend.
type Database interface {
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Validate(ctx context.Context) error
	Store() hanabi.CredentialStore
	Close() error
}

// Connect opens the configured backend. It does not migrate; call Migrate and
// Validate before serving traffic.
func Connect(ctx context.Context, cfg Config) (Database, error) {
	if cfg.Type != "memory" {
		if err := cfg.Tables.Validate(); err != nil {
			return nil, fmt.Errorf("connect: %w", err)
		}
	}

	switch cfg.Type {
	case "sqlite":
		db, err := sqlite.Connect(ctx, cfg.DSN, cfg.Tables)
		if err != nil {
			return nil, err
		}
		return db, nil
	case "postgres":
		db, err := postgres.Connect(ctx, cfg.DSN, cfg.Tables)
		if err != nil {
			return nil, err
		}
		return db, nil
	case "memory":
		var seed []hanabi.Credential
		if cfg.SeedFile != "" {
			creds, err := memory.LoadSeedFile(cfg.SeedFile)
			if err != nil {
				return nil, fmt.Errorf("connect memory: %w", err)
			}
			seed = creds
		}
		return &memoryDatabase{store: memory.NewStore(seed)}, nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}
}

// memoryDatabase has no schema; migration and validation always succeed.
type memoryDatabase struct {
	store *memory.Store
}

func (m *memoryDatabase) Ping(context.Context) error     { return nil }
func (m *memoryDatabase) Migrate(context.Context) error  { return nil }
func (m *memoryDatabase) Validate(context.Context) error { return nil }
func (m *memoryDatabase) Store() hanabi.CredentialStore  { return m.store }
func (m *memoryDatabase) Close() error                   { return nil }
