package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hanabi-drive/hanabi/config"
	"github.com/hanabi-drive/hanabi/database"
)

// openDatabase connects to the configured store and checks it is reachable and
// shaped right. With migrate set the table is created first.
func openDatabase(ctx context.Context, cfg *config.Config, migrate bool) (database.Database, error) {
	dbCfg := cfg.DatabaseConfig()
	log := slog.With("type", dbCfg.Type, "table", dbCfg.Tables.Users)

	db, err := database.Connect(ctx, dbCfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	steps := []struct {
		name string
		run  func(context.Context) error
	}{
		{"ping", db.Ping},
		{"migrate", db.Migrate},
		{"validate", db.Validate},
	}
	for _, step := range steps {
		if step.name == "migrate" && !migrate {
			continue
		}
		if err := step.run(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s database: %w", step.name, err)
		}
		log.Debug("database step done", "step", step.name)
	}

	log.Info("database ready")
	return db, nil
}
