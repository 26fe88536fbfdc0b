// Package database opens the credential store named by a Config.
//
// Type selects the backend: "sqlite" (the default, modernc.org/sqlite on a local
// file), "postgres" (a pgx pool, for deployments sharing one table) or "memory"
// (a process-local map, optionally seeded from a JSON file). Every backend keeps
// one table whose name comes from Config.Tables and whose columns are exactly
// name and password, both nullable text. Validate rejects anything else.
//
//	db, err := database.Connect(ctx, database.Config{Type: "sqlite", DSN: "data/main.db3", Tables: hanabi.DefaultTables()})
//	if err != nil {
//		return err
//	}
//	defer db.Close()
//	if err := db.Migrate(ctx); err != nil {
//		return err
//	}
//	store := db.Store()
package database
