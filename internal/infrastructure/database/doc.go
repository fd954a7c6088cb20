// Package database provides SQLite connectivity for BrickCommander.
//
// SQLite is the optional device-list backend (store.backend: sqlite). The
// package opens the file with WAL mode and a busy timeout, and applies the
// embedded schema migrations from the migrations package.
//
// Usage:
//
//	db, err := database.Open(cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//
// Migrations are additive. Every version ships an .up.sql and a .down.sql
// file; MigrateDown exists for development rollbacks.
package database
