package brick

import (
	"context"
	"database/sql"
	"fmt"
)

// SQLiteStore keeps the device list in the bricks table. The table comes
// from the embedded migrations; run database.DB.Migrate before use.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore returns a store using db.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Load returns all rows ordered by position.
func (s *SQLiteStore) Load(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT name, controller, mac, port FROM bricks ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("querying bricks: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.Name, &r.Controller, &r.MAC, &r.Port); err != nil {
			return nil, fmt.Errorf("scanning brick row: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating bricks: %w", err)
	}
	return records, nil
}

// Save replaces every row in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, records []Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback is no-op after commit

	if _, err := tx.ExecContext(ctx, "DELETE FROM bricks"); err != nil {
		return fmt.Errorf("clearing bricks: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO bricks (name, controller, mac, port, position) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range records {
		if _, err := stmt.ExecContext(ctx, r.Name, r.Controller, r.MAC, r.Port, i); err != nil {
			return fmt.Errorf("inserting brick %q: %w", r.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing bricks: %w", err)
	}
	return nil
}
