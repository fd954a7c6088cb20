package brick

import "context"

// Store persists the ordered list of device records.
//
// Implementations:
//   - FileStore: JSON array file (default)
//   - SQLiteStore: bricks table in the SQLite database
type Store interface {
	// Load returns the records in their saved order. A store that has
	// never been written returns an empty slice and no error.
	Load(ctx context.Context) ([]Record, error)

	// Save replaces the whole list.
	Save(ctx context.Context, records []Record) error
}
