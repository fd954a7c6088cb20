package brick

import (
	"context"
	"path/filepath"
	"slices"
	"testing"

	"github.com/nerrad567/brick-commander/internal/infrastructure/config"
	"github.com/nerrad567/brick-commander/internal/infrastructure/database"
	_ "github.com/nerrad567/brick-commander/migrations"
)

func newSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	db, err := database.Open(config.DatabaseConfig{
		Path:        filepath.Join(t.TempDir(), "bricks.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("database.Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return NewSQLiteStore(db.DB)
}

func TestSQLiteStore_LoadEmpty(t *testing.T) {
	s := newSQLiteStore(t)
	records, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if records == nil || len(records) != 0 {
		t.Errorf("Load() = %#v, want empty non-nil slice", records)
	}
}

func TestSQLiteStore_RoundtripKeepsOrder(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()
	want := []Record{
		{Name: "Zeta", MAC: "AA", Port: 3, Controller: ControllerBuWizz2},
		{Name: "Alpha", MAC: "BB", Port: 0, Controller: ControllerLEGOHubNo4},
		{Name: "Mid", MAC: "CC", Port: 1, Controller: ""},
	}

	if err := s.Save(ctx, want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !slices.Equal(got, want) {
		t.Errorf("Load() = %+v, want %+v", got, want)
	}

	reordered := []Record{want[2], want[0]}
	if err := s.Save(ctx, reordered); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, err = s.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !slices.Equal(got, reordered) {
		t.Errorf("Load() after replace = %+v, want %+v", got, reordered)
	}
}

func TestSQLiteStore_SaveFailureRollsBack(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()
	original := []Record{{Name: "M1", MAC: "AA", Port: 1}}
	if err := s.Save(ctx, original); err != nil {
		t.Fatal(err)
	}

	// Duplicate primary key fails mid-transaction.
	dup := []Record{{Name: "X", MAC: "AA"}, {Name: "X", MAC: "BB"}}
	if err := s.Save(ctx, dup); err == nil {
		t.Fatal("Save() with duplicate names succeeded, want error")
	}

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(got, original) {
		t.Errorf("Load() after failed save = %+v, want %+v", got, original)
	}
}
