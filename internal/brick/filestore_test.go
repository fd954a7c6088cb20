package brick

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func newFileStore(t *testing.T, content string) *FileStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bricks.json")
	if content != "" {
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	s, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	return s
}

func TestFileStore_LoadMissing(t *testing.T) {
	s := newFileStore(t, "")

	records, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if records == nil || len(records) != 0 {
		t.Errorf("Load() = %#v, want empty non-nil slice", records)
	}
}

func TestFileStore_LoadEmptyFile(t *testing.T) {
	s := newFileStore(t, "  \n")
	records, err := s.Load(context.Background())
	if err != nil || len(records) != 0 {
		t.Errorf("Load() = %v, %v; want empty", records, err)
	}
}

func TestFileStore_LoadIgnoresRuntimeFields(t *testing.T) {
	s := newFileStore(t, `[
		{"name": "Crane", "mac": "50:FA", "port": 2, "controller": "BuWizz2",
		 "power": 80, "direction": "backward", "running": true, "connected": true},
		{"name": "Train", "mac": "90:84", "port": 0, "controller": "LEGOHubNo4"}
	]`)

	records, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := []Record{
		{Name: "Crane", MAC: "50:FA", Port: 2, Controller: "BuWizz2"},
		{Name: "Train", MAC: "90:84", Port: 0, Controller: "LEGOHubNo4"},
	}
	if !slices.Equal(records, want) {
		t.Errorf("Load() = %+v, want %+v", records, want)
	}
}

func TestFileStore_LoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "not json", content: `{{`},
		{name: "object not array", content: `{"name":"x"}`},
		{name: "missing mac", content: `[{"name":"M1","port":1,"controller":"X"}]`},
		{name: "missing controller", content: `[{"name":"M1","mac":"AA","port":1}]`},
		{name: "negative port", content: `[{"name":"M1","mac":"AA","port":-1,"controller":"X"}]`},
		{name: "fractional port", content: `[{"name":"M1","mac":"AA","port":1.5,"controller":"X"}]`},
		{name: "string port", content: `[{"name":"M1","mac":"AA","port":"A","controller":"X"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newFileStore(t, tt.content)
			if _, err := s.Load(context.Background()); !errors.Is(err, ErrInvalidStore) {
				t.Errorf("Load() error = %v, want ErrInvalidStore", err)
			}
		})
	}
}

func TestFileStore_SaveLoadRoundtrip(t *testing.T) {
	s := newFileStore(t, "")
	ctx := context.Background()
	want := []Record{
		{Name: "Zeta", MAC: "AA", Port: 3, Controller: "X"},
		{Name: "Alpha", MAC: "BB", Port: 0, Controller: "Y"},
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

	// Full replace.
	if err := s.Save(ctx, want[:1]); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, err = s.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !slices.Equal(got, want[:1]) {
		t.Errorf("Load() after replace = %+v, want %+v", got, want[:1])
	}
}

func TestFileStore_SaveLeavesNoTempFiles(t *testing.T) {
	s := newFileStore(t, "")
	if err := s.Save(context.Background(), []Record{{Name: "M1", MAC: "AA"}}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	entries, err := os.ReadDir(filepath.Dir(s.Path()))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "bricks.json" {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("directory contains %v, want only bricks.json", names)
	}
}

func TestFileStore_SaveFailureCleansUp(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "bricks.json")

	// A non-empty directory at the target path makes the final rename fail.
	if err := os.Mkdir(target, 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(target, "keep"), nil, 0o600); err != nil {
		t.Fatal(err)
	}

	s, err := NewFileStore(target)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Save(context.Background(), []Record{{Name: "M1", MAC: "AA"}}); err == nil {
		t.Fatal("Save() over a directory succeeded, want error")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("temp file left behind: %d entries", len(entries))
	}
	if _, err := os.Stat(filepath.Join(target, "keep")); err != nil {
		t.Errorf("existing target touched: %v", err)
	}
}

func TestFileStore_SaveNil(t *testing.T) {
	s := newFileStore(t, "")
	if err := s.Save(context.Background(), nil); err != nil {
		t.Fatalf("Save(nil) error = %v", err)
	}
	data, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "[]\n" {
		t.Errorf("file = %q, want []", data)
	}
}
