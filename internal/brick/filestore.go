package brick

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const (
	schemaName       = "bricks.schema.json"
	fileStorePerm    = 0o644
	fileStoreDirPerm = 0o750
)

//go:embed bricks.schema.json
var bricksSchemaJSON string

// FileStore keeps the device list in a JSON file:
//
//	[
//	  {"name": "Crane", "controller": "BuWizz2", "mac": "50:FA:AB:00:11:22", "port": 0}
//	]
//
// Entries may also carry power, direction, running and connected; those are
// runtime fields and are ignored on load. Saves replace the file atomically.
type FileStore struct {
	path   string
	schema *jsonschema.Schema
}

// NewFileStore returns a store backed by path. The file need not exist.
func NewFileStore(path string) (*FileStore, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaName, strings.NewReader(bricksSchemaJSON)); err != nil {
		return nil, fmt.Errorf("adding device list schema: %w", err)
	}
	schema, err := compiler.Compile(schemaName)
	if err != nil {
		return nil, fmt.Errorf("compiling device list schema: %w", err)
	}
	return &FileStore{path: path, schema: schema}, nil
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the file. A missing or empty file is an empty list.
func (s *FileStore) Load(_ context.Context) ([]Record, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []Record{}, nil
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidStore, s.path, err)
	}
	if err := s.schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidStore, s.path, err)
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidStore, s.path, err)
	}
	if records == nil {
		records = []Record{}
	}
	return records, nil
}

// Save writes records to a temporary file in the same directory, syncs it
// and renames it over the old file. A failed save leaves the old file intact.
func (s *FileStore) Save(_ context.Context, records []Record) error {
	if records == nil {
		records = []Record{}
	}
	data, err := json.MarshalIndent(records, "", "    ")
	if err != nil {
		return fmt.Errorf("encoding device list: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, fileStoreDirPerm); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // Gone after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck // Already failing
		return fmt.Errorf("writing %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close() //nolint:errcheck // Already failing
		return fmt.Errorf("syncing %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, fileStorePerm); err != nil {
		return fmt.Errorf("setting permissions on %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replacing %s: %w", s.path, err)
	}
	return nil
}
