package brick

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
)

// mockStore is an in-memory Store for testing.
type mockStore struct {
	mu      sync.Mutex
	records []Record
	saves   int
	loadErr error
	saveErr error
}

func (m *mockStore) Load(context.Context) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return slices.Clone(m.records), nil
}

func (m *mockStore) Save(_ context.Context, records []Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.records = slices.Clone(records)
	m.saves++
	return nil
}

func (m *mockStore) snapshot() ([]Record, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.records), m.saves
}

var (
	m1 = Record{Name: "M1", MAC: "AA:BB", Port: 1, Controller: "X"}
	m2 = Record{Name: "M2", MAC: "CC:DD", Port: 2, Controller: "Y"}
)

func loadedRegistry(t *testing.T, records ...Record) (*Registry, *mockStore) {
	t.Helper()
	store := &mockStore{records: records}
	r := NewRegistry(store)
	if err := r.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return r, store
}

// =============================================================================
// Load Tests
// =============================================================================

func TestRegistry_LoadResetsState(t *testing.T) {
	r, _ := loadedRegistry(t, m1, m2)

	devices := r.List()
	if len(devices) != 2 || devices[0].Name != "M1" || devices[1].Name != "M2" {
		t.Fatalf("List() = %+v, want [M1 M2]", devices)
	}
	for _, d := range devices {
		if d.State != NewState() {
			t.Errorf("%s state = %+v, want %+v", d.Name, d.State, NewState())
		}
	}
}

func TestRegistry_LoadErrors(t *testing.T) {
	t.Run("store error", func(t *testing.T) {
		boom := errors.New("boom")
		r := NewRegistry(&mockStore{loadErr: boom})
		if err := r.Load(context.Background()); !errors.Is(err, boom) {
			t.Errorf("Load() error = %v, want boom", err)
		}
	})
	t.Run("duplicate names", func(t *testing.T) {
		r := NewRegistry(&mockStore{records: []Record{m1, m1}})
		if err := r.Load(context.Background()); !errors.Is(err, ErrDuplicateName) {
			t.Errorf("Load() error = %v, want ErrDuplicateName", err)
		}
	})
	t.Run("invalid record", func(t *testing.T) {
		r := NewRegistry(&mockStore{records: []Record{{Name: "M1"}}})
		if err := r.Load(context.Background()); !errors.Is(err, ErrInvalidRecord) {
			t.Errorf("Load() error = %v, want ErrInvalidRecord", err)
		}
	})
}

// =============================================================================
// Add / Remove Tests
// =============================================================================

func TestRegistry_Add(t *testing.T) {
	r, store := loadedRegistry(t, m1)

	dev, err := r.Add(context.Background(), m2)
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if dev.Record != m2 || dev.State != NewState() {
		t.Errorf("Add() = %+v", dev)
	}

	saved, saves := store.snapshot()
	if saves != 1 || !slices.Equal(saved, []Record{m1, m2}) {
		t.Errorf("store = %+v after %d saves, want [M1 M2] after 1", saved, saves)
	}
}

func TestRegistry_AddDuplicateLeavesStoreUnchanged(t *testing.T) {
	r, store := loadedRegistry(t, m1)

	dup := Record{Name: "M1", MAC: "FF:FF", Port: 9, Controller: "Z"}
	if _, err := r.Add(context.Background(), dup); !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("Add() error = %v, want ErrDuplicateName", err)
	}

	saved, saves := store.snapshot()
	if saves != 0 || !slices.Equal(saved, []Record{m1}) {
		t.Errorf("store = %+v after %d saves, want unchanged", saved, saves)
	}
	if got, _ := r.Get("M1"); got.Record != m1 {
		t.Errorf("Get(M1) = %+v, want original", got.Record)
	}
}

func TestRegistry_AddInvalid(t *testing.T) {
	r, _ := loadedRegistry(t)
	if _, err := r.Add(context.Background(), Record{Name: "M1"}); !errors.Is(err, ErrInvalidRecord) {
		t.Errorf("Add() error = %v, want ErrInvalidRecord", err)
	}
	if r.Len() != 0 {
		t.Errorf("Len() = %d, want 0", r.Len())
	}
}

func TestRegistry_AddSaveFailure(t *testing.T) {
	r, store := loadedRegistry(t, m1)
	store.saveErr = errors.New("disk full")

	if _, err := r.Add(context.Background(), m2); err == nil {
		t.Fatal("Add() succeeded with failing store")
	}
	if r.Len() != 1 {
		t.Errorf("Len() = %d after failed add, want 1", r.Len())
	}
}

func TestRegistry_Remove(t *testing.T) {
	r, store := loadedRegistry(t, m1, m2)
	ctx := context.Background()

	if _, _, err := r.Apply("M1", Connect()); err != nil {
		t.Fatal(err)
	}
	removed, err := r.Remove(ctx, "M1")
	if err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if !removed.State.Connected {
		t.Error("Remove() should return the last state")
	}
	if _, err := r.Get("M1"); !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("Get(M1) error = %v, want ErrDeviceNotFound", err)
	}
	if saved, _ := store.snapshot(); !slices.Equal(saved, []Record{m2}) {
		t.Errorf("store = %+v, want [M2]", saved)
	}

	if _, err := r.Remove(ctx, "M1"); !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("second Remove() error = %v, want ErrDeviceNotFound", err)
	}

	// Re-adding gets a fresh state.
	dev, err := r.Add(ctx, m1)
	if err != nil {
		t.Fatal(err)
	}
	if dev.State.Connected {
		t.Error("re-added brick kept old state")
	}
}

func TestRegistry_RemoveSaveFailure(t *testing.T) {
	r, store := loadedRegistry(t, m1)
	store.saveErr = errors.New("disk full")

	if _, err := r.Remove(context.Background(), "M1"); err == nil {
		t.Fatal("Remove() succeeded with failing store")
	}
	if _, err := r.Get("M1"); err != nil {
		t.Errorf("Get(M1) after failed remove error = %v", err)
	}
}

// =============================================================================
// Apply Tests
// =============================================================================

func TestRegistry_Apply(t *testing.T) {
	r, store := loadedRegistry(t, m1)

	dev, out, err := r.Apply("M1", Connect())
	if err != nil {
		t.Fatalf("Apply(Connect) error = %v", err)
	}
	if !out.Dispatch || !dev.State.Connected {
		t.Errorf("Apply(Connect) = %+v, %+v", dev, out)
	}

	dispatches := 0
	for range 2 {
		_, out, err := r.Apply("M1", SetPower(55))
		if err != nil {
			t.Fatal(err)
		}
		if out.Dispatch {
			dispatches++
		}
	}
	if dispatches != 0 {
		t.Errorf("SetPower twice dispatched %d commands, want 0", dispatches)
	}

	got, err := r.Get("M1")
	if err != nil {
		t.Fatal(err)
	}
	if got.State.Power != 55 || !got.State.Running {
		t.Errorf("state = %+v, want power 55 running", got.State)
	}

	if _, saves := store.snapshot(); saves != 0 {
		t.Errorf("Apply persisted state (%d saves)", saves)
	}
}

func TestRegistry_ApplyIllegalLeavesState(t *testing.T) {
	r, _ := loadedRegistry(t, m1)

	before, _ := r.Get("M1")
	if _, _, err := r.Apply("M1", SetDirection(Backward)); !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("Apply(SetDirection) error = %v, want ErrIllegalTransition", err)
	}
	after, _ := r.Get("M1")
	if after != before {
		t.Errorf("state changed from %+v to %+v", before, after)
	}
}

func TestRegistry_ApplyNotFound(t *testing.T) {
	r, _ := loadedRegistry(t)
	if _, _, err := r.Apply("ghost", Connect()); !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("Apply() error = %v, want ErrDeviceNotFound", err)
	}
}

func TestRegistry_ListIsSnapshot(t *testing.T) {
	r, _ := loadedRegistry(t, m1)
	list := r.List()
	list[0].State.Power = 99

	if got, _ := r.Get("M1"); got.State.Power != 0 {
		t.Error("mutating List() result changed the registry")
	}
}

func TestRegistry_ConcurrentApply(t *testing.T) {
	r, _ := loadedRegistry(t, m1, m2)
	for _, name := range []string{"M1", "M2"} {
		if _, _, err := r.Apply(name, Connect()); err != nil {
			t.Fatal(err)
		}
	}

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			name := "M1"
			if i%2 == 1 {
				name = "M2"
			}
			r.Apply(name, SetPower(i))   //nolint:errcheck // Connected, cannot fail
			r.Apply(name, CommitPower()) //nolint:errcheck // Connected, cannot fail
			_ = r.List()
		}()
	}
	wg.Wait()

	for _, d := range r.List() {
		if d.State.Running != (d.State.Power > 0) {
			t.Errorf("%s state inconsistent: %+v", d.Name, d.State)
		}
	}
}
