// Package backendtest holds the behaviour every sheetboard.Backend must
// share, run against each implementation from its own tests.
package backendtest

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/ideamans/sheetboard"
)

// BackendTestCase represents a backend under test
type BackendTestCase struct {
	Name        string
	Backend     sheetboard.Backend
	Sheet       string // Title of an empty, writable tab
	Description string
}

// Entity returns the entity the suite stores in the test tab
func (tc BackendTestCase) Entity() sheetboard.Entity {
	return sheetboard.Entity{
		Name:          "conformance",
		Sheet:         tc.Sheet,
		Label:         "Item",
		LastColumn:    "E",
		IDColumn:      "id",
		GenerateID:    true,
		CreatedColumn: "createdAt",
		Headers:       []string{"id", "name", "note", "createdAt"},
		Operations:    sheetboard.OpList | sheetboard.OpCreate | sheetboard.OpUpdate | sheetboard.OpDelete,
	}
}

// Run runs every check against tc
func Run(t *testing.T, tc BackendTestCase) {
	t.Helper()
	t.Logf("Testing %s: %s", tc.Name, tc.Description)

	ctx := context.Background()
	e := tc.Entity()

	rows, err := tc.Backend.Values(ctx, sheetboard.DataRange(e))
	if err != nil {
		t.Fatalf("Values() on empty tab error = %v", err)
	}
	if len(rows) != 0 {
		t.Skipf("tab %s is not empty", tc.Sheet)
	}

	t.Run("RowPrimitives", func(t *testing.T) {
		testRowPrimitives(t, tc.Backend, e)
	})
	t.Run("StoreLifecycle", func(t *testing.T) {
		testStoreLifecycle(t, tc.Backend, e)
	})
}

func testRowPrimitives(t *testing.T, backend sheetboard.Backend, e sheetboard.Entity) {
	ctx := context.Background()

	if err := backend.Update(ctx, sheetboard.HeaderRange(e), e.Headers); err != nil {
		t.Fatalf("Update(header) error = %v", err)
	}
	for _, row := range [][]string{
		{"a", "Alpha", "", "2024-01-01T00:00:00Z"},
		{"b", "Beta"},
		{"c", "Gamma", "third"},
	} {
		if err := backend.Append(ctx, sheetboard.DataRange(e), row); err != nil {
			t.Fatalf("Append(%v) error = %v", row, err)
		}
	}

	got, err := backend.Values(ctx, sheetboard.DataRange(e))
	if err != nil {
		t.Fatalf("Values() error = %v", err)
	}
	want := [][]string{
		{"id", "name", "note", "createdAt"},
		{"a", "Alpha", "", "2024-01-01T00:00:00Z"},
		{"b", "Beta"},
		{"c", "Gamma", "third"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Values() mismatch (-want +got):\n%s", diff)
	}

	// data index 1 is sheet row 3
	if err := backend.Update(ctx, sheetboard.SingleRowRange(e, 1), []string{"b", "Beta", "edited"}); err != nil {
		t.Fatalf("Update(row) error = %v", err)
	}
	row, err := backend.Values(ctx, sheetboard.SingleRowRange(e, 1))
	if err != nil {
		t.Fatalf("Values(row) error = %v", err)
	}
	if diff := cmp.Diff([][]string{{"b", "Beta", "edited"}}, row); diff != "" {
		t.Errorf("row mismatch (-want +got):\n%s", diff)
	}

	id, found, err := backend.SheetID(ctx, e.Sheet)
	if err != nil || !found {
		t.Fatalf("SheetID() = %d, %v, %v", id, found, err)
	}
	if _, found, err := backend.SheetID(ctx, e.Sheet+"-missing"); err != nil || found {
		t.Errorf("SheetID(missing) = %v, %v; want not found", found, err)
	}

	// remove data index 0 (sheet row 2)
	if err := backend.DeleteRows(ctx, id, 1, 2); err != nil {
		t.Fatalf("DeleteRows() error = %v", err)
	}
	got, err = backend.Values(ctx, sheetboard.DataRange(e))
	if err != nil {
		t.Fatalf("Values() error = %v", err)
	}
	want = [][]string{
		{"id", "name", "note", "createdAt"},
		{"b", "Beta", "edited"},
		{"c", "Gamma", "third"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Values() after delete mismatch (-want +got):\n%s", diff)
	}

	// leave only the header for the next check
	if err := backend.DeleteRows(ctx, id, 1, 3); err != nil {
		t.Fatalf("DeleteRows() error = %v", err)
	}
}

func testStoreLifecycle(t *testing.T, backend sheetboard.Backend, e sheetboard.Entity) {
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	ids := []string{"id-1", "id-2", "id-3"}
	next := 0

	store := sheetboard.NewStore(sheetboard.NewGateway(backend, nil), e,
		sheetboard.WithClock(func() time.Time { return now }),
		sheetboard.WithIDGenerator(func() string {
			id := ids[next%len(ids)]
			next++
			return id
		}),
	)

	if got := store.List(ctx); len(got) != 0 {
		t.Fatalf("List() returned %d records, want 0", len(got))
	}

	for _, name := range []string{"one", "two", "three"} {
		input := sheetboard.NewRecord()
		input.Set("name", name)
		if _, ok, err := store.Create(ctx, input); err != nil || !ok {
			t.Fatalf("Create(%s) = %v, %v", name, ok, err)
		}
	}

	updates := sheetboard.NewRecord()
	updates.Set("note", "updated")
	merged, ok, err := store.Update(ctx, "id-2", updates)
	if err != nil || !ok {
		t.Fatalf("Update() = %v, %v", ok, err)
	}
	if merged.Get("name") != "two" || merged.Get("note") != "updated" {
		t.Errorf("Update() merged = %v", merged.Values)
	}

	if ok, err := store.Delete(ctx, "id-1"); err != nil || !ok {
		t.Fatalf("Delete() = %v, %v", ok, err)
	}

	var got [][]string
	for _, r := range store.List(ctx) {
		got = append(got, []string{r.Get("id"), r.Get("name"), r.Get("note"), r.Get("createdAt")})
	}
	want := [][]string{
		{"id-2", "two", "updated", "2024-03-01T12:30:00Z"},
		{"id-3", "three", "", "2024-03-01T12:30:00Z"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("List() mismatch (-want +got):\n%s", diff)
	}

	if _, err := store.Delete(ctx, "id-1"); err == nil {
		t.Error("Delete() of removed record expected error")
	}
}
