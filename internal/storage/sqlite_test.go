//go:build sqlite

package storage

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"

	"neuroforge/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "neuroforge.db"))
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return store
}

func TestSQLiteStoreRequiresPath(t *testing.T) {
	store := NewSQLiteStore("")
	if err := store.Init(context.Background()); err == nil {
		t.Fatalf("Init accepted empty path")
	}
}

func TestSQLiteStoreRequiresInit(t *testing.T) {
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "neuroforge.db"))
	if err := store.SaveGraph(context.Background(), testGraphRecord("g1")); err == nil {
		t.Fatalf("SaveGraph worked before Init")
	}
}

func TestSQLiteStoreGraphRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t)

	record := testGraphRecord("g1")
	if err := store.SaveGraph(ctx, record); err != nil {
		t.Fatalf("SaveGraph: %v", err)
	}

	got, ok, err := store.GetGraph(ctx, "g1")
	if err != nil {
		t.Fatalf("GetGraph: %v", err)
	}
	if !ok {
		t.Fatalf("graph not found")
	}
	if !reflect.DeepEqual(got, record) {
		t.Fatalf("round trip mismatch:\ngot  %+v\nwant %+v", got, record)
	}

	if _, ok, err := store.GetGraph(ctx, "missing"); err != nil || ok {
		t.Fatalf("GetGraph(missing) = %v, %v", ok, err)
	}

	// Saving again overwrites.
	record.Nodes[0].Usage = 17
	if err := store.SaveGraph(ctx, record); err != nil {
		t.Fatalf("SaveGraph(update): %v", err)
	}
	got, _, err = store.GetGraph(ctx, "g1")
	if err != nil {
		t.Fatalf("GetGraph: %v", err)
	}
	if got.Nodes[0].Usage != 17 {
		t.Fatalf("update not persisted: %+v", got.Nodes[0])
	}

	if err := store.DeleteGraph(ctx, "g1"); err != nil {
		t.Fatalf("DeleteGraph: %v", err)
	}
	if _, ok, _ := store.GetGraph(ctx, "g1"); ok {
		t.Fatalf("graph survived delete")
	}
}

func TestSQLiteStoreRunScopedRecords(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t)

	history := []model.TrainingResult{
		{VersionedRecord: Stamp(), Epoch: 1, Loss: 0.3, Accuracy: 0.5},
	}
	if err := store.SaveTrainingHistory(ctx, "run-a", history); err != nil {
		t.Fatalf("SaveTrainingHistory: %v", err)
	}
	got, ok, err := store.GetTrainingHistory(ctx, "run-a")
	if err != nil || !ok {
		t.Fatalf("GetTrainingHistory = %v, %v", ok, err)
	}
	if !reflect.DeepEqual(got, history) {
		t.Fatalf("history mismatch: %+v", got)
	}

	entries := []model.EvolutionLogEntry{
		{VersionedRecord: Stamp(), SampleIndex: 50, Intent: "ADD_NODE", NodesBefore: 5, NodesAfter: 6},
	}
	if err := store.SaveEvolutionLog(ctx, "run-a", entries); err != nil {
		t.Fatalf("SaveEvolutionLog: %v", err)
	}
	gotEntries, ok, err := store.GetEvolutionLog(ctx, "run-a")
	if err != nil || !ok {
		t.Fatalf("GetEvolutionLog = %v, %v", ok, err)
	}
	if !reflect.DeepEqual(gotEntries, entries) {
		t.Fatalf("evolution log mismatch: %+v", gotEntries)
	}

	losses := []float64{0.4, 0.3}
	if err := store.SaveLossHistory(ctx, "run-a", losses); err != nil {
		t.Fatalf("SaveLossHistory: %v", err)
	}
	gotLosses, ok, err := store.GetLossHistory(ctx, "run-a")
	if err != nil || !ok {
		t.Fatalf("GetLossHistory = %v, %v", ok, err)
	}
	if !reflect.DeepEqual(gotLosses, losses) {
		t.Fatalf("loss history mismatch: %v", gotLosses)
	}

	if _, ok, _ := store.GetTrainingHistory(ctx, "run-b"); ok {
		t.Fatalf("history leaked across runs")
	}
}
