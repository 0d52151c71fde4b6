package graph

import (
	"reflect"
	"testing"
)

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	s := newTestStore(t)
	s.SetBias("L1_N1", 0.2)
	before := s.Export("g")

	snap := s.TakeSnapshot()
	if err := s.Restore(snap); err != nil {
		t.Fatalf("restore: %v", err)
	}

	after := s.Export("g")
	if !reflect.DeepEqual(before, after) {
		t.Fatalf("round trip changed the store:\nbefore=%+v\nafter=%+v", before, after)
	}
}

func TestRestoreUndoesMutations(t *testing.T) {
	s := newTestStore(t)
	before := s.Export("g")

	snap := s.TakeSnapshot()
	if err := s.RemoveNode("L1_N1"); err != nil {
		t.Fatalf("remove node: %v", err)
	}
	if err := s.SetWeight("L0_N0->L1_N1", 99); err == nil {
		t.Fatal("expected error on removed connection")
	}

	if err := s.Restore(snap); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if !reflect.DeepEqual(before, s.Export("g")) {
		t.Fatal("restore did not reproduce pre-attempt state")
	}
}

func TestSnapshotIsIsolatedFromLiveStore(t *testing.T) {
	s := newTestStore(t)
	snap := s.TakeSnapshot()

	if err := s.SetWeight("L0_N0->L1_N1", 42); err != nil {
		t.Fatalf("set weight: %v", err)
	}
	if err := s.Restore(snap); err != nil {
		t.Fatalf("restore: %v", err)
	}
	c, _ := s.Connection("L0_N0->L1_N1")
	if c.Weight != 0.5 {
		t.Fatalf("snapshot aliased live state: weight=%f", c.Weight)
	}
}

func TestRestoreEmptySnapshotFails(t *testing.T) {
	s := newTestStore(t)
	if err := s.Restore(Snapshot{}); err == nil {
		t.Fatal("expected error for zero-value snapshot")
	}
}
