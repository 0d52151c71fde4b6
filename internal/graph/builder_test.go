package graph

import (
	"math/rand"
	"testing"

	"neuroforge/internal/model"
)

func TestBuildLayeredRolesAndCounts(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	s, err := BuildLayered(rng, []int{2, 3, 1}, 1.0)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if s.NodeCount() != 6 {
		t.Fatalf("unexpected node count: %d", s.NodeCount())
	}
	if got := len(s.NodesByRole(model.RoleInput)); got != 2 {
		t.Fatalf("unexpected input count: %d", got)
	}
	if got := len(s.NodesByRole(model.RoleHidden)); got != 3 {
		t.Fatalf("unexpected hidden count: %d", got)
	}
	if got := len(s.NodesByRole(model.RoleOutput)); got != 1 {
		t.Fatalf("unexpected output count: %d", got)
	}
	// fully connected consecutive layers: 2*3 + 3*1
	if got := s.EnabledConnectionCount(); got != 9 {
		t.Fatalf("unexpected connection count: %d", got)
	}
	if err := s.ValidateLayers(); err != nil {
		t.Fatalf("built topology is invalid: %v", err)
	}
}

func TestBuildLayeredRejectsBadArguments(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	if _, err := BuildLayered(nil, []int{2, 1}, 1.0); err == nil {
		t.Fatal("expected error for nil rng")
	}
	if _, err := BuildLayered(rng, []int{2}, 1.0); err == nil {
		t.Fatal("expected error for single layer")
	}
	if _, err := BuildLayered(rng, []int{2, 0, 1}, 1.0); err == nil {
		t.Fatal("expected error for empty layer")
	}
	if _, err := BuildLayered(rng, []int{2, 1}, 1.5); err == nil {
		t.Fatal("expected error for probability out of range")
	}
}

func TestBuildLayeredZeroProbabilityWiresNothing(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	s, err := BuildLayered(rng, []int{2, 2}, 0)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if got := s.EnabledConnectionCount(); got != 0 {
		t.Fatalf("expected no connections, got %d", got)
	}
}
