package nn

import (
	"math"
	"testing"

	"neuroforge/internal/graph"
	"neuroforge/internal/model"
)

// buildZeroNet wires 2 inputs, 2 hidden, 1 output with all weights and
// biases at zero.
func buildZeroNet(t *testing.T) *graph.Store {
	t.Helper()
	s := graph.NewStore()
	nodes := []model.Node{
		{ID: "L0_N0", Layer: 0, Role: model.RoleInput},
		{ID: "L0_N1", Layer: 0, Role: model.RoleInput},
		{ID: "L1_N2", Layer: 1, Role: model.RoleHidden},
		{ID: "L1_N3", Layer: 1, Role: model.RoleHidden},
		{ID: "L2_N4", Layer: 2, Role: model.RoleOutput},
	}
	for _, n := range nodes {
		if err := s.AddNode(n); err != nil {
			t.Fatalf("add node: %v", err)
		}
		s.SetBias(n.ID, 0)
	}
	wire := func(src, dst string) {
		conn := model.Connection{
			ID: graph.ConnectionID(src, dst), Source: src, Destination: dst,
			Weight: 0, Enabled: true,
		}
		if err := s.AddConnection(conn); err != nil {
			t.Fatalf("add connection: %v", err)
		}
	}
	wire("L0_N0", "L1_N2")
	wire("L0_N0", "L1_N3")
	wire("L0_N1", "L1_N2")
	wire("L0_N1", "L1_N3")
	wire("L1_N2", "L2_N4")
	wire("L1_N3", "L2_N4")
	return s
}

func sigmoidAct(t *testing.T) Activation {
	t.Helper()
	act, err := NewActivation(KindSigmoid)
	if err != nil {
		t.Fatalf("new activation: %v", err)
	}
	return act
}

func TestForwardZeroWeightSigmoidNetwork(t *testing.T) {
	s := buildZeroNet(t)
	outputs, _ := Forward(s, sigmoidAct(t), []float64{1.0, 1.0})

	if len(outputs) != 1 {
		t.Fatalf("unexpected output length: %d", len(outputs))
	}
	if math.Abs(outputs[0]-0.5) > 1e-9 {
		t.Fatalf("sigmoid(0) network should emit 0.5, got %f", outputs[0])
	}
}

func TestForwardOutputLengthMatchesOutputNodes(t *testing.T) {
	s := buildZeroNet(t)
	act := sigmoidAct(t)

	for _, inputs := range [][]float64{nil, {1}, {1, 2}, {1, 2, 3, 4}} {
		outputs, _ := Forward(s, act, inputs)
		if len(outputs) != 1 {
			t.Fatalf("inputs=%v: output length %d", inputs, len(outputs))
		}
	}
}

func TestForwardIdempotentWithoutUpdates(t *testing.T) {
	s := buildZeroNet(t)
	if err := s.SetWeight("L0_N0->L1_N2", 0.7); err != nil {
		t.Fatalf("set weight: %v", err)
	}
	s.SetBias("L2_N4", -0.2)
	act := sigmoidAct(t)

	first, _ := Forward(s, act, []float64{0.3, 0.9})
	second, _ := Forward(s, act, []float64{0.3, 0.9})
	if first[0] != second[0] {
		t.Fatalf("consecutive passes diverged: %f vs %f", first[0], second[0])
	}
}

func TestForwardDisabledConnectionContributesNothing(t *testing.T) {
	s := buildZeroNet(t)
	if err := s.SetWeight("L1_N2->L2_N4", 5); err != nil {
		t.Fatalf("set weight: %v", err)
	}
	act := sigmoidAct(t)
	withEdge, _ := Forward(s, act, []float64{1, 1})

	if err := s.DisableConnection("L1_N2->L2_N4"); err != nil {
		t.Fatalf("disable: %v", err)
	}
	withoutEdge, _ := Forward(s, act, []float64{1, 1})

	if withEdge[0] == withoutEdge[0] {
		t.Fatal("disabling the edge should change the output")
	}
	if math.Abs(withoutEdge[0]-0.5) > 1e-9 {
		t.Fatalf("remaining zero-weight path should emit 0.5, got %f", withoutEdge[0])
	}
}

func TestForwardMissingInputsReadAsZero(t *testing.T) {
	s := buildZeroNet(t)
	if err := s.SetWeight("L0_N1->L1_N2", 3); err != nil {
		t.Fatalf("set weight: %v", err)
	}
	act := sigmoidAct(t)

	short, pass := Forward(s, act, []float64{1})
	if pass.Outputs["L0_N1"] != 0 {
		t.Fatalf("missing input should cache 0, got %f", pass.Outputs["L0_N1"])
	}
	explicit, _ := Forward(s, act, []float64{1, 0})
	if short[0] != explicit[0] {
		t.Fatalf("missing input differs from explicit zero: %f vs %f", short[0], explicit[0])
	}
}

func TestForwardUncachedSourceContributesZero(t *testing.T) {
	s := buildZeroNet(t)
	// Backward edge: source is in a later layer, so it has no cached
	// output when layer 1 is computed.
	if err := s.AddConnection(model.Connection{
		ID: "L2_N4->L1_N2", Source: "L2_N4", Destination: "L1_N2",
		Weight: 100, Enabled: true,
	}); err != nil {
		t.Fatalf("add backward edge: %v", err)
	}

	outputs, _ := Forward(s, sigmoidAct(t), []float64{1, 1})
	if math.Abs(outputs[0]-0.5) > 1e-9 {
		t.Fatalf("uncached source should contribute 0, got output %f", outputs[0])
	}
}

func TestForwardPopulatesPassCaches(t *testing.T) {
	s := buildZeroNet(t)
	_, pass := Forward(s, sigmoidAct(t), []float64{1, 1})

	if len(pass.ComputedIDs()) != 5 {
		t.Fatalf("expected all 5 nodes cached, got %d", len(pass.ComputedIDs()))
	}
	if pass.Sums["L1_N2"] != 0 {
		t.Fatalf("hidden pre-activation should be 0, got %f", pass.Sums["L1_N2"])
	}
	if pass.Outputs["L1_N2"] != 0.5 {
		t.Fatalf("hidden output should be 0.5, got %f", pass.Outputs["L1_N2"])
	}
}
