package nn

import (
	"sort"

	"neuroforge/internal/graph"
	"neuroforge/internal/model"
)

// Pass holds the transient caches of one forward propagation: per-node
// pre-activation sums and post-activation outputs. A Pass is consumed by
// the backward executor and weight updater for the same sample and is never
// persisted.
type Pass struct {
	Sums    map[string]float64
	Outputs map[string]float64
}

// ComputedIDs lists every node that produced an output this pass, sorted.
// The usage tracker feeds on this.
func (p *Pass) ComputedIDs() []string {
	ids := make([]string, 0, len(p.Outputs))
	for id := range p.Outputs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Forward runs layer-ordered propagation over the store. The returned
// vector has one entry per output-role node, sorted by node id, regardless
// of input length: excess inputs are ignored, missing inputs read as 0.
//
// A connection whose source has no cached output yet contributes 0. That
// lenience is deliberate; callers wanting strict ordering run
// Store.ValidateLayers first.
func Forward(s *graph.Store, act Activation, inputs []float64) ([]float64, *Pass) {
	pass := &Pass{
		Sums:    make(map[string]float64, s.NodeCount()),
		Outputs: make(map[string]float64, s.NodeCount()),
	}

	for i, id := range s.NodesByRole(model.RoleInput) {
		value := 0.0
		if i < len(inputs) {
			value = inputs[i]
		}
		pass.Sums[id] = value
		pass.Outputs[id] = value
	}

	incoming := make(map[string][]model.Connection)
	for _, c := range s.Connections() {
		if !c.Enabled {
			continue
		}
		incoming[c.Destination] = append(incoming[c.Destination], c)
	}

	maxLayer := s.MaxLayer()
	for layer := 1; layer <= maxLayer; layer++ {
		for _, id := range s.NodesInLayer(layer) {
			sum := 0.0
			for _, c := range incoming[id] {
				if out, ok := pass.Outputs[c.Source]; ok {
					sum += out * c.Weight
				}
			}
			sum += s.Bias(id)
			pass.Sums[id] = sum
			pass.Outputs[id] = act.Apply(sum)
		}
	}

	outputIDs := s.NodesByRole(model.RoleOutput)
	outputs := make([]float64, len(outputIDs))
	for i, id := range outputIDs {
		outputs[i] = pass.Outputs[id]
	}
	return outputs, pass
}
