package nn

import (
	"errors"

	"neuroforge/internal/graph"
	"neuroforge/internal/model"
)

var ErrNoForwardPass = errors.New("backward requires a preceding forward pass")

// Backward computes an error delta per node from the caches of the most
// recent forward pass over the same store. It mutates nothing.
//
// Output deltas are (target − output) · derivative(output), with missing
// target components read as 0. Hidden and input deltas accumulate
// delta(destination)·weight over enabled outgoing edges, scaled by the
// node's own derivative.
func Backward(s *graph.Store, act Activation, pass *Pass, targets []float64) (map[string]float64, error) {
	if pass == nil || pass.Outputs == nil {
		return nil, ErrNoForwardPass
	}

	deltas := make(map[string]float64, s.NodeCount())

	for i, id := range s.NodesByRole(model.RoleOutput) {
		target := 0.0
		if i < len(targets) {
			target = targets[i]
		}
		out := pass.Outputs[id]
		deltas[id] = (target - out) * act.Derivative(out)
	}

	outgoing := make(map[string][]model.Connection)
	for _, c := range s.Connections() {
		if !c.Enabled {
			continue
		}
		outgoing[c.Source] = append(outgoing[c.Source], c)
	}

	for layer := s.MaxLayer() - 1; layer >= 0; layer-- {
		for _, id := range s.NodesInLayer(layer) {
			errSum := 0.0
			for _, c := range outgoing[id] {
				if d, ok := deltas[c.Destination]; ok {
					errSum += d * c.Weight
				}
			}
			deltas[id] = errSum * act.Derivative(pass.Outputs[id])
		}
	}

	return deltas, nil
}
