package nn

import (
	"sort"

	"neuroforge/internal/graph"
)

// UpdateWeights applies one gradient-descent step: every enabled
// connection's weight moves by lr·delta(destination)·output(source), every
// registered bias by lr·delta(node). Connections whose endpoints lack a
// delta or cached output are skipped. Returns the number of weights and
// biases touched.
//
// This is the only code path besides the structural mutator that may
// mutate edge weights or biases.
func UpdateWeights(s *graph.Store, pass *Pass, deltas map[string]float64, learningRate float64) (int, error) {
	if pass == nil || pass.Outputs == nil {
		return 0, ErrNoForwardPass
	}

	count := 0
	for _, c := range s.Connections() {
		if !c.Enabled {
			continue
		}
		delta, ok := deltas[c.Destination]
		if !ok {
			continue
		}
		srcOut, ok := pass.Outputs[c.Source]
		if !ok {
			continue
		}
		if err := s.SetWeight(c.ID, c.Weight+learningRate*delta*srcOut); err != nil {
			return count, err
		}
		count++
	}

	for _, id := range sortedKeys(deltas) {
		if !s.HasBias(id) {
			continue
		}
		s.SetBias(id, s.Bias(id)+learningRate*deltas[id])
		count++
	}

	return count, nil
}

func sortedKeys(m map[string]float64) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
