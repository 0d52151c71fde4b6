package graph

import (
	"errors"
	"fmt"
	"math/rand"

	"neuroforge/internal/model"
)

// BuildLayered constructs a feed-forward topology from explicit layer sizes:
// layer 0 is input, the last layer is output, everything between is hidden.
// Node ids follow the L{layer}_N{counter} scheme; every pair of nodes in
// consecutive layers is wired with probability connectionProb. Weights and
// biases start at N(0,1)*0.01.
func BuildLayered(rng *rand.Rand, layerSizes []int, connectionProb float64) (*Store, error) {
	if rng == nil {
		return nil, errors.New("random source is required")
	}
	if len(layerSizes) < 2 {
		return nil, errors.New("at least two layers are required")
	}
	if connectionProb < 0 || connectionProb > 1 {
		return nil, fmt.Errorf("connection probability out of range: %f", connectionProb)
	}

	s := NewStore()
	var prev []string
	counter := 0
	for li, size := range layerSizes {
		if size <= 0 {
			return nil, fmt.Errorf("layer %d must have at least one node", li)
		}
		role := model.RoleHidden
		switch li {
		case 0:
			role = model.RoleInput
		case len(layerSizes) - 1:
			role = model.RoleOutput
		}

		curr := make([]string, 0, size)
		for i := 0; i < size; i++ {
			id := fmt.Sprintf("L%d_N%d", li, counter)
			counter++
			if err := s.AddNode(model.Node{ID: id, Layer: li, Role: role}); err != nil {
				return nil, err
			}
			s.SetBias(id, rng.NormFloat64()*0.01)
			curr = append(curr, id)
		}

		for _, src := range prev {
			for _, dst := range curr {
				if rng.Float64() > connectionProb {
					continue
				}
				conn := model.Connection{
					ID:          ConnectionID(src, dst),
					Source:      src,
					Destination: dst,
					Weight:      rng.NormFloat64() * 0.01,
					Enabled:     true,
				}
				if err := s.AddConnection(conn); err != nil {
					return nil, err
				}
			}
		}
		prev = curr
	}
	return s, nil
}

// ConnectionID is the canonical edge id for a source/destination pair.
func ConnectionID(src, dst string) string {
	return src + "->" + dst
}
