package evo

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"

	"neuroforge/internal/graph"
	"neuroforge/internal/model"
)

var (
	ErrUnknownIntent    = errors.New("unknown evolution intent")
	ErrNoMutationChoice = errors.New("no mutation choice available")
	ErrNodeLimit        = errors.New("node limit reached")
	ErrConnectionLimit  = errors.New("connection limit reached")

	// ErrRollbackFailed marks a failed restore after a failed mutation.
	// The live graph can no longer be trusted; training must stop.
	ErrRollbackFailed = errors.New("rollback failed")
)

// Mutator applies structural intents to a graph store under a
// snapshot/rollback envelope. A mutation either fully commits or leaves
// the store byte-for-byte at its pre-attempt state.
type Mutator struct {
	Rand           *rand.Rand
	MaxNodes       int
	MaxConnections int
}

func NewMutator(rng *rand.Rand) *Mutator {
	return &Mutator{
		Rand:           rng,
		MaxNodes:       MaxNodes,
		MaxConnections: MaxConnections,
	}
}

// Attempt captures a snapshot, applies the intent, and rolls back on any
// failure. NO_OP returns immediately without taking a snapshot. The
// returned error is nil only when the mutation committed; a non-nil error
// wrapping ErrRollbackFailed means the restore itself failed and the
// caller must treat the graph as corrupt.
func (m *Mutator) Attempt(s *graph.Store, intent Intent) error {
	if intent == IntentNoOp {
		return nil
	}
	if m == nil || m.Rand == nil {
		return errors.New("random source is required")
	}

	snap := s.TakeSnapshot()
	if err := m.apply(s, intent); err != nil {
		if rerr := s.Restore(snap); rerr != nil {
			return fmt.Errorf("%w: %v (after %v)", ErrRollbackFailed, rerr, err)
		}
		return err
	}
	return nil
}

func (m *Mutator) apply(s *graph.Store, intent Intent) error {
	switch intent {
	case IntentAddNode:
		return m.addNode(s)
	case IntentAddConnection:
		return m.addConnection(s)
	case IntentPruneNode:
		return m.pruneNode(s)
	case IntentPruneConnection:
		return m.pruneConnection(s)
	case IntentMutateWeight:
		return m.mutateWeight(s)
	case IntentAddLayer:
		return m.addLayer(s)
	case IntentPruneLayer:
		return m.pruneLayer(s)
	case IntentMutateBias:
		return m.mutateBias(s)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownIntent, intent)
	}
}

// addNode appends an unwired hidden node to a randomly chosen hidden
// layer. The weight updater and later ADD_CONNECTION attempts integrate it.
func (m *Mutator) addNode(s *graph.Store) error {
	if s.NodeCount() >= m.MaxNodes {
		return fmt.Errorf("%w: %d nodes", ErrNodeLimit, s.NodeCount())
	}
	maxLayer := s.MaxLayer()
	if maxLayer < 2 {
		return fmt.Errorf("%w: no hidden layer to grow", ErrNoMutationChoice)
	}
	layer := 1 + m.Rand.Intn(maxLayer-1)
	id := m.freeNodeID(s, layer)
	if err := s.AddNode(model.Node{ID: id, Layer: layer, Role: model.RoleHidden}); err != nil {
		return err
	}
	s.SetBias(id, 0)
	return nil
}

func (m *Mutator) addConnection(s *graph.Store) error {
	if s.EnabledConnectionCount() >= m.MaxConnections {
		return fmt.Errorf("%w: %d connections", ErrConnectionLimit, s.EnabledConnectionCount())
	}
	ids := s.NodeIDs()
	if len(ids) < 2 {
		return fmt.Errorf("%w: need two nodes", ErrNoMutationChoice)
	}

	for try := 0; try < 10; try++ {
		src, _ := s.Node(ids[m.Rand.Intn(len(ids))])
		dst, _ := s.Node(ids[m.Rand.Intn(len(ids))])
		if src.Layer >= dst.Layer {
			continue
		}
		cid := graph.ConnectionID(src.ID, dst.ID)
		if _, exists := s.Connection(cid); exists {
			continue
		}
		return s.AddConnection(model.Connection{
			ID:          cid,
			Source:      src.ID,
			Destination: dst.ID,
			Weight:      m.Rand.NormFloat64() * 0.01,
			Enabled:     true,
		})
	}
	return fmt.Errorf("%w: no free forward pair found", ErrNoMutationChoice)
}

func (m *Mutator) pruneNode(s *graph.Store) error {
	candidates := s.NodesByRole(model.RoleHidden)
	if len(candidates) == 0 {
		return fmt.Errorf("%w: no hidden node to prune", ErrNoMutationChoice)
	}
	return s.RemoveNode(candidates[m.Rand.Intn(len(candidates))])
}

func (m *Mutator) pruneConnection(s *graph.Store) error {
	enabled := enabledConnectionIDs(s)
	if len(enabled) == 0 {
		return fmt.Errorf("%w: no enabled connection", ErrNoMutationChoice)
	}
	return s.DisableConnection(enabled[m.Rand.Intn(len(enabled))])
}

func (m *Mutator) mutateWeight(s *graph.Store) error {
	enabled := enabledConnectionIDs(s)
	if len(enabled) == 0 {
		return fmt.Errorf("%w: no enabled connection", ErrNoMutationChoice)
	}
	id := enabled[m.Rand.Intn(len(enabled))]
	c, _ := s.Connection(id)
	return s.SetWeight(id, c.Weight+m.Rand.NormFloat64()*0.01)
}

func (m *Mutator) mutateBias(s *graph.Store) error {
	ids := make([]string, 0)
	for _, id := range s.NodeIDs() {
		if s.HasBias(id) {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return fmt.Errorf("%w: no bias registered", ErrNoMutationChoice)
	}
	id := ids[m.Rand.Intn(len(ids))]
	s.SetBias(id, s.Bias(id)+m.Rand.NormFloat64()*0.01)
	return nil
}

func (m *Mutator) addLayer(s *graph.Store) error {
	maxLayer := s.MaxLayer()
	if maxLayer < 2 {
		return fmt.Errorf("%w: no insertion point", ErrNoMutationChoice)
	}
	width := 2 + m.Rand.Intn(4)
	if s.NodeCount()+width > m.MaxNodes {
		return fmt.Errorf("%w: %d nodes", ErrNodeLimit, s.NodeCount())
	}

	insertAt := 1 + m.Rand.Intn(maxLayer-1)
	for _, id := range s.NodeIDs() {
		n, _ := s.Node(id)
		if n.Layer >= insertAt {
			if err := s.SetNodeLayer(id, n.Layer+1); err != nil {
				return err
			}
		}
	}
	for i := 0; i < width; i++ {
		id := m.freeNodeID(s, insertAt)
		if err := s.AddNode(model.Node{ID: id, Layer: insertAt, Role: model.RoleHidden}); err != nil {
			return err
		}
		s.SetBias(id, 0)
	}
	return nil
}

func (m *Mutator) pruneLayer(s *graph.Store) error {
	byLayer := make(map[int][]string)
	hiddenOnly := make(map[int]bool)
	for _, id := range s.NodeIDs() {
		n, _ := s.Node(id)
		byLayer[n.Layer] = append(byLayer[n.Layer], id)
		if _, seen := hiddenOnly[n.Layer]; !seen {
			hiddenOnly[n.Layer] = true
		}
		if n.Role != model.RoleHidden {
			hiddenOnly[n.Layer] = false
		}
	}

	layers := make([]int, 0)
	for layer, ok := range hiddenOnly {
		if ok {
			layers = append(layers, layer)
		}
	}
	if len(layers) == 0 {
		return fmt.Errorf("%w: no all-hidden layer", ErrNoMutationChoice)
	}
	sort.Ints(layers)

	target := layers[m.Rand.Intn(len(layers))]
	for _, id := range byLayer[target] {
		if err := s.RemoveNode(id); err != nil {
			return err
		}
	}
	return nil
}

func (m *Mutator) freeNodeID(s *graph.Store, layer int) string {
	for i := s.NodeCount(); ; i++ {
		id := fmt.Sprintf("L%d_N%d", layer, i)
		if _, exists := s.Node(id); !exists {
			return id
		}
	}
}

func enabledConnectionIDs(s *graph.Store) []string {
	ids := make([]string, 0)
	for _, c := range s.Connections() {
		if c.Enabled {
			ids = append(ids, c.ID)
		}
	}
	return ids
}
