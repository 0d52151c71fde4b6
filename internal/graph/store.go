package graph

import (
	"errors"
	"fmt"
	"sort"

	"neuroforge/internal/model"
)

var (
	ErrNodeExists         = errors.New("node already exists")
	ErrNodeNotFound       = errors.New("node not found")
	ErrConnectionExists   = errors.New("connection already exists")
	ErrConnectionNotFound = errors.New("connection not found")
	ErrInvalidEndpoint    = errors.New("invalid connection endpoint")
)

// Store owns the live graph: nodes, connections and biases keyed by id.
// It is not safe for concurrent use; callers serialize access per engine
// instance. All mutation outside the weight updater goes through the
// structural mutator's snapshot envelope.
type Store struct {
	nodes  map[string]*model.Node
	conns  map[string]*model.Connection
	biases map[string]model.Bias
}

func NewStore() *Store {
	return &Store{
		nodes:  make(map[string]*model.Node),
		conns:  make(map[string]*model.Connection),
		biases: make(map[string]model.Bias),
	}
}

func (s *Store) AddNode(n model.Node) error {
	if n.ID == "" {
		return errors.New("node id is required")
	}
	if _, exists := s.nodes[n.ID]; exists {
		return fmt.Errorf("%w: %s", ErrNodeExists, n.ID)
	}
	copied := n
	s.nodes[n.ID] = &copied
	return nil
}

func (s *Store) Node(id string) (model.Node, bool) {
	n, ok := s.nodes[id]
	if !ok {
		return model.Node{}, false
	}
	return *n, true
}

// RemoveNode deletes a node and cascades removal of every connection that
// touches it, plus its bias. Pruned nodes can never leave dangling edges.
func (s *Store) RemoveNode(id string) error {
	if _, ok := s.nodes[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	for cid, c := range s.conns {
		if c.Source == id || c.Destination == id {
			delete(s.conns, cid)
		}
	}
	delete(s.biases, id)
	delete(s.nodes, id)
	return nil
}

func (s *Store) AddConnection(c model.Connection) error {
	if c.ID == "" {
		return errors.New("connection id is required")
	}
	if _, exists := s.conns[c.ID]; exists {
		return fmt.Errorf("%w: %s", ErrConnectionExists, c.ID)
	}
	if _, ok := s.nodes[c.Source]; !ok {
		return fmt.Errorf("%w: source %s", ErrInvalidEndpoint, c.Source)
	}
	if _, ok := s.nodes[c.Destination]; !ok {
		return fmt.Errorf("%w: destination %s", ErrInvalidEndpoint, c.Destination)
	}
	copied := c
	s.conns[c.ID] = &copied
	return nil
}

func (s *Store) Connection(id string) (model.Connection, bool) {
	c, ok := s.conns[id]
	if !ok {
		return model.Connection{}, false
	}
	return *c, true
}

func (s *Store) SetWeight(id string, weight float64) error {
	c, ok := s.conns[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrConnectionNotFound, id)
	}
	c.Weight = weight
	return nil
}

// DisableConnection retains the edge but excludes it from propagation.
func (s *Store) DisableConnection(id string) error {
	c, ok := s.conns[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrConnectionNotFound, id)
	}
	c.Enabled = false
	return nil
}

func (s *Store) RemoveConnection(id string) error {
	if _, ok := s.conns[id]; !ok {
		return fmt.Errorf("%w: %s", ErrConnectionNotFound, id)
	}
	delete(s.conns, id)
	return nil
}

// Bias returns the effective bias for a node, 0 when none is recorded.
// Legacy encodings are normalized away here; callers never see the wrapper.
func (s *Store) Bias(id string) float64 {
	return s.biases[id].Value
}

// HasBias reports whether a bias record exists for the node. The weight
// updater only touches registered biases.
func (s *Store) HasBias(id string) bool {
	_, ok := s.biases[id]
	return ok
}

// SetBias writes the effective value while preserving whichever legacy
// encoding the bias originally arrived in.
func (s *Store) SetBias(id string, value float64) {
	b := s.biases[id]
	b.Value = value
	s.biases[id] = b
}

func (s *Store) setBiasRecord(id string, b model.Bias) {
	s.biases[id] = b
}

func (s *Store) removeBias(id string) {
	delete(s.biases, id)
}

func (s *Store) SetNodeLayer(id string, layer int) error {
	n, ok := s.nodes[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	n.Layer = layer
	return nil
}

func (s *Store) NodeIDs() []string {
	ids := make([]string, 0, len(s.nodes))
	for id := range s.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s *Store) NodesByRole(role model.NodeRole) []string {
	ids := make([]string, 0, len(s.nodes))
	for id, n := range s.nodes {
		if n.Role == role {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

func (s *Store) NodesInLayer(layer int) []string {
	ids := make([]string, 0)
	for id, n := range s.nodes {
		if n.Layer == layer {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

func (s *Store) MaxLayer() int {
	max := 0
	for _, n := range s.nodes {
		if n.Layer > max {
			max = n.Layer
		}
	}
	return max
}

// Connections returns all edges, enabled or not, sorted by id so that
// propagation sums in a stable order.
func (s *Store) Connections() []model.Connection {
	ids := make([]string, 0, len(s.conns))
	for id := range s.conns {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]model.Connection, 0, len(ids))
	for _, id := range ids {
		out = append(out, *s.conns[id])
	}
	return out
}

func (s *Store) NodeCount() int {
	return len(s.nodes)
}

func (s *Store) EnabledConnectionCount() int {
	count := 0
	for _, c := range s.conns {
		if c.Enabled {
			count++
		}
	}
	return count
}

// TouchUsage bumps the usage counter for every listed node that exists.
// Unknown ids are skipped.
func (s *Store) TouchUsage(ids []string) {
	for _, id := range ids {
		if n, ok := s.nodes[id]; ok {
			n.Usage++
		}
	}
}

func (s *Store) TotalUsage() float64 {
	total := 0.0
	for _, n := range s.nodes {
		total += n.Usage
	}
	return total
}

// ValidateLayers reports the first enabled connection whose layer ordinals
// are not strictly increasing. The forward executor tolerates such edges
// (an uncached source contributes 0); this check exists for callers that
// want the stricter topology guarantee.
func (s *Store) ValidateLayers() error {
	for _, c := range s.Connections() {
		if !c.Enabled {
			continue
		}
		src, ok := s.nodes[c.Source]
		if !ok {
			continue
		}
		dst, ok := s.nodes[c.Destination]
		if !ok {
			continue
		}
		if src.Layer >= dst.Layer {
			return fmt.Errorf("connection %s: layer %d -> %d is not increasing", c.ID, src.Layer, dst.Layer)
		}
	}
	return nil
}

// Export produces the persistable record form of the store.
func (s *Store) Export(id string) model.GraphRecord {
	rec := model.GraphRecord{
		ID:     id,
		Biases: make(map[string]model.Bias, len(s.biases)),
	}
	for _, nid := range s.NodeIDs() {
		rec.Nodes = append(rec.Nodes, *s.nodes[nid])
	}
	rec.Connections = s.Connections()
	for nid, b := range s.biases {
		rec.Biases[nid] = b
	}
	return rec
}

// FromRecord rebuilds a store from its persisted form. Connections or
// biases referencing missing nodes are skipped rather than rejected; legacy
// data contains them and propagation ignores them anyway.
func FromRecord(rec model.GraphRecord) (*Store, error) {
	s := NewStore()
	for _, n := range rec.Nodes {
		if err := s.AddNode(n); err != nil {
			return nil, err
		}
	}
	for _, c := range rec.Connections {
		if err := s.AddConnection(c); err != nil {
			if errors.Is(err, ErrInvalidEndpoint) {
				continue
			}
			return nil, err
		}
	}
	for nid, b := range rec.Biases {
		if _, ok := s.nodes[nid]; !ok {
			continue
		}
		s.setBiasRecord(nid, b)
	}
	return s, nil
}

func (s *Store) Clone() *Store {
	out := NewStore()
	for id, n := range s.nodes {
		copied := *n
		out.nodes[id] = &copied
	}
	for id, c := range s.conns {
		copied := *c
		out.conns[id] = &copied
	}
	for id, b := range s.biases {
		out.biases[id] = b
	}
	return out
}
