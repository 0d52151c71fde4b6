package graph

import (
	"errors"

	"neuroforge/internal/model"
)

var ErrEmptySnapshot = errors.New("snapshot is empty")

// Snapshot is an immutable deep copy of the store taken before a mutation
// attempt. At most one snapshot is outstanding per attempt; snapshots are
// never stacked. Restoring replaces the live maps wholesale, so a snapshot
// may be restored more than once without aliasing the live store.
type Snapshot struct {
	nodes  map[string]model.Node
	conns  map[string]model.Connection
	biases map[string]model.Bias
}

func (s *Store) TakeSnapshot() Snapshot {
	snap := Snapshot{
		nodes:  make(map[string]model.Node, len(s.nodes)),
		conns:  make(map[string]model.Connection, len(s.conns)),
		biases: make(map[string]model.Bias, len(s.biases)),
	}
	for id, n := range s.nodes {
		snap.nodes[id] = *n
	}
	for id, c := range s.conns {
		snap.conns[id] = *c
	}
	for id, b := range s.biases {
		snap.biases[id] = b
	}
	return snap
}

func (s *Store) Restore(snap Snapshot) error {
	if snap.nodes == nil {
		return ErrEmptySnapshot
	}
	nodes := make(map[string]*model.Node, len(snap.nodes))
	for id, n := range snap.nodes {
		copied := n
		nodes[id] = &copied
	}
	conns := make(map[string]*model.Connection, len(snap.conns))
	for id, c := range snap.conns {
		copied := c
		conns[id] = &copied
	}
	biases := make(map[string]model.Bias, len(snap.biases))
	for id, b := range snap.biases {
		biases[id] = b
	}
	s.nodes = nodes
	s.conns = conns
	s.biases = biases
	return nil
}
