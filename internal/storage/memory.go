package storage

import (
	"context"
	"sync"

	"neuroforge/internal/model"
)

type MemoryStore struct {
	mu           sync.RWMutex
	graphs       map[string]model.GraphRecord
	history      map[string][]model.TrainingResult
	evolutionLog map[string][]model.EvolutionLogEntry
	lossHistory  map[string][]float64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.graphs = make(map[string]model.GraphRecord)
	s.history = make(map[string][]model.TrainingResult)
	s.evolutionLog = make(map[string][]model.EvolutionLogEntry)
	s.lossHistory = make(map[string][]float64)
	return nil
}

func (s *MemoryStore) SaveGraph(_ context.Context, record model.GraphRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.graphs[record.ID] = copyGraphRecord(record)
	return nil
}

func (s *MemoryStore) GetGraph(_ context.Context, id string) (model.GraphRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.graphs[id]
	if !ok {
		return model.GraphRecord{}, false, nil
	}
	return copyGraphRecord(record), true, nil
}

func (s *MemoryStore) DeleteGraph(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.graphs, id)
	return nil
}

func (s *MemoryStore) SaveTrainingHistory(_ context.Context, runID string, history []model.TrainingResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := make([]model.TrainingResult, len(history))
	copy(copied, history)
	s.history[runID] = copied
	return nil
}

func (s *MemoryStore) GetTrainingHistory(_ context.Context, runID string) ([]model.TrainingResult, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.history[runID]
	if !ok {
		return nil, false, nil
	}
	copied := make([]model.TrainingResult, len(history))
	copy(copied, history)
	return copied, true, nil
}

func (s *MemoryStore) SaveEvolutionLog(_ context.Context, runID string, entries []model.EvolutionLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := make([]model.EvolutionLogEntry, len(entries))
	copy(copied, entries)
	s.evolutionLog[runID] = copied
	return nil
}

func (s *MemoryStore) GetEvolutionLog(_ context.Context, runID string) ([]model.EvolutionLogEntry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, ok := s.evolutionLog[runID]
	if !ok {
		return nil, false, nil
	}
	copied := make([]model.EvolutionLogEntry, len(entries))
	copy(copied, entries)
	return copied, true, nil
}

func (s *MemoryStore) SaveLossHistory(_ context.Context, runID string, losses []float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := append([]float64(nil), losses...)
	s.lossHistory[runID] = copied
	return nil
}

func (s *MemoryStore) GetLossHistory(_ context.Context, runID string) ([]float64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	losses, ok := s.lossHistory[runID]
	if !ok {
		return nil, false, nil
	}
	copied := append([]float64(nil), losses...)
	return copied, true, nil
}

// copyGraphRecord deep-copies the slices and bias map so callers cannot
// mutate stored state through a returned record.
func copyGraphRecord(record model.GraphRecord) model.GraphRecord {
	copied := record
	copied.Nodes = make([]model.Node, len(record.Nodes))
	copy(copied.Nodes, record.Nodes)
	copied.Connections = make([]model.Connection, len(record.Connections))
	copy(copied.Connections, record.Connections)
	copied.Biases = make(map[string]model.Bias, len(record.Biases))
	for id, bias := range record.Biases {
		copied.Biases[id] = bias
	}
	return copied
}
