package storage

import (
	"context"

	"neuroforge/internal/model"
)

// Store defines persistence operations for graphs, training history and
// the evolution log. Run-scoped records are keyed by run ID.
type Store interface {
	Init(ctx context.Context) error
	SaveGraph(ctx context.Context, record model.GraphRecord) error
	GetGraph(ctx context.Context, id string) (model.GraphRecord, bool, error)
	DeleteGraph(ctx context.Context, id string) error
	SaveTrainingHistory(ctx context.Context, runID string, history []model.TrainingResult) error
	GetTrainingHistory(ctx context.Context, runID string) ([]model.TrainingResult, bool, error)
	SaveEvolutionLog(ctx context.Context, runID string, entries []model.EvolutionLogEntry) error
	GetEvolutionLog(ctx context.Context, runID string) ([]model.EvolutionLogEntry, bool, error)
	SaveLossHistory(ctx context.Context, runID string, losses []float64) error
	GetLossHistory(ctx context.Context, runID string) ([]float64, bool, error)
}
