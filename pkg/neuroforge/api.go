// Package neuroforge is the embedding API for the self-modifying network
// engine. It wraps graph construction, training, evolution and persistence
// behind a single client.
package neuroforge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"neuroforge/internal/graph"
	"neuroforge/internal/model"
	"neuroforge/internal/nn"
	"neuroforge/internal/storage"
	"neuroforge/internal/trainer"
)

const (
	defaultDBPath      = "neuroforge.db"
	defaultGraphID     = "default"
	defaultEpochs      = 100
	defaultRate        = 0.1
	defaultEvolveEvery = 50
)

var ErrGraphNotFound = errors.New("graph not found")

type Options struct {
	StoreKind string
	DBPath    string
	Logger    *slog.Logger
}

type Client struct {
	store  storage.Store
	logger *slog.Logger
}

type BuildRequest struct {
	GraphID        string
	Layers         []int
	ConnectionProb float64
	Seed           int64
}

type BuildSummary struct {
	GraphID     string
	Nodes       int
	Connections int
}

type TrainRequest struct {
	GraphID         string
	RunID           string
	Epochs          int
	LearningRate    float64
	Activation      string
	EnableEvolution bool
	EvolveEvery     int
	Seed            int64
	Batches         []model.TrainingBatch
}

type TrainSummary struct {
	RunID          string
	GraphID        string
	Epochs         int
	FinalLoss      float64
	FinalAccuracy  float64
	EvolutionCount uint64
	Nodes          int
	Connections    int
	ElapsedSeconds float64
}

type PredictRequest struct {
	GraphID    string
	Activation string
	Inputs     []float64
}

type HistoryRequest struct {
	RunID string
	Limit int
}

type EvolutionRequest struct {
	RunID string
	Limit int
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}

	return &Client{store: store, logger: logger}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	return c.store.Init(ctx)
}

// Build constructs a layered graph and persists it under the request's
// graph ID, replacing any previous graph with that ID.
func (c *Client) Build(ctx context.Context, req BuildRequest) (BuildSummary, error) {
	if req.GraphID == "" {
		req.GraphID = defaultGraphID
	}
	if len(req.Layers) == 0 {
		req.Layers = []int{2, 4, 1}
	}
	if req.ConnectionProb <= 0 {
		req.ConnectionProb = 1
	}
	if req.Seed == 0 {
		req.Seed = time.Now().UnixNano()
	}

	s, err := graph.BuildLayered(rand.New(rand.NewSource(req.Seed)), req.Layers, req.ConnectionProb)
	if err != nil {
		return BuildSummary{}, err
	}

	record := s.Export(req.GraphID)
	record.VersionedRecord = storage.Stamp()
	if err := c.store.SaveGraph(ctx, record); err != nil {
		return BuildSummary{}, err
	}

	c.logger.Info("graph built",
		slog.String("graph", req.GraphID),
		slog.Int("nodes", s.NodeCount()),
		slog.Int("connections", s.EnabledConnectionCount()),
	)
	return BuildSummary{
		GraphID:     req.GraphID,
		Nodes:       s.NodeCount(),
		Connections: s.EnabledConnectionCount(),
	}, nil
}

// Train loads a graph, trains it for the requested number of epochs and
// persists the evolved graph plus the run's history under a run ID. An
// empty batch list falls back to the XOR dataset.
func (c *Client) Train(ctx context.Context, req TrainRequest) (TrainSummary, error) {
	if req.GraphID == "" {
		req.GraphID = defaultGraphID
	}
	if req.RunID == "" {
		req.RunID = uuid.NewString()
	}
	if req.Epochs <= 0 {
		req.Epochs = defaultEpochs
	}
	if req.LearningRate <= 0 {
		req.LearningRate = defaultRate
	}
	if req.EvolveEvery <= 0 {
		req.EvolveEvery = defaultEvolveEvery
	}
	if req.Seed == 0 {
		req.Seed = time.Now().UnixNano()
	}
	if len(req.Batches) == 0 {
		req.Batches = XORBatches()
	}
	kind, err := parseActivation(req.Activation)
	if err != nil {
		return TrainSummary{}, err
	}

	s, err := c.loadGraph(ctx, req.GraphID)
	if err != nil {
		return TrainSummary{}, err
	}

	tr, err := trainer.New(s, trainer.Config{
		LearningRate:    req.LearningRate,
		Activation:      kind,
		EnableEvolution: req.EnableEvolution,
		EvolveEvery:     req.EvolveEvery,
		Rand:            rand.New(rand.NewSource(req.Seed)),
		Logger:          c.logger,
	})
	if err != nil {
		return TrainSummary{}, err
	}

	start := time.Now()
	var last model.TrainingResult
	for epoch := 0; epoch < req.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return TrainSummary{}, err
		}
		last, err = tr.TrainEpoch(req.Batches)
		if err != nil {
			return TrainSummary{}, fmt.Errorf("epoch %d: %w", epoch+1, err)
		}
	}

	if err := c.persistRun(ctx, req.GraphID, req.RunID, tr); err != nil {
		return TrainSummary{}, err
	}

	return TrainSummary{
		RunID:          req.RunID,
		GraphID:        req.GraphID,
		Epochs:         req.Epochs,
		FinalLoss:      last.Loss,
		FinalAccuracy:  last.Accuracy,
		EvolutionCount: tr.EvolutionCount(),
		Nodes:          s.NodeCount(),
		Connections:    s.EnabledConnectionCount(),
		ElapsedSeconds: time.Since(start).Seconds(),
	}, nil
}

// Predict runs a single forward pass without training. Node usage changes
// are not persisted.
func (c *Client) Predict(ctx context.Context, req PredictRequest) ([]float64, error) {
	if req.GraphID == "" {
		req.GraphID = defaultGraphID
	}
	kind, err := parseActivation(req.Activation)
	if err != nil {
		return nil, err
	}
	act, err := nn.NewActivation(kind)
	if err != nil {
		return nil, err
	}

	s, err := c.loadGraph(ctx, req.GraphID)
	if err != nil {
		return nil, err
	}

	outputs, _ := nn.Forward(s, act, req.Inputs)
	return outputs, nil
}

func (c *Client) History(ctx context.Context, req HistoryRequest) ([]model.TrainingResult, error) {
	history, ok, err := c.store.GetTrainingHistory(ctx, req.RunID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("run %s: no training history", req.RunID)
	}
	if req.Limit > 0 && len(history) > req.Limit {
		history = history[len(history)-req.Limit:]
	}
	return history, nil
}

func (c *Client) EvolutionLog(ctx context.Context, req EvolutionRequest) ([]model.EvolutionLogEntry, error) {
	entries, ok, err := c.store.GetEvolutionLog(ctx, req.RunID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("run %s: no evolution log", req.RunID)
	}
	if req.Limit > 0 && len(entries) > req.Limit {
		entries = entries[len(entries)-req.Limit:]
	}
	return entries, nil
}

func (c *Client) LossHistory(ctx context.Context, runID string) ([]float64, error) {
	losses, ok, err := c.store.GetLossHistory(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("run %s: no loss history", runID)
	}
	return losses, nil
}

func (c *Client) Export(ctx context.Context, graphID string) (model.GraphRecord, error) {
	if graphID == "" {
		graphID = defaultGraphID
	}
	record, ok, err := c.store.GetGraph(ctx, graphID)
	if err != nil {
		return model.GraphRecord{}, err
	}
	if !ok {
		return model.GraphRecord{}, fmt.Errorf("%w: %s", ErrGraphNotFound, graphID)
	}
	return record, nil
}

func (c *Client) Reset(ctx context.Context, graphID string) error {
	if graphID == "" {
		graphID = defaultGraphID
	}
	return c.store.DeleteGraph(ctx, graphID)
}

// XORBatches is the built-in fallback dataset: the four XOR rows.
func XORBatches() []model.TrainingBatch {
	return []model.TrainingBatch{
		{Inputs: []float64{0, 0}, Targets: []float64{0}},
		{Inputs: []float64{0, 1}, Targets: []float64{1}},
		{Inputs: []float64{1, 0}, Targets: []float64{1}},
		{Inputs: []float64{1, 1}, Targets: []float64{0}},
	}
}

func (c *Client) loadGraph(ctx context.Context, graphID string) (*graph.Store, error) {
	record, ok, err := c.store.GetGraph(ctx, graphID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrGraphNotFound, graphID)
	}
	return graph.FromRecord(record)
}

func (c *Client) persistRun(ctx context.Context, graphID, runID string, tr *trainer.Trainer) error {
	record := tr.Store().Export(graphID)
	record.VersionedRecord = storage.Stamp()
	if err := c.store.SaveGraph(ctx, record); err != nil {
		return fmt.Errorf("save graph: %w", err)
	}

	history := tr.History()
	for i := range history {
		history[i].VersionedRecord = storage.Stamp()
	}
	if err := c.store.SaveTrainingHistory(ctx, runID, history); err != nil {
		return fmt.Errorf("save training history: %w", err)
	}

	entries := tr.EvolutionLog()
	for i := range entries {
		entries[i].VersionedRecord = storage.Stamp()
	}
	if err := c.store.SaveEvolutionLog(ctx, runID, entries); err != nil {
		return fmt.Errorf("save evolution log: %w", err)
	}

	if err := c.store.SaveLossHistory(ctx, runID, tr.LossHistory()); err != nil {
		return fmt.Errorf("save loss history: %w", err)
	}
	return nil
}

func parseActivation(name string) (nn.Kind, error) {
	if name == "" {
		return nn.KindSigmoid, nil
	}
	return nn.ParseKind(name)
}
