package trainer

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"neuroforge/internal/evo"
	"neuroforge/internal/graph"
	"neuroforge/internal/model"
	"neuroforge/internal/nn"
)

const (
	// Delta guard thresholds. An exploded or non-finite delta aborts the
	// training step before any weight moves; vanishing deltas are only
	// counted for diagnostics.
	gradientExplodeThreshold = 100.0
	gradientVanishThreshold  = 1e-7

	rollingWindow = 10
)

var ErrGradientCritical = errors.New("gradient is critical")

type Config struct {
	LearningRate    float64
	Activation      nn.Kind
	EnableEvolution bool
	// EvolveEvery is the sample interval between evolution checkpoints.
	EvolveEvery int

	Rand   *rand.Rand
	Logger *slog.Logger
}

// Trainer drives one-sample gradient descent over a graph store and, at a
// fixed sample interval, lets the evolution policy mutate the topology
// under the mutator's snapshot envelope. Not safe for concurrent use.
type Trainer struct {
	store  *graph.Store
	cfg    Config
	act    nn.Activation
	loss   nn.LossFunc
	logger *slog.Logger

	policy  evo.Policy
	mutator *evo.Mutator

	totalEpochs  uint64
	totalSamples uint64
	lossHistory  []float64
	lastLoss     float64

	evolutionCount uint64
	evolutionLog   []model.EvolutionLogEntry

	history []model.TrainingResult

	// Per-sample tallies from the most recent TrainBatch call.
	lastComputed []string
	lastUpdated  int
	lastAccuracy float64

	explodedDeltas uint64
	vanishedDeltas uint64
}

func New(store *graph.Store, cfg Config) (*Trainer, error) {
	if store == nil {
		return nil, errors.New("graph store is required")
	}
	if cfg.LearningRate <= 0 {
		return nil, fmt.Errorf("learning rate must be > 0: %f", cfg.LearningRate)
	}
	if cfg.EvolveEvery <= 0 {
		return nil, fmt.Errorf("evolve interval must be > 0: %d", cfg.EvolveEvery)
	}
	act, err := nn.NewActivation(cfg.Activation)
	if err != nil {
		return nil, err
	}
	loss, err := nn.NewLoss(nn.LossMSE)
	if err != nil {
		return nil, err
	}
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Trainer{
		store:   store,
		cfg:     cfg,
		act:     act,
		loss:    loss,
		logger:  logger,
		policy:  evo.NewPolicy(),
		mutator: evo.NewMutator(rng),
	}, nil
}

// Forward runs inference only: no weights move, no history is recorded,
// but node usage is still tracked.
func (t *Trainer) Forward(inputs []float64) []float64 {
	outputs, pass := nn.Forward(t.store, t.act, inputs)
	t.store.TouchUsage(pass.ComputedIDs())
	return outputs
}

// TrainBatch runs one sample through forward, loss, backward, update and
// usage tracking, then consults the evolution policy at the configured
// interval. Returns the sample's loss and thresholded accuracy.
func (t *Trainer) TrainBatch(batch model.TrainingBatch) (float64, float64, error) {
	outputs, pass := nn.Forward(t.store, t.act, batch.Inputs)

	loss := t.loss(outputs, batch.Targets)
	accuracy := nn.ThresholdAccuracy(outputs, batch.Targets)

	deltas, err := nn.Backward(t.store, t.act, pass, batch.Targets)
	if err != nil {
		return 0, 0, err
	}
	if err := t.guardDeltas(deltas); err != nil {
		return 0, 0, err
	}

	updated, err := nn.UpdateWeights(t.store, pass, deltas, t.cfg.LearningRate)
	if err != nil {
		return 0, 0, err
	}

	t.lastComputed = pass.ComputedIDs()
	t.lastUpdated = updated
	t.lastAccuracy = accuracy
	t.store.TouchUsage(t.lastComputed)

	t.totalSamples++
	t.lossHistory = append(t.lossHistory, loss)

	if t.cfg.EnableEvolution && t.totalSamples%uint64(t.cfg.EvolveEvery) == 0 {
		if err := t.tryEvolve(loss); err != nil {
			return loss, accuracy, err
		}
	}

	return loss, accuracy, nil
}

// TrainEpoch trains over a sequence of batches and aggregates loss and
// accuracy by arithmetic mean. NodesUsed counts distinct nodes touched
// across the epoch.
func (t *Trainer) TrainEpoch(batches []model.TrainingBatch) (model.TrainingResult, error) {
	start := time.Now()

	totalLoss := 0.0
	totalAccuracy := 0.0
	nodesUsed := make(map[string]struct{})
	weightsUpdated := uint64(0)

	for i, batch := range batches {
		loss, accuracy, err := t.TrainBatch(batch)
		if err != nil {
			return model.TrainingResult{}, fmt.Errorf("batch %d: %w", i, err)
		}
		totalLoss += loss
		totalAccuracy += accuracy
		weightsUpdated += uint64(t.lastUpdated)
		for _, id := range t.lastComputed {
			nodesUsed[id] = struct{}{}
		}
	}

	t.totalEpochs++

	n := len(batches)
	if n == 0 {
		n = 1
	}
	result := model.TrainingResult{
		Epoch:          t.totalEpochs,
		Loss:           totalLoss / float64(n),
		Accuracy:       totalAccuracy / float64(n),
		NodesUsed:      uint64(len(nodesUsed)),
		WeightsUpdated: weightsUpdated,
		ElapsedSeconds: time.Since(start).Seconds(),
	}
	t.history = append(t.history, result)

	t.logger.Info("epoch complete",
		slog.Uint64("epoch", result.Epoch),
		slog.Float64("loss", result.Loss),
		slog.Float64("accuracy", result.Accuracy),
		slog.Uint64("nodes_used", result.NodesUsed),
	)
	return result, nil
}

// tryEvolve consults the policy and, when an intent is chosen, runs it
// through the mutator's snapshot envelope. A rolled-back mutation is
// logged and training continues; a failed rollback is fatal.
func (t *Trainer) tryEvolve(currentLoss float64) error {
	trend := currentLoss - t.lastLoss

	ctx := evo.Context{
		Loss:               currentLoss,
		LossTrend:          trend,
		RecentAvg:          t.recentLoss(),
		Nodes:              t.store.NodeCount(),
		EnabledConnections: t.store.EnabledConnectionCount(),
		Observations:       len(t.lossHistory),
	}
	intent := t.policy.Decide(ctx)
	if intent == evo.IntentNoOp {
		t.lastLoss = currentLoss
		return nil
	}

	nodesBefore := ctx.Nodes
	connectionsBefore := ctx.EnabledConnections

	if err := t.mutator.Attempt(t.store, intent); err != nil {
		if errors.Is(err, evo.ErrRollbackFailed) {
			return err
		}
		t.logger.Warn("evolution rolled back",
			slog.String("intent", string(intent)),
			slog.String("error", err.Error()),
		)
		return nil
	}

	t.evolutionCount++
	t.evolutionLog = append(t.evolutionLog, model.EvolutionLogEntry{
		SampleIndex:       t.totalSamples,
		Intent:            string(intent),
		Loss:              currentLoss,
		LossTrend:         trend,
		NodesBefore:       nodesBefore,
		NodesAfter:        t.store.NodeCount(),
		ConnectionsBefore: connectionsBefore,
		ConnectionsAfter:  t.store.EnabledConnectionCount(),
	})
	t.lastLoss = currentLoss

	t.logger.Info("evolved",
		slog.String("intent", string(intent)),
		slog.Uint64("sample", t.totalSamples),
		slog.Int("nodes_before", nodesBefore),
		slog.Int("nodes_after", t.store.NodeCount()),
		slog.Float64("loss", currentLoss),
		slog.Float64("trend", trend),
	)
	return nil
}

func (t *Trainer) guardDeltas(deltas map[string]float64) error {
	for id, d := range deltas {
		if math.IsNaN(d) || math.IsInf(d, 0) {
			t.explodedDeltas++
			return fmt.Errorf("%w: node %s delta is not finite", ErrGradientCritical, id)
		}
		if math.Abs(d) > gradientExplodeThreshold {
			t.explodedDeltas++
			return fmt.Errorf("%w: node %s delta %f exceeds %f", ErrGradientCritical, id, d, gradientExplodeThreshold)
		}
		if d != 0 && math.Abs(d) < gradientVanishThreshold {
			t.vanishedDeltas++
		}
	}
	return nil
}

func (t *Trainer) recentLoss() float64 {
	n := len(t.lossHistory)
	if n == 0 {
		return 0
	}
	window := rollingWindow
	if n < window {
		window = n
	}
	sum := 0.0
	for _, l := range t.lossHistory[n-window:] {
		sum += l
	}
	return sum / float64(window)
}

func (t *Trainer) Store() *graph.Store {
	return t.store
}

func (t *Trainer) EvolutionCount() uint64 {
	return t.evolutionCount
}

func (t *Trainer) EvolutionLog() []model.EvolutionLogEntry {
	return append([]model.EvolutionLogEntry(nil), t.evolutionLog...)
}

func (t *Trainer) History() []model.TrainingResult {
	return append([]model.TrainingResult(nil), t.history...)
}

func (t *Trainer) LossHistory() []float64 {
	return append([]float64(nil), t.lossHistory...)
}
