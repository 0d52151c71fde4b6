package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/dustin/go-humanize"

	"neuroforge/internal/storage"
	nfapi "neuroforge/pkg/neuroforge"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "init":
		return runInit(ctx, args[1:])
	case "reset":
		return runReset(ctx, args[1:])
	case "build":
		return runBuild(ctx, args[1:])
	case "train":
		return runTrain(ctx, args[1:])
	case "predict":
		return runPredict(ctx, args[1:])
	case "history":
		return runHistory(ctx, args[1:])
	case "evolution":
		return runEvolution(ctx, args[1:])
	case "losses":
		return runLosses(ctx, args[1:])
	case "stats":
		return runStats(ctx, args[1:])
	case "export":
		return runExport(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func storeFlags(fs *flag.FlagSet) (storeKind, dbPath *string) {
	storeKind = fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath = fs.String("db-path", "neuroforge.db", "sqlite database path")
	return storeKind, dbPath
}

func newClient(storeKind, dbPath string) (*nfapi.Client, error) {
	return nfapi.New(nfapi.Options{
		StoreKind: storeKind,
		DBPath:    dbPath,
		Logger:    slog.New(slog.NewTextHandler(os.Stderr, nil)),
	})
}

func runInit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	storeKind, dbPath := storeFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Init(ctx); err != nil {
		return err
	}

	fmt.Printf("initialized store=%s\n", *storeKind)
	return nil
}

func runReset(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("reset", flag.ContinueOnError)
	storeKind, dbPath := storeFlags(fs)
	graphID := fs.String("graph", "default", "graph identifier")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Init(ctx); err != nil {
		return err
	}
	if err := client.Reset(ctx, *graphID); err != nil {
		return err
	}

	fmt.Printf("reset graph=%s store=%s\n", *graphID, *storeKind)
	return nil
}

func runBuild(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("build", flag.ContinueOnError)
	storeKind, dbPath := storeFlags(fs)
	graphID := fs.String("graph", "default", "graph identifier")
	layersSpec := fs.String("layers", "2,4,1", "comma-separated layer sizes")
	connProb := fs.Float64("conn-prob", 1.0, "connection probability between adjacent layers")
	seed := fs.Int64("seed", 0, "random seed (0 = time-based)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	layers, err := parseLayers(*layersSpec)
	if err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Init(ctx); err != nil {
		return err
	}

	summary, err := client.Build(ctx, nfapi.BuildRequest{
		GraphID:        *graphID,
		Layers:         layers,
		ConnectionProb: *connProb,
		Seed:           *seed,
	})
	if err != nil {
		return err
	}

	fmt.Printf("built graph=%s nodes=%d connections=%d\n", summary.GraphID, summary.Nodes, summary.Connections)
	return nil
}

func runTrain(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("train", flag.ContinueOnError)
	storeKind, dbPath := storeFlags(fs)
	configPath := fs.String("config", "", "training config file (json or yaml)")
	dataPath := fs.String("data", "", "dataset file (json or yaml); default is the XOR rows")
	graphID := fs.String("graph", "", "graph identifier")
	runID := fs.String("run-id", "", "run identifier (default generated)")
	epochs := fs.Int("epochs", 0, "training epochs")
	rate := fs.Float64("rate", 0, "learning rate")
	activation := fs.String("activation", "", "activation function: sigmoid|relu|tanh")
	evolve := fs.Bool("evolve", false, "enable evolution")
	evolveEvery := fs.Int("evolve-every", 0, "samples between evolution checkpoints")
	seed := fs.Int64("seed", 0, "random seed (0 = time-based)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	req, err := loadTrainRequest(*configPath)
	if err != nil {
		return err
	}
	if *dataPath != "" {
		batches, err := loadBatches(*dataPath)
		if err != nil {
			return err
		}
		req.Batches = batches
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if set["graph"] {
		req.GraphID = *graphID
	}
	if set["run-id"] {
		req.RunID = *runID
	}
	if set["epochs"] {
		req.Epochs = *epochs
	}
	if set["rate"] {
		req.LearningRate = *rate
	}
	if set["activation"] {
		req.Activation = *activation
	}
	if set["evolve"] {
		req.EnableEvolution = *evolve
	}
	if set["evolve-every"] {
		req.EvolveEvery = *evolveEvery
	}
	if set["seed"] {
		req.Seed = *seed
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Init(ctx); err != nil {
		return err
	}

	summary, err := client.Train(ctx, req)
	if err != nil {
		return err
	}

	samples := int64(summary.Epochs) * int64(len(req.Batches))
	if len(req.Batches) == 0 {
		samples = int64(summary.Epochs) * 4
	}
	fmt.Printf("run=%s graph=%s\n", summary.RunID, summary.GraphID)
	fmt.Printf("epochs=%d samples=%s elapsed=%.2fs\n", summary.Epochs, humanize.Comma(samples), summary.ElapsedSeconds)
	fmt.Printf("final loss=%.6f accuracy=%.2f%%\n", summary.FinalLoss, summary.FinalAccuracy*100)
	fmt.Printf("topology nodes=%d connections=%d evolutions=%d\n", summary.Nodes, summary.Connections, summary.EvolutionCount)
	return nil
}

func runPredict(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("predict", flag.ContinueOnError)
	storeKind, dbPath := storeFlags(fs)
	graphID := fs.String("graph", "default", "graph identifier")
	activation := fs.String("activation", "", "activation function: sigmoid|relu|tanh")
	inputsSpec := fs.String("inputs", "", "comma-separated input values")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *inputsSpec == "" {
		return usageError("predict requires -inputs")
	}

	inputs, err := parseFloats(*inputsSpec)
	if err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Init(ctx); err != nil {
		return err
	}

	outputs, err := client.Predict(ctx, nfapi.PredictRequest{
		GraphID:    *graphID,
		Activation: *activation,
		Inputs:     inputs,
	})
	if err != nil {
		return err
	}

	parts := make([]string, len(outputs))
	for i, o := range outputs {
		parts[i] = fmt.Sprintf("%.6f", o)
	}
	fmt.Printf("outputs=[%s]\n", strings.Join(parts, ", "))
	return nil
}

func runHistory(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	storeKind, dbPath := storeFlags(fs)
	runID := fs.String("run-id", "", "run identifier")
	limit := fs.Int("limit", 0, "show only the last N epochs")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" {
		return usageError("history requires -run-id")
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Init(ctx); err != nil {
		return err
	}

	history, err := client.History(ctx, nfapi.HistoryRequest{RunID: *runID, Limit: *limit})
	if err != nil {
		return err
	}

	fmt.Printf("run=%s epochs=%d\n", *runID, len(history))
	for _, result := range history {
		fmt.Printf("  epoch=%-4d loss=%.6f accuracy=%.2f%% nodes_used=%d weights_updated=%s elapsed=%.3fs\n",
			result.Epoch, result.Loss, result.Accuracy*100, result.NodesUsed,
			humanize.Comma(int64(result.WeightsUpdated)), result.ElapsedSeconds)
	}
	return nil
}

func runEvolution(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("evolution", flag.ContinueOnError)
	storeKind, dbPath := storeFlags(fs)
	runID := fs.String("run-id", "", "run identifier")
	limit := fs.Int("limit", 0, "show only the last N entries")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" {
		return usageError("evolution requires -run-id")
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Init(ctx); err != nil {
		return err
	}

	entries, err := client.EvolutionLog(ctx, nfapi.EvolutionRequest{RunID: *runID, Limit: *limit})
	if err != nil {
		return err
	}

	fmt.Printf("run=%s mutations=%d\n", *runID, len(entries))
	for _, entry := range entries {
		fmt.Printf("  sample=%-6d intent=%-16s loss=%.6f trend=%+.6f nodes=%d->%d connections=%d->%d\n",
			entry.SampleIndex, entry.Intent, entry.Loss, entry.LossTrend,
			entry.NodesBefore, entry.NodesAfter, entry.ConnectionsBefore, entry.ConnectionsAfter)
	}
	return nil
}

func runLosses(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("losses", flag.ContinueOnError)
	storeKind, dbPath := storeFlags(fs)
	runID := fs.String("run-id", "", "run identifier")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" {
		return usageError("losses requires -run-id")
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Init(ctx); err != nil {
		return err
	}

	losses, err := client.LossHistory(ctx, *runID)
	if err != nil {
		return err
	}

	first, last, min, max := lossSeriesStats(losses)
	fmt.Printf("run=%s samples=%s\n", *runID, humanize.Comma(int64(len(losses))))
	fmt.Printf("first=%.6f last=%.6f min=%.6f max=%.6f\n", first, last, min, max)
	return nil
}

func runStats(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("stats", flag.ContinueOnError)
	storeKind, dbPath := storeFlags(fs)
	graphID := fs.String("graph", "default", "graph identifier")
	runID := fs.String("run-id", "", "include run aggregates")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Init(ctx); err != nil {
		return err
	}

	record, err := client.Export(ctx, *graphID)
	if err != nil {
		return err
	}

	enabled := 0
	for _, conn := range record.Connections {
		if conn.Enabled {
			enabled++
		}
	}
	totalUsage := 0.0
	for _, node := range record.Nodes {
		totalUsage += node.Usage
	}
	fmt.Printf("graph=%s nodes=%d connections=%d enabled=%d biases=%d\n",
		record.ID, len(record.Nodes), len(record.Connections), enabled, len(record.Biases))
	fmt.Printf("total node usage=%s\n", humanize.Comma(int64(totalUsage)))

	if *runID == "" {
		return nil
	}

	history, err := client.History(ctx, nfapi.HistoryRequest{RunID: *runID})
	if err != nil {
		return err
	}
	entries, err := client.EvolutionLog(ctx, nfapi.EvolutionRequest{RunID: *runID})
	if err != nil {
		return err
	}
	last := history[len(history)-1]
	fmt.Printf("run=%s epochs=%d mutations=%d\n", *runID, len(history), len(entries))
	fmt.Printf("final loss=%.6f accuracy=%.2f%%\n", last.Loss, last.Accuracy*100)
	return nil
}

func runExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	storeKind, dbPath := storeFlags(fs)
	graphID := fs.String("graph", "default", "graph identifier")
	outPath := fs.String("out", "", "output file (default stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Init(ctx); err != nil {
		return err
	}

	record, err := client.Export(ctx, *graphID)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	if *outPath == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(*outPath, data, 0o644); err != nil {
		return err
	}
	fmt.Printf("exported graph=%s to %s (%s)\n", record.ID, *outPath, humanize.Bytes(uint64(len(data))))
	return nil
}

func lossSeriesStats(losses []float64) (first, last, min, max float64) {
	if len(losses) == 0 {
		return 0, 0, 0, 0
	}
	first = losses[0]
	last = losses[len(losses)-1]
	min, max = losses[0], losses[0]
	for _, l := range losses[1:] {
		if l < min {
			min = l
		}
		if l > max {
			max = l
		}
	}
	return first, last, min, max
}

func usageError(msg string) error {
	return errors.New(msg + `

usage: neuroforgectl <command> [flags]

commands:
  init       initialize the store
  reset      delete a stored graph
  build      build and persist a layered graph
  train      train a graph and record the run
  predict    run a single forward pass
  history    show per-epoch training results for a run
  evolution  show committed structural mutations for a run
  losses     summarize the per-sample loss series for a run
  stats      show graph topology and run aggregates
  export     write a graph record as JSON`)
}
