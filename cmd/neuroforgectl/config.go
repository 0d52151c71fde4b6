package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"neuroforge/internal/model"
	nfapi "neuroforge/pkg/neuroforge"
)

// fileConfig mirrors TrainRequest for config files. JSON and YAML are both
// accepted; the file extension picks the decoder.
type fileConfig struct {
	GraphID         string       `json:"graph_id" yaml:"graph_id"`
	RunID           string       `json:"run_id" yaml:"run_id"`
	Epochs          int          `json:"epochs" yaml:"epochs"`
	LearningRate    float64      `json:"learning_rate" yaml:"learning_rate"`
	Activation      string       `json:"activation" yaml:"activation"`
	EnableEvolution bool         `json:"enable_evolution" yaml:"enable_evolution"`
	EvolveEvery     int          `json:"evolve_every" yaml:"evolve_every"`
	Seed            int64        `json:"seed" yaml:"seed"`
	Batches         []fileSample `json:"batches" yaml:"batches"`
}

type fileSample struct {
	Inputs     []float64 `json:"inputs" yaml:"inputs"`
	Targets    []float64 `json:"targets" yaml:"targets"`
	Context    string    `json:"context" yaml:"context"`
	Importance float64   `json:"importance" yaml:"importance"`
}

func loadTrainRequest(path string) (nfapi.TrainRequest, error) {
	if path == "" {
		return nfapi.TrainRequest{}, nil
	}

	var cfg fileConfig
	if err := decodeFile(path, &cfg); err != nil {
		return nfapi.TrainRequest{}, fmt.Errorf("load config: %w", err)
	}

	req := nfapi.TrainRequest{
		GraphID:         cfg.GraphID,
		RunID:           cfg.RunID,
		Epochs:          cfg.Epochs,
		LearningRate:    cfg.LearningRate,
		Activation:      cfg.Activation,
		EnableEvolution: cfg.EnableEvolution,
		EvolveEvery:     cfg.EvolveEvery,
		Seed:            cfg.Seed,
		Batches:         toBatches(cfg.Batches),
	}
	return req, nil
}

func loadBatches(path string) ([]model.TrainingBatch, error) {
	var samples []fileSample
	if err := decodeFile(path, &samples); err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("dataset %s is empty", path)
	}
	for i, sample := range samples {
		if len(sample.Inputs) == 0 || len(sample.Targets) == 0 {
			return nil, fmt.Errorf("dataset %s: sample %d is missing inputs or targets", path, i)
		}
	}
	return toBatches(samples), nil
}

func decodeFile(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, out)
	default:
		return json.Unmarshal(data, out)
	}
}

func toBatches(samples []fileSample) []model.TrainingBatch {
	if len(samples) == 0 {
		return nil
	}
	batches := make([]model.TrainingBatch, len(samples))
	for i, sample := range samples {
		batches[i] = model.TrainingBatch{
			Inputs:     sample.Inputs,
			Targets:    sample.Targets,
			Context:    sample.Context,
			Importance: sample.Importance,
		}
	}
	return batches
}

func parseLayers(spec string) ([]int, error) {
	parts := strings.Split(spec, ",")
	layers := make([]int, 0, len(parts))
	for _, part := range parts {
		size, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid layer size %q", part)
		}
		if size <= 0 {
			return nil, fmt.Errorf("layer size must be > 0: %d", size)
		}
		layers = append(layers, size)
	}
	if len(layers) < 2 {
		return nil, fmt.Errorf("need at least input and output layers: %q", spec)
	}
	return layers, nil
}

func parseFloats(spec string) ([]float64, error) {
	parts := strings.Split(spec, ",")
	values := make([]float64, 0, len(parts))
	for _, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid value %q", part)
		}
		values = append(values, v)
	}
	return values, nil
}
