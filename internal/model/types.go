package model

import (
	"encoding/json"
	"fmt"
)

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

type NodeRole string

const (
	RoleInput  NodeRole = "input"
	RoleHidden NodeRole = "hidden"
	RoleOutput NodeRole = "output"
)

type Node struct {
	ID    string   `json:"id"`
	Layer int      `json:"layer"`
	Role  NodeRole `json:"role"`
	Usage float64  `json:"usage"`
}

type Connection struct {
	ID          string  `json:"id"`
	Source      string  `json:"source"`
	Destination string  `json:"destination"`
	Weight      float64 `json:"weight"`
	Enabled     bool    `json:"enabled"`
}

// Bias carries a per-node additive scalar. Two legacy wire encodings exist:
// a bare number and a wrapper object {"value": n}. Both decode to the same
// effective value; Wrapped records which form the record arrived in so a
// round trip re-emits the original encoding.
type Bias struct {
	Value   float64
	Wrapped bool
}

type biasWrapper struct {
	Value float64 `json:"value"`
}

func (b Bias) MarshalJSON() ([]byte, error) {
	if b.Wrapped {
		return json.Marshal(biasWrapper{Value: b.Value})
	}
	return json.Marshal(b.Value)
}

func (b *Bias) UnmarshalJSON(data []byte) error {
	var scalar float64
	if err := json.Unmarshal(data, &scalar); err == nil {
		b.Value = scalar
		b.Wrapped = false
		return nil
	}
	var wrapped biasWrapper
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return fmt.Errorf("bias must be a number or {\"value\": number}: %w", err)
	}
	b.Value = wrapped.Value
	b.Wrapped = true
	return nil
}

// GraphRecord is the persisted form of a graph store.
type GraphRecord struct {
	VersionedRecord
	ID          string          `json:"id"`
	Nodes       []Node          `json:"nodes"`
	Connections []Connection    `json:"connections"`
	Biases      map[string]Bias `json:"biases"`
}

// TrainingBatch is one sample from the training pipeline. Importance is
// provenance only; it does not weight the loss.
type TrainingBatch struct {
	Inputs     []float64 `json:"inputs"`
	Targets    []float64 `json:"targets"`
	Context    string    `json:"context"`
	Importance float64   `json:"importance"`
}

type TrainingResult struct {
	VersionedRecord
	Epoch          uint64  `json:"epoch"`
	Loss           float64 `json:"loss"`
	Accuracy       float64 `json:"accuracy"`
	NodesUsed      uint64  `json:"nodes_used"`
	WeightsUpdated uint64  `json:"weights_updated"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
}

// EvolutionLogEntry records one committed structural mutation. Rolled-back
// attempts never produce an entry.
type EvolutionLogEntry struct {
	VersionedRecord
	SampleIndex       uint64  `json:"sample_index"`
	Intent            string  `json:"intent"`
	Loss              float64 `json:"loss"`
	LossTrend         float64 `json:"loss_trend"`
	NodesBefore       int     `json:"nodes_before"`
	NodesAfter        int     `json:"nodes_after"`
	ConnectionsBefore int     `json:"connections_before"`
	ConnectionsAfter  int     `json:"connections_after"`
}
