package nn

import (
	"errors"
	"math"
	"testing"
)

func TestNewLossUnknownKind(t *testing.T) {
	if _, err := NewLoss(LossKind("huber")); !errors.Is(err, ErrUnknownLoss) {
		t.Fatalf("expected ErrUnknownLoss, got %v", err)
	}
}

func TestMeanSquaredError(t *testing.T) {
	mse, err := NewLoss(LossMSE)
	if err != nil {
		t.Fatalf("new loss: %v", err)
	}

	tests := []struct {
		name    string
		outputs []float64
		targets []float64
		want    float64
	}{
		{name: "exact", outputs: []float64{1, 0}, targets: []float64{1, 0}, want: 0},
		{name: "simple", outputs: []float64{0.5}, targets: []float64{1}, want: 0.25},
		{name: "two-terms", outputs: []float64{0, 1}, targets: []float64{1, 0}, want: 1},
		{name: "short-targets", outputs: []float64{0.5, 0.5}, targets: []float64{1}, want: 0.125},
		{name: "empty", outputs: nil, targets: []float64{1}, want: 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := mse(tc.outputs, tc.targets)
			if math.Abs(got-tc.want) > 1e-9 {
				t.Fatalf("got=%f want=%f", got, tc.want)
			}
			if got < 0 {
				t.Fatalf("mse must be non-negative: %f", got)
			}
		})
	}
}

func TestMeanAbsoluteError(t *testing.T) {
	mae, err := NewLoss(LossMAE)
	if err != nil {
		t.Fatalf("new loss: %v", err)
	}
	got := mae([]float64{0.5, 1.5}, []float64{1, 1})
	if math.Abs(got-0.5) > 1e-9 {
		t.Fatalf("got=%f want=0.5", got)
	}
}

func TestThresholdAccuracy(t *testing.T) {
	tests := []struct {
		name    string
		outputs []float64
		targets []float64
		want    float64
	}{
		{name: "all-correct", outputs: []float64{0.9, 0.1}, targets: []float64{1, 0}, want: 1},
		{name: "half", outputs: []float64{0.9, 0.9}, targets: []float64{1, 0}, want: 0.5},
		{name: "boundary-is-low", outputs: []float64{0.5}, targets: []float64{0}, want: 1},
		{name: "empty", outputs: nil, targets: nil, want: 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ThresholdAccuracy(tc.outputs, tc.targets)
			if math.Abs(got-tc.want) > 1e-9 {
				t.Fatalf("got=%f want=%f", got, tc.want)
			}
		})
	}
}
