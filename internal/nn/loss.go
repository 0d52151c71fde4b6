package nn

import (
	"errors"
	"fmt"
	"math"
)

var ErrUnknownLoss = errors.New("unknown loss")

// LossKind names a loss function. Closed set, same rule as activations:
// extend the table, never look up arbitrary names at call time.
type LossKind string

const (
	LossMSE LossKind = "mse"
	LossMAE LossKind = "mae"
)

type LossFunc func(outputs, targets []float64) float64

var losses = map[LossKind]LossFunc{
	LossMSE: meanSquaredError,
	LossMAE: meanAbsoluteError,
}

func NewLoss(kind LossKind) (LossFunc, error) {
	fn, ok := losses[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLoss, kind)
	}
	return fn, nil
}

// meanSquaredError averages squared error over the output vector. Pairs
// beyond the shorter of the two vectors are ignored; the divisor is always
// the output length, so the result is non-negative and 0 for empty outputs.
func meanSquaredError(outputs, targets []float64) float64 {
	if len(outputs) == 0 {
		return 0
	}
	sum := 0.0
	for i, out := range outputs {
		if i >= len(targets) {
			break
		}
		diff := out - targets[i]
		sum += diff * diff
	}
	return sum / float64(len(outputs))
}

func meanAbsoluteError(outputs, targets []float64) float64 {
	if len(outputs) == 0 {
		return 0
	}
	sum := 0.0
	for i, out := range outputs {
		if i >= len(targets) {
			break
		}
		sum += math.Abs(out - targets[i])
	}
	return sum / float64(len(outputs))
}

// ThresholdAccuracy scores each output/target pair as correct when both
// fall on the same side of 0.5. Classification-flavored; regression callers
// should ignore it.
func ThresholdAccuracy(outputs, targets []float64) float64 {
	if len(outputs) == 0 {
		return 0
	}
	correct := 0
	for i, out := range outputs {
		if i >= len(targets) {
			break
		}
		if (out > 0.5) == (targets[i] > 0.5) {
			correct++
		}
	}
	return float64(correct) / float64(len(outputs))
}
