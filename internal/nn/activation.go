package nn

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

var ErrUnknownActivation = errors.New("unknown activation")

// Kind names an activation nonlinearity. The set is closed: new kinds are
// added by extending the strategy table, never by runtime lookup of
// arbitrary names.
type Kind string

const (
	KindSigmoid Kind = "sigmoid"
	KindReLU    Kind = "relu"
	KindTanh    Kind = "tanh"
)

// exponent clamp bound; keeps math.Exp finite for extreme sums.
const expClamp = 500.0

type strategy struct {
	apply func(x float64) float64
	// derivative is expressed in terms of the cached post-activation
	// output y, which is what backpropagation has at hand.
	derivative func(y float64) float64
}

var strategies = map[Kind]strategy{
	KindSigmoid: {
		apply: func(x float64) float64 {
			return 1.0 / (1.0 + math.Exp(-clamp(x)))
		},
		derivative: func(y float64) float64 {
			return y * (1.0 - y)
		},
	},
	KindReLU: {
		apply: func(x float64) float64 {
			if x < 0 {
				return 0
			}
			return x
		},
		derivative: func(y float64) float64 {
			if y > 0 {
				return 1
			}
			return 0
		},
	},
	KindTanh: {
		apply: func(x float64) float64 {
			return math.Tanh(clamp(x))
		},
		derivative: func(y float64) float64 {
			return 1.0 - y*y
		},
	},
}

// Activation pairs an apply function with its derivative. Construction
// fails fast on unknown kinds so propagation never has to.
type Activation struct {
	kind Kind
	fns  strategy
}

func NewActivation(kind Kind) (Activation, error) {
	fns, ok := strategies[kind]
	if !ok {
		return Activation{}, fmt.Errorf("%w: %s", ErrUnknownActivation, kind)
	}
	return Activation{kind: kind, fns: fns}, nil
}

func ParseKind(name string) (Kind, error) {
	kind := Kind(name)
	if _, ok := strategies[kind]; !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownActivation, name)
	}
	return kind, nil
}

func Kinds() []Kind {
	out := make([]Kind, 0, len(strategies))
	for k := range strategies {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (a Activation) Kind() Kind {
	return a.kind
}

func (a Activation) Apply(x float64) float64 {
	return a.fns.apply(x)
}

func (a Activation) Derivative(y float64) float64 {
	return a.fns.derivative(y)
}

func clamp(x float64) float64 {
	if x > expClamp {
		return expClamp
	}
	if x < -expClamp {
		return -expClamp
	}
	return x
}
