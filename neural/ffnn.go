// Package neural provides the fixed-shape feedforward networks that fly the agents.
package neural

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// NumOutputs is the number of network outputs (flap).
const NumOutputs = 1

// FlapThreshold is the output level above which the agent flaps.
const FlapThreshold = 0.5

// ErrShapeMismatch is returned when two networks or a weight payload
// do not share the same layer layout.
var ErrShapeMismatch = errors.New("network shape mismatch")

// Layer is one dense layer: out = act(W*in + B).
type Layer struct {
	W *mat.Dense    // [out x in]
	B *mat.VecDense // [out]
}

// Network is a feedforward network with tanh hidden layers and a logistic output.
// Its shape never changes after construction.
type Network struct {
	layers []Layer
}

// Shape returns the layer sizes for the given hidden layers, inputs first.
func Shape(hidden []int) []int {
	sizes := make([]int, 0, len(hidden)+2)
	sizes = append(sizes, NumInputs)
	sizes = append(sizes, hidden...)
	return append(sizes, NumOutputs)
}

// NewNetwork creates a randomly initialized network.
// Weights use He-style scaling, biases start at zero.
func NewNetwork(rng *rand.Rand, hidden []int) *Network {
	sizes := Shape(hidden)
	nn := &Network{layers: make([]Layer, 0, len(sizes)-1)}
	for i := 1; i < len(sizes); i++ {
		in, out := sizes[i-1], sizes[i]
		scale := math.Sqrt(2.0 / float64(in))
		w := make([]float64, out*in)
		for j := range w {
			w[j] = rng.NormFloat64() * scale
		}
		nn.layers = append(nn.layers, Layer{
			W: mat.NewDense(out, in, w),
			B: mat.NewVecDense(out, nil),
		})
	}
	return nn
}

// Forward computes the network output in (0, 1).
// Panics if len(inputs) != NumInputs.
func (nn *Network) Forward(inputs []float64) float64 {
	x := mat.NewVecDense(len(inputs), append([]float64(nil), inputs...))
	last := len(nn.layers) - 1
	for i, l := range nn.layers {
		var out mat.VecDense
		out.MulVec(l.W, x)
		out.AddVec(&out, l.B)

		raw := out.RawVector().Data
		for j := range raw {
			if i == last {
				raw[j] = sigmoid(raw[j])
			} else {
				raw[j] = math.Tanh(raw[j])
			}
		}
		x = &out
	}
	return x.AtVec(0)
}

// Decide runs one forward pass and reports whether the agent should flap.
func (nn *Network) Decide(s SensoryInputs) bool {
	return nn.Forward(s.ToInputs()) > FlapThreshold
}

// Sizes returns the layer sizes, inputs first.
func (nn *Network) Sizes() []int {
	sizes := make([]int, 0, len(nn.layers)+1)
	for i, l := range nn.layers {
		r, c := l.W.Dims()
		if i == 0 {
			sizes = append(sizes, c)
		}
		sizes = append(sizes, r)
	}
	return sizes
}

// NumParams returns the total number of weights and biases.
func (nn *Network) NumParams() int {
	total := 0
	for _, l := range nn.layers {
		r, c := l.W.Dims()
		total += r*c + r
	}
	return total
}

// Clone creates a deep copy of the network.
func (nn *Network) Clone() *Network {
	clone := &Network{layers: make([]Layer, len(nn.layers))}
	for i, l := range nn.layers {
		clone.layers[i] = Layer{
			W: mat.DenseCopyOf(l.W),
			B: mat.VecDenseCopyOf(l.B),
		}
	}
	return clone
}

// Equal reports whether both networks have identical shape and parameters.
func (nn *Network) Equal(other *Network) bool {
	if other == nil || len(nn.layers) != len(other.layers) {
		return false
	}
	for i := range nn.layers {
		if !sameDims(nn.layers[i].W, other.layers[i].W) {
			return false
		}
		if !mat.Equal(nn.layers[i].W, other.layers[i].W) || !mat.Equal(nn.layers[i].B, other.layers[i].B) {
			return false
		}
	}
	return true
}

// sameShape reports whether crossover between the two networks is possible.
func (nn *Network) sameShape(other *Network) bool {
	if len(nn.layers) != len(other.layers) {
		return false
	}
	for i := range nn.layers {
		if !sameDims(nn.layers[i].W, other.layers[i].W) {
			return false
		}
	}
	return true
}

func sameDims(a, b *mat.Dense) bool {
	ar, ac := a.Dims()
	br, bc := b.Dims()
	return ar == br && ac == bc
}

// paramView is a mutable window onto one row of weights or one bias vector.
type paramView struct {
	data []float64
	bias bool
}

// views returns the parameters in a fixed layer-major order.
// The slices alias the network's storage.
func (nn *Network) views() []paramView {
	var out []paramView
	for _, l := range nn.layers {
		raw := l.W.RawMatrix()
		for i := 0; i < raw.Rows; i++ {
			start := i * raw.Stride
			out = append(out, paramView{data: raw.Data[start : start+raw.Cols]})
		}
		b := l.B.RawVector()
		out = append(out, paramView{data: b.Data[:l.B.Len()], bias: true})
	}
	return out
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// LayerWeights holds one layer's flattened parameters.
type LayerWeights struct {
	Rows int       `json:"rows"`
	Cols int       `json:"cols"`
	W    []float64 `json:"w"` // Row-major [Rows * Cols]
	B    []float64 `json:"b"` // [Rows]
}

// BrainWeights holds flattened network weights for serialization.
type BrainWeights struct {
	Layers []LayerWeights `json:"layers"`
}

// MarshalWeights flattens the network weights for JSON serialization.
func (nn *Network) MarshalWeights() BrainWeights {
	bw := BrainWeights{Layers: make([]LayerWeights, len(nn.layers))}
	for i, l := range nn.layers {
		r, c := l.W.Dims()
		lw := LayerWeights{Rows: r, Cols: c, W: make([]float64, 0, r*c), B: make([]float64, r)}
		for row := 0; row < r; row++ {
			lw.W = append(lw.W, mat.Row(nil, row, l.W)...)
		}
		for row := 0; row < r; row++ {
			lw.B[row] = l.B.AtVec(row)
		}
		bw.Layers[i] = lw
	}
	return bw
}

// FromWeights restores a network from flattened weights.
// The layout must chain from NumInputs to NumOutputs.
func FromWeights(bw BrainWeights) (*Network, error) {
	if len(bw.Layers) == 0 {
		return nil, fmt.Errorf("%w: no layers", ErrShapeMismatch)
	}
	nn := &Network{layers: make([]Layer, len(bw.Layers))}
	prev := NumInputs
	for i, lw := range bw.Layers {
		if lw.Rows <= 0 || lw.Cols != prev {
			return nil, fmt.Errorf("%w: layer %d is %dx%d, want %d inputs", ErrShapeMismatch, i, lw.Rows, lw.Cols, prev)
		}
		if len(lw.W) != lw.Rows*lw.Cols || len(lw.B) != lw.Rows {
			return nil, fmt.Errorf("%w: layer %d has %d weights and %d biases for %dx%d",
				ErrShapeMismatch, i, len(lw.W), len(lw.B), lw.Rows, lw.Cols)
		}
		nn.layers[i] = Layer{
			W: mat.NewDense(lw.Rows, lw.Cols, append([]float64(nil), lw.W...)),
			B: mat.NewVecDense(lw.Rows, append([]float64(nil), lw.B...)),
		}
		prev = lw.Rows
	}
	if prev != NumOutputs {
		return nil, fmt.Errorf("%w: network ends with %d outputs, want %d", ErrShapeMismatch, prev, NumOutputs)
	}
	return nn, nil
}
