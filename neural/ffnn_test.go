package neural

import (
	"encoding/json"
	"errors"
	"math/rand"
	"testing"
)

func TestNewNetwork(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	nn := NewNetwork(rng, []int{8})

	if nn == nil {
		t.Fatal("NewNetwork returned nil")
	}

	sizes := nn.Sizes()
	want := []int{NumInputs, 8, NumOutputs}
	if len(sizes) != len(want) {
		t.Fatalf("Sizes() = %v, want %v", sizes, want)
	}
	for i := range want {
		if sizes[i] != want[i] {
			t.Errorf("Sizes()[%d] = %d, want %d", i, sizes[i], want[i])
		}
	}

	if got, want := nn.NumParams(), 8*NumInputs+8+NumOutputs*8+NumOutputs; got != want {
		t.Errorf("NumParams() = %d, want %d", got, want)
	}
}

func TestNewNetworkNoHidden(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	nn := NewNetwork(rng, nil)

	sizes := nn.Sizes()
	if len(sizes) != 2 || sizes[0] != NumInputs || sizes[1] != NumOutputs {
		t.Errorf("Sizes() = %v, want [%d %d]", sizes, NumInputs, NumOutputs)
	}
}

func TestForward(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	nn := NewNetwork(rng, []int{8, 4})

	inputs := make([]float64, NumInputs)
	for i := range inputs {
		inputs[i] = 0.5
	}

	out := nn.Forward(inputs)
	if out <= 0 || out >= 1 {
		t.Errorf("output out of range (0,1): %f", out)
	}
}

func TestForwardDeterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	nn := NewNetwork(rng, []int{8})

	inputs := make([]float64, NumInputs)
	for i := range inputs {
		inputs[i] = float64(i) / float64(NumInputs)
	}

	if nn.Forward(inputs) != nn.Forward(inputs) {
		t.Error("Forward is not deterministic")
	}

	// Same seed, same network
	other := NewNetwork(rand.New(rand.NewSource(42)), []int{8})
	if !nn.Equal(other) {
		t.Error("networks from the same seed differ")
	}
}

func TestDecideThreshold(t *testing.T) {
	nn := NewNetwork(rand.New(rand.NewSource(1)), nil)

	// Zero the weights so only the output bias matters.
	for _, v := range nn.views() {
		for j := range v.data {
			v.data[j] = 0
		}
	}
	if nn.Decide(SensoryInputs{}) {
		t.Error("sigmoid(0) = 0.5 must not flap")
	}

	views := nn.views()
	views[len(views)-1].data[0] = 2
	if !nn.Decide(SensoryInputs{}) {
		t.Error("positive output bias should flap")
	}

	views[len(views)-1].data[0] = -2
	if nn.Decide(SensoryInputs{}) {
		t.Error("negative output bias should not flap")
	}
}

func TestClone(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	nn := NewNetwork(rng, []int{8})

	clone := nn.Clone()
	if !nn.Equal(clone) {
		t.Fatal("Clone has different weights")
	}

	// Modifying clone shouldn't affect original
	clone.views()[0].data[0] = 999
	if nn.views()[0].data[0] == 999 {
		t.Error("Clone is not independent")
	}
	if nn.Equal(clone) {
		t.Error("Equal should detect the changed weight")
	}
}

func TestWeightsRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	nn := NewNetwork(rng, []int{6, 3})

	data, err := json.Marshal(nn.MarshalWeights())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var bw BrainWeights
	if err := json.Unmarshal(data, &bw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	restored, err := FromWeights(bw)
	if err != nil {
		t.Fatalf("FromWeights: %v", err)
	}
	if !nn.Equal(restored) {
		t.Error("restored network differs from original")
	}
}

func TestFromWeightsRejectsBadShapes(t *testing.T) {
	good := NewNetwork(rand.New(rand.NewSource(3)), []int{4}).MarshalWeights()

	tests := []struct {
		name   string
		mutate func(bw *BrainWeights)
	}{
		{"no layers", func(bw *BrainWeights) { bw.Layers = nil }},
		{"wrong input width", func(bw *BrainWeights) { bw.Layers[0].Cols = NumInputs + 1 }},
		{"short weights", func(bw *BrainWeights) { bw.Layers[0].W = bw.Layers[0].W[:3] }},
		{"short biases", func(bw *BrainWeights) { bw.Layers[1].B = nil }},
		{"broken chain", func(bw *BrainWeights) { bw.Layers = bw.Layers[:1] }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bw := copyWeights(good)
			tt.mutate(&bw)
			if _, err := FromWeights(bw); !errors.Is(err, ErrShapeMismatch) {
				t.Errorf("FromWeights error = %v, want ErrShapeMismatch", err)
			}
		})
	}
}

func copyWeights(bw BrainWeights) BrainWeights {
	out := BrainWeights{Layers: make([]LayerWeights, len(bw.Layers))}
	for i, l := range bw.Layers {
		out.Layers[i] = LayerWeights{
			Rows: l.Rows,
			Cols: l.Cols,
			W:    append([]float64(nil), l.W...),
			B:    append([]float64(nil), l.B...),
		}
	}
	return out
}

func BenchmarkForward(b *testing.B) {
	rng := rand.New(rand.NewSource(42))
	nn := NewNetwork(rng, []int{8})

	inputs := make([]float64, NumInputs)
	for i := range inputs {
		inputs[i] = 0.5
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		nn.Forward(inputs)
	}
}
