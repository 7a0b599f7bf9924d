package network

import (
	"testing"

	G "gorgonia.org/gorgonia"
)

// TestNewMLPDoesNotMutateArguments ensures that adding the output
// layer never writes through the caller's layer definition slices,
// which may have spare capacity and be reused to build other networks.
func TestNewMLPDoesNotMutateArguments(t *testing.T) {
	sizesBacking := make([]int, 2)
	sizes := sizesBacking[:1]
	sizes[0] = 3

	biasBacking := make([]bool, 2)
	biases := biasBacking[:1]
	biases[0] = true

	actBacking := make([]*Activation, 2)
	activations := actBacking[:1]
	activations[0] = ReLU()

	_, err := NewMLP(2, 1, 1, G.NewGraph(), sizes, biases, G.Zeroes(),
		activations)
	if err != nil {
		t.Fatalf("could not create network: %v", err)
	}

	if len(sizes) != 1 || sizes[0] != 3 {
		t.Errorf("hidden sizes were modified \n\thave(%v)", sizes)
	}
	if sizesBacking[1] != 0 {
		t.Errorf("hidden sizes backing array was written through "+
			"\n\thave(%v)", sizesBacking)
	}
	if biasBacking[1] {
		t.Error("bias backing array was written through")
	}
	if actBacking[1] != nil {
		t.Error("activation backing array was written through")
	}
}

// TestNewMLPValidatesLayers ensures mismatched layer definitions are
// rejected.
func TestNewMLPValidatesLayers(t *testing.T) {
	_, err := NewMLP(2, 1, 1, G.NewGraph(), []int{3, 3}, []bool{true},
		G.Zeroes(), []*Activation{ReLU()})
	if err == nil {
		t.Error("mismatched layer definitions should be rejected")
	}
}
