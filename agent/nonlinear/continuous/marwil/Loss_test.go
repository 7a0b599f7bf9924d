package marwil

import (
	"math"
	"testing"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

const tolerance float64 = 1e-8

// inputVec adds a vector input node of the given length to g
func inputVec(t *testing.T, g *G.ExprGraph, name string, n int) *G.Node {
	t.Helper()
	return G.NewVector(
		g,
		tensor.Float64,
		G.WithName(name),
		G.WithShape(n),
		G.WithInit(G.Zeroes()),
	)
}

// let sets a vector input node to the argument values
func let(t *testing.T, node *G.Node, values []float64) {
	t.Helper()
	backing := make([]float64, len(values))
	copy(backing, values)
	err := G.Let(node, tensor.NewDense(tensor.Float64,
		[]int{len(values)}, tensor.WithBacking(backing)))
	if err != nil {
		t.Fatalf("could not set %v: %v", node.Name(), err)
	}
}

// TestLossBehaviouralCloning ensures that with an advantage scale of
// 0, the loss is the plain negative mean log likelihood, the value
// loss is absent, and no moving average state exists.
func TestLossBehaviouralCloning(t *testing.T) {
	g := G.NewGraph()
	logProb := inputVec(t, g, "logProb", 4)

	loss, err := NewLoss(logProb, nil, nil, 4, 0.0, 0.0, 0.0, 1.0, 0.0)
	if err != nil {
		t.Fatalf("could not construct loss: %v", err)
	}

	if _, ok := loss.weighting.(uniformWeighting); !ok {
		t.Errorf("cloning mode should use the uniform weighting "+
			"\n\thave(%T)", loss.weighting)
	}

	err = loss.Feed([]float64{0, 0, 0, 0}, nil)
	if err != nil {
		t.Fatalf("could not feed loss: %v", err)
	}
	let(t, logProb, []float64{-1, -2, -0.5, -3})

	vm := G.NewTapeMachine(g)
	defer vm.Close()
	if err := vm.RunAll(); err != nil {
		t.Fatalf("could not run loss graph: %v", err)
	}

	stats := loss.Stats()
	if len(stats) != 2 {
		t.Errorf("cloning mode should report exactly 2 stats "+
			"\n\thave(%v)", stats)
	}
	if math.Abs(stats["policy_loss"]-1.625) > tolerance {
		t.Errorf("incorrect policy loss \n\twant(1.625) \n\thave(%v)",
			stats["policy_loss"])
	}
	if stats["total_loss"] != stats["policy_loss"] {
		t.Errorf("cloning mode total loss should equal the policy loss "+
			"\n\twant(%v) \n\thave(%v)", stats["policy_loss"],
			stats["total_loss"])
	}
}

// TestLossAdvantageWeighted verifies the full advantage-weighted
// computation on a hand-computed batch: the moving average update,
// the value loss, the exponentiated weights, and the combined loss.
func TestLossAdvantageWeighted(t *testing.T) {
	g := G.NewGraph()
	logProb := inputVec(t, g, "logProb", 2)
	valuePred := inputVec(t, g, "valuePred", 2)

	loss, err := NewLoss(logProb, nil, valuePred, 2, 1.0, 1.0, 0.1, 1.0,
		0.0)
	if err != nil {
		t.Fatalf("could not construct loss: %v", err)
	}

	// Cumulative rewards [2, 4] against value estimates [1, 1] give
	// residual advantages [1, 3], a mean squared advantage of 5, and
	// so a moving average of 1.0 + 0.1*(5 - 1.0) = 1.4
	err = loss.Feed([]float64{2, 4}, []float64{1, 1})
	if err != nil {
		t.Fatalf("could not feed loss: %v", err)
	}
	let(t, logProb, []float64{-1, -2})
	let(t, valuePred, []float64{1, 1})

	vm := G.NewTapeMachine(g)
	defer vm.Close()
	if err := vm.RunAll(); err != nil {
		t.Fatalf("could not run loss graph: %v", err)
	}

	stats := loss.Stats()
	if len(stats) != 5 {
		t.Errorf("advantage-weighted mode should report exactly 5 stats "+
			"\n\thave(%v)", stats)
	}
	for _, key := range []string{"policy_loss", "total_loss", "vf_loss",
		"vf_explained_var", "moving_average_sqd_adv_norm"} {
		if _, ok := stats[key]; !ok {
			t.Errorf("stats missing key %v", key)
		}
	}

	if math.Abs(stats["moving_average_sqd_adv_norm"]-1.4) > tolerance {
		t.Errorf("incorrect moving average \n\twant(1.4) \n\thave(%v)",
			stats["moving_average_sqd_adv_norm"])
	}
	if math.Abs(stats["vf_loss"]-2.5) > tolerance {
		t.Errorf("incorrect value loss \n\twant(2.5) \n\thave(%v)",
			stats["vf_loss"])
	}

	scale := math.Sqrt(1e-8 + 1.4)
	w0 := math.Exp(1.0 / scale)
	w1 := math.Exp(3.0 / scale)
	expectedPolicy := -(w0*(-1.0) + w1*(-2.0)) / 2.0
	if math.Abs(stats["policy_loss"]-expectedPolicy) > tolerance {
		t.Errorf("incorrect policy loss \n\twant(%v) \n\thave(%v)",
			expectedPolicy, stats["policy_loss"])
	}

	expectedTotal := expectedPolicy + 2.5
	if math.Abs(stats["total_loss"]-expectedTotal) > tolerance {
		t.Errorf("incorrect total loss \n\twant(%v) \n\thave(%v)",
			expectedTotal, stats["total_loss"])
	}
}

// TestLossLogStdRegularizer checks the entropy-encouraging log
// standard deviation term on the policy loss.
func TestLossLogStdRegularizer(t *testing.T) {
	g := G.NewGraph()
	logProb := inputVec(t, g, "logProb", 2)
	logStd := G.NewMatrix(
		g,
		tensor.Float64,
		G.WithName("logStd"),
		G.WithShape(2, 2),
		G.WithInit(G.Zeroes()),
	)

	loss, err := NewLoss(logProb, logStd, nil, 2, 0.0, 0.0, 0.0, 1.0, 0.5)
	if err != nil {
		t.Fatalf("could not construct loss: %v", err)
	}

	if err := loss.Feed([]float64{0, 0}, nil); err != nil {
		t.Fatalf("could not feed loss: %v", err)
	}
	let(t, logProb, []float64{-1, -2})
	err = G.Let(logStd, tensor.NewDense(tensor.Float64, []int{2, 2},
		tensor.WithBacking([]float64{-1, -3, -2, -2})))
	if err != nil {
		t.Fatalf("could not set log std: %v", err)
	}

	vm := G.NewTapeMachine(g)
	defer vm.Close()
	if err := vm.RunAll(); err != nil {
		t.Fatalf("could not run loss graph: %v", err)
	}

	// Per-transition mean log stds are [-2, -2], so the weighted
	// scores are [-1 + 0.5*(-2), -2 + 0.5*(-2)] = [-2, -3] and the
	// policy loss is 2.5
	stats := loss.Stats()
	if math.Abs(stats["policy_loss"]-2.5) > tolerance {
		t.Errorf("incorrect policy loss \n\twant(2.5) \n\thave(%v)",
			stats["policy_loss"])
	}
}

// TestExponentialWeightingUpdateBeforeUse ensures that the moving
// average is updated with the current batch before it is used to
// normalize that same batch's weights.
func TestExponentialWeightingUpdateBeforeUse(t *testing.T) {
	weighting := &exponentialWeighting{
		beta:                1.0,
		updateRate:          0.1,
		movingAvgSqdAdvNorm: 1.0,
	}

	weights := weighting.weights([]float64{1, 3})

	if math.Abs(weighting.movingAvgSqdAdvNorm-1.4) > tolerance {
		t.Errorf("incorrect moving average \n\twant(1.4) \n\thave(%v)",
			weighting.movingAvgSqdAdvNorm)
	}

	// Weights must be normalized by the updated average of 1.4 and
	// not by the starting value of 1.0
	scale := math.Sqrt(1e-8 + 1.4)
	expected := []float64{math.Exp(1.0 / scale), math.Exp(3.0 / scale)}
	for i := range expected {
		if math.Abs(weights[i]-expected[i]) > tolerance {
			t.Errorf("incorrect weight at index %v \n\twant(%v) "+
				"\n\thave(%v)", i, expected[i], weights[i])
		}
	}

	// A second identical batch moves the average further toward 5
	weighting.weights([]float64{1, 3})
	if math.Abs(weighting.movingAvgSqdAdvNorm-1.76) > tolerance {
		t.Errorf("incorrect moving average after second batch "+
			"\n\twant(1.76) \n\thave(%v)", weighting.movingAvgSqdAdvNorm)
	}
}

// TestExponentialWeightingMonotonic ensures that for a fixed moving
// average, transitions with higher advantages always receive strictly
// higher weights.
func TestExponentialWeightingMonotonic(t *testing.T) {
	weighting := &exponentialWeighting{
		beta:                0.5,
		updateRate:          0.05,
		movingAvgSqdAdvNorm: 2.0,
	}

	weights := weighting.weights([]float64{-2, -1, 0, 1, 2})
	for i := 1; i < len(weights); i++ {
		if weights[i] <= weights[i-1] {
			t.Errorf("weights should be strictly increasing in the "+
				"advantage \n\thave(%v)", weights)
		}
	}
}

func TestExplainedVariance(t *testing.T) {
	targets := []float64{1, 2, 3, 4}

	if ev := explainedVariance(targets, targets); ev != 1.0 {
		t.Errorf("exact predictions should explain all variance "+
			"\n\twant(1.0) \n\thave(%v)", ev)
	}

	mean := []float64{2.5, 2.5, 2.5, 2.5}
	if ev := explainedVariance(targets, mean); math.Abs(ev) > tolerance {
		t.Errorf("mean predictions should explain no variance "+
			"\n\twant(0.0) \n\thave(%v)", ev)
	}

	// Predictions far worse than the target mean are clamped at -1
	bad := []float64{100, -100, 100, -100}
	if ev := explainedVariance(targets, bad); ev != -1.0 {
		t.Errorf("poor predictions should be clamped \n\twant(-1.0) "+
			"\n\thave(%v)", ev)
	}
}

func TestLossFeedValidatesBatch(t *testing.T) {
	g := G.NewGraph()
	logProb := inputVec(t, g, "logProb", 2)

	loss, err := NewLoss(logProb, nil, nil, 2, 0.0, 0.0, 0.0, 1.0, 0.0)
	if err != nil {
		t.Fatalf("could not construct loss: %v", err)
	}

	if err := loss.Feed([]float64{1, 2, 3}, nil); err == nil {
		t.Error("feeding a wrongly sized batch should fail")
	}
}
