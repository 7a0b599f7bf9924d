package returns

import (
	"math"
	"testing"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/gomarwil/dataset"
)

const tolerance float64 = 1e-12

func trajectory(rewards []float64, terminal bool) dataset.Trajectory {
	transitions := make([]dataset.Transition, len(rewards))
	for i, r := range rewards {
		transitions[i] = dataset.Transition{
			Obs:    []float64{float64(i), 0.0},
			Action: []float64{1.0},
			Reward: r,
		}
	}
	return dataset.Trajectory{Transitions: transitions, Terminal: terminal}
}

func TestDiscountCumSum(t *testing.T) {
	x := mat.NewVecDense(3, []float64{1.0, 1.0, 1.0})
	sums := discountCumSum(x, 0.5)

	expected := []float64{1.75, 1.5, 1.0}
	for i := range expected {
		if math.Abs(sums[i]-expected[i]) > tolerance {
			t.Errorf("wrong cumulative sum at %v \n\twant(%v) \n\thave(%v)",
				i, expected[i], sums[i])
		}
	}
}

func TestAddTrajectoryTerminal(t *testing.T) {
	buffer, err := New(2, 1, 0.5)
	if err != nil {
		t.Fatal(err)
	}

	err = buffer.AddTrajectory(trajectory([]float64{1.0, 1.0, 1.0}, true), 0.0)
	if err != nil {
		t.Fatal(err)
	}

	if buffer.Len() != 3 {
		t.Fatalf("wrong buffer length \n\twant(3) \n\thave(%v)", buffer.Len())
	}

	expected := []float64{1.75, 1.5, 1.0}
	for i := range expected {
		if math.Abs(buffer.advBuffer[i]-expected[i]) > tolerance {
			t.Errorf("wrong reward-to-go at %v \n\twant(%v) \n\thave(%v)",
				i, expected[i], buffer.advBuffer[i])
		}
	}
}

func TestAddTrajectoryBootstraps(t *testing.T) {
	buffer, err := New(2, 1, 0.5)
	if err != nil {
		t.Fatal(err)
	}

	// Truncated trajectory: bootstrap off a value estimate of 4.0
	// for the state following the final transition.
	err = buffer.AddTrajectory(trajectory([]float64{1.0, 1.0}, false), 4.0)
	if err != nil {
		t.Fatal(err)
	}

	// Rewards-to-go with bootstrap: [1 + 0.5*(1 + 0.5*4), 1 + 0.5*4]
	expected := []float64{2.5, 3.0}
	for i := range expected {
		if math.Abs(buffer.advBuffer[i]-expected[i]) > tolerance {
			t.Errorf("wrong reward-to-go at %v \n\twant(%v) \n\thave(%v)",
				i, expected[i], buffer.advBuffer[i])
		}
	}
}

func TestAddTrajectoryIgnoresBootstrapWhenTerminal(t *testing.T) {
	buffer, err := New(2, 1, 0.5)
	if err != nil {
		t.Fatal(err)
	}

	err = buffer.AddTrajectory(trajectory([]float64{1.0}, true), 100.0)
	if err != nil {
		t.Fatal(err)
	}

	if math.Abs(buffer.advBuffer[0]-1.0) > tolerance {
		t.Errorf("terminal trajectory should not bootstrap "+
			"\n\twant(1.0) \n\thave(%v)", buffer.advBuffer[0])
	}
}

func TestAddTrajectoryValidatesDims(t *testing.T) {
	buffer, err := New(3, 1, 0.9)
	if err != nil {
		t.Fatal(err)
	}

	err = buffer.AddTrajectory(trajectory([]float64{1.0}, true), 0.0)
	if err == nil {
		t.Error("expected an error for mismatched observation dimensions")
	}
}

func TestSample(t *testing.T) {
	buffer, err := New(2, 1, 0.9)
	if err != nil {
		t.Fatal(err)
	}

	err = buffer.AddTrajectory(trajectory([]float64{1.0, 2.0, 3.0}, true), 0.0)
	if err != nil {
		t.Fatal(err)
	}

	rng := rand.New(rand.NewSource(13))
	obs, actions, advantages, err := buffer.Sample(rng, 5)
	if err != nil {
		t.Fatal(err)
	}

	if len(obs) != 5*2 || len(actions) != 5*1 || len(advantages) != 5 {
		t.Fatalf("wrong sample sizes \n\thave obs(%v) actions(%v) "+
			"advantages(%v)", len(obs), len(actions), len(advantages))
	}

	// Sampled rows must stay aligned: the observation's first feature
	// encodes the transition index, which determines the reward-to-go.
	rewsToGo := []float64{1.0 + 0.9*(2.0+0.9*3.0), 2.0 + 0.9*3.0, 3.0}
	for i := 0; i < 5; i++ {
		j := int(obs[i*2])
		if math.Abs(advantages[i]-rewsToGo[j]) > tolerance {
			t.Errorf("misaligned sample at row %v \n\twant(%v) \n\thave(%v)",
				i, rewsToGo[j], advantages[i])
		}
	}
}

func TestSampleEmptyBuffer(t *testing.T) {
	buffer, err := New(2, 1, 0.9)
	if err != nil {
		t.Fatal(err)
	}

	rng := rand.New(rand.NewSource(13))
	if _, _, _, err := buffer.Sample(rng, 1); err == nil {
		t.Error("expected an error when sampling an empty buffer")
	}
}
