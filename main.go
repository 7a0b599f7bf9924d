package main

import (
	"fmt"
	"log"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/samuelfneumann/gomarwil/agent/nonlinear/continuous/marwil"
	"github.com/samuelfneumann/gomarwil/dataset"
	"github.com/samuelfneumann/gomarwil/experiment"
	"github.com/samuelfneumann/gomarwil/experiment/tracker"
	"github.com/samuelfneumann/gomarwil/experiment/trackers"
	"github.com/samuelfneumann/gomarwil/initwfn"
	"github.com/samuelfneumann/gomarwil/network"
	"github.com/samuelfneumann/gomarwil/solver"
)

func main() {
	var seed uint64 = 192382

	// Synthesise a dataset of recorded trajectories. The demonstrator
	// observes a point on the plane and acts to move it toward the
	// origin with some noise; rewards are the negated distance to the
	// origin after the move.
	rng := rand.New(rand.NewSource(seed))
	noise := distuv.Normal{Mu: 0, Sigma: 0.1, Src: rng}

	data := make([]dataset.Trajectory, 50)
	for i := range data {
		transitions := make([]dataset.Transition, 10)
		obs := []float64{rng.Float64()*2 - 1, rng.Float64()*2 - 1}
		for j := range transitions {
			action := []float64{
				-0.5*obs[0] + noise.Rand(),
				-0.5*obs[1] + noise.Rand(),
			}
			next := []float64{obs[0] + action[0], obs[1] + action[1]}

			transitions[j] = dataset.Transition{
				Obs:    obs,
				Action: action,
				Reward: -math.Hypot(next[0], next[1]),
			}
			obs = next
		}
		data[i] = dataset.Trajectory{Transitions: transitions,
			Terminal: true}
	}

	init, err := initwfn.NewGlorotU(1.0)
	if err != nil {
		log.Fatalf("could not create weight initializer: %v", err)
	}

	adam, err := solver.NewDefaultAdam(0.001, 32)
	if err != nil {
		log.Fatalf("could not create solver: %v", err)
	}

	// Create the learning algorithm
	config := marwil.GaussianTreeMLPConfig{
		ObsDims:    2,
		ActionDims: 2,

		RootLayers:      []int{64},
		RootBiases:      []bool{true},
		RootActivations: []*network.Activation{network.ReLU()},

		LeafLayers: [][]int{{32}, {32}},
		LeafBiases: [][]bool{{true}, {true}},
		LeafActivations: [][]*network.Activation{
			{network.ReLU()},
			{network.ReLU()},
		},

		ValueFnLayers:      []int{64},
		ValueFnBiases:      []bool{true},
		ValueFnActivations: []*network.Activation{network.ReLU()},

		InitWFn: init,
		Solver:  adam,

		BatchSize: 32,
		Gamma:     0.99,

		Beta:                    1.0,
		MovingAverageStart:      1.0,
		MovingAverageUpdateRate: 1e-4,
		VFCoeff:                 1.0,
		BCLogStdCoeff:           0.2,
	}

	agent, err := config.CreateAgent(seed)
	if err != nil {
		log.Fatalf("could not create agent: %v", err)
	}

	// Experiment
	loss := trackers.NewLoss("total_loss", "./data.bin")
	e, err := experiment.NewOffline(agent, data, 2_000,
		[]tracker.Tracker{loss})
	if err != nil {
		log.Fatalf("could not create experiment: %v", err)
	}
	if err := e.Run(); err != nil {
		log.Fatalf("could not run experiment: %v", err)
	}
	e.Save()

	saved := trackers.LoadData("./data.bin")
	fmt.Println(saved[len(saved)-10:])
}
