package marwil

import (
	"github.com/samuelfneumann/gomarwil/agent"
	"github.com/samuelfneumann/gomarwil/network"
	"github.com/samuelfneumann/gomarwil/solver"
)

// config implements an interface for any MARWIL configuration. This is
// needed so that the MARWIL constructor can take in either a Gaussian
// or any other action distribution Config struct.
type config interface {
	agent.Config

	trainPolicy() agent.LogPdfOfer
	behaviourPolicy() agent.NNPolicy

	// valueFn returns the prediction state value function, which
	// supplies the value estimates used to weight recorded actions.
	// trainValueFn returns the state value function that is trained,
	// which must share a computational graph with the train policy.
	// Both are nil in behavioural cloning mode.
	valueFn() network.NeuralNet
	trainValueFn() network.NeuralNet

	solver() *solver.Solver

	obsDims() int
	actionDims() int
	batchSize() int

	// Discount used when computing the cumulative rewards of recorded
	// trajectories
	gamma() float64

	// Loss hyperparameters
	beta() float64
	movingAverageStart() float64
	movingAverageUpdateRate() float64
	vfCoeff() float64
	bcLogstdCoeff() float64
}
