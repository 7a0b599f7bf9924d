// Package agent defines the interfaces of offline learning agents
package agent

import (
	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"

	"github.com/samuelfneumann/gomarwil/dataset"
	"github.com/samuelfneumann/gomarwil/network"
)

// Agent determines the implementation details of an agent or algorithm
//
// An Agent is composed of a Learner, which learns weights from
// recorded data, and a Policy which chooses actions in each state.
// For a given agent, the Policy and Learner should have pointers to
// the same weights so that any changes the Learner makes to the
// weights are reflected in the actions the Policy chooses.
type Agent interface {
	Learner
	Policy
}

// Learner implements a learning algorithm that defines how weights
// are updated from recorded trajectories.
type Learner interface {
	// Observe records a full recorded trajectory for later updates
	Observe(t dataset.Trajectory) error

	// Step performs a single update to the learner
	Step() error

	// Stats returns diagnostic metrics describing the last update
	// performed by Step. Stats should only be called after at least
	// one call to Step.
	Stats() map[string]float64
}

// Policy represents a policy that an agent can have.
//
// Policies determine how agents select actions given an observation
// of the environment state.
type Policy interface {
	SelectAction(obs mat.Vector) *mat.VecDense
	Eval()        // Set policy to evaluation mode
	Train()       // Set policy to training mode
	IsEval() bool // Indicates if in evaluation mode
}

// NNPolicy represents a policy that uses neural network function
// approximation.
type NNPolicy interface {
	Policy
	Network() network.NeuralNet
}

// LogPdfOfer implements a policy type that can calculate the log
// of the probability density function of the policy for taking some
// (externally inputted) action in some (externally inputted) state.
// Because of this, the gradient will not be computed through the
// action selection process.
type LogPdfOfer interface {
	NNPolicy

	// LogPdfNode returns the node that calculates the log probability
	// of the externally inputted actions
	LogPdfNode() *G.Node

	// LogPdfVal returns the value of the node returned by
	// LogPdfNode()
	LogPdfVal() G.Value

	// LogStdNode returns the node holding the per-dimension log
	// standard deviation of the policy distribution, of shape
	// (batch, action dimensions). Policies without a meaningful
	// log standard deviation return nil.
	LogStdNode() *G.Node

	// LogPdfOf sets the policy's computational graph inputs to the
	// argument states and actions so that when a VM of the policy's
	// graph is run, the log probability of taking actions a in states
	// s is computed. Inputs should be constructed in row major order.
	LogPdfOf(s, a []float64) (*G.Node, error)
}
