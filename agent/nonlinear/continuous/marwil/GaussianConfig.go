package marwil

import (
	"fmt"

	G "gorgonia.org/gorgonia"

	"github.com/samuelfneumann/gomarwil/agent"
	"github.com/samuelfneumann/gomarwil/agent/nonlinear/continuous/policy"
	"github.com/samuelfneumann/gomarwil/initwfn"
	"github.com/samuelfneumann/gomarwil/network"
	"github.com/samuelfneumann/gomarwil/solver"
)

// GaussianTreeMLPConfig implements a configuration for a MARWIL agent
// with a Gaussian policy. The Gaussian policy is parameterized by a
// neural network which has a single input and a single root network.
// The root network then splits off into two leaf networks - one for
// the mean and one for the log standard deviation of the policy. See
// the policy.GaussianTreeMLP struct for more details. The action
// dimensions may be n-dimensional.
//
// A Beta of 0 selects pure behavioural cloning, in which case no state
// value function is created and the value function fields are ignored.
type GaussianTreeMLPConfig struct {
	policy        agent.LogPdfOfer
	behaviour     agent.NNPolicy
	vValueFn      network.NeuralNet
	vTrainValueFn network.NeuralNet

	// Dimensionality of the recorded observations and actions
	ObsDims    int
	ActionDims int

	// Policy neural net
	RootLayers      []int
	RootBiases      []bool
	RootActivations []*network.Activation

	LeafLayers      [][]int
	LeafBiases      [][]bool
	LeafActivations [][]*network.Activation

	// State value function neural net
	ValueFnLayers      []int
	ValueFnBiases      []bool
	ValueFnActivations []*network.Activation

	// Weight init function for all neural nets
	InitWFn *initwfn.InitWFn

	// Solver for both the policy and the state value function, which
	// are updated jointly
	Solver *solver.Solver

	BatchSize int
	Gamma     float64

	// Loss hyperparameters
	Beta                    float64
	MovingAverageStart      float64
	MovingAverageUpdateRate float64
	VFCoeff                 float64
	BCLogStdCoeff           float64
}

// Validate checks a Config to ensure it is a valid configuration
func (c GaussianTreeMLPConfig) Validate() error {
	if c.ObsDims <= 0 || c.ActionDims <= 0 {
		return fmt.Errorf("cannot have non-positive observation or " +
			"action dimensions")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("cannot have batch size < 1")
	}
	if c.Gamma < 0 || c.Gamma > 1 {
		return fmt.Errorf("discount must be in [0, 1]")
	}
	if c.Beta < 0 {
		return fmt.Errorf("cannot have negative advantage scale")
	}
	if c.Beta != 0 &&
		(c.MovingAverageUpdateRate <= 0 || c.MovingAverageUpdateRate > 1) {
		return fmt.Errorf("moving average update rate must be in (0, 1]")
	}
	if c.Beta != 0 && c.MovingAverageStart < 0 {
		return fmt.Errorf("cannot have negative initial moving average")
	}
	if c.InitWFn == nil {
		return fmt.Errorf("no weight initializer given")
	}
	if c.Solver == nil {
		return fmt.Errorf("no solver given")
	}

	return nil
}

// ValidAgent returns true if the argument agent can be constructed
// from the Config and false otherwise.
func (c GaussianTreeMLPConfig) ValidAgent(a agent.Agent) bool {
	_, ok := a.(*MARWIL)
	return ok
}

// Type returns the type of agent constructed by the Config
func (c GaussianTreeMLPConfig) Type() agent.Type {
	return agent.GaussianMARWILTreeMLP
}

// CreateAgent creates and returns the agent determined by the
// configuration
func (c GaussianTreeMLPConfig) CreateAgent(seed uint64) (agent.Agent,
	error) {
	behaviour, err := policy.NewGaussianTreeMLP(
		c.ObsDims,
		c.ActionDims,
		1,
		G.NewGraph(),
		c.RootLayers,
		c.RootBiases,
		c.RootActivations,
		c.LeafLayers,
		c.LeafBiases,
		c.LeafActivations,
		c.InitWFn.InitWFn(),
		seed,
	)
	if err != nil {
		return nil, fmt.Errorf("createAgent: could not create "+
			"behaviour policy: %v", err)
	}

	// The train policy and train value function share a graph so that
	// the combined loss is a single differentiable scalar
	g := G.NewGraph()
	p, err := policy.NewGaussianTreeMLP(
		c.ObsDims,
		c.ActionDims,
		c.BatchSize,
		g,
		c.RootLayers,
		c.RootBiases,
		c.RootActivations,
		c.LeafLayers,
		c.LeafBiases,
		c.LeafActivations,
		c.InitWFn.InitWFn(),
		seed,
	)
	if err != nil {
		return nil, fmt.Errorf("createAgent: could not create policy: %v",
			err)
	}

	if err := network.Set(behaviour.Network(), p.Network()); err != nil {
		return nil, fmt.Errorf("createAgent: could not sync behaviour "+
			"policy: %v", err)
	}
	c.policy = p
	c.behaviour = behaviour

	if c.Beta != 0 {
		trainValueFn, err := network.NewMLP(
			c.ObsDims,
			c.BatchSize,
			1,
			g,
			c.ValueFnLayers,
			c.ValueFnBiases,
			c.InitWFn.InitWFn(),
			c.ValueFnActivations,
		)
		if err != nil {
			return nil, fmt.Errorf("createAgent: could not create train "+
				"value function: %v", err)
		}

		valueFn, err := network.NewMLP(
			c.ObsDims,
			c.BatchSize,
			1,
			G.NewGraph(),
			c.ValueFnLayers,
			c.ValueFnBiases,
			c.InitWFn.InitWFn(),
			c.ValueFnActivations,
		)
		if err != nil {
			return nil, fmt.Errorf("createAgent: could not create "+
				"value function: %v", err)
		}

		if err := network.Set(valueFn, trainValueFn); err != nil {
			return nil, fmt.Errorf("createAgent: could not sync value "+
				"function: %v", err)
		}
		c.vValueFn = valueFn
		c.vTrainValueFn = trainValueFn
	}

	return New(c, seed)
}

// Below implemented to satisfy the marwil.config interface.
// See the Config.go file in the marwil package for more details.

// trainPolicy returns the constructed policy to train from the config
func (c GaussianTreeMLPConfig) trainPolicy() agent.LogPdfOfer {
	return c.policy
}

// behaviourPolicy returns the constructed behaviour policy from the
// config
func (c GaussianTreeMLPConfig) behaviourPolicy() agent.NNPolicy {
	return c.behaviour
}

// valueFn returns the constructed prediction value function from the
// config
func (c GaussianTreeMLPConfig) valueFn() network.NeuralNet {
	return c.vValueFn
}

// trainValueFn returns the constructed value function to train from
// the config
func (c GaussianTreeMLPConfig) trainValueFn() network.NeuralNet {
	return c.vTrainValueFn
}

// solver returns the constructed solver from the config
func (c GaussianTreeMLPConfig) solver() *solver.Solver {
	return c.Solver
}

// obsDims returns the observation dimensionality for the config
func (c GaussianTreeMLPConfig) obsDims() int {
	return c.ObsDims
}

// actionDims returns the action dimensionality for the config
func (c GaussianTreeMLPConfig) actionDims() int {
	return c.ActionDims
}

// batchSize returns the batch size for the config
func (c GaussianTreeMLPConfig) batchSize() int {
	return c.BatchSize
}

// gamma returns the discount ℽ from the config
func (c GaussianTreeMLPConfig) gamma() float64 {
	return c.Gamma
}

// beta returns the advantage scale β from the config
func (c GaussianTreeMLPConfig) beta() float64 {
	return c.Beta
}

// movingAverageStart returns the initial moving average of the
// squared advantage from the config
func (c GaussianTreeMLPConfig) movingAverageStart() float64 {
	return c.MovingAverageStart
}

// movingAverageUpdateRate returns the smoothing rate of the moving
// average of the squared advantage from the config
func (c GaussianTreeMLPConfig) movingAverageUpdateRate() float64 {
	return c.MovingAverageUpdateRate
}

// vfCoeff returns the weight on the value loss from the config
func (c GaussianTreeMLPConfig) vfCoeff() float64 {
	return c.VFCoeff
}

// bcLogstdCoeff returns the weight on the log standard deviation
// regularizer from the config
func (c GaussianTreeMLPConfig) bcLogstdCoeff() float64 {
	return c.BCLogStdCoeff
}
