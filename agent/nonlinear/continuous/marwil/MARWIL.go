package marwil

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"

	"github.com/samuelfneumann/gomarwil/agent"
	"github.com/samuelfneumann/gomarwil/buffer/returns"
	"github.com/samuelfneumann/gomarwil/dataset"
	"github.com/samuelfneumann/gomarwil/network"
	"github.com/samuelfneumann/gomarwil/utils/floatutils"
)

// MARWIL implements the Monotonic Advantage Re-Weighted Imitation
// Learning algorithm. This implementation is adapted from:
//
// https://arxiv.org/abs/1809.02925
//
// The agent learns purely from recorded trajectories given to Observe.
// Each call to Step samples a minibatch of recorded transitions and
// performs one gradient step on the combined policy and state value
// function loss, weighting the log likelihood of each recorded action
// by the exponentiated advantage of taking it. The value estimates
// used for the weighting come from a separate prediction value
// function which is kept synced with the trained one, so that the
// weighting never backpropagates into the networks.
//
// With an advantage scale β of 0, the agent performs pure behavioural
// cloning: no state value functions are created and all recorded
// actions are weighted equally.
type MARWIL struct {
	// Policy
	behaviour   agent.NNPolicy   // Has its own VM
	trainPolicy agent.LogPdfOfer // Policy struct that is learned

	// State value critic, nil in behavioural cloning mode. The
	// trained value function shares a graph and VM with the train
	// policy.
	valueFn      network.NeuralNet
	valueFnVM    G.VM
	trainValueFn network.NeuralNet

	loss   *Loss
	vm     G.VM
	solver G.Solver
	model  []G.ValueGrad

	buffer    *returns.Buffer
	batchSize int
	rng       *rand.Rand
	updates   int
}

// New creates and returns a new MARWIL agent.
func New(c agent.Config, seed uint64) (*MARWIL, error) {
	if !c.ValidAgent(&MARWIL{}) {
		return nil, fmt.Errorf("new: invalid configuration type: %T", c)
	}

	config, ok := c.(config)
	if !ok {
		return nil, fmt.Errorf("new: invalid configuration type: %T", c)
	}

	err := config.Validate()
	if err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}

	buffer, err := returns.New(config.obsDims(), config.actionDims(),
		config.gamma())
	if err != nil {
		return nil, fmt.Errorf("new: could not create buffer: %v", err)
	}

	trainPolicy := config.trainPolicy()
	trainValueFn := config.trainValueFn()

	var valuePred *G.Node
	if trainValueFn != nil {
		valuePred = trainValueFn.Prediction()[0]
	}

	loss, err := NewLoss(
		trainPolicy.LogPdfNode(),
		trainPolicy.LogStdNode(),
		valuePred,
		config.batchSize(),
		config.beta(),
		config.movingAverageStart(),
		config.movingAverageUpdateRate(),
		config.vfCoeff(),
		config.bcLogstdCoeff(),
	)
	if err != nil {
		return nil, fmt.Errorf("new: could not create loss: %v", err)
	}

	// One gradient and one solver over the combined learnables of the
	// policy and the trained value function
	learnables := trainPolicy.Network().Learnables()
	model := trainPolicy.Network().Model()
	if trainValueFn != nil {
		learnables = append(learnables, trainValueFn.Learnables()...)
		model = append(model, trainValueFn.Model()...)
	}

	if _, err := G.Grad(loss.Node(), learnables...); err != nil {
		return nil, fmt.Errorf("new: could not compute gradient: %v", err)
	}
	vm := G.NewTapeMachine(trainPolicy.Network().Graph(),
		G.BindDualValues(learnables...))

	m := &MARWIL{
		behaviour:   config.behaviourPolicy(),
		trainPolicy: trainPolicy,

		trainValueFn: trainValueFn,

		loss:   loss,
		vm:     vm,
		solver: config.solver(),
		model:  model,

		buffer:    buffer,
		batchSize: config.batchSize(),
		rng:       rand.New(rand.NewSource(seed)),
	}

	if valueFn := config.valueFn(); valueFn != nil {
		m.valueFn = valueFn
		m.valueFnVM = G.NewTapeMachine(valueFn.Graph())
	}

	return m, nil
}

// Observe records a full recorded trajectory for later updates. A
// trajectory that was truncated rather than ended in a terminal state
// is treated as having no rewards beyond the truncation point.
func (m *MARWIL) Observe(t dataset.Trajectory) error {
	if err := m.buffer.AddTrajectory(t, 0.0); err != nil {
		return fmt.Errorf("observe: %v", err)
	}
	return nil
}

// Step samples a minibatch of recorded transitions and performs a
// single gradient step on the combined policy and value function
// loss. At least one trajectory must have been given to Observe
// before the first call to Step.
func (m *MARWIL) Step() error {
	obs, actions, rewards, err := m.buffer.Sample(m.rng, m.batchSize)
	if err != nil {
		return fmt.Errorf("step: could not sample minibatch: %v", err)
	}

	// Estimate the state values used for weighting with the
	// prediction value function
	var values []float64
	if m.valueFn != nil {
		if err := m.valueFn.SetInput(obs); err != nil {
			return fmt.Errorf("step: could not set value function "+
				"input: %v", err)
		}
		if err := m.valueFnVM.RunAll(); err != nil {
			return fmt.Errorf("step: could not predict state values: %v",
				err)
		}
		values = floatutils.Duplicate(
			m.valueFn.Output()[0].Data().([]float64))
		m.valueFnVM.Reset()

		if err := m.trainValueFn.SetInput(obs); err != nil {
			return fmt.Errorf("step: could not set train value function "+
				"input: %v", err)
		}
	}

	if _, err := m.trainPolicy.LogPdfOf(obs, actions); err != nil {
		return fmt.Errorf("step: could not set policy input: %v", err)
	}
	if err := m.loss.Feed(rewards, values); err != nil {
		return fmt.Errorf("step: could not feed loss: %v", err)
	}

	if err := m.vm.RunAll(); err != nil {
		return fmt.Errorf("step: could not run update: %v", err)
	}
	if err := m.solver.Step(m.model); err != nil {
		return fmt.Errorf("step: could not step solver: %v", err)
	}
	m.vm.Reset()

	// Sync the behaviour policy and the prediction value function
	// with the updated weights
	err = network.Set(m.behaviour.Network(), m.trainPolicy.Network())
	if err != nil {
		return fmt.Errorf("step: could not sync behaviour policy: %v", err)
	}
	if m.valueFn != nil {
		if err := network.Set(m.valueFn, m.trainValueFn); err != nil {
			return fmt.Errorf("step: could not sync value function: %v",
				err)
		}
	}
	m.updates++

	return nil
}

// Stats returns diagnostic metrics describing the last update
// performed by Step. Stats should only be called after at least one
// call to Step.
func (m *MARWIL) Stats() map[string]float64 {
	if m.updates == 0 {
		panic("stats: no updates performed yet")
	}
	return m.loss.Stats()
}

// SelectAction returns an action for the argument observation using
// the behaviour policy
func (m *MARWIL) SelectAction(obs mat.Vector) *mat.VecDense {
	return m.behaviour.SelectAction(obs)
}

// Eval sets the algorithm into evaluation mode
func (m *MARWIL) Eval() { m.behaviour.Eval() }

// Train sets the algorithm into training mode
func (m *MARWIL) Train() { m.behaviour.Train() }

// IsEval indicates whether the algorithm is in evaluation mode
func (m *MARWIL) IsEval() bool { return m.behaviour.IsEval() }
