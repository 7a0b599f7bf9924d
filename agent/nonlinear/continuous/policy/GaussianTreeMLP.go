// Package policy implements continuous-action policies parameterized
// by neural networks
package policy

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/samuelfneumann/gomarwil/agent"
	"github.com/samuelfneumann/gomarwil/network"
	"github.com/samuelfneumann/gomarwil/utils/floatutils"
)

// For stability, the standard deviation of the Gaussian distribution
// should be offset from 0.
const stdOffset float64 = 1e-3

// GaussianTreeMLP implements a Gaussian policy parameterized by a
// tree MLP. The MLP has a single root network. The root network
// breaks off into two leaf networks. One predicts the mean, and the
// other the log standard deviation. See the network.NewTreeMLP
// function for more details.
//
// Given a network prediction of the mean μ and standard deviation σ
// of the Gaussian policy, actions are selected by sampling from the
// standard normal ɛ ~ N(0, 1) and computing action := μ + σ * ɛ
// similar to the reparameterization trick.
//
// Given a number of continuous actions in a number of states, the
// GaussianTreeMLP can calculate the log probability of selecting
// each of these actions in each corresponding state, which is needed
// for constructing log-likelihood losses. It also exposes the raw
// log standard deviation node of the network, which log-likelihood
// losses may regularize to keep the policy stochastic.
type GaussianTreeMLP struct {
	vm  G.VM
	net network.NeuralNet

	actions    *G.Node
	logPdfNode *G.Node
	logPdfVal  G.Value
	logStdNode *G.Node

	normal          distmv.Rander
	actionDims      int
	batchForLogProb int
	eval            bool

	meanVal   G.Value
	stddevVal G.Value
}

// NewGaussianTreeMLP returns a new GaussianTreeMLP policy for
// selecting actions of dimensionality actionDims given observations
// of dimensionality features. The neural network parameterization of
// the Gaussian policy is defined by rootHiddenSizes, rootBiases,
// rootActivations, leafHiddenSizes, leafBiases, and leafActivations.
// See the network.NewTreeMLP function for details on what each of
// these parameters defines. The network is constructed on the graph
// g, which may be shared with other networks, e.g. a critic whose
// loss is combined with a policy loss on a single graph.
//
// The policy can be a batch policy when batchForLogProb > 1. In such
// a case, the log probability of actions can be computed for a batch
// of actions, but actions cannot be selected on each timestep with
// SelectAction(). Only when batchForLogProb = 1 can actions be
// selected, and only then does the policy own a VM of its graph.
//
// The init parameter determines the weight initialization scheme for
// the neural net and the seed parameter determines the seed of the
// policy's action sampler.
func NewGaussianTreeMLP(features, actionDims, batchForLogProb int,
	g *G.ExprGraph, rootHiddenSizes []int, rootBiases []bool,
	rootActivations []*network.Activation, leafHiddenSizes [][]int,
	leafBiases [][]bool, leafActivations [][]*network.Activation,
	init G.InitWFn, seed uint64) (agent.LogPdfOfer, error) {

	if features <= 0 || actionDims <= 0 {
		return nil, fmt.Errorf("newGaussianTreeMLP: dimensions must be "+
			"positive \n\thave features(%v) actions(%v)", features,
			actionDims)
	}
	if len(leafHiddenSizes) != 2 {
		return nil, fmt.Errorf("newGaussianTreeMLP: gaussian policy " +
			"requires 2 leaf networks only")
	}

	net, err := network.NewTreeMLP(
		features,
		batchForLogProb,
		actionDims,
		g,
		rootHiddenSizes,
		rootBiases,
		rootActivations,
		leafHiddenSizes,
		leafBiases,
		leafActivations,
		init,
	)
	if err != nil {
		return nil, fmt.Errorf("newGaussianTreeMLP: could not create "+
			"policy network: %v", err)
	}

	// Calculate the standard deviation and offset it for numerical
	// stability
	mean := net.Prediction()[0]
	offset := G.NewConstant(stdOffset)
	logStd := net.Prediction()[1]
	std := G.Must(G.Exp(logStd))
	std = G.Must(G.Add(offset, std))

	// Calculate log probability of input actions
	actions := G.NewMatrix(
		net.Graph(),
		tensor.Float64,
		G.WithName("InputActions"),
		G.WithShape(batchForLogProb, actionDims),
		G.WithInit(G.Zeroes()),
	)
	logPdfNode, err := logPdf(mean, std, actions)
	if err != nil {
		return nil, fmt.Errorf("newGaussianTreeMLP: could not compute "+
			"action log probability: %v", err)
	}

	// Create standard normal for action selection
	means := make([]float64, actionDims)
	stds := mat.NewDiagDense(actionDims, floatutils.Ones(actionDims))
	source := rand.NewSource(seed)
	normal, ok := distmv.NewNormal(means, stds, source)
	if !ok {
		return nil, fmt.Errorf("newGaussianTreeMLP: could not create " +
			"standard normal for action selection")
	}

	pol := &GaussianTreeMLP{
		net: net,

		actions:    actions,
		logPdfNode: logPdfNode,
		logStdNode: logStd,

		normal:          normal,
		actionDims:      actionDims,
		batchForLogProb: batchForLogProb,
	}

	// Record values of Gorgonia nodes
	G.Read(pol.logPdfNode, &pol.logPdfVal)
	G.Read(mean, &pol.meanVal)
	G.Read(std, &pol.stddevVal)

	// Policy can select actions at each timestep only if using a
	// batch size of 1.
	if net.BatchSize() == 1 {
		pol.vm = G.NewTapeMachine(net.Graph())
	}

	return pol, nil
}

// logPdf adds nodes to the computational graph of mean/std/actions
// for computing the log probability of actions under a diagonal
// Gaussian with the given mean and standard deviation. The returned
// node has one log probability per batch row.
func logPdf(mean, std, actions *G.Node) (*G.Node, error) {
	graph := mean.Graph()
	if graph != std.Graph() || graph != actions.Graph() {
		return nil, fmt.Errorf("logPdf: all nodes must share the same graph")
	}

	negativeHalf := G.NewConstant(-0.5)
	two := G.NewConstant(2.0)

	// Calculate -(1/2) * ((A - μ)/σ)^2 per action dimension
	exponent := G.Must(G.Sub(actions, mean))
	exponent = G.Must(G.HadamardDiv(exponent, std))
	exponent = G.Must(G.Pow(exponent, two))
	exponent = G.Must(G.HadamardProd(negativeHalf, exponent))

	// Normalization terms: log(σ) + log(√(2π)) per dimension
	term2 := G.Must(G.Log(std))
	term3 := G.NewConstant(math.Log(math.Pow(2*math.Pi, 0.5)))
	terms := G.Must(G.Add(term2, term3))

	// Per-dimension log densities sum over the action dimensions for
	// a diagonal Gaussian
	logProb := G.Must(G.Sub(exponent, terms))
	logProb = G.Must(G.Sum(logProb, 1))

	return logProb, nil
}

// LogPdfOf sets the state and action inputs of the policy's
// computational graph to the argument states and actions (s and a
// respectively) so that when a VM of the policy's graph is run, the
// log probability of actions a taken in states s will be computed and
// stored in the policy's associated log PDF node, which is returned.
//
// The reason this function does not return the log PDF values is
// that this would require running the policy's VM, which does not
// contain any loss function. The log PDF of actions is generally
// needed in loss functions, and a separate, external VM will be
// needed to calculate the loss of the policy using the log PDF and
// update the weights accordingly.
func (g *GaussianTreeMLP) LogPdfOf(s, a []float64) (*G.Node, error) {
	if err := g.Network().SetInput(s); err != nil {
		return nil, fmt.Errorf("logPdfOf: could not set states: %v", err)
	}

	actionsTensor := tensor.NewDense(tensor.Float64,
		[]int{g.batchForLogProb, g.actionDims},
		tensor.WithBacking(a),
	)
	if err := G.Let(g.actions, actionsTensor); err != nil {
		return nil, fmt.Errorf("logPdfOf: could not set actions: %v", err)
	}

	return g.LogPdfNode(), nil
}

// SelectAction selects and returns an action for the argument
// observation. In evaluation mode the mean action is returned;
// otherwise actions are sampled from the policy distribution.
func (g *GaussianTreeMLP) SelectAction(obs mat.Vector) *mat.VecDense {
	if size := g.Network().BatchSize(); size != 1 {
		panic(fmt.Sprintf("selectAction: action selection can only be done "+
			"with a policy with batch size 1 \n\twant(1) \n\thave(%v)", size))
	}

	o := obs.(*mat.VecDense).RawVector().Data
	if err := g.Network().SetInput(o); err != nil {
		panic(fmt.Sprintf("selectAction: cannot set input: %v", err))
	}

	if err := g.vm.RunAll(); err != nil {
		panic(fmt.Sprintf("selectAction: could not run policy VM: %v", err))
	}
	defer g.vm.Reset()

	mean := mat.NewVecDense(g.actionDims, g.meanVal.Data().([]float64))
	if g.eval {
		return mean
	}

	stddev := mat.NewVecDense(g.actionDims, g.stddevVal.Data().([]float64))
	eps := mat.NewVecDense(g.actionDims, g.normal.Rand(nil))

	stddev.MulElemVec(stddev, eps)
	mean.AddVec(mean, stddev)

	return mean
}

// Eval sets the policy into evaluation mode
func (g *GaussianTreeMLP) Eval() { g.eval = true }

// Train sets the policy into training mode
func (g *GaussianTreeMLP) Train() { g.eval = false }

// IsEval indicates whether the policy is in evaluation mode
func (g *GaussianTreeMLP) IsEval() bool { return g.eval }

// LogPdfNode returns the node that will hold the log probability of
// input actions when the computational graph is run.
func (g *GaussianTreeMLP) LogPdfNode() *G.Node {
	return g.logPdfNode
}

// LogPdfVal returns the value of the node returned by LogPdfNode()
func (g *GaussianTreeMLP) LogPdfVal() G.Value {
	return g.logPdfVal
}

// LogStdNode returns the node holding the raw log standard deviation
// head of the policy network, of shape (batch, action dimensions).
func (g *GaussianTreeMLP) LogStdNode() *G.Node {
	return g.logStdNode
}

// Network returns the network of the GaussianTreeMLP
func (g *GaussianTreeMLP) Network() network.NeuralNet {
	return g.net
}
