package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// treeMLP implements a multi-layered perceptron with a root
// observation network and multiple leaf networks that use the output
// of the root network as their own inputs. A diagram of a tree MLP:
//
// 					  ╭─→ Leaf Network 1 	   ─→ Output
// Input ─→ Root Net ─┼─→ ...				   ─→  ...
//					  ╰─→ Leaf Network N	   ─→ Output
//
// Each leaf network predicts outputs values, so Prediction() returns
// one node of shape (batch, outputs) per leaf network.
type treeMLP struct {
	g            *G.ExprGraph
	rootNetwork  NeuralNet
	leafNetworks []NeuralNet
	input        *G.Node

	numInputs int
	batchSize int

	learnables G.Nodes
	model      []G.ValueGrad

	prediction []*G.Node
	predVal    []G.Value
}

// validateTreeMLP validates the arguments of NewTreeMLP() to ensure
// they are legal.
func validateTreeMLP(numOutputs int, rootHiddenSizes []int, rootBiases []bool,
	rootActivations []*Activation, leafHiddenSizes [][]int,
	leafBiases [][]bool, leafActivations [][]*Activation) error {
	if len(rootHiddenSizes) == 0 {
		return fmt.Errorf("root network must have at least one hidden layer")
	}

	if len(rootHiddenSizes) != len(rootActivations) {
		return fmt.Errorf("invalid number of root activations"+
			"\n\twant(%d)\n\thave(%d)", len(rootHiddenSizes),
			len(rootActivations))
	}

	if len(rootHiddenSizes) != len(rootBiases) {
		return fmt.Errorf("invalid number of root biases"+
			"\n\twant(%d)\n\thave(%d)", len(rootHiddenSizes), len(rootBiases))
	}

	if len(leafHiddenSizes) <= 0 {
		return fmt.Errorf("there must be at least one leaf network specified")
	}

	if numOutputs <= 0 {
		return fmt.Errorf("there must be more than 0 outputs per leaf network")
	}

	if len(leafHiddenSizes) != len(leafActivations) {
		return fmt.Errorf("invalid number of leaf network activations "+
			"\n\twant(%v) \n\thave(%v)", len(leafHiddenSizes),
			len(leafActivations))
	}

	if len(leafHiddenSizes) != len(leafBiases) {
		return fmt.Errorf("invalid number of leaf network biases "+
			"\n\twant(%v) \n\thave(%v)", len(leafHiddenSizes), len(leafBiases))
	}

	for i := 0; i < len(leafHiddenSizes); i++ {
		if len(leafHiddenSizes[i]) != len(leafActivations[i]) {
			return fmt.Errorf("invalid number of activations for leaf "+
				"network %v \n\twant(%v) \n\thave(%v)", i,
				len(leafHiddenSizes[i]), len(leafActivations[i]))
		}

		if len(leafHiddenSizes[i]) != len(leafBiases[i]) {
			return fmt.Errorf("invalid number of biases for leaf "+
				"network %v \n\twant(%v) \n\thave(%v)", i,
				len(leafHiddenSizes[i]), len(leafBiases[i]))
		}
	}

	return nil
}

// NewTreeMLP returns a new NeuralNet with a tree MLP architecture on
// the graph g.
//
// The root observation network has number of layers equal to
// len(rootHiddenSizes). For index i, rootHiddenSizes[i] determines
// the number of hidden units in that layer, rootBiases[i] determines
// if a bias unit is added to the hidden layer, and rootActivations[i]
// determines the activation function of that hidden layer.
//
// The number of leaf networks is defined by len(leafHiddenSizes).
// For indices i and j, leafHiddenSizes[i][j], leafBiases[i][j], and
// leafActivations[i][j] determine the number of hidden units of layer
// j in leaf network i, whether a bias is added to layer j of leaf
// network i, and the activation of layer j of leaf network i
// respectively. For all leaf networks, a final linear layer with a
// bias and no activation is added to ensure the output of each leaf
// network has size outputs.
//
// To create a network with only a single linear layer per leaf
// network, set leafHiddenSizes = [][]int{{}, {}, ..., {}} (similarly
// for leafBiases and leafActivations). The root network can be left
// with nonlinearities to ensure all leaf networks use the same state
// representation but make (possibly different) predictions.
func NewTreeMLP(features, batch, outputs int, g *G.ExprGraph,
	rootHiddenSizes []int, rootBiases []bool, rootActivations []*Activation,
	leafHiddenSizes [][]int, leafBiases [][]bool,
	leafActivations [][]*Activation, init G.InitWFn) (NeuralNet, error) {

	err := validateTreeMLP(outputs, rootHiddenSizes, rootBiases,
		rootActivations, leafHiddenSizes, leafBiases, leafActivations)
	if err != nil {
		return nil, fmt.Errorf("newtreemlp: %v", err)
	}

	input := G.NewMatrix(g, tensor.Float64, G.WithShape(batch, features),
		G.WithName(fmt.Sprintf("TreeMLPInput%d", len(g.AllNodes()))),
		G.WithInit(G.Zeroes()))

	// Create the root/observation network. The root's final hidden
	// layer is its output, so no extra linear layer is added; its
	// prediction node is used directly as leaf input.
	rootLayers := addfcLayers(g, rootHiddenSizes, rootBiases,
		rootActivations, init, features, "Root", "")
	rootNetwork := &mlp{
		g:         g,
		layers:    rootLayers,
		input:     input,
		numInputs: features,
		batchSize: batch,
	}
	if err := rootNetwork.fwd(input); err != nil {
		return nil, fmt.Errorf("newtreemlp: could not compute root "+
			"forward pass: %v", err)
	}

	// Create leaf networks, each taking the root output as input
	rootOutput := rootNetwork.Prediction()[0]
	leafNetworks := make([]NeuralNet, len(leafHiddenSizes))
	for i := 0; i < len(leafHiddenSizes); i++ {
		prefix := fmt.Sprintf("Leaf%d", i)

		leafNetworks[i], err = newMLPFromInput(rootOutput, outputs, g,
			leafHiddenSizes[i], leafBiases[i], init, leafActivations[i],
			prefix, "")
		if err != nil {
			return nil, fmt.Errorf("newtreemlp: could not construct leaf "+
				"network %v: %v", i, err)
		}
	}

	net := &treeMLP{
		g:            g,
		rootNetwork:  rootNetwork,
		leafNetworks: leafNetworks,
		input:        input,
		numInputs:    features,
		batchSize:    batch,
	}

	// Record leaf predictions as the network outputs
	net.prediction = make([]*G.Node, 0, len(leafNetworks))
	for _, leafNet := range leafNetworks {
		net.prediction = append(net.prediction, leafNet.Prediction()...)
	}
	net.predVal = make([]G.Value, len(net.prediction))
	for i, pred := range net.prediction {
		G.Read(pred, &net.predVal[i])
	}

	return net, nil
}

// Graph returns the computational graph of the network
func (t *treeMLP) Graph() *G.ExprGraph {
	return t.g
}

// BatchSize returns the batch size for inputs to the network
func (t *treeMLP) BatchSize() int {
	return t.batchSize
}

// Features returns the number of input features
func (t *treeMLP) Features() int {
	return t.numInputs
}

// SetInput sets the value of the input node before running the
// forward pass.
func (t *treeMLP) SetInput(input []float64) error {
	if len(input) != t.numInputs*t.batchSize {
		msg := fmt.Sprintf("invalid number of inputs\n\twant(%v)"+
			"\n\thave(%v)", t.numInputs*t.batchSize, len(input))
		panic(msg)
	}
	inputTensor := tensor.New(
		tensor.WithBacking(input),
		tensor.WithShape(t.input.Shape()...),
	)
	return G.Let(t.input, inputTensor)
}

// Learnables returns the learnable nodes in a treeMLP
func (t *treeMLP) Learnables() G.Nodes {
	// Lazy instantiation
	if t.learnables == nil {
		learnables := make([]*G.Node, 0)
		learnables = append(learnables, t.rootNetwork.Learnables()...)
		for _, leafNet := range t.leafNetworks {
			learnables = append(learnables, leafNet.Learnables()...)
		}
		t.learnables = G.Nodes(learnables)
	}
	return t.learnables
}

// Model returns the learnable nodes with their gradients.
func (t *treeMLP) Model() []G.ValueGrad {
	// Lazy instantiation
	if t.model == nil {
		model := make([]G.ValueGrad, 0, len(t.Learnables()))
		for _, learnable := range t.Learnables() {
			model = append(model, learnable)
		}
		t.model = model
	}
	return t.model
}

// Prediction returns the nodes of the computational graph that store
// the output of each leaf network
func (t *treeMLP) Prediction() []*G.Node {
	return t.prediction
}

// Output returns the output of the treeMLP, one value per leaf
// network.
func (t *treeMLP) Output() []G.Value {
	return t.predVal
}
