// Package network implements neural networks as Gorgonia
// computational graphs
package network

import (
	G "gorgonia.org/gorgonia"
)

// NeuralNet implements a neural network on a Gorgonia computational
// graph. A NeuralNet only builds graph nodes; running the graph is
// left to an external VM so that loss functions can be attached to
// the network's prediction nodes before execution.
type NeuralNet interface {
	Graph() *G.ExprGraph
	BatchSize() int
	Features() int

	// SetInput sets the value of the network's input node. The input
	// should be constructed in row major order.
	SetInput([]float64) error

	Learnables() G.Nodes
	Model() []G.ValueGrad

	// Prediction returns the nodes of the computational graph that
	// store the network's outputs, one node per output head.
	Prediction() []*G.Node

	// Output returns the values of the nodes returned by Prediction.
	// Output values are only valid after a VM of the network's graph
	// has been run.
	Output() []G.Value
}

// Set sets the weights of dest to be equal to the weights of source.
// The two networks must share the same architecture.
func Set(dest, source NeuralNet) error {
	sourceNodes := source.Learnables()
	nodes := dest.Learnables()
	for i, destLearnable := range nodes {
		sourceLearnable := sourceNodes[i].Clone()
		err := G.Let(destLearnable, sourceLearnable.(*G.Node).Value())
		if err != nil {
			return err
		}
	}
	return nil
}
