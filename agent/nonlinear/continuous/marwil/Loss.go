// Package marwil implements the Monotonic Advantage Re-Weighted
// Imitation Learning algorithm:
//
// https://arxiv.org/abs/1809.02925
//
// MARWIL learns from a fixed dataset of recorded trajectories. Each
// recorded action is imitated with a weight that grows exponentially
// in the action's advantage, so that better-than-expected actions are
// cloned more strongly than worse ones. With an advantage scale of 0,
// all weights are 1 and the algorithm reduces to behavioural cloning.
package marwil

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/samuelfneumann/gomarwil/utils/floatutils"
)

// Stabilizing constant added under the square root when normalizing
// advantages, protecting against division by zero when the moving
// average of the squared advantage is near 0.
const sqdAdvNormStabilizer float64 = 1e-8

// weighting determines the per-transition weights placed on the log
// likelihood of recorded actions in the imitation loss.
type weighting interface {
	// weights returns one loss weight per residual advantage in the
	// batch, updating any internal normalization state
	weights(residuals []float64) []float64
}

// uniformWeighting weights every recorded action equally, yielding
// pure behavioural cloning. It holds no state across batches.
type uniformWeighting struct{}

func (u uniformWeighting) weights(residuals []float64) []float64 {
	return floatutils.Ones(len(residuals))
}

// exponentialWeighting weights each recorded action by
// exp(β * advantage / √(avg)), where avg is a moving average of the
// mean squared advantage across batches. The normalization keeps the
// exponentiation well scaled regardless of the magnitude of returns.
type exponentialWeighting struct {
	beta       float64
	updateRate float64

	// Moving average of the mean squared residual advantage. Kept as a
	// plain scalar outside the computational graph so that no gradient
	// can ever flow through the weighting.
	movingAvgSqdAdvNorm float64
}

// weights updates the moving average toward the current batch's mean
// squared advantage and then uses the updated value to normalize the
// batch. The update happens first, so the freshest estimate scales the
// weights of the very batch that produced it.
func (e *exponentialWeighting) weights(residuals []float64) []float64 {
	advSqMean := floats.Dot(residuals, residuals) / float64(len(residuals))
	e.movingAvgSqdAdvNorm += e.updateRate *
		(advSqMean - e.movingAvgSqdAdvNorm)

	scale := math.Sqrt(sqdAdvNormStabilizer + e.movingAvgSqdAdvNorm)
	weights := make([]float64, len(residuals))
	for i, residual := range residuals {
		weights[i] = math.Exp(e.beta * residual / scale)
	}

	return weights
}

// Loss computes the MARWIL training objective and its diagnostics.
//
// The loss combines an advantage-weighted negative log likelihood of
// the recorded actions with a mean squared regression of the state
// value function onto the observed cumulative rewards:
//
//	policyLoss = -mean(wᵢ * (logProbᵢ + c * logStdᵢ))
//	valueLoss  = ½ * mean((Gᵢ - v(sᵢ))²)
//	loss       = policyLoss + vfCoeff * valueLoss
//
// where wᵢ are the weights of the chosen weighting, Gᵢ the cumulative
// rewards, and c an optional coefficient on the mean log standard
// deviation of the policy, which discourages the imitated policy from
// collapsing to a deterministic one.
//
// The loss is assembled on the computational graph of the argument
// nodes. The weights wᵢ and the regression targets Gᵢ enter the graph
// through input nodes set by Feed, so neither is differentiated
// through. Running a VM of the graph is left to the caller, which owns
// the machine and the solver.
//
// A Loss is not safe for concurrent use. The caller must serialize
// Feed, VM runs, and Stats on a single Loss.
type Loss struct {
	weighting weighting
	batchSize int

	expAdvs      *G.Node // Per-transition weights, set by Feed
	valueTargets *G.Node // Cumulative rewards, nil in cloning mode
	loss         *G.Node

	policyLossVal G.Value
	valueLossVal  G.Value
	totalLossVal  G.Value

	explainedVar float64
}

// NewLoss adds the MARWIL loss to the computational graph of logProb,
// returning the Loss that manages it.
//
// The logProb node should hold the log probability of each recorded
// action in the batch, with one entry per transition. The logStd node
// should hold the per-dimension log standard deviation of the policy
// with shape (batch size, action dimensions); it may be nil when
// bcLogstdCoeff is 0. The valuePred node should hold the state value
// estimates of the critic being trained and must share a graph with
// logProb so that the combined loss is a single differentiable scalar.
//
// A beta of 0 selects pure behavioural cloning: the value loss is
// identically 0, no moving average state is allocated, and valuePred
// is ignored and may be nil. This choice is fixed for the lifetime of
// the Loss. With a non-zero beta, movingAvgStart initializes the
// moving average of the squared advantage and updateRate sets its
// smoothing rate, which must be in (0, 1].
func NewLoss(logProb, logStd, valuePred *G.Node, batchSize int, beta,
	movingAvgStart, updateRate, vfCoeff, bcLogstdCoeff float64) (*Loss,
	error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("newLoss: batch size must be positive "+
			"\n\thave(%v)", batchSize)
	}
	if beta < 0 {
		return nil, fmt.Errorf("newLoss: advantage scale must be "+
			"non-negative \n\thave(%v)", beta)
	}
	if bcLogstdCoeff != 0 && logStd == nil {
		return nil, fmt.Errorf("newLoss: log std regularization requires " +
			"a log std node")
	}

	g := logProb.Graph()
	l := &Loss{batchSize: batchSize}

	l.expAdvs = G.NewVector(
		g,
		tensor.Float64,
		G.WithName("LossWeights"),
		G.WithShape(batchSize),
		G.WithInit(G.Ones()),
	)

	// Weighted log likelihood of the recorded actions
	score := logProb
	if bcLogstdCoeff != 0 {
		meanLogStd := G.Must(G.Mean(logStd, 1))
		coeff := G.NewConstant(bcLogstdCoeff)
		score = G.Must(G.Add(score, G.Must(G.HadamardProd(coeff,
			meanLogStd))))
	}
	policyLoss := G.Must(G.HadamardProd(l.expAdvs, score))
	policyLoss = G.Must(G.Mean(policyLoss))
	policyLoss = G.Must(G.Neg(policyLoss))
	G.Read(policyLoss, &l.policyLossVal)
	l.loss = policyLoss

	switch {
	case beta != 0:
		if valuePred == nil {
			return nil, fmt.Errorf("newLoss: advantage weighting requires " +
				"a state value prediction node")
		}
		if valuePred.Graph() != g {
			return nil, fmt.Errorf("newLoss: state value prediction must " +
				"share a graph with the action log probability")
		}
		if updateRate <= 0 || updateRate > 1 {
			return nil, fmt.Errorf("newLoss: moving average update rate "+
				"must be in (0, 1] \n\thave(%v)", updateRate)
		}
		l.weighting = &exponentialWeighting{
			beta:                beta,
			updateRate:          updateRate,
			movingAvgSqdAdvNorm: movingAvgStart,
		}

		l.valueTargets = G.NewVector(
			g,
			tensor.Float64,
			G.WithName("ValueTargets"),
			G.WithShape(batchSize),
			G.WithInit(G.Zeroes()),
		)

		// Mean squared regression of the critic onto the cumulative
		// rewards
		prediction := G.Must(G.Ravel(valuePred))
		residual := G.Must(G.Sub(l.valueTargets, prediction))
		valueLoss := G.Must(G.Pow(residual, G.NewConstant(2.0)))
		valueLoss = G.Must(G.Mean(valueLoss))
		valueLoss = G.Must(G.HadamardProd(G.NewConstant(0.5), valueLoss))
		G.Read(valueLoss, &l.valueLossVal)

		scaled := G.Must(G.HadamardProd(G.NewConstant(vfCoeff), valueLoss))
		l.loss = G.Must(G.Add(policyLoss, scaled))

	default:
		l.weighting = uniformWeighting{}
	}
	G.Read(l.loss, &l.totalLossVal)

	return l, nil
}

// Node returns the node holding the combined scalar loss
func (l *Loss) Node() *G.Node {
	return l.loss
}

// Feed computes the per-transition loss weights for a minibatch and
// sets the weight and regression target input nodes of the graph, so
// that the next VM run computes the corresponding loss.
//
// The cumulativeRewards argument holds the discounted cumulative
// reward observed from each transition, and stateValues the critic's
// current estimate of each transition's state value. Their difference
// is the residual advantage that drives the weighting. In behavioural
// cloning mode stateValues is ignored and may be nil.
//
// When advantage weighting is active, Feed mutates the moving average
// of the squared advantage in place. Feeding the same minibatch twice
// therefore produces different weights on the second call.
func (l *Loss) Feed(cumulativeRewards, stateValues []float64) error {
	if len(cumulativeRewards) != l.batchSize {
		return fmt.Errorf("feed: illegal number of cumulative rewards "+
			"\n\twant(%v) \n\thave(%v)", l.batchSize, len(cumulativeRewards))
	}

	residuals := make([]float64, l.batchSize)
	if l.valueTargets != nil {
		if len(stateValues) != l.batchSize {
			return fmt.Errorf("feed: illegal number of state values "+
				"\n\twant(%v) \n\thave(%v)", l.batchSize, len(stateValues))
		}
		floats.SubTo(residuals, cumulativeRewards, stateValues)
		l.explainedVar = explainedVariance(cumulativeRewards, stateValues)

		targets := tensor.NewDense(
			tensor.Float64,
			[]int{l.batchSize},
			tensor.WithBacking(floatutils.Duplicate(cumulativeRewards)),
		)
		if err := G.Let(l.valueTargets, targets); err != nil {
			return fmt.Errorf("feed: could not set value targets: %v", err)
		}
	}

	weights := tensor.NewDense(
		tensor.Float64,
		[]int{l.batchSize},
		tensor.WithBacking(l.weighting.weights(residuals)),
	)
	if err := G.Let(l.expAdvs, weights); err != nil {
		return fmt.Errorf("feed: could not set loss weights: %v", err)
	}

	return nil
}

// Stats returns diagnostic metrics describing the most recent loss
// computation. The policy loss and total loss are always reported.
// When advantage weighting is active, the value loss, the explained
// variance of the critic, and the moving average of the squared
// advantage are reported as well.
//
// Stats should only be called after Feed has been called and a VM of
// the loss's graph has been run at least once.
func (l *Loss) Stats() map[string]float64 {
	stats := map[string]float64{
		"policy_loss": l.policyLossVal.Data().(float64),
		"total_loss":  l.totalLossVal.Data().(float64),
	}

	if w, ok := l.weighting.(*exponentialWeighting); ok {
		stats["vf_loss"] = l.valueLossVal.Data().(float64)
		stats["vf_explained_var"] = l.explainedVar
		stats["moving_average_sqd_adv_norm"] = w.movingAvgSqdAdvNorm
	}

	return stats
}

// explainedVariance returns the fraction of the variance of targets
// explained by preds, clamped below at -1. It is 1 when the
// predictions match the targets exactly and 0 when the predictions
// are no better than the mean of the targets.
func explainedVariance(targets, preds []float64) float64 {
	diff := make([]float64, len(targets))
	floats.SubTo(diff, targets, preds)

	ev := 1.0 - stat.Variance(diff, nil)/stat.Variance(targets, nil)
	return floatutils.Clip(ev, -1.0, 1.0)
}
