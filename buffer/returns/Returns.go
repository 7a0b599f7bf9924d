// Package returns implements a buffer of offline transitions with
// precomputed discounted rewards-to-go
package returns

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/gomarwil/dataset"
)

// Buffer accumulates recorded trajectories and attaches to each
// transition its discounted cumulative reward. The cumulative reward
// serves as the regression target for a state value function and,
// after subtracting the value estimate, as the advantage signal for
// advantage-weighted imitation.
//
// Unlike an online rollout buffer, this buffer never overwrites or
// evicts: offline data is collected once and sampled from repeatedly.
type Buffer struct {
	obsDims    int     // Size of state observations
	actionDims int     // Number of action dimensions
	gamma      float64 // Discount factor ℽ for rewards-to-go

	obsBuffer []float64
	actBuffer []float64
	advBuffer []float64 // Discounted cumulative rewards
}

// New creates and returns a new Buffer holding observations of
// dimensionality obsDims and actions of dimensionality actionDims.
func New(obsDims, actionDims int, gamma float64) (*Buffer, error) {
	if obsDims <= 0 || actionDims <= 0 {
		return nil, fmt.Errorf("new: dimensions must be positive "+
			"\n\thave obs(%v) actions(%v)", obsDims, actionDims)
	}
	if gamma < 0 || gamma > 1 {
		return nil, fmt.Errorf("new: discount must be in [0, 1] "+
			"\n\thave(%v)", gamma)
	}

	return &Buffer{
		obsDims:    obsDims,
		actionDims: actionDims,
		gamma:      gamma,
	}, nil
}

// AddTrajectory stores a full trajectory in the buffer, computing the
// discounted cumulative reward of each of its transitions.
//
// The lastVal argument should be 0 if the trajectory ended because
// the agent reached a terminal state. For a truncated trajectory it
// should be a value estimate of the state following the final
// transition, which bootstraps the rewards-to-go calculation to
// account for timesteps beyond the truncation point.
func (b *Buffer) AddTrajectory(t dataset.Trajectory, lastVal float64) error {
	if t.Len() == 0 {
		return fmt.Errorf("addTrajectory: empty trajectory")
	}
	if t.ObsDims() != b.obsDims {
		return fmt.Errorf("addTrajectory: illegal obs length "+
			"\n\twant(%v) \n\thave(%v)", b.obsDims, t.ObsDims())
	}
	if t.ActionDims() != b.actionDims {
		return fmt.Errorf("addTrajectory: illegal action length "+
			"\n\twant(%v) \n\thave(%v)", b.actionDims, t.ActionDims())
	}
	if t.Terminal {
		lastVal = 0.0
	}

	rews := make([]float64, t.Len()+1)
	for i, transition := range t.Transitions {
		if len(transition.Obs) != b.obsDims {
			return fmt.Errorf("addTrajectory: illegal obs length at "+
				"transition %v \n\twant(%v) \n\thave(%v)", i, b.obsDims,
				len(transition.Obs))
		}
		if len(transition.Action) != b.actionDims {
			return fmt.Errorf("addTrajectory: illegal action length at "+
				"transition %v \n\twant(%v) \n\thave(%v)", i, b.actionDims,
				len(transition.Action))
		}

		b.obsBuffer = append(b.obsBuffer, transition.Obs...)
		b.actBuffer = append(b.actBuffer, transition.Action...)
		rews[i] = transition.Reward
	}
	rews[t.Len()] = lastVal

	rewsToGo := discountCumSum(mat.NewVecDense(len(rews), rews), b.gamma)
	b.advBuffer = append(b.advBuffer, rewsToGo[:t.Len()]...)

	return nil
}

// Len returns the number of transitions stored in the buffer
func (b *Buffer) Len() int {
	return len(b.advBuffer)
}

// ObsDims returns the observation dimensionality of stored transitions
func (b *Buffer) ObsDims() int {
	return b.obsDims
}

// ActionDims returns the action dimensionality of stored transitions
func (b *Buffer) ActionDims() int {
	return b.actionDims
}

// Sample draws a minibatch of n transitions uniformly at random with
// replacement. The returned observations and actions are in row major
// order, aligned by index with the returned cumulative rewards.
func (b *Buffer) Sample(rng *rand.Rand, n int) ([]float64, []float64,
	[]float64, error) {
	if b.Len() == 0 {
		return nil, nil, nil, fmt.Errorf("sample: empty buffer")
	}
	if n <= 0 {
		return nil, nil, nil, fmt.Errorf("sample: illegal batch size "+
			"\n\thave(%v)", n)
	}

	obs := make([]float64, 0, n*b.obsDims)
	actions := make([]float64, 0, n*b.actionDims)
	advantages := make([]float64, n)

	for i := 0; i < n; i++ {
		j := rng.Intn(b.Len())

		obs = append(obs, b.obsBuffer[j*b.obsDims:(j+1)*b.obsDims]...)
		actions = append(actions,
			b.actBuffer[j*b.actionDims:(j+1)*b.actionDims]...)
		advantages[i] = b.advBuffer[j]
	}

	return obs, actions, advantages, nil
}

// discountCumSum computes and returns the discounted cumulative sum
// of all elements of a vector. Given a vector v = [x0 x1 x2 ... xN]
// and discount ℽ, this function computes and returns:
//
// [
//	x0 + ℽ x1 + ℽ^2 x2 + ℽ^3 x3 + ... + ℽ^(N-1) x(N-1) + ℽ^N xN
//	x1 + ℽ^1 x2 + ℽ^2 x3 + ... + ℽ^(N-2) x(N-1) + ℽ^(N-1) xN
//	x2 + ℽ^1 x3 + ... + ℽ^(N-3) x(N-1) + ℽ^(N-2) xN
// ...
// xN
// ]
func discountCumSum(x *mat.VecDense, discount float64) []float64 {
	discounts := mat.NewVecDense(x.Len(), nil)
	cumSums := make([]float64, x.Len())
	nextScaledRews := mat.NewVecDense(x.Len(), nil)
	backing := nextScaledRews.RawVector().Data

	for i := 0; i < x.Len(); i++ {
		discounts.ScaleVec(discount, discounts)
		discounts.SetVec(x.Len()-i-1, 1)

		nextScaledRews.MulElemVec(discounts, x)
		cumSums[x.Len()-i-1] = floats.Sum(backing[x.Len()-i-1:])
	}

	return cumSums
}
