package experiment

import (
	"fmt"

	"github.com/samuelfneumann/gomarwil/agent"
	"github.com/samuelfneumann/gomarwil/dataset"
	"github.com/samuelfneumann/gomarwil/experiment/tracker"
)

// Offline is an Experiment that trains a Learner on a fixed dataset of
// recorded trajectories. The agent never interacts with an
// environment: all trajectories are given to the agent up front, and
// the experiment then performs a set number of updates, tracking the
// agent's diagnostic metrics after each one.
type Offline struct {
	agent    agent.Learner
	updates  uint
	trackers []tracker.Tracker
}

// NewOffline creates and returns a new offline Experiment that gives
// each trajectory in data to the argument Learner and then updates the
// Learner updates times.
func NewOffline(a agent.Learner, data []dataset.Trajectory, updates uint,
	t []tracker.Tracker) (*Offline, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("newOffline: no trajectories given")
	}

	for i, trajectory := range data {
		if err := a.Observe(trajectory); err != nil {
			return nil, fmt.Errorf("newOffline: could not record "+
				"trajectory %v: %v", i, err)
		}
	}

	return &Offline{agent: a, updates: updates, trackers: t}, nil
}

// Run runs the entire experiment, performing the configured number of
// updates to the experiment's agent
func (o *Offline) Run() error {
	for i := uint(0); i < o.updates; i++ {
		if err := o.agent.Step(); err != nil {
			return fmt.Errorf("run: could not perform update %v: %v", i,
				err)
		}
		o.track(o.agent.Stats())
	}

	return nil
}

// track sends the metrics of a single update to all registered
// Trackers
func (o *Offline) track(stats map[string]float64) {
	for _, t := range o.trackers {
		t.Track(stats)
	}
}

// Save saves all data tracked by the experiment's Trackers to disk
func (o *Offline) Save() {
	for _, t := range o.trackers {
		t.Save()
	}
}

// Register adds a new Tracker to the experiment
func (o *Offline) Register(t tracker.Tracker) {
	o.trackers = append(o.trackers, t)
}
