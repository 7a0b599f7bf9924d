// Package experiment implements functionality for running an experiment
package experiment

import (
	"github.com/samuelfneumann/gomarwil/experiment/tracker"
)

// Experiment outlines structs that can run experiments. Experiments
// update an agent some number of times, tracking the agent's
// diagnostic metrics after each update, caching the tracked data in
// RAM to be later saved to disk. The Save() function will then take
// all cached data and save it to disk. This is usually performed after
// an experiment has been run.
//
// In order to save data, Experiments use Trackers. Trackers determine
// which data generated during the experiment is saved. Experiments
// will send the agent's metrics to Trackers using the Tracker's
// Track() method. New Trackers can be registered with an Experiment
// through the constructor or through an Experiment's Register()
// function.
type Experiment interface {
	Run() error

	// Save all tracked data to disk
	Save()

	// Register adds a new tracker.Tracker to the (possibly already
	// running) experiment. Useful if you want to track data only after
	// a specified event.
	Register(t tracker.Tracker)
}
