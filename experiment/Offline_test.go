package experiment

import (
	"testing"

	"github.com/samuelfneumann/gomarwil/dataset"
)

// countingLearner records how it is driven by an experiment
type countingLearner struct {
	observed int
	steps    int
}

func (c *countingLearner) Observe(t dataset.Trajectory) error {
	c.observed++
	return nil
}

func (c *countingLearner) Step() error {
	c.steps++
	return nil
}

func (c *countingLearner) Stats() map[string]float64 {
	return map[string]float64{"total_loss": float64(c.steps)}
}

// recordingTracker caches every tracked metric value
type recordingTracker struct {
	tracked []float64
	saved   bool
}

func (r *recordingTracker) Track(stats map[string]float64) {
	r.tracked = append(r.tracked, stats["total_loss"])
}

func (r *recordingTracker) Save() { r.saved = true }

func TestOfflineRun(t *testing.T) {
	learner := &countingLearner{}
	rec := &recordingTracker{}

	data := []dataset.Trajectory{
		{Transitions: []dataset.Transition{{Reward: 1}}, Terminal: true},
		{Transitions: []dataset.Transition{{Reward: 2}}, Terminal: true},
	}

	exp, err := NewOffline(learner, data, 3, nil)
	if err != nil {
		t.Fatalf("could not create experiment: %v", err)
	}
	exp.Register(rec)

	if err := exp.Run(); err != nil {
		t.Fatalf("could not run experiment: %v", err)
	}
	exp.Save()

	if learner.observed != 2 {
		t.Errorf("incorrect number of recorded trajectories \n\twant(2) "+
			"\n\thave(%v)", learner.observed)
	}
	if learner.steps != 3 {
		t.Errorf("incorrect number of updates \n\twant(3) \n\thave(%v)",
			learner.steps)
	}
	if len(rec.tracked) != 3 {
		t.Errorf("metrics should be tracked after every update "+
			"\n\twant(3) \n\thave(%v)", len(rec.tracked))
	}
	if !rec.saved {
		t.Error("saving the experiment should save all trackers")
	}
}

func TestOfflineRequiresData(t *testing.T) {
	if _, err := NewOffline(&countingLearner{}, nil, 1, nil); err == nil {
		t.Error("creating an experiment with no trajectories should fail")
	}
}
