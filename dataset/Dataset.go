// Package dataset implements reading and holding offline trajectory
// data for imitation learning
package dataset

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Transition packages together a single step of recorded
// agent-environment interaction. The Obs field holds the observation
// in which Action was taken, and Reward holds the reward received for
// taking Action in Obs.
type Transition struct {
	Obs    []float64 `json:"obs"`
	Action []float64 `json:"action"`
	Reward float64   `json:"reward"`
}

// Trajectory is an ordered sequence of transitions from a single
// episode. Trajectories are the unit of data that offline agents
// consume: return-based postprocessing needs episode boundaries, so
// transitions are never stored loose.
type Trajectory struct {
	Transitions []Transition `json:"transitions"`

	// Terminal indicates whether the trajectory ended in a terminal
	// state. If false, the episode was truncated, and any
	// reward-to-go calculation should bootstrap off a value estimate
	// of the final observation.
	Terminal bool `json:"terminal"`
}

// Len returns the number of transitions in the trajectory
func (t Trajectory) Len() int {
	return len(t.Transitions)
}

// ObsDims returns the observation dimensionality of the trajectory.
// All transitions in a trajectory are assumed to share observation
// dimensionality.
func (t Trajectory) ObsDims() int {
	if t.Len() == 0 {
		return 0
	}
	return len(t.Transitions[0].Obs)
}

// ActionDims returns the action dimensionality of the trajectory
func (t Trajectory) ActionDims() int {
	if t.Len() == 0 {
		return 0
	}
	return len(t.Transitions[0].Action)
}

// ReadJSON reads trajectories from r. The expected format is JSON
// lines: one JSON-encoded Trajectory per line, with blank lines
// ignored. This is the format produced by logging each episode of a
// behaviour policy as it finishes.
func ReadJSON(r io.Reader) ([]Trajectory, error) {
	var trajectories []Trajectory

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		data := scanner.Bytes()
		if len(data) == 0 {
			continue
		}

		var trajectory Trajectory
		if err := json.Unmarshal(data, &trajectory); err != nil {
			return nil, fmt.Errorf("readJSON: could not decode "+
				"trajectory on line %d: %v", line, err)
		}
		if trajectory.Len() == 0 {
			return nil, fmt.Errorf("readJSON: empty trajectory on "+
				"line %d", line)
		}
		trajectories = append(trajectories, trajectory)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("readJSON: %v", err)
	}

	return trajectories, nil
}

// Load reads trajectories from the JSON lines file at filename
func Load(filename string) ([]Trajectory, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("load: could not open dataset: %v", err)
	}
	defer file.Close()

	return ReadJSON(file)
}
