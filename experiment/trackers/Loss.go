// Package trackers implements Trackers for experiments
package trackers

import (
	"encoding/gob"
	"fmt"
	"log"
	"os"

	"github.com/samuelfneumann/gomarwil/experiment/tracker"
)

// Loss tracks and saves the history of a single diagnostic metric
// reported by an agent during offline training, e.g. the policy loss
// or the total loss of each update.
//
// Note: agents report different metrics depending on their
// configuration. Tracking a metric the agent never reports panics on
// the first update so that the mistake is caught early.
type Loss struct {
	key      string
	history  []float64
	filename string
}

// NewLoss creates and returns a new *Loss Tracker which tracks the
// metric named key and saves its history to filename.
func NewLoss(key, filename string) tracker.Tracker {
	return &Loss{key: key, filename: filename}
}

// Track caches the tracked metric of a single update. Track panics if
// the agent did not report the tracked metric.
func (l *Loss) Track(stats map[string]float64) {
	value, ok := stats[l.key]
	if !ok {
		panic(fmt.Sprintf("track: agent did not report metric %v", l.key))
	}
	l.history = append(l.history, value)
}

// LoadData loads and returns the data saved to disk by a Tracker
func LoadData(filename string) []float64 {
	file, err := os.Open(filename)
	if err != nil {
		log.Fatalf("could not open data file: %v", err)
	}
	defer file.Close()

	var data []float64
	dec := gob.NewDecoder(file)
	if err := dec.Decode(&data); err != nil {
		log.Fatalf("could not decode data file: %v", err)
	}

	return data
}

// Save saves the data tracked by the Loss Tracker to disk.
func (l *Loss) Save() {
	// Open the file to save to
	file, err := os.Create(l.filename)
	if err != nil {
		log.Fatalf("could not open save file: %v", err)
	}
	defer file.Close()

	// Encode and save the file
	en := gob.NewEncoder(file)
	if err = en.Encode(l.history); err != nil {
		log.Fatalf("could not encode %v data: %v", l.key, err)
	}
}
