// Package tracker defines how data generated during an experiment is
// tracked and saved to disk
package tracker

// Tracker tracks the diagnostic metrics an agent reports after each
// update in an experiment, caching the tracked data in RAM. The Save()
// function will then take all cached data and save it to disk. This is
// usually performed after an experiment has been run.
type Tracker interface {
	// Track caches data from the metrics of a single update
	Track(stats map[string]float64)

	// Save all tracked data to disk
	Save()
}
