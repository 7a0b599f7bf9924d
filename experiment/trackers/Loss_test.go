package trackers

import (
	"encoding/gob"
	"os"
	"path/filepath"
	"testing"
)

func TestLossTrackAndSave(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "total_loss.bin")
	loss := NewLoss("total_loss", filename)

	expected := []float64{2.5, 1.5, 0.5}
	for _, value := range expected {
		loss.Track(map[string]float64{"total_loss": value, "vf_loss": 1.0})
	}
	loss.Save()

	file, err := os.Open(filename)
	if err != nil {
		t.Fatalf("could not open saved data: %v", err)
	}
	defer file.Close()

	var history []float64
	if err := gob.NewDecoder(file).Decode(&history); err != nil {
		t.Fatalf("could not decode saved data: %v", err)
	}

	if len(history) != len(expected) {
		t.Fatalf("incorrect number of tracked values \n\twant(%v) "+
			"\n\thave(%v)", len(expected), len(history))
	}
	for i := range expected {
		if history[i] != expected[i] {
			t.Errorf("incorrect tracked value at index %v \n\twant(%v) "+
				"\n\thave(%v)", i, expected[i], history[i])
		}
	}
}

func TestLossTrackMissingMetric(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("tracking a metric the agent does not report should " +
				"panic")
		}
	}()

	loss := NewLoss("vf_loss", "unused.bin")
	loss.Track(map[string]float64{"total_loss": 1.0})
}
