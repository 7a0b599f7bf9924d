package dataset

import (
	"strings"
	"testing"
)

func TestReadJSON(t *testing.T) {
	data := `{"transitions": [{"obs": [0.0, 1.0], "action": [0.5], "reward": 1.0}, {"obs": [1.0, 1.0], "action": [-0.5], "reward": -1.0}], "terminal": true}

{"transitions": [{"obs": [2.0, 0.0], "action": [0.0], "reward": 0.5}], "terminal": false}
`

	trajectories, err := ReadJSON(strings.NewReader(data))
	if err != nil {
		t.Fatalf("could not read trajectories: %v", err)
	}

	if len(trajectories) != 2 {
		t.Fatalf("wrong trajectory count \n\twant(2) \n\thave(%v)",
			len(trajectories))
	}

	first := trajectories[0]
	if first.Len() != 2 {
		t.Errorf("wrong transition count \n\twant(2) \n\thave(%v)",
			first.Len())
	}
	if !first.Terminal {
		t.Error("first trajectory should be terminal")
	}
	if first.ObsDims() != 2 || first.ActionDims() != 1 {
		t.Errorf("wrong dimensions \n\twant(2, 1) \n\thave(%v, %v)",
			first.ObsDims(), first.ActionDims())
	}
	if first.Transitions[1].Reward != -1.0 {
		t.Errorf("wrong reward \n\twant(-1.0) \n\thave(%v)",
			first.Transitions[1].Reward)
	}

	second := trajectories[1]
	if second.Terminal {
		t.Error("second trajectory should be truncated")
	}
	if second.Transitions[0].Obs[0] != 2.0 {
		t.Errorf("wrong observation \n\twant(2.0) \n\thave(%v)",
			second.Transitions[0].Obs[0])
	}
}

func TestReadJSONRejectsEmptyTrajectory(t *testing.T) {
	data := `{"transitions": [], "terminal": true}`

	if _, err := ReadJSON(strings.NewReader(data)); err == nil {
		t.Error("expected an error for an empty trajectory")
	}
}

func TestReadJSONRejectsMalformedLine(t *testing.T) {
	data := `{"transitions": [{"obs": [0.0]`

	if _, err := ReadJSON(strings.NewReader(data)); err == nil {
		t.Error("expected an error for a malformed line")
	}
}
