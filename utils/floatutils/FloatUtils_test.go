package floatutils

import "testing"

func TestClip(t *testing.T) {
	tests := []struct {
		value, min, max, expected float64
	}{
		{0.5, -1.0, 1.0, 0.5},
		{-3.0, -1.0, 1.0, -1.0},
		{3.0, -1.0, 1.0, 1.0},
		{-1.0, -1.0, 1.0, -1.0},
	}

	for _, test := range tests {
		clipped := Clip(test.value, test.min, test.max)
		if clipped != test.expected {
			t.Errorf("incorrect clipped value for %v \n\twant(%v) "+
				"\n\thave(%v)", test.value, test.expected, clipped)
		}
	}
}

func TestOnes(t *testing.T) {
	ones := Ones(3)
	if len(ones) != 3 {
		t.Fatalf("incorrect length \n\twant(3) \n\thave(%v)", len(ones))
	}
	for i, value := range ones {
		if value != 1.0 {
			t.Errorf("incorrect value at index %v \n\twant(1.0) "+
				"\n\thave(%v)", i, value)
		}
	}
}

func TestDuplicate(t *testing.T) {
	original := []float64{1, 2, 3}
	duplicated := Duplicate(original)

	duplicated[0] = -1
	if original[0] != 1 {
		t.Error("modifying a duplicate should not modify the original")
	}
}
