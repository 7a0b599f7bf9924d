package initwfn

import G "gorgonia.org/gorgonia"

// GlorotUConfig describes Glorot Uniform weight initialization with a
// given gain.
type GlorotUConfig struct {
	Gain float64
}

// NewGlorotU returns a new wrapped Glorot Uniform weight initializer
// with the argument gain.
func NewGlorotU(gain float64) (*InitWFn, error) {
	return newInitWFn(GlorotUConfig{Gain: gain})
}

// Type returns the type of initialization scheme the configuration
// describes.
func (g GlorotUConfig) Type() Type {
	return GlorotU
}

// Create returns the Gorgonia implementation of the initialization
// scheme.
func (g GlorotUConfig) Create() G.InitWFn {
	return G.GlorotU(g.Gain)
}

// GlorotNConfig describes Glorot Normal weight initialization with a
// given gain.
type GlorotNConfig struct {
	Gain float64
}

// NewGlorotN returns a new wrapped Glorot Normal weight initializer
// with the argument gain.
func NewGlorotN(gain float64) (*InitWFn, error) {
	return newInitWFn(GlorotNConfig{Gain: gain})
}

// Type returns the type of initialization scheme the configuration
// describes.
func (g GlorotNConfig) Type() Type {
	return GlorotN
}

// Create returns the Gorgonia implementation of the initialization
// scheme.
func (g GlorotNConfig) Create() G.InitWFn {
	return G.GlorotN(g.Gain)
}
