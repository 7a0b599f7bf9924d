package initwfn

import G "gorgonia.org/gorgonia"

// ZeroesConfig implements a configuration of an initialization
// algorithm that initializes all weights as 0.
type ZeroesConfig struct{}

// NewZeroes returns a new weight initializer that initializes all
// weights as 0.
func NewZeroes() (*InitWFn, error) {
	return newInitWFn(ZeroesConfig{})
}

// Type returns the type of initialization algorithm described by the
// configuration.
func (z ZeroesConfig) Type() Type {
	return Zeroes
}

// Create returns the weight initialization algorithm as a Gorgonia
// InitWFn
func (z ZeroesConfig) Create() G.InitWFn {
	return G.Zeroes()
}

// ConstantConfig implements a configuration of an initialization
// algorithm that initializes all weights to a constant value.
type ConstantConfig struct {
	Value float64
}

// NewConstant returns a new weight initializer that initializes all
// weights to the constant value v.
func NewConstant(v float64) (*InitWFn, error) {
	config := ConstantConfig{
		Value: v,
	}

	return newInitWFn(config)
}

// Type returns the type of initialization algorithm described by the
// configuration.
func (c ConstantConfig) Type() Type {
	return Constant
}

// Create returns the weight initialization algorithm as a Gorgonia
// InitWFn
func (c ConstantConfig) Create() G.InitWFn {
	return G.ValuesOf(c.Value)
}
