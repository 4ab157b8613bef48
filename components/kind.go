package components

import "fmt"

// Kind tags a particle with one of the drawable material profiles.
type Kind uint8

const (
	Water Kind = iota
	Poo
	Goo
	Oil
	Random
	Wall
	NumKinds
)

var kindNames = [NumKinds]string{"water", "poo", "goo", "oil", "random", "wall"}

func (k Kind) String() string {
	if k < NumKinds {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ParseKind resolves a kind from its lowercase name.
func ParseKind(name string) (Kind, error) {
	for i, n := range kindNames {
		if n == name {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown particle kind %q", name)
}

// Color is an 8-bit RGB triple.
type Color struct {
	R, G, B uint8
}

// Profile is the per-kind material: mass, drag and colour, plus whether
// the kind links to its neighbours with springs.
type Profile struct {
	Mass    float64
	Drag    float64
	Color   Color
	Elastic bool // links same-kind neighbours with springs
	Static  bool // infinite mass, never integrated
}

// InvMass returns the inverse mass, 0 for static or massless profiles.
func (p Profile) InvMass() float64 {
	if p.Static || p.Mass <= 0 {
		return 0
	}
	return 1 / p.Mass
}
