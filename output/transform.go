package output

// Transform is the rotation and flip of an output, numbered like
// wl_output.transform.
type Transform int

const (
	Normal Transform = iota
	Rotated90
	Rotated180
	Rotated270
	Flipped
	Flipped90
	Flipped180
	Flipped270
)

var transformNames = [...]string{
	"normal", "90", "180", "270",
	"flipped", "flipped-90", "flipped-180", "flipped-270",
}

func (t Transform) String() string {
	if t < Normal || t > Flipped270 {
		return "invalid"
	}
	return transformNames[t]
}

func (t Transform) IsValid() bool {
	return t >= Normal && t <= Flipped270
}

// IsPortrait reports whether the transform swaps width and height.
func (t Transform) IsPortrait() bool {
	switch t {
	case Rotated90, Rotated270, Flipped90, Flipped270:
		return true
	}
	return false
}

func (t Transform) IsFlipped() bool {
	return t >= Flipped && t <= Flipped270
}

// Rotation returns the counter-clockwise rotation in degrees.
func (t Transform) Rotation() int {
	return int(t&3) * 90
}

// Unflipped drops the flip, keeping the rotation.
func (t Transform) Unflipped() Transform {
	return t & 3
}
