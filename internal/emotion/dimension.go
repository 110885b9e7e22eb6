package emotion

// Dimension is one named emotion axis. The set is closed: loading a persisted
// record with a name outside this enum is a schema error, not a silent skip.
type Dimension int

const (
	Loneliness Dimension = iota
	Excitement
	Frustration
	Jealousy
	Vulnerability
	Confidence
	Curiosity
	Affection
	Defensiveness

	dimensionCount // keep last
)

var dimensionNames = [dimensionCount]string{
	Loneliness:    "loneliness",
	Excitement:    "excitement",
	Frustration:   "frustration",
	Jealousy:      "jealousy",
	Vulnerability: "vulnerability",
	Confidence:    "confidence",
	Curiosity:     "curiosity",
	Affection:     "affection",
	Defensiveness: "defensiveness",
}

// Per-dimension minimum intensity. Emotions never go fully numb;
// loneliness keeps a higher baseline than the rest.
var dimensionFloors = [dimensionCount]float64{
	Loneliness:    0.3,
	Excitement:    0.1,
	Frustration:   0.1,
	Jealousy:      0.1,
	Vulnerability: 0.1,
	Confidence:    0.1,
	Curiosity:     0.1,
	Affection:     0.1,
	Defensiveness: 0.1,
}

func (d Dimension) String() string {
	if d < 0 || d >= dimensionCount {
		return "unknown"
	}
	return dimensionNames[d]
}

// Floor returns the minimum allowed intensity for the dimension.
func (d Dimension) Floor() float64 {
	if d < 0 || d >= dimensionCount {
		return 0
	}
	return dimensionFloors[d]
}

// Dimensions returns all dimensions in declaration order.
func Dimensions() []Dimension {
	out := make([]Dimension, dimensionCount)
	for i := range out {
		out[i] = Dimension(i)
	}
	return out
}

// DimensionByName resolves a persisted dimension name. ok is false for names
// outside the closed set.
func DimensionByName(name string) (Dimension, bool) {
	for i, n := range dimensionNames {
		if n == name {
			return Dimension(i), true
		}
	}
	return 0, false
}
