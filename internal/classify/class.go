// Package classify implements the rule-based land-cover classification core:
// adaptive percentile thresholds, the per-class rule table, candidate raster
// evaluation and the mutual-exclusivity merge.
package classify

// Class is a canonical land-cover class code.
type Class int

// Canonical class codes. MixedBuiltUp is a transitional class that never
// appears in final 6-class products.
const (
	Forest        Class = 10
	LowVegetation Class = 20
	Water         Class = 30
	BuiltUp       Class = 40
	BareSoil      Class = 50
	Agriculture   Class = 60
	MixedBuiltUp  Class = 70
)

// All lists the seven classes in evaluation order. BuiltUp precedes
// MixedBuiltUp; the mixed rule excludes pixels the confident rule claimed,
// so the order is load-bearing.
var All = []Class{Forest, LowVegetation, Water, BuiltUp, MixedBuiltUp, BareSoil, Agriculture}

// Final lists the six classes of post-processed products.
var Final = []Class{Forest, LowVegetation, Water, BuiltUp, BareSoil, Agriculture}

// Name returns the human-readable class label used in vector attributes.
func (c Class) Name() string {
	switch c {
	case Forest:
		return "forest"
	case LowVegetation:
		return "low vegetation"
	case Water:
		return "water"
	case BuiltUp:
		return "built-up"
	case BareSoil:
		return "bare soil"
	case Agriculture:
		return "agriculture"
	case MixedBuiltUp:
		return "mixed built-up"
	}
	return "unknown"
}

// ClassByCode returns the class for an integer code.
func ClassByCode(code int) (Class, bool) {
	switch Class(code) {
	case Forest, LowVegetation, Water, BuiltUp, BareSoil, Agriculture, MixedBuiltUp:
		return Class(code), true
	}
	return 0, false
}
