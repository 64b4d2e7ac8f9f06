package classify

// Params are the fixed (non-adaptive) constants of the rule table: buffer
// distances, reflectance/index ceilings and the source landcover codes per
// class. Percentile thresholds are deliberately absent; those are recomputed
// from the data every run.
type Params struct {
	// ReflectanceThreshold marks a pixel "bright" when all three visible
	// bands exceed it. Bright pixels are excluded from the water class.
	ReflectanceThreshold float64
	// NDWIThreshold is the fixed high cutoff of the water rule.
	NDWIThreshold float64
	// NDVIMaxCeiling bounds the confident built-up rule.
	NDVIMaxCeiling float64
	// NDVIMaxCeilingMixed is the relaxed bound of the mixed built-up rule.
	NDVIMaxCeilingMixed float64
	// NDVIRangeCeiling bounds the bare-soil rule.
	NDVIRangeCeiling float64
	// ElevationCeiling excludes high-altitude pixels from built-up rules.
	ElevationCeiling float64

	RoadBufferM           float64
	BuildingBufferM       float64
	BuildingBufferSoilM   float64
	WaterBufferM          float64
	ImperviousnessBufferM float64
	// ImperviousnessResM is the coarser resolution the imperviousness buffer
	// is computed at before being restored to the working region.
	ImperviousnessResM float64

	ForestCodes      []int
	LowVegCodes      []int
	AgricultureCodes []int

	// Percentiles of the adaptive thresholds.
	ForestNDVIMaxPct  float64
	LowVegNDVIMinPct  float64
	AgrNDVIRangePct   float64

	// Minimum mapped areas (hectares) per class candidate; zero disables
	// the filter.
	ForestMinAreaHa   float64
	LowVegMinAreaHa   float64
	BareSoilMinAreaHa float64
	AgrMinAreaHa      float64
}

// DefaultParams returns the production constants.
func DefaultParams() Params {
	return Params{
		ReflectanceThreshold:  500,
		NDWIThreshold:         130,
		NDVIMaxCeiling:        200,
		NDVIMaxCeilingMixed:   220,
		NDVIRangeCeiling:      50,
		ElevationCeiling:      1000,
		RoadBufferM:           10,
		BuildingBufferM:       100,
		BuildingBufferSoilM:   50,
		WaterBufferM:          50,
		ImperviousnessBufferM: 100,
		ImperviousnessResM:    100,
		ForestCodes:           []int{82, 83},
		LowVegCodes:           []int{102},
		AgricultureCodes:      []int{73, 75},
		ForestNDVIMaxPct:      5,
		LowVegNDVIMinPct:      25,
		AgrNDVIRangePct:       25,
		ForestMinAreaHa:       1,
		LowVegMinAreaHa:       1,
		BareSoilMinAreaHa:     0.5,
		AgrMinAreaHa:          2,
	}
}
