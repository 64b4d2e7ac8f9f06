package classify

import "github.com/rotisserie/eris"

// Error taxonomy shared by all three pipelines. Fatal conditions abort the
// run before products are written; low-yield conditions are logged warnings,
// never errors.
var (
	// ErrInputValidation marks a wrong input count or incompatible regions.
	ErrInputValidation = eris.New("input validation failed")
	// ErrMissingLayer marks an absent required input layer.
	ErrMissingLayer = eris.New("required input layer missing")
	// ErrInsufficientData marks a statistic requested over an empty masked
	// region.
	ErrInsufficientData = eris.New("no valid cells for statistic")
)
