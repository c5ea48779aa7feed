package actuation

import "github.com/adascore/controller/internal/numeric"

// Local aliases for the shared numeric helpers, matching the terse call
// sites the rest of this package uses throughout the longitudinal and
// lateral control math.
var (
	interp    = numeric.Interp
	clamp     = numeric.Clamp
	rateLimit = numeric.RateLimit
	roundI    = numeric.RoundHalfAwayFromZero
)
