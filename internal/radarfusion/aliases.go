package radarfusion

import "github.com/adascore/controller/internal/numeric"

var (
	interp = numeric.Interp
	clamp  = numeric.Clamp
)
