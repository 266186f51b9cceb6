package perf

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"
)

// linearFit is an ordinary least squares fit of y = Intercept + Slope*x.
type linearFit struct {
	Intercept float64
	Slope     float64
	SSR       float64
	N         int
}

// fitLinear regresses y on x. The fit needs strictly more observations
// than params and a regressor that is not constant.
func fitLinear(x, y []float64, params int) (linearFit, error) {
	if len(x) != len(y) {
		return linearFit{}, errors.Errorf("regressor has %d values but response has %d", len(x), len(y))
	}
	if len(x) <= params {
		return linearFit{}, errors.Wrapf(ErrInsufficientData, "regression on %d observations needs more than %d", len(x), params)
	}

	spread := false
	for _, v := range x[1:] {
		if v != x[0] {
			spread = true
			break
		}
	}
	if !spread {
		return linearFit{}, errors.Wrap(ErrInsufficientData, "regressor is constant")
	}

	fit := linearFit{N: len(x)}
	fit.Intercept, fit.Slope = stat.LinearRegression(x, y, nil, false)
	for i := range x {
		residual := y[i] - (fit.Intercept + fit.Slope*x[i])
		fit.SSR += residual * residual
	}

	return fit, nil
}
