package stats

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// VIFCap is the reported variance inflation factor when the regression
// R-squared indicates near-perfect collinearity.
const VIFCap = 999.99

// PearsonTest computes the Pearson correlation between x and y together
// with the two-sided p-value from the t distribution with n-2 degrees of
// freedom. Requires at least 3 paired observations.
func PearsonTest(x, y []float64) (r, p float64, err error) {
	n := len(x)
	if n != len(y) {
		return 0, 0, fmt.Errorf("length mismatch: %d vs %d", n, len(y))
	}
	if n < 3 {
		return 0, 0, fmt.Errorf("need at least 3 observations, got %d", n)
	}

	r = Pearson(x, y)
	if math.Abs(r) >= 1 {
		return r, 0, nil
	}

	t := r * math.Sqrt(float64(n-2)/(1-r*r))
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(n - 2)}
	p = 2 * dist.Survival(math.Abs(t))
	return r, p, nil
}

// OneWayANOVA runs a one-way analysis of variance across the groups and
// returns the F statistic and p-value. Requires at least 2 groups and at
// least one more observation than groups in total. Zero within-group
// variance with differing group means leaves F undefined and returns an
// error.
func OneWayANOVA(groups [][]float64) (f, p float64, err error) {
	k := len(groups)
	if k < 2 {
		return 0, 0, fmt.Errorf("need at least 2 groups, got %d", k)
	}

	total := 0
	grandSum := 0.0
	for _, g := range groups {
		if len(g) == 0 {
			return 0, 0, fmt.Errorf("empty group in ANOVA input")
		}
		total += len(g)
		for _, v := range g {
			grandSum += v
		}
	}
	if total <= k {
		return 0, 0, fmt.Errorf("insufficient observations: %d across %d groups", total, k)
	}
	grandMean := grandSum / float64(total)

	ssBetween := 0.0
	ssWithin := 0.0
	for _, g := range groups {
		groupMean := Mean(g)
		d := groupMean - grandMean
		ssBetween += float64(len(g)) * d * d
		for _, v := range g {
			e := v - groupMean
			ssWithin += e * e
		}
	}

	dfBetween := float64(k - 1)
	dfWithin := float64(total - k)
	if ssWithin == 0 {
		if ssBetween == 0 {
			return 0, 1, nil
		}
		// The F statistic is undefined; an infinite F would read as a
		// confirmed group effect when the data cannot support the test.
		return 0, 0, fmt.Errorf("zero within-group variance, F statistic undefined")
	}

	f = (ssBetween / dfBetween) / (ssWithin / dfWithin)
	dist := distuv.F{D1: dfBetween, D2: dfWithin}
	p = dist.Survival(f)
	return f, p, nil
}

// OLSRSquared fits y = b0 + b1*x1 + ... + bk*xk by ordinary least squares
// and returns the coefficient of determination. predictors holds one
// column slice per regressor, all the same length as y.
func OLSRSquared(predictors [][]float64, y []float64) (float64, error) {
	n := len(y)
	k := len(predictors)
	if k == 0 {
		return 0, fmt.Errorf("no predictors")
	}
	for i, col := range predictors {
		if len(col) != n {
			return 0, fmt.Errorf("predictor %d length %d, want %d", i, len(col), n)
		}
	}
	if n <= k+1 {
		return 0, fmt.Errorf("insufficient observations: %d for %d predictors", n, k)
	}

	design := mat.NewDense(n, k+1, nil)
	for i := 0; i < n; i++ {
		design.Set(i, 0, 1)
		for j, col := range predictors {
			design.Set(i, j+1, col[i])
		}
	}
	response := mat.NewVecDense(n, append([]float64(nil), y...))

	var coef mat.VecDense
	if err := coef.SolveVec(design, response); err != nil {
		return 0, fmt.Errorf("least squares solve: %w", err)
	}

	var fitted mat.VecDense
	fitted.MulVec(design, &coef)

	meanY := Mean(y)
	ssRes := 0.0
	ssTot := 0.0
	for i := 0; i < n; i++ {
		r := y[i] - fitted.AtVec(i)
		ssRes += r * r
		d := y[i] - meanY
		ssTot += d * d
	}
	if ssTot == 0 {
		return 0, fmt.Errorf("zero variance in response")
	}
	return 1 - ssRes/ssTot, nil
}

// VIF converts the R-squared of a regression of one component on the
// remaining components into a variance inflation factor, capped at
// VIFCap for near-perfect collinearity. VIF is always >= 1.
func VIF(rSquared float64) float64 {
	if rSquared >= 0.9999 {
		return VIFCap
	}
	if rSquared < 0 {
		rSquared = 0
	}
	return 1 / (1 - rSquared)
}

// LinearDetrend subtracts the ordinary least squares line fitted against
// the index 0..n-1 and returns the residuals.
func LinearDetrend(y []float64) []float64 {
	n := len(y)
	residuals := make([]float64, n)
	if n < 2 {
		copy(residuals, y)
		return residuals
	}

	x := make([]float64, n)
	for i := range x {
		x[i] = float64(i)
	}
	intercept, slope := stat.LinearRegression(x, y, nil, false)
	for i := range y {
		residuals[i] = y[i] - (intercept + slope*x[i])
	}
	return residuals
}
