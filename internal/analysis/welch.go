package analysis

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"retail-eda/internal/models"
)

// Alpha is the significance threshold used for the member verdict.
const Alpha = 0.05

var ErrInsufficientData = errors.New("insufficient data for t-test")

// WelchTTest runs a two-sided Welch's t-test comparing the means of a and b
// without assuming equal variances. a is reported as the member group and b as
// the non-member group.
func WelchTTest(a, b []float64, alpha float64) (models.TTestResult, error) {
	if len(a) < 2 || len(b) < 2 {
		return models.TTestResult{}, fmt.Errorf("%w: need at least 2 observations per group, got %d and %d",
			ErrInsufficientData, len(a), len(b))
	}

	meanA, varA := stat.MeanVariance(a, nil)
	meanB, varB := stat.MeanVariance(b, nil)
	na, nb := float64(len(a)), float64(len(b))

	seA := varA / na
	seB := varB / nb
	se := math.Sqrt(seA + seB)
	if se == 0 || math.IsNaN(se) {
		return models.TTestResult{}, fmt.Errorf("%w: zero variance in both groups", ErrInsufficientData)
	}

	t := (meanA - meanB) / se
	// Welch-Satterthwaite
	df := (seA + seB) * (seA + seB) / (seA*seA/(na-1) + seB*seB/(nb-1))

	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	p := 2 * dist.CDF(-math.Abs(t))

	return models.TTestResult{
		Statistic:        t,
		DegreesOfFreedom: df,
		PValue:           p,
		Alpha:            alpha,
		Significant:      p < alpha,
		MemberMean:       meanA,
		NonMemberMean:    meanB,
		MemberCount:      len(a),
		NonMemberCount:   len(b),
	}, nil
}

// Verdict renders the human-readable conclusion of a member t-test.
func Verdict(res models.TTestResult) string {
	if res.Significant {
		return "Result: reject H0. There is a statistically significant difference."
	}
	return "Result: fail to reject H0. There is no significant difference."
}
