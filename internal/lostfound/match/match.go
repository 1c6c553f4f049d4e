// Package match turns a similarity score into a match decision.
package match

import (
	"errors"
	"math"

	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/lostfound/domain"
)

// Threshold is the minimum similarity, in percent, that counts as a match.
const Threshold = 60.0

type Result struct {
	Match bool
}

func (r Result) Decision() domain.Decision {
	if r.Match {
		return domain.DecisionMatch
	}
	return domain.DecisionNoMatch
}

// Decide reports a match iff similarity >= Threshold.
func Decide(similarity float64) Result {
	return Result{Match: similarity >= Threshold}
}

// InRange reports whether similarity is a finite percentage in [0, 100].
// NaN fails every comparison and so is never in range.
func InRange(similarity float64) bool {
	return similarity >= 0 && similarity <= 100
}

// RemapCosine maps a cosine in [-1, 1] onto a percentage in [0, 100] with two
// decimals. Inputs outside the range are clamped first.
func RemapCosine(cosine float64) float64 {
	c := math.Max(-1, math.Min(1, cosine))
	return math.Round(((c+1)/2)*10000) / 100
}

var (
	ErrLengthMismatch = errors.New("vectors differ in length")
	ErrZeroVector     = errors.New("zero-norm vector")
	ErrNonFinite      = errors.New("vector yields a non-finite cosine")
)

// CosineSimilarity of two equal-length vectors, clamped to [-1, 1] to absorb
// float rounding.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) || len(a) == 0 {
		return 0, ErrLengthMismatch
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0, ErrZeroVector
	}
	cos := dot / (math.Sqrt(na) * math.Sqrt(nb))
	if math.IsNaN(cos) || math.IsInf(cos, 0) {
		return 0, ErrNonFinite
	}
	return math.Max(-1, math.Min(1, cos)), nil
}
