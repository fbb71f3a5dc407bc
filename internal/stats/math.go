package stats

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// ErrInvalidPercentile is returned when a percentile argument is NaN or outside [0, 100].
var ErrInvalidPercentile = errors.New("invalid percentile")

// Percentile returns the p-th percentile of values using linear interpolation
// between closest ranks (the PERCENTILE.INC method), rounded to 2 decimals.
// An empty sample yields 0.
func Percentile(p float64, values []float64) (float64, error) {
	if math.IsNaN(p) {
		return 0, fmt.Errorf("%w: percentile must be a number, got %v (%T)", ErrInvalidPercentile, p, p)
	}
	if p < 0 {
		return 0, fmt.Errorf("%w: percentile must be >= 0, got %v (%T)", ErrInvalidPercentile, p, p)
	}
	if p > 100 {
		return 0, fmt.Errorf("%w: percentile must be <= 100, got %v (%T)", ErrInvalidPercentile, p, p)
	}
	if len(values) == 0 {
		return 0, nil
	}

	sorted := sortedCopy(values)
	n := len(sorted)

	if p == 0 {
		return RoundToDecimalPlaces(sorted[0], 2), nil
	}
	if p == 100 {
		return RoundToDecimalPlaces(sorted[n-1], 2), nil
	}

	rank := (p/100)*float64(n-1) + 1
	whole, frac := math.Modf(rank)
	lowerIdx := int(whole) - 1
	upperIdx := int(whole)
	if upperIdx > n-1 {
		// single element sample
		upperIdx = 0
	}

	lower := sorted[lowerIdx]
	upper := sorted[upperIdx]
	return RoundToDecimalPlaces(lower+frac*(upper-lower), 2), nil
}

// MustPercentile is Percentile for call sites that pass a compile-time constant p.
func MustPercentile(p float64, values []float64) float64 {
	v, err := Percentile(p, values)
	if err != nil {
		panic(err)
	}
	return v
}

// PercentRank returns the relative standing of target within entries in [0, 1].
//
// The definition is recursive: a target that falls between two entries takes a
// virtual position interpolated between the ranks of its nearest lower and
// higher neighbours, and each of those ranks is itself a PercentRank call on an
// exact entry. The recursion is one level deep because exact entries hit the
// countBelow/(n-1) base case.
func PercentRank(entries []float64, target float64) float64 {
	if len(entries) == 0 {
		return 0
	}
	sorted := sortedCopy(entries)
	n := len(sorted)

	if target <= sorted[0] {
		return 0
	}
	if target >= sorted[n-1] {
		return 1
	}

	idx, found := slices.BinarySearch(sorted, target)
	if found {
		// idx is the first occurrence, so it counts the entries strictly below.
		return float64(idx) / float64(n-1)
	}

	lower := sorted[idx-1]
	higher := sorted[idx]
	lowerRank := PercentRank(sorted, lower)
	higherRank := PercentRank(sorted, higher)

	position := (target - lower) / (higher - lower)
	return lowerRank + position*(higherRank-lowerRank)
}

// RoundToDecimalPlaces rounds num by shifting the decimal exponent in its string
// form, so values like 1.005 round to 1.01 instead of tripping on binary artifacts.
// Halves round towards positive infinity: -100.5 becomes -100.
func RoundToDecimalPlaces(num float64, places int) float64 {
	if math.IsNaN(num) || math.IsInf(num, 0) {
		return num
	}

	shifted, err := shiftExponent(num, places)
	if err != nil {
		p := math.Pow(10, float64(places))
		return roundHalfUp(num*p) / p
	}
	rounded := roundHalfUp(shifted)
	out, err := shiftExponent(rounded, -places)
	if err != nil {
		return rounded / math.Pow(10, float64(places))
	}
	return out
}

func roundHalfUp(x float64) float64 {
	return math.Floor(x + 0.5)
}

func shiftExponent(num float64, by int) (float64, error) {
	s := strconv.FormatFloat(num, 'e', -1, 64)
	mantissa, exp, _ := strings.Cut(s, "e")
	e, err := strconv.Atoi(exp)
	if err != nil {
		return 0, err
	}
	return strconv.ParseFloat(mantissa+"e"+strconv.Itoa(e+by), 64)
}

// Mean returns the arithmetic mean, or 0 for an empty sample.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// PopulationStdDev returns the population standard deviation, or 0 for an empty sample.
func PopulationStdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := Mean(values)
	sq := 0.0
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(values)))
}

// Modes returns every value sharing the highest frequency, ascending.
func Modes(values []float64) []float64 {
	if len(values) == 0 {
		return []float64{}
	}
	counts := make(map[float64]int)
	best := 0
	for _, v := range values {
		counts[v]++
		if counts[v] > best {
			best = counts[v]
		}
	}
	modes := make([]float64, 0, 1)
	for v, c := range counts {
		if c == best {
			modes = append(modes, v)
		}
	}
	slices.Sort(modes)
	return modes
}

// IntsToFloats converts whole-day durations or counts into a float sample.
func IntsToFloats(values []int) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return out
}

// sortedCopy sorts ascending without touching the input; NaN orders as -Inf.
func sortedCopy(values []float64) []float64 {
	temp := make([]float64, len(values))
	copy(temp, values)
	slices.SortFunc(temp, func(a, b float64) int {
		aNaN, bNaN := math.IsNaN(a), math.IsNaN(b)
		switch {
		case aNaN && bNaN:
			return 0
		case aNaN:
			return -1
		case bNaN:
			return 1
		case a < b:
			return -1
		case a > b:
			return 1
		}
		return 0
	})
	return temp
}
