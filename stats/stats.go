// Package stats summarises numeric fields pulled out of records.
package stats

import (
	"encoding/json"
	"math"
	"slices"
	"strconv"

	"github.com/teranos/jolt/errors"
	"github.com/teranos/jolt/ingest"
)

// ErrNoData is returned when there is nothing to summarise
var ErrNoData = errors.New("no numeric data")

// Summary describes a set of values
type Summary struct {
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Sum    float64 `json:"sum"`
	Mean   float64 `json:"mean"`
	Stddev float64 `json:"stddev"` // population
	P50    float64 `json:"p50"`
	P90    float64 `json:"p90"`
	P95    float64 `json:"p95"`
	P99    float64 `json:"p99"`
}

// Describe computes a Summary over values. The input slice is not modified.
func Describe(values []float64) (Summary, error) {
	if len(values) == 0 {
		return Summary{}, ErrNoData
	}

	sorted := slices.Clone(values)
	slices.Sort(sorted)

	s := Summary{
		Count: len(sorted),
		Min:   sorted[0],
		Max:   sorted[len(sorted)-1],
	}
	for _, v := range sorted {
		s.Sum += v
	}
	s.Mean = s.Sum / float64(s.Count)

	sumSq := 0.0
	for _, v := range sorted {
		diff := v - s.Mean
		sumSq += diff * diff
	}
	s.Stddev = math.Sqrt(sumSq / float64(s.Count))

	s.P50 = Percentile(sorted, 50)
	s.P90 = Percentile(sorted, 90)
	s.P95 = Percentile(sorted, 95)
	s.P99 = Percentile(sorted, 99)
	return s, nil
}

// Percentile returns the p-th percentile of sorted values, interpolating
// linearly between the closest ranks. sorted must be ascending and non-empty.
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	p = math.Max(0, math.Min(100, p))

	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

// Numbers extracts the numeric elements of an array. Nulls are skipped;
// any other non-numeric element is an error.
func Numbers(v any) ([]float64, error) {
	arr, ok := v.([]any)
	if !ok {
		return nil, errors.NewInvalidRequestError("expected an array of numbers, got %s", ingest.TypeName(v))
	}

	out := make([]float64, 0, len(arr))
	for i, item := range arr {
		if item == nil {
			continue
		}
		f, err := toFloat(item)
		if err != nil {
			return nil, errors.Wrapf(err, "element %d", i)
		}
		out = append(out, f)
	}
	return out, nil
}

func toFloat(v any) (float64, error) {
	switch x := v.(type) {
	case json.Number:
		f, err := strconv.ParseFloat(string(x), 64)
		if err != nil {
			return 0, errors.Wrapf(err, "bad number %q", string(x))
		}
		return f, nil
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	default:
		return 0, errors.NewInvalidRequestError("%s is not a number", ingest.TypeName(v))
	}
}
