// Package stats keeps running statistics for self-play results.
package stats

import (
	"io"
	"math"

	"github.com/aybabtme/uniplot/histogram"
)

const (
	Epsilon = 1e-6
)

func FuzzyEqual(a, b float64) bool {
	return math.Abs(a-b) < Epsilon
}

// Statistic is a running mean and variance (Welford's algorithm).
type Statistic struct {
	n    int
	last float64
	mean float64
	// m2 is the sum of squared distances from the mean.
	m2 float64
}

func (s *Statistic) Push(val float64) {
	s.last = val
	s.n++
	delta := val - s.mean
	s.mean += delta / float64(s.n)
	s.m2 += delta * (val - s.mean)
}

func (s *Statistic) Mean() float64 {
	return s.mean
}

func (s *Statistic) Variance() float64 {
	if s.n <= 1 {
		return 0.0
	}
	return s.m2 / float64(s.n-1)
}

func (s *Statistic) Stdev() float64 {
	return math.Sqrt(s.Variance())
}

func (s *Statistic) Last() float64 {
	return s.last
}

// StandardError returns the standard error of the mean.
func (s *Statistic) StandardError() float64 {
	if s.n == 0 {
		return 0.0
	}
	return math.Sqrt(s.Variance() / float64(s.n))
}

func (s *Statistic) Iterations() int {
	return s.n
}

// Proportion returns the share of successes out of n, and the half width
// of its normal confidence interval at the given confidence, in percent.
func Proportion(successes, n int, confidence float64) (float64, float64) {
	if n == 0 {
		return 0, 0
	}
	p := float64(successes) / float64(n)
	return p, ZVal(confidence) * math.Sqrt(p*(1-p)/float64(n))
}

// WriteHistogram draws data as a text histogram with the given number of
// bins, scaled to width characters.
func WriteHistogram(w io.Writer, data []float64, bins, width int) error {
	if len(data) == 0 {
		_, err := io.WriteString(w, "(no data)\n")
		return err
	}
	h := histogram.Hist(bins, data)
	return histogram.Fprint(w, h, histogram.Linear(width))
}
