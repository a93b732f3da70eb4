// Package portfolio records the per-tick state of a strategy's portfolio as
// append-only, time-keyed series.
package portfolio

import (
	"sort"
	"time"

	"cppi/internal/domain"
)

// Point is one entry of a Series.
type Point struct {
	Time  time.Time
	Value float64
}

// Series is an append-only sequence of values keyed by strictly increasing
// times. The most recent entry is available without scanning.
type Series struct {
	points []Point
}

// Append records v at t. t must be strictly after the last recorded time.
func (s *Series) Append(t time.Time, v float64) error {
	if n := len(s.points); n > 0 && !t.After(s.points[n-1].Time) {
		return &domain.CausalityError{Current: s.points[n-1].Time, Next: t}
	}
	s.points = append(s.points, Point{Time: t, Value: v})
	return nil
}

// Last returns the most recently recorded entry.
func (s *Series) Last() (Point, bool) {
	if len(s.points) == 0 {
		return Point{}, false
	}
	return s.points[len(s.points)-1], true
}

// First returns the earliest recorded entry.
func (s *Series) First() (Point, bool) {
	if len(s.points) == 0 {
		return Point{}, false
	}
	return s.points[0], true
}

// At returns the value recorded exactly at t.
func (s *Series) At(t time.Time) (float64, bool) {
	i := sort.Search(len(s.points), func(i int) bool {
		return !s.points[i].Time.Before(t)
	})
	if i < len(s.points) && s.points[i].Time.Equal(t) {
		return s.points[i].Value, true
	}
	return 0, false
}

// Len returns the number of entries.
func (s *Series) Len() int {
	return len(s.points)
}

// Points returns a copy of all entries in time order.
func (s *Series) Points() []Point {
	out := make([]Point, len(s.points))
	copy(out, s.points)
	return out
}

// Clone returns an independent copy of the series.
func (s *Series) Clone() Series {
	return Series{points: s.Points()}
}
