// Package anndata holds the in-memory annotation model: transcriptions own
// tiers, tiers own time-sorted annotations, annotations carry a location and
// typed labels.
package anndata

import "fmt"

// Point is a time value in seconds with an uncertainty radius.
// Two points are equal iff their midpoints are equal.
type Point struct {
	Midpoint float64
	Radius   float64
}

func NewPoint(midpoint, radius float64) Point {
	if radius < 0 {
		radius = 0
	}
	return Point{Midpoint: midpoint, Radius: radius}
}

func (p Point) Equal(o Point) bool { return p.Midpoint == o.Midpoint }

func (p Point) Lowest() float64  { return p.Midpoint - p.Radius }
func (p Point) Highest() float64 { return p.Midpoint + p.Radius }

// InWindow reports whether any part of the point lies in [start, end].
func (p Point) InWindow(start, end float64) bool {
	return p.Highest() >= start && p.Lowest() <= end
}

func (p Point) String() string {
	if p.Radius == 0 {
		return fmt.Sprintf("%.3f", p.Midpoint)
	}
	return fmt.Sprintf("%.3f±%.3f", p.Midpoint, p.Radius)
}

// Location is either a single Point (IsPoint, End mirrors Begin) or an
// interval [Begin, End].
type Location struct {
	Begin   Point
	End     Point
	IsPoint bool
}

func PointLocation(p Point) Location {
	return Location{Begin: p, End: p, IsPoint: true}
}

func IntervalLocation(begin, end Point) Location {
	return Location{Begin: begin, End: end}
}

// Interval is a shorthand for an interval of radius-r points.
func Interval(begin, end, radius float64) Location {
	return IntervalLocation(NewPoint(begin, radius), NewPoint(end, radius))
}

func (l Location) Kind() Kind {
	if l.IsPoint {
		return KindPoint
	}
	return KindInterval
}

func (l Location) Validate() error {
	if l.Begin.Radius < 0 || l.End.Radius < 0 {
		return fmt.Errorf("%w: negative radius", ErrInvalidLocation)
	}
	if l.IsPoint {
		return nil
	}
	if l.Begin.Midpoint > l.End.Midpoint {
		return fmt.Errorf("%w: begin %s is after end %s", ErrInverted, l.Begin, l.End)
	}
	return nil
}

// Center is the middle of the location, used to break click ambiguities.
func (l Location) Center() float64 {
	return (l.Begin.Midpoint + l.End.Midpoint) / 2
}

func (l Location) Duration() float64 {
	return l.End.Midpoint - l.Begin.Midpoint
}

// Overlaps reports whether the location, widened by its radii, meets [start, end].
func (l Location) Overlaps(start, end float64) bool {
	return l.Begin.Lowest() <= end && l.End.Highest() >= start
}

// HasBoundary reports whether p is one of the endpoints.
func (l Location) HasBoundary(p Point) bool {
	return l.Begin.Equal(p) || l.End.Equal(p)
}

func (l Location) String() string {
	if l.IsPoint {
		return l.Begin.String()
	}
	return "[" + l.Begin.String() + ", " + l.End.String() + "]"
}
