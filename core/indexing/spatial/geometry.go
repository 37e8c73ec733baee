package spatial

import (
	"fmt"
	"math"
)

// Point is an immutable 2-D coordinate pair.
type Point struct {
	X, Y float64
}

// String implements fmt.Stringer.
func (p Point) String() string {
	return fmt.Sprintf("(%g, %g)", p.X, p.Y)
}

// IsValid reports whether both coordinates are finite numbers.
func (p Point) IsValid() bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}

// DistSq returns the squared Euclidean distance between p and q.
func (p Point) DistSq(q Point) float64 {
	dx := p.X - q.X
	dy := p.Y - q.Y
	return dx*dx + dy*dy
}

// Dist returns the Euclidean distance between p and q.
func (p Point) Dist(q Point) float64 {
	return math.Sqrt(p.DistSq(q))
}

// Rect represents a Minimum Bounding Rectangle (MBR) in 2D space.
// Min holds the smallest x and y, Max the largest.
type Rect struct {
	Min, Max Point
}

// EmptyRect returns the invalid rectangle used as the bound of an empty node.
// It is the identity element of Union and never intersects or contains anything.
func EmptyRect() Rect {
	inf := math.Inf(1)
	return Rect{
		Min: Point{X: inf, Y: inf},
		Max: Point{X: -inf, Y: -inf},
	}
}

// NewRect builds the rectangle spanned by two corner points in any order.
func NewRect(a, b Point) Rect {
	return Rect{
		Min: Point{X: math.Min(a.X, b.X), Y: math.Min(a.Y, b.Y)},
		Max: Point{X: math.Max(a.X, b.X), Y: math.Max(a.Y, b.Y)},
	}
}

// PointRect returns the degenerate rectangle covering exactly p.
func PointRect(p Point) Rect {
	return Rect{Min: p, Max: p}
}

// IsEmpty reports whether r is the invalid rectangle (or otherwise inverted).
func (r Rect) IsEmpty() bool {
	return !(r.Min.X <= r.Max.X && r.Min.Y <= r.Max.Y)
}

// String implements fmt.Stringer.
func (r Rect) String() string {
	if r.IsEmpty() {
		return "[empty]"
	}
	return fmt.Sprintf("[%v - %v]", r.Min, r.Max)
}

// Area calculates the area of the rectangle.
func (r Rect) Area() float64 {
	if r.IsEmpty() {
		return 0 // Invalid rectangle
	}
	return (r.Max.X - r.Min.X) * (r.Max.Y - r.Min.Y)
}

// Union returns the MBR that encloses both rectangles.
func (r Rect) Union(other Rect) Rect {
	if r.IsEmpty() {
		return other
	}
	if other.IsEmpty() {
		return r
	}
	return Rect{
		Min: Point{X: math.Min(r.Min.X, other.Min.X), Y: math.Min(r.Min.Y, other.Min.Y)},
		Max: Point{X: math.Max(r.Max.X, other.Max.X), Y: math.Max(r.Max.Y, other.Max.Y)},
	}
}

// Extend returns the MBR that encloses r and p.
func (r Rect) Extend(p Point) Rect {
	return r.Union(PointRect(p))
}

// Enlargement calculates the increase in area if this rect were to be enlarged
// to include another rect. Enlarging the empty rect costs the other rect's area.
func (r Rect) Enlargement(other Rect) float64 {
	if other.IsEmpty() {
		return 0
	}
	return r.Union(other).Area() - r.Area()
}

// EnlargementPoint is Enlargement against the degenerate rectangle of p.
func (r Rect) EnlargementPoint(p Point) float64 {
	return r.Enlargement(PointRect(p))
}

// Intersects checks if two rectangles intersect. Touching edges count.
func (r Rect) Intersects(other Rect) bool {
	if r.IsEmpty() || other.IsEmpty() {
		return false
	}
	return r.Min.X <= other.Max.X && r.Max.X >= other.Min.X &&
		r.Min.Y <= other.Max.Y && r.Max.Y >= other.Min.Y
}

// ContainsPoint checks closed-interval membership of p on both axes.
func (r Rect) ContainsPoint(p Point) bool {
	if r.IsEmpty() {
		return false
	}
	return r.Min.X <= p.X && p.X <= r.Max.X &&
		r.Min.Y <= p.Y && p.Y <= r.Max.Y
}

// Contains checks if the rectangle contains another rectangle.
func (r Rect) Contains(other Rect) bool {
	if r.IsEmpty() || other.IsEmpty() {
		return false
	}
	return r.Min.X <= other.Min.X && r.Max.X >= other.Max.X &&
		r.Min.Y <= other.Min.Y && r.Max.Y >= other.Max.Y
}

// MinDistSq returns the squared MINDIST from p to r: zero when p is inside,
// otherwise the squared length of the per-axis clamped delta. The empty rect is
// infinitely far away.
func (r Rect) MinDistSq(p Point) float64 {
	if r.IsEmpty() {
		return math.Inf(1)
	}
	dx := axisDist(p.X, r.Min.X, r.Max.X)
	dy := axisDist(p.Y, r.Min.Y, r.Max.Y)
	return dx*dx + dy*dy
}

// MinDist returns the exact Euclidean MINDIST from p to r.
func (r Rect) MinDist(p Point) float64 {
	return math.Sqrt(r.MinDistSq(p))
}

func axisDist(k, min, max float64) float64 {
	if k < min {
		return min - k
	}
	if k <= max {
		return 0
	}
	return k - max
}
