package spatial

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRect_EmptyIsIdentity(t *testing.T) {
	empty := EmptyRect()
	r := NewRect(Point{X: 3, Y: 1}, Point{X: 1, Y: 4})

	require.True(t, empty.IsEmpty())
	require.Equal(t, 0.0, empty.Area())
	require.Equal(t, r, empty.Union(r))
	require.Equal(t, r, r.Union(empty))
	require.True(t, empty.Union(empty).IsEmpty())

	require.False(t, empty.Intersects(r))
	require.False(t, r.Intersects(empty))
	require.False(t, empty.ContainsPoint(Point{}))
	require.False(t, empty.Contains(r))
}

func TestRect_NewRectNormalizesCorners(t *testing.T) {
	r := NewRect(Point{X: 5, Y: -1}, Point{X: -2, Y: 7})
	require.Equal(t, Point{X: -2, Y: -1}, r.Min)
	require.Equal(t, Point{X: 5, Y: 7}, r.Max)
	require.Equal(t, 56.0, r.Area())
}

func TestRect_Enlargement(t *testing.T) {
	r := NewRect(Point{X: 0, Y: 0}, Point{X: 2, Y: 2})

	require.Equal(t, 0.0, r.EnlargementPoint(Point{X: 1, Y: 1}), "inside point costs nothing")
	require.Equal(t, 2.0, r.EnlargementPoint(Point{X: 3, Y: 1}))
	require.Equal(t, 0.0, r.Enlargement(EmptyRect()))

	other := NewRect(Point{X: 5, Y: 5}, Point{X: 6, Y: 7})
	require.Equal(t, other.Area(), EmptyRect().Enlargement(other), "growing from nothing costs the argument's area")
	require.Equal(t, 0.0, EmptyRect().Enlargement(EmptyRect()))
	require.Equal(t, 0.0, EmptyRect().EnlargementPoint(Point{X: 1, Y: 1}), "a single point has no area")
}

func TestRect_IntersectsClosedIntervals(t *testing.T) {
	a := NewRect(Point{X: 0, Y: 0}, Point{X: 1, Y: 1})

	require.True(t, a.Intersects(NewRect(Point{X: 1, Y: 1}, Point{X: 2, Y: 2})), "touching corners intersect")
	require.True(t, a.Intersects(NewRect(Point{X: 1, Y: -5}, Point{X: 3, Y: 5})), "touching edges intersect")
	require.False(t, a.Intersects(NewRect(Point{X: 1.0001, Y: 0}, Point{X: 2, Y: 1})))
	require.False(t, a.Intersects(NewRect(Point{X: 0, Y: -2}, Point{X: 1, Y: -0.5})))
	require.True(t, a.Intersects(PointRect(Point{X: 0.5, Y: 0.5})))
}

func TestRect_ContainsPoint(t *testing.T) {
	r := NewRect(Point{X: -1, Y: -1}, Point{X: 1, Y: 1})

	require.True(t, r.ContainsPoint(Point{X: 1, Y: 1}))
	require.True(t, r.ContainsPoint(Point{X: -1, Y: 0}))
	require.False(t, r.ContainsPoint(Point{X: 1.5, Y: 0}))
	require.False(t, r.ContainsPoint(Point{X: math.NaN(), Y: 0}))

	degenerate := PointRect(Point{X: 2, Y: 3})
	require.True(t, degenerate.ContainsPoint(Point{X: 2, Y: 3}))
	require.False(t, degenerate.ContainsPoint(Point{X: 2, Y: 3.000001}))
}

func TestRect_MinDist(t *testing.T) {
	r := NewRect(Point{X: 0, Y: 0}, Point{X: 2, Y: 2})

	require.Equal(t, 0.0, r.MinDist(Point{X: 1, Y: 1}))
	require.Equal(t, 0.0, r.MinDist(Point{X: 2, Y: 0}))
	require.Equal(t, 3.0, r.MinDist(Point{X: 5, Y: 1}))
	require.Equal(t, 25.0, r.MinDistSq(Point{X: 5, Y: 6}))
	require.Equal(t, 5.0, r.MinDist(Point{X: -3, Y: -4}))
	require.True(t, math.IsInf(EmptyRect().MinDistSq(Point{}), 1))
}

func TestPoint_IsValid(t *testing.T) {
	require.True(t, Point{X: 1, Y: -2}.IsValid())
	require.False(t, Point{X: math.NaN(), Y: 0}.IsValid())
	require.False(t, Point{X: 0, Y: math.Inf(-1)}.IsValid())
	require.Equal(t, 5.0, Point{X: 0, Y: 0}.Dist(Point{X: 3, Y: 4}))
}
