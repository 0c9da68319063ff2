// Package mathx holds small free functions over fixed-length float vectors.
// All binary functions assume equal lengths; callers check with SameDims.
package mathx

import "math"

// Point is a position in N-dimensional space.
type Point []float64

// Clone returns an independent copy, nil for nil.
func (p Point) Clone() Point {
	if p == nil {
		return nil
	}
	out := make(Point, len(p))
	copy(out, p)
	return out
}

func (p Point) Dims() int { return len(p) }

// Finite reports whether every coordinate is a finite number.
func (p Point) Finite() bool {
	for _, v := range p {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func SameDims(a, b Point) bool { return len(a) == len(b) }

func Add(a, b Point) Point {
	out := make(Point, len(a))
	for i := range a {
		out[i] = a[i] + b[i]
	}
	return out
}

func Sub(a, b Point) Point {
	out := make(Point, len(a))
	for i := range a {
		out[i] = a[i] - b[i]
	}
	return out
}

func Scale(v Point, s float64) Point {
	out := make(Point, len(v))
	for i := range v {
		out[i] = v[i] * s
	}
	return out
}

// DistanceSq is the squared Euclidean distance.
func DistanceSq(a, b Point) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// Distance is sqrt(Σ(a_i-b_i)²).
func Distance(a, b Point) float64 {
	return math.Sqrt(DistanceSq(a, b))
}

func Magnitude(v Point) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

// UnitStep returns the unit vector pointing from `from` to `to`. Coincident
// points yield the zero vector.
func UnitStep(from, to Point) Point {
	d := Distance(from, to)
	if d == 0 {
		return make(Point, len(from))
	}
	return Scale(Sub(to, from), 1/d)
}

func Midpoint(a, b Point) Point {
	out := make(Point, len(a))
	for i := range a {
		out[i] = (a[i] + b[i]) / 2
	}
	return out
}

// Mean is the component-wise average of ps; nil when ps is empty.
func Mean(ps []Point) Point {
	if len(ps) == 0 {
		return nil
	}
	out := make(Point, len(ps[0]))
	for _, p := range ps {
		for i := range out {
			out[i] += p[i]
		}
	}
	return Scale(out, 1/float64(len(ps)))
}
