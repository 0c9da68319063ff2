package swarm

import (
	"math/rand"

	"github.com/sekai/sekai/internal/mathx"
)

// GaussianSwarm returns n positions with every coordinate drawn from a
// normal distribution around center.
func GaussianSwarm(rng *rand.Rand, n int, center mathx.Point, stddev float64) []mathx.Point {
	out := make([]mathx.Point, n)
	for i := range out {
		p := make(mathx.Point, len(center))
		for d := range p {
			p[d] = center[d] + rng.NormFloat64()*stddev
		}
		out[i] = p
	}
	return out
}

// UniformSwarm returns n positions uniformly spread in [center-half, center+half].
func UniformSwarm(rng *rand.Rand, n int, center mathx.Point, half float64) []mathx.Point {
	out := make([]mathx.Point, n)
	for i := range out {
		p := make(mathx.Point, len(center))
		for d := range p {
			p[d] = center[d] + (rng.Float64()*2-1)*half
		}
		out[i] = p
	}
	return out
}

// randomDirection returns a unit vector in dims dimensions.
func randomDirection(rng *rand.Rand, dims int) mathx.Point {
	for {
		v := make(mathx.Point, dims)
		for d := range v {
			v[d] = rng.NormFloat64()
		}
		if m := mathx.Magnitude(v); m > 1e-12 {
			return mathx.Scale(v, 1/m)
		}
	}
}
