// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package utils samples random planar site sets for Voronoi diagrams.
package utils

import (
	"math/rand"

	"github.com/golang/geo/r2"
)

const (
	// MinSites and MaxSites bound the number of sampled sites: [MinSites, MaxSites).
	MinSites = 10
	MaxSites = 100
)

// Uniform is the half-open range [Lo, Hi) a coordinate is drawn from.
type Uniform struct {
	Lo, Hi float64
}

// Domain is the sampling range for both coordinates of a site.
var Domain = Uniform{Lo: 0, Hi: 2}

// Sample draws one value from d.
func (d Uniform) Sample(rng *rand.Rand) float64 {
	v := d.Lo + rng.Float64()*(d.Hi-d.Lo)
	// Rounding can land exactly on Hi for wide ranges.
	if v >= d.Hi {
		return d.Lo
	}
	return v
}

// Contains reports whether v lies in [Lo, Hi).
func (d Uniform) Contains(v float64) bool {
	return v >= d.Lo && v < d.Hi
}

// SamplePoint draws a point whose coordinates are independent samples of d.
func SamplePoint(rng *rand.Rand, d Uniform) r2.Point {
	x := d.Sample(rng)
	y := d.Sample(rng)
	return r2.Point{X: x, Y: y}
}

// SampleN draws n points from d. A non-positive n yields an empty set.
func SampleN(rng *rand.Rand, n int, d Uniform) []r2.Point {
	if n <= 0 {
		return []r2.Point{}
	}
	points := make([]r2.Point, n)
	for i := range points {
		points[i] = SamplePoint(rng, d)
	}
	return points
}

// SampleSites draws the site count uniformly from [MinSites, MaxSites) and
// then that many points from d. All draws advance the same generator.
func SampleSites(rng *rand.Rand, d Uniform) []r2.Point {
	n := MinSites + rng.Intn(MaxSites-MinSites)
	return SampleN(rng, n, d)
}

// GenerateRandomPoints generates cnt random points over Domain.
// The seed parameter ensures reproducibility.
func GenerateRandomPoints(cnt int, seed int64) []r2.Point {
	//nolint:gosec
	random := rand.New(rand.NewSource(seed))
	return SampleN(random, cnt, Domain)
}
