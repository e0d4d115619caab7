// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package app wires the sampler, the diagram and the renderer into the
// single render every host performs.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/2dChan/glvoronoi"
	"github.com/2dChan/glvoronoi/render"
	"github.com/2dChan/glvoronoi/utils"
	"github.com/golang/geo/r2"
)

// Result describes a completed render.
type Result struct {
	Sites    []r2.Point
	Polygons [][]r2.Point
	Stats    render.Stats
}

// Run samples a random site set from rng and renders it on ctx.
func Run(ctx render.Context, rng *rand.Rand, setters ...render.Option) (Result, error) {
	r, err := render.NewRenderer(ctx, setters...)
	if err != nil {
		return Result{}, err
	}
	sites := utils.SampleSites(rng, utils.Domain)
	glvoronoi.Logger().Info("sites sampled", "count", len(sites))
	return draw(r, sites)
}

// Render renders the given sites on ctx.
func Render(ctx render.Context, sites []r2.Point, setters ...render.Option) (Result, error) {
	r, err := render.NewRenderer(ctx, setters...)
	if err != nil {
		return Result{}, err
	}
	return draw(r, sites)
}

func draw(r *render.Renderer, sites []r2.Point) (Result, error) {
	d, err := glvoronoi.NewDiagram(sites, glvoronoi.BoxSize)
	if err != nil {
		return Result{}, fmt.Errorf("voronoi: %w", err)
	}
	polygons := d.Polygons()
	tracePolygons(polygons)

	s, err := r.BuildScene(sites, polygons)
	if err != nil {
		return Result{}, err
	}
	st, err := r.Render(s)
	if err != nil {
		return Result{}, err
	}
	return Result{Sites: sites, Polygons: polygons, Stats: st}, nil
}

func tracePolygons(polygons [][]r2.Point) {
	l := glvoronoi.Logger()
	bg := context.Background()
	if !l.Enabled(bg, slog.LevelDebug) {
		return
	}
	for i, p := range polygons {
		l.LogAttrs(bg, slog.LevelDebug, "polygon", slog.Int("index", i), slog.Int("length", len(p)))
		for k, v := range p {
			l.LogAttrs(bg, slog.LevelDebug, "polygon vertex",
				slog.Int("polygon", i), slog.Int("index", k), slog.Float64("x", v.X), slog.Float64("y", v.Y))
		}
	}
}
