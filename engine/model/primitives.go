package model

import (
	"context"
	"math"

	"github.com/Carmen-Shannon/oxy-prologue/common"
	"github.com/Carmen-Shannon/oxy-prologue/engine/renderer/material"
)

// performanceDetail is the tessellation factor used in performance mode.
const performanceDetail = 0.5

// Grid tessellates the surface fn, which maps u, v in [0, 1] to a point, into rows x cols
// quads with normals from finite differences.
//
// Parameters:
//   - rows, cols: quad counts along v and u, clamped to at least 3
//   - fn: the surface
//
// Returns:
//   - common.Geometry: (rows+1)*(cols+1) vertices and 2*rows*cols triangles
func Grid(rows, cols int, fn func(u, v float64) [3]float64) common.Geometry {
	rows, cols = max(rows, 3), max(cols, 3)
	g := common.Geometry{
		Vertices: make([]common.Vertex, 0, (rows+1)*(cols+1)),
		Indices:  make([]uint32, 0, rows*cols*6),
	}
	const eps = 1e-4
	for r := 0; r <= rows; r++ {
		v := float64(r) / float64(rows)
		for c := 0; c <= cols; c++ {
			u := float64(c) / float64(cols)
			p := fn(u, v)
			du := sub(fn(u+eps, v), fn(u-eps, v))
			dv := sub(fn(u, v+eps), fn(u, v-eps))
			n := unit(cross(dv, du))
			g.Vertices = append(g.Vertices, common.Vertex{
				Position: [3]float32{float32(p[0]), float32(p[1]), float32(p[2])},
				Normal:   [3]float32{float32(n[0]), float32(n[1]), float32(n[2])},
			})
		}
	}
	stride := uint32(cols + 1)
	for r := range uint32(rows) {
		for c := range uint32(cols) {
			a := r*stride + c
			b := a + stride
			g.Indices = append(g.Indices, a, b, a+1, a+1, b, b+1)
		}
	}
	return g
}

// Torus returns a torus around the Y axis.
func Torus(major, minor float64, detail float32) common.Geometry {
	return Grid(tess(24, detail), tess(64, detail), func(u, v float64) [3]float64 {
		phi, theta := u*2*math.Pi, v*2*math.Pi
		ring := major + minor*math.Cos(theta)
		return [3]float64{ring * math.Cos(phi), minor * math.Sin(theta), ring * math.Sin(phi)}
	})
}

// Sphere returns a UV sphere.
func Sphere(radius float64, detail float32) common.Geometry {
	return Grid(tess(32, detail), tess(64, detail), spherical(func(float64, float64) float64 { return radius }))
}

// SpikedSphere returns a sphere with spikes raised along a lattice of lobes.
func SpikedSphere(radius, spike float64, lobes int, detail float32) common.Geometry {
	k := float64(lobes)
	return Grid(tess(48, detail), tess(96, detail), spherical(func(phi, theta float64) float64 {
		s := math.Abs(math.Sin(k*phi) * math.Sin(k*theta))
		return radius * (1 + spike*math.Pow(s, 6))
	}))
}

// HeightGrid returns a square patch of rolling terrain centered on the origin.
func HeightGrid(size, height float64, detail float32) common.Geometry {
	return Grid(tess(96, detail), tess(96, detail), func(u, v float64) [3]float64 {
		x, z := (u-0.5)*size, (v-0.5)*size
		y := height * (0.6*math.Sin(x*0.35)*math.Cos(z*0.3) + 0.3*math.Sin(x*0.9+z*0.7) + 0.1*math.Cos(z*2.1))
		return [3]float64{x, y, z}
	})
}

func spherical(radius func(phi, theta float64) float64) func(u, v float64) [3]float64 {
	return func(u, v float64) [3]float64 {
		phi, theta := u*2*math.Pi, v*math.Pi
		r := radius(phi, theta)
		return [3]float64{
			r * math.Sin(theta) * math.Cos(phi),
			r * math.Cos(theta),
			r * math.Sin(theta) * math.Sin(phi),
		}
	}
}

func tess(base int, detail float32) int {
	return max(3, int(float32(base)*detail))
}

func sub(a, b [3]float64) [3]float64 {
	return [3]float64{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

func cross(a, b [3]float64) [3]float64 {
	return [3]float64{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func unit(v [3]float64) [3]float64 {
	l := math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
	if l == 0 {
		return [3]float64{0, 1, 0}
	}
	return [3]float64{v[0] / l, v[1] / l, v[2] / l}
}

// sharedMaterial fetches a named material from the cache, creating it on first use.
func sharedMaterial(ctx context.Context, mc Context, name string, options ...material.MaterialBuilderOption) (material.Material, error) {
	create := func(context.Context) (material.Material, error) {
		return material.NewMaterial(append([]material.MaterialBuilderOption{material.WithName(name)}, options...)...), nil
	}
	if mc.Materials == nil {
		return create(ctx)
	}
	m, _, err := mc.Materials.GetOrCreate(ctx, name, create)
	return m, err
}

// procedural uploads the geometry built by regen at the detail mc asks for.
func procedural(ctx context.Context, mc Context, name string, regen Regenerator, mat material.Material, t common.Transform) (Mesh, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	detail := float32(1)
	if mc.PerformanceMode {
		detail = performanceDetail
	}
	return NewMesh(mc.Renderer, regen(detail),
		WithName(name),
		WithMaterial(mat),
		WithRegenerator(regen),
		WithTransform(t),
	)
}

func createEmblem(ctx context.Context, _ Type, mc Context) (Mesh, error) {
	mat, err := sharedMaterial(ctx, mc, "brushed-metal",
		material.WithBaseColor(common.Color{0.78, 0.74, 0.62, 1}),
		material.WithRoughness(0.35),
		material.WithEmissive(0.05),
	)
	if err != nil {
		return nil, NewError(KindOf(err), "emblem material", err)
	}
	tr := common.IdentityTransform()
	tr.Rotation = [3]float32{0.4, 0, 0}
	regen := func(detail float32) common.Geometry { return Torus(10, 3, detail) }
	return procedural(ctx, mc, "emblem", regen, mat, tr)
}

func createPlanet(ctx context.Context, _ Type, mc Context) (Mesh, error) {
	mat, err := sharedMaterial(ctx, mc, "ocean-world",
		material.WithBaseColor(common.Color{0.32, 0.52, 0.86, 1}),
		material.WithRoughness(0.7),
	)
	if err != nil {
		return nil, NewError(KindOf(err), "planet material", err)
	}
	regen := func(detail float32) common.Geometry { return Sphere(14, detail) }
	return procedural(ctx, mc, "planet", regen, mat, common.IdentityTransform())
}

func createParasite(ctx context.Context, _ Type, mc Context) (Mesh, error) {
	mat, err := sharedMaterial(ctx, mc, "chitin",
		material.WithBaseColor(common.Color{0.42, 0.12, 0.2, 1}),
		material.WithRoughness(0.55),
		material.WithEmissive(0.25),
	)
	if err != nil {
		return nil, NewError(KindOf(err), "parasite material", err)
	}
	regen := func(detail float32) common.Geometry { return SpikedSphere(8, 0.6, 5, detail) }
	return procedural(ctx, mc, "parasite", regen, mat, common.IdentityTransform())
}

func createTerrain(ctx context.Context, _ Type, mc Context) (Mesh, error) {
	mat, err := sharedMaterial(ctx, mc, "regolith",
		material.WithBaseColor(common.Color{0.55, 0.45, 0.36, 1}),
		material.WithRoughness(0.9),
	)
	if err != nil {
		return nil, NewError(KindOf(err), "terrain material", err)
	}
	tr := common.IdentityTransform()
	tr.Position = [3]float32{0, -6, 0}
	regen := func(detail float32) common.Geometry { return HeightGrid(60, 4, detail) }
	return procedural(ctx, mc, "terrain", regen, mat, tr)
}
