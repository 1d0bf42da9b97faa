package model

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/Carmen-Shannon/oxy-prologue/common"
	"github.com/Carmen-Shannon/oxy-prologue/engine/cache"
	"github.com/Carmen-Shannon/oxy-prologue/engine/renderer"
	"github.com/Carmen-Shannon/oxy-prologue/engine/renderer/material"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseType(t *testing.T) {
	for _, typ := range Types() {
		got, err := ParseType(" " + typ.String() + " ")
		require.NoError(t, err)
		assert.Equal(t, typ, got)
		assert.NotEmpty(t, Describe(typ))
	}

	_, err := ParseType("dragon")
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.NotEmpty(t, Describe(Type(99)))
	assert.Equal(t, "type(99)", Type(99).String())
}

func TestRetryClassification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("device busy"), true},
		{"transient", NewError(KindTransient, "upload", errors.New("oom")), true},
		{"not found", NewError(KindNotFound, "create", nil), false},
		{"wrapped disposed", fmt.Errorf("page 2: %w", NewError(KindDisposed, "upload", nil)), false},
		{"renderer released", fmt.Errorf("upload: %w", renderer.ErrReleased), false},
		{"cache disposed", cache.ErrDisposed, false},
		{"cancelled", fmt.Errorf("wait: %w", context.Canceled), false},
		{"deadline", context.DeadlineExceeded, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestNewMeshAndDispose(t *testing.T) {
	r := renderer.NewHeadless()
	m, err := NewMesh(r, Sphere(1, 0.2), WithName("ball"), WithColor(common.Color{1, 0, 0, 1}))
	require.NoError(t, err)

	assert.Equal(t, "ball", m.Name())
	assert.True(t, m.Enabled())
	assert.NotNil(t, m.GPUMesh())
	assert.Equal(t, common.Color{1, 0, 0, 1}, m.Color())
	assert.Positive(t, m.GPUBytes())

	require.NoError(t, m.Dispose())
	require.NoError(t, m.Dispose())
	assert.True(t, m.Disposed())
	assert.False(t, m.Enabled())
	assert.Nil(t, m.GPUMesh())

	_, err = m.Clone("ball-low", 0.5)
	assert.Equal(t, KindDisposed, KindOf(err))
}

func TestNewMeshOnReleasedRenderer(t *testing.T) {
	r := renderer.NewHeadless()
	require.NoError(t, r.Release())
	_, err := NewMesh(r, Sphere(1, 0.2))
	assert.Equal(t, KindDisposed, KindOf(err))
	assert.False(t, IsRetryable(err))
}

func TestCloneReducesDetail(t *testing.T) {
	r := renderer.NewHeadless()
	regen := func(detail float32) common.Geometry { return Sphere(1, detail) }
	base, err := NewMesh(r, regen(1), WithRegenerator(regen))
	require.NoError(t, err)
	base.SetTransform(common.Transform{Position: [3]float32{1, 2, 3}, Scale: [3]float32{1, 1, 1}})

	low, err := base.Clone("low", 0.25)
	require.NoError(t, err)
	assert.Less(t, low.Triangles(), base.Triangles())
	assert.False(t, low.Enabled())
	assert.Equal(t, base.Transform(), low.Transform())

	// Without a regenerator triangles are dropped.
	plain, err := NewMesh(r, Sphere(1, 1))
	require.NoError(t, err)
	half, err := plain.Clone("half", 0.5)
	require.NoError(t, err)
	assert.InDelta(t, plain.Triangles()/2, half.Triangles(), 1)
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.CreateModel(context.Background(), TypePlanet, Context{})
	assert.Equal(t, KindNotFound, KindOf(err))

	calls := 0
	reg.Register(TypePlanet, FactoryFunc(func(ctx context.Context, typ Type, mc Context) (Mesh, error) {
		calls++
		return NewMesh(mc.Renderer, Sphere(1, 0.2))
	}))
	m, err := reg.CreateModel(context.Background(), TypePlanet, Context{Renderer: renderer.NewHeadless()})
	require.NoError(t, err)
	assert.NotNil(t, m)
	assert.Equal(t, 1, calls)
	assert.Equal(t, []Type{TypePlanet}, reg.Types())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = reg.CreateModel(ctx, TypePlanet, Context{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDefaultRegistrySharesMaterials(t *testing.T) {
	r := renderer.NewHeadless()
	mats := cache.New[string, material.Material]("materials")
	reg := DefaultRegistry()
	assert.Equal(t, Types(), reg.Types())

	for _, typ := range Types() {
		full, err := reg.CreateModel(context.Background(), typ, Context{Renderer: r, Materials: mats})
		require.NoError(t, err, typ.String())
		light, err := reg.CreateModel(context.Background(), typ, Context{Renderer: r, Materials: mats, PerformanceMode: true})
		require.NoError(t, err, typ.String())

		assert.Less(t, light.Triangles(), full.Triangles(), typ.String())
		assert.Same(t, full.Material(), light.Material(), typ.String())
	}
	assert.Equal(t, 4, mats.Len())
}

func TestGridShape(t *testing.T) {
	g := Grid(4, 5, func(u, v float64) [3]float64 { return [3]float64{u, 0, v} })
	assert.Len(t, g.Vertices, 5*6)
	assert.Equal(t, 4*5*2, g.TriangleCount())
	for _, v := range g.Vertices {
		assert.InDelta(t, 1, v.Normal[1]*v.Normal[1], 1e-4)
	}
}
