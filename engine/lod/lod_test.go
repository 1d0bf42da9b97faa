package lod

import (
	"math/rand/v2"
	"testing"

	"github.com/Carmen-Shannon/oxy-prologue/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMesh struct {
	enabled   bool
	transform common.Transform
}

func (m *fakeMesh) Enabled() bool                   { return m.enabled }
func (m *fakeMesh) SetEnabled(enabled bool)         { m.enabled = enabled }
func (m *fakeMesh) Transform() common.Transform     { return m.transform }
func (m *fakeMesh) SetTransform(t common.Transform) { m.transform = t }

func threeLevels(t *testing.T) (*Table, []*fakeMesh) {
	t.Helper()
	meshes := []*fakeMesh{{enabled: true}, {enabled: true}, {enabled: true}}
	table, err := NewTable(
		Level{Threshold: 40, Mesh: meshes[0], Tier: TierHigh},
		Level{Threshold: 80, Mesh: meshes[1], Tier: TierMedium},
		Level{Threshold: 160, Mesh: meshes[2], Tier: TierLow},
	)
	require.NoError(t, err)
	return table, meshes
}

func TestNewTableValidation(t *testing.T) {
	m := &fakeMesh{}
	tests := []struct {
		name   string
		levels []Level
		want   error
	}{
		{name: "empty", want: ErrNoLevels},
		{name: "descending", levels: []Level{{Threshold: 80, Mesh: m}, {Threshold: 40, Mesh: m}}, want: ErrThresholdOrder},
		{name: "equal", levels: []Level{{Threshold: 40, Mesh: m}, {Threshold: 40, Mesh: m}}, want: ErrThresholdOrder},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTable(tt.levels...)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := NewTable(Level{Threshold: 1})
	assert.Error(t, err)
}

func TestSelect(t *testing.T) {
	table, _ := threeLevels(t)
	tests := []struct {
		distance float32
		want     int
	}{
		{0, 0},
		{39.9, 0},
		{40, 1},
		{79, 1},
		{80, 2},
		{159, 2},
		{1000, 2},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, table.Select(tt.distance), "distance %v", tt.distance)
	}
}

func TestSelectIsMonotonic(t *testing.T) {
	table, _ := threeLevels(t)
	rng := rand.New(rand.NewPCG(1, 2))
	for range 1000 {
		d1 := rng.Float32() * 300
		d2 := d1 + rng.Float32()*300
		assert.LessOrEqual(t, table.Select(d1), table.Select(d2), "d1=%v d2=%v", d1, d2)
	}
}

func TestSwitchToIsIdempotent(t *testing.T) {
	table, meshes := threeLevels(t)
	assert.Equal(t, -1, table.Active())

	changed, err := table.SwitchTo(1)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, []bool{false, true, false}, enabled(meshes))

	changed, err = table.SwitchTo(1)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, []bool{false, true, false}, enabled(meshes))
	assert.Same(t, meshes[1], table.ActiveMesh())
}

func TestSwitchToCopiesTransform(t *testing.T) {
	table, meshes := threeLevels(t)
	_, err := table.SwitchTo(0)
	require.NoError(t, err)

	moved := common.Transform{Position: [3]float32{1, 2, 3}, Rotation: [3]float32{0, 1.5, 0}, Scale: [3]float32{2, 2, 2}}
	meshes[0].SetTransform(moved)

	_, err = table.SwitchTo(2)
	require.NoError(t, err)
	assert.Equal(t, moved, meshes[2].Transform())
	assert.Equal(t, []bool{false, false, true}, enabled(meshes))
}

func TestSwitchToOutOfRange(t *testing.T) {
	table, _ := threeLevels(t)
	_, err := table.SwitchTo(3)
	assert.ErrorIs(t, err, ErrLevelRange)
	_, err = table.SwitchTo(-1)
	assert.ErrorIs(t, err, ErrLevelRange)
}

func TestCoarserAndHide(t *testing.T) {
	table, meshes := threeLevels(t)
	assert.Equal(t, 1, table.Coarser(0, 1))
	assert.Equal(t, 2, table.Coarser(2, 1))
	assert.Equal(t, 0, table.Coarser(0, -4))

	_, err := table.SwitchTo(0)
	require.NoError(t, err)
	table.Hide()
	assert.Equal(t, []bool{false, false, false}, enabled(meshes))
	assert.Equal(t, -1, table.Active())
	assert.Equal(t, "medium", TierMedium.String())
}

func enabled(meshes []*fakeMesh) []bool {
	out := make([]bool, len(meshes))
	for i, m := range meshes {
		out[i] = m.enabled
	}
	return out
}
