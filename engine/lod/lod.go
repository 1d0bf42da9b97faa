// Package lod picks which detail variant of a model is visible for a camera distance.
package lod

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-prologue/common"
)

var (
	// ErrNoLevels is returned by NewTable when no levels are given.
	ErrNoLevels = errors.New("lod: no levels")

	// ErrThresholdOrder is returned by NewTable when thresholds are not strictly ascending.
	ErrThresholdOrder = errors.New("lod: thresholds must be strictly ascending")

	// ErrLevelRange is returned by SwitchTo for an index outside the table.
	ErrLevelRange = errors.New("lod: level out of range")
)

// Tier names a detail band.
type Tier int

const (
	TierHigh Tier = iota
	TierMedium
	TierLow
)

func (t Tier) String() string {
	switch t {
	case TierHigh:
		return "high"
	case TierMedium:
		return "medium"
	case TierLow:
		return "low"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

// Mesh is the part of a mesh handle the selector drives.
type Mesh interface {
	Enabled() bool
	SetEnabled(enabled bool)
	Transform() common.Transform
	SetTransform(t common.Transform)
}

// Level is one detail variant. The mesh is visible while the camera is closer than Threshold.
type Level struct {
	Threshold float32
	Mesh      Mesh
	Tier      Tier
}

// Table holds the detail variants of one model, finest first.
//
// The table never disposes its meshes; they belong to whoever built the table.
type Table struct {
	mu     *sync.Mutex
	levels []Level
	active int
}

// NewTable validates and builds a table. Levels must be ordered finest first with
// strictly ascending thresholds.
//
// Parameters:
//   - levels: the detail variants, finest first
//
// Returns:
//   - *Table: the table, with no level active yet
//   - error: ErrNoLevels, ErrThresholdOrder, or an error naming a nil mesh
func NewTable(levels ...Level) (*Table, error) {
	if len(levels) == 0 {
		return nil, ErrNoLevels
	}
	for i, l := range levels {
		if l.Mesh == nil {
			return nil, fmt.Errorf("lod: level %d has no mesh", i)
		}
		if i > 0 && l.Threshold <= levels[i-1].Threshold {
			return nil, fmt.Errorf("%w: level %d threshold %g after %g", ErrThresholdOrder, i, l.Threshold, levels[i-1].Threshold)
		}
	}
	return &Table{
		mu:     &sync.Mutex{},
		levels: append([]Level(nil), levels...),
		active: -1,
	}, nil
}

// Len returns the number of levels.
func (t *Table) Len() int {
	return len(t.levels)
}

// Level returns the level at index i.
func (t *Table) Level(i int) Level {
	return t.levels[i]
}

// Select returns the index of the first level whose threshold exceeds distance, or the
// last level when distance is beyond every threshold. A distance exactly on a threshold
// selects the coarser side.
//
// Parameters:
//   - distance: camera distance to the model
//
// Returns:
//   - int: the level index
func (t *Table) Select(distance float32) int {
	for i, l := range t.levels {
		if distance < l.Threshold {
			return i
		}
	}
	return len(t.levels) - 1
}

// Coarser shifts index i by steps toward the coarse end, clamped to the table.
func (t *Table) Coarser(i, steps int) int {
	return common.Clamp(i+steps, 0, len(t.levels)-1)
}

// Active returns the index of the visible level, or -1 before the first SwitchTo.
func (t *Table) Active() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

// ActiveMesh returns the mesh of the visible level, or nil before the first SwitchTo.
func (t *Table) ActiveMesh() Mesh {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active < 0 {
		return nil
	}
	return t.levels[t.active].Mesh
}

// SwitchTo makes level i the only visible level. The newly visible mesh takes the
// transform of the previously visible one. Switching to the active level again only
// re-asserts visibility.
//
// Parameters:
//   - i: the level index
//
// Returns:
//   - bool: true if the visible level changed
//   - error: ErrLevelRange if i is outside the table
func (t *Table) SwitchTo(i int) (bool, error) {
	if i < 0 || i >= len(t.levels) {
		return false, fmt.Errorf("%w: %d of %d", ErrLevelRange, i, len(t.levels))
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	chosen := t.levels[i].Mesh
	prev := t.visible()
	if prev != nil && prev != chosen {
		chosen.SetTransform(prev.Transform())
	}
	for j, l := range t.levels {
		if j != i && l.Mesh != chosen {
			l.Mesh.SetEnabled(false)
		}
	}
	chosen.SetEnabled(true)

	changed := t.active != i
	t.active = i
	return changed, nil
}

// Hide disables every level and forgets the active one.
func (t *Table) Hide() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, l := range t.levels {
		l.Mesh.SetEnabled(false)
	}
	t.active = -1
}

// visible returns the mesh currently on screen. Caller must hold the mutex.
func (t *Table) visible() Mesh {
	if t.active >= 0 {
		return t.levels[t.active].Mesh
	}
	for _, l := range t.levels {
		if l.Mesh.Enabled() {
			return l.Mesh
		}
	}
	return nil
}
