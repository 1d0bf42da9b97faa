package model

import (
	"github.com/Carmen-Shannon/oxy-prologue/common"
	"github.com/Carmen-Shannon/oxy-prologue/engine/renderer/material"
)

// MeshBuilderOption is a functional option for configuring a Mesh in NewMesh.
type MeshBuilderOption func(*mesh)

// WithName sets the mesh's debug name, also used as the GPU buffer label.
//
// Parameters:
//   - name: the mesh name
//
// Returns:
//   - MeshBuilderOption: option function to apply
func WithName(name string) MeshBuilderOption {
	return func(m *mesh) {
		m.name = name
	}
}

// WithMaterial sets the material. The mesh's color is taken from the material's shade.
//
// Parameters:
//   - mat: the shared material
//
// Returns:
//   - MeshBuilderOption: option function to apply
func WithMaterial(mat material.Material) MeshBuilderOption {
	return func(m *mesh) {
		m.mat = mat
	}
}

// WithColor sets the mesh color when no material is used.
func WithColor(c common.Color) MeshBuilderOption {
	return func(m *mesh) {
		m.color = c
	}
}

// WithTransform sets the initial transform.
//
// Parameters:
//   - t: position, rotation and scale
//
// Returns:
//   - MeshBuilderOption: option function to apply
func WithTransform(t common.Transform) MeshBuilderOption {
	return func(m *mesh) {
		m.transform = t
	}
}

// WithRegenerator sets the function Clone uses to rebuild the geometry at lower detail.
func WithRegenerator(regen Regenerator) MeshBuilderOption {
	return func(m *mesh) {
		m.regen = regen
	}
}

// WithEnabled sets initial visibility. Meshes are visible by default.
func WithEnabled(enabled bool) MeshBuilderOption {
	return func(m *mesh) {
		m.enabled.Store(enabled)
	}
}
