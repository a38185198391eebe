package loader

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"
)

// Preset names usable wherever a geometry path is accepted.
const (
	PresetTriangle         = "preset:triangle"
	PresetColoredTriangles = "preset:colored-triangles"
	PresetColoredQuad      = "preset:colored-quad"
)

var presets = map[string]func() *Geometry{
	PresetTriangle:         TrianglePreset,
	PresetColoredTriangles: ColoredTrianglesPreset,
	PresetColoredQuad:      ColoredQuadPreset,
}

type coloredVertex struct {
	position mgl32.Vec2
	color    mgl32.Vec3
}

func positions(vs ...mgl32.Vec2) []float32 {
	out := make([]float32, 0, len(vs)*2)
	for _, v := range vs {
		out = append(out, v.X(), v.Y())
	}
	return out
}

func interleave(vs ...coloredVertex) []float32 {
	out := make([]float32, 0, len(vs)*5)
	for _, v := range vs {
		out = append(out, v.position.X(), v.position.Y(), v.color.X(), v.color.Y(), v.color.Z())
	}
	return out
}

// TrianglePreset is one position-only triangle, 2 floats per vertex.
func TrianglePreset() *Geometry {
	return &Geometry{
		Points: positions(
			mgl32.Vec2{-0.5, -0.5},
			mgl32.Vec2{0.5, -0.5},
			mgl32.Vec2{0.0, 0.5},
		),
	}
}

// ColoredTrianglesPreset is two non-indexed triangles with per-vertex color, 5 floats per vertex.
func ColoredTrianglesPreset() *Geometry {
	return &Geometry{
		Points: interleave(
			coloredVertex{mgl32.Vec2{-0.5, -0.5}, mgl32.Vec3{1.0, 0.0, 0.0}},
			coloredVertex{mgl32.Vec2{0.5, -0.5}, mgl32.Vec3{0.0, 1.0, 0.0}},
			coloredVertex{mgl32.Vec2{0.0, 0.5}, mgl32.Vec3{0.0, 0.0, 1.0}},
			coloredVertex{mgl32.Vec2{-0.55, -0.5}, mgl32.Vec3{1.0, 1.0, 0.0}},
			coloredVertex{mgl32.Vec2{-0.05, 0.5}, mgl32.Vec3{1.0, 0.0, 1.0}},
			coloredVertex{mgl32.Vec2{-0.55, 0.5}, mgl32.Vec3{0.0, 1.0, 1.0}},
		),
	}
}

// ColoredQuadPreset is an indexed quad: four colored vertices and two triangles of indices.
func ColoredQuadPreset() *Geometry {
	return &Geometry{
		Points: interleave(
			coloredVertex{mgl32.Vec2{-0.5, -0.5}, mgl32.Vec3{1.0, 0.0, 0.0}},
			coloredVertex{mgl32.Vec2{0.5, -0.5}, mgl32.Vec3{0.0, 1.0, 0.0}},
			coloredVertex{mgl32.Vec2{0.5, 0.5}, mgl32.Vec3{0.0, 0.0, 1.0}},
			coloredVertex{mgl32.Vec2{-0.5, 0.5}, mgl32.Vec3{1.0, 1.0, 0.0}},
		),
		Indices: []uint16{0, 1, 2, 0, 2, 3},
	}
}

// Preset returns a fresh copy of the named preset.
func Preset(name string) (*Geometry, bool) {
	build, ok := presets[name]
	if !ok {
		return nil, false
	}
	return build(), true
}

// PresetNames returns the preset names in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
