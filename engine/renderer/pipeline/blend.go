package pipeline

import (
	"github.com/cockroachdb/errors"
	"github.com/cogentcore/webgpu/wgpu"
)

// BlendPreset names one of the supported fragment target blend configurations.
type BlendPreset int

const (
	// BlendNone writes fragment colors without blending.
	BlendNone BlendPreset = iota

	// BlendBasicAlpha blends color by source alpha and leaves the alpha component at its default.
	BlendBasicAlpha

	// BlendPremultipliedPassThrough blends color by source alpha and keeps the destination alpha unchanged.
	BlendPremultipliedPassThrough
)

var blendPresetNames = map[BlendPreset]string{
	BlendNone:                     "none",
	BlendBasicAlpha:               "basic-alpha-blend",
	BlendPremultipliedPassThrough: "premultiplied-pass-through",
}

func (b BlendPreset) String() string {
	if name, ok := blendPresetNames[b]; ok {
		return name
	}
	return "unknown"
}

// ParseBlendPreset resolves a preset by its configuration name.
//
// Parameters:
//   - name: "none", "basic-alpha-blend" or "premultiplied-pass-through"
//
// Returns:
//   - BlendPreset: the matching preset
//   - error: an error if the name is unknown
func ParseBlendPreset(name string) (BlendPreset, error) {
	for preset, n := range blendPresetNames {
		if n == name {
			return preset, nil
		}
	}
	return BlendNone, errors.Newf("unknown blend preset %q", name)
}

// alphaBlendColor is srcAlpha * src + (1 - srcAlpha) * dst.
var alphaBlendColor = wgpu.BlendComponent{
	SrcFactor: wgpu.BlendFactorSrcAlpha,
	DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
	Operation: wgpu.BlendOperationAdd,
}

// State returns the blend state for the preset, or nil for BlendNone.
func (b BlendPreset) State() *wgpu.BlendState {
	switch b {
	case BlendBasicAlpha:
		return &wgpu.BlendState{
			Color: alphaBlendColor,
			// default blend component: src * 1 + dst * 0
			Alpha: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorOne,
				DstFactor: wgpu.BlendFactorZero,
				Operation: wgpu.BlendOperationAdd,
			},
		}
	case BlendPremultipliedPassThrough:
		return &wgpu.BlendState{
			Color: alphaBlendColor,
			Alpha: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorZero,
				DstFactor: wgpu.BlendFactorOne,
				Operation: wgpu.BlendOperationAdd,
			},
		}
	default:
		return nil
	}
}
