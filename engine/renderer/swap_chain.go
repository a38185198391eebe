package renderer

import (
	"github.com/cockroachdb/errors"
	"github.com/cogentcore/webgpu/wgpu"
)

// FallbackSurfaceFormat is used when the surface reports no preferred format.
const FallbackSurfaceFormat = wgpu.TextureFormatBGRA8Unorm

// PresentMode controls how frames are handed to the display. Only FIFO is supported.
type PresentMode int

const (
	// PresentModeFifo queues frames behind the display refresh; no tearing.
	PresentModeFifo PresentMode = iota
	PresentModeImmediate
	PresentModeMailbox
)

func (m PresentMode) String() string {
	switch m {
	case PresentModeFifo:
		return "fifo"
	case PresentModeImmediate:
		return "immediate"
	case PresentModeMailbox:
		return "mailbox"
	default:
		return "unknown"
	}
}

// SwapChainDescriptor sizes and formats the surface's presentable buffer chain.
type SwapChainDescriptor struct {
	Width, Height uint32
	// Format of the presentable textures; TextureFormatUndefined selects the surface's preferred format.
	Format      wgpu.TextureFormat
	Usage       wgpu.TextureUsage
	PresentMode PresentMode
}

// NewSwapChainDescriptor returns a render-attachment FIFO descriptor using the surface's preferred format.
func NewSwapChainDescriptor(width, height uint32) SwapChainDescriptor {
	return SwapChainDescriptor{
		Width:       width,
		Height:      height,
		Format:      wgpu.TextureFormatUndefined,
		Usage:       wgpu.TextureUsageRenderAttachment,
		PresentMode: PresentModeFifo,
	}
}

// SwapChain produces one presentable texture view per frame. It tracks whether a view is
// currently held so that every acquired view is presented exactly once.
type SwapChain struct {
	surface    Surface
	descriptor SwapChainDescriptor
	acquired   bool
	released   bool
}

// CreateSwapChain configures the surface for the device and returns its swap chain.
//
// Parameters:
//   - device: the device that renders into the surface
//   - surface: the window surface
//   - adapter: the adapter the device came from, used to query the preferred format
//   - descriptor: the swap chain descriptor
//
// Returns:
//   - *SwapChain: the configured swap chain
//   - error: ErrUnsupportedPresentMode, or an error from surface configuration
func CreateSwapChain(device Device, surface Surface, adapter Adapter, descriptor SwapChainDescriptor) (*SwapChain, error) {
	if descriptor.PresentMode != PresentModeFifo {
		return nil, errors.Wrapf(ErrUnsupportedPresentMode, "%s", descriptor.PresentMode)
	}
	if descriptor.Width == 0 || descriptor.Height == 0 {
		return nil, errors.Newf("swap chain size %dx%d must be non-zero", descriptor.Width, descriptor.Height)
	}
	if descriptor.Usage == 0 {
		descriptor.Usage = wgpu.TextureUsageRenderAttachment
	}
	if descriptor.Format == wgpu.TextureFormatUndefined {
		descriptor.Format = surface.PreferredFormat(adapter)
		if descriptor.Format == wgpu.TextureFormatUndefined {
			descriptor.Format = FallbackSurfaceFormat
		}
	}
	if err := surface.Configure(adapter, device, descriptor); err != nil {
		return nil, errors.Wrap(err, "configure surface")
	}
	return &SwapChain{surface: surface, descriptor: descriptor}, nil
}

// Descriptor returns the resolved descriptor, including the selected format.
func (s *SwapChain) Descriptor() SwapChainDescriptor {
	return s.descriptor
}

// Format returns the texture format of the presentable views.
func (s *SwapChain) Format() wgpu.TextureFormat {
	return s.descriptor.Format
}

// AcquireCurrentView acquires the view to render this frame into. The caller owns the view and
// must release it once the frame's commands have been submitted.
//
// Returns:
//   - TextureView: the current view
//   - error: ErrFrameInProgress if a view is already held, ErrViewUnavailable if the surface cannot produce one
func (s *SwapChain) AcquireCurrentView() (TextureView, error) {
	if s.released {
		return nil, errors.Wrap(ErrViewUnavailable, "swap chain released")
	}
	if s.acquired {
		return nil, errors.Wrap(ErrFrameInProgress, "previous view not presented")
	}
	view, err := s.surface.AcquireTextureView()
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "acquire current view"), ErrViewUnavailable)
	}
	if view == nil {
		return nil, errors.Wrap(ErrViewUnavailable, "surface returned no view")
	}
	s.acquired = true
	return view, nil
}

// Present hands the acquired texture to the compositor. It must follow submission of the frame's commands.
//
// Returns:
//   - error: ErrFrameInProgress if no view is held
func (s *SwapChain) Present() error {
	if !s.acquired {
		return errors.Wrap(ErrFrameInProgress, "present without acquired view")
	}
	s.surface.Present()
	s.acquired = false
	return nil
}

// Abandon drops a held texture without presenting it, used when a frame fails after acquisition.
func (s *SwapChain) Abandon() {
	if !s.acquired {
		return
	}
	s.surface.DiscardTexture()
	s.acquired = false
}

// Release abandons any held texture. The surface itself is owned and released by the caller.
func (s *SwapChain) Release() {
	if s.released {
		return
	}
	s.Abandon()
	s.released = true
}
