package engine

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-learn/engine/config"
	"github.com/Carmen-Shannon/oxy-learn/engine/loader"
	"github.com/Carmen-Shannon/oxy-learn/engine/renderer"
	"github.com/Carmen-Shannon/oxy-learn/engine/renderer/renderertest"
	"github.com/Carmen-Shannon/oxy-learn/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-learn/engine/window"
	"github.com/cockroachdb/errors"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const triangleSource = `
@vertex
fn vs_main(@builtin(vertex_index) in_vertex_index: u32) -> @builtin(position) vec4<f32> {
    var p = vec2<f32>(0.0, 0.0);
    if (in_vertex_index == 0u) {
        p = vec2<f32>(-0.5, -0.5);
    } else if (in_vertex_index == 1u) {
        p = vec2<f32>(0.5, -0.5);
    } else {
        p = vec2<f32>(0.0, 0.5);
    }
    return vec4<f32>(p, 0.0, 1.0);
}

@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return vec4<f32>(0.0, 0.4, 1.0, 1.0);
}
`

const coloredSource = `
struct VertexInput {
    @location(0) position: vec2<f32>,
    @location(1) color: vec3<f32>,
};

struct VertexOutput {
    @builtin(position) position: vec4<f32>,
    @location(0) color: vec3<f32>,
};

@vertex
fn vs_main(in: VertexInput) -> VertexOutput {
    var out: VertexOutput;
    out.position = vec4<f32>(in.position, 0.0, 1.0);
    out.color = in.color;
    return out;
}

@fragment
fn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {
    return vec4<f32>(in.color, 1.0);
}
`

// fakeWindow asks to exit after exitAfter polls; zero never exits.
type fakeWindow struct {
	exitAfter int
	polls     int
	closed    int
}

var _ window.Window = &fakeWindow{}

func (w *fakeWindow) SetKeyDownCallback(func(keyCode uint32)) {}
func (w *fakeWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	return &wgpu.SurfaceDescriptor{}
}
func (w *fakeWindow) PollEvents()      { w.polls++ }
func (w *fakeWindow) ShouldExit() bool { return w.exitAfter > 0 && w.polls >= w.exitAfter }
func (w *fakeWindow) Close() error     { w.closed++; return nil }
func (w *fakeWindow) Width() int       { return 640 }
func (w *fakeWindow) Height() int      { return 480 }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeShader(t *testing.T, source string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "shader.wgsl")
	require.NoError(t, os.WriteFile(path, []byte(source), 0o644))
	return path
}

func triangleConfig(t *testing.T) *config.Config {
	cfg := config.Default()
	cfg.Pipeline.Shader = writeShader(t, triangleSource)
	return cfg
}

func coloredConfig(t *testing.T, geometry string) *config.Config {
	cfg := config.Default()
	cfg.Pipeline.Key = "colored"
	cfg.Pipeline.Shader = writeShader(t, coloredSource)
	cfg.Pipeline.VertexLayout = config.LayoutPosition2DColor3
	cfg.Pipeline.Geometry = geometry
	cfg.Pipeline.VertexCount = 0
	cfg.Pipeline.InterStageComponents = 3
	return cfg
}

func TestRunTriangleUntilFrameLimit(t *testing.T) {
	fake := renderertest.NewBackend()
	w := &fakeWindow{}
	e, err := NewEngine(context.Background(), triangleConfig(t),
		WithWindow(w), WithBackend(fake), WithLogger(quietLogger()), WithMaxFrames(3))
	require.NoError(t, err)

	require.NoError(t, e.Run(context.Background()))
	assert.Equal(t, uint64(3), e.Renderer().Stats().Frames)

	passes := fake.Passes()
	require.Len(t, passes, 3)
	for _, pass := range passes {
		require.Len(t, pass.Draws, 1)
		assert.Equal(t, renderertest.DrawCall{Count: 3, InstanceCount: 1}, pass.Draws[0])
		assert.Equal(t, wgpu.Color{R: 0.9, G: 0.1, B: 0.2, A: 1.0}, pass.ClearValue)
	}

	e.Release()
	e.Release()
	assert.Equal(t, 1, w.closed)
	assert.Equal(t, 1, fake.Released(renderertest.KindInstance))
	assert.Empty(t, fake.Violations())
}

func TestRunStopsWhenWindowExits(t *testing.T) {
	fake := renderertest.NewBackend()
	w := &fakeWindow{exitAfter: 3}
	e, err := NewEngine(context.Background(), triangleConfig(t),
		WithWindow(w), WithBackend(fake), WithLogger(quietLogger()))
	require.NoError(t, err)
	defer e.Release()

	require.NoError(t, e.Run(context.Background()))
	assert.Equal(t, uint64(2), e.Renderer().Stats().Frames)
}

func TestRunStopsOnCanceledContext(t *testing.T) {
	fake := renderertest.NewBackend()
	e, err := NewEngine(context.Background(), triangleConfig(t),
		WithWindow(&fakeWindow{}), WithBackend(fake), WithLogger(quietLogger()))
	require.NoError(t, err)
	defer e.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, e.Run(ctx))
	assert.Zero(t, e.Renderer().Stats().Frames)
}

func TestRunEndsCleanlyWhenViewUnavailable(t *testing.T) {
	fake := renderertest.NewBackend()
	fake.FailAcquireAfter = 2
	e, err := NewEngine(context.Background(), triangleConfig(t),
		WithWindow(&fakeWindow{}), WithBackend(fake), WithLogger(quietLogger()), WithProfiling(true))
	require.NoError(t, err)
	defer e.Release()

	require.NoError(t, e.Run(context.Background()))
	assert.Equal(t, uint64(2), e.Renderer().Stats().Frames)
}

func TestRunIndexedPreset(t *testing.T) {
	fake := renderertest.NewBackend()
	e, err := NewEngine(context.Background(), coloredConfig(t, loader.PresetColoredQuad),
		WithWindow(&fakeWindow{}), WithBackend(fake), WithLogger(quietLogger()), WithMaxFrames(1))
	require.NoError(t, err)
	defer e.Release()

	require.NoError(t, e.Run(context.Background()))
	passes := fake.Passes()
	require.Len(t, passes, 1)
	require.Len(t, passes[0].Draws, 1)
	assert.Equal(t, renderertest.DrawCall{Indexed: true, Count: 6, InstanceCount: 1}, passes[0].Draws[0])
	require.NotNil(t, passes[0].IndexBuffer)
	assert.Equal(t, wgpu.IndexFormatUint16, passes[0].IndexBuffer.Format)
}

func TestRunGeometryFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "triangles.txt")
	require.NoError(t, os.WriteFile(path, []byte(`[points]
-0.5 -0.5 1.0 0.0 0.0
+0.5 -0.5 0.0 1.0 0.0
+0.0 +0.5 0.0 0.0 1.0
`), 0o644))

	fake := renderertest.NewBackend()
	e, err := NewEngine(context.Background(), coloredConfig(t, path),
		WithWindow(&fakeWindow{}), WithBackend(fake), WithLogger(quietLogger()), WithMaxFrames(1))
	require.NoError(t, err)
	defer e.Release()

	require.NoError(t, e.Run(context.Background()))
	passes := fake.Passes()
	require.Len(t, passes, 1)
	assert.Equal(t, renderertest.DrawCall{Count: 3, InstanceCount: 1}, passes[0].Draws[0])
	require.NotNil(t, passes[0].VertexBuffer)
	assert.Equal(t, uint64(60), passes[0].VertexBuffer.Size)
}

func TestRunShippedLogoConfig(t *testing.T) {
	root := ".."
	cfg, err := config.Load(filepath.Join(root, "assets", "configs", "webgpu_logo.toml"))
	require.NoError(t, err)
	// asset paths in shipped configs are relative to the repository root
	cfg.Pipeline.Shader = filepath.Join(root, cfg.Pipeline.Shader)
	cfg.Pipeline.Geometry = filepath.Join(root, cfg.Pipeline.Geometry)

	fake := renderertest.NewBackend()
	e, err := NewEngine(context.Background(), cfg,
		WithWindow(&fakeWindow{}), WithBackend(fake), WithLogger(quietLogger()), WithMaxFrames(1))
	require.NoError(t, err)
	defer e.Release()

	require.NoError(t, e.Run(context.Background()))
	passes := fake.Passes()
	require.Len(t, passes, 1)
	require.Len(t, passes[0].Draws, 1)
	assert.Equal(t, renderertest.DrawCall{Indexed: true, Count: 6, InstanceCount: 1}, passes[0].Draws[0])
	require.NotNil(t, passes[0].VertexBuffer)
	assert.Equal(t, uint64(120), passes[0].VertexBuffer.Size)
	require.NotNil(t, passes[0].IndexBuffer)
	assert.Equal(t, wgpu.IndexFormatUint16, passes[0].IndexBuffer.Format)
}

func TestRequiredLimitsApplyConfiguredCaps(t *testing.T) {
	fake := renderertest.NewBackend()
	cfg := coloredConfig(t, loader.PresetColoredTriangles)
	cfg.Renderer.Limits.MaxBufferSize = 1 << 20
	e, err := NewEngine(context.Background(), cfg,
		WithWindow(&fakeWindow{}), WithBackend(fake), WithLogger(quietLogger()))
	require.NoError(t, err)
	defer e.Release()

	l := e.Renderer().Limits()
	assert.Equal(t, uint64(1<<20), l.MaxBufferSize)
	assert.Equal(t, uint32(2), l.MaxVertexAttributes)
	assert.Equal(t, uint32(1), l.MaxVertexBuffers)
	assert.Equal(t, uint32(20), l.MaxVertexBufferArrayStride)
}

func TestNewEngineFailures(t *testing.T) {
	tests := []struct {
		name       string
		cfg        func(t *testing.T) *config.Config
		setup      func(b *renderertest.Backend)
		wantErr    error
		wantCode   int
		wantWindow bool
	}{
		{
			name: "invalid config",
			cfg: func(t *testing.T) *config.Config {
				cfg := triangleConfig(t)
				cfg.Window.Width = 0
				return cfg
			},
			wantErr:  config.ErrConfig,
			wantCode: ExitConfig,
		},
		{
			name: "missing shader",
			cfg: func(t *testing.T) *config.Config {
				cfg := config.Default()
				cfg.Pipeline.Shader = filepath.Join(t.TempDir(), "missing.wgsl")
				return cfg
			},
			wantErr:  shader.ErrShaderInvalid,
			wantCode: ExitGeometry,
		},
		{
			name: "missing geometry",
			cfg: func(t *testing.T) *config.Config {
				return coloredConfig(t, filepath.Join(t.TempDir(), "missing.txt"))
			},
			wantErr:  loader.ErrGeometryRead,
			wantCode: ExitGeometry,
		},
		{
			name: "unknown preset",
			cfg: func(t *testing.T) *config.Config {
				return coloredConfig(t, "preset:hexagon")
			},
			wantErr:  loader.ErrGeometryRead,
			wantCode: ExitGeometry,
		},
		{
			name: "geometry does not match layout",
			cfg: func(t *testing.T) *config.Config {
				cfg := coloredConfig(t, loader.PresetTriangle)
				return cfg
			},
			wantErr:  loader.ErrGeometryFormat,
			wantCode: ExitGeometry,
		},
		{
			name: "adapter unavailable",
			cfg:  triangleConfig,
			setup: func(b *renderertest.Backend) {
				b.AdapterStatus = renderer.RequestStatusUnavailable
			},
			wantErr:    renderer.ErrAdapterUnavailable,
			wantCode:   ExitBackend,
			wantWindow: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := renderertest.NewBackend()
			if tt.setup != nil {
				tt.setup(fake)
			}
			opened := 0
			w := &fakeWindow{}
			factory := func(*config.Config) (window.Window, error) {
				opened++
				return w, nil
			}

			e, err := NewEngine(context.Background(), tt.cfg(t),
				WithWindowFactory(factory), WithBackend(fake), WithLogger(quietLogger()))
			assert.Nil(t, e)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			assert.Equal(t, tt.wantCode, ExitCode(err))

			if tt.wantWindow {
				assert.Equal(t, 1, opened)
				assert.Equal(t, 1, w.closed)
				assert.Equal(t, 1, fake.Released(renderertest.KindInstance))
			} else {
				assert.Zero(t, opened)
				assert.Empty(t, fake.Calls())
			}
		})
	}
}

func TestNewEngineWindowFailure(t *testing.T) {
	fake := renderertest.NewBackend()
	factory := func(*config.Config) (window.Window, error) {
		return nil, errors.New("no display")
	}
	e, err := NewEngine(context.Background(), triangleConfig(t),
		WithWindowFactory(factory), WithBackend(fake), WithLogger(quietLogger()))
	assert.Nil(t, e)
	assert.True(t, errors.Is(err, window.ErrWindowUnavailable))
	assert.Equal(t, ExitWindow, ExitCode(err))
	assert.Empty(t, fake.Calls())
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitOK, ExitCode(nil))
	assert.Equal(t, ExitBackend, ExitCode(errors.Wrap(renderer.ErrRequestTimeout, "request adapter")))
	assert.Equal(t, ExitBackend, ExitCode(renderer.ErrDeviceUnavailable))
	assert.Equal(t, ExitGeometry, ExitCode(errors.Wrap(loader.ErrGeometryFormat, "line 3")))
	assert.Equal(t, ExitConfig, ExitCode(errors.Wrap(config.ErrConfig, "width")))
	assert.Equal(t, ExitWindow, ExitCode(window.ErrWindowUnavailable))
}
