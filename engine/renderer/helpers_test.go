package renderer_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/Carmen-Shannon/oxy-learn/engine/renderer"
	"github.com/Carmen-Shannon/oxy-learn/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-learn/engine/renderer/renderertest"
	"github.com/Carmen-Shannon/oxy-learn/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
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

// sixColoredVertices is two triangles of interleaved x, y, r, g, b.
var sixColoredVertices = []float32{
	-0.5, -0.5, 1.0, 0.0, 0.0,
	0.5, -0.5, 0.0, 1.0, 0.0,
	0.0, 0.5, 0.0, 0.0, 1.0,
	-0.55, -0.5, 1.0, 1.0, 0.0,
	-0.05, 0.5, 1.0, 0.0, 1.0,
	-0.55, 0.5, 0.0, 1.0, 1.0,
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func trianglePipeline(t *testing.T) pipeline.Pipeline {
	t.Helper()
	vs, err := shader.NewShaderFromSource("triangle", shader.ShaderTypeVertex, triangleSource)
	require.NoError(t, err)
	fs, err := shader.NewShaderFromSource("triangle", shader.ShaderTypeFragment, triangleSource)
	require.NoError(t, err)
	return pipeline.NewPipeline("triangle",
		pipeline.WithVertexShader(vs),
		pipeline.WithFragmentShader(fs),
	)
}

func coloredPipeline(t *testing.T, mode pipeline.DrawMode) pipeline.Pipeline {
	t.Helper()
	vs, err := shader.NewShaderFromSource("colored", shader.ShaderTypeVertex, coloredSource)
	require.NoError(t, err)
	fs, err := shader.NewShaderFromSource("colored", shader.ShaderTypeFragment, coloredSource)
	require.NoError(t, err)
	return pipeline.NewPipeline("colored",
		pipeline.WithVertexShader(vs),
		pipeline.WithFragmentShader(fs),
		pipeline.WithVertexLayout(pipeline.LayoutPosition2DColor3),
		pipeline.WithBlendPreset(pipeline.BlendBasicAlpha),
		pipeline.WithDrawMode(mode),
		pipeline.WithInterStageComponents(3),
	)
}

type handles struct {
	instance renderer.Instance
	surface  renderer.Surface
	adapter  renderer.Adapter
	device   renderer.Device
}

// negotiate runs the instance, adapter and device steps against the fake backend.
func negotiate(t *testing.T, fake *renderertest.Backend) handles {
	t.Helper()
	instance, err := fake.CreateInstance()
	require.NoError(t, err)
	surface, err := instance.CreateSurface(&wgpu.SurfaceDescriptor{})
	require.NoError(t, err)
	adapter, err := renderer.RequestAdapter(context.Background(), instance, renderer.AdapterOptions{CompatibleSurface: surface})
	require.NoError(t, err)
	device, err := renderer.RequestDevice(context.Background(), adapter, renderer.DeviceDescriptor{
		Label:          "Default device",
		RequiredLimits: renderer.RequiredLimits(adapter.Limits()),
	})
	require.NoError(t, err)
	return handles{instance: instance, surface: surface, adapter: adapter, device: device}
}

func newTestRenderer(t *testing.T, fake *renderertest.Backend, options ...renderer.RendererBuilderOption) renderer.Renderer {
	t.Helper()
	opts := append([]renderer.RendererBuilderOption{
		renderer.WithBackend(fake),
		renderer.WithLogger(quietLogger()),
	}, options...)
	r, err := renderer.NewRenderer(context.Background(), &wgpu.SurfaceDescriptor{}, 640, 480, opts...)
	require.NoError(t, err)
	t.Cleanup(r.Release)
	return r
}
