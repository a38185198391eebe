package engine

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/oxy-learn/common"
	"github.com/Carmen-Shannon/oxy-learn/engine/config"
	"github.com/Carmen-Shannon/oxy-learn/engine/loader"
	"github.com/Carmen-Shannon/oxy-learn/engine/profiler"
	"github.com/Carmen-Shannon/oxy-learn/engine/renderer"
	"github.com/Carmen-Shannon/oxy-learn/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-learn/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-learn/engine/window"
	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"
)

// Process exit codes returned by ExitCode.
const (
	ExitOK       = 0
	ExitWindow   = 1
	ExitBackend  = 2
	ExitGeometry = 3
	ExitConfig   = 4
)

// engine implements the Engine interface.
// Owns the window and the renderer and drives the single-threaded frame loop.
type engine struct {
	mu *sync.Mutex

	cfg    *config.Config
	logger *slog.Logger

	window    window.Window
	newWindow func(cfg *config.Config) (window.Window, error)
	renderer  renderer.Renderer
	backend   renderer.Backend
	loader    loader.Loader

	profiler         *profiler.Profiler
	profilingEnabled bool

	maxFrames uint64
	released  bool
}

// Engine is the main entry point for the engine.
// It owns the window and the renderer and runs the frame loop until the window asks to exit.
type Engine interface {
	// Window returns the underlying window.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// Renderer returns the renderer drawing into the window.
	//
	// Returns:
	//   - renderer.Renderer: the renderer instance
	Renderer() renderer.Renderer

	// Run polls window events and renders one frame per iteration until the window should exit,
	// the frame limit is reached, ctx is done, or the swap chain cannot produce a view.
	// It must be called from the goroutine that created the engine.
	//
	// Parameters:
	//   - ctx: stops the loop when done
	//
	// Returns:
	//   - error: nil for every clean stop, otherwise the frame failure
	Run(ctx context.Context) error

	// Release tears down the renderer in dependency order, then destroys the window.
	// Safe to call multiple times; subsequent calls are no-ops.
	Release()
}

var _ Engine = &engine{}

// NewEngine loads the shader and geometry assets, opens the window, negotiates the device and
// builds the configured pipeline and mesh. Everything acquired before a failure is released.
//
// Parameters:
//   - ctx: bounds asset loading and the adapter and device requests
//   - cfg: the run configuration, nil for config.Default()
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the ready engine
//   - error: classified by ExitCode
func NewEngine(ctx context.Context, cfg *config.Config, options ...EngineBuilderOption) (Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	e := &engine{
		mu:        &sync.Mutex{},
		cfg:       cfg,
		logger:    slog.Default(),
		newWindow: openWindow,
		maxFrames: cfg.Renderer.MaxFrames,
	}
	for _, opt := range options {
		opt(e)
	}
	if e.loader == nil {
		e.loader = loader.NewLoader(loader.BackendTypeText, loader.WithPresets())
	}
	if e.profiler == nil {
		e.profiler = profiler.NewProfiler(e.logger, 0)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	assets, err := e.loadAssets(ctx)
	if err != nil {
		return nil, err
	}

	if err := e.init(ctx, assets); err != nil {
		e.Release()
		return nil, err
	}
	return e, nil
}

// runAssets are the files a run needs before any GPU work.
type runAssets struct {
	vertex   shader.Shader
	fragment shader.Shader
	geometry *loader.Geometry
}

// loadAssets reads the shader stages and the geometry concurrently. No GPU call happens here.
func (e *engine) loadAssets(ctx context.Context) (*runAssets, error) {
	p := e.cfg.Pipeline
	assets := &runAssets{}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s, err := shader.NewShader(p.Key, shader.ShaderTypeVertex, p.Shader)
		assets.vertex = s
		return err
	})
	g.Go(func() error {
		s, err := shader.NewShader(p.Key, shader.ShaderTypeFragment, p.Shader)
		assets.fragment = s
		return err
	})
	if p.Geometry != "" {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			var err error
			if strings.HasPrefix(p.Geometry, "preset:") {
				assets.geometry = e.loader.Get(p.Geometry)
				if assets.geometry == nil {
					err = errors.Wrapf(loader.ErrGeometryRead, "unknown geometry preset %q", p.Geometry)
				}
			} else {
				assets.geometry, err = e.loader.Load(p.Geometry)
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if assets.geometry != nil {
		layout, err := e.cfg.VertexLayout()
		if err != nil {
			return nil, err
		}
		if _, err := assets.geometry.VertexCount(layout.FloatsPerVertex()); err != nil {
			return nil, errors.Wrapf(err, "geometry %s with layout %s", p.Geometry, e.cfg.Pipeline.VertexLayout)
		}
	}
	e.logger.Info("assets loaded", "shader", p.Shader, "geometry", p.Geometry)
	return assets, nil
}

func (e *engine) init(ctx context.Context, assets *runAssets) error {
	if e.window == nil {
		w, err := e.newWindow(e.cfg)
		if err != nil {
			return errors.Mark(errors.Wrap(err, "open window"), window.ErrWindowUnavailable)
		}
		e.window = w
	}

	p, err := e.buildPipelineConfig(assets)
	if err != nil {
		return err
	}

	timeout, err := e.cfg.RequestTimeout()
	if err != nil {
		return err
	}
	options := []renderer.RendererBuilderOption{
		renderer.WithLogger(e.logger),
		renderer.WithClearColor(e.cfg.ClearColor()),
		renderer.WithRequestTimeout(timeout),
		renderer.WithForceFallbackAdapter(e.cfg.Renderer.ForceFallbackAdapter),
		renderer.WithNotificationWorkers(e.cfg.Renderer.NotificationWorkers),
		renderer.WithRequiredLimits(e.requiredLimits(p, assets.geometry)),
	}
	if e.backend != nil {
		options = append(options, renderer.WithBackend(e.backend))
	}

	r, err := renderer.NewRenderer(ctx, e.window.SurfaceDescriptor(), uint32(e.window.Width()), uint32(e.window.Height()), options...)
	if err != nil {
		return err
	}
	e.renderer = r

	if err := r.RegisterPipeline(p); err != nil {
		return err
	}
	if assets.geometry == nil {
		r.InitProceduralMesh(e.cfg.Pipeline.VertexCount)
		return nil
	}
	return r.InitMesh(assets.geometry.Points, assets.geometry.Indices)
}

func (e *engine) buildPipelineConfig(assets *runAssets) (pipeline.Pipeline, error) {
	layout, err := e.cfg.VertexLayout()
	if err != nil {
		return nil, err
	}
	mode := pipeline.DrawModeNonIndexed
	if assets.geometry != nil && assets.geometry.Indexed() {
		mode = pipeline.DrawModeIndexed
	}
	return pipeline.NewPipeline(e.cfg.Pipeline.Key,
		pipeline.WithVertexShader(assets.vertex),
		pipeline.WithFragmentShader(assets.fragment),
		pipeline.WithVertexLayout(layout),
		pipeline.WithBlendPreset(e.cfg.BlendPreset()),
		pipeline.WithDrawMode(mode),
		pipeline.WithInterStageComponents(e.cfg.Pipeline.InterStageComponents),
	), nil
}

// requiredLimits derives the limits the pipeline needs, then applies the configured caps.
func (e *engine) requiredLimits(p pipeline.Pipeline, g *loader.Geometry) renderer.Limits {
	var vertexBytes, indexBytes uint64
	if g != nil {
		vertexBytes = uint64(len(g.Points)) * 4
		// index uploads are padded to a four byte multiple
		indexBytes = common.AlignUp(uint64(len(g.Indices))*2, 4)
	}
	l := renderer.LimitsForPipeline(p, vertexBytes, indexBytes)

	caps := e.cfg.Limits()
	if caps.MaxVertexAttributes != 0 {
		l.MaxVertexAttributes = caps.MaxVertexAttributes
	}
	if caps.MaxVertexBuffers != 0 {
		l.MaxVertexBuffers = caps.MaxVertexBuffers
	}
	if caps.MaxBufferSize != 0 {
		l.MaxBufferSize = caps.MaxBufferSize
	}
	if caps.MaxVertexBufferArrayStride != 0 {
		l.MaxVertexBufferArrayStride = caps.MaxVertexBufferArrayStride
	}
	if caps.MaxInterStageShaderComponents != 0 {
		l.MaxInterStageShaderComponents = caps.MaxInterStageShaderComponents
	}
	if caps.MaxBindGroups != 0 {
		l.MaxBindGroups = caps.MaxBindGroups
	}
	return l
}

func openWindow(cfg *config.Config) (window.Window, error) {
	return window.NewWindow(
		window.WithTitle(cfg.Window.Title),
		window.WithWidth(int(cfg.Window.Width)),
		window.WithHeight(int(cfg.Window.Height)),
		window.WithExitKey(cfg.ExitKeyCode()),
	)
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Renderer() renderer.Renderer {
	return e.renderer
}

func (e *engine) Run(ctx context.Context) error {
	var frames uint64
	for {
		if ctx.Err() != nil {
			e.logger.Info("run canceled", "frames", frames)
			return nil
		}
		e.window.PollEvents()
		if e.window.ShouldExit() {
			e.logger.Info("exit requested", "frames", frames)
			return nil
		}
		if e.maxFrames > 0 && frames >= e.maxFrames {
			e.logger.Info("frame limit reached", "frames", frames)
			return nil
		}

		e.profiler.BeginFrame()
		if _, err := e.renderer.RenderFrame(); err != nil {
			if errors.Is(err, renderer.ErrViewUnavailable) {
				e.logger.Error("cannot acquire next swap chain texture", "frames", frames, "error", err)
				return nil
			}
			return err
		}
		frames++
		if e.profilingEnabled {
			e.profiler.Tick()
		}
	}
}

func (e *engine) Release() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.released {
		return
	}
	e.released = true

	if e.renderer != nil {
		// releasing drains the notification sink, so read the counters afterwards
		e.renderer.Release()
		n := e.renderer.Notifications()
		stats := e.renderer.Stats()
		e.logger.Info("renderer released",
			"frames", stats.Frames,
			"draw_calls", stats.DrawCalls,
			"work_done", n.WorkDone,
			"work_done_failures", n.WorkDoneFailures,
			"uncaptured_errors", n.UncapturedErrors,
		)
	}
	if e.window != nil {
		if err := e.window.Close(); err != nil {
			e.logger.Warn("close window", "error", err)
		}
	}
}

// ExitCode maps an error from NewEngine or Run to the process exit code.
//
// Parameters:
//   - err: the error to classify, nil for success
//
// Returns:
//   - int: ExitOK, ExitWindow, ExitBackend, ExitGeometry or ExitConfig
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, config.ErrConfig):
		return ExitConfig
	case errors.Is(err, window.ErrWindowUnavailable):
		return ExitWindow
	case errors.Is(err, loader.ErrGeometryFormat),
		errors.Is(err, loader.ErrGeometryRead),
		errors.Is(err, shader.ErrShaderInvalid):
		return ExitGeometry
	default:
		return ExitBackend
	}
}
