// Package config holds the run configuration: window, renderer, pipeline preset and log levels.
// Configuration is read from TOML; unknown keys are rejected so typos surface as errors.
package config

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/Carmen-Shannon/oxy-learn/common"
	"github.com/Carmen-Shannon/oxy-learn/engine/renderer/pipeline"
	"github.com/cockroachdb/errors"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/pelletier/go-toml/v2"
)

// ErrConfig is returned for configuration that cannot be read, decoded or validated.
var ErrConfig = errors.New("invalid configuration")

// Vertex layout names accepted by PipelineConfig.VertexLayout.
const (
	LayoutNone             = "none"
	LayoutPosition2D       = "position2d"
	LayoutPosition2DColor3 = "position2d-color3"
)

// Config is the complete run configuration.
type Config struct {
	Window   WindowConfig   `toml:"window"`
	Renderer RendererConfig `toml:"renderer"`
	Pipeline PipelineConfig `toml:"pipeline"`
	Log      LogConfig      `toml:"log"`
}

// WindowConfig sizes the fixed-size window and names the key that ends the run.
type WindowConfig struct {
	Width   uint32 `toml:"width"`
	Height  uint32 `toml:"height"`
	Title   string `toml:"title"`
	ExitKey string `toml:"exit_key"`
}

// RendererConfig configures negotiation and the frame loop.
type RendererConfig struct {
	ClearColor           [4]float64   `toml:"clear_color"`
	RequestTimeout       string       `toml:"request_timeout"`
	ForceFallbackAdapter bool         `toml:"force_fallback_adapter"`
	NotificationWorkers  int          `toml:"notification_workers"`
	MaxFrames            uint64       `toml:"max_frames"`
	Limits               LimitsConfig `toml:"limits"`
}

// LimitsConfig caps the device limits. Zero fields keep the adapter's supported value.
type LimitsConfig struct {
	MaxVertexAttributes           uint32 `toml:"max_vertex_attributes"`
	MaxVertexBuffers              uint32 `toml:"max_vertex_buffers"`
	MaxBufferSize                 uint64 `toml:"max_buffer_size"`
	MaxVertexBufferArrayStride    uint32 `toml:"max_vertex_buffer_array_stride"`
	MaxInterStageShaderComponents uint32 `toml:"max_inter_stage_shader_components"`
	MaxBindGroups                 uint32 `toml:"max_bind_groups"`
}

// PipelineConfig selects the shader, vertex layout, blending and geometry drawn every frame.
type PipelineConfig struct {
	Key          string `toml:"key"`
	Shader       string `toml:"shader"`
	VertexLayout string `toml:"vertex_layout"`
	Blend        string `toml:"blend"`
	// Geometry is a file path or a loader preset name. Empty draws VertexCount procedural vertices.
	Geometry             string `toml:"geometry"`
	VertexCount          uint32 `toml:"vertex_count"`
	InterStageComponents uint32 `toml:"inter_stage_components"`
}

// LogConfig sets the application and native WebGPU log levels.
type LogConfig struct {
	Level     string `toml:"level"`
	WGPULevel string `toml:"wgpu_level"`
}

// Default returns the configuration of the first tutorial step: a procedural blue triangle on a
// red background in a 640x480 window.
func Default() *Config {
	return &Config{
		Window: WindowConfig{
			Width:   640,
			Height:  480,
			Title:   "Learn WebGPU",
			ExitKey: "escape",
		},
		Renderer: RendererConfig{
			ClearColor:          [4]float64{0.9, 0.1, 0.2, 1.0},
			RequestTimeout:      "5s",
			NotificationWorkers: 2,
		},
		Pipeline: PipelineConfig{
			Key:          "triangle",
			Shader:       "assets/shaders/triangle.wgsl",
			VertexLayout: LayoutNone,
			Blend:        pipeline.BlendBasicAlpha.String(),
			VertexCount:  3,
		},
		Log: LogConfig{
			Level:     "info",
			WGPULevel: "warn",
		},
	}
}

// Load reads and validates a TOML configuration file layered over Default.
//
// Parameters:
//   - path: the TOML file path
//
// Returns:
//   - *Config: the validated configuration
//   - error: ErrConfig if the file cannot be read, decoded or validated
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "open config %s", path), ErrConfig)
	}
	defer f.Close()
	return LoadReader(f)
}

// LoadReader decodes and validates TOML configuration from r layered over Default.
//
// Parameters:
//   - r: the reader providing TOML
//
// Returns:
//   - *Config: the validated configuration
//   - error: ErrConfig if decoding or validation fails
func LoadReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := toml.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "decode config"), ErrConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every field that would otherwise fail later at run time.
//
// Returns:
//   - error: ErrConfig naming the first invalid field, or nil
func (c *Config) Validate() error {
	if c.Window.Width == 0 || c.Window.Height == 0 {
		return errors.Wrapf(ErrConfig, "window size %dx%d must be non-zero", c.Window.Width, c.Window.Height)
	}
	if _, ok := common.KeyByName(c.Window.ExitKey); !ok {
		return errors.Wrapf(ErrConfig, "unknown exit_key %q", c.Window.ExitKey)
	}
	for i, v := range c.Renderer.ClearColor {
		if v < 0 || v > 1 {
			return errors.Wrapf(ErrConfig, "clear_color[%d] = %g is outside [0, 1]", i, v)
		}
	}
	if _, err := c.RequestTimeout(); err != nil {
		return err
	}
	if c.Renderer.NotificationWorkers < 1 {
		return errors.Wrapf(ErrConfig, "notification_workers must be at least 1, got %d", c.Renderer.NotificationWorkers)
	}
	if c.Pipeline.Key == "" {
		return errors.Wrap(ErrConfig, "pipeline key must not be empty")
	}
	if c.Pipeline.Shader == "" {
		return errors.Wrap(ErrConfig, "pipeline shader must not be empty")
	}
	layout, err := c.VertexLayout()
	if err != nil {
		return err
	}
	if _, err := pipeline.ParseBlendPreset(c.Pipeline.Blend); err != nil {
		return errors.Mark(errors.Wrap(err, "pipeline blend"), ErrConfig)
	}
	switch {
	case c.Pipeline.Geometry == "" && c.Pipeline.VertexCount == 0:
		return errors.Wrap(ErrConfig, "pipeline needs a geometry or a procedural vertex_count")
	case c.Pipeline.Geometry == "" && !layout.Empty():
		return errors.Wrapf(ErrConfig, "vertex_layout %q needs a geometry", c.Pipeline.VertexLayout)
	case c.Pipeline.Geometry != "" && layout.Empty():
		return errors.Wrap(ErrConfig, "geometry needs a vertex_layout other than none")
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	if _, err := c.WGPULogLevel(); err != nil {
		return err
	}
	return nil
}

// RequestTimeout parses the adapter and device request timeout.
func (c *Config) RequestTimeout() (time.Duration, error) {
	d, err := time.ParseDuration(c.Renderer.RequestTimeout)
	if err != nil {
		return 0, errors.Mark(errors.Wrapf(err, "request_timeout %q", c.Renderer.RequestTimeout), ErrConfig)
	}
	if d <= 0 {
		return 0, errors.Wrapf(ErrConfig, "request_timeout %q must be positive", c.Renderer.RequestTimeout)
	}
	return d, nil
}

// ExitKeyCode returns the key code of the configured exit key, Escape if unknown.
func (c *Config) ExitKeyCode() int {
	if k, ok := common.KeyByName(c.Window.ExitKey); ok {
		return k
	}
	return common.KeyEsc
}

// ClearColor returns the clear color as a WebGPU color.
func (c *Config) ClearColor() wgpu.Color {
	cc := c.Renderer.ClearColor
	return wgpu.Color{R: cc[0], G: cc[1], B: cc[2], A: cc[3]}
}

// VertexLayout resolves the named vertex layout.
func (c *Config) VertexLayout() (pipeline.VertexLayout, error) {
	switch strings.ToLower(c.Pipeline.VertexLayout) {
	case "", LayoutNone:
		return pipeline.VertexLayout{}, nil
	case LayoutPosition2D:
		return pipeline.LayoutPosition2D, nil
	case LayoutPosition2DColor3:
		return pipeline.LayoutPosition2DColor3, nil
	default:
		return pipeline.VertexLayout{}, errors.Wrapf(ErrConfig, "unknown vertex_layout %q", c.Pipeline.VertexLayout)
	}
}

// BlendPreset resolves the named blend preset. Call Validate first.
func (c *Config) BlendPreset() pipeline.BlendPreset {
	p, err := pipeline.ParseBlendPreset(c.Pipeline.Blend)
	if err != nil {
		return pipeline.BlendNone
	}
	return p
}

// Limits returns the configured device limit caps.
func (c *Config) Limits() LimitsConfig {
	return c.Renderer.Limits
}

// SlogLevel parses the application log level.
func (c *Config) SlogLevel() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, errors.Mark(errors.Wrapf(err, "log level %q", c.Log.Level), ErrConfig)
	}
	return l, nil
}

// WGPULogLevel parses the native WebGPU log level.
func (c *Config) WGPULogLevel() (wgpu.LogLevel, error) {
	switch strings.ToLower(c.Log.WGPULevel) {
	case "off":
		return wgpu.LogLevelOff, nil
	case "error":
		return wgpu.LogLevelError, nil
	case "", "warn":
		return wgpu.LogLevelWarn, nil
	case "info":
		return wgpu.LogLevelInfo, nil
	case "debug":
		return wgpu.LogLevelDebug, nil
	case "trace":
		return wgpu.LogLevelTrace, nil
	default:
		return wgpu.LogLevelOff, errors.Wrapf(ErrConfig, "unknown wgpu_level %q", c.Log.WGPULevel)
	}
}
