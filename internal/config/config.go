// Package config loads the server configuration from the environment.
//
// Variables use the LETTER_MCP_ prefix. An optional .env file is loaded
// first; variables already set in the environment win over it.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/ironsheep/letter-center-mcp/internal/geometry"
	"github.com/ironsheep/letter-center-mcp/internal/imaging"
	"github.com/ironsheep/letter-center-mcp/internal/logging"
	"github.com/ironsheep/letter-center-mcp/internal/pipeline"
	"github.com/ironsheep/letter-center-mcp/internal/render"
)

// Prefix is prepended to every variable name.
const Prefix = "LETTER_MCP_"

// Config holds the process-wide settings. It is read-only once loaded.
type Config struct {
	// Target letters
	Letters string

	// Rasterization
	Zoom          float64
	Renderer      string
	RsvgPath      string
	RenderTimeout time.Duration
	TempDir       string

	// Processing
	Workers           int
	MinGlyphPixels    int
	CoverageTolerance float64
	ClosingKernel     int
	CropPadding       int

	// Outputs
	DiagnosticsDir string
	VerifyOCR      bool
	LogLevel       logging.Level
}

// Default returns the configuration used when no variable is set.
func Default() *Config {
	return &Config{
		Letters:           "OC",
		Zoom:              10,
		Renderer:          render.KindSubprocess,
		RsvgPath:          render.DefaultCommand,
		RenderTimeout:     render.DefaultTimeout,
		Workers:           1,
		MinGlyphPixels:    10,
		CoverageTolerance: geometry.DefaultCoverageTolerance,
		ClosingKernel:     imaging.DefaultClosingKernel,
		CropPadding:       imaging.DefaultCropPadding,
		LogLevel:          logging.LevelInfo,
	}
}

// LoadDotEnv loads the given .env files (".env" when none are named).
// A missing file is not an error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); os.IsNotExist(err) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// LoadConfig reads the environment on top of Default and validates the result.
func LoadConfig() (*Config, error) {
	cfg := Default()
	var errs []string
	fail := func(key string, err error) {
		errs = append(errs, fmt.Sprintf("%s%s: %v", Prefix, key, err))
	}

	cfg.Letters = getEnvOrDefault("LETTERS", cfg.Letters)
	cfg.Renderer = strings.ToLower(getEnvOrDefault("RENDERER", cfg.Renderer))
	cfg.RsvgPath = getEnvOrDefault("RSVG_PATH", cfg.RsvgPath)
	cfg.TempDir = getEnvOrDefault("TEMP_DIR", cfg.TempDir)
	cfg.DiagnosticsDir = getEnvOrDefault("DIAGNOSTICS_DIR", cfg.DiagnosticsDir)

	var err error
	if cfg.Zoom, err = getEnvAsFloat("ZOOM", cfg.Zoom); err != nil {
		fail("ZOOM", err)
	}
	if cfg.CoverageTolerance, err = getEnvAsFloat("COVERAGE_TOLERANCE", cfg.CoverageTolerance); err != nil {
		fail("COVERAGE_TOLERANCE", err)
	}
	for key, dst := range map[string]*int{
		"WORKERS":          &cfg.Workers,
		"MIN_GLYPH_PIXELS": &cfg.MinGlyphPixels,
		"CLOSING_KERNEL":   &cfg.ClosingKernel,
		"CROP_PADDING":     &cfg.CropPadding,
	} {
		if *dst, err = getEnvAsInt(key, *dst); err != nil {
			fail(key, err)
		}
	}
	if cfg.RenderTimeout, err = getEnvAsDuration("RENDER_TIMEOUT", cfg.RenderTimeout); err != nil {
		fail("RENDER_TIMEOUT", err)
	}
	if cfg.VerifyOCR, err = getEnvAsBool("VERIFY_OCR", cfg.VerifyOCR); err != nil {
		fail("VERIFY_OCR", err)
	}
	if v := getEnvOrDefault("LOG_LEVEL", ""); v != "" {
		level, ok := logging.ParseLevel(v)
		if !ok {
			fail("LOG_LEVEL", fmt.Errorf("unknown level %q", v))
		}
		cfg.LogLevel = level
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks that every setting is in range.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Letters) == "" {
		return fmt.Errorf("LETTERS must name at least one letter")
	}
	if c.Zoom <= 0 || c.Zoom > 100 {
		return fmt.Errorf("ZOOM must be in (0, 100], got %g", c.Zoom)
	}
	if c.Renderer != render.KindSubprocess && c.Renderer != render.KindBuiltin {
		return fmt.Errorf("RENDERER must be %q or %q, got %q", render.KindSubprocess, render.KindBuiltin, c.Renderer)
	}
	if c.Renderer == render.KindSubprocess && c.RsvgPath == "" {
		return fmt.Errorf("RSVG_PATH is required for the %q renderer", render.KindSubprocess)
	}
	if c.RenderTimeout <= 0 {
		return fmt.Errorf("RENDER_TIMEOUT must be positive, got %s", c.RenderTimeout)
	}
	if c.Workers < 1 || c.Workers > 64 {
		return fmt.Errorf("WORKERS must be between 1 and 64, got %d", c.Workers)
	}
	if c.MinGlyphPixels < 0 {
		return fmt.Errorf("MIN_GLYPH_PIXELS must not be negative, got %d", c.MinGlyphPixels)
	}
	if c.CoverageTolerance < 1 {
		return fmt.Errorf("COVERAGE_TOLERANCE must be at least 1, got %g", c.CoverageTolerance)
	}
	if c.ClosingKernel < 1 || c.ClosingKernel > 15 {
		return fmt.Errorf("CLOSING_KERNEL must be between 1 and 15, got %d", c.ClosingKernel)
	}
	if c.CropPadding < 0 {
		return fmt.Errorf("CROP_PADDING must not be negative, got %d", c.CropPadding)
	}
	return nil
}

// RenderOptions returns the renderer selection for render.New.
func (c *Config) RenderOptions() render.Options {
	return render.Options{
		Kind:    c.Renderer,
		Command: c.RsvgPath,
		TempDir: c.TempDir,
		Timeout: c.RenderTimeout,
	}
}

// PipelineOptions returns the processing options for pipeline.New.
func (c *Config) PipelineOptions() pipeline.Options {
	opts := pipeline.DefaultOptions()
	opts.Letters = c.Letters
	opts.Zoom = c.Zoom
	opts.MinGlyphPixels = c.MinGlyphPixels
	opts.CoverageTolerance = c.CoverageTolerance
	opts.ClosingKernel = c.ClosingKernel
	opts.CropPadding = c.CropPadding
	opts.Workers = c.Workers
	opts.RenderTimeout = c.RenderTimeout
	opts.DiagnosticsDir = c.DiagnosticsDir
	opts.VerifyOCR = c.VerifyOCR
	return opts
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(Prefix + key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) (int, error) {
	s := os.Getenv(Prefix + key)
	if s == "" {
		return defaultValue, nil
	}
	return strconv.Atoi(strings.TrimSpace(s))
}

func getEnvAsFloat(key string, defaultValue float64) (float64, error) {
	s := os.Getenv(Prefix + key)
	if s == "" {
		return defaultValue, nil
	}
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

func getEnvAsBool(key string, defaultValue bool) (bool, error) {
	s := os.Getenv(Prefix + key)
	if s == "" {
		return defaultValue, nil
	}
	return strconv.ParseBool(strings.TrimSpace(s))
}

// getEnvAsDuration accepts Go durations ("45s") or a bare number of seconds.
func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	s := strings.TrimSpace(os.Getenv(Prefix + key))
	if s == "" {
		return defaultValue, nil
	}
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}
	return time.ParseDuration(s)
}
