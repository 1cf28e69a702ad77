package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	glypherr "github.com/ironsheep/letter-center-mcp/internal/errors"
	"github.com/ironsheep/letter-center-mcp/internal/imaging"
)

// DefaultCommand is the external rasterizer used when none is configured.
const DefaultCommand = "rsvg-convert"

// DefaultTimeout bounds a single rasterizer invocation.
const DefaultTimeout = 30 * time.Second

// Subprocess renders by invoking an rsvg-convert compatible command:
//
//	<command> --zoom Z --background-color white --format png -o out.png in.svg
//
// Each call works in its own temporary directory, named with a UUID and
// removed before Render returns.
type Subprocess struct {
	Command string
	TempDir string
	Timeout time.Duration
}

// NewSubprocess returns a Subprocess renderer, substituting defaults for
// empty values.
func NewSubprocess(command, tempDir string, timeout time.Duration) *Subprocess {
	if command == "" {
		command = DefaultCommand
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Subprocess{Command: command, TempDir: tempDir, Timeout: timeout}
}

// Available reports whether the command can be found.
func (s *Subprocess) Available() bool {
	_, err := exec.LookPath(s.Command)
	return err == nil
}

// Render implements Renderer. Every failure is a RasterizationError.
func (s *Subprocess) Render(ctx context.Context, svg []byte, zoom float64) (*image.Gray, error) {
	if zoom <= 0 {
		return nil, glypherr.NewRasterizationError(s.Command, fmt.Errorf("zoom must be positive, got %g", zoom))
	}

	base := s.TempDir
	if base == "" {
		base = os.TempDir()
	}
	dir := filepath.Join(base, "letter-center-"+uuid.New().String())
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, glypherr.NewRasterizationError(s.Command, fmt.Errorf("failed to create temp dir: %w", err))
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, "isolated.svg")
	out := filepath.Join(dir, "render.png")
	if err := os.WriteFile(in, svg, 0o600); err != nil {
		return nil, glypherr.NewRasterizationError(s.Command, fmt.Errorf("failed to write document: %w", err))
	}

	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, s.Command,
		"--zoom", strconv.FormatFloat(zoom, 'f', -1, 64),
		"--background-color", "white",
		"--format", "png",
		"-o", out,
		in,
	)
	cmd.WaitDelay = time.Second
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, glypherr.NewRasterizationError(s.Command, fmt.Errorf("timed out after %s", s.Timeout))
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			err = fmt.Errorf("%w: %s", err, msg)
		}
		return nil, glypherr.NewRasterizationError(s.Command, err)
	}

	f, err := os.Open(out)
	if err != nil {
		return nil, glypherr.NewRasterizationError(s.Command, fmt.Errorf("no output: %w", err))
	}
	defer f.Close()

	g, err := imaging.DecodeGray(f)
	if err != nil {
		return nil, glypherr.NewRasterizationError(s.Command, err)
	}
	return g, nil
}
