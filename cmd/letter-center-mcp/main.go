package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ironsheep/letter-center-mcp/internal/config"
	"github.com/ironsheep/letter-center-mcp/internal/logging"
	"github.com/ironsheep/letter-center-mcp/internal/pipeline"
	"github.com/ironsheep/letter-center-mcp/internal/render"
	"github.com/ironsheep/letter-center-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("letter-center-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			printHelp()
			return
		case "fit":
			os.Exit(runFit(os.Args[2:]))
		}
	}

	cfg, logger := setup()
	logger.Debug("starting", "version", Version, "build_time", BuildTime, "commit", GitCommit)

	srv := server.New(cfg, newRenderer(cfg, logger), logger)
	server.Version = Version
	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Println("letter-center-mcp - fit ellipses to O and C glyphs in SVG diagrams")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  letter-center-mcp                          Run the MCP server on stdin/stdout")
	fmt.Println("  letter-center-mcp fit [--summary] <path>   Fit a file or every *.svg in a directory")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version, -v    Print version information")
	fmt.Println("  --help, -h       Print this help message")
	fmt.Println()
	fmt.Println("Environment variables (also read from ./.env):")
	fmt.Println("  LETTER_MCP_LETTERS=OC              Target letters")
	fmt.Println("  LETTER_MCP_ZOOM=10                 Rasterization zoom")
	fmt.Println("  LETTER_MCP_RENDERER=rsvg           rsvg or builtin")
	fmt.Println("  LETTER_MCP_RSVG_PATH=rsvg-convert  External rasterizer")
	fmt.Println("  LETTER_MCP_WORKERS=1               Characters fitted in parallel")
	fmt.Println("  LETTER_MCP_DIAGNOSTICS_DIR=        Write glyph/mask PNGs here")
	fmt.Println("  LETTER_MCP_VERIFY_OCR=false        Check glyphs with Tesseract")
	fmt.Println("  LETTER_MCP_LOG_LEVEL=info          debug, info, warn or error")
}

// setup loads the configuration and builds the stderr logger. Stdout is
// reserved for the protocol and for fit output.
func setup() (*config.Config, *logging.Logger) {
	logger := logging.NewLogger("letter-center-mcp")
	if err := config.LoadDotEnv(); err != nil {
		logger.Error("failed to load .env", "error", err)
		os.Exit(1)
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger.SetLevel(cfg.LogLevel)
	return cfg, logger
}

// newRenderer returns the configured renderer, falling back to the builtin
// one when the external rasterizer is missing.
func newRenderer(cfg *config.Config, logger *logging.Logger) render.Renderer {
	r, err := render.New(cfg.RenderOptions())
	if err != nil {
		logger.Error("failed to create renderer", "error", err)
		os.Exit(1)
	}
	if s, ok := r.(*render.Subprocess); ok && !s.Available() {
		logger.Warn("rasterizer not found, using builtin renderer", "command", s.Command)
		b, err := render.NewBuiltin()
		if err != nil {
			logger.Error("failed to create builtin renderer", "error", err)
			os.Exit(1)
		}
		return b
	}
	return r
}

func runFit(args []string) int {
	fs := flag.NewFlagSet("fit", flag.ContinueOnError)
	summary := fs.Bool("summary", false, "print a text summary instead of JSON")
	letters := fs.String("letters", "", "target letters (overrides LETTER_MCP_LETTERS)")
	zoom := fs.Float64("zoom", 0, "rasterization zoom (overrides LETTER_MCP_ZOOM)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: letter-center-mcp fit [--summary] [--letters OC] [--zoom 10] <file-or-dir>")
		return 2
	}
	path := fs.Arg(0)

	cfg, logger := setup()
	if *letters != "" {
		cfg.Letters = *letters
	}
	if *zoom > 0 {
		cfg.Zoom = *zoom
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid options", "error", err)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	proc := pipeline.New(newRenderer(cfg, logger), cfg.PipelineOptions(), logger.With("pipeline"))

	info, err := os.Stat(path)
	if err != nil {
		logger.Error("cannot read input", "path", path, "error", err)
		return 1
	}

	var result interface{}
	batch := &pipeline.BatchSummary{}
	if info.IsDir() {
		if batch, err = proc.ProcessDirectory(ctx, path); err != nil {
			logger.Error("batch failed", "dir", path, "error", err)
			return 1
		}
		result = batch
	} else {
		doc, err := proc.ProcessFile(ctx, path)
		if err != nil {
			logger.Error("document failed", "path", path, "error", err)
			return 1
		}
		if *summary {
			if err := pipeline.WriteDocumentSummary(os.Stdout, doc); err != nil {
				logger.Error("failed to write summary", "error", err)
				return 1
			}
			return 0
		}
		result = doc
	}

	if *summary {
		if err := pipeline.WriteSummary(os.Stdout, batch); err != nil {
			logger.Error("failed to write summary", "error", err)
			return 1
		}
		return 0
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		logger.Error("failed to write results", "error", err)
		return 1
	}
	return 0
}
