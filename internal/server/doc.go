// Package server implements the MCP (Model Context Protocol) server for
// letter ellipse fitting.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Document Information:
//   - svg_dimensions: viewBox, viewport and raster geometry at a zoom
//   - svg_find_letters: occurrences of the target letters in document order
//
// Isolation:
//   - svg_isolate_letter: isolation document, optionally rendered to PNG
//
// Ellipse Fitting:
//   - svg_fit_letters: fit every occurrence in one file
//   - svg_fit_letter: fit one occurrence
//   - svg_fit_directory: fit every *.svg file of a directory
//
// Per-call letters and zoom override the server configuration; every other
// setting comes from config.Config.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// A character that fails to fit is not a tool error. It appears in the
// result with error and error_code set.
//
// # Usage
//
//	srv := server.New(cfg, renderer, logger)
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
