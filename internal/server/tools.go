package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the SVG file",
	}
}

func lettersProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Characters to look for, e.g. \"OC\". Defaults to the server's configured letters",
	}
}

func zoomProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "number",
		"description": "Rasterization zoom factor. Defaults to the server's configured zoom",
	}
}

func indexProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "integer",
		"description": "Position of the occurrence in the svg_find_letters result (0-based)",
		"minimum":     0,
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Document Information
		{
			Name:        "svg_dimensions",
			Description: "Report the viewBox and viewport of an SVG file and the raster size and viewport transform at a zoom factor.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"zoom": zoomProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "svg_find_letters",
			Description: "List every occurrence of the target letters in the text of an SVG file, in document order, with font attributes and an estimated glyph center.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":    pathProperty(),
					"letters": lettersProperty(),
				},
				"required": []string{"path"},
			},
		},

		// Isolation
		{
			Name:        "svg_isolate_letter",
			Description: "Build the isolation document in which only one occurrence is visible. Optionally render it and return a base64-encoded PNG cropped to the glyph.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":    pathProperty(),
					"letters": lettersProperty(),
					"index":   indexProperty(),
					"zoom":    zoomProperty(),
					"preview": map[string]interface{}{
						"type":        "boolean",
						"description": "Render the isolation document and include a PNG preview",
						"default":     false,
					},
				},
				"required": []string{"path", "index"},
			},
		},

		// Ellipse Fitting
		{
			Name:        "svg_fit_letters",
			Description: "Fit an ellipse to every occurrence of the target letters in an SVG file. Returns pixel and document-space ellipses, convex hull summaries and fit quality per character. Characters that fail carry an error entry.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":    pathProperty(),
					"letters": lettersProperty(),
					"zoom":    zoomProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "svg_fit_letter",
			Description: "Fit an ellipse to a single occurrence of the target letters in an SVG file.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":    pathProperty(),
					"letters": lettersProperty(),
					"index":   indexProperty(),
					"zoom":    zoomProperty(),
				},
				"required": []string{"path", "index"},
			},
		},
		{
			Name:        "svg_fit_directory",
			Description: "Fit every target letter in every *.svg file of a directory. Files that cannot be processed are listed in the summary and the batch continues.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"dir": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to a directory of SVG files",
					},
					"letters": lettersProperty(),
					"zoom":    zoomProperty(),
					"report": map[string]interface{}{
						"type":        "boolean",
						"description": "Include a plain-text summary report",
						"default":     false,
					},
				},
				"required": []string{"dir"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
