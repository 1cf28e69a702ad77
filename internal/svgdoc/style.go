package svgdoc

import (
	"strconv"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// ParseStyle parses an inline CSS declaration list such as
// "font-size:12px;fill:#000" into a property map. Later declarations win.
func ParseStyle(style string) map[string]string {
	out := make(map[string]string)
	for _, item := range strings.Split(style, ";") {
		item = strings.TrimSpace(item)
		key, value, ok := strings.Cut(item, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(value), "!important"))
		if key == "" {
			continue
		}
		out[key] = strings.TrimSpace(value)
	}
	return out
}

// FormatStyle serializes a declaration list, keeping the order of keys.
func FormatStyle(keys []string, props map[string]string) string {
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		if v, ok := props[k]; ok {
			parts = append(parts, k+":"+v)
		}
	}
	return strings.Join(parts, ";")
}

// StyleKeys returns the property names of style in declaration order, without duplicates.
func StyleKeys(style string) []string {
	var keys []string
	seen := make(map[string]bool)
	for _, item := range strings.Split(style, ";") {
		key, _, ok := strings.Cut(item, ":")
		key = strings.TrimSpace(key)
		if !ok || key == "" || seen[key] {
			continue
		}
		seen[key] = true
		keys = append(keys, key)
	}
	return keys
}

// Property resolves a presentation property on n: the inline style
// declaration wins over the attribute of the same name.
func (n *Node) Property(name string) (string, bool) {
	if style, ok := n.Attr("style"); ok {
		if v, ok := ParseStyle(style)[name]; ok {
			return v, true
		}
	}
	return n.Attr(name)
}

var namedColors = map[string]string{
	"black":   "#000000",
	"white":   "#ffffff",
	"red":     "#ff0000",
	"green":   "#008000",
	"lime":    "#00ff00",
	"blue":    "#0000ff",
	"navy":    "#000080",
	"yellow":  "#ffff00",
	"orange":  "#ffa500",
	"purple":  "#800080",
	"magenta": "#ff00ff",
	"fuchsia": "#ff00ff",
	"cyan":    "#00ffff",
	"aqua":    "#00ffff",
	"teal":    "#008080",
	"maroon":  "#800000",
	"olive":   "#808000",
	"silver":  "#c0c0c0",
	"gray":    "#808080",
	"grey":    "#808080",
	"darkred": "#8b0000",
}

// ParseColor parses a CSS colour value: #rgb, #rrggbb, rgb(r,g,b) or one of
// the common named colours.
func ParseColor(s string) (colorful.Color, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if hex, ok := namedColors[s]; ok {
		s = hex
	}
	if strings.HasPrefix(s, "#") {
		c, err := colorful.Hex(s)
		if err != nil {
			return colorful.Color{}, false
		}
		return c, true
	}
	if strings.HasPrefix(s, "rgb(") && strings.HasSuffix(s, ")") {
		parts := strings.Split(s[4:len(s)-1], ",")
		if len(parts) != 3 {
			return colorful.Color{}, false
		}
		var v [3]float64
		for i, p := range parts {
			p = strings.TrimSpace(p)
			pct := strings.HasSuffix(p, "%")
			n, err := strconv.ParseFloat(strings.TrimSuffix(p, "%"), 64)
			if err != nil {
				return colorful.Color{}, false
			}
			if pct {
				n = n * 255 / 100
			}
			v[i] = n / 255
		}
		return colorful.Color{R: v[0], G: v[1], B: v[2]}.Clamped(), true
	}
	return colorful.Color{}, false
}

// NormalizeColor returns the canonical lowercase #rrggbb form of a colour,
// or the trimmed input unchanged when it is not a parseable colour (e.g. "none").
func NormalizeColor(s string) string {
	if c, ok := ParseColor(s); ok {
		return c.Hex()
	}
	return strings.TrimSpace(s)
}
