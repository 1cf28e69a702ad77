package svgdoc

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"

	glypherr "github.com/ironsheep/letter-center-mcp/internal/errors"
)

// Parse reads an XML document into a tree. Malformed input is a ParseError.
func Parse(r io.Reader) (*Document, error) {
	dec := xml.NewDecoder(r)
	dec.Strict = true
	dec.Entity = xml.HTMLEntity

	var (
		root  *Node
		stack []*Node
	)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, glypherr.NewParseError("malformed XML", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			n := &Node{Name: t.Name.Local}
			for _, a := range t.Attr {
				n.Attrs = append(n.Attrs, Attr{Space: a.Name.Space, Name: a.Name.Local, Value: a.Value})
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, glypherr.NewParseError("multiple root elements", nil)
				}
				root = n
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, n)
			}
			stack = append(stack, n)

		case xml.EndElement:
			stack = stack[:len(stack)-1]

		case xml.CharData:
			if len(stack) == 0 {
				continue
			}
			cur := stack[len(stack)-1]
			if len(cur.Children) == 0 {
				cur.Text += string(t)
			} else {
				last := cur.Children[len(cur.Children)-1]
				last.Tail += string(t)
			}
		}
	}

	if root == nil {
		return nil, glypherr.NewParseError("document has no root element", nil)
	}
	if root.Name != "svg" {
		return nil, glypherr.NewParseError(fmt.Sprintf("root element is <%s>, want <svg>", root.Name), nil)
	}
	return &Document{Root: root}, nil
}

// ParseBytes parses an in-memory document.
func ParseBytes(data []byte) (*Document, error) {
	return Parse(bytes.NewReader(data))
}

// ParseFile parses the document at path.
func ParseFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open document: %w", err)
	}
	defer f.Close()
	return Parse(f)
}
