package isolate

import (
	"bytes"
	"encoding/xml"
	"fmt"

	"github.com/ironsheep/letter-center-mcp/internal/svgdoc"
)

const xmlHeader = `<?xml version="1.0" encoding="UTF-8"?>` + "\n"

// Render serializes a document tree to standalone SVG text.
func Render(doc *svgdoc.Document) ([]byte, error) {
	if doc == nil || doc.Root == nil {
		return nil, fmt.Errorf("failed to render document: empty tree")
	}

	var buf bytes.Buffer
	buf.WriteString(xmlHeader)

	enc := xml.NewEncoder(&buf)
	if err := encodeNode(enc, doc.Root, true); err != nil {
		return nil, fmt.Errorf("failed to render document: %w", err)
	}
	if err := enc.Flush(); err != nil {
		return nil, fmt.Errorf("failed to render document: %w", err)
	}
	return buf.Bytes(), nil
}

func encodeNode(enc *xml.Encoder, n *svgdoc.Node, root bool) error {
	start := xml.StartElement{Name: xml.Name{Local: n.Name}}
	for _, a := range n.Attrs {
		name := xml.Name{Space: a.Space, Local: a.Name}
		if a.Space == "xmlns" {
			// prefix declarations are written verbatim
			name = xml.Name{Local: "xmlns:" + a.Name}
		}
		start.Attr = append(start.Attr, xml.Attr{Name: name, Value: a.Value})
	}

	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	if n.Text != "" {
		if err := enc.EncodeToken(xml.CharData(n.Text)); err != nil {
			return err
		}
	}
	for _, c := range n.Children {
		if err := encodeNode(enc, c, false); err != nil {
			return err
		}
	}
	if err := enc.EncodeToken(start.End()); err != nil {
		return err
	}
	if !root && n.Tail != "" {
		return enc.EncodeToken(xml.CharData(n.Tail))
	}
	return nil
}
