package simplenode

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ParseXML reads an XML document into a tree. Namespace declarations become
// namespace nodes and prefixes are resolved the same way the Builder does.
func ParseXML(r io.Reader, uri string, opts ...Option) (*Node, error) {
	b := NewDocument(uri, opts...)
	dec := xml.NewDecoder(r)
	var open []xml.Name
	for {
		tok, err := dec.RawToken()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("simplenode: parse %s: %w", uri, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			b.Elem(rawName(t.Name))
			for _, a := range t.Attr {
				switch {
				case a.Name.Space == "xmlns":
					b.NS(a.Name.Local, a.Value)
				case a.Name.Space == "" && a.Name.Local == "xmlns":
					b.NS("", a.Value)
				default:
					b.Attr(rawName(a.Name), a.Value)
				}
			}
			open = append(open, t.Name)
		case xml.EndElement:
			if len(open) == 0 || open[len(open)-1] != t.Name {
				return nil, fmt.Errorf("simplenode: parse %s: unexpected end element %s", uri, rawName(t.Name))
			}
			open = open[:len(open)-1]
			b.End()
		case xml.CharData:
			if len(open) == 0 {
				continue // whitespace around the document element
			}
			b.Text(string(t))
		case xml.Comment:
			b.Comment(string(t))
		case xml.ProcInst:
			if t.Target == "xml" {
				continue
			}
			b.PI(t.Target, strings.TrimSpace(string(t.Inst)))
		}
	}
	if len(open) > 0 {
		return nil, fmt.Errorf("simplenode: parse %s: unclosed element %s", uri, rawName(open[len(open)-1]))
	}
	return b.Build()
}

// ParseXMLString is ParseXML over a string.
func ParseXMLString(s, uri string, opts ...Option) (*Node, error) {
	return ParseXML(strings.NewReader(s), uri, opts...)
}

func rawName(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}
