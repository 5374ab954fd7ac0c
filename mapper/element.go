package mapper

import (
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"github.com/Konsultn-Engineering/dynsql/apperrors"
)

// element is a generic markup element. Content holds *element and string
// (character data) items in document order.
type element struct {
	Name    string
	Attrs   map[string]string
	Content []any
	Line    int
}

func (e *element) attr(name string) (string, bool) {
	v, ok := e.Attrs[name]
	return v, ok
}

// require returns a non-empty attribute or a syntax error naming it.
func (e *element) require(name string) (string, error) {
	v, ok := e.Attrs[name]
	if !ok || strings.TrimSpace(v) == "" {
		return "", apperrors.Syntaxf(e.Line, "<%s> requires attribute %q", e.Name, name)
	}
	return v, nil
}

// readElement decodes the document's root element.
func readElement(r io.Reader) (*element, error) {
	dec := xml.NewDecoder(r)
	dec.Strict = true

	var (
		root  *element
		stack []*element
	)
	for {
		line, _ := dec.InputPos()
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var se *xml.SyntaxError
			if errors.As(err, &se) {
				return nil, apperrors.Syntaxf(se.Line, "%s", se.Msg)
			}
			return nil, apperrors.Syntaxf(line, "%v", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			el := &element{Name: t.Name.Local, Attrs: make(map[string]string, len(t.Attr)), Line: line}
			for _, a := range t.Attr {
				el.Attrs[a.Name.Local] = a.Value
			}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.Content = append(parent.Content, el)
			} else if root == nil {
				root = el
			} else {
				return nil, apperrors.Syntaxf(line, "multiple root elements")
			}
			stack = append(stack, el)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.Content = append(parent.Content, string(t))
			}
		}
	}
	if root == nil {
		return nil, apperrors.Syntaxf(0, "document has no root element")
	}
	return root, nil
}
