package ast

// Template is a parsed statement: an id and its root node.
type Template struct {
	ID   string
	Root Node
	fp   uint64
}

func NewTemplate(id string, children ...Node) *Template {
	var root Node
	if len(children) == 1 {
		root = children[0]
	} else {
		root = NewMixed(children...)
	}
	return &Template{ID: id, Root: root, fp: fingerprintOf(root)}
}

func (t *Template) Fingerprint() uint64 { return t.fp }

// Walk visits n and its descendants depth first. Returning false from fn skips
// the children of the visited node.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	switch v := n.(type) {
	case *Mixed:
		for _, c := range v.Children {
			Walk(c, fn)
		}
	case *If:
		Walk(v.Body, fn)
	case *Choose:
		for _, w := range v.Whens {
			Walk(w.Body, fn)
		}
		Walk(v.Otherwise, fn)
	case *ForEach:
		Walk(v.Body, fn)
	case *Trim:
		Walk(v.Body, fn)
	}
}

// IsDynamic reports whether the tree contains any directive or placeholder that
// depends on bindings.
func IsDynamic(n Node) bool {
	dynamic := false
	Walk(n, func(c Node) bool {
		switch v := c.(type) {
		case *Text:
			if containsPlaceholder(v.Value) {
				dynamic = true
			}
		case *Mixed:
		default:
			dynamic = true
		}
		return !dynamic
	})
	return dynamic
}

func containsPlaceholder(s string) bool {
	for i := 0; i+1 < len(s); i++ {
		if (s[i] == '#' || s[i] == '$') && s[i+1] == '{' {
			return true
		}
	}
	return false
}
