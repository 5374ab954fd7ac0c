// Package mapper parses MyBatis-style mapper documents and <script> markup into
// template trees.
package mapper

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/Konsultn-Engineering/dynsql/apperrors"
	"github.com/Konsultn-Engineering/dynsql/ast"
)

type StatementKind string

const (
	KindSelect StatementKind = "select"
	KindInsert StatementKind = "insert"
	KindUpdate StatementKind = "update"
	KindDelete StatementKind = "delete"
)

// Statement is one SQL statement of a mapper.
type Statement struct {
	ID         string
	Kind       StatementKind
	DatabaseID string
	Template   *ast.Template
}

// Mapper holds the parsed statements of one document.
type Mapper struct {
	Namespace  string
	statements map[string][]*Statement
}

var ignoredTopLevel = map[string]bool{
	"resultMap": true, "parameterMap": true, "cache": true, "cache-ref": true,
}

// Parse reads a <mapper> document. <sql> fragments are expanded into every
// statement that includes them.
func Parse(r io.Reader) (*Mapper, error) {
	root, err := readElement(r)
	if err != nil {
		return nil, err
	}
	if root.Name != "mapper" {
		return nil, apperrors.Syntaxf(root.Line, "expected <mapper> root, found <%s>", root.Name)
	}

	ns, _ := root.attr("namespace")
	m := &Mapper{Namespace: ns, statements: map[string][]*Statement{}}
	b := &builder{namespace: ns, fragments: map[string]*element{}}

	var stmts []*element
	for _, c := range root.Content {
		el, ok := c.(*element)
		if !ok {
			if strings.TrimSpace(c.(string)) != "" {
				return nil, apperrors.Syntaxf(root.Line, "unexpected text in <mapper>")
			}
			continue
		}
		switch el.Name {
		case "sql":
			id, err := el.require("id")
			if err != nil {
				return nil, err
			}
			if _, dup := b.fragments[id]; dup {
				return nil, apperrors.Syntaxf(el.Line, "duplicate <sql> id %q", id)
			}
			b.fragments[id] = el
		case string(KindSelect), string(KindInsert), string(KindUpdate), string(KindDelete):
			stmts = append(stmts, el)
		default:
			if !ignoredTopLevel[el.Name] {
				return nil, apperrors.Syntaxf(el.Line, "unknown element <%s> in <mapper>", el.Name)
			}
		}
	}

	for _, el := range stmts {
		id, err := el.require("id")
		if err != nil {
			return nil, err
		}
		dbID, _ := el.attr("databaseId")
		for _, prev := range m.statements[id] {
			if prev.DatabaseID == dbID {
				return nil, apperrors.Syntaxf(el.Line, "duplicate statement id %q", id)
			}
		}
		nodes, err := b.children(el, nil)
		if err != nil {
			return nil, err
		}
		m.statements[id] = append(m.statements[id], &Statement{
			ID:         id,
			Kind:       StatementKind(el.Name),
			DatabaseID: dbID,
			Template:   ast.NewTemplate(id, nodes...),
		})
	}
	return m, nil
}

// ParseString parses a mapper document held in memory.
func ParseString(doc string) (*Mapper, error) {
	return Parse(strings.NewReader(doc))
}

// ParseScript parses annotation-style markup. The markup may be wrapped in
// <script>; plain SQL with directives is accepted as well.
func ParseScript(id, markup string) (*ast.Template, error) {
	trimmed := strings.TrimSpace(markup)
	if !strings.HasPrefix(trimmed, "<script") {
		trimmed = "<script>" + trimmed + "</script>"
	}
	root, err := readElement(strings.NewReader(trimmed))
	if err != nil {
		return nil, err
	}
	if root.Name != "script" {
		return nil, apperrors.Syntaxf(root.Line, "expected <script> root, found <%s>", root.Name)
	}
	b := &builder{fragments: map[string]*element{}}
	nodes, err := b.children(root, nil)
	if err != nil {
		return nil, err
	}
	return ast.NewTemplate(id, nodes...), nil
}

// Statement returns the statement with id, preferring one declared for
// databaseID over one without a databaseId. The id may carry the namespace.
func (m *Mapper) Statement(id, databaseID string) (*Statement, error) {
	if m.Namespace != "" {
		id = strings.TrimPrefix(id, m.Namespace+".")
	}
	var fallback *Statement
	for _, st := range m.statements[id] {
		switch st.DatabaseID {
		case databaseID:
			return st, nil
		case "":
			fallback = st
		}
	}
	if fallback == nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrUnknownStatement, id)
	}
	return fallback, nil
}

// Statements lists every statement ordered by id and database id.
func (m *Mapper) Statements() []*Statement {
	var out []*Statement
	for _, list := range m.statements {
		out = append(out, list...)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ID != out[j].ID {
			return out[i].ID < out[j].ID
		}
		return out[i].DatabaseID < out[j].DatabaseID
	})
	return out
}
