package mapper

import (
	"regexp"
	"strings"

	"github.com/Konsultn-Engineering/dynsql/apperrors"
	"github.com/Konsultn-Engineering/dynsql/ast"
)

var propertyRef = regexp.MustCompile(`\$\{\s*([^}\s]+)\s*\}`)

type builder struct {
	namespace string
	fragments map[string]*element
	// including is the chain of fragments being expanded.
	including []string
}

// children converts the content of el. props are the include properties in
// effect; ${name} references to them are replaced in text and attributes.
func (b *builder) children(el *element, props map[string]string) ([]ast.Node, error) {
	var out []ast.Node
	for _, c := range el.Content {
		switch v := c.(type) {
		case string:
			if strings.TrimSpace(v) == "" {
				continue
			}
			out = append(out, ast.NewText(substitute(v, props)))
		case *element:
			nodes, err := b.element(v, props)
			if err != nil {
				return nil, err
			}
			out = append(out, nodes...)
		}
	}
	return out, nil
}

func (b *builder) element(el *element, props map[string]string) ([]ast.Node, error) {
	attr := func(name string) string {
		v, _ := el.attr(name)
		return substitute(v, props)
	}
	required := func(name string) (string, error) {
		v, err := el.require(name)
		return substitute(v, props), err
	}
	body := func() ([]ast.Node, error) { return b.children(el, props) }

	switch el.Name {
	case "if":
		test, err := required("test")
		if err != nil {
			return nil, err
		}
		kids, err := body()
		if err != nil {
			return nil, err
		}
		return one(ast.NewIf(test, kids...)), nil

	case "choose":
		n, err := b.choose(el, props)
		if err != nil {
			return nil, err
		}
		return one(n), nil

	case "when", "otherwise":
		return nil, apperrors.Syntaxf(el.Line, "<%s> outside <choose>", el.Name)

	case "foreach":
		coll, err := required("collection")
		if err != nil {
			return nil, err
		}
		kids, err := body()
		if err != nil {
			return nil, err
		}
		fe := ast.NewForEach(coll, attr("item"), attr("index"), kids...)
		return one(fe.Wrap(attr("open"), attr("close"), attr("separator"))), nil

	case "trim":
		kids, err := body()
		if err != nil {
			return nil, err
		}
		return one(ast.NewTrim(attr("prefix"), attr("prefixOverrides"), attr("suffix"), attr("suffixOverrides"), kids...)), nil

	case "where":
		kids, err := body()
		if err != nil {
			return nil, err
		}
		return one(ast.NewWhere(kids...)), nil

	case "set":
		kids, err := body()
		if err != nil {
			return nil, err
		}
		return one(ast.NewSet(kids...)), nil

	case "bind":
		name, err := required("name")
		if err != nil {
			return nil, err
		}
		value, err := required("value")
		if err != nil {
			return nil, err
		}
		return one(ast.NewBind(name, value)), nil

	case "include":
		return b.include(el, props)

	case "selectKey":
		// key generation runs as its own statement
		return nil, nil
	}
	return nil, apperrors.Syntaxf(el.Line, "unknown directive <%s>", el.Name)
}

func (b *builder) choose(el *element, props map[string]string) (ast.Node, error) {
	var (
		whens     []ast.When
		otherwise ast.Node
	)
	for _, c := range el.Content {
		child, ok := c.(*element)
		if !ok {
			if strings.TrimSpace(c.(string)) != "" {
				return nil, apperrors.Syntaxf(el.Line, "text is not allowed directly inside <choose>")
			}
			continue
		}
		switch child.Name {
		case "when":
			if otherwise != nil {
				return nil, apperrors.Syntaxf(child.Line, "<when> after <otherwise>")
			}
			test, err := child.require("test")
			if err != nil {
				return nil, err
			}
			kids, err := b.children(child, props)
			if err != nil {
				return nil, err
			}
			whens = append(whens, ast.NewWhen(substitute(test, props), kids...))
		case "otherwise":
			if otherwise != nil {
				return nil, apperrors.Syntaxf(child.Line, "duplicate <otherwise> in <choose>")
			}
			kids, err := b.children(child, props)
			if err != nil {
				return nil, err
			}
			otherwise = ast.NewMixed(kids...)
		default:
			return nil, apperrors.Syntaxf(child.Line, "<%s> is not allowed inside <choose>", child.Name)
		}
	}
	if len(whens) == 0 {
		return nil, apperrors.Syntaxf(el.Line, "<choose> needs at least one <when>")
	}
	return ast.NewChoose(otherwise, whens...), nil
}

func (b *builder) include(el *element, props map[string]string) ([]ast.Node, error) {
	refid, err := el.require("refid")
	if err != nil {
		return nil, err
	}
	refid = substitute(refid, props)
	if b.namespace != "" {
		refid = strings.TrimPrefix(refid, b.namespace+".")
	}

	frag, ok := b.fragments[refid]
	if !ok {
		return nil, apperrors.Syntaxf(el.Line, "<include> references unknown <sql> %q", refid)
	}
	for _, id := range b.including {
		if id == refid {
			chain := append(append([]string(nil), b.including...), refid)
			return nil, apperrors.Syntaxf(el.Line, "<include> cycle: %s", strings.Join(chain, " -> "))
		}
	}

	scoped := make(map[string]string, len(props))
	for k, v := range props {
		scoped[k] = v
	}
	for _, c := range el.Content {
		p, ok := c.(*element)
		if !ok {
			continue
		}
		if p.Name != "property" {
			return nil, apperrors.Syntaxf(p.Line, "<%s> is not allowed inside <include>", p.Name)
		}
		name, err := p.require("name")
		if err != nil {
			return nil, err
		}
		v, _ := p.attr("value")
		scoped[name] = substitute(v, props)
	}

	b.including = append(b.including, refid)
	defer func() { b.including = b.including[:len(b.including)-1] }()
	return b.children(frag, scoped)
}

func substitute(s string, props map[string]string) string {
	if len(props) == 0 || !strings.Contains(s, "${") {
		return s
	}
	return propertyRef.ReplaceAllStringFunc(s, func(m string) string {
		name := propertyRef.FindStringSubmatch(m)[1]
		if v, ok := props[name]; ok {
			return v
		}
		return m
	})
}

func one(n ast.Node) []ast.Node { return []ast.Node{n} }
