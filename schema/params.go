package schema

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Konsultn-Engineering/dynsql/apperrors"
)

// DefaultPageKey is the binding name under which pagination objects are stored.
const DefaultPageKey = "page"

// Kind is the semantic type of a declared parameter.
type Kind int

const (
	Scalar     Kind = iota // numbers, strings, booleans, temporal values
	Array                  // fixed-size sequences
	Composite              // records: structs and string-keyed maps
	Collection             // slices, lists and sets
	RowBounds              // row-bounds control object; never bound
	Page                   // pagination object; bound under the page key
)

var kindNames = map[Kind]string{
	Scalar:     "scalar",
	Array:      "array",
	Composite:  "composite",
	Collection: "collection",
	RowBounds:  "rowbounds",
	Page:       "page",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind is the inverse of Kind.String. It accepts any letter case and the
// aliases "simple" and "object".
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "scalar", "simple":
		return Scalar, nil
	case "array":
		return Array, nil
	case "composite", "object":
		return Composite, nil
	case "collection", "list":
		return Collection, nil
	case "rowbounds", "row_bounds":
		return RowBounds, nil
	case "page":
		return Page, nil
	}
	return 0, fmt.Errorf("%w: unknown parameter kind %q", apperrors.ErrInvalidBinding, s)
}

func (k Kind) MarshalYAML() (any, error) { return k.String(), nil }

func (k *Kind) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := ParseKind(node.Value)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Param is one declared parameter of a statement, in declaration order.
type Param struct {
	Name string `yaml:"name" json:"name"`
	Kind Kind   `yaml:"kind" json:"kind"`
}

func P(name string, kind Kind) Param { return Param{Name: name, Kind: kind} }
