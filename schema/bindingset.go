package schema

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/Konsultn-Engineering/dynsql/apperrors"
)

// BindingSet is a persisted set of parameter declarations and their values, used
// to re-resolve a statement without the original call site. JSON documents are
// valid YAML and load the same way.
//
//	params:
//	  - name: user
//	    kind: composite
//	values:
//	  user:
//	    name: alice
//	    age: 30
type BindingSet struct {
	Statement string         `yaml:"statement,omitempty"`
	Params    []Param        `yaml:"params"`
	Values    map[string]any `yaml:"values"`
}

// LoadBindingSet decodes a binding set from r.
func LoadBindingSet(r io.Reader) (*BindingSet, error) {
	var set BindingSet
	if err := yaml.NewDecoder(r).Decode(&set); err != nil {
		if errors.Is(err, io.EOF) {
			return &BindingSet{Values: map[string]any{}}, nil
		}
		return nil, fmt.Errorf("%w: decode binding set: %v", apperrors.ErrInvalidBinding, err)
	}
	if set.Values == nil {
		set.Values = map[string]any{}
	}
	for _, p := range set.Params {
		if p.Name == "" {
			return nil, fmt.Errorf("%w: binding set parameter without a name", apperrors.ErrInvalidBinding)
		}
	}
	return &set, nil
}

// Bindings applies b (or the default Binder when b is nil) to the set.
func (s *BindingSet) Bindings(b *Binder) map[string]any {
	if b == nil {
		b = defaultBinder
	}
	return b.BindMap(s.Params, s.Values)
}

// Encode writes the set as YAML.
func (s *BindingSet) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return err
	}
	return enc.Close()
}
