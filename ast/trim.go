package ast

import (
	"hash/fnv"
	"strings"

	"github.com/Konsultn-Engineering/dynsql/utils"
)

type TrimKind int

const (
	TrimGeneric TrimKind = iota
	TrimWhere
	TrimSet
)

var (
	whereOverrides = []string{"AND ", "OR ", "AND\n", "OR\n", "AND\r", "OR\r", "AND\t", "OR\t"}
	setOverrides   = []string{","}
)

// Trim wraps its rendered body with Prefix/Suffix after removing the first
// matching prefix and suffix override. Overrides match case-insensitively.
// An empty body renders nothing at all.
type Trim struct {
	Kind            TrimKind
	Prefix          string
	PrefixOverrides []string
	Suffix          string
	SuffixOverrides []string
	Body            Node
}

func NewTrim(prefix, prefixOverrides, suffix, suffixOverrides string, children ...Node) *Trim {
	return &Trim{
		Kind:            TrimGeneric,
		Prefix:          prefix,
		PrefixOverrides: ParseOverrides(prefixOverrides),
		Suffix:          suffix,
		SuffixOverrides: ParseOverrides(suffixOverrides),
		Body:            NewMixed(children...),
	}
}

func NewWhere(children ...Node) *Trim {
	return &Trim{
		Kind:            TrimWhere,
		Prefix:          "WHERE",
		PrefixOverrides: append([]string(nil), whereOverrides...),
		Body:            NewMixed(children...),
	}
}

func NewSet(children ...Node) *Trim {
	return &Trim{
		Kind:            TrimSet,
		Prefix:          "SET",
		PrefixOverrides: append([]string(nil), setOverrides...),
		SuffixOverrides: append([]string(nil), setOverrides...),
		Body:            NewMixed(children...),
	}
}

// ParseOverrides splits a pipe separated override list ("AND |OR ").
func ParseOverrides(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, "|")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, strings.ToUpper(p))
		}
	}
	return out
}

func (t *Trim) Type() NodeType { return NodeTrim }
func (t *Trim) Fingerprint() uint64 {
	h := fnv.New64a()
	h.Write([]byte{'t', 'r', 'i', 'm', byte(t.Kind)})
	h.Write(utils.U64ToBytes(utils.FingerprintParts(t.Prefix, t.PrefixOverrides...)))
	h.Write(utils.U64ToBytes(utils.FingerprintParts(t.Suffix, t.SuffixOverrides...)))
	h.Write(utils.U64ToBytes(fingerprintOf(t.Body)))
	return h.Sum64()
}
func (t *Trim) node() {}
