package ast

import (
	"hash/fnv"

	"github.com/Konsultn-Engineering/dynsql/utils"
)

type Text struct {
	Value string
}

func NewText(value string) *Text { return &Text{Value: value} }

func (t *Text) Type() NodeType      { return NodeText }
func (t *Text) Fingerprint() uint64 { return utils.FingerprintParts("text", t.Value) }
func (t *Text) node()               {}

// Mixed is an ordered block of child nodes.
type Mixed struct {
	Children []Node
}

func NewMixed(children ...Node) *Mixed {
	c := make([]Node, 0, len(children))
	for _, n := range children {
		if n != nil {
			c = append(c, n)
		}
	}
	return &Mixed{Children: c}
}

func (m *Mixed) Type() NodeType { return NodeMixed }
func (m *Mixed) Fingerprint() uint64 {
	h := fnv.New64a()
	h.Write([]byte("mixed"))
	for _, c := range m.Children {
		h.Write(utils.U64ToBytes(fingerprintOf(c)))
	}
	return h.Sum64()
}
func (m *Mixed) node() {}
