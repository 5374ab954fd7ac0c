package ast

import (
	"hash/fnv"

	"github.com/Konsultn-Engineering/dynsql/utils"
)

type If struct {
	Test string
	Body Node
}

func NewIf(test string, children ...Node) *If {
	return &If{Test: test, Body: NewMixed(children...)}
}

func (i *If) Type() NodeType { return NodeIf }
func (i *If) Fingerprint() uint64 {
	return utils.Mix64(utils.FingerprintParts("if", i.Test), fingerprintOf(i.Body))
}
func (i *If) node() {}

// When is one guarded branch of a Choose. It is not a Node on its own.
type When struct {
	Test string
	Body Node
}

func NewWhen(test string, children ...Node) When {
	return When{Test: test, Body: NewMixed(children...)}
}

// Choose applies the first When whose test holds, or Otherwise when none does.
// Otherwise may be nil.
type Choose struct {
	Whens     []When
	Otherwise Node
}

func NewChoose(otherwise Node, whens ...When) *Choose {
	w := make([]When, len(whens))
	copy(w, whens)
	return &Choose{Whens: w, Otherwise: otherwise}
}

func (c *Choose) Type() NodeType { return NodeChoose }
func (c *Choose) Fingerprint() uint64 {
	h := fnv.New64a()
	h.Write([]byte("choose"))
	for _, w := range c.Whens {
		h.Write(utils.U64ToBytes(utils.FingerprintParts("when", w.Test)))
		h.Write(utils.U64ToBytes(fingerprintOf(w.Body)))
	}
	if c.Otherwise != nil {
		h.Write([]byte("otherwise"))
		h.Write(utils.U64ToBytes(c.Otherwise.Fingerprint()))
	}
	return h.Sum64()
}
func (c *Choose) node() {}

type Bind struct {
	Name  string
	Value string
}

func NewBind(name, value string) *Bind { return &Bind{Name: name, Value: value} }

func (b *Bind) Type() NodeType      { return NodeBind }
func (b *Bind) Fingerprint() uint64 { return utils.FingerprintParts("bind", b.Name, b.Value) }
func (b *Bind) node()               {}
