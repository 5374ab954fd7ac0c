package ast

import (
	"github.com/Konsultn-Engineering/dynsql/utils"
)

// ForEach renders Body once per element of Collection. Item and Index name the
// loop-scoped bindings; either may be empty.
type ForEach struct {
	Collection string
	Item       string
	Index      string
	Open       string
	Close      string
	Separator  string
	Body       Node
}

func NewForEach(collection, item, index string, children ...Node) *ForEach {
	return &ForEach{
		Collection: collection,
		Item:       item,
		Index:      index,
		Body:       NewMixed(children...),
	}
}

// Wrap returns a copy of f with the given open, close and separator tokens.
func (f *ForEach) Wrap(open, close, separator string) *ForEach {
	c := *f
	c.Open, c.Close, c.Separator = open, close, separator
	return &c
}

func (f *ForEach) Type() NodeType { return NodeForEach }
func (f *ForEach) Fingerprint() uint64 {
	head := utils.FingerprintParts("foreach", f.Collection, f.Item, f.Index, f.Open, f.Close, f.Separator)
	return utils.Mix64(head, fingerprintOf(f.Body))
}
func (f *ForEach) node() {}
