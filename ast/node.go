package ast

type NodeType int

const (
	NodeText NodeType = iota
	NodeMixed
	NodeIf
	NodeChoose
	NodeForEach
	NodeTrim
	NodeBind
)

func (t NodeType) String() string {
	switch t {
	case NodeText:
		return "text"
	case NodeMixed:
		return "mixed"
	case NodeIf:
		return "if"
	case NodeChoose:
		return "choose"
	case NodeForEach:
		return "foreach"
	case NodeTrim:
		return "trim"
	case NodeBind:
		return "bind"
	default:
		return "unknown"
	}
}

// Node is a directive node of a template. The set of implementations is closed;
// consumers dispatch with a type switch over the concrete pointer types.
//
// Nodes are immutable after construction: constructors copy their slices and
// evaluation only ever reads them.
type Node interface {
	Type() NodeType
	Fingerprint() uint64
	node()
}

// fingerprintOf is the fingerprint of n, or zero for an absent node.
func fingerprintOf(n Node) uint64 {
	if n == nil {
		return 0
	}
	return n.Fingerprint()
}
