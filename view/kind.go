package view

type ElementKind int

const (
	VertexKind ElementKind = iota
	EdgeKind
)

func (s ElementKind) String() string {
	switch s {
	case VertexKind:
		return "vertex"
	case EdgeKind:
		return "edge"
	default:
		return "invalid"
	}
}
