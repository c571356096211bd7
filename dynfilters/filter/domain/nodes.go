package filter

import "github.com/krew-solutions/dynamic-filters-go/dynfilters/filter/domain/operators"

type Visitable interface {
	Accept(Visitor) error
}

type Visitor interface {
	VisitLeaf(LeafNode) error
	VisitRelationScope(RelationScopeNode) error
	VisitGroup(GroupNode) error
}

// Range is the value of a between predicate.
type Range struct {
	Low  any
	High any
}

func Leaf(field string, operator operators.Operator, value any, boolean operators.Boolean) LeafNode {
	return LeafNode{
		field:    field,
		operator: operator,
		value:    value,
		boolean:  boolean,
	}
}

// LeafNode compares one column with a value. The value is already shaped
// for the operator: a "%term%" pattern for like, []any for in, Range for
// between.
type LeafNode struct {
	field    string
	operator operators.Operator
	value    any
	boolean  operators.Boolean
}

func (n LeafNode) Field() string {
	return n.field
}

func (n LeafNode) Operator() operators.Operator {
	return n.operator
}

func (n LeafNode) Value() any {
	return n.value
}

// Boolean connects the leaf to its preceding sibling.
func (n LeafNode) Boolean() operators.Boolean {
	return n.boolean
}

func (n LeafNode) Accept(v Visitor) error {
	return v.VisitLeaf(n)
}

func RelationScope(relation string, child Visitable) RelationScopeNode {
	return RelationScopeNode{
		relation: relation,
		child:    child,
	}
}

// RelationScopeNode matches rows having at least one related row for which
// child holds. Child may itself be a RelationScopeNode.
type RelationScopeNode struct {
	relation string
	child    Visitable
}

func (n RelationScopeNode) Relation() string {
	return n.relation
}

func (n RelationScopeNode) Child() Visitable {
	return n.child
}

func (n RelationScopeNode) Accept(v Visitor) error {
	return v.VisitRelationScope(n)
}

func Group(boolean operators.Boolean, children ...Visitable) GroupNode {
	return GroupNode{
		boolean:  boolean,
		children: children,
	}
}

// GroupNode joins its children with Boolean. A leaf child still uses its
// own connector.
type GroupNode struct {
	boolean  operators.Boolean
	children []Visitable
}

func (n GroupNode) Boolean() operators.Boolean {
	return n.boolean
}

func (n GroupNode) Children() []Visitable {
	return n.children
}

func (n GroupNode) IsEmpty() bool {
	return len(n.children) == 0
}

func (n GroupNode) Accept(v Visitor) error {
	return v.VisitGroup(n)
}

// Connector returns how child is joined to its preceding sibling inside
// group.
func Connector(group GroupNode, child Visitable) operators.Boolean {
	if leaf, ok := child.(LeafNode); ok && leaf.boolean != "" {
		return leaf.boolean
	}
	return group.boolean
}
