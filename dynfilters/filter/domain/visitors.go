package filter

// MapVisitor renders a predicate tree as nested maps, for logs and JSON
// debugging output.
type MapVisitor struct {
	result map[string]any
}

func (v *MapVisitor) Visit(node Visitable) (map[string]any, error) {
	if err := node.Accept(v); err != nil {
		return nil, err
	}
	return v.result, nil
}

func (v *MapVisitor) VisitLeaf(n LeafNode) error {
	value := n.Value()
	if r, ok := value.(Range); ok {
		value = []any{r.Low, r.High}
	}
	v.result = map[string]any{
		"field":    n.Field(),
		"operator": string(n.Operator()),
		"value":    value,
		"boolean":  string(n.Boolean()),
	}
	return nil
}

func (v *MapVisitor) VisitRelationScope(n RelationScopeNode) error {
	if err := n.Child().Accept(v); err != nil {
		return err
	}
	v.result = map[string]any{
		"relation": n.Relation(),
		"where":    v.result,
	}
	return nil
}

func (v *MapVisitor) VisitGroup(n GroupNode) error {
	children := make([]any, 0, len(n.Children()))
	for _, child := range n.Children() {
		if err := child.Accept(v); err != nil {
			return err
		}
		children = append(children, v.result)
	}
	v.result = map[string]any{
		"boolean":  string(n.Boolean()),
		"children": children,
	}
	return nil
}

// ToMap converts a predicate tree to plain maps.
func ToMap(node Visitable) (map[string]any, error) {
	return (&MapVisitor{}).Visit(node)
}
