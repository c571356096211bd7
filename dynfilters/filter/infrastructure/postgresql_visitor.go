package filter

import (
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jinzhu/inflection"

	f "github.com/krew-solutions/dynamic-filters-go/dynfilters/filter/domain"
	"github.com/krew-solutions/dynamic-filters-go/dynfilters/filter/domain/operators"
)

// Compile renders a predicate tree against schema. The result uses
// positional "?" placeholders; PgQuery renumbers them for PostgreSQL.
func Compile(schema *SchemaRegistry, exp f.Visitable) (sql string, params []any, err error) {
	v := NewPostgresqlVisitor(WithSchema(schema))
	err = exp.Accept(v)
	if err != nil {
		return "", nil, err
	}
	return v.Result()
}

type PostgresqlVisitorOption func(*PostgresqlVisitor)

// AliasIndex continues alias numbering after index, so several predicates
// of one statement never share a subquery alias.
func AliasIndex(index int) PostgresqlVisitorOption {
	return func(v *PostgresqlVisitor) {
		v.aliasCounter = index
	}
}

// WithSchema sets the schema registry used to resolve relation scopes
func WithSchema(schema *SchemaRegistry) PostgresqlVisitorOption {
	return func(v *PostgresqlVisitor) {
		v.schema = schema
		if schema != nil {
			v.parentRef = schema.GetParentRef()
		}
	}
}

func NewPostgresqlVisitor(opts ...PostgresqlVisitorOption) *PostgresqlVisitor {
	v := &PostgresqlVisitor{}
	for i := range opts {
		opts[i](v)
	}
	return v
}

type PostgresqlVisitor struct {
	sql          string
	parameters   []any
	aliasCounter int
	// schema and parentRef describe the table the current scope reads from
	schema    *SchemaRegistry
	parentRef string
}

func (v *PostgresqlVisitor) VisitLeaf(n f.LeafNode) error {
	column := v.column(n.Field())
	switch n.Operator() {
	case operators.OperatorEq, operators.OperatorGt, operators.OperatorLt,
		operators.OperatorGte, operators.OperatorLte:
		v.sql += fmt.Sprintf("%s %s ?", column, n.Operator())
		v.parameters = append(v.parameters, n.Value())
	case operators.OperatorLike:
		v.sql += column + " ILIKE ?"
		v.parameters = append(v.parameters, n.Value())
	case operators.OperatorIn:
		values, ok := n.Value().([]any)
		if !ok {
			return fmt.Errorf("in predicate on %q expects a list, got %T", n.Field(), n.Value())
		}
		if len(values) == 0 {
			v.sql += "FALSE"
			return nil
		}
		v.sql += fmt.Sprintf("%s IN (%s)", column, sq.Placeholders(len(values)))
		v.parameters = append(v.parameters, values...)
	case operators.OperatorBetween:
		low, high, err := bounds(n)
		if err != nil {
			return err
		}
		v.sql += column + " BETWEEN ? AND ?"
		v.parameters = append(v.parameters, low, high)
	default:
		return fmt.Errorf("unsupported operator %q", n.Operator())
	}
	return nil
}

func bounds(n f.LeafNode) (any, any, error) {
	switch value := n.Value().(type) {
	case f.Range:
		return value.Low, value.High, nil
	case []any:
		if len(value) == 2 {
			return value[0], value[1], nil
		}
	}
	return nil, nil, fmt.Errorf("between predicate on %q expects two bounds, got %v", n.Field(), n.Value())
}

func (v *PostgresqlVisitor) VisitRelationScope(n f.RelationScopeNode) error {
	mapping, alias, err := v.enter(n.Relation())
	if err != nil {
		return err
	}

	outerSchema, outerParentRef := v.schema, v.parentRef

	v.sql += v.existsHead(mapping, alias, outerParentRef)
	v.sql += " AND "

	v.schema, v.parentRef = mapping.Schema, alias
	err = n.Child().Accept(v)
	v.schema, v.parentRef = outerSchema, outerParentRef
	if err != nil {
		return err
	}

	v.sql += ")"
	return nil
}

// VisitOrder renders ordering by a related column as an existence check
// over the related rows sorted by that column.
func (v *PostgresqlVisitor) VisitOrder(item f.SortItem) error {
	if !item.Path.IsRelation() {
		return fmt.Errorf("order on %q is not relation scoped", item.Path)
	}
	mapping, alias, err := v.enter(item.Path.Relation)
	if err != nil {
		return err
	}
	v.sql += v.existsHead(mapping, alias, v.parentRef)
	v.sql += fmt.Sprintf(" ORDER BY %s %s LIMIT 1)", qualify(alias, item.Path.Column), item.Direction)
	return nil
}

func (v *PostgresqlVisitor) enter(relation string) (RelationMapping, string, error) {
	if v.schema == nil {
		return RelationMapping{}, "", fmt.Errorf("unknown relation %q", relation)
	}
	mapping, ok := v.schema.Get(relation)
	if !ok {
		return RelationMapping{}, "", fmt.Errorf("unknown relation %q", relation)
	}

	v.aliasCounter++
	prefix := mapping.Alias
	if prefix == "" {
		prefix = strings.ToLower(inflection.Singular(mapping.Table))
	}
	return mapping, fmt.Sprintf("%s_%d", prefix, v.aliasCounter), nil
}

func (v *PostgresqlVisitor) existsHead(mapping RelationMapping, alias, parentRef string) string {
	sql := fmt.Sprintf("EXISTS (SELECT 1 FROM %s AS %s WHERE ", quoteIdent(mapping.Table), quoteIdent(alias))
	for i, fk := range mapping.ForeignKeys {
		if i > 0 {
			sql += " AND "
		}
		sql += qualify(alias, fk.ChildColumn) + " = " + qualify(parentRef, fk.ParentColumn)
	}
	return sql
}

func (v *PostgresqlVisitor) VisitGroup(n f.GroupNode) error {
	if n.IsEmpty() {
		v.sql += "TRUE"
		return nil
	}
	v.sql += "("
	for i, child := range n.Children() {
		if i > 0 {
			v.sql += " " + f.Connector(n, child).SQL() + " "
		}
		if err := child.Accept(v); err != nil {
			return err
		}
	}
	v.sql += ")"
	return nil
}

func (v *PostgresqlVisitor) column(name string) string {
	return qualify(v.parentRef, name)
}

// AliasCounter is the index of the last subquery alias issued.
func (v PostgresqlVisitor) AliasCounter() int {
	return v.aliasCounter
}

func (v PostgresqlVisitor) Result() (sql string, params []any, err error) {
	return v.sql, v.parameters, nil
}

func qualify(ref, column string) string {
	if ref == "" {
		return quoteIdent(column)
	}
	return quoteIdent(ref) + "." + quoteIdent(column)
}

// quoteIdent quotes an identifier for PostgreSQL. Question marks are doubled
// so that squirrel keeps them out of placeholder numbering.
func quoteIdent(name string) string {
	name = strings.ReplaceAll(name, `"`, `""`)
	name = strings.ReplaceAll(name, "?", "??")
	return `"` + name + `"`
}
