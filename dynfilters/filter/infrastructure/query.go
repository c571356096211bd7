package filter

import (
	sq "github.com/Masterminds/squirrel"

	f "github.com/krew-solutions/dynamic-filters-go/dynfilters/filter/domain"
	"github.com/krew-solutions/dynamic-filters-go/dynfilters/filter/domain/operators"
)

// PgQuery accumulates a listing statement for the parent table of schema.
// It implements filter.Query; a PgQuery serves one request.
type PgQuery struct {
	schema       *SchemaRegistry
	columns      []string
	where        string
	params       []any
	orders       []string
	aliasCounter int
	limit        uint64
	offset       uint64
}

func NewPgQuery(schema *SchemaRegistry) *PgQuery {
	return &PgQuery{schema: schema}
}

func (q *PgQuery) Select(columns ...string) error {
	q.columns = q.columns[:0]
	for _, c := range columns {
		q.columns = append(q.columns, qualify(q.schema.GetParentRef(), c))
	}
	return nil
}

func (q *PgQuery) Where(predicate f.Visitable) error {
	v := NewPostgresqlVisitor(WithSchema(q.schema), AliasIndex(q.aliasCounter))
	if err := predicate.Accept(v); err != nil {
		return err
	}
	sql, params, err := v.Result()
	if err != nil {
		return err
	}
	q.aliasCounter = v.AliasCounter()
	q.appendWhere(f.Connector(f.Group(operators.BooleanAnd), predicate), sql, params)
	return nil
}

// OrderBy sorts by a local column. A relation-scoped item restricts the
// listing to rows whose related rows can be ordered by that column.
func (q *PgQuery) OrderBy(item f.SortItem) error {
	if !item.Path.IsRelation() {
		q.orders = append(q.orders, qualify(q.schema.GetParentRef(), item.Path.Column)+" "+string(item.Direction))
		return nil
	}
	v := NewPostgresqlVisitor(WithSchema(q.schema), AliasIndex(q.aliasCounter))
	if err := v.VisitOrder(item); err != nil {
		return err
	}
	sql, params, err := v.Result()
	if err != nil {
		return err
	}
	q.aliasCounter = v.AliasCounter()
	q.appendWhere(operators.BooleanAnd, sql, params)
	return nil
}

// Paginate limits the row statement; a zero limit means no limit.
func (q *PgQuery) Paginate(limit, offset uint64) {
	q.limit = limit
	q.offset = offset
}

func (q *PgQuery) appendWhere(connector operators.Boolean, sql string, params []any) {
	if q.where != "" {
		q.where += " " + connector.SQL() + " "
	}
	q.where += sql
	q.params = append(q.params, params...)
}

// ToSQL renders the row statement with $n placeholders.
func (q *PgQuery) ToSQL() (string, []any, error) {
	columns := q.columns
	if len(columns) == 0 {
		columns = []string{quoteIdent(q.schema.GetParentRef()) + ".*"}
	}
	b := q.filtered(sq.Select(columns...))
	if len(q.orders) > 0 {
		b = b.OrderBy(q.orders...)
	}
	if q.limit > 0 {
		b = b.Limit(q.limit)
	}
	if q.offset > 0 {
		b = b.Offset(q.offset)
	}
	return b.ToSql()
}

// CountSQL renders the number of rows matching the same predicates.
func (q *PgQuery) CountSQL() (string, []any, error) {
	return q.filtered(sq.Select("count(*)")).ToSql()
}

func (q *PgQuery) filtered(b sq.SelectBuilder) sq.SelectBuilder {
	from := quoteIdent(q.schema.ParentTable)
	if q.schema.ParentAlias != "" {
		from += " AS " + quoteIdent(q.schema.ParentAlias)
	}
	b = b.From(from).PlaceholderFormat(sq.Dollar)
	if q.where != "" {
		b = b.Where(sq.Expr(q.where, q.params...))
	}
	return b
}
