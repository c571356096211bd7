// Package memory evaluates filter plans over records held in memory.
package memory

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	f "github.com/krew-solutions/dynamic-filters-go/dynfilters/filter/domain"
	"github.com/krew-solutions/dynamic-filters-go/dynfilters/filter/domain/operators"
)

// Record is one row. A relation is stored under its name as a Record or a
// []Record.
type Record map[string]any

type matcher func(Record) bool

type condition struct {
	connector operators.Boolean
	match     matcher
}

// Query implements filter.Query over a fixed record set. Conditions are
// compiled when added; Result evaluates them. Like matches ignoring case,
// the same as the ILIKE rendered for PostgreSQL.
type Query struct {
	records    []Record
	columns    []string
	conditions []condition
	orders     []f.SortItem
}

func NewQuery(records []Record) *Query {
	return &Query{records: records}
}

func (q *Query) Select(columns ...string) error {
	q.columns = append([]string(nil), columns...)
	return nil
}

func (q *Query) Where(predicate f.Visitable) error {
	c := &compiler{}
	if err := predicate.Accept(c); err != nil {
		return err
	}
	q.conditions = append(q.conditions, condition{
		connector: f.Connector(f.Group(operators.BooleanAnd), predicate),
		match:     c.result,
	})
	return nil
}

// OrderBy sorts by a local column. A relation-scoped item keeps only the
// records that have at least one related row.
func (q *Query) OrderBy(item f.SortItem) error {
	if item.Path.IsRelation() {
		relation := item.Path.Relation
		q.conditions = append(q.conditions, condition{
			connector: operators.BooleanAnd,
			match: func(r Record) bool {
				return len(related(r, relation)) > 0
			},
		})
		return nil
	}
	q.orders = append(q.orders, item)
	return nil
}

// Result returns the matching records, ordered and projected.
func (q *Query) Result() []Record {
	connectors := make([]operators.Boolean, len(q.conditions))
	matchers := make([]matcher, len(q.conditions))
	for i, c := range q.conditions {
		connectors[i], matchers[i] = c.connector, c.match
	}
	match := combine(connectors, matchers)

	var result []Record
	for _, r := range q.records {
		if match(r) {
			result = append(result, r)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		for _, item := range q.orders {
			c := compareForSort(lookup(result[i], item.Path.Column), lookup(result[j], item.Path.Column))
			if c == 0 {
				continue
			}
			if item.Direction == f.Desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})

	if len(q.columns) == 0 {
		return result
	}
	projected := make([]Record, len(result))
	for i, r := range result {
		p := make(Record, len(q.columns))
		for _, column := range q.columns {
			p[column] = lookup(r, column)
		}
		projected[i] = p
	}
	return projected
}

// combine evaluates the matchers left to right with AND binding tighter
// than OR, as SQL does.
func combine(connectors []operators.Boolean, matchers []matcher) matcher {
	return func(r Record) bool {
		if len(matchers) == 0 {
			return true
		}
		term := true
		for i, m := range matchers {
			if i > 0 && connectors[i] == operators.BooleanOr {
				if term {
					return true
				}
				term = true
			}
			term = term && m(r)
		}
		return term
	}
}

type compiler struct {
	result matcher
}

func (c *compiler) VisitLeaf(n f.LeafNode) error {
	field := n.Field()
	switch n.Operator() {
	case operators.OperatorEq:
		return c.compare(field, n.Value(), func(cmp int) bool { return cmp == 0 })
	case operators.OperatorGt:
		return c.compare(field, n.Value(), func(cmp int) bool { return cmp > 0 })
	case operators.OperatorLt:
		return c.compare(field, n.Value(), func(cmp int) bool { return cmp < 0 })
	case operators.OperatorGte:
		return c.compare(field, n.Value(), func(cmp int) bool { return cmp >= 0 })
	case operators.OperatorLte:
		return c.compare(field, n.Value(), func(cmp int) bool { return cmp <= 0 })
	case operators.OperatorLike:
		pattern, err := likeRegexp(fmt.Sprint(n.Value()))
		if err != nil {
			return err
		}
		c.result = func(r Record) bool {
			v := lookup(r, field)
			return v != nil && pattern.MatchString(fmt.Sprint(v))
		}
	case operators.OperatorIn:
		values, ok := n.Value().([]any)
		if !ok {
			return fmt.Errorf("in predicate on %q expects a list, got %T", field, n.Value())
		}
		c.result = func(r Record) bool {
			v := lookup(r, field)
			for _, candidate := range values {
				if cmp, ok := compare(v, candidate); ok && cmp == 0 {
					return true
				}
			}
			return false
		}
	case operators.OperatorBetween:
		bounds, ok := n.Value().(f.Range)
		if !ok {
			return fmt.Errorf("between predicate on %q expects a range, got %T", field, n.Value())
		}
		c.result = func(r Record) bool {
			v := lookup(r, field)
			low, okLow := compare(v, bounds.Low)
			high, okHigh := compare(v, bounds.High)
			return okLow && okHigh && low >= 0 && high <= 0
		}
	default:
		return fmt.Errorf("unsupported operator %q", n.Operator())
	}
	return nil
}

func (c *compiler) compare(field string, value any, accept func(int) bool) error {
	c.result = func(r Record) bool {
		cmp, ok := compare(lookup(r, field), value)
		return ok && accept(cmp)
	}
	return nil
}

func (c *compiler) VisitRelationScope(n f.RelationScopeNode) error {
	child := &compiler{}
	if err := n.Child().Accept(child); err != nil {
		return err
	}
	relation, match := n.Relation(), child.result
	c.result = func(r Record) bool {
		for _, rel := range related(r, relation) {
			if match(rel) {
				return true
			}
		}
		return false
	}
	return nil
}

func (c *compiler) VisitGroup(n f.GroupNode) error {
	children := n.Children()
	connectors := make([]operators.Boolean, len(children))
	matchers := make([]matcher, len(children))
	for i, child := range children {
		cc := &compiler{}
		if err := child.Accept(cc); err != nil {
			return err
		}
		connectors[i] = f.Connector(n, child)
		matchers[i] = cc.result
	}
	c.result = combine(connectors, matchers)
	return nil
}

func related(r Record, relation string) []Record {
	switch rel := r[relation].(type) {
	case Record:
		return []Record{rel}
	case map[string]any:
		return []Record{rel}
	case []Record:
		return rel
	case []map[string]any:
		result := make([]Record, len(rel))
		for i := range rel {
			result[i] = rel[i]
		}
		return result
	}
	return nil
}

// lookup reads a column; a dotted column that is not stored under its full
// name is followed through nested records.
func lookup(r Record, column string) any {
	if v, ok := r[column]; ok {
		return v
	}
	head, rest, found := strings.Cut(column, ".")
	if !found {
		return nil
	}
	if nested := related(r, head); len(nested) > 0 {
		return lookup(nested[0], rest)
	}
	return nil
}

// likeRegexp translates a LIKE pattern into a case-insensitive regexp.
func likeRegexp(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("(?is)^")
	for _, ch := range pattern {
		switch ch {
		case '%':
			b.WriteString(".*")
		case '_':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(ch)))
		}
	}
	b.WriteString("$")
	return regexp.Compile(b.String())
}
