package memory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"syreclabs.com/go/faker"

	f "github.com/krew-solutions/dynamic-filters-go/dynfilters/filter/domain"
	"github.com/krew-solutions/dynamic-filters-go/dynfilters/filter/domain/operators"
)

func fixtures() []Record {
	return []Record{
		{
			"id": 1, "name": "John Smith", "age": 30, "status": "new",
			"created_at":   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			"organization": Record{"id": 3},
			"team":         Record{"id": 1, "name": "Core"},
			"profile":      []Record{{"city": "Cairo"}},
		},
		{
			"id": 2, "name": "Jane Doe", "age": 25, "status": "open",
			"created_at":   time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC),
			"organization": Record{"id": 4},
			"team":         Record{"id": 2, "name": "Johnny band"},
			"profile":      []Record{{"city": "Paris"}, {"city": "Lyon"}},
		},
		{
			"id": 3, "name": "Bob", "age": "41", "status": "closed",
			"created_at": time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC),
		},
	}
}

func newFilterer() *f.Filterer {
	entity := f.NewEntityDescriptor("users").
		WithRelations("organization", "profile", "team").
		WithSearchable("name", "team.name")
	return f.NewFilterer(operators.NewOperatorRegistry(), entity)
}

func ids(records []Record) []any {
	result := make([]any, len(records))
	for i, r := range records {
		result[i] = r["id"]
	}
	return result
}

func apply(t *testing.T, data map[string]any) []Record {
	t.Helper()
	q := NewQuery(fixtures())
	require.NoError(t, newFilterer().Apply(q, f.NewFilterRequest(data)))
	return q.Result()
}

func TestQuery(t *testing.T) {
	t.Run("search covers plain and relation fields", func(t *testing.T) {
		assert.Equal(t, []any{1, 2}, ids(apply(t, map[string]any{"search": "JOHN"})))
	})

	t.Run("relation key", func(t *testing.T) {
		assert.Equal(t, []any{1}, ids(apply(t, map[string]any{"filters": map[string]any{"organization": "3"}})))
	})

	t.Run("relation field over a list", func(t *testing.T) {
		assert.Equal(t, []any{2}, ids(apply(t, map[string]any{"filters": map[string]any{"profile.city": "yo"}})))
	})

	t.Run("between mixes numbers and numeric strings", func(t *testing.T) {
		records := apply(t, map[string]any{"filters": map[string]any{
			"age": map[string]any{"operator": "between", "value": []any{"20", 35}},
		}})
		assert.Equal(t, []any{1, 2}, ids(records))
	})

	t.Run("or connector", func(t *testing.T) {
		records := apply(t, map[string]any{"filters": []f.FieldFilter{
			{Field: "age", Expr: f.Explicit{Operator: ">", Value: 40}},
			{Field: "status", Expr: f.Explicit{Operator: "in", Value: []any{"new"}, Boolean: "or"}},
		}})
		assert.Equal(t, []any{1, 3}, ids(records))
	})

	t.Run("time comparison", func(t *testing.T) {
		records := apply(t, map[string]any{"filters": map[string]any{
			"created_at": map[string]any{"operator": ">=", "value": "2023-01-01"},
		}})
		assert.Equal(t, []any{1, 2}, ids(records))
	})

	t.Run("ordering and projection", func(t *testing.T) {
		records := apply(t, map[string]any{"sort": "-age", "columns": "id,name"})
		assert.Equal(t, []Record{
			{"id": 3, "name": "Bob"},
			{"id": 1, "name": "John Smith"},
			{"id": 2, "name": "Jane Doe"},
		}, records)
	})

	t.Run("relation ordering requires related rows", func(t *testing.T) {
		assert.Equal(t, []any{1, 2}, ids(apply(t, map[string]any{"sort": "profile.city"})))
	})

	t.Run("dropped filters keep everything", func(t *testing.T) {
		records := apply(t, map[string]any{"filters": map[string]any{
			"name": map[string]any{"operator": "regexp", "value": faker.Lorem().Word()},
			"age":  "",
		}})
		assert.Len(t, records, 3)
	})

	t.Run("unsupported operator", func(t *testing.T) {
		err := NewQuery(nil).Where(f.Leaf("age", "!=", 1, operators.BooleanAnd))
		assert.EqualError(t, err, `unsupported operator "!="`)
	})
}

func TestGroupPrecedence(t *testing.T) {
	q := NewQuery(fixtures())
	require.NoError(t, q.Where(f.Group(operators.BooleanAnd,
		f.Leaf("status", operators.OperatorEq, "closed", operators.BooleanAnd),
		f.Leaf("name", operators.OperatorLike, "%jane%", operators.BooleanOr),
		f.Leaf("age", operators.OperatorLt, 20, operators.BooleanAnd),
	)))
	assert.Equal(t, []any{3}, ids(q.Result()))
}

func TestCompare(t *testing.T) {
	cases := []struct {
		a, b any
		cmp  int
		ok   bool
	}{
		{10, "9", 1, true},
		{"abc", "abd", -1, true},
		{2.5, 2.5, 0, true},
		{true, "true", 0, true},
		{nil, 1, 0, false},
		{time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), "2021-01-01", -1, true},
	}
	for _, c := range cases {
		cmp, ok := compare(c.a, c.b)
		assert.Equal(t, c.ok, ok, "%v vs %v", c.a, c.b)
		assert.Equal(t, c.cmp, cmp, "%v vs %v", c.a, c.b)
	}
}
