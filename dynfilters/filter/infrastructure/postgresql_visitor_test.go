package filter

import (
	"reflect"
	"testing"

	f "github.com/krew-solutions/dynamic-filters-go/dynfilters/filter/domain"
	"github.com/krew-solutions/dynamic-filters-go/dynfilters/filter/domain/operators"
)

func newUsersSchema() *SchemaRegistry {
	return NewSchemaRegistry("users").
		WithParentAlias("u").
		RegisterRelation("organization", "organizations", "id", "organization_id").
		RegisterRelation("profile", "profiles", "user_id", "id").
		RegisterRelation("team", "teams", "id", "team_id").
		WithSearchable("name", "team.name")
}

func TestPostgresqlVisitor_Leaf(t *testing.T) {
	cases := []struct {
		name           string
		node           f.LeafNode
		expectedSQL    string
		expectedParams []any
	}{
		{"eq", f.Leaf("age", operators.OperatorEq, 30, operators.BooleanAnd), `"u"."age" = ?`, []any{30}},
		{"gt", f.Leaf("age", operators.OperatorGt, 30, operators.BooleanAnd), `"u"."age" > ?`, []any{30}},
		{"lt", f.Leaf("age", operators.OperatorLt, 30, operators.BooleanAnd), `"u"."age" < ?`, []any{30}},
		{"gte", f.Leaf("age", operators.OperatorGte, 30, operators.BooleanAnd), `"u"."age" >= ?`, []any{30}},
		{"lte", f.Leaf("age", operators.OperatorLte, 30, operators.BooleanAnd), `"u"."age" <= ?`, []any{30}},
		{"like", f.Leaf("name", operators.OperatorLike, "%jo%", operators.BooleanAnd), `"u"."name" ILIKE ?`, []any{"%jo%"}},
		{"in", f.Leaf("status", operators.OperatorIn, []any{"a", "b"}, operators.BooleanAnd), `"u"."status" IN (?,?)`, []any{"a", "b"}},
		{"in empty", f.Leaf("status", operators.OperatorIn, []any{}, operators.BooleanAnd), `FALSE`, nil},
		{"between", f.Leaf("price", operators.OperatorBetween, f.Range{Low: 10, High: 20}, operators.BooleanAnd), `"u"."price" BETWEEN ? AND ?`, []any{10, 20}},
		{"quoted identifier", f.Leaf(`we"ird`, operators.OperatorEq, 1, operators.BooleanAnd), `"u"."we""ird" = ?`, []any{1}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			sql, params, err := Compile(newUsersSchema(), c.node)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if sql != c.expectedSQL {
				t.Errorf("unexpected SQL:\nexpected: %s\ngot:      %s", c.expectedSQL, sql)
			}
			if !reflect.DeepEqual(params, c.expectedParams) {
				t.Errorf("unexpected params: %v", params)
			}
		})
	}
}

func TestPostgresqlVisitor_LeafErrors(t *testing.T) {
	nodes := []f.LeafNode{
		f.Leaf("age", "!=", 1, operators.BooleanAnd),
		f.Leaf("status", operators.OperatorIn, "a", operators.BooleanAnd),
		f.Leaf("price", operators.OperatorBetween, []any{1}, operators.BooleanAnd),
	}
	for _, n := range nodes {
		if _, _, err := Compile(newUsersSchema(), n); err == nil {
			t.Errorf("expected error for %v", n)
		}
	}
}

func TestPostgresqlVisitor_RelationScope(t *testing.T) {
	ast := f.RelationScope("organization", f.Leaf("id", operators.OperatorEq, 3, operators.BooleanAnd))

	sql, params, err := Compile(newUsersSchema(), ast)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expectedSQL := `EXISTS (SELECT 1 FROM "organizations" AS "organization_1" WHERE "organization_1"."id" = "u"."organization_id" AND "organization_1"."id" = ?)`
	if sql != expectedSQL {
		t.Errorf("unexpected SQL:\nexpected: %s\ngot:      %s", expectedSQL, sql)
	}
	if len(params) != 1 || params[0] != 3 {
		t.Errorf("unexpected params: %v", params)
	}
}

func TestPostgresqlVisitor_CompositeFK(t *testing.T) {
	schema := NewSchemaRegistry("stores").
		WithParentAlias("s").
		RegisterRelationComposite("items", "items", []ForeignKeyPair{
			{ChildColumn: "tenant_id", ParentColumn: "tenant_id"},
			{ChildColumn: "store_id", ParentColumn: "id"},
		})
	ast := f.RelationScope("items", f.Leaf("price", operators.OperatorGt, 1000, operators.BooleanAnd))

	sql, _, err := Compile(schema, ast)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expectedSQL := `EXISTS (SELECT 1 FROM "items" AS "item_1" WHERE "item_1"."tenant_id" = "s"."tenant_id" AND "item_1"."store_id" = "s"."id" AND "item_1"."price" > ?)`
	if sql != expectedSQL {
		t.Errorf("unexpected SQL:\nexpected: %s\ngot:      %s", expectedSQL, sql)
	}
}

func TestPostgresqlVisitor_NestedScope(t *testing.T) {
	addresses := NewSchemaRegistry("profiles").
		RegisterRelation("address", "addresses", "profile_id", "id")
	schema := NewSchemaRegistry("users").
		WithParentAlias("u").
		Register("profile", RelationMapping{
			Table:       "profiles",
			ForeignKeys: []ForeignKeyPair{{ChildColumn: "user_id", ParentColumn: "id"}},
			Alias:       "p",
			Schema:      addresses,
		})
	ast := f.RelationScope("profile",
		f.RelationScope("address", f.Leaf("city", operators.OperatorEq, "Cairo", operators.BooleanAnd)))

	sql, _, err := Compile(schema, ast)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expectedSQL := `EXISTS (SELECT 1 FROM "profiles" AS "p_1" WHERE "p_1"."user_id" = "u"."id" AND ` +
		`EXISTS (SELECT 1 FROM "addresses" AS "address_2" WHERE "address_2"."profile_id" = "p_1"."id" AND "address_2"."city" = ?))`
	if sql != expectedSQL {
		t.Errorf("unexpected SQL:\nexpected: %s\ngot:      %s", expectedSQL, sql)
	}
}

func TestPostgresqlVisitor_UnknownRelation(t *testing.T) {
	ast := f.RelationScope("missing", f.Leaf("id", operators.OperatorEq, 1, operators.BooleanAnd))
	if _, _, err := Compile(newUsersSchema(), ast); err == nil || err.Error() != `unknown relation "missing"` {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestPostgresqlVisitor_Group(t *testing.T) {
	ast := f.Group(operators.BooleanOr,
		f.Leaf("name", operators.OperatorLike, "%jo%", operators.BooleanOr),
		f.RelationScope("team", f.Leaf("name", operators.OperatorLike, "%jo%", operators.BooleanAnd)),
		f.Leaf("email", operators.OperatorLike, "%jo%", operators.BooleanAnd),
	)

	sql, params, err := Compile(newUsersSchema(), ast)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expectedSQL := `("u"."name" ILIKE ? OR EXISTS (SELECT 1 FROM "teams" AS "team_1" WHERE "team_1"."id" = "u"."team_id" AND "team_1"."name" ILIKE ?) AND "u"."email" ILIKE ?)`
	if sql != expectedSQL {
		t.Errorf("unexpected SQL:\nexpected: %s\ngot:      %s", expectedSQL, sql)
	}
	if len(params) != 3 {
		t.Errorf("unexpected params: %v", params)
	}
}

func TestPostgresqlVisitor_Order(t *testing.T) {
	v := NewPostgresqlVisitor(WithSchema(newUsersSchema()), AliasIndex(4))
	err := v.VisitOrder(f.SortItem{
		Path:      f.FieldPath{Kind: f.RelationField, Relation: "profile", Column: "city"},
		Direction: f.Desc,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sql, _, _ := v.Result()
	expectedSQL := `EXISTS (SELECT 1 FROM "profiles" AS "profile_5" WHERE "profile_5"."user_id" = "u"."id" ORDER BY "profile_5"."city" DESC LIMIT 1)`
	if sql != expectedSQL {
		t.Errorf("unexpected SQL:\nexpected: %s\ngot:      %s", expectedSQL, sql)
	}
	if v.AliasCounter() != 5 {
		t.Errorf("unexpected alias counter: %d", v.AliasCounter())
	}
}
