package filter

import "strings"

const relationSeparator = "."

// DefaultSearchableFields are searched when an entity declares none.
var DefaultSearchableFields = []string{"name", "email"}

// Entity answers capability queries about the entity type being filtered.
type Entity interface {
	HasRelation(name string) bool
	SearchableFields() []string
}

type FieldKind int

const (
	// PlainField is a column of the entity itself.
	PlainField FieldKind = iota
	// RelationKey filters by the key column of a related entity.
	RelationKey
	// RelationField filters by an explicit column of a related entity.
	RelationField
)

func (k FieldKind) String() string {
	switch k {
	case RelationKey:
		return "relation"
	case RelationField:
		return "relation_field"
	default:
		return "plain"
	}
}

type FieldPath struct {
	Kind     FieldKind
	Relation string
	Column   string
}

func (p FieldPath) IsRelation() bool {
	return p.Kind != PlainField
}

func (p FieldPath) String() string {
	if p.IsRelation() {
		return p.Relation + relationSeparator + p.Column
	}
	return p.Column
}

// RelationResolver turns a field name into a FieldPath.
//
// Only one relation hop is resolved: "a.b.c" addresses column "b.c" of
// relation "a".
type RelationResolver struct {
	entity     Entity
	defaultKey string
}

func NewRelationResolver(entity Entity, defaultKey string) RelationResolver {
	return RelationResolver{entity: entity, defaultKey: defaultKey}
}

func (r RelationResolver) Resolve(field string) FieldPath {
	if !strings.Contains(field, relationSeparator) {
		if r.entity != nil && r.entity.HasRelation(field) {
			return FieldPath{Kind: RelationKey, Relation: field, Column: r.defaultKey}
		}
		return FieldPath{Kind: PlainField, Column: field}
	}
	relation, column := splitRelation(field)
	return FieldPath{Kind: RelationField, Relation: relation, Column: column}
}

// SearchablePaths resolves the searchable fields of entity. Searchable names
// are never probed as relations; only dotted names are relation-qualified.
func SearchablePaths(entity Entity) []FieldPath {
	var fields []string
	if entity != nil {
		fields = entity.SearchableFields()
	}
	if len(fields) == 0 {
		fields = DefaultSearchableFields
	}
	paths := make([]FieldPath, 0, len(fields))
	for _, f := range fields {
		if strings.Contains(f, relationSeparator) {
			relation, column := splitRelation(f)
			paths = append(paths, FieldPath{Kind: RelationField, Relation: relation, Column: column})
		} else {
			paths = append(paths, FieldPath{Kind: PlainField, Column: f})
		}
	}
	return paths
}

func splitRelation(field string) (relation, column string) {
	relation, column, _ = strings.Cut(field, relationSeparator)
	return relation, column
}

// EntityDescriptor is a lookup-table Entity built once at startup.
type EntityDescriptor struct {
	name       string
	relations  map[string]struct{}
	searchable []string
}

func NewEntityDescriptor(name string) *EntityDescriptor {
	return &EntityDescriptor{
		name:      name,
		relations: make(map[string]struct{}),
	}
}

func (d *EntityDescriptor) WithRelations(names ...string) *EntityDescriptor {
	for _, n := range names {
		d.relations[n] = struct{}{}
	}
	return d
}

func (d *EntityDescriptor) WithSearchable(fields ...string) *EntityDescriptor {
	d.searchable = append(d.searchable, fields...)
	return d
}

func (d *EntityDescriptor) Name() string {
	return d.name
}

func (d *EntityDescriptor) HasRelation(name string) bool {
	_, ok := d.relations[name]
	return ok
}

func (d *EntityDescriptor) SearchableFields() []string {
	return d.searchable
}
