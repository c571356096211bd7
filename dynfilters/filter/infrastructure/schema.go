package filter

// ForeignKeyPair joins a related table to the table it is reached from.
type ForeignKeyPair struct {
	// ChildColumn is the column of the related table (e.g. "user_id" for a
	// has-many, "id" for a belongs-to)
	ChildColumn string
	// ParentColumn is the column of the table the relation starts from
	// (e.g. "id" for a has-many, "organization_id" for a belongs-to)
	ParentColumn string
}

// RelationMapping defines how a relation name maps to storage
type RelationMapping struct {
	Table string

	// ForeignKeys supports composite keys
	ForeignKeys []ForeignKeyPair

	// Alias prefixes the generated subquery alias (defaults to the singularized table name)
	Alias string

	// Schema describes the relations of the related table, for nested scopes
	Schema *SchemaRegistry
}

// SchemaRegistry holds the relation mappings of one listed table. It
// implements the filter Entity capability and is read-only once built.
type SchemaRegistry struct {
	// ParentTable is the main table name (e.g., "users")
	ParentTable string

	// ParentAlias is the alias used for parent table in queries (e.g., "u" for "users u")
	ParentAlias string

	relations  map[string]RelationMapping
	searchable []string
}

func NewSchemaRegistry(parentTable string) *SchemaRegistry {
	return &SchemaRegistry{
		ParentTable: parentTable,
		relations:   make(map[string]RelationMapping),
	}
}

func (r *SchemaRegistry) WithParentAlias(alias string) *SchemaRegistry {
	r.ParentAlias = alias
	return r
}

// WithSearchable declares the fields used by free-text search; dotted
// names search a relation column.
func (r *SchemaRegistry) WithSearchable(fields ...string) *SchemaRegistry {
	r.searchable = append(r.searchable, fields...)
	return r
}

// RegisterRelation registers a relation joined on a single column pair
func (r *SchemaRegistry) RegisterRelation(name, table, childColumn, parentColumn string) *SchemaRegistry {
	r.relations[name] = RelationMapping{
		Table: table,
		ForeignKeys: []ForeignKeyPair{
			{ChildColumn: childColumn, ParentColumn: parentColumn},
		},
	}
	return r
}

// RegisterRelationComposite registers a relation with composite FK
func (r *SchemaRegistry) RegisterRelationComposite(name, table string, foreignKeys []ForeignKeyPair) *SchemaRegistry {
	r.relations[name] = RelationMapping{
		Table:       table,
		ForeignKeys: foreignKeys,
	}
	return r
}

// Register registers a relation with full mapping configuration
func (r *SchemaRegistry) Register(name string, mapping RelationMapping) *SchemaRegistry {
	r.relations[name] = mapping
	return r
}

func (r *SchemaRegistry) Get(name string) (RelationMapping, bool) {
	mapping, ok := r.relations[name]
	return mapping, ok
}

func (r *SchemaRegistry) HasRelation(name string) bool {
	_, ok := r.relations[name]
	return ok
}

func (r *SchemaRegistry) SearchableFields() []string {
	return r.searchable
}

// GetParentRef returns the reference to parent table (alias or table name)
func (r *SchemaRegistry) GetParentRef() string {
	if r.ParentAlias != "" {
		return r.ParentAlias
	}
	return r.ParentTable
}
