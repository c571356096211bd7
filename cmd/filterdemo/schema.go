package main

import (
	pg "github.com/krew-solutions/dynamic-filters-go/dynfilters/filter/infrastructure"
)

// usersSchema describes the demo tables:
//
//	users(id, name, email, organization_id, team_id, created_at)
//	organizations(id, name)
//	teams(id, name)
//	profiles(id, user_id, city)
func usersSchema() *pg.SchemaRegistry {
	return pg.NewSchemaRegistry("users").
		RegisterRelation("organization", "organizations", "id", "organization_id").
		RegisterRelation("team", "teams", "id", "team_id").
		RegisterRelation("profile", "profiles", "user_id", "id").
		WithSearchable("name", "email", "team.name")
}
