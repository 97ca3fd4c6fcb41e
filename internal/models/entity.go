package models

// EntityKind names a catalog entity type.
type EntityKind string

const (
	KindApplication       EntityKind = "application"
	KindBot               EntityKind = "bot"
	KindUser              EntityKind = "user"
	KindTeam              EntityKind = "team"
	KindRole              EntityKind = "role"
	KindIngestionPipeline EntityKind = "ingestionPipeline"
)

// Relationship is the kind of a directed edge between two entities.
type Relationship string

const (
	RelationshipContains Relationship = "contains"
	RelationshipOwns     Relationship = "owns"
)

// Include controls whether soft-deleted entities are visible to a lookup.
type Include int

const (
	IncludeNonDeleted Include = iota
	IncludeDeleted
	IncludeAll
)

// Matches reports whether an entity with the given deleted flag passes the policy.
func (i Include) Matches(deleted bool) bool {
	switch i {
	case IncludeNonDeleted:
		return !deleted
	case IncludeDeleted:
		return deleted
	}
	return true
}

// EntityReference points at another entity by id and kind.
type EntityReference struct {
	ID                 string     `bson:"id" json:"id"`
	Type               EntityKind `bson:"type" json:"type"`
	Name               string     `bson:"name,omitempty" json:"name,omitempty"`
	FullyQualifiedName string     `bson:"fullyQualifiedName,omitempty" json:"fullyQualifiedName,omitempty"`
	Deleted            bool       `bson:"deleted,omitempty" json:"deleted,omitempty"`
}

// FieldChange is one recorded field transition.
type FieldChange struct {
	Name     string `bson:"name" json:"name"`
	OldValue any    `bson:"oldValue,omitempty" json:"oldValue,omitempty"`
	NewValue any    `bson:"newValue,omitempty" json:"newValue,omitempty"`
}

// ChangeDescription is the per-version audit entry attached to an updated entity.
type ChangeDescription struct {
	FieldsAdded     []FieldChange `bson:"fieldsAdded" json:"fieldsAdded"`
	FieldsUpdated   []FieldChange `bson:"fieldsUpdated" json:"fieldsUpdated"`
	FieldsDeleted   []FieldChange `bson:"fieldsDeleted" json:"fieldsDeleted"`
	PreviousVersion float64       `bson:"previousVersion" json:"previousVersion"`
}
