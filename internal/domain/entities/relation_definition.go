package entities

// RelationDefinition declares a relation type: its inverse and whether
// untyped link lookups should return it.
type RelationDefinition struct {
	ID          string `yaml:"id" json:"id"`
	Inverse     string `yaml:"inverse,omitempty" json:"inverse,omitempty"`
	Searchable  bool   `yaml:"searchable" json:"searchable"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// DefaultRelationDefinitions are the built-in relation types. Both directions
// of each pair are declared so either side resolves its inverse.
var DefaultRelationDefinitions = []RelationDefinition{
	{ID: "emf:hasParent", Inverse: "emf:parentOf", Searchable: true, Description: "Entity is contained by its parent"},
	{ID: "emf:parentOf", Inverse: "emf:hasParent", Searchable: true, Description: "Entity contains the child"},
	{ID: "emf:partOf", Inverse: "emf:hasChild", Searchable: true, Description: "Entity is a part of a larger whole"},
	{ID: "emf:hasChild", Inverse: "emf:partOf", Searchable: true, Description: "Entity has the given part"},
	{ID: "emf:references", Inverse: "emf:referencedBy", Searchable: true, Description: "Entity cites another"},
	{ID: "emf:referencedBy", Inverse: "emf:references", Searchable: true, Description: "Entity is cited by another"},
	{ID: "emf:hasAttachment", Inverse: "emf:isAttachedTo", Searchable: true, Description: "Entity has an attached object"},
	{ID: "emf:isAttachedTo", Inverse: "emf:hasAttachment", Searchable: true, Description: "Entity is attached to another"},
	{ID: "emf:dependsOn", Inverse: "emf:hasDependant", Searchable: true, Description: "Entity requires another"},
	{ID: "emf:hasDependant", Inverse: "emf:dependsOn", Searchable: true, Description: "Entity is required by another"},
	{ID: "emf:processes", Inverse: "emf:processedBy", Searchable: false, Description: "Workflow handles the entity"},
	{ID: "emf:processedBy", Inverse: "emf:processes", Searchable: false, Description: "Entity is handled by a workflow"},
}

// DefaultRelationIDs returns the identifiers of the built-in relation types.
func DefaultRelationIDs() []string {
	ids := make([]string, len(DefaultRelationDefinitions))
	for i, d := range DefaultRelationDefinitions {
		ids[i] = d.ID
	}
	return ids
}

// IsDefaultRelation checks if a relation type is built in.
func IsDefaultRelation(id string) bool {
	for _, d := range DefaultRelationDefinitions {
		if d.ID == id {
			return true
		}
	}
	return false
}
