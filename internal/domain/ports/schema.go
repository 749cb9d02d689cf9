package ports

import "github.com/ersonp/relgraph/internal/domain/entities"

// RelationSchema resolves relation type declarations. Types are short
// prefixed identifiers ("emf:references").
type RelationSchema interface {
	// Definition returns the declaration of a type.
	Definition(typ string) (entities.RelationDefinition, bool)

	// InverseOf returns the declared inverse of a type, or "".
	InverseOf(typ string) string

	// Definitions lists every declared type sorted by ID.
	Definitions() []entities.RelationDefinition
}

// RelationRegistry is a RelationSchema that accepts new declarations at runtime.
type RelationRegistry interface {
	RelationSchema

	// Register adds or replaces a declaration.
	Register(def entities.RelationDefinition)

	// Unregister drops a declaration.
	Unregister(typ string)
}
