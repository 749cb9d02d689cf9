// Package vocabulary holds the IRIs the relation graph reads and writes.
//
// Terms are declared in full form. Callers at the API boundary exchange
// short prefixed names ("emf:hasParent"); the identity resolver converts
// between the two.
package vocabulary

// Namespaces known to every deployment.
const (
	EMF  = "http://ittruse.ittbg.com/ontology/enterpriseManagementFramework#"
	RDF  = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	RDFS = "http://www.w3.org/2000/01/rdf-schema#"
	OWL  = "http://www.w3.org/2002/07/owl#"
	XSD  = "http://www.w3.org/2001/XMLSchema#"
	PTOP = "http://www.ontotext.com/proton/protontop#"
	CHD  = "http://www.sirma.com/ontologies/2013/10/culturalHeritageDomain#"
)

// DefaultPrefix is applied to bare identifiers that carry no prefix.
const DefaultPrefix = "emf"

// DefaultDataGraph is the data context writes go to unless configured otherwise.
const DefaultDataGraph = "http://ittruse.ittbg.com/data/enterpriseManagementFramework"

// DefaultNamespaces maps prefix to namespace.
var DefaultNamespaces = map[string]string{
	"emf":  EMF,
	"rdf":  RDF,
	"rdfs": RDFS,
	"owl":  OWL,
	"xsd":  XSD,
	"ptop": PTOP,
	"chd":  CHD,
}

// Relation record vocabulary.
const (
	// ClassRelation is the rdf:type of every complex relation record.
	ClassRelation = EMF + "Relation"

	Source          = EMF + "source"
	Destination     = EMF + "destination"
	RelationType    = EMF + "relationType"
	IsActive        = EMF + "isActive"
	InverseRelation = EMF + "inverseRelation"
	CreatedBy       = EMF + "createdBy"
	CreatedOn       = EMF + "createdOn"
	Status          = EMF + "status"
)

// Instance vocabulary.
const (
	InstanceType = EMF + "instanceType"
	IsDeleted    = EMF + "isDeleted"
	IsSearchable = EMF + "isSearchable"
	HasParent    = EMF + "hasParent"
	ParentOf     = EMF + "parentOf"
)

// RDF and OWL terms.
const (
	Type           = RDF + "type"
	ObjectProperty = OWL + "ObjectProperty"
	InverseOf      = OWL + "inverseOf"
)

// Literal values stored by the relation graph.
const (
	True  = "true"
	False = "false"

	// StatusOpened is recorded on relations created on behalf of a user.
	StatusOpened = "OPENED"
)
