package entities

import (
	"strconv"
	"time"
)

// TermKind is the lexical kind of a triple object.
type TermKind string

const (
	TermIRI    TermKind = "iri"
	TermString TermKind = "string"
	TermNumber TermKind = "number"
	TermBool   TermKind = "bool"
	TermTime   TermKind = "time"
)

// Term is the object position of a triple. Subjects and predicates are
// always full IRIs and are kept as plain strings.
type Term struct {
	Kind  TermKind `json:"kind"`
	Value string   `json:"value"`
}

// IRI returns a resource term.
func IRI(v string) Term { return Term{Kind: TermIRI, Value: v} }

// Literal returns a string literal term.
func Literal(v string) Term { return Term{Kind: TermString, Value: v} }

// BoolLiteral returns a boolean literal term.
func BoolLiteral(b bool) Term { return Term{Kind: TermBool, Value: strconv.FormatBool(b)} }

// NumberLiteral returns a numeric literal term.
func NumberLiteral(n float64) Term {
	return Term{Kind: TermNumber, Value: strconv.FormatFloat(n, 'f', -1, 64)}
}

// TimeLiteral returns a timestamp literal term in RFC 3339 form.
func TimeLiteral(t time.Time) Term {
	return Term{Kind: TermTime, Value: t.UTC().Format(time.RFC3339Nano)}
}

// Any matches every object of a subject/predicate pair in a removal.
func Any() Term { return Term{} }

// IsWildcard reports whether t matches any object.
func (t Term) IsWildcard() bool { return t.Value == "" }

// Triple is a single subject/predicate/object statement.
type Triple struct {
	Subject   string `json:"subject"`
	Predicate string `json:"predicate"`
	Object    Term   `json:"object"`
}

// NewTriple builds a triple.
func NewTriple(subject, predicate string, object Term) Triple {
	return Triple{Subject: subject, Predicate: predicate, Object: object}
}

func (t Triple) String() string {
	o := t.Object.Value
	if t.Object.Kind == TermIRI {
		o = "<" + o + ">"
	} else {
		o = strconv.Quote(o)
	}
	return "<" + t.Subject + "> <" + t.Predicate + "> " + o
}
