package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ersonp/relgraph/internal/domain/entities"
	"github.com/ersonp/relgraph/internal/domain/vocabulary"
)

func TestIdentityResolver_Expand(t *testing.T) {
	r := NewIdentityResolver(map[string]string{"ex": "http://example.org/ns#"})

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "prefixed", input: "emf:hasParent", expected: vocabulary.EMF + "hasParent"},
		{name: "bare takes default", input: "doc1", expected: vocabulary.EMF + "doc1"},
		{name: "extra prefix", input: "ex:thing", expected: "http://example.org/ns#thing"},
		{name: "full passes through", input: "http://other.org/x", expected: "http://other.org/x"},
		{name: "urn passes through", input: "urn:uuid:1", expected: "urn:uuid:1"},
		{name: "unknown prefix untouched", input: "zz:thing", expected: "zz:thing"},
		{name: "empty", input: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, r.Expand(tt.input))
		})
	}
}

func TestIdentityResolver_Shrink(t *testing.T) {
	r := NewIdentityResolver(nil)

	assert.Equal(t, "emf:Relation", r.Shrink(vocabulary.ClassRelation))
	assert.Equal(t, "rdf:type", r.Shrink(vocabulary.Type))
	assert.Equal(t, "http://unknown.org/x", r.Shrink("http://unknown.org/x"))
	assert.Equal(t, "emf:doc1", r.Shrink("emf:doc1"))
	// namespace alone has no local part
	assert.Equal(t, vocabulary.EMF, r.Shrink(vocabulary.EMF))
}

func TestIdentityResolver_LongestNamespaceWins(t *testing.T) {
	r := NewIdentityResolver(map[string]string{
		"base": "http://example.org/",
		"sub":  "http://example.org/sub/",
	})

	assert.Equal(t, "sub:x", r.Shrink("http://example.org/sub/x"))
	assert.Equal(t, "base:y", r.Shrink("http://example.org/y"))
}

func TestIdentityResolver_Normalize(t *testing.T) {
	r := NewIdentityResolver(nil)

	assert.Equal(t, "emf:references", r.Normalize("references"))
	assert.Equal(t, "emf:references", r.Normalize(vocabulary.EMF+"references"))
	assert.Equal(t, []string{"emf:a", "emf:b"}, r.NormalizeAll([]string{"b", "emf:a", " ", "a"}))
	assert.Equal(t, vocabulary.EMF+"doc1", r.AddressOf(entities.NewRef("doc1", "")))
	assert.Empty(t, r.AddressOf(nil))
}
