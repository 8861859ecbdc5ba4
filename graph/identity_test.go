package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/fairgate/errors"
)

const docIRIIdentifier = `
@prefix dcterms: <http://purl.org/dc/terms/> .
<https://w3id.org/records/abc> dcterms:identifier <https://example.org/terms/metric/Filename_678.ttl> .
`

const docLiteralIdentifier = `
@prefix dcterms: <http://purl.org/dc/terms/> .
<https://w3id.org/records/abc> dcterms:identifier "https://example.org/terms/metric/Filename_678.ttl" .
`

const docElementsIdentifier = `
@prefix dc: <http://purl.org/dc/elements/1.1/> .
<https://w3id.org/records/abc> dc:identifier <https://example.org/terms/principle/F1.ttl> .
`

const docNoIdentifier = `
@prefix rdfs: <http://www.w3.org/2000/01/rdf-schema#> .
<https://example.org/catalog/test/Sample_1.TTL> rdfs:label "a sample" .
`

const docBlankSubjectsOnly = `
@prefix rdfs: <http://www.w3.org/2000/01/rdf-schema#> .
_:b1 rdfs:label "anonymous" .
`

const docShortPath = `
@prefix dcterms: <http://purl.org/dc/terms/> .
<https://w3id.org/records/abc> dcterms:identifier <https://example.org/onlyone> .
`

const docTypedLiteral = `
@prefix dcterms: <http://purl.org/dc/terms/> .
@prefix xsd: <http://www.w3.org/2001/XMLSchema#> .
_:b1 dcterms:identifier "42"^^xsd:integer .
`

const docMultipleIdentifiers = `
@prefix dcterms: <http://purl.org/dc/terms/> .
<https://w3id.org/records/abc> dcterms:identifier <https://example.org/terms/metric/First_1.ttl> .
<https://w3id.org/records/abc> dcterms:identifier <https://example.org/terms/metric/Second_2.ttl> .
`

func TestExtractIdentityFromIRIObject(t *testing.T) {
	id, err := ExtractIdentity(docIRIIdentifier)
	require.NoError(t, err)

	assert.Equal(t, "Filename_678", id.RecordID)
	assert.Equal(t, "metric", id.Category)
	assert.Equal(t, "https://example.org/terms/metric/Filename_678.ttl", id.CanonicalURI)
}

func TestExtractIdentityFromStringLiteral(t *testing.T) {
	id, err := ExtractIdentity(docLiteralIdentifier)
	require.NoError(t, err)

	assert.Equal(t, "Filename_678", id.RecordID)
	assert.Equal(t, "metric", id.Category)
}

func TestExtractIdentityElementsPredicate(t *testing.T) {
	id, err := ExtractIdentity(docElementsIdentifier)
	require.NoError(t, err)

	assert.Equal(t, "F1", id.RecordID)
	assert.Equal(t, "principle", id.Category)
}

func TestExtractIdentitySubjectFallback(t *testing.T) {
	id, err := ExtractIdentity(docNoIdentifier)
	require.NoError(t, err)

	// Extension stripping is case-insensitive.
	assert.Equal(t, "Sample_1", id.RecordID)
	assert.Equal(t, "test", id.Category)
	assert.Equal(t, "https://example.org/catalog/test/Sample_1.TTL", id.CanonicalURI)
}

func TestExtractIdentityNoCandidate(t *testing.T) {
	_, err := ExtractIdentity(docBlankSubjectsOnly)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindIdentityNotFound))
}

func TestExtractIdentityShortPath(t *testing.T) {
	_, err := ExtractIdentity(docShortPath)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindIdentityNotFound))
}

func TestExtractIdentityNonStringLiteralSkipped(t *testing.T) {
	// A typed non-string literal is not a URI candidate and the only subject
	// is a blank node, so there is nothing to derive an identity from.
	_, err := ExtractIdentity(docTypedLiteral)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindIdentityNotFound))
}

func TestExtractIdentityMalformedDocument(t *testing.T) {
	_, err := ExtractIdentity("this is not turtle {{{")
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindParse))
}

// TestExtractIdentityMultipleIdentifiers only asserts that one of the valid
// identities is chosen: which statement wins depends on the decoder's
// enumeration order.
func TestExtractIdentityMultipleIdentifiers(t *testing.T) {
	id, err := ExtractIdentity(docMultipleIdentifiers)
	require.NoError(t, err)

	assert.Equal(t, "metric", id.Category)
	assert.Contains(t, []string{"First_1", "Second_2"}, id.RecordID)
}

func TestExtractIdentityDeterministic(t *testing.T) {
	first, err := ExtractIdentity(docIRIIdentifier)
	require.NoError(t, err)

	for range 5 {
		next, err := ExtractIdentity(docIRIIdentifier)
		require.NoError(t, err)
		assert.Equal(t, first, next)
	}
}

func TestStripGraphExtension(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Filename_678.ttl", "Filename_678"},
		{"Filename_678.TTL", "Filename_678"},
		{"schema.rdf", "schema"},
		{"ontology.OWL", "ontology"},
		{"triples.nt", "triples"},
		{"no_extension", "no_extension"},
		{"archive.tar", "archive.tar"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, stripGraphExtension(tt.in), tt.in)
	}
}
