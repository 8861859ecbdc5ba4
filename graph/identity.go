// Package graph derives a stable record identity from a Turtle document.
//
// A submitted document identifies its record through a Dublin Core identifier
// statement whose object is a URI. The identity is the last two path segments
// of that URI: the second-to-last segment is the category and the last segment,
// minus a recognized graph-file extension, is the record id.
package graph

import (
	"net/url"
	"strings"

	"github.com/knakk/rdf"

	"github.com/c360studio/fairgate/errors"
)

// Identifier predicates recognized in submitted documents.
const (
	dcTermsIdentifier    = "http://purl.org/dc/terms/identifier"
	dcElementsIdentifier = "http://purl.org/dc/elements/1.1/identifier"
)

const xsdString = "http://www.w3.org/2001/XMLSchema#string"

// graphExtensions are the file extensions stripped from the last path segment
// when deriving the record id. Matched case-insensitively.
var graphExtensions = []string{".ttl", ".nt", ".rdf", ".owl"}

// Identity is the derived record identity. Immutable once computed: the same
// document text always yields the same Identity.
type Identity struct {
	// RecordID is the last path segment of the canonical URI with any
	// graph-file extension removed.
	RecordID string
	// Category is the second-to-last path segment of the canonical URI.
	Category string
	// CanonicalURI is the full URI the identity was derived from.
	CanonicalURI string
}

// ExtractIdentity parses a Turtle document and derives the record identity.
//
// The candidate URI is taken from the first identifier statement found,
// preferring an IRI object over a plain or xsd:string literal. When no
// identifier statement exists, the first IRI subject is used instead. Triple
// order follows the decoder's enumeration; with multiple identifier statements
// any one of them may win. That ambiguity is inherited from the data, not
// resolved here.
//
// It returns a parse_error when the document is not well-formed Turtle and an
// identity_not_found error when no candidate URI with at least two path
// segments exists.
func ExtractIdentity(document string) (Identity, error) {
	triples, err := rdf.NewTripleDecoder(strings.NewReader(document), rdf.Turtle).DecodeAll()
	if err != nil {
		return Identity{}, errors.NewParse(err)
	}

	candidate := identifierCandidate(triples)
	if candidate == "" {
		candidate = firstIRISubject(triples)
	}
	if candidate == "" {
		return Identity{}, errors.NewIdentityNotFound("no identifier statement or IRI subject in document")
	}

	return identityFromURI(candidate)
}

// identifierCandidate returns the URI candidate from the first identifier
// statement, or "" when none qualifies.
func identifierCandidate(triples []rdf.Triple) string {
	for _, t := range triples {
		pred := iriText(t.Pred)
		if pred != dcTermsIdentifier && pred != dcElementsIdentifier {
			continue
		}
		switch t.Obj.Type() {
		case rdf.TermIRI:
			return iriText(t.Obj)
		case rdf.TermLiteral:
			lit, ok := t.Obj.(rdf.Literal)
			if !ok {
				continue
			}
			if dt := strings.Trim(lit.DataType.String(), "<>"); dt == "" || dt == xsdString {
				return lit.String()
			}
		}
	}
	return ""
}

// firstIRISubject returns the first triple subject that is an IRI, or "".
func firstIRISubject(triples []rdf.Triple) string {
	for _, t := range triples {
		if t.Subj.Type() == rdf.TermIRI {
			return iriText(t.Subj)
		}
	}
	return ""
}

// iriText returns the bare IRI text of a term, without NT-style brackets.
func iriText(term rdf.Term) string {
	return strings.Trim(term.String(), "<>")
}

// identityFromURI splits the candidate URI's path into segments and builds the
// identity from the last two.
func identityFromURI(candidate string) (Identity, error) {
	u, err := url.Parse(candidate)
	if err != nil {
		return Identity{}, errors.NewIdentityNotFound("identifier is not a usable URI: " + candidate)
	}

	var segments []string
	for _, s := range strings.Split(u.Path, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}
	if len(segments) < 2 {
		return Identity{}, errors.NewIdentityNotFound("identifier URI has fewer than two path segments: " + candidate)
	}

	return Identity{
		RecordID:     stripGraphExtension(segments[len(segments)-1]),
		Category:     segments[len(segments)-2],
		CanonicalURI: candidate,
	}, nil
}

// stripGraphExtension removes a trailing graph-file extension, ignoring case.
func stripGraphExtension(name string) string {
	lower := strings.ToLower(name)
	for _, ext := range graphExtensions {
		if strings.HasSuffix(lower, ext) {
			return name[:len(name)-len(ext)]
		}
	}
	return name
}
