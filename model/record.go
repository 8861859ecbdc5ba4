// Package model defines the submission record contract shared with the
// metadata registry. The schema is owned by the registry; FairGate only reads
// and rewrites the subject and domain classification references before
// forwarding.
package model

import (
	"encoding/json"
	"fmt"
)

// Contact is a named contact for a record.
type Contact struct {
	ContactName  string `json:"contact_name"`
	ContactORCID string `json:"contact_orcid,omitempty"`
	ContactEmail string `json:"contact_email,omitempty"`
}

// Metadata carries the descriptive fields of a record.
type Metadata struct {
	Name         string    `json:"name"`
	Abbreviation string    `json:"abbreviation,omitempty"`
	Description  string    `json:"description,omitempty"`
	Homepage     string    `json:"homepage,omitempty"`
	Contacts     []Contact `json:"contacts,omitempty"`
}

// RecordAssociation links this record to another registry record.
type RecordAssociation struct {
	LinkedRecordID   string `json:"linked_record_id"`
	RecordAssocLabel int    `json:"record_assoc_label_id"`
}

// OrganisationLink associates a record with an organisation.
type OrganisationLink struct {
	OrganisationID int    `json:"organisation_id"`
	Relation       string `json:"relation,omitempty"`
	IsLead         bool   `json:"is_lead,omitempty"`
}

// Record is the registry record being submitted. SubjectIDs and DomainIDs hold
// classification references (URIs or free text) before resolution; the
// outbound payload replaces them with registry-internal integer ids.
type Record struct {
	Metadata                     Metadata            `json:"metadata"`
	RecordTypeID                 int                 `json:"record_type_id"`
	SubjectIDs                   []string            `json:"subject_ids,omitempty"`
	DomainIDs                    []string            `json:"domain_ids,omitempty"`
	RecordAssociationsAttributes []RecordAssociation `json:"record_associations_attributes,omitempty"`
	OrganisationLinksAttributes  []OrganisationLink  `json:"organisation_links_attributes,omitempty"`
}

// SubmissionRequest is the inbound body of a record submission.
type SubmissionRequest struct {
	FairsharingRecord Record `json:"fairsharing_record"`
}

// Validate checks the fields FairGate itself depends on. Everything else is
// validated by the registry.
func (r *SubmissionRequest) Validate() error {
	if r.FairsharingRecord.Metadata.Name == "" {
		return fmt.Errorf("fairsharing_record.metadata.name is required")
	}
	if r.FairsharingRecord.RecordTypeID == 0 {
		return fmt.Errorf("fairsharing_record.record_type_id is required")
	}
	return nil
}

// ToPayload converts the typed request into the generic JSON tree that the
// resolver mutates and the normalizer cleans before transmission.
func (r *SubmissionRequest) ToPayload() (map[string]any, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshal submission request: %w", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("rebuild submission payload: %w", err)
	}
	return payload, nil
}
