package model

import (
	"strings"
	"time"
)

// LeadStatus represents the current state of a lead in the outreach workflow.
type LeadStatus string

const (
	LeadStatusNotStarted LeadStatus = "not_started"
	LeadStatusInProgress LeadStatus = "in_progress"
	LeadStatusDone       LeadStatus = "done"
	LeadStatusError      LeadStatus = "error"
)

// Valid reports whether s is one of the known lead statuses.
func (s LeadStatus) Valid() bool {
	switch s {
	case LeadStatusNotStarted, LeadStatusInProgress, LeadStatusDone, LeadStatusError:
		return true
	}
	return false
}

// Lead represents a sales-outreach target progressing through the
// generation state machine. Input fields are set at creation; output
// fields are written only when a run completes with status done.
type Lead struct {
	ID string `json:"id"`

	// Provided by the caller at creation.
	LeadName    string `json:"lead_name"`
	LinkedInURL string `json:"linkedin_url"`
	ProductDesc string `json:"product_desc"`
	CTA         string `json:"cta"`
	SnapshotID  string `json:"snapshot_id"`

	Status LeadStatus `json:"status"`

	// Populated on a successful run.
	GeneratedEmailGreeting string `json:"generated_email_greeting,omitempty"`
	GeneratedEmailHook     string `json:"generated_email_hook,omitempty"`
	GeneratedEmailBody     string `json:"generated_email_body,omitempty"`

	// Populated only when status is error.
	ErrorMessage string `json:"error_message,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EmailDraft is the parsed result of a generation run. Subject and Body
// are empty when the corresponding label was absent from the raw output.
type EmailDraft struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
	RawText string `json:"raw_text"`
}

// Valid reports whether the draft carries both a subject and a non-empty
// body. An invalid draft must never be committed as done.
func (d EmailDraft) Valid() bool {
	return strings.TrimSpace(d.Subject) != "" && strings.TrimSpace(d.Body) != ""
}
