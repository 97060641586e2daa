// Package store persists leads for the outreach pipeline.
package store

import (
	"context"
	"time"

	"github.com/sells-group/outreach-cli/internal/model"
)

// LeadFilter specifies criteria for listing leads.
type LeadFilter struct {
	Status model.LeadStatus `json:"status,omitempty"`
	Limit  int              `json:"limit,omitempty"`
	Offset int              `json:"offset,omitempty"`
}

// Store defines the persistence interface for the lead pipeline. Every
// mutation commits immediately; there is no cross-call transaction, so
// one lead's failure never rolls back another's already-committed claim.
type Store interface {
	// CreateLead persists a new lead with status not_started and
	// returns it with identity and timestamps assigned.
	CreateLead(ctx context.Context, lead model.Lead) (*model.Lead, error)
	GetLead(ctx context.Context, id string) (*model.Lead, error)
	ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error)

	// ListClaimable returns leads with status not_started whose
	// updated_at is at or before cutoff, oldest first.
	ListClaimable(ctx context.Context, cutoff time.Time, limit int) ([]model.Lead, error)

	// ClaimLead atomically transitions a lead from not_started to
	// in_progress. Returns false when the lead was already claimed by a
	// concurrent invocation (or is in any other state).
	ClaimLead(ctx context.Context, id string) (bool, error)

	// CompleteLead writes the generated email fields and sets status done.
	CompleteLead(ctx context.Context, id, greeting, hook, body string) error

	// MarkLeadError sets status error with a diagnostic message and
	// clears any previously generated output.
	MarkLeadError(ctx context.Context, id, message string) error

	// ResetLead returns an errored lead to not_started so an operator
	// can retry it.
	ResetLead(ctx context.Context, id string) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
