// Package job implements the lead processing run: claim eligible leads,
// generate an outreach email for each, and commit the outcome.
package job

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/config"
	"github.com/sells-group/outreach-cli/internal/email"
	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/profile"
	"github.com/sells-group/outreach-cli/internal/store"
)

// Fetcher resolves a snapshot to a canonical profile.
type Fetcher interface {
	Fetch(ctx context.Context, snapshotID, url string) (*model.CanonicalProfile, error)
}

// Generator runs the staged email workflow.
type Generator interface {
	Run(ctx context.Context, in email.Inputs) (string, error)
}

// Summary reports what one job invocation did.
type Summary struct {
	Eligible  int `json:"eligible"`
	Claimed   int `json:"claimed"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// Job processes leads sequentially: the generation backend is costly and
// rate limited, and ordered commits keep failures easy to trace.
type Job struct {
	store    store.Store
	fetcher  Fetcher
	workflow Generator
	outreach config.OutreachConfig
	debounce time.Duration
	limit    int

	// now is swappable for tests.
	now func() time.Time
}

// New creates a Job.
func New(st store.Store, fetcher Fetcher, workflow Generator, cfg *config.Config) *Job {
	debounce := cfg.Job.ClaimDebounce
	if debounce <= 0 {
		debounce = 2 * time.Minute
	}
	return &Job{
		store:    st,
		fetcher:  fetcher,
		workflow: workflow,
		outreach: cfg.Outreach,
		debounce: debounce,
		limit:    cfg.Job.LeadLimit,
		now:      time.Now,
	}
}

// Run executes one job invocation. Per-lead failures are converted into
// an error status on the lead and never abort the batch; only a failure
// to query or claim leads at all is returned to the caller.
func (j *Job) Run(ctx context.Context) (*Summary, error) {
	log := zap.L()
	summary := &Summary{}

	cutoff := j.now().Add(-j.debounce)
	leads, err := j.store.ListClaimable(ctx, cutoff, j.limit)
	if err != nil {
		return summary, eris.Wrap(err, "job: list claimable leads")
	}
	summary.Eligible = len(leads)

	log.Info("job: starting lead processing",
		zap.Int("eligible", len(leads)),
		zap.Duration("debounce", j.debounce),
	)
	if len(leads) == 0 {
		return summary, nil
	}

	for _, lead := range leads {
		leadLog := log.With(zap.String("lead_id", lead.ID), zap.String("lead_name", lead.LeadName))

		// Claim barrier: commit in_progress before doing any work so an
		// overlapping invocation cannot pick up the same lead.
		claimed, err := j.store.ClaimLead(ctx, lead.ID)
		if err != nil {
			return summary, eris.Wrapf(err, "job: claim lead %s", lead.ID)
		}
		if !claimed {
			leadLog.Info("job: lead already claimed, skipping")
			continue
		}
		summary.Claimed++

		if err := j.processLead(ctx, lead); err != nil {
			summary.Failed++
			leadLog.Error("job: lead processing failed", zap.Error(err))
			if markErr := j.store.MarkLeadError(ctx, lead.ID, errorMessage(err)); markErr != nil {
				// Persistence failures escape the per-lead boundary; the
				// command logs them and ends the run without crashing.
				return summary, eris.Wrapf(markErr, "job: mark lead %s error", lead.ID)
			}
			continue
		}

		summary.Succeeded++
		leadLog.Info("job: lead processed")
	}

	log.Info("job: run complete",
		zap.Int("claimed", summary.Claimed),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
	)
	return summary, nil
}

// processLead runs the fetch → format → generate → parse pipeline for a
// single claimed lead and commits the result.
func (j *Job) processLead(ctx context.Context, lead model.Lead) error {
	prof, err := j.fetcher.Fetch(ctx, lead.SnapshotID, lead.LinkedInURL)
	if err != nil {
		if errors.Is(err, profile.ErrProfileNotFound) {
			return eris.Wrapf(err, "profile for snapshot %q not found", lead.SnapshotID)
		}
		return eris.Wrap(err, "fetch profile")
	}

	offer := lead.ProductDesc
	if offer == "" {
		offer = j.outreach.DefaultOffer
	}
	cta := lead.CTA
	if cta == "" {
		cta = j.outreach.DefaultCTA
	}

	raw, err := j.workflow.Run(ctx, email.Inputs{
		ProfileText: profile.FormatPerson(*prof),
		CompanyText: profile.FormatCompany(*prof),
		LeadName:    lead.LeadName,
		Offer:       offer,
		CTA:         cta,
		SellerName:  j.outreach.SellerName,
	})
	if err != nil {
		return eris.Wrap(err, "generate email")
	}

	draft := email.Parse(raw)
	if !draft.Valid() {
		return eris.Errorf("generated output is missing subject or body")
	}

	greeting := fmt.Sprintf("Hello %s", lead.LeadName)
	if err := j.store.CompleteLead(ctx, lead.ID, greeting, draft.Subject, draft.Body); err != nil {
		return eris.Wrap(err, "commit result")
	}
	return nil
}

// errorMessage flattens an error chain into the operator-facing message
// stored on the lead.
func errorMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
