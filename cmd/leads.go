package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/store"
)

var (
	leadName     string
	leadURL      string
	leadOffer    string
	leadCTA      string
	leadSnapshot string

	leadsStatus string
	leadsLimit  int
)

var leadsCmd = &cobra.Command{
	Use:   "leads",
	Short: "Inspect and manage leads",
}

var leadsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a lead in not_started state",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		lead, err := st.CreateLead(ctx, model.Lead{
			LeadName:    leadName,
			LinkedInURL: leadURL,
			ProductDesc: leadOffer,
			CTA:         leadCTA,
			SnapshotID:  leadSnapshot,
		})
		if err != nil {
			return eris.Wrap(err, "create lead")
		}

		zap.L().Info("lead created", zap.String("lead_id", lead.ID))
		return printJSON(lead)
	},
}

var leadsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List leads, optionally filtered by status",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		status := model.LeadStatus(leadsStatus)
		if leadsStatus != "" && !status.Valid() {
			return eris.Errorf("unknown status: %s", leadsStatus)
		}

		leads, err := st.ListLeads(ctx, store.LeadFilter{Status: status, Limit: leadsLimit})
		if err != nil {
			return eris.Wrap(err, "list leads")
		}
		return printJSON(leads)
	},
}

var leadsShowCmd = &cobra.Command{
	Use:   "show <lead-id>",
	Short: "Show a single lead",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		lead, err := st.GetLead(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "get lead")
		}
		if lead == nil {
			return eris.Errorf("lead not found: %s", args[0])
		}
		return printJSON(lead)
	},
}

var leadsResetCmd = &cobra.Command{
	Use:   "reset <lead-id>",
	Short: "Return an errored or stuck lead to not_started",
	Long:  "Clears outputs and error message so the next job run retries the lead. There is no automatic retry; this is the operator path.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.ResetLead(ctx, args[0]); err != nil {
			return eris.Wrap(err, "reset lead")
		}
		zap.L().Info("lead reset", zap.String("lead_id", args[0]))
		return nil
	},
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	leadsAddCmd.Flags().StringVar(&leadName, "name", "", "lead name (required)")
	leadsAddCmd.Flags().StringVar(&leadURL, "linkedin-url", "", "LinkedIn profile URL used to disambiguate multi-record snapshots")
	leadsAddCmd.Flags().StringVar(&leadOffer, "offer", "", "product description; falls back to the configured default")
	leadsAddCmd.Flags().StringVar(&leadCTA, "cta", "", "call to action; falls back to the configured default")
	leadsAddCmd.Flags().StringVar(&leadSnapshot, "snapshot-id", "", "snapshot blob ID (required)")
	_ = leadsAddCmd.MarkFlagRequired("name")
	_ = leadsAddCmd.MarkFlagRequired("snapshot-id")

	leadsListCmd.Flags().StringVar(&leadsStatus, "status", "", "filter by status (not_started, in_progress, done, error)")
	leadsListCmd.Flags().IntVar(&leadsLimit, "limit", 100, "max leads to return")

	leadsCmd.AddCommand(leadsAddCmd, leadsListCmd, leadsShowCmd, leadsResetCmd)
	rootCmd.AddCommand(leadsCmd)
}
