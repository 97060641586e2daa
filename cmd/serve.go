package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the webhook server for lead intake and readback",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		mux := http.NewServeMux()

		mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		mux.HandleFunc("POST /leads", func(w http.ResponseWriter, r *http.Request) {
			var req struct {
				LeadName    string `json:"lead_name"`
				LinkedInURL string `json:"linkedin_url"`
				ProductDesc string `json:"product_desc"`
				CTA         string `json:"cta"`
				SnapshotID  string `json:"snapshot_id"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
				return
			}
			if req.LeadName == "" || req.SnapshotID == "" {
				http.Error(w, `{"error":"lead_name and snapshot_id are required"}`, http.StatusBadRequest)
				return
			}

			lead, err := st.CreateLead(r.Context(), model.Lead{
				LeadName:    req.LeadName,
				LinkedInURL: req.LinkedInURL,
				ProductDesc: req.ProductDesc,
				CTA:         req.CTA,
				SnapshotID:  req.SnapshotID,
			})
			if err != nil {
				zap.L().Error("create lead failed", zap.Error(err))
				http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
				return
			}
			writeJSON(w, http.StatusCreated, lead)
		})

		mux.HandleFunc("GET /leads", func(w http.ResponseWriter, r *http.Request) {
			status := model.LeadStatus(r.URL.Query().Get("status"))
			if status != "" && !status.Valid() {
				http.Error(w, `{"error":"unknown status"}`, http.StatusBadRequest)
				return
			}
			leads, err := st.ListLeads(r.Context(), store.LeadFilter{Status: status})
			if err != nil {
				zap.L().Error("list leads failed", zap.Error(err))
				http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
				return
			}
			if leads == nil {
				leads = []model.Lead{}
			}
			writeJSON(w, http.StatusOK, leads)
		})

		mux.HandleFunc("GET /leads/{id}", func(w http.ResponseWriter, r *http.Request) {
			lead, err := st.GetLead(r.Context(), r.PathValue("id"))
			if err != nil {
				zap.L().Error("get lead failed", zap.Error(err))
				http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
				return
			}
			if lead == nil {
				http.Error(w, `{"error":"lead not found"}`, http.StatusNotFound)
				return
			}
			writeJSON(w, http.StatusOK, lead)
		})

		port := cfg.Server.Port
		if servePort > 0 {
			port = servePort
		}
		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		}

		go func() {
			<-ctx.Done()
			_ = srv.Shutdown(cmd.Context())
		}()

		zap.L().Info("webhook server listening", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "serve")
		}
		return nil
	},
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port (overrides config)")
	rootCmd.AddCommand(serveCmd)
}
