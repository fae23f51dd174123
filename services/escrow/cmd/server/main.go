package main

import (
	"errors"
	"log"
	"net/http"

	"github.com/Scholar-Chain/smart-contract/pkg/authn"
	"github.com/Scholar-Chain/smart-contract/pkg/db"
	"github.com/Scholar-Chain/smart-contract/pkg/domain"
	"github.com/Scholar-Chain/smart-contract/pkg/httpx"
	"github.com/Scholar-Chain/smart-contract/services/escrow/internal/certs"
	"github.com/Scholar-Chain/smart-contract/services/escrow/internal/config"
	"github.com/Scholar-Chain/smart-contract/services/escrow/internal/escrow"
	"github.com/Scholar-Chain/smart-contract/services/escrow/internal/idempotency"
	"github.com/Scholar-Chain/smart-contract/services/escrow/internal/ledger"
	"github.com/Scholar-Chain/smart-contract/services/escrow/internal/notify"
	"github.com/Scholar-Chain/smart-contract/services/escrow/internal/store"

	"github.com/go-chi/chi/v5"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("escrow: load config: %v", err)
	}
	pool := db.MustConnect(cfg.DatabaseURL)
	st := store.New(pool)
	svc := escrow.New(
		st,
		ledger.New(cfg.LedgerBaseURL, cfg.LedgerToken),
		certs.New(cfg.CertsBaseURL, cfg.CertsToken),
		notify.NewWebhook(cfg.NotifyURL, cfg.NotifySecret),
		domain.DefaultSchedule,
		cfg.OperatorID,
	)

	authed := func(w http.ResponseWriter, r *http.Request) (*authn.Party, bool) {
		party, err := authn.AuthenticateBearer(r.Context(), pool, r.Header.Get("Authorization"))
		if err != nil {
			if errors.Is(err, authn.ErrUnauthorized) {
				httpx.WriteError(w, 401, "UNAUTHORIZED", "invalid or missing bearer token", nil)
			} else {
				httpx.WriteError(w, 500, "INTERNAL", err.Error(), nil)
			}
			return nil, false
		}
		return party, true
	}

	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	r.Route("/escrow", func(api chi.Router) {

		api.Post("/submissions", func(w http.ResponseWriter, r *http.Request) {
			party, ok := authed(w, r)
			if !ok {
				return
			}
			var req struct {
				SubmissionID   string `json:"submission_id"`
				PublisherID    string `json:"publisher_id"`
				Amount         int64  `json:"amount"`
				IdempotencyKey string `json:"idempotency_key"`
			}
			if err := httpx.ReadJSON(r, &req); err != nil {
				httpx.WriteError(w, 400, "BAD_JSON", err.Error(), nil)
				return
			}
			actor := idempotency.ActorContext{ActorID: party.PartyID, IdempotencyKey: req.IdempotencyKey}
			if status, body, replayed, err := idempotency.Replay(r.Context(), st, actor, "POST /escrow/submissions"); err != nil {
				httpx.WriteError(w, 500, "DB_ERROR", err.Error(), nil)
				return
			} else if replayed {
				httpx.WriteJSON(w, status, body)
				return
			}
			sub, err := svc.Create(r.Context(), party.PartyID, req.SubmissionID, req.PublisherID, req.Amount)
			if err != nil {
				httpx.WriteDomainError(w, err)
				return
			}
			resp := map[string]any{"request_id": httpx.NewRequestID(), "submission": sub}
			_ = idempotency.Save(r.Context(), st, actor, "POST /escrow/submissions", 201, resp)
			httpx.WriteJSON(w, 201, resp)
		})

		// Records are publicly readable; only the operations mutate them.
		api.Get("/submissions/overdue", func(w http.ResponseWriter, r *http.Request) {
			subs, err := svc.Overdue(r.Context())
			if err != nil {
				httpx.WriteError(w, 500, "DB_ERROR", err.Error(), nil)
				return
			}
			httpx.WriteJSON(w, 200, map[string]any{"request_id": httpx.NewRequestID(), "submissions": subs})
		})

		api.Get("/submissions/{submission_id}", func(w http.ResponseWriter, r *http.Request) {
			sub, err := st.Get(r.Context(), chi.URLParam(r, "submission_id"))
			if err != nil {
				httpx.WriteDomainError(w, err)
				return
			}
			httpx.WriteJSON(w, 200, map[string]any{"request_id": httpx.NewRequestID(), "submission": sub})
		})

		api.Get("/submissions/{submission_id}/events", func(w http.ResponseWriter, r *http.Request) {
			evs, err := st.ListEvents(r.Context(), chi.URLParam(r, "submission_id"))
			if err != nil {
				httpx.WriteError(w, 500, "DB_ERROR", err.Error(), nil)
				return
			}
			httpx.WriteJSON(w, 200, map[string]any{"request_id": httpx.NewRequestID(), "events": evs})
		})

		api.Post("/submissions/{submission_id}:decide", func(w http.ResponseWriter, r *http.Request) {
			party, ok := authed(w, r)
			if !ok {
				return
			}
			var req struct {
				Decision string `json:"decision"`
			}
			if err := httpx.ReadJSON(r, &req); err != nil {
				httpx.WriteError(w, 400, "BAD_JSON", err.Error(), nil)
				return
			}
			decision, err := domain.ParseDecision(req.Decision)
			if err != nil {
				httpx.WriteDomainError(w, err)
				return
			}
			sub, err := svc.Decide(r.Context(), party.PartyID, chi.URLParam(r, "submission_id"), decision)
			if err != nil {
				httpx.WriteDomainError(w, err)
				return
			}
			httpx.WriteJSON(w, 200, map[string]any{"request_id": httpx.NewRequestID(), "submission": sub})
		})

		api.Post("/submissions/{submission_id}:cancel", func(w http.ResponseWriter, r *http.Request) {
			party, ok := authed(w, r)
			if !ok {
				return
			}
			sub, err := svc.Cancel(r.Context(), party.PartyID, chi.URLParam(r, "submission_id"))
			if err != nil {
				httpx.WriteDomainError(w, err)
				return
			}
			httpx.WriteJSON(w, 200, map[string]any{"request_id": httpx.NewRequestID(), "submission": sub})
		})

		api.Post("/submissions/{submission_id}:timeout", func(w http.ResponseWriter, r *http.Request) {
			party, ok := authed(w, r)
			if !ok {
				return
			}
			sub, err := svc.Timeout(r.Context(), party.PartyID, chi.URLParam(r, "submission_id"))
			if err != nil {
				httpx.WriteDomainError(w, err)
				return
			}
			httpx.WriteJSON(w, 200, map[string]any{"request_id": httpx.NewRequestID(), "submission": sub})
		})

		api.Post("/submissions/{submission_id}:publish", func(w http.ResponseWriter, r *http.Request) {
			party, ok := authed(w, r)
			if !ok {
				return
			}
			var req struct {
				CertificateReference string `json:"certificate_reference"`
				IdempotencyKey       string `json:"idempotency_key"`
			}
			if err := httpx.ReadJSON(r, &req); err != nil {
				httpx.WriteError(w, 400, "BAD_JSON", err.Error(), nil)
				return
			}
			id := chi.URLParam(r, "submission_id")
			endpoint := "POST /escrow/submissions/" + id + ":publish"
			actor := idempotency.ActorContext{ActorID: party.PartyID, IdempotencyKey: req.IdempotencyKey}
			if status, body, replayed, err := idempotency.Replay(r.Context(), st, actor, endpoint); err != nil {
				httpx.WriteError(w, 500, "DB_ERROR", err.Error(), nil)
				return
			} else if replayed {
				httpx.WriteJSON(w, status, body)
				return
			}
			sub, certID, err := svc.Publish(r.Context(), party.PartyID, id, req.CertificateReference)
			if err != nil {
				httpx.WriteDomainError(w, err)
				return
			}
			resp := map[string]any{
				"request_id":            httpx.NewRequestID(),
				"submission":            sub,
				"certificate_id":        certID,
				"certificate_reference": req.CertificateReference,
			}
			_ = idempotency.Save(r.Context(), st, actor, endpoint, 200, resp)
			httpx.WriteJSON(w, 200, resp)
		})

		api.Get("/config/reviewer-share", func(w http.ResponseWriter, r *http.Request) {
			pct, err := svc.ReviewerShare(r.Context())
			if err != nil {
				httpx.WriteError(w, 500, "DB_ERROR", err.Error(), nil)
				return
			}
			httpx.WriteJSON(w, 200, map[string]any{"request_id": httpx.NewRequestID(), "reviewer_share_pct": pct})
		})

		api.Post("/config/reviewer-share", func(w http.ResponseWriter, r *http.Request) {
			party, ok := authed(w, r)
			if !ok {
				return
			}
			var req struct {
				Pct int64 `json:"pct"`
			}
			if err := httpx.ReadJSON(r, &req); err != nil {
				httpx.WriteError(w, 400, "BAD_JSON", err.Error(), nil)
				return
			}
			if err := svc.SetReviewerShare(r.Context(), party.PartyID, req.Pct); err != nil {
				httpx.WriteDomainError(w, err)
				return
			}
			httpx.WriteJSON(w, 200, map[string]any{"request_id": httpx.NewRequestID(), "reviewer_share_pct": req.Pct})
		})
	})

	log.Printf("escrow: listening on :%s", cfg.ServicePort)
	if err := http.ListenAndServe(":"+cfg.ServicePort, r); err != nil {
		log.Fatalf("escrow: serve: %v", err)
	}
}
