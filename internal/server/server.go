// Package server exposes the ledger over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"net/netip"
	"time"

	"invest-ledger-go/internal/api"
	"invest-ledger-go/internal/auth"
	"invest-ledger-go/internal/metrics"
	"invest-ledger-go/internal/models"
	"invest-ledger-go/internal/pin"
	"invest-ledger-go/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type Server struct {
	ledger         *api.LedgerService
	db             store.LedgerStore
	metrics        *metrics.Metrics
	pins           *pin.Verifier
	files          http.Handler
	jwtSecret      []byte
	maxUploadBytes int64
	trustedProxies []netip.Prefix
}

func New(ledgerService *api.LedgerService, m *metrics.Metrics, files http.Handler, pins *pin.Verifier, cfg models.ServerConfig) *Server {
	maxUpload := cfg.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = 10 << 20
	}
	ledgerService.WithMaxUploadBytes(maxUpload)

	return &Server{
		ledger:         ledgerService,
		db:             ledgerService.Store(),
		metrics:        m,
		pins:           pins,
		files:          files,
		jwtSecret:      []byte(cfg.JWTSecret),
		maxUploadBytes: maxUpload,
		trustedProxies: cfg.TrustedProxies,
	}
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	if s.files != nil {
		r.Method(http.MethodGet, "/files/*", s.files)
	}
	r.Post("/api/admin/verify-pin", s.handleVerifyPin)

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(s.jwtSecret, s.db))

		r.Get("/api/me", s.handleMe)
		r.Get("/api/me/entries", s.handleMyEntries)
		r.Get("/api/me/trades", s.handleMyTrades)
		r.Post("/api/deposits", s.handleDeposit)
		r.Post("/api/deposits/{id}/proof", s.handleDepositProof)
		r.Post("/api/withdrawals", s.handleWithdrawal)
		r.Get("/api/plans", s.handleListPlans)
		r.Get("/api/investments", s.handleListPositions)
		r.Post("/api/investments", s.handleInvest)
		r.Get("/api/copy-experts", s.handleListExperts)
		r.Post("/api/copy-experts/{id}/copy", s.handleCopyExpert)
		r.Get("/api/signal-providers", s.handleListProviders)
		r.Post("/api/signal-providers/{id}/subscribe", s.handleSubscribeSignal)
		r.Post("/api/kyc", s.handleSubmitKYC)
		r.Get("/api/deposit-addresses", s.handleListDepositAddresses)
		r.Get("/api/notifications", s.handleListNotifications)
		r.Post("/api/notifications/{id}/read", s.handleMarkNotificationRead)

		r.Route("/api/admin", func(r chi.Router) {
			r.Use(auth.RequireAdmin)

			r.Get("/accounts", s.handleAdminListAccounts)
			r.Patch("/accounts/{id}", s.handleAdminUpdateAccount)
			r.Post("/accounts/{id}/trades", s.handleAdminRecordTrade)
			r.Get("/trades", s.handleAdminListTrades)
			r.Post("/accounts/{id}/kyc", s.handleAdminReviewKYC)
			r.Get("/entries", s.handleAdminListEntries)
			r.Post("/entries/{id}/review", s.handleAdminReviewEntry)
			r.Get("/plans", s.handleAdminListPlans)
			r.Post("/plans", s.handleAdminCreatePlan)
			r.Put("/plans/{id}", s.handleAdminUpdatePlan)
			r.Post("/plans/{id}/toggle", s.handleAdminTogglePlan)
			r.Delete("/plans/{id}", s.handleAdminDeletePlan)
			r.Post("/investments/{id}/return", s.handleAdminSetReturn)
			r.Post("/investments/{id}/close", s.handleAdminClosePosition)
			r.Post("/copy-experts", s.handleAdminCreateExpert)
			r.Post("/copy-experts/{id}/toggle", s.handleAdminToggleExpert)
			r.Post("/signal-providers", s.handleAdminCreateProvider)
			r.Post("/signal-providers/{id}/toggle", s.handleAdminToggleProvider)
			r.Post("/notifications/broadcast", s.handleAdminBroadcast)

			r.Get("/deposit-addresses", s.handleAdminListDepositAddresses)
			r.Group(func(r chi.Router) {
				r.Use(s.requirePin)
				r.Post("/deposit-addresses", s.handleAdminCreateDepositAddress)
				r.Put("/deposit-addresses/{id}", s.handleAdminUpdateDepositAddress)
				r.Delete("/deposit-addresses/{id}", s.handleAdminDeleteDepositAddress)
			})
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.ledger.HealthCheck(ctx); err != nil {
		zap.L().Error("Health check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVerifyPin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Pin string `json:"pin"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	err := s.pins.Check(s.clientKey(r), req.Pin)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, pinResult{Success: true})
	case errors.Is(err, pin.ErrNotConfigured):
		writeJSON(w, http.StatusInternalServerError, pinResult{Error: "Admin PIN not configured"})
	case errors.Is(err, pin.ErrRateLimited):
		writeJSON(w, http.StatusTooManyRequests, pinResult{Error: "Too many attempts. Try again later."})
	default:
		zap.L().Warn("Invalid admin PIN", zap.String("client", s.clientKey(r)))
		writeJSON(w, http.StatusOK, pinResult{Error: "Invalid PIN"})
	}
}

type pinResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// principal is set by auth.Middleware on every authenticated route
func principal(r *http.Request) auth.Principal {
	p, _ := auth.FromContext(r.Context())
	return p
}
