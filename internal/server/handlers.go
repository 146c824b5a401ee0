package server

import (
	"errors"
	"mime/multipart"
	"net/http"

	"invest-ledger-go/internal/api"
	"invest-ledger-go/internal/models"
	"invest-ledger-go/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

const idempotencyHeader = "Idempotency-Key"

type depositRequest struct {
	Amount          decimal.Decimal `json:"amount"`
	CryptoType      string          `json:"crypto_type"`
	TransactionHash string          `json:"transaction_hash"`
	IdempotencyKey  string          `json:"idempotency_key"`
}

type withdrawalRequest struct {
	Amount         decimal.Decimal `json:"amount"`
	CryptoType     string          `json:"crypto_type"`
	WalletAddress  string          `json:"wallet_address"`
	WithdrawalCode string          `json:"withdrawal_code"`
	TaxCode        string          `json:"tax_code"`
	IdempotencyKey string          `json:"idempotency_key"`
}

type investRequest struct {
	PlanId string          `json:"plan_id"`
	Amount decimal.Decimal `json:"amount"`
}

type amountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

func idempotencyKey(r *http.Request, fromBody string) string {
	if fromBody != "" {
		return fromBody
	}
	return r.Header.Get(idempotencyHeader)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	view, err := s.ledger.GetAccount(r.Context(), principal(r).AccountId)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleMyEntries(w http.ResponseWriter, r *http.Request) {
	kind := models.EntryKind(r.URL.Query().Get("kind"))
	entries, err := s.ledger.GetEntryHistory(r.Context(), principal(r).AccountId, kind, queryInt(r, "limit"), queryInt(r, "offset"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	var req depositRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := s.ledger.SubmitDeposit(r.Context(), store.DepositParams{
		UserId:          principal(r).AccountId,
		Amount:          req.Amount,
		CryptoType:      req.CryptoType,
		TransactionHash: req.TransactionHash,
		IdempotencyKey:  idempotencyKey(r, req.IdempotencyKey),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeResult(w, result.Success, true, result)
}

func (s *Server) handleDepositProof(w http.ResponseWriter, r *http.Request) {
	file, header, ok := s.formFile(w, r, "proof")
	if !ok {
		return
	}
	defer file.Close()

	result, err := s.ledger.AttachDepositProof(r.Context(), principal(r).AccountId, chi.URLParam(r, "id"),
		api.Upload{Filename: header.Filename, Body: file})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeResult(w, result.Success, false, result)
}

func (s *Server) handleWithdrawal(w http.ResponseWriter, r *http.Request) {
	var req withdrawalRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := s.ledger.SubmitWithdrawal(r.Context(), store.WithdrawalParams{
		UserId:         principal(r).AccountId,
		Amount:         req.Amount,
		CryptoType:     req.CryptoType,
		WalletAddress:  req.WalletAddress,
		WithdrawalCode: req.WithdrawalCode,
		TaxCode:        req.TaxCode,
		IdempotencyKey: idempotencyKey(r, req.IdempotencyKey),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeResult(w, result.Success, true, result)
}

func (s *Server) handleListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := s.ledger.ListPlans(r.Context(), true)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, plans)
}

func (s *Server) handleListPositions(w http.ResponseWriter, r *http.Request) {
	positions, err := s.ledger.ListPositions(r.Context(), principal(r).AccountId)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, positions)
}

func (s *Server) handleInvest(w http.ResponseWriter, r *http.Request) {
	var req investRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := s.ledger.Invest(r.Context(), store.InvestParams{
		UserId: principal(r).AccountId,
		PlanId: req.PlanId,
		Amount: req.Amount,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeResult(w, result.Success, true, result)
}

func (s *Server) handleListExperts(w http.ResponseWriter, r *http.Request) {
	experts, err := s.ledger.ListExperts(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, experts)
}

func (s *Server) handleCopyExpert(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := s.ledger.CopyExpert(r.Context(), store.CopyTradeParams{
		UserId:   principal(r).AccountId,
		ExpertId: chi.URLParam(r, "id"),
		Amount:   req.Amount,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeResult(w, result.Success, true, result)
}

func (s *Server) handleListProviders(w http.ResponseWriter, r *http.Request) {
	providers, err := s.ledger.ListSignalProviders(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, providers)
}

func (s *Server) handleSubscribeSignal(w http.ResponseWriter, r *http.Request) {
	result, err := s.ledger.SubscribeSignal(r.Context(), store.SignalSubscribeParams{
		UserId:     principal(r).AccountId,
		ProviderId: chi.URLParam(r, "id"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeResult(w, result.Success, true, result)
}

func (s *Server) handleSubmitKYC(w http.ResponseWriter, r *http.Request) {
	// two files plus form fields
	r.Body = http.MaxBytesReader(w, r.Body, 2*s.maxUploadBytes+(1<<20))
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid upload")
		return
	}

	document, docHeader, docErr := r.FormFile("document")
	selfie, selfieHeader, selfieErr := r.FormFile("selfie")
	if docErr == nil {
		defer document.Close()
	}
	if selfieErr == nil {
		defer selfie.Close()
	}
	if docErr != nil || selfieErr != nil {
		writeMessage(w, http.StatusUnprocessableEntity, "Please upload both your ID document and a selfie")
		return
	}

	result, err := s.ledger.SubmitKYC(r.Context(), principal(r).AccountId, r.FormValue("document_type"),
		api.Upload{Filename: docHeader.Filename, Body: document},
		api.Upload{Filename: selfieHeader.Filename, Body: selfie})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeResult(w, result.Success, false, result)
}

func (s *Server) handleListDepositAddresses(w http.ResponseWriter, r *http.Request) {
	addresses, err := s.db.ListDepositAddresses(r.Context(), true)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, addresses)
}

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	notifications, err := s.db.ListNotifications(r.Context(), principal(r).AccountId, queryInt(r, "limit"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, notifications)
}

func (s *Server) handleMyTrades(w http.ResponseWriter, r *http.Request) {
	trades, err := s.db.ListTrades(r.Context(), principal(r).AccountId, queryInt(r, "limit"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, trades)
}

func (s *Server) handleMarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	if err := s.db.MarkNotificationRead(r.Context(), principal(r).AccountId, chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) formFile(w http.ResponseWriter, r *http.Request, field string) (multipart.File, *multipart.FileHeader, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes+(1<<20))
	file, header, err := r.FormFile(field)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeMessage(w, http.StatusRequestEntityTooLarge, "File is too large")
			return nil, nil, false
		}
		writeMessage(w, http.StatusBadRequest, "Missing file field "+field)
		return nil, nil, false
	}
	return file, header, true
}
