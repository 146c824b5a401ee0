package server

import (
	"net/http"

	"invest-ledger-go/internal/api"
	"invest-ledger-go/internal/models"
	"invest-ledger-go/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type accountUpdateRequest struct {
	BalanceDeposit  *decimal.Decimal      `json:"balance_deposit"`
	BalanceProfit   *decimal.Decimal      `json:"balance_profit"`
	BalanceBonus    *decimal.Decimal      `json:"balance_bonus"`
	CanTrade        *bool                 `json:"can_trade"`
	CanWithdraw     *bool                 `json:"can_withdraw"`
	RequiredTrades  *int                  `json:"required_trades"`
	CompletedTrades *int                  `json:"completed_trades"`
	WithdrawalCode  *string               `json:"withdrawal_code"`
	TaxCode         *string               `json:"tax_code"`
	KYCStatus       *models.KYCStatus     `json:"kyc_status"`
	Status          *models.AccountStatus `json:"account_status"`
}

type reviewRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

type planRequest struct {
	Name          string          `json:"name"`
	PlanType      string          `json:"plan_type"`
	MinAmount     decimal.Decimal `json:"min_amount"`
	MaxAmount     decimal.Decimal `json:"max_amount"`
	ROIPercentage decimal.Decimal `json:"roi_percentage"`
	DurationDays  int             `json:"duration_days"`
	Description   string          `json:"description"`
	Features      []string        `json:"features"`
	IsActive      bool            `json:"is_active"`
}

func (p planRequest) plan(id string) models.InvestmentPlan {
	return models.InvestmentPlan{
		Id:            id,
		Name:          p.Name,
		PlanType:      p.PlanType,
		MinAmount:     p.MinAmount,
		MaxAmount:     p.MaxAmount,
		ROIPercentage: p.ROIPercentage,
		DurationDays:  p.DurationDays,
		Description:   p.Description,
		Features:      p.Features,
		IsActive:      p.IsActive,
	}
}

type expertRequest struct {
	DisplayName string          `json:"display_name"`
	Bio         string          `json:"bio"`
	SuccessRate decimal.Decimal `json:"success_rate"`
	TotalProfit decimal.Decimal `json:"total_profit"`
}

type providerRequest struct {
	DisplayName string          `json:"display_name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	SuccessRate decimal.Decimal `json:"success_rate"`
}

type tradeRequest struct {
	Symbol     string           `json:"symbol"`
	TradeType  string           `json:"trade_type"`
	Amount     decimal.Decimal  `json:"amount"`
	EntryPrice decimal.Decimal  `json:"entry_price"`
	ExitPrice  decimal.Decimal  `json:"exit_price"`
	ProfitLoss *decimal.Decimal `json:"profit_loss"`
}

type broadcastRequest struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

type depositAddressRequest struct {
	Symbol   string `json:"crypto_symbol"`
	Name     string `json:"crypto_name"`
	Network  string `json:"network"`
	Address  string `json:"wallet_address"`
	IsActive bool   `json:"is_active"`
}

func (d depositAddressRequest) params() store.DepositAddressParams {
	return store.DepositAddressParams{
		Symbol:   d.Symbol,
		Name:     d.Name,
		Network:  d.Network,
		Address:  d.Address,
		IsActive: d.IsActive,
	}
}

func (s *Server) handleAdminListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.db.ListAccounts(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	views := make([]*models.AccountView, len(accounts))
	for i := range accounts {
		views[i] = api.AccountView(&accounts[i])
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleAdminUpdateAccount(w http.ResponseWriter, r *http.Request) {
	var req accountUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	account, err := s.db.UpdateAccount(r.Context(), chi.URLParam(r, "id"), store.AccountUpdate{
		BalanceDeposit:  req.BalanceDeposit,
		BalanceProfit:   req.BalanceProfit,
		BalanceBonus:    req.BalanceBonus,
		CanTrade:        req.CanTrade,
		CanWithdraw:     req.CanWithdraw,
		RequiredTrades:  req.RequiredTrades,
		CompletedTrades: req.CompletedTrades,
		WithdrawalCode:  req.WithdrawalCode,
		TaxCode:         req.TaxCode,
		KYCStatus:       req.KYCStatus,
		Status:          req.Status,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	zap.L().Info("Account edited by admin",
		zap.String("admin_id", principal(r).AccountId),
		zap.String("user_id", account.Id))
	writeJSON(w, http.StatusOK, api.AccountView(account))
}

func (s *Server) handleAdminRecordTrade(w http.ResponseWriter, r *http.Request) {
	var req tradeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	trade, err := s.db.RecordCompletedTrade(r.Context(), store.TradeParams{
		UserId:     chi.URLParam(r, "id"),
		AdminId:    principal(r).AccountId,
		Symbol:     req.Symbol,
		Side:       models.TradeSide(req.TradeType),
		Amount:     req.Amount,
		EntryPrice: req.EntryPrice,
		ExitPrice:  req.ExitPrice,
		ProfitLoss: req.ProfitLoss,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	account, err := s.db.GetAccount(r.Context(), trade.UserId)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"trade":   trade,
		"account": api.AccountView(account),
	})
}

func (s *Server) handleAdminListTrades(w http.ResponseWriter, r *http.Request) {
	trades, err := s.db.ListTrades(r.Context(), r.URL.Query().Get("user_id"), queryInt(r, "limit"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, trades)
}

func (s *Server) handleAdminReviewKYC(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	account, err := s.db.ReviewKYC(r.Context(), store.KYCReview{
		UserId:  chi.URLParam(r, "id"),
		AdminId: principal(r).AccountId,
		Status:  models.KYCStatus(req.Status),
		Notes:   req.Notes,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, api.AccountView(account))
}

func (s *Server) handleAdminListEntries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	entries, err := s.db.ListEntries(r.Context(), store.EntryFilter{
		UserId: q.Get("user_id"),
		Kind:   models.EntryKind(q.Get("kind")),
		Status: models.EntryStatus(q.Get("status")),
		Limit:  queryInt(r, "limit"),
		Offset: queryInt(r, "offset"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleAdminReviewEntry(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := s.ledger.ReviewEntry(r.Context(), store.ReviewParams{
		EntryId: chi.URLParam(r, "id"),
		AdminId: principal(r).AccountId,
		Status:  models.EntryStatus(req.Status),
		Notes:   req.Notes,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeResult(w, result.Success, false, result)
}

func (s *Server) handleAdminListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := s.ledger.ListPlans(r.Context(), false)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, plans)
}

func (s *Server) handleAdminCreatePlan(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	plan, err := s.db.CreatePlan(r.Context(), req.plan(""))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, api.PlanView(plan))
}

func (s *Server) handleAdminUpdatePlan(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	plan, err := s.db.UpdatePlan(r.Context(), req.plan(chi.URLParam(r, "id")))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, api.PlanView(plan))
}

func (s *Server) handleAdminTogglePlan(w http.ResponseWriter, r *http.Request) {
	current, err := s.db.GetPlan(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	plan, err := s.db.SetPlanActive(r.Context(), current.Id, !current.IsActive)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, api.PlanView(plan))
}

func (s *Server) handleAdminDeletePlan(w http.ResponseWriter, r *http.Request) {
	if err := s.db.DeletePlan(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAdminSetReturn(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	position, err := s.db.SetAccruedReturn(r.Context(), chi.URLParam(r, "id"), req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, api.PositionView(position))
}

func (s *Server) handleAdminClosePosition(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	position, err := s.db.ClosePosition(r.Context(), chi.URLParam(r, "id"), models.PositionStatus(req.Status))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, api.PositionView(position))
}

func (s *Server) handleAdminCreateExpert(w http.ResponseWriter, r *http.Request) {
	var req expertRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.DisplayName == "" {
		writeMessage(w, http.StatusUnprocessableEntity, "Display name is required")
		return
	}
	expert, err := s.db.CreateExpert(r.Context(), models.CopyExpert{
		DisplayName: req.DisplayName,
		Bio:         req.Bio,
		SuccessRate: req.SuccessRate,
		TotalProfit: req.TotalProfit,
		IsActive:    true,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, api.ExpertView(expert))
}

func (s *Server) handleAdminToggleExpert(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	experts, err := s.db.ListExperts(r.Context(), false)
	if err != nil {
		writeError(w, r, err)
		return
	}
	for _, e := range experts {
		if e.Id != id {
			continue
		}
		expert, err := s.db.SetExpertActive(r.Context(), id, !e.IsActive)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"id": expert.Id, "is_active": expert.IsActive})
		return
	}
	writeError(w, r, store.ErrExpertNotFound)
}

func (s *Server) handleAdminCreateProvider(w http.ResponseWriter, r *http.Request) {
	var req providerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.DisplayName == "" || req.Price.IsNegative() {
		writeMessage(w, http.StatusUnprocessableEntity, "Display name and a non-negative price are required")
		return
	}
	provider, err := s.db.CreateSignalProvider(r.Context(), models.SignalProvider{
		DisplayName: req.DisplayName,
		Description: req.Description,
		Price:       req.Price,
		SuccessRate: req.SuccessRate,
		IsActive:    true,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, api.ProviderView(provider))
}

func (s *Server) handleAdminToggleProvider(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	providers, err := s.db.ListSignalProviders(r.Context(), false)
	if err != nil {
		writeError(w, r, err)
		return
	}
	for _, p := range providers {
		if p.Id != id {
			continue
		}
		provider, err := s.db.SetSignalProviderActive(r.Context(), id, !p.IsActive)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"id": provider.Id, "is_active": provider.IsActive})
		return
	}
	writeError(w, r, store.ErrProviderNotFound)
}

func (s *Server) handleAdminBroadcast(w http.ResponseWriter, r *http.Request) {
	var req broadcastRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Title == "" || req.Message == "" {
		writeMessage(w, http.StatusUnprocessableEntity, "Title and message are required")
		return
	}
	if req.Type == "" {
		req.Type = "info"
	}
	sent, err := s.db.Broadcast(r.Context(), req.Title, req.Message, req.Type)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"sent": sent})
}

func (s *Server) handleAdminListDepositAddresses(w http.ResponseWriter, r *http.Request) {
	addresses, err := s.db.ListDepositAddresses(r.Context(), false)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, addresses)
}

func (s *Server) handleAdminCreateDepositAddress(w http.ResponseWriter, r *http.Request) {
	var req depositAddressRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	address, err := s.db.CreateDepositAddress(r.Context(), req.params())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, address)
}

func (s *Server) handleAdminUpdateDepositAddress(w http.ResponseWriter, r *http.Request) {
	var req depositAddressRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	address, err := s.db.UpdateDepositAddress(r.Context(), chi.URLParam(r, "id"), req.params())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, address)
}

func (s *Server) handleAdminDeleteDepositAddress(w http.ResponseWriter, r *http.Request) {
	if err := s.db.DeleteDepositAddress(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
