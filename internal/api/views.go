package api

import (
	"invest-ledger-go/internal/ledger"
	"invest-ledger-go/internal/models"
)

func balanceSummary(a *models.Account) models.BalanceSummary {
	b := ledger.BalancesOf(a)
	return models.BalanceSummary{
		Deposit:   b.Deposit,
		Profit:    b.Profit,
		Bonus:     b.Bonus,
		Spendable: b.Spendable(),
	}
}

// AccountView hides the withdrawal and tax codes; only their presence is exposed.
func AccountView(a *models.Account) *models.AccountView {
	return &models.AccountView{
		Id:              a.Id,
		Name:            a.Name,
		Email:           a.Email,
		Role:            a.Role,
		Status:          a.Status,
		KYCStatus:       a.KYCStatus,
		Balances:        balanceSummary(a),
		CanTrade:        a.CanTrade,
		CanWithdraw:     a.CanWithdraw,
		RequiredTrades:  a.RequiredTrades,
		CompletedTrades: a.CompletedTrades,
		HasWithdrawCode: a.WithdrawalCode != "",
		HasTaxCode:      a.TaxCode != "",
		KYCSubmittedAt:  a.KYCSubmittedAt,
		CreatedAt:       a.CreatedAt,
	}
}

func EntryRecord(e *models.LedgerEntry) *models.EntryRecord {
	return &models.EntryRecord{
		Id:              e.Id,
		Kind:            e.Kind,
		Status:          e.Status,
		Amount:          e.Amount,
		Currency:        e.Currency,
		CryptoType:      e.CryptoType,
		WalletAddress:   e.WalletAddress,
		TransactionHash: e.TransactionHash,
		ProofURL:        e.ProofURL,
		AdminNotes:      e.AdminNotes,
		ApprovedAt:      e.ApprovedAt,
		CreatedAt:       e.CreatedAt,
	}
}

func PlanView(p *models.InvestmentPlan) models.PlanView {
	features := p.Features
	if features == nil {
		features = []string{}
	}
	return models.PlanView{
		Id:            p.Id,
		Name:          p.Name,
		PlanType:      p.PlanType,
		MinAmount:     p.MinAmount,
		MaxAmount:     p.MaxAmount,
		ROIPercentage: p.ROIPercentage,
		DurationDays:  p.DurationDays,
		Description:   p.Description,
		Features:      features,
		IsActive:      p.IsActive,
	}
}

func PositionView(p *models.InvestmentPosition) *models.PositionView {
	return &models.PositionView{
		Id:             p.Id,
		PlanId:         p.PlanId,
		Amount:         p.Amount,
		ExpectedReturn: p.ExpectedReturn,
		CurrentReturn:  p.CurrentReturn,
		Status:         p.Status,
		StartDate:      p.StartDate,
		EndDate:        p.EndDate,
		CompletedAt:    p.CompletedAt,
	}
}

func ExpertView(e *models.CopyExpert) models.ExpertView {
	return models.ExpertView{
		Id:             e.Id,
		DisplayName:    e.DisplayName,
		Bio:            e.Bio,
		TotalFollowers: e.TotalFollowers,
		SuccessRate:    e.SuccessRate,
		TotalProfit:    e.TotalProfit,
	}
}

func ProviderView(p *models.SignalProvider) models.ProviderView {
	return models.ProviderView{
		Id:           p.Id,
		DisplayName:  p.DisplayName,
		Description:  p.Description,
		Price:        p.Price,
		SuccessRate:  p.SuccessRate,
		TotalSignals: p.TotalSignals,
	}
}
