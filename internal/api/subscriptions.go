package api

import (
	"context"

	"invest-ledger-go/internal/models"
	"invest-ledger-go/internal/store"

	"go.uber.org/zap"
)

func (s *LedgerService) ListExperts(ctx context.Context) ([]models.ExpertView, error) {
	experts, err := s.db.ListExperts(ctx, true)
	if err != nil {
		return nil, err
	}
	result := make([]models.ExpertView, len(experts))
	for i := range experts {
		result[i] = ExpertView(&experts[i])
	}
	return result, nil
}

func (s *LedgerService) ListSignalProviders(ctx context.Context) ([]models.ProviderView, error) {
	providers, err := s.db.ListSignalProviders(ctx, true)
	if err != nil {
		return nil, err
	}
	result := make([]models.ProviderView, len(providers))
	for i := range providers {
		result[i] = ProviderView(&providers[i])
	}
	return result, nil
}

// CopyExpert allocates part of the deposit sub-balance to following an expert
func (s *LedgerService) CopyExpert(ctx context.Context, params store.CopyTradeParams) (*models.SubscriptionResult, error) {
	sub, err := s.db.CopyExpert(ctx, params)
	if err != nil {
		if msg, ok := s.rejected(opCopyTrade, params.UserId, err); ok {
			return &models.SubscriptionResult{Success: false, Error: msg}, nil
		}
		return nil, err
	}

	s.accepted(opCopyTrade)
	zap.L().Info("Copy trading started",
		zap.String("user_id", params.UserId),
		zap.String("expert_id", params.ExpertId),
		zap.String("amount", sub.Amount.String()))

	return &models.SubscriptionResult{Success: true, SubscriptionId: sub.Id, Amount: sub.Amount}, nil
}

// SubscribeSignal charges the provider's price against the deposit sub-balance
func (s *LedgerService) SubscribeSignal(ctx context.Context, params store.SignalSubscribeParams) (*models.SubscriptionResult, error) {
	sub, err := s.db.SubscribeSignal(ctx, params)
	if err != nil {
		if msg, ok := s.rejected(opSignalSubscription, params.UserId, err); ok {
			return &models.SubscriptionResult{Success: false, Error: msg}, nil
		}
		return nil, err
	}

	s.accepted(opSignalSubscription)
	zap.L().Info("Signal subscription started",
		zap.String("user_id", params.UserId),
		zap.String("provider_id", params.ProviderId),
		zap.String("price", sub.Price.String()))

	return &models.SubscriptionResult{Success: true, SubscriptionId: sub.Id, Amount: sub.Price}, nil
}
