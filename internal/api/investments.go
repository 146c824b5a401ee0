package api

import (
	"context"

	"invest-ledger-go/internal/models"
	"invest-ledger-go/internal/store"

	"go.uber.org/zap"
)

func (s *LedgerService) ListPlans(ctx context.Context, activeOnly bool) ([]models.PlanView, error) {
	plans, err := s.db.ListPlans(ctx, activeOnly)
	if err != nil {
		return nil, err
	}
	result := make([]models.PlanView, len(plans))
	for i := range plans {
		result[i] = PlanView(&plans[i])
	}
	return result, nil
}

// Invest opens a position in a plan funded from the deposit sub-balance
func (s *LedgerService) Invest(ctx context.Context, params store.InvestParams) (*models.InvestmentResult, error) {
	zap.L().Info("Processing investment",
		zap.String("user_id", params.UserId),
		zap.String("plan_id", params.PlanId),
		zap.String("amount", params.Amount.String()))

	position, err := s.db.OpenPosition(ctx, params)
	if err != nil {
		if msg, ok := s.rejected(opInvestment, params.UserId, err); ok {
			return &models.InvestmentResult{Success: false, Error: msg}, nil
		}
		return nil, err
	}

	s.accepted(opInvestment)
	zap.L().Info("Investment opened",
		zap.String("user_id", params.UserId),
		zap.String("position_id", position.Id),
		zap.String("expected_return", position.ExpectedReturn.String()))

	return &models.InvestmentResult{Success: true, Position: PositionView(position)}, nil
}

func (s *LedgerService) ListPositions(ctx context.Context, userId string) ([]models.PositionView, error) {
	positions, err := s.db.ListPositions(ctx, userId)
	if err != nil {
		return nil, err
	}
	result := make([]models.PositionView, len(positions))
	for i := range positions {
		result[i] = *PositionView(&positions[i])
	}
	return result, nil
}
