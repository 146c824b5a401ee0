package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"invest-ledger-go/internal/ledger"
	"invest-ledger-go/internal/models"
	"invest-ledger-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func loadExpert(ctx context.Context, q queryer, expertId string) (*models.CopyExpert, error) {
	expert, err := scanExpert(q.QueryRowContext(ctx, queryGetExpertById, expertId))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrExpertNotFound
		}
		return nil, fmt.Errorf("failed to load expert: %w", err)
	}
	return expert, nil
}

func loadProvider(ctx context.Context, q queryer, providerId string) (*models.SignalProvider, error) {
	provider, err := scanProvider(q.QueryRowContext(ctx, queryGetProviderById, providerId))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrProviderNotFound
		}
		return nil, fmt.Errorf("failed to load signal provider: %w", err)
	}
	return provider, nil
}

func countRows(ctx context.Context, q queryer, query string, args ...any) (int, error) {
	var n int
	if err := q.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *Service) CreateExpert(ctx context.Context, expert models.CopyExpert) (*models.CopyExpert, error) {
	if expert.DisplayName == "" {
		return nil, ledger.Reject(ledger.ReasonInvalidInput, "Display name is required")
	}
	if expert.Id == "" {
		expert.Id = uuid.New().String()
	}

	_, err := s.db.ExecContext(ctx, queryInsertExpert,
		expert.Id, expert.DisplayName, expert.Bio, expert.TotalFollowers,
		expert.SuccessRate.String(), expert.TotalProfit.String(), expert.IsActive, now())
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("%w: copy expert %q", store.ErrDuplicateName, expert.DisplayName)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to insert copy expert: %w", err)
	}

	zap.L().Info("Copy expert created", zap.String("expert_id", expert.Id), zap.String("name", expert.DisplayName))
	return loadExpert(ctx, s.db, expert.Id)
}

func (s *Service) SetExpertActive(ctx context.Context, expertId string, active bool) (*models.CopyExpert, error) {
	result, err := s.db.ExecContext(ctx, querySetExpertActive, active, expertId)
	if err != nil {
		return nil, fmt.Errorf("unable to toggle copy expert: %w", err)
	}
	if err := requireRow(result, store.ErrExpertNotFound); err != nil {
		return nil, err
	}
	return loadExpert(ctx, s.db, expertId)
}

func (s *Service) ListExperts(ctx context.Context, activeOnly bool) ([]models.CopyExpert, error) {
	rows, err := s.db.QueryContext(ctx, queryListExperts, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("unable to query copy experts: %w", err)
	}
	return collect(rows, scanExpert)
}

// CopyExpert allocates funds to an expert: subscription insert, deposit debit
// and follower increment commit together.
func (s *Service) CopyExpert(ctx context.Context, params store.CopyTradeParams) (*models.CopySubscription, error) {
	zap.L().Info("Processing copy trade",
		zap.String("user_id", params.UserId),
		zap.String("expert_id", params.ExpertId),
		zap.String("amount", params.Amount.String()))

	sub := &models.CopySubscription{
		Id:       uuid.New().String(),
		UserId:   params.UserId,
		ExpertId: params.ExpertId,
		Amount:   params.Amount,
		IsActive: true,
	}
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		account, err := loadAccount(ctx, tx, params.UserId)
		if err != nil {
			return err
		}
		expert, err := loadExpert(ctx, tx, params.ExpertId)
		if err != nil {
			return err
		}
		if !expert.IsActive {
			return ledger.Reject(ledger.ReasonUnavailable, "This trader is not currently available")
		}

		existing, err := countRows(ctx, tx, queryHasActiveCopy, account.Id, expert.Id)
		if err != nil {
			return fmt.Errorf("failed to check existing subscription: %w", err)
		}
		if err := s.policy.EvaluateCopyTrade(account, params.Amount, existing > 0); err != nil {
			return err
		}

		sub.CreatedAt = now()
		if _, err := tx.ExecContext(ctx, queryInsertCopySubscription,
			sub.Id, account.Id, expert.Id, params.Amount.String(), sub.CreatedAt); err != nil {
			return fmt.Errorf("failed to insert copy subscription: %w", err)
		}

		next, err := ledger.BalancesOf(account).DebitDeposit(params.Amount)
		if err != nil {
			return err
		}
		if err := writeBalances(ctx, tx, account, next); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, queryIncrementExpertFollowers, expert.Id); err != nil {
			return fmt.Errorf("failed to increment followers: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("Copy trade opened", zap.String("subscription_id", sub.Id), zap.String("expert_id", sub.ExpertId))
	return sub, nil
}

func (s *Service) CreateSignalProvider(ctx context.Context, provider models.SignalProvider) (*models.SignalProvider, error) {
	if provider.DisplayName == "" {
		return nil, ledger.Reject(ledger.ReasonInvalidInput, "Display name is required")
	}
	if provider.Price.IsNegative() {
		return nil, ledger.Reject(ledger.ReasonInvalidAmount, "Price cannot be negative")
	}
	if provider.Id == "" {
		provider.Id = uuid.New().String()
	}

	_, err := s.db.ExecContext(ctx, queryInsertProvider,
		provider.Id, provider.DisplayName, provider.Description, provider.Price.String(),
		provider.SuccessRate.String(), provider.TotalSignals, provider.IsActive, now())
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("%w: signal provider %q", store.ErrDuplicateName, provider.DisplayName)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to insert signal provider: %w", err)
	}

	zap.L().Info("Signal provider created", zap.String("provider_id", provider.Id), zap.String("name", provider.DisplayName))
	return loadProvider(ctx, s.db, provider.Id)
}

func (s *Service) SetSignalProviderActive(ctx context.Context, providerId string, active bool) (*models.SignalProvider, error) {
	result, err := s.db.ExecContext(ctx, querySetProviderActive, active, providerId)
	if err != nil {
		return nil, fmt.Errorf("unable to toggle signal provider: %w", err)
	}
	if err := requireRow(result, store.ErrProviderNotFound); err != nil {
		return nil, err
	}
	return loadProvider(ctx, s.db, providerId)
}

func (s *Service) ListSignalProviders(ctx context.Context, activeOnly bool) ([]models.SignalProvider, error) {
	rows, err := s.db.QueryContext(ctx, queryListProviders, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("unable to query signal providers: %w", err)
	}
	return collect(rows, scanProvider)
}

// SubscribeSignal charges the provider's price from the deposit sub-balance
func (s *Service) SubscribeSignal(ctx context.Context, params store.SignalSubscribeParams) (*models.SignalSubscription, error) {
	zap.L().Info("Processing signal subscription",
		zap.String("user_id", params.UserId),
		zap.String("provider_id", params.ProviderId))

	sub := &models.SignalSubscription{
		Id:         uuid.New().String(),
		UserId:     params.UserId,
		ProviderId: params.ProviderId,
		IsActive:   true,
	}
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		account, err := loadAccount(ctx, tx, params.UserId)
		if err != nil {
			return err
		}
		provider, err := loadProvider(ctx, tx, params.ProviderId)
		if err != nil {
			return err
		}

		existing, err := countRows(ctx, tx, queryHasActiveSignal, account.Id, provider.Id)
		if err != nil {
			return fmt.Errorf("failed to check existing subscription: %w", err)
		}
		if err := ledger.EvaluateSignalSubscription(account, provider, existing > 0); err != nil {
			return err
		}

		sub.Price = provider.Price
		sub.CreatedAt = now()
		if _, err := tx.ExecContext(ctx, queryInsertSignalSubscription,
			sub.Id, account.Id, provider.Id, provider.Price.String(), sub.CreatedAt); err != nil {
			return fmt.Errorf("failed to insert signal subscription: %w", err)
		}

		next, err := ledger.BalancesOf(account).DebitDeposit(provider.Price)
		if err != nil {
			return err
		}
		return writeBalances(ctx, tx, account, next)
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("Signal subscription opened",
		zap.String("subscription_id", sub.Id),
		zap.String("price", sub.Price.String()))
	return sub, nil
}
