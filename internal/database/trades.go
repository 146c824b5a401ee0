package database

import (
	"context"
	"database/sql"
	"fmt"

	"invest-ledger-go/internal/ledger"
	"invest-ledger-go/internal/models"
	"invest-ledger-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RecordCompletedTrade logs a closed trade and increments the completed-trade
// counter used by the withdrawal gate. Profit and loss is recorded for the
// history only and never credited to a balance.
func (s *Service) RecordCompletedTrade(ctx context.Context, params store.TradeParams) (*models.Trade, error) {
	if err := ledger.ValidateTrade(params.Symbol, params.Side, params.Amount, params.EntryPrice, params.ExitPrice); err != nil {
		return nil, err
	}

	profitLoss := ledger.TradeProfitLoss(params.Side, params.Amount, params.EntryPrice, params.ExitPrice)
	if params.ProfitLoss != nil {
		profitLoss = *params.ProfitLoss
	}
	trade := &models.Trade{
		Id:         uuid.New().String(),
		UserId:     params.UserId,
		Symbol:     params.Symbol,
		TradeType:  params.Side,
		Amount:     params.Amount,
		EntryPrice: params.EntryPrice,
		ExitPrice:  params.ExitPrice,
		ProfitLoss: profitLoss,
		Status:     models.TradeClosed,
		PlacedBy:   params.AdminId,
		CreatedAt:  now(),
	}

	var completed int
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		account, err := loadAccount(ctx, tx, params.UserId)
		if err != nil {
			return err
		}
		account.CompletedTrades++
		if err := writeControls(ctx, tx, account); err != nil {
			return err
		}
		completed = account.CompletedTrades

		_, err = tx.ExecContext(ctx, queryInsertTrade,
			trade.Id, trade.UserId, trade.Symbol, trade.TradeType, trade.Amount.String(),
			trade.EntryPrice.String(), trade.ExitPrice.String(), trade.ProfitLoss.String(),
			trade.Status, trade.PlacedBy, trade.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert trade: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("Completed trade recorded",
		zap.String("user_id", trade.UserId),
		zap.String("trade_id", trade.Id),
		zap.String("symbol", trade.Symbol),
		zap.String("profit_loss", trade.ProfitLoss.String()),
		zap.Int("completed_trades", completed))
	return trade, nil
}

// ListTrades returns the newest trades first; an empty userId lists every account
func (s *Service) ListTrades(ctx context.Context, userId string, limit int) ([]models.Trade, error) {
	if limit <= 0 || limit > maxEntryLimit {
		limit = defaultEntryLimit
	}
	rows, err := s.db.QueryContext(ctx, queryListTrades, userId, userId, limit)
	if err != nil {
		return nil, fmt.Errorf("unable to query trades: %w", err)
	}
	return collect(rows, scanTrade)
}
