package database

import (
	"context"
	"database/sql"
	"fmt"

	"invest-ledger-go/internal/ledger"
	"invest-ledger-go/internal/models"
	"invest-ledger-go/internal/store"

	"go.uber.org/zap"
)

// ReviewEntry moves an entry along its lifecycle. With settlement enabled,
// approving a deposit credits the deposit sub-balance and approving a
// withdrawal debits spendable funds, in the same transaction as the status change.
func (s *Service) ReviewEntry(ctx context.Context, params store.ReviewParams) (*models.LedgerEntry, error) {
	zap.L().Info("Reviewing entry",
		zap.String("entry_id", params.EntryId),
		zap.String("admin_id", params.AdminId),
		zap.String("status", string(params.Status)))

	var entry *models.LedgerEntry
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		current, err := loadEntry(ctx, tx, params.EntryId)
		if err != nil {
			return err
		}

		if err := ledger.CheckEntryTransition(current.Status, params.Status); err != nil {
			return fmt.Errorf("%w: %s", store.ErrInvalidTransition, err.Error())
		}

		if params.Status == models.EntryApproved && s.settleOnApproval {
			if err := s.settle(ctx, tx, current); err != nil {
				return err
			}
		}

		reviewedAt := now()
		approvedBy := ""
		var approvedAt any
		if params.Status.Terminal() {
			approvedBy = params.AdminId
			approvedAt = reviewedAt
		}

		result, err := tx.ExecContext(ctx, queryUpdateEntryStatus,
			params.Status, params.Notes, approvedBy, approvedAt, reviewedAt,
			current.Id, current.Status)
		if err != nil {
			return fmt.Errorf("failed to update entry status: %w", err)
		}
		if err := checkGuardedWrite(result, "entry"); err != nil {
			return err
		}

		if params.Status.Terminal() {
			if _, err := insertNotification(ctx, tx, reviewNotification(current, params)); err != nil {
				return err
			}
		}

		entry, err = loadEntry(ctx, tx, current.Id)
		return err
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("Entry reviewed",
		zap.String("entry_id", entry.Id),
		zap.String("kind", string(entry.Kind)),
		zap.String("status", string(entry.Status)),
		zap.String("amount", entry.Amount.String()))
	return entry, nil
}

// settle applies the balance effect of approving entry
func (s *Service) settle(ctx context.Context, tx *sql.Tx, entry *models.LedgerEntry) error {
	account, err := loadAccount(ctx, tx, entry.UserId)
	if err != nil {
		return err
	}
	balances := ledger.BalancesOf(account)

	switch entry.Kind {
	case models.KindDeposit:
		return writeBalances(ctx, tx, account, balances.CreditDeposit(entry.Amount))
	case models.KindWithdrawal:
		next, err := balances.DebitSpendable(entry.Amount)
		if err != nil {
			return err
		}
		return writeBalances(ctx, tx, account, next)
	default:
		return nil
	}
}

func reviewNotification(entry *models.LedgerEntry, params store.ReviewParams) store.NotificationParams {
	label := "Deposit"
	link := "/dashboard/deposits"
	if entry.Kind == models.KindWithdrawal {
		label = "Withdrawal"
		link = "/dashboard/withdrawals"
	}

	n := store.NotificationParams{UserId: entry.UserId, Link: link}
	if params.Status == models.EntryApproved {
		n.Title = label + " Approved"
		n.Message = fmt.Sprintf("Your %s of $%s has been approved.", entry.Kind, entry.Amount.StringFixed(2))
		n.Type = "success"
	} else {
		n.Title = label + " Rejected"
		n.Message = fmt.Sprintf("Your %s of $%s has been rejected.", entry.Kind, entry.Amount.StringFixed(2))
		if params.Notes != "" {
			n.Message += " Reason: " + params.Notes
		}
		n.Type = "error"
	}
	return n
}
