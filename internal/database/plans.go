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

func loadPlan(ctx context.Context, q queryer, planId string) (*models.InvestmentPlan, error) {
	plan, err := scanPlan(q.QueryRowContext(ctx, queryGetPlanById, planId))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrPlanNotFound
		}
		return nil, fmt.Errorf("failed to load plan: %w", err)
	}
	return plan, nil
}

func (s *Service) CreatePlan(ctx context.Context, plan models.InvestmentPlan) (*models.InvestmentPlan, error) {
	if err := ledger.ValidatePlan(&plan); err != nil {
		return nil, err
	}
	if plan.Id == "" {
		plan.Id = uuid.New().String()
	}
	features, err := encodeFeatures(plan.Features)
	if err != nil {
		return nil, err
	}

	createdAt := now()
	_, err = s.db.ExecContext(ctx, queryInsertPlan,
		plan.Id, plan.Name, plan.PlanType, plan.MinAmount.String(), plan.MaxAmount.String(),
		plan.ROIPercentage.String(), plan.DurationDays, plan.Description, features, plan.IsActive,
		createdAt, createdAt)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("%w: plan %q", store.ErrDuplicateName, plan.Name)
	}
	if err != nil {
		zap.L().Error("Failed to insert plan", zap.String("name", plan.Name), zap.Error(err))
		return nil, fmt.Errorf("unable to insert plan: %w", err)
	}

	zap.L().Info("Investment plan created",
		zap.String("plan_id", plan.Id),
		zap.String("name", plan.Name),
		zap.String("roi_percentage", plan.ROIPercentage.String()),
		zap.Int("duration_days", plan.DurationDays))
	return s.GetPlan(ctx, plan.Id)
}

func (s *Service) UpdatePlan(ctx context.Context, plan models.InvestmentPlan) (*models.InvestmentPlan, error) {
	if err := ledger.ValidatePlan(&plan); err != nil {
		return nil, err
	}
	features, err := encodeFeatures(plan.Features)
	if err != nil {
		return nil, err
	}

	result, err := s.db.ExecContext(ctx, queryUpdatePlan,
		plan.Name, plan.PlanType, plan.MinAmount.String(), plan.MaxAmount.String(),
		plan.ROIPercentage.String(), plan.DurationDays, plan.Description, features, plan.IsActive,
		now(), plan.Id)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("%w: plan %q", store.ErrDuplicateName, plan.Name)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to update plan: %w", err)
	}
	if err := requireRow(result, store.ErrPlanNotFound); err != nil {
		return nil, err
	}

	zap.L().Info("Investment plan updated", zap.String("plan_id", plan.Id))
	return s.GetPlan(ctx, plan.Id)
}

func (s *Service) SetPlanActive(ctx context.Context, planId string, active bool) (*models.InvestmentPlan, error) {
	result, err := s.db.ExecContext(ctx, querySetPlanActive, active, now(), planId)
	if err != nil {
		return nil, fmt.Errorf("unable to toggle plan: %w", err)
	}
	if err := requireRow(result, store.ErrPlanNotFound); err != nil {
		return nil, err
	}

	zap.L().Info("Investment plan toggled", zap.String("plan_id", planId), zap.Bool("active", active))
	return s.GetPlan(ctx, planId)
}

// DeletePlan removes a plan no position has ever referenced
func (s *Service) DeletePlan(ctx context.Context, planId string) error {
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := loadPlan(ctx, tx, planId); err != nil {
			return err
		}

		var positions int
		if err := tx.QueryRowContext(ctx, queryCountPlanPositions, planId).Scan(&positions); err != nil {
			return fmt.Errorf("failed to count plan positions: %w", err)
		}
		if positions > 0 {
			return fmt.Errorf("%w: %d positions", store.ErrPlanInUse, positions)
		}

		if _, err := tx.ExecContext(ctx, queryDeletePlan, planId); err != nil {
			return fmt.Errorf("unable to delete plan: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	zap.L().Info("Investment plan deleted", zap.String("plan_id", planId))
	return nil
}

func (s *Service) GetPlan(ctx context.Context, planId string) (*models.InvestmentPlan, error) {
	return loadPlan(ctx, s.db, planId)
}

func (s *Service) ListPlans(ctx context.Context, activeOnly bool) ([]models.InvestmentPlan, error) {
	rows, err := s.db.QueryContext(ctx, queryListPlans, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("unable to query plans: %w", err)
	}
	return collect(rows, scanPlan)
}

// requireRow maps an update that matched nothing to notFound
func requireRow(result sql.Result, notFound error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("unable to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return notFound
	}
	return nil
}
