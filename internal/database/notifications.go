package database

import (
	"context"
	"database/sql"
	"fmt"

	"invest-ledger-go/internal/models"
	"invest-ledger-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func insertNotification(ctx context.Context, q queryer, params store.NotificationParams) (*models.Notification, error) {
	kind := params.Type
	if kind == "" {
		kind = "info"
	}
	n := &models.Notification{
		Id:        uuid.New().String(),
		UserId:    params.UserId,
		Title:     params.Title,
		Message:   params.Message,
		Type:      kind,
		Link:      params.Link,
		CreatedAt: now(),
	}

	_, err := q.ExecContext(ctx, queryInsertNotification,
		n.Id, n.UserId, n.Title, n.Message, n.Type, n.Link, n.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert notification: %w", err)
	}
	return n, nil
}

func (s *Service) CreateNotification(ctx context.Context, params store.NotificationParams) (*models.Notification, error) {
	if _, err := loadAccount(ctx, s.db, params.UserId); err != nil {
		return nil, err
	}
	return insertNotification(ctx, s.db, params)
}

func (s *Service) ListNotifications(ctx context.Context, userId string, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > maxEntryLimit {
		limit = defaultEntryLimit
	}
	rows, err := s.db.QueryContext(ctx, queryListNotifications, userId, limit)
	if err != nil {
		return nil, fmt.Errorf("unable to query notifications: %w", err)
	}
	return collect(rows, scanNotification)
}

func (s *Service) MarkNotificationRead(ctx context.Context, userId, notificationId string) error {
	result, err := s.db.ExecContext(ctx, queryMarkNotificationRead, notificationId, userId)
	if err != nil {
		return fmt.Errorf("unable to mark notification read: %w", err)
	}
	return requireRow(result, store.ErrNotificationNotFound)
}

// Broadcast sends the same notification to every account and returns how many were written
func (s *Service) Broadcast(ctx context.Context, title, message, kind string) (int, error) {
	var sent int
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, queryListAccountIds)
		if err != nil {
			return fmt.Errorf("unable to list accounts: %w", err)
		}

		var ids []string
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				closeRows(rows)
				return fmt.Errorf("unable to scan account id: %w", err)
			}
			ids = append(ids, id)
		}
		closeRows(rows)
		if err := rows.Err(); err != nil {
			return fmt.Errorf("error iterating account ids: %w", err)
		}

		for _, id := range ids {
			if _, err := insertNotification(ctx, tx, store.NotificationParams{
				UserId: id, Title: title, Message: message, Type: kind,
			}); err != nil {
				return err
			}
			sent++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	zap.L().Info("Notification broadcast", zap.String("title", title), zap.Int("recipients", sent))
	return sent, nil
}
