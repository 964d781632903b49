package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sahayata/resource-engine/internal/model"
)

// PostgresNotificationStore writes decision notifications to Postgres.
type PostgresNotificationStore struct {
	db *pgxpool.Pool
}

// NewPostgresNotificationStore constructs a PostgresNotificationStore.
func NewPostgresNotificationStore(db *pgxpool.Pool) *PostgresNotificationStore {
	return &PostgresNotificationStore{db: db}
}

var _ NotificationStore = (*PostgresNotificationStore)(nil)

// Create inserts a notification record. The engine never updates or deletes
// notifications; the read flag belongs to the citizen-facing UI.
func (s *PostgresNotificationStore) Create(ctx context.Context, n *model.Notification) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO notifications
		 (id, user_id, title, message, type, resource_id, request_id, city, created_at, read)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		n.ID, n.UserID, n.Title, n.Message, n.Type,
		n.ResourceID, n.RequestID, n.City, n.CreatedAt, n.Read,
	)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}
