package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sahayata/resource-engine/internal/model"
)

const requestColumns = `id, resource_id, resource_name, quantity, user_id,
	user_name, contact_number, city, status, priority, urgency_note,
	delivery_address, created_at, processed_at, processed_by`

// PostgresRequestStore handles request persistence on Postgres.
type PostgresRequestStore struct {
	db *pgxpool.Pool
}

// NewPostgresRequestStore constructs a PostgresRequestStore.
func NewPostgresRequestStore(db *pgxpool.Pool) *PostgresRequestStore {
	return &PostgresRequestStore{db: db}
}

var _ RequestStore = (*PostgresRequestStore)(nil)

func scanRequest(row pgx.Row) (*model.Request, error) {
	var req model.Request
	err := row.Scan(
		&req.ID, &req.ResourceID, &req.ResourceName, &req.Quantity,
		&req.UserID, &req.UserName, &req.ContactNumber, &req.City,
		&req.Status, &req.Priority, &req.UrgencyNote, &req.DeliveryAddress,
		&req.CreatedAt, &req.ProcessedAt, &req.ProcessedBy,
	)
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// Create inserts a new request record.
func (s *PostgresRequestStore) Create(ctx context.Context, req *model.Request) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO requests (`+requestColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		req.ID, req.ResourceID, req.ResourceName, req.Quantity,
		req.UserID, req.UserName, req.ContactNumber, req.City,
		req.Status, req.Priority, req.UrgencyNote, req.DeliveryAddress,
		req.CreatedAt, req.ProcessedAt, req.ProcessedBy,
	)
	if err != nil {
		return fmt.Errorf("insert request: %w", err)
	}
	return nil
}

// GetByID returns a single request within the given city or ErrNotFound.
func (s *PostgresRequestStore) GetByID(ctx context.Context, city, id string) (*model.Request, error) {
	req, err := scanRequest(s.db.QueryRow(ctx,
		`SELECT `+requestColumns+` FROM requests WHERE id = $1 AND city = $2`,
		id, city,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get request: %w", err)
	}
	return req, nil
}

// ListByCity returns the city's requests ordered by creation time
// descending. An empty status lists all of them.
func (s *PostgresRequestStore) ListByCity(ctx context.Context, city string, status model.RequestStatus) ([]model.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM requests WHERE city = $1`
	args := []any{city}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`
	return s.queryRequests(ctx, query, args...)
}

// ListByUser returns a citizen's own requests, newest first.
func (s *PostgresRequestStore) ListByUser(ctx context.Context, userID string) ([]model.Request, error) {
	return s.queryRequests(ctx,
		`SELECT `+requestColumns+` FROM requests WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
}

func (s *PostgresRequestStore) queryRequests(ctx context.Context, query string, args ...any) ([]model.Request, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	defer rows.Close()

	var requests []model.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan request: %w", err)
		}
		requests = append(requests, *req)
	}
	return requests, rows.Err()
}

// Approve performs the approval transition inside a single transaction:
//
//  1. Lock the request row and check it is still pending, so two admins
//     deciding the same request serialize and only one wins.
//  2. Conditionally debit the resource's available count; `available >= qty`
//     in the predicate means an underfunded debit matches no row and nothing
//     is written.
//  3. Mark the request approved.
//
// If any step fails the transaction rolls back and the request stays in its
// prior state. The approval is the one point where inventory is debited;
// Fulfill later performs no further inventory effect.
func (s *PostgresRequestStore) Approve(ctx context.Context, city, id, adminID string) (*model.Request, *model.Resource, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	req, err := scanRequest(tx.QueryRow(ctx,
		`SELECT `+requestColumns+` FROM requests WHERE id = $1 AND city = $2 FOR UPDATE`,
		id, city,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("lock request row: %w", err)
	}
	if req.Status != model.StatusPending {
		err = ErrInvalidTransition
		return nil, nil, err
	}

	res, err := scanResource(tx.QueryRow(ctx,
		`UPDATE resources
		 SET available = available - $3, last_updated = now()
		 WHERE id = $1 AND city = $2 AND available >= $3
		 RETURNING `+resourceColumns,
		req.ResourceID, city, req.Quantity,
	))
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, fmt.Errorf("reserve stock: %w", err)
		}
		var exists bool
		if scanErr := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM resources WHERE id = $1 AND city = $2)`,
			req.ResourceID, city,
		).Scan(&exists); scanErr != nil {
			err = scanErr
			return nil, nil, fmt.Errorf("check resource: %w", err)
		}
		if !exists {
			err = fmt.Errorf("resource for request: %w", ErrNotFound)
			return nil, nil, err
		}
		err = ErrInsufficientStock
		return nil, nil, err
	}

	req, err = scanRequest(tx.QueryRow(ctx,
		`UPDATE requests
		 SET status = $3, processed_at = now(), processed_by = $4
		 WHERE id = $1 AND city = $2
		 RETURNING `+requestColumns,
		id, city, model.StatusApproved, adminID,
	))
	if err != nil {
		return nil, nil, fmt.Errorf("mark request approved: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("commit transaction: %w", err)
	}
	return req, res, nil
}

// Reject moves a pending request to rejected. The status predicate in the
// UPDATE makes the transition guard atomic.
func (s *PostgresRequestStore) Reject(ctx context.Context, city, id, adminID string) (*model.Request, error) {
	return s.transition(ctx, city, id, adminID, model.StatusPending, model.StatusRejected)
}

// Fulfill moves an approved request to fulfilled. Inventory was already
// debited at approval and is not touched again.
func (s *PostgresRequestStore) Fulfill(ctx context.Context, city, id, adminID string) (*model.Request, error) {
	return s.transition(ctx, city, id, adminID, model.StatusApproved, model.StatusFulfilled)
}

func (s *PostgresRequestStore) transition(ctx context.Context, city, id, adminID string, from, to model.RequestStatus) (*model.Request, error) {
	// processed_at/processed_by record the first transition out of pending
	// and are never overwritten afterwards.
	query := `UPDATE requests
		 SET status = $4, processed_at = now(), processed_by = $5
		 WHERE id = $1 AND city = $2 AND status = $3
		 RETURNING ` + requestColumns
	args := []any{id, city, from, to, adminID}
	if from != model.StatusPending {
		query = `UPDATE requests
		 SET status = $4
		 WHERE id = $1 AND city = $2 AND status = $3
		 RETURNING ` + requestColumns
		args = args[:4]
	}
	req, err := scanRequest(s.db.QueryRow(ctx, query, args...))
	if err == nil {
		return req, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("transition request: %w", err)
	}

	// Nothing matched: out of scope, or in the wrong state.
	var exists bool
	if err := s.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM requests WHERE id = $1 AND city = $2)`,
		id, city,
	).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check request: %w", err)
	}
	if !exists {
		return nil, ErrNotFound
	}
	return nil, ErrInvalidTransition
}
