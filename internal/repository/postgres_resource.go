package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sahayata/resource-engine/internal/model"
)

const resourceColumns = `id, name, description, category, priority, city,
	total, available, min_threshold, created_by, created_at, last_updated`

// PostgresResourceStore handles resource persistence on Postgres.
type PostgresResourceStore struct {
	db *pgxpool.Pool
}

// NewPostgresResourceStore constructs a PostgresResourceStore.
func NewPostgresResourceStore(db *pgxpool.Pool) *PostgresResourceStore {
	return &PostgresResourceStore{db: db}
}

var _ ResourceStore = (*PostgresResourceStore)(nil)

func scanResource(row pgx.Row) (*model.Resource, error) {
	var res model.Resource
	err := row.Scan(
		&res.ID, &res.Name, &res.Description, &res.Category, &res.Priority,
		&res.City, &res.Total, &res.Available, &res.MinThreshold,
		&res.CreatedBy, &res.CreatedAt, &res.LastUpdated,
	)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// Create inserts a new resource record.
func (s *PostgresResourceStore) Create(ctx context.Context, res *model.Resource) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO resources (`+resourceColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		res.ID, res.Name, res.Description, res.Category, res.Priority,
		res.City, res.Total, res.Available, res.MinThreshold,
		res.CreatedBy, res.CreatedAt, res.LastUpdated,
	)
	if err != nil {
		return fmt.Errorf("insert resource: %w", err)
	}
	return nil
}

// GetByID returns a single resource within the given city or ErrNotFound.
func (s *PostgresResourceStore) GetByID(ctx context.Context, city, id string) (*model.Resource, error) {
	res, err := scanResource(s.db.QueryRow(ctx,
		`SELECT `+resourceColumns+` FROM resources WHERE id = $1 AND city = $2`,
		id, city,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get resource: %w", err)
	}
	return res, nil
}

// Update rewrites the mutable fields of a resource. The row is locked first
// so a concurrent Reserve cannot interleave between validation and write.
func (s *PostgresResourceStore) Update(ctx context.Context, city string, res *model.Resource) (*model.Resource, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var existing string
	err = tx.QueryRow(ctx,
		`SELECT id FROM resources WHERE id = $1 AND city = $2 FOR UPDATE`,
		res.ID, city,
	).Scan(&existing)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lock resource row: %w", err)
	}

	updated, err := scanResource(tx.QueryRow(ctx,
		`UPDATE resources
		 SET name = $3, description = $4, category = $5, priority = $6,
		     total = $7, available = $8, min_threshold = $9, last_updated = now()
		 WHERE id = $1 AND city = $2
		 RETURNING `+resourceColumns,
		res.ID, city, res.Name, res.Description, res.Category, res.Priority,
		res.Total, res.Available, res.MinThreshold,
	))
	if err != nil {
		return nil, fmt.Errorf("update resource: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return updated, nil
}

// Delete hard-deletes a resource within the given city.
func (s *PostgresResourceStore) Delete(ctx context.Context, city, id string) error {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM resources WHERE id = $1 AND city = $2`,
		id, city,
	)
	if err != nil {
		return fmt.Errorf("delete resource: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AddStock increments total and available together in one statement, so it
// can never violate the available <= total invariant on its own.
func (s *PostgresResourceStore) AddStock(ctx context.Context, city, id string, amount int) (*model.Resource, error) {
	res, err := scanResource(s.db.QueryRow(ctx,
		`UPDATE resources
		 SET total = total + $3, available = available + $3, last_updated = now()
		 WHERE id = $1 AND city = $2
		 RETURNING `+resourceColumns,
		id, city, amount,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("add stock: %w", err)
	}
	return res, nil
}

// Reserve debits available by quantity with a conditional update. The
// `available >= quantity` predicate makes the check-then-write atomic: of two
// concurrent reserves competing for the same units, exactly one matches.
func (s *PostgresResourceStore) Reserve(ctx context.Context, city, id string, quantity int) (*model.Resource, error) {
	res, err := scanResource(s.db.QueryRow(ctx,
		`UPDATE resources
		 SET available = available - $3, last_updated = now()
		 WHERE id = $1 AND city = $2 AND available >= $3
		 RETURNING `+resourceColumns,
		id, city, quantity,
	))
	if err == nil {
		return res, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("reserve stock: %w", err)
	}

	// No row matched: either the resource is out of scope or the stock ran
	// short. Distinguish so the caller can surface the right error.
	var exists bool
	if err := s.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM resources WHERE id = $1 AND city = $2)`,
		id, city,
	).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check resource: %w", err)
	}
	if !exists {
		return nil, ErrNotFound
	}
	return nil, ErrInsufficientStock
}

// List returns the city's resources, filtered, ordered by name ascending
// with creation time as tiebreak.
func (s *PostgresResourceStore) List(ctx context.Context, city string, filter model.ResourceFilter) ([]model.Resource, error) {
	query := `SELECT ` + resourceColumns + ` FROM resources WHERE city = $1`
	args := []any{city}

	var conds []string
	if filter.OnlyAvailable {
		conds = append(conds, "available > 0")
	}
	if filter.OnlyLowStock {
		conds = append(conds, "available <= min_threshold")
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		conds = append(conds, "category = $"+strconv.Itoa(len(args)))
	}
	if filter.Priority != "" {
		args = append(args, filter.Priority)
		conds = append(conds, "priority = $"+strconv.Itoa(len(args)))
	}
	if len(conds) > 0 {
		query += " AND " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY name ASC, created_at ASC"

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list resources: %w", err)
	}
	defer rows.Close()

	var resources []model.Resource
	for rows.Next() {
		res, err := scanResource(rows)
		if err != nil {
			return nil, fmt.Errorf("scan resource: %w", err)
		}
		resources = append(resources, *res)
	}
	return resources, rows.Err()
}
