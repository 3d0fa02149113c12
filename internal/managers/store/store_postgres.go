package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"agentdir/internal/managers/models"
)

// DefaultPaidOperationID scopes lookups to agents holding the paid operation
// that marks an active seat in the directory.
const DefaultPaidOperationID = 227

// PostgresStore reads agent→manager assignments from the directory database.
type PostgresStore struct {
	db              *sql.DB
	paidOperationID int64
}

// PostgresOption configures a PostgresStore instance.
type PostgresOption func(*PostgresStore)

// WithPaidOperationID overrides the paid operation scoping the lookup.
func WithPaidOperationID(id int64) PostgresOption {
	return func(s *PostgresStore) {
		s.paidOperationID = id
	}
}

// NewPostgres constructs a PostgreSQL-backed assignment store.
func NewPostgres(db *sql.DB, opts ...PostgresOption) *PostgresStore {
	s := &PostgresStore{
		db:              db,
		paidOperationID: DefaultPaidOperationID,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// FindAssignments returns the distinct (agent, manager) rows for the requested
// usernames in a single round trip. Agents outside the paid operation scope
// produce no rows at all; callers map their absence to null.
func (s *PostgresStore) FindAssignments(ctx context.Context, agents []string) ([]models.Assignment, error) {
	query := `
		SELECT DISTINCT au.username AS agent, m.email AS manager
		FROM app_users au
		LEFT JOIN user_managers um ON um.user_id = au.id
		LEFT JOIN app_users m ON m.id = um.manager_id
		INNER JOIN orders_paid_operations opo ON opo.user_id = au.id
		WHERE opo.paid_operation_id = $1
		  AND opo.is_owner = true
		  AND au.username = ANY($2)
	`
	rows, err := s.db.QueryContext(ctx, query, s.paidOperationID, pq.Array(agents))
	if err != nil {
		return nil, fmt.Errorf("query manager assignments: %w", err)
	}
	defer rows.Close()

	var assignments []models.Assignment
	for rows.Next() {
		var assignment models.Assignment
		var manager sql.NullString
		if err := rows.Scan(&assignment.Agent, &manager); err != nil {
			return nil, fmt.Errorf("scan manager assignment: %w", err)
		}
		if manager.Valid {
			assignment.Manager = &manager.String
		}
		assignments = append(assignments, assignment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate manager assignments: %w", err)
	}
	return assignments, nil
}
