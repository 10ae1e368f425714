package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arklim/social-platform-commerce/internal/core/domain"
	"github.com/arklim/social-platform-commerce/internal/core/port"
)

// SecurityEventRepository implements port.SecurityEventRepository using PostgreSQL.
type SecurityEventRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewSecurityEventRepository wires a PostgreSQL-backed audit ledger.
func NewSecurityEventRepository(exec pgExecutor) *SecurityEventRepository {
	repo := &SecurityEventRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
	if pool, ok := exec.(*pgxpool.Pool); ok {
		repo.pool = pool
	}
	return repo
}

// Create appends a security event row.
func (r *SecurityEventRepository) Create(ctx context.Context, event domain.SecurityEvent) error {
	var details any
	if len(event.Details) > 0 {
		encoded, err := json.Marshal(event.Details)
		if err != nil {
			return fmt.Errorf("marshal security event details: %w", err)
		}
		details = encoded
	}

	stmt, args, err := r.builder.Insert("commerce.security_events").
		Columns(
			"id",
			"user_id",
			"event_type",
			"ip",
			"user_agent",
			"details",
			"created_at",
		).
		Values(
			event.ID,
			event.UserID,
			event.EventType,
			event.IP,
			event.UserAgent,
			details,
			event.CreatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert security event sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert security event: %w", err)
	}

	return nil
}

// ListForUser returns the most recent audit entries for a user.
func (r *SecurityEventRepository) ListForUser(ctx context.Context, userID string, limit int) ([]domain.SecurityEvent, error) {
	query := r.builder.Select(
		"id",
		"user_id",
		"event_type",
		"ip",
		"user_agent",
		"details",
		"created_at",
	).
		From("commerce.security_events").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("created_at DESC")

	if limit > 0 {
		query = query.Limit(uint64(limit))
	}

	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list security events sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query security events: %w", err)
	}
	defer rows.Close()

	events := make([]domain.SecurityEvent, 0)
	for rows.Next() {
		var (
			event   domain.SecurityEvent
			details []byte
		)

		if err := rows.Scan(
			&event.ID,
			&event.UserID,
			&event.EventType,
			&event.IP,
			&event.UserAgent,
			&details,
			&event.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan security event: %w", err)
		}

		if len(details) > 0 {
			if err := json.Unmarshal(details, &event.Details); err != nil {
				return nil, fmt.Errorf("unmarshal security event details: %w", err)
			}
		}

		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate security events: %w", err)
	}

	return events, nil
}

var _ port.SecurityEventRepository = (*SecurityEventRepository)(nil)
