package repository

import (
	"context"
	"fmt"

	"github.com/vitalink/vitalink/internal/model"
)

// CreateHealthEvent inserts a new health event.
func (r *Repository) CreateHealthEvent(ctx context.Context, event *model.HealthEvent) error {
	query := `
		INSERT INTO health_events (
			id, user_id, type, value_1, value_2, value_3, value_bool, value_text, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.pool.Exec(ctx, query,
		event.ID,
		nullableString(event.UserID),
		event.Type,
		event.Value1,
		event.Value2,
		event.Value3,
		event.ValueBool,
		event.ValueText,
		event.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create health event: %w", err)
	}

	return nil
}

// ListHealthEvents returns health events newest first. A non-empty userID
// restricts the result to that user's events plus unowned ones, matching the
// mobile capture flow which records events before a user is linked.
func (r *Repository) ListHealthEvents(ctx context.Context, userID string) ([]*model.HealthEvent, error) {
	query := `
		SELECT id, COALESCE(user_id, ''), type, value_1, value_2, value_3, value_bool, value_text, created_at
		FROM health_events
		WHERE $1 = '' OR user_id = $1 OR user_id IS NULL
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list health events: %w", err)
	}
	defer rows.Close()

	var events []*model.HealthEvent
	for rows.Next() {
		var event model.HealthEvent
		if err := rows.Scan(
			&event.ID,
			&event.UserID,
			&event.Type,
			&event.Value1,
			&event.Value2,
			&event.Value3,
			&event.ValueBool,
			&event.ValueText,
			&event.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan health event: %w", err)
		}
		events = append(events, &event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate health events: %w", err)
	}

	return events, nil
}

// nullableString converts empty strings to nil for nullable columns.
func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
