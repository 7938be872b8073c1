package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// PostgresStore keeps the audit trail in the audit_events table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Append inserts event. Re-appending an event with the same ID is a no-op.
func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	id, err := uuid.Parse(event.ID)
	if err != nil {
		return fmt.Errorf("audit event id %q: %w", event.ID, err)
	}
	var detail *string
	if len(event.Detail) > 0 {
		raw, err := json.Marshal(event.Detail)
		if err != nil {
			return fmt.Errorf("marshal audit detail: %w", err)
		}
		// lib/pq sends []byte as bytea; JSONB needs text
		v := string(raw)
		detail = &v
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO audit_events (id, timestamp, action, actor, subject, decision, reason, request_id, detail)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING`,
		id, event.Timestamp, string(event.Action), event.Actor, event.Subject,
		event.Decision, event.Reason, event.RequestID, detail,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListRecent returns up to limit events, newest first. A non-positive limit
// returns everything.
func (s *PostgresStore) ListRecent(ctx context.Context, limit int) ([]Event, error) {
	query := `
		SELECT id, timestamp, action, actor, subject, decision, reason, request_id, detail
		FROM audit_events
		ORDER BY timestamp DESC, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			event  Event
			id     uuid.UUID
			action string
			detail []byte
		)
		if err := rows.Scan(&id, &event.Timestamp, &action, &event.Actor, &event.Subject,
			&event.Decision, &event.Reason, &event.RequestID, &detail); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.ID = id.String()
		event.Action = Action(action)
		if len(detail) > 0 {
			if err := json.Unmarshal(detail, &event.Detail); err != nil {
				return nil, fmt.Errorf("decode audit detail: %w", err)
			}
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}
