package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/chandruydv805026/my-web/internal/entity"
	"github.com/chandruydv805026/my-web/internal/repository"
)

type eventStore struct {
	db *sql.DB
}

func (s *eventStore) Append(ctx context.Context, streamID string, events ...entity.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var version int
	err = tx.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM order_events WHERE stream_id = $1", streamID).Scan(&version)
	if err != nil {
		return fmt.Errorf("failed to get current stream version: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO order_events (id, stream_id, version, event_type, payload, created_at) VALUES ($1, $2, $3, $4, $5, $6)")
	if err != nil {
		return fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for _, event := range events {
		version++

		payload, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("failed to marshal event %s: %w", event.EventType(), err)
		}

		if _, err := stmt.ExecContext(ctx, uuid.NewString(), streamID, version, event.EventType(), payload, now); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("stream %s version %d: %w", streamID, version, repository.ErrConflict)
			}
			return fmt.Errorf("failed to insert event %s: %w", event.EventType(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *eventStore) Load(ctx context.Context, streamID string) ([]entity.EventRecord, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, stream_id, version, event_type, payload, created_at FROM order_events WHERE stream_id = $1 ORDER BY version ASC", streamID)
	if err != nil {
		return nil, fmt.Errorf("failed to load events for stream %s: %w", streamID, err)
	}
	defer rows.Close()

	events := []entity.EventRecord{}
	for rows.Next() {
		var record entity.EventRecord
		if err := rows.Scan(&record.ID, &record.StreamID, &record.Version, &record.EventType, &record.Payload, &record.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan event record: %w", err)
		}
		events = append(events, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating event rows: %w", err)
	}
	return events, nil
}
