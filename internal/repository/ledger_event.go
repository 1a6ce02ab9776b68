package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/josh-kwaku/fundledger/internal/domain"
)

const ledgerEventColumns = `id, fundraiser_id, event_type, payload, status,
	attempts, last_attempt, created_at`

type LedgerEventRepository struct {
	db *sql.DB
}

func NewLedgerEventRepository(db *sql.DB) *LedgerEventRepository {
	return &LedgerEventRepository{db: db}
}

// Create writes the outbox row inside the caller's ledger transaction so the
// event exists if and only if the mutation committed.
func (r *LedgerEventRepository) Create(ctx context.Context, tx *sql.Tx, event *domain.LedgerEvent) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO ledger_events (`+ledgerEventColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		event.ID, event.FundraiserID, event.EventType, []byte(event.Payload),
		event.Status, event.Attempts, event.LastAttempt, event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *LedgerEventRepository) GetPending(ctx context.Context, limit int) ([]domain.LedgerEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+ledgerEventColumns+` FROM ledger_events
		WHERE status = $1 ORDER BY created_at, id LIMIT $2`,
		domain.LedgerEventStatusPending, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("GetPending: %w", err)
	}
	defer rows.Close()

	var events []domain.LedgerEvent
	for rows.Next() {
		e, err := scanLedgerEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("GetPending: scan: %w", err)
		}
		events = append(events, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetPending: rows: %w", err)
	}
	return events, nil
}

// UpdateStatus records one delivery attempt and moves the event to status.
func (r *LedgerEventRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.LedgerEventStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE ledger_events SET status = $1, attempts = attempts + 1, last_attempt = now()
		WHERE id = $2`,
		status, id,
	)
	if err != nil {
		return fmt.Errorf("UpdateStatus: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("UpdateStatus: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("UpdateStatus: %w", domain.ErrNotFound)
	}
	return nil
}

func scanLedgerEvent(s scanner) (*domain.LedgerEvent, error) {
	var (
		e       domain.LedgerEvent
		payload []byte
	)
	err := s.Scan(
		&e.ID, &e.FundraiserID, &e.EventType, &payload,
		&e.Status, &e.Attempts, &e.LastAttempt, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.Payload = payload
	return &e, nil
}
