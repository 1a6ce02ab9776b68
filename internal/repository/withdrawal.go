package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/josh-kwaku/fundledger/internal/domain"
)

const withdrawalColumns = `id, fundraiser_id, requester_id, amount, method, requested_at`

type WithdrawalRepository struct {
	db *sql.DB
}

func NewWithdrawalRepository(db *sql.DB) *WithdrawalRepository {
	return &WithdrawalRepository{db: db}
}

func (r *WithdrawalRepository) Create(ctx context.Context, tx *sql.Tx, w *domain.Withdrawal) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO withdrawals (`+withdrawalColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		w.ID, w.FundraiserID, w.RequesterID, w.Amount, w.Method, w.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *WithdrawalRepository) ListByFundraiser(ctx context.Context, fundraiserID uuid.UUID) ([]domain.Withdrawal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+withdrawalColumns+` FROM withdrawals
		WHERE fundraiser_id = $1 ORDER BY requested_at DESC, id`, fundraiserID,
	)
	if err != nil {
		return nil, fmt.Errorf("ListByFundraiser: %w", err)
	}
	defer rows.Close()

	var withdrawals []domain.Withdrawal
	for rows.Next() {
		var w domain.Withdrawal
		if err := rows.Scan(&w.ID, &w.FundraiserID, &w.RequesterID, &w.Amount, &w.Method, &w.Timestamp); err != nil {
			return nil, fmt.Errorf("ListByFundraiser: scan: %w", err)
		}
		withdrawals = append(withdrawals, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListByFundraiser: rows: %w", err)
	}
	return withdrawals, nil
}
