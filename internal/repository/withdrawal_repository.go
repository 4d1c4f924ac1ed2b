package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/edufund-api/internal/models"
)

// ErrInsufficientFunds is returned when a withdrawal exceeds the available balance.
var ErrInsufficientFunds = errors.New("insufficient funds")

const withdrawalSelect = `SELECT w.id, w.campaign_id, w.requested_by, w.amount, w.purpose, w.institution_payment_details, w.status, w.admin_notes, w.processed_by, w.processed_at, w.created_at, w.updated_at, c.title AS campaign_title FROM withdrawal_requests w JOIN campaigns c ON c.id = w.campaign_id`

// WithdrawalRepository persists withdrawal requests.
type WithdrawalRepository struct {
	db *sqlx.DB
}

// NewWithdrawalRepository constructs the repository.
func NewWithdrawalRepository(db *sqlx.DB) *WithdrawalRepository {
	return &WithdrawalRepository{db: db}
}

// Create inserts w after checking, under a campaign row lock, that the amount does not exceed
// the raised total minus requests that are still pending, approved or processed.
func (r *WithdrawalRepository) Create(ctx context.Context, w *models.WithdrawalRequest) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin withdrawal: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var raised float64
	if err = tx.GetContext(ctx, &raised, `SELECT current_amount FROM campaigns WHERE id = $1 FOR UPDATE`, w.CampaignID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return err
		}
		return fmt.Errorf("lock campaign: %w", err)
	}
	var committed float64
	const reserved = `SELECT COALESCE(SUM(amount), 0) FROM withdrawal_requests WHERE campaign_id = $1 AND status IN ($2, $3, $4)`
	if err = tx.GetContext(ctx, &committed, reserved, w.CampaignID, models.WithdrawalPending, models.WithdrawalApproved, models.WithdrawalProcessed); err != nil {
		return fmt.Errorf("sum withdrawals: %w", err)
	}
	if w.Amount > raised-committed {
		err = ErrInsufficientFunds
		return err
	}

	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	w.CreatedAt = now
	w.UpdatedAt = now
	w.Status = models.WithdrawalPending
	const insert = `INSERT INTO withdrawal_requests (id, campaign_id, requested_by, amount, purpose, institution_payment_details, status, admin_notes, created_at, updated_at) VALUES (:id, :campaign_id, :requested_by, :amount, :purpose, :institution_payment_details, :status, :admin_notes, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, insert, w); err != nil {
		return fmt.Errorf("create withdrawal: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit withdrawal: %w", err)
	}
	return nil
}

// FindByID returns a withdrawal request.
func (r *WithdrawalRepository) FindByID(ctx context.Context, id string) (*models.WithdrawalRequest, error) {
	var w models.WithdrawalRequest
	if err := r.db.GetContext(ctx, &w, withdrawalSelect+` WHERE w.id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find withdrawal: %w", err)
	}
	return &w, nil
}

// UpdateStatus transitions a request from expected to next. A row that moved returns sql.ErrNoRows.
func (r *WithdrawalRepository) UpdateStatus(ctx context.Context, id string, expected, next models.WithdrawalStatus, notes, adminID string) error {
	now := time.Now().UTC()
	const query = `UPDATE withdrawal_requests SET status = $3, admin_notes = $4, processed_by = $5, processed_at = $6, updated_at = $6 WHERE id = $1 AND status = $2`
	res, err := r.db.ExecContext(ctx, query, id, expected, next, notes, adminID, now)
	if err != nil {
		return fmt.Errorf("update withdrawal status: %w", err)
	}
	return requireAffected(res)
}

// List returns withdrawal requests matching filter with total count.
func (r *WithdrawalRepository) List(ctx context.Context, filter models.WithdrawalFilter) ([]models.WithdrawalRequest, int, error) {
	where := " WHERE 1=1"
	var args []interface{}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		where += fmt.Sprintf(" AND w.status = $%d", len(args))
	}
	if filter.CampaignID != "" {
		args = append(args, filter.CampaignID)
		where += fmt.Sprintf(" AND w.campaign_id = $%d", len(args))
	}
	page, pageSize := normalizePage(filter.Page, filter.PageSize)
	listQuery := fmt.Sprintf("%s%s ORDER BY w.created_at DESC LIMIT %d OFFSET %d", withdrawalSelect, where, pageSize, (page-1)*pageSize)
	var requests []models.WithdrawalRequest
	if err := r.db.SelectContext(ctx, &requests, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list withdrawals: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM withdrawal_requests w"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count withdrawals: %w", err)
	}
	return requests, total, nil
}
