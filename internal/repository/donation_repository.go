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

var (
	// ErrNotFundable is returned when the target campaign is not active and verified.
	ErrNotFundable = errors.New("campaign not fundable")
	// ErrInvalidTransition is returned for a disallowed donation status change.
	ErrInvalidTransition = errors.New("invalid status transition")
)

const donationSelect = `SELECT d.id, d.campaign_id, d.donor_id, d.amount, d.currency, d.payment_method, d.payment_reference, d.status, d.message, d.is_anonymous, d.fee_amount, d.net_amount, d.receipt_url, d.completed_at, d.created_at, d.updated_at, u.name AS donor_name, c.title AS campaign_title FROM donations d JOIN users u ON u.id = d.donor_id JOIN campaigns c ON c.id = d.campaign_id`

// DonationRepository persists donations and keeps campaign totals in step.
type DonationRepository struct {
	db *sqlx.DB
}

// NewDonationRepository constructs the repository.
func NewDonationRepository(db *sqlx.DB) *DonationRepository {
	return &DonationRepository{db: db}
}

// Create records d, credits the campaign when d is completed and writes evt in one
// transaction. The campaign row is locked by the guarded update, so a campaign that is no
// longer active and verified yields ErrNotFundable.
func (r *DonationRepository) Create(ctx context.Context, d *models.Donation, evt *models.OutboxEvent) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin donation: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	d.CreatedAt = now
	d.UpdatedAt = now

	credit := 0.0
	if d.Status == models.DonationCompleted {
		credit = d.Amount
		d.CompletedAt = &now
	}
	const increment = `UPDATE campaigns SET current_amount = current_amount + $2, updated_at = $3 WHERE id = $1 AND status = $4 AND overall_status = $5`
	res, err := tx.ExecContext(ctx, increment, d.CampaignID, credit, now, models.CampaignActive, models.VerificationVerified)
	if err != nil {
		return fmt.Errorf("credit campaign: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		err = ErrNotFundable
		return err
	}

	const insert = `INSERT INTO donations (id, campaign_id, donor_id, amount, currency, payment_method, payment_reference, status, message, is_anonymous, fee_amount, net_amount, receipt_url, completed_at, created_at, updated_at) VALUES (:id, :campaign_id, :donor_id, :amount, :currency, :payment_method, :payment_reference, :status, :message, :is_anonymous, :fee_amount, :net_amount, :receipt_url, :completed_at, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, insert, d); err != nil {
		return fmt.Errorf("create donation: %w", err)
	}
	if err = insertOutbox(ctx, tx, evt); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit donation: %w", err)
	}
	return nil
}

// FindByID returns a donation.
func (r *DonationRepository) FindByID(ctx context.Context, id string) (*models.Donation, error) {
	var d models.Donation
	if err := r.db.GetContext(ctx, &d, donationSelect+` WHERE d.id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find donation: %w", err)
	}
	return &d, nil
}

// UpdateStatus moves a donation to next and adjusts the campaign total by the resulting delta
// in one transaction.
func (r *DonationRepository) UpdateStatus(ctx context.Context, id string, next models.DonationStatus, reference string, buildEvent func(models.DonationStatusChange) (*models.OutboxEvent, error)) (change *models.DonationStatusChange, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin donation status: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var current models.Donation
	if err = tx.GetContext(ctx, &current, `SELECT id, campaign_id, donor_id, amount, status FROM donations WHERE id = $1 FOR UPDATE`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("lock donation: %w", err)
	}
	if !current.Status.CanTransition(next) {
		err = ErrInvalidTransition
		return nil, err
	}

	delta := 0.0
	switch {
	case next == models.DonationCompleted:
		delta = current.Amount
	case current.Status == models.DonationCompleted && next == models.DonationRefunded:
		delta = -current.Amount
	}

	now := time.Now().UTC()
	if delta != 0 {
		if _, err = tx.ExecContext(ctx, `UPDATE campaigns SET current_amount = GREATEST(current_amount + $2, 0), updated_at = $3 WHERE id = $1`, current.CampaignID, delta, now); err != nil {
			return nil, fmt.Errorf("adjust campaign total: %w", err)
		}
	}

	var completedAt *time.Time
	if next == models.DonationCompleted {
		completedAt = &now
	}
	var ref *string
	if reference != "" {
		ref = &reference
	}
	const update = `UPDATE donations SET status = $2, payment_reference = COALESCE($3, payment_reference), completed_at = COALESCE($4, completed_at), updated_at = $5 WHERE id = $1`
	if _, err = tx.ExecContext(ctx, update, id, next, ref, completedAt, now); err != nil {
		return nil, fmt.Errorf("update donation status: %w", err)
	}

	var updated models.Donation
	if err = tx.GetContext(ctx, &updated, donationSelect+` WHERE d.id = $1`, id); err != nil {
		return nil, fmt.Errorf("reload donation: %w", err)
	}
	result := models.DonationStatusChange{Donation: updated, PreviousStatus: current.Status, TotalDelta: delta}

	if buildEvent != nil {
		var evt *models.OutboxEvent
		if evt, err = buildEvent(result); err != nil {
			return nil, fmt.Errorf("build donation event: %w", err)
		}
		if err = insertOutbox(ctx, tx, evt); err != nil {
			return nil, err
		}
	}
	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit donation status: %w", err)
	}
	return &result, nil
}

// List returns donations matching filter, newest first, with total count.
func (r *DonationRepository) List(ctx context.Context, filter models.DonationFilter) ([]models.Donation, int, error) {
	where := " WHERE 1=1"
	var args []interface{}
	if filter.CampaignID != "" {
		args = append(args, filter.CampaignID)
		where += fmt.Sprintf(" AND d.campaign_id = $%d", len(args))
	}
	if filter.DonorID != "" {
		args = append(args, filter.DonorID)
		where += fmt.Sprintf(" AND d.donor_id = $%d", len(args))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		where += fmt.Sprintf(" AND d.status = $%d", len(args))
	}

	page, pageSize := normalizePage(filter.Page, filter.PageSize)
	listQuery := fmt.Sprintf("%s%s ORDER BY d.created_at DESC LIMIT %d OFFSET %d", donationSelect, where, pageSize, (page-1)*pageSize)
	var donations []models.Donation
	if err := r.db.SelectContext(ctx, &donations, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list donations: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM donations d"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count donations: %w", err)
	}
	return donations, total, nil
}

// StatsForDonor aggregates a donor's completed donations.
func (r *DonationRepository) StatsForDonor(ctx context.Context, donorID string) (*models.DonationStats, error) {
	const query = `SELECT COALESCE(SUM(amount), 0) AS total_donated, COUNT(*) AS donation_count, COUNT(DISTINCT campaign_id) AS campaigns_supported FROM donations WHERE donor_id = $1 AND status = $2`
	var stats models.DonationStats
	if err := r.db.GetContext(ctx, &stats, query, donorID, models.DonationCompleted); err != nil {
		return nil, fmt.Errorf("donation stats: %w", err)
	}
	return &stats, nil
}

// FindTotalsDrift lists campaigns whose stored total differs from their completed donations.
func (r *DonationRepository) FindTotalsDrift(ctx context.Context) ([]models.TotalsDrift, error) {
	const query = `SELECT c.id AS campaign_id, c.current_amount AS stored, COALESCE(SUM(d.amount), 0) AS computed FROM campaigns c LEFT JOIN donations d ON d.campaign_id = c.id AND d.status = $1 GROUP BY c.id, c.current_amount HAVING c.current_amount <> COALESCE(SUM(d.amount), 0)`
	var drift []models.TotalsDrift
	if err := r.db.SelectContext(ctx, &drift, query, models.DonationCompleted); err != nil {
		return nil, fmt.Errorf("find totals drift: %w", err)
	}
	return drift, nil
}

// RecomputeTotal resets a campaign total from its completed donations, provided the stored
// total still equals expected. Returns false when the row moved in the meantime.
func (r *DonationRepository) RecomputeTotal(ctx context.Context, campaignID string, expected float64) (bool, error) {
	const query = `UPDATE campaigns SET current_amount = (SELECT COALESCE(SUM(amount), 0) FROM donations WHERE campaign_id = $1 AND status = $3), updated_at = $4 WHERE id = $1 AND current_amount = $2`
	res, err := r.db.ExecContext(ctx, query, campaignID, expected, models.DonationCompleted, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("recompute campaign total: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}
