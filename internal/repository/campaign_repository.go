package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/edufund-api/internal/models"
)

// ErrVersionConflict is returned when a conditional update lost a race.
var ErrVersionConflict = errors.New("version conflict")

const campaignSelect = `SELECT c.id, c.owner_id, c.title, c.description, c.target_amount, c.current_amount, c.currency, c.category, c.deadline, c.status, c.institution_name, c.institution_student_id, c.academic_period, c.total_fees, c.amount_paid, c.outstanding_balance, c.payment_instructions, c.verification_documents, c.images, c.student_verified, c.documents_verified, c.institution_verified, c.financials_verified, c.overall_status, c.verification_notes, c.verified_at, c.verified_by, c.version, c.created_at, c.updated_at, u.name AS owner_name, u.email AS owner_email, COALESCE(sp.school_name, '') AS owner_school`

const campaignFrom = ` FROM campaigns c JOIN users u ON u.id = c.owner_id LEFT JOIN student_profiles sp ON sp.user_id = c.owner_id`

var campaignSorts = map[string]string{
	models.SortNewest:        "c.created_at DESC",
	"recent":                 "c.created_at DESC",
	"createdAt":              "c.created_at DESC",
	models.SortCurrentAmount: "c.current_amount DESC, c.created_at DESC",
	models.SortDeadline:      "c.deadline ASC, c.created_at DESC",
	models.SortUrgency:       "c.deadline ASC, c.current_amount DESC",
}

// CampaignRepository persists campaigns, their updates and moderation history.
type CampaignRepository struct {
	db *sqlx.DB
}

// NewCampaignRepository constructs the repository.
func NewCampaignRepository(db *sqlx.DB) *CampaignRepository {
	return &CampaignRepository{db: db}
}

// Create inserts a campaign. Derived fields are recomputed before the write.
func (r *CampaignRepository) Create(ctx context.Context, c *models.Campaign) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	c.Version = 1
	c.Normalize()

	const query = `INSERT INTO campaigns (id, owner_id, title, description, target_amount, current_amount, currency, category, deadline, status, institution_name, institution_student_id, academic_period, total_fees, amount_paid, outstanding_balance, payment_instructions, verification_documents, images, student_verified, documents_verified, institution_verified, financials_verified, overall_status, verification_notes, version, created_at, updated_at) VALUES (:id, :owner_id, :title, :description, :target_amount, :current_amount, :currency, :category, :deadline, :status, :institution_name, :institution_student_id, :academic_period, :total_fees, :amount_paid, :outstanding_balance, :payment_instructions, :verification_documents, :images, :student_verified, :documents_verified, :institution_verified, :financials_verified, :overall_status, :verification_notes, :version, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, c); err != nil {
		return fmt.Errorf("create campaign: %w", err)
	}
	return nil
}

// FindByID returns a campaign with derived fields populated.
func (r *CampaignRepository) FindByID(ctx context.Context, id string) (*models.Campaign, error) {
	var c models.Campaign
	if err := r.db.GetContext(ctx, &c, campaignSelect+campaignFrom+` WHERE c.id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find campaign: %w", err)
	}
	c.Normalize()
	return &c, nil
}

// List returns campaigns matching filter with total count.
func (r *CampaignRepository) List(ctx context.Context, filter models.CampaignFilter) ([]models.Campaign, int, error) {
	where, args := buildCampaignConditions(filter)

	orderBy, ok := campaignSorts[filter.Sort]
	if !ok {
		orderBy = campaignSorts[models.SortNewest]
	}
	page, pageSize := normalizePage(filter.Page, filter.PageSize)

	listQuery := fmt.Sprintf("%s%s%s ORDER BY %s LIMIT %d OFFSET %d", campaignSelect, campaignFrom, where, orderBy, pageSize, (page-1)*pageSize)
	var campaigns []models.Campaign
	if err := r.db.SelectContext(ctx, &campaigns, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list campaigns: %w", err)
	}
	for i := range campaigns {
		campaigns[i].Normalize()
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*)"+campaignFrom+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count campaigns: %w", err)
	}
	return campaigns, total, nil
}

func buildCampaignConditions(filter models.CampaignFilter) (string, []interface{}) {
	var conditions []string
	var args []interface{}
	add := func(expr string, arg interface{}) {
		args = append(args, arg)
		conditions = append(conditions, strings.ReplaceAll(expr, "?", fmt.Sprintf("$%d", len(args))))
	}

	if filter.PublicOnly {
		conditions = append(conditions, fmt.Sprintf("c.status = '%s' AND c.overall_status = '%s'", models.CampaignActive, models.VerificationVerified))
	}
	if filter.Status != nil {
		add("c.status = ?", *filter.Status)
	}
	if filter.VerificationStatus != nil {
		add("c.overall_status = ?", *filter.VerificationStatus)
	}
	if filter.Category != nil {
		add("c.category = ?", *filter.Category)
	}
	if filter.OwnerID != "" {
		add("c.owner_id = ?", filter.OwnerID)
	}
	if filter.Search != "" {
		add("(c.title ILIKE ? OR c.description ILIKE ? OR c.institution_name ILIKE ?)", "%"+filter.Search+"%")
	}
	if filter.School != "" {
		add("(c.institution_name ILIKE ? OR sp.school_name ILIKE ?)", "%"+filter.School+"%")
	}
	if filter.MinAmount != nil {
		add("c.target_amount >= ?", *filter.MinAmount)
	}
	if filter.MaxAmount != nil {
		add("c.target_amount <= ?", *filter.MaxAmount)
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// Update writes owner-editable fields guarded by the version column.
func (r *CampaignRepository) Update(ctx context.Context, c *models.Campaign) error {
	c.UpdatedAt = time.Now().UTC()
	c.Normalize()
	const query = `UPDATE campaigns SET title = :title, description = :description, target_amount = :target_amount, category = :category, deadline = :deadline, total_fees = :total_fees, amount_paid = :amount_paid, outstanding_balance = :outstanding_balance, payment_instructions = :payment_instructions, version = version + 1, updated_at = :updated_at WHERE id = :id AND version = :version`
	res, err := r.db.NamedExecContext(ctx, query, c)
	if err != nil {
		return fmt.Errorf("update campaign: %w", err)
	}
	if err := requireAffected(res); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrVersionConflict
		}
		return err
	}
	c.Version++
	return nil
}

// ApplyModeration writes the verification and lifecycle state of c, appends entry to the history
// and records evt, all in one transaction. c.Version must hold the version the caller read.
func (r *CampaignRepository) ApplyModeration(ctx context.Context, c *models.Campaign, entry *models.VerificationHistoryEntry, evt *models.OutboxEvent) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin campaign moderation: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	c.UpdatedAt = time.Now().UTC()
	const update = `UPDATE campaigns SET status = :status, student_verified = :student_verified, documents_verified = :documents_verified, institution_verified = :institution_verified, financials_verified = :financials_verified, overall_status = :overall_status, verification_notes = :verification_notes, verified_at = :verified_at, verified_by = :verified_by, version = version + 1, updated_at = :updated_at WHERE id = :id AND version = :version`
	res, err := tx.NamedExecContext(ctx, update, c)
	if err != nil {
		return fmt.Errorf("update campaign verification: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		err = ErrVersionConflict
		return err
	}

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	const history = `INSERT INTO campaign_verification_history (id, campaign_id, action, admin_id, notes, overall_status, campaign_status, student_verified, documents_verified, institution_verified, financials_verified, created_at) VALUES (:id, :campaign_id, :action, :admin_id, :notes, :overall_status, :campaign_status, :student_verified, :documents_verified, :institution_verified, :financials_verified, :created_at)`
	if _, err = tx.NamedExecContext(ctx, history, entry); err != nil {
		return fmt.Errorf("append verification history: %w", err)
	}
	if err = insertOutbox(ctx, tx, evt); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit campaign moderation: %w", err)
	}
	c.Version++
	return nil
}

// History returns the moderation history of a campaign, oldest first.
func (r *CampaignRepository) History(ctx context.Context, campaignID string) ([]models.VerificationHistoryEntry, error) {
	const query = `SELECT id, campaign_id, action, admin_id, notes, overall_status, campaign_status, student_verified, documents_verified, institution_verified, financials_verified, created_at FROM campaign_verification_history WHERE campaign_id = $1 ORDER BY created_at ASC`
	var entries []models.VerificationHistoryEntry
	if err := r.db.SelectContext(ctx, &entries, query, campaignID); err != nil {
		return nil, fmt.Errorf("list verification history: %w", err)
	}
	return entries, nil
}

// CreateUpdate stores an owner progress post.
func (r *CampaignRepository) CreateUpdate(ctx context.Context, u *models.CampaignUpdate) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO campaign_updates (id, campaign_id, author_id, title, content, created_at) VALUES (:id, :campaign_id, :author_id, :title, :content, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, u); err != nil {
		return fmt.Errorf("create campaign update: %w", err)
	}
	return nil
}

// ListUpdates returns progress posts newest first.
func (r *CampaignRepository) ListUpdates(ctx context.Context, campaignID string) ([]models.CampaignUpdate, error) {
	const query = `SELECT id, campaign_id, author_id, title, content, created_at FROM campaign_updates WHERE campaign_id = $1 ORDER BY created_at DESC`
	var updates []models.CampaignUpdate
	if err := r.db.SelectContext(ctx, &updates, query, campaignID); err != nil {
		return nil, fmt.Errorf("list campaign updates: %w", err)
	}
	return updates, nil
}

// ReviewQueue returns campaigns awaiting moderation, oldest first.
func (r *CampaignRepository) ReviewQueue(ctx context.Context, limit int) ([]models.Campaign, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	query := fmt.Sprintf("%s%s WHERE c.status = $1 ORDER BY c.created_at ASC LIMIT %d", campaignSelect, campaignFrom, limit)
	var campaigns []models.Campaign
	if err := r.db.SelectContext(ctx, &campaigns, query, models.CampaignUnderReview); err != nil {
		return nil, fmt.Errorf("list review queue: %w", err)
	}
	for i := range campaigns {
		campaigns[i].Normalize()
	}
	return campaigns, nil
}
