package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/edufund-api/internal/models"
)

const maxReportRows = 10000

// ReportRepository reads the rows behind admin exports.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository constructs the repository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

func reportConditions(column, statusColumn string, filter models.ReportFilter) (string, []interface{}) {
	var conditions []string
	var args []interface{}
	if filter.From != nil {
		args = append(args, *filter.From)
		conditions = append(conditions, fmt.Sprintf("%s >= $%d", column, len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		conditions = append(conditions, fmt.Sprintf("%s < $%d", column, len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("%s = $%d", statusColumn, len(args)))
	}
	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// CampaignRows returns campaign export rows, newest first.
func (r *ReportRepository) CampaignRows(ctx context.Context, filter models.ReportFilter) ([]models.CampaignReportRow, error) {
	where, args := reportConditions("c.created_at", "c.status", filter)
	query := fmt.Sprintf(`SELECT c.id, c.title, u.name AS owner_name, c.category, c.status, c.overall_status, c.target_amount, c.current_amount, c.deadline, c.created_at FROM campaigns c JOIN users u ON u.id = c.owner_id%s ORDER BY c.created_at DESC LIMIT %d`, where, maxReportRows)
	var rows []models.CampaignReportRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("campaign report rows: %w", err)
	}
	return rows, nil
}

// DonationRows returns donation export rows, newest first.
func (r *ReportRepository) DonationRows(ctx context.Context, filter models.ReportFilter) ([]models.DonationReportRow, error) {
	where, args := reportConditions("d.created_at", "d.status", filter)
	query := fmt.Sprintf(`SELECT d.id, c.title AS campaign_title, u.name AS donor_name, d.is_anonymous, d.amount, d.currency, d.payment_method, d.status, d.created_at FROM donations d JOIN campaigns c ON c.id = d.campaign_id JOIN users u ON u.id = d.donor_id%s ORDER BY d.created_at DESC LIMIT %d`, where, maxReportRows)
	var rows []models.DonationReportRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("donation report rows: %w", err)
	}
	return rows, nil
}
