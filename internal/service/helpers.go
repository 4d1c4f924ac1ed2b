package service

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/noah-isme/edufund-api/internal/models"
	appErrors "github.com/noah-isme/edufund-api/pkg/errors"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func pageBounds(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > maxPageSize {
		pageSize = defaultPageSize
	}
	return page, pageSize
}

func paginate(page, pageSize, total int) *models.Pagination {
	page, pageSize = pageBounds(page, pageSize)
	return models.NewPagination(page, pageSize, total)
}

// parseDate accepts RFC 3339 timestamps and plain YYYY-MM-DD dates.
func parseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), true
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t.UTC(), true
	}
	return time.Time{}, false
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func translateCampaignLookup(err error) error {
	if isNoRows(err) {
		return appErrors.Clone(appErrors.ErrNotFound, "campaign not found")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load campaign")
}
