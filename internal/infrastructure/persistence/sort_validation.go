package persistence

import (
	"strings"

	"github.com/freelance/backend/internal/domain/shared"
	"gorm.io/gorm/clause"
)

// orderBy turns the listing window into an ORDER BY column. Fields outside
// allowed fall back to fallback, and anything but "asc" sorts descending.
func orderBy(filter shared.Filter, allowed map[string]bool, fallback string) clause.OrderByColumn {
	field := strings.TrimSpace(filter.OrderBy)
	if !allowed[field] {
		field = fallback
	}
	return clause.OrderByColumn{
		Column: clause.Column{Name: field},
		Desc:   !strings.EqualFold(strings.TrimSpace(filter.OrderDir), "asc"),
	}
}
