package persistence

import (
	"strings"

	"github.com/mayavriksh/backend/internal/domain/shared"
	"gorm.io/gorm"
)

const defaultListPageSize = 20

// sortColumns whitelists the columns a listing may be ordered by. Sort input
// comes from query strings and is never interpolated unless listed here.
type sortColumns struct {
	allowed  map[string]bool
	fallback string
}

var purchaseOrderSort = sortColumns{
	fallback: "requested_at",
	allowed: map[string]bool{
		"requested_at": true,
		"total_cost":   true,
		"status":       true,
	},
}

var inventorySort = sortColumns{
	fallback: "updated_at",
	allowed: map[string]bool{
		"updated_at":        true,
		"current_stock":     true,
		"true_cost_price":   true,
		"last_restocked_at": true,
	},
}

// orderBy renders the ORDER BY clause for f. Unknown columns fall back to the
// default and the direction defaults to DESC; id breaks ties so pages do not
// overlap.
func (s sortColumns) orderBy(f shared.Filter) string {
	column := strings.TrimSpace(f.OrderBy)
	if !s.allowed[column] {
		column = s.fallback
	}
	direction := "DESC"
	if strings.EqualFold(strings.TrimSpace(f.OrderDir), "asc") {
		direction = "ASC"
	}
	return column + " " + direction + ", id"
}

// paginate is a gorm scope applying the order and page window of f.
func paginate(f shared.Filter, sort sortColumns) func(*gorm.DB) *gorm.DB {
	page, size := f.Page, f.PageSize
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = defaultListPageSize
	}
	return func(db *gorm.DB) *gorm.DB {
		return db.Order(sort.orderBy(f)).Offset((page - 1) * size).Limit(size)
	}
}
