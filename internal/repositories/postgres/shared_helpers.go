package postgres

import (
	"strings"

	"gorm.io/gorm"

	"github.com/panjiggm/syntegra-app-sub008/internal/models"
	"github.com/panjiggm/syntegra-app-sub008/internal/repositories"
)

// SharedHelpers contains query-building operations used by several
// repositories.
type SharedHelpers struct {
	db *gorm.DB
}

func NewSharedHelpers(db *gorm.DB) *SharedHelpers {
	return &SharedHelpers{db: db}
}

// ApplyUserFilters applies common filters to user queries.
func (h *SharedHelpers) ApplyUserFilters(query *gorm.DB, filters repositories.UserFilters) *gorm.DB {
	if filters.Search != "" {
		pattern := "%" + strings.ToLower(filters.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR LOWER(nik) LIKE ?", pattern, pattern, pattern)
	}
	if filters.Role != nil {
		query = query.Where("role = ?", *filters.Role)
	}
	if filters.ProvinceCode != nil {
		query = query.Where("province_code = ?", *filters.ProvinceCode)
	}
	if len(filters.UserIDs) > 0 {
		query = query.Where("id IN ?", filters.UserIDs)
	}
	if filters.HasReports != nil {
		exists := "EXISTS (SELECT 1 FROM test_attempts ta WHERE ta.user_id = users.id AND ta.status = ?)"
		if *filters.HasReports {
			query = query.Where(exists, models.AttemptCompleted)
		} else {
			query = query.Where("NOT "+exists, models.AttemptCompleted)
		}
	}
	return query
}

// ApplyAttemptFilters applies common filters to attempt queries.
func (h *SharedHelpers) ApplyAttemptFilters(query *gorm.DB, filters repositories.AttemptFilters) *gorm.DB {
	if len(filters.UserIDs) > 0 {
		query = query.Where("user_id IN ?", filters.UserIDs)
	}
	if filters.TestID != nil {
		query = query.Where("test_id = ?", *filters.TestID)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.DateFrom != nil {
		query = query.Where("start_time >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("start_time <= ?", *filters.DateTo)
	}
	return query
}

// ApplyPaginationAndSort applies pagination and sorting with a column
// whitelist so sort input can never reach SQL unchecked.
func (h *SharedHelpers) ApplyPaginationAndSort(query *gorm.DB, sortBy, sortOrder string, limit, offset int) *gorm.DB {
	allowedSortColumns := map[string]bool{
		"created_at":   true,
		"updated_at":   true,
		"name":         true,
		"email":        true,
		"start_time":   true,
		"session_name": true,
	}

	if !allowedSortColumns[sortBy] {
		sortBy = "created_at"
	}
	if sortOrder != "asc" && sortOrder != "desc" {
		sortOrder = "desc"
	}
	query = query.Order(sortBy + " " + sortOrder)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	return query
}
