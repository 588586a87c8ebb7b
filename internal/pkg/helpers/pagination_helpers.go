package helpers

import (
	"math"

	"github.com/yigit/admissions/internal/app/models/dto"
)

// NewPaginationInfo creates a standard PaginationInfo DTO.
// page is 1-based; an empty result still reports one page.
func NewPaginationInfo(totalItems int64, page, size int) dto.PaginationInfo {
	if page < 1 {
		page = 1
	}

	totalPages := 1
	if totalItems > 0 && size > 0 {
		totalPages = int(math.Ceil(float64(totalItems) / float64(size)))
	}

	return dto.PaginationInfo{
		CurrentPage: page,
		TotalPages:  totalPages,
		PageSize:    size,
		TotalItems:  totalItems,
	}
}
