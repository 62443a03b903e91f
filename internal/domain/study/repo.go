package study

import (
	"bibliolab/internal/domain"
)

// Repository defines persistence for studies.
//
// List understands the filters "start_date", "end_date" and "duration_days",
// searches title and description, and orders by start_date, end_date,
// created_at and updated_at.
type Repository interface {
	domain.Repository[*Study]
}
