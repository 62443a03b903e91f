package experiment

import (
	"bibliolab/internal/domain"
)

// Repository defines persistence for experiments.
//
// List understands the filters "status", "start_date" and "end_date", searches
// name and description, and orders by start_date, end_date, created_at and
// updated_at.
type Repository interface {
	domain.Repository[*Experiment]
}
