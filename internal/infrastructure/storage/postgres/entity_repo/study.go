package entity_repo

import (
	"bibliolab/internal/domain/study"
	"bibliolab/internal/infrastructure/storage/postgres"
)

// studySource exposes duration_days for filtering; it is not scanned.
const studySource = `SELECT s.*,
	COALESCE(u.username, '') AS owner,
	(s.end_date - s.start_date) AS duration_days
FROM std_studies s
LEFT JOIN auth_users u ON u.id = s.owner_id`

// StudyRepo implements study.Repository.
type StudyRepo struct {
	*BaseRepo[*study.Study]
}

var _ study.Repository = (*StudyRepo)(nil)

// NewStudyRepo creates a new study repository.
func NewStudyRepo(txManager *postgres.TxManager) *StudyRepo {
	return &StudyRepo{
		BaseRepo: NewBaseRepo(txManager, Config[*study.Study]{
			Table:        "std_studies",
			Source:       studySource,
			EntityName:   "study",
			Searchable:   []string{"title", "description"},
			Filterable:   []string{"start_date", "end_date", "duration_days", "owner_id"},
			Sortable:     []string{"start_date", "end_date"},
			DefaultOrder: "-start_date",
			New:          func() *study.Study { return &study.Study{} },
		}),
	}
}
