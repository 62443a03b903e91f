package entity_repo

import (
	"bibliolab/internal/domain/lab/experiment"
	"bibliolab/internal/infrastructure/storage/postgres"
)

const experimentSource = `SELECT e.*, COALESCE(u.username, '') AS researcher
FROM lab_experiments e
LEFT JOIN auth_users u ON u.id = e.researcher_id`

// ExperimentRepo implements experiment.Repository.
type ExperimentRepo struct {
	*BaseRepo[*experiment.Experiment]
}

var _ experiment.Repository = (*ExperimentRepo)(nil)

// NewExperimentRepo creates a new experiment repository.
func NewExperimentRepo(txManager *postgres.TxManager) *ExperimentRepo {
	return &ExperimentRepo{
		BaseRepo: NewBaseRepo(txManager, Config[*experiment.Experiment]{
			Table:        "lab_experiments",
			Source:       experimentSource,
			EntityName:   "experiment",
			Searchable:   []string{"name", "description"},
			Filterable:   []string{"status", "start_date", "end_date", "researcher_id"},
			Sortable:     []string{"start_date", "end_date"},
			DefaultOrder: "-start_date",
			New:          func() *experiment.Experiment { return &experiment.Experiment{} },
		}),
	}
}
