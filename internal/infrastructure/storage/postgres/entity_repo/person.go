package entity_repo

import (
	"context"
	"strings"

	"github.com/Masterminds/squirrel"

	"bibliolab/internal/domain/people/person"
	"bibliolab/internal/infrastructure/storage/postgres"
)

// PersonRepo implements person.Repository.
type PersonRepo struct {
	*BaseRepo[*person.Person]
}

var _ person.Repository = (*PersonRepo)(nil)

// NewPersonRepo creates a new person repository.
func NewPersonRepo(txManager *postgres.TxManager) *PersonRepo {
	return &PersonRepo{
		BaseRepo: NewBaseRepo(txManager, Config[*person.Person]{
			Table:        "ppl_persons",
			EntityName:   "person",
			Searchable:   []string{"first_name", "last_name", "email"},
			Filterable:   []string{"gender", "birth_date", "email", "created_by"},
			Sortable:     []string{"last_name", "first_name", "birth_date"},
			DefaultOrder: "last_name,first_name",
			New:          func() *person.Person { return &person.Person{} },
		}),
	}
}

// FindByEmail returns the record using email in any view.
func (r *PersonRepo) FindByEmail(ctx context.Context, email string) (*person.Person, error) {
	return r.FindOne(ctx, r.emailQuery(email), email)
}

func (r *PersonRepo) emailQuery(email string) squirrel.SelectBuilder {
	return r.SelectBuilder().
		Where(squirrel.Expr("lower(email) = ?", strings.ToLower(strings.TrimSpace(email)))).
		Limit(1)
}
