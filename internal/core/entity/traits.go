package entity

import (
	"bibliolab/internal/core/id"
)

// Owned is a trait for records whose owner is the user that created them.
// Used for composition in models like Author, Book and Person.
type Owned struct {
	CreatedBy id.ID `db:"created_by"`
}

// OwnerID returns the creating user.
func (o *Owned) OwnerID() id.ID {
	return o.CreatedBy
}

// AssignOwner sets the owner once; later calls keep the original owner.
func (o *Owned) AssignOwner(userID id.ID) {
	if id.IsNil(o.CreatedBy) {
		o.CreatedBy = userID
	}
}
