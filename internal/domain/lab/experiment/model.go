// Package experiment provides lab experiments and their status workflow.
package experiment

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"bibliolab/internal/core/apperror"
	"bibliolab/internal/core/entity"
	"bibliolab/internal/core/id"
)

// Duration bounds.
const (
	MinDuration   = time.Hour
	MaxDuration   = 7 * 24 * time.Hour
	MaxNameLength = 100
)

// Status is the workflow state of an experiment.
type Status string

const (
	StatusPlanned    Status = "PLANNED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
)

// transitions lists the allowed next states; terminal states have none.
var transitions = map[Status][]Status{
	StatusPlanned:    {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled},
	StatusCompleted:  nil,
	StatusCancelled:  nil,
}

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

// IsTerminal reports whether no transition leaves s.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransitionTo reports whether next is reachable from s in one step.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Experiment is a time-boxed lab run owned by its researcher.
type Experiment struct {
	entity.BaseEntity

	Name         string    `db:"name"`
	Description  string    `db:"description"`
	StartDate    time.Time `db:"start_date"`
	EndDate      time.Time `db:"end_date"`
	Status       Status    `db:"status"`
	ResearcherID id.ID     `db:"researcher_id"`

	// Joined from auth_users; never written.
	Researcher string `db:"researcher" persist:"-"`
}

// OwnerID implements entity.HasLifecycle.
func (e *Experiment) OwnerID() id.ID {
	return e.ResearcherID
}

// AssignOwner implements entity.Ownable; the creating user becomes the researcher.
func (e *Experiment) AssignOwner(userID id.ID) {
	if id.IsNil(e.ResearcherID) {
		e.ResearcherID = userID
	}
}

// Validate implements entity.Validatable.
func (e *Experiment) Validate(_ context.Context) error {
	if strings.TrimSpace(e.Name) == "" {
		return apperror.NewFieldValidation("name", "name is required")
	}
	if utf8.RuneCountInString(e.Name) > MaxNameLength {
		return apperror.NewFieldValidation("name", "name must be at most 100 characters")
	}
	if !e.Status.IsValid() {
		return apperror.NewFieldValidation("status", fmt.Sprintf("%q is not a valid status", e.Status))
	}
	if d := e.EndDate.Sub(e.StartDate); d < MinDuration || d > MaxDuration {
		return apperror.NewValidation("Experiment duration must be between 1 hour and 1 week.").
			WithDetail("field", "end_date")
	}
	return e.CheckInvariant()
}

// TransitionTo moves the experiment to next. Keeping the current status is not a transition.
func (e *Experiment) TransitionTo(next Status) error {
	if next == e.Status {
		return nil
	}
	if !next.IsValid() {
		return apperror.NewFieldValidation("status", fmt.Sprintf("%q is not a valid status", next))
	}
	if !e.Status.CanTransitionTo(next) {
		return apperror.NewFieldValidation("status",
			fmt.Sprintf("Invalid status transition from %s to %s.", e.Status, next)).
			WithDetail("from", string(e.Status)).
			WithDetail("to", string(next))
	}
	e.Status = next
	return nil
}

// IsActive reports whether the experiment is running.
func (e *Experiment) IsActive() bool {
	return e.Status == StatusInProgress
}

// DurationHours is the planned length in hours.
func (e *Experiment) DurationHours() float64 {
	return e.EndDate.Sub(e.StartDate).Hours()
}

// TimeRemainingHours is the time left until the end date, or 0 once the
// experiment is finished or past its end.
func (e *Experiment) TimeRemainingHours(now time.Time) float64 {
	if e.Status.IsTerminal() || now.After(e.EndDate) {
		return 0
	}
	return e.EndDate.Sub(now).Hours()
}
