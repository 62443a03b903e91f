// Package study provides study groups scheduled over a date range.
package study

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"bibliolab/internal/core/apperror"
	"bibliolab/internal/core/entity"
	"bibliolab/internal/core/id"
	"bibliolab/internal/core/types"
)

// Duration bounds in days.
const (
	MinDurationDays = 7
	MaxDurationDays = 365
	MaxTitleLength  = 100
)

// Study is a study group owned by the user that created it.
type Study struct {
	entity.BaseEntity

	Title       string    `db:"title"`
	Description string    `db:"description"`
	StartDate   time.Time `db:"start_date"`
	EndDate     time.Time `db:"end_date"`
	OwnerUserID id.ID     `db:"owner_id"`

	// Joined from auth_users; never written.
	Owner string `db:"owner" persist:"-"`
}

// OwnerID implements entity.HasLifecycle.
func (s *Study) OwnerID() id.ID {
	return s.OwnerUserID
}

// AssignOwner implements entity.Ownable.
func (s *Study) AssignOwner(userID id.ID) {
	if id.IsNil(s.OwnerUserID) {
		s.OwnerUserID = userID
	}
}

// Validate implements entity.Validatable.
func (s *Study) Validate(_ context.Context) error {
	if strings.TrimSpace(s.Title) == "" {
		return apperror.NewFieldValidation("title", "title is required")
	}
	if utf8.RuneCountInString(s.Title) > MaxTitleLength {
		return apperror.NewFieldValidation("title", "title must be at most 100 characters")
	}
	if s.StartDate.IsZero() || s.EndDate.IsZero() {
		return apperror.NewValidation("start_date and end_date are required")
	}
	if !types.DateOf(s.EndDate).After(types.DateOf(s.StartDate)) {
		return apperror.NewFieldValidation("end_date", "End date must be after start date.")
	}
	if d := s.DurationDays(); d < MinDurationDays || d > MaxDurationDays {
		return apperror.NewFieldValidation("end_date", "Study duration must be between 1 week and 1 year.")
	}
	return s.CheckInvariant()
}

// ValidateStartNotPast rejects a start date before today.
func (s *Study) ValidateStartNotPast(today time.Time) error {
	if types.DateOf(s.StartDate).Before(types.DateOf(today)) {
		return apperror.NewFieldValidation("start_date",
			fmt.Sprintf("%s is in the past. Start date must be in the future or today.", types.FormatDate(s.StartDate)))
	}
	return nil
}

// DurationDays is the number of days between start and end.
func (s *Study) DurationDays() int {
	return types.DaysBetween(s.StartDate, s.EndDate)
}

// IsActive reports whether today falls within the study dates, inclusive.
func (s *Study) IsActive(today time.Time) bool {
	d := types.DateOf(today)
	return !d.Before(types.DateOf(s.StartDate)) && !d.After(types.DateOf(s.EndDate))
}

// ProgressPercentage is 0 before the start, 100 after the end and the
// floored share of elapsed days otherwise.
func (s *Study) ProgressPercentage(today time.Time) int {
	d := types.DateOf(today)
	switch {
	case d.Before(types.DateOf(s.StartDate)):
		return 0
	case d.After(types.DateOf(s.EndDate)):
		return 100
	}
	total := s.DurationDays()
	if total <= 0 {
		return 100
	}
	passed := types.DaysBetween(s.StartDate, d)
	return min(100, passed*100/total)
}
