package dto

import (
	"strings"
	"time"

	"bibliolab/internal/core/entity"
	"bibliolab/internal/core/types"
	"bibliolab/internal/domain/lab/experiment"
	"bibliolab/internal/domain/people/person"
	"bibliolab/internal/domain/study"
)

// --- Experiments ---

// ExperimentFields is the field table of experiments.
var ExperimentFields = WithLifecycle(Fields[*experiment.Experiment]{
	"name":           func(e *experiment.Experiment, _ RenderContext) any { return e.Name },
	"description":    func(e *experiment.Experiment, _ RenderContext) any { return e.Description },
	"start_date":     func(e *experiment.Experiment, _ RenderContext) any { return e.StartDate },
	"end_date":       func(e *experiment.Experiment, _ RenderContext) any { return e.EndDate },
	"status":         func(e *experiment.Experiment, _ RenderContext) any { return e.Status },
	"researcher_id":  func(e *experiment.Experiment, _ RenderContext) any { return optionalID(e.ResearcherID) },
	"researcher":     func(e *experiment.Experiment, _ RenderContext) any { return e.Researcher },
	"is_active":      func(e *experiment.Experiment, _ RenderContext) any { return e.IsActive() },
	"duration":       func(e *experiment.Experiment, _ RenderContext) any { return e.DurationHours() },
	"time_remaining": func(e *experiment.Experiment, rc RenderContext) any { return e.TimeRemainingHours(rc.Now) },
})

// CreateExperimentRequest is the body of POST /experiments.
type CreateExperimentRequest struct {
	Name        string    `json:"name" binding:"required,max=100"`
	Description string    `json:"description"`
	StartDate   time.Time `json:"start_date" binding:"required"`
	EndDate     time.Time `json:"end_date" binding:"required"`
	Status      string    `json:"status" binding:"omitempty,oneof=PLANNED IN_PROGRESS COMPLETED CANCELLED"`
}

// ToEntity converts the request to a new experiment.
func (r *CreateExperimentRequest) ToEntity(now time.Time) *experiment.Experiment {
	return &experiment.Experiment{
		BaseEntity:  entity.NewBaseEntity(now),
		Name:        strings.TrimSpace(r.Name),
		Description: r.Description,
		StartDate:   r.StartDate.UTC(),
		EndDate:     r.EndDate.UTC(),
		Status:      experiment.Status(r.Status),
	}
}

// UpdateExperimentRequest is the body of PATCH and PUT /experiments/:id.
type UpdateExperimentRequest struct {
	Name        *string    `json:"name" binding:"omitempty,max=100"`
	Description *string    `json:"description"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	Status      *string    `json:"status" binding:"omitempty,oneof=PLANNED IN_PROGRESS COMPLETED CANCELLED"`
}

// ToPatch converts the request to a domain patch.
func (r *UpdateExperimentRequest) ToPatch() experiment.Patch {
	p := experiment.Patch{
		Name:        r.Name,
		Description: r.Description,
		StartDate:   r.StartDate,
		EndDate:     r.EndDate,
	}
	if r.Status != nil {
		s := experiment.Status(*r.Status)
		p.Status = &s
	}
	return p
}

// --- People ---

// PersonFields is the field table of people.
var PersonFields = WithLifecycle(Fields[*person.Person]{
	"first_name":  func(p *person.Person, _ RenderContext) any { return p.FirstName },
	"last_name":   func(p *person.Person, _ RenderContext) any { return p.LastName },
	"email":       func(p *person.Person, _ RenderContext) any { return p.Email },
	"birth_date":  func(p *person.Person, _ RenderContext) any { return types.FormatDate(p.BirthDate) },
	"gender":      func(p *person.Person, _ RenderContext) any { return p.Gender },
	"created_by":  func(p *person.Person, _ RenderContext) any { return optionalID(p.CreatedBy) },
	"full_name":   func(p *person.Person, _ RenderContext) any { return p.FullName() },
	"age":         func(p *person.Person, rc RenderContext) any { return p.Age(rc.Now) },
	"is_adult":    func(p *person.Person, rc RenderContext) any { return p.IsAdult(rc.Now) },
	"zodiac_sign": func(p *person.Person, _ RenderContext) any { return p.ZodiacSign() },
})

// PersonRequest is the body of POST /people.
type PersonRequest struct {
	FirstName string `json:"first_name" binding:"required,max=50,personname"`
	LastName  string `json:"last_name" binding:"required,max=50,personname"`
	Email     string `json:"email" binding:"required,email"`
	BirthDate string `json:"birth_date" binding:"required"`
	Gender    string `json:"gender" binding:"required,oneof=MALE FEMALE OTHER"`
}

// ToEntity converts the request to a new person.
func (r *PersonRequest) ToEntity(now time.Time) (*person.Person, error) {
	born, err := parseDateField("birth_date", r.BirthDate)
	if err != nil {
		return nil, err
	}
	return &person.Person{
		BaseEntity: entity.NewBaseEntity(now),
		FirstName:  strings.TrimSpace(r.FirstName),
		LastName:   strings.TrimSpace(r.LastName),
		Email:      strings.ToLower(strings.TrimSpace(r.Email)),
		BirthDate:  born,
		Gender:     person.Gender(r.Gender),
	}, nil
}

// UpdatePersonRequest is the body of PATCH and PUT /people/:id.
type UpdatePersonRequest struct {
	FirstName *string `json:"first_name" binding:"omitempty,max=50,personname"`
	LastName  *string `json:"last_name" binding:"omitempty,max=50,personname"`
	Email     *string `json:"email" binding:"omitempty,email"`
	BirthDate *string `json:"birth_date"`
	Gender    *string `json:"gender" binding:"omitempty,oneof=MALE FEMALE OTHER"`
}

// ApplyTo writes the present fields onto p.
func (r *UpdatePersonRequest) ApplyTo(p *person.Person) error {
	if r.FirstName != nil {
		p.FirstName = strings.TrimSpace(*r.FirstName)
	}
	if r.LastName != nil {
		p.LastName = strings.TrimSpace(*r.LastName)
	}
	if r.Email != nil {
		p.Email = strings.ToLower(strings.TrimSpace(*r.Email))
	}
	if r.BirthDate != nil {
		born, err := parseDateField("birth_date", *r.BirthDate)
		if err != nil {
			return err
		}
		p.BirthDate = born
	}
	if r.Gender != nil {
		p.Gender = person.Gender(*r.Gender)
	}
	return nil
}

// --- Studies ---

// StudyFields is the field table of studies.
var StudyFields = WithLifecycle(Fields[*study.Study]{
	"title":               func(s *study.Study, _ RenderContext) any { return s.Title },
	"description":         func(s *study.Study, _ RenderContext) any { return s.Description },
	"start_date":          func(s *study.Study, _ RenderContext) any { return types.FormatDate(s.StartDate) },
	"end_date":            func(s *study.Study, _ RenderContext) any { return types.FormatDate(s.EndDate) },
	"owner_id":            func(s *study.Study, _ RenderContext) any { return optionalID(s.OwnerUserID) },
	"owner":               func(s *study.Study, _ RenderContext) any { return s.Owner },
	"is_active":           func(s *study.Study, rc RenderContext) any { return s.IsActive(rc.Now) },
	"duration":            func(s *study.Study, _ RenderContext) any { return s.DurationDays() },
	"progress_percentage": func(s *study.Study, rc RenderContext) any { return s.ProgressPercentage(rc.Now) },
})

// CreateStudyRequest is the body of POST /studies.
type CreateStudyRequest struct {
	Title       string `json:"title" binding:"required,max=100"`
	Description string `json:"description"`
	StartDate   string `json:"start_date" binding:"required"`
	EndDate     string `json:"end_date" binding:"required"`
}

// ToEntity converts the request to a new study.
func (r *CreateStudyRequest) ToEntity(now time.Time) (*study.Study, error) {
	start, err := parseDateField("start_date", r.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := parseDateField("end_date", r.EndDate)
	if err != nil {
		return nil, err
	}
	return &study.Study{
		BaseEntity:  entity.NewBaseEntity(now),
		Title:       strings.TrimSpace(r.Title),
		Description: r.Description,
		StartDate:   start,
		EndDate:     end,
	}, nil
}

// UpdateStudyRequest is the body of PATCH and PUT /studies/:id.
type UpdateStudyRequest struct {
	Title       *string `json:"title" binding:"omitempty,max=100"`
	Description *string `json:"description"`
	StartDate   *string `json:"start_date"`
	EndDate     *string `json:"end_date"`
}

// ToPatch converts the request to a domain patch.
func (r *UpdateStudyRequest) ToPatch() (study.Patch, error) {
	p := study.Patch{Title: r.Title, Description: r.Description}
	if r.StartDate != nil {
		start, err := parseDateField("start_date", *r.StartDate)
		if err != nil {
			return p, err
		}
		p.StartDate = &start
	}
	if r.EndDate != nil {
		end, err := parseDateField("end_date", *r.EndDate)
		if err != nil {
			return p, err
		}
		p.EndDate = &end
	}
	return p, nil
}
