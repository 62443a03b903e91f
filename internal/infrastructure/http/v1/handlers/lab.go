package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"bibliolab/internal/core/id"
	"bibliolab/internal/domain/lab/experiment"
	"bibliolab/internal/domain/people/person"
	"bibliolab/internal/domain/study"
	"bibliolab/internal/infrastructure/http/v1/dto"
)

// --- Experiments ---

// ExperimentHandler serves experiments.
type ExperimentHandler struct {
	*LifecycleHandler[*experiment.Experiment, dto.CreateExperimentRequest, dto.UpdateExperimentRequest]
	service *experiment.Service
}

var experimentFilters = QueryFilters{
	OneOf("status", "status",
		string(experiment.StatusPlanned), string(experiment.StatusInProgress),
		string(experiment.StatusCompleted), string(experiment.StatusCancelled)),
	Day("start_date", "start_date"),
	Day("end_date", "end_date"),
}

// NewExperimentHandler creates a new experiment handler.
func NewExperimentHandler(base *BaseHandler, service *experiment.Service) *ExperimentHandler {
	lh := NewLifecycleHandler(base, LifecycleHandlerConfig[*experiment.Experiment, dto.CreateExperimentRequest, dto.UpdateExperimentRequest]{
		Service:    service,
		EntityName: "experiment",
		Fields:     dto.ExperimentFields,
		Filters:    experimentFilters,
		MapCreate: func(req *dto.CreateExperimentRequest, now time.Time) (*experiment.Experiment, error) {
			return req.ToEntity(now), nil
		},
		Update: func(ctx context.Context, experimentID id.ID, req *dto.UpdateExperimentRequest) (*experiment.Experiment, error) {
			return service.Patch(ctx, experimentID, req.ToPatch())
		},
	})
	return &ExperimentHandler{LifecycleHandler: lh, service: service}
}

// ByStatus handles GET /experiments/by-status?status=
func (h *ExperimentHandler) ByStatus(c *gin.Context) {
	h.Accessed(c, "experiment.by_status")

	items, err := h.service.ByStatus(c.Request.Context(), experiment.Status(c.Query("status")))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.RespondItems(c, items)
}

// --- People ---

// PersonHandler serves the person registry.
type PersonHandler struct {
	*LifecycleHandler[*person.Person, dto.PersonRequest, dto.UpdatePersonRequest]
	service *person.Service
}

var personFilters = QueryFilters{
	OneOf("gender", "gender",
		string(person.GenderMale), string(person.GenderFemale), string(person.GenderOther)),
}

// NewPersonHandler creates a new person handler.
func NewPersonHandler(base *BaseHandler, service *person.Service) *PersonHandler {
	lh := NewLifecycleHandler(base, LifecycleHandlerConfig[*person.Person, dto.PersonRequest, dto.UpdatePersonRequest]{
		Service:    service,
		EntityName: "person",
		Fields:     dto.PersonFields,
		Filters:    personFilters,
		MapCreate: func(req *dto.PersonRequest, now time.Time) (*person.Person, error) {
			return req.ToEntity(now)
		},
		Update: func(ctx context.Context, personID id.ID, req *dto.UpdatePersonRequest) (*person.Person, error) {
			return service.Update(ctx, personID, req.ApplyTo)
		},
	})
	return &PersonHandler{LifecycleHandler: lh, service: service}
}

// Adults handles GET /people/adults?min_age=
func (h *PersonHandler) Adults(c *gin.Context) {
	h.Accessed(c, "person.adults")

	minAge, ok := h.QueryInt(c, "min_age", person.AdultAge)
	if !ok {
		return
	}
	items, err := h.service.Adults(c.Request.Context(), minAge)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.RespondItems(c, items)
}

// --- Studies ---

// StudyHandler serves study groups.
type StudyHandler struct {
	*LifecycleHandler[*study.Study, dto.CreateStudyRequest, dto.UpdateStudyRequest]
	service *study.Service
}

var studyFilters = QueryFilters{
	Date("start_date", "start_date"),
	Date("end_date", "end_date"),
}

// NewStudyHandler creates a new study handler.
func NewStudyHandler(base *BaseHandler, service *study.Service) *StudyHandler {
	lh := NewLifecycleHandler(base, LifecycleHandlerConfig[*study.Study, dto.CreateStudyRequest, dto.UpdateStudyRequest]{
		Service:    service,
		EntityName: "study",
		Fields:     dto.StudyFields,
		Filters:    studyFilters,
		MapCreate: func(req *dto.CreateStudyRequest, now time.Time) (*study.Study, error) {
			return req.ToEntity(now)
		},
		Update: func(ctx context.Context, studyID id.ID, req *dto.UpdateStudyRequest) (*study.Study, error) {
			p, err := req.ToPatch()
			if err != nil {
				return nil, err
			}
			return service.Patch(ctx, studyID, p)
		},
	})
	return &StudyHandler{LifecycleHandler: lh, service: service}
}

// Active handles GET /studies/active
func (h *StudyHandler) Active(c *gin.Context) {
	h.Accessed(c, "study.active")

	items, err := h.service.Active(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.RespondItems(c, items)
}

// Ongoing handles GET /studies/ongoing
func (h *StudyHandler) Ongoing(c *gin.Context) {
	h.Accessed(c, "study.ongoing")

	items, err := h.service.Ongoing(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.RespondItems(c, items)
}

// ByDuration handles GET /studies/by-duration?min_duration=&max_duration=
func (h *StudyHandler) ByDuration(c *gin.Context) {
	h.Accessed(c, "study.by_duration")

	if _, ok := h.RequiredQuery(c, "min_duration", "max_duration"); !ok {
		return
	}
	minDays, ok := h.QueryInt(c, "min_duration", 0)
	if !ok {
		return
	}
	maxDays, ok := h.QueryInt(c, "max_duration", 0)
	if !ok {
		return
	}

	items, err := h.service.ByDuration(c.Request.Context(), minDays, maxDays)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.RespondItems(c, items)
}
