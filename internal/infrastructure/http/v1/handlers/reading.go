package handlers

import (
	"github.com/gin-gonic/gin"

	"bibliolab/internal/domain/analysis"
	"bibliolab/internal/domain/reading"
	"bibliolab/internal/infrastructure/http/v1/dto"
)

// ProfileHandler serves reading profiles.
type ProfileHandler struct {
	*BaseHandler
	service *reading.Service
}

// NewProfileHandler creates a new profile handler.
func NewProfileHandler(base *BaseHandler, service *reading.Service) *ProfileHandler {
	return &ProfileHandler{BaseHandler: base, service: service}
}

// Get handles GET /profiles/:user_id
func (h *ProfileHandler) Get(c *gin.Context) {
	h.Accessed(c, "profile.retrieve")

	userID, ok := h.ParseID(c, "user_id")
	if !ok {
		return
	}
	overview, err := h.service.Get(c.Request.Context(), userID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewProfileResponse(overview))
}

// SetFavoriteGenres handles PUT /profiles/:user_id/favorite-genres
func (h *ProfileHandler) SetFavoriteGenres(c *gin.Context) {
	h.Accessed(c, "profile.favorite_genres")

	userID, ok := h.ParseID(c, "user_id")
	if !ok {
		return
	}
	var req dto.FavoriteGenresRequest
	if !h.BindJSON(c, &req) {
		return
	}
	genreIDs, err := dto.ParseIDs("genres", req.Genres)
	if err != nil {
		h.Error(c, err)
		return
	}

	overview, err := h.service.SetFavoriteGenres(c.Request.Context(), userID, genreIDs)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewProfileResponse(overview))
}

// AddHistory handles POST /profiles/:user_id/reading-history
func (h *ProfileHandler) AddHistory(c *gin.Context) {
	h.Accessed(c, "profile.reading_history")
	ctx := c.Request.Context()

	userID, ok := h.ParseID(c, "user_id")
	if !ok {
		return
	}
	var req dto.HistoryEntryRequest
	if !h.BindJSON(c, &req) {
		return
	}
	entry, err := req.ToEntity()
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.AddHistory(ctx, userID, entry); err != nil {
		h.Error(c, err)
		return
	}
	overview, err := h.service.Get(ctx, userID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.NewProfileResponse(overview))
}

// Recommendations handles GET /profiles/:user_id/recommendations
func (h *ProfileHandler) Recommendations(c *gin.Context) {
	h.Accessed(c, "profile.recommendations")

	userID, ok := h.ParseID(c, "user_id")
	if !ok {
		return
	}
	recs, err := h.service.Recommendations(c.Request.Context(), userID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"items": dto.NewRecommendationResponses(recs), "count": len(recs)})
}

// Recommend handles POST /profiles/:user_id/recommendations (admin)
func (h *ProfileHandler) Recommend(c *gin.Context) {
	h.Accessed(c, "profile.recommend")

	userID, ok := h.ParseID(c, "user_id")
	if !ok {
		return
	}
	var req dto.RecommendationRequest
	if !h.BindJSON(c, &req) {
		return
	}
	bookID, err := dto.ParseID("book_id", req.BookID)
	if err != nil {
		h.Error(c, err)
		return
	}

	rec, err := h.service.Recommend(c.Request.Context(), userID, bookID, req.Score)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.NewRecommendationResponses([]*reading.Recommendation{rec})[0])
}

// --- Complex analysis ---

// AnalysisHandler serves the catalog-wide summary.
type AnalysisHandler struct {
	*BaseHandler
	service *analysis.Service
}

// NewAnalysisHandler creates a new analysis handler.
func NewAnalysisHandler(base *BaseHandler, service *analysis.Service) *AnalysisHandler {
	return &AnalysisHandler{BaseHandler: base, service: service}
}

// Run handles GET /complex-analysis
func (h *AnalysisHandler) Run(c *gin.Context) {
	h.Accessed(c, "complex_analysis")

	result, err := h.service.Run(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewAnalysisResponse(result, h.RenderContext()))
}
