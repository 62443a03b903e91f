package dto

import (
	"time"

	"bibliolab/internal/core/types"
	"bibliolab/internal/domain/analysis"
	"bibliolab/internal/domain/reading"
)

// --- Reading profiles ---

// HistoryEntryResponse is one reading history row.
type HistoryEntryResponse struct {
	ID        string `json:"id"`
	BookID    string `json:"book_id"`
	BookTitle string `json:"book_title"`
	DateRead  string `json:"date_read"`
	Rating    int    `json:"rating"`
}

// ProfileResponse is a reading profile with favorite genres and recent history.
type ProfileResponse struct {
	ID             string                 `json:"id"`
	UserID         string                 `json:"user_id"`
	CreatedAt      time.Time              `json:"created_at"`
	FavoriteGenres []GenreResponse        `json:"favorite_genres"`
	ReadingHistory []HistoryEntryResponse `json:"reading_history"`
}

// NewProfileResponse converts an overview.
func NewProfileResponse(o *reading.Overview) ProfileResponse {
	history := make([]HistoryEntryResponse, len(o.RecentHistory))
	for i, h := range o.RecentHistory {
		history[i] = HistoryEntryResponse{
			ID:        h.ID.String(),
			BookID:    h.BookID.String(),
			BookTitle: h.BookTitle,
			DateRead:  types.FormatDate(h.DateRead),
			Rating:    h.Rating,
		}
	}
	return ProfileResponse{
		ID:             o.Profile.ID.String(),
		UserID:         o.Profile.UserID.String(),
		CreatedAt:      o.Profile.CreatedAt,
		FavoriteGenres: NewGenreResponses(o.FavoriteGenres),
		ReadingHistory: history,
	}
}

// FavoriteGenresRequest replaces the favorite genre set.
type FavoriteGenresRequest struct {
	Genres []string `json:"genres" binding:"dive,uuid"`
}

// HistoryEntryRequest is the body of POST /profiles/:user_id/reading-history.
type HistoryEntryRequest struct {
	BookID   string `json:"book_id" binding:"required,uuid"`
	DateRead string `json:"date_read" binding:"required"`
	Rating   int    `json:"rating" binding:"required,min=1,max=5"`
}

// ToEntity converts the request to a history row.
func (r *HistoryEntryRequest) ToEntity() (*reading.HistoryEntry, error) {
	bookID, err := ParseID("book_id", r.BookID)
	if err != nil {
		return nil, err
	}
	read, err := parseDateField("date_read", r.DateRead)
	if err != nil {
		return nil, err
	}
	return &reading.HistoryEntry{BookID: bookID, DateRead: read, Rating: r.Rating}, nil
}

// RecommendationRequest is the body of POST /profiles/:user_id/recommendations.
type RecommendationRequest struct {
	BookID string  `json:"book_id" binding:"required,uuid"`
	Score  float64 `json:"score" binding:"gte=0"`
}

// RecommendationResponse is one scored suggestion.
type RecommendationResponse struct {
	ID        string    `json:"id"`
	BookID    string    `json:"book_id"`
	BookTitle string    `json:"book_title"`
	Score     float64   `json:"score"`
	CreatedAt time.Time `json:"created_at"`
}

// NewRecommendationResponses converts recommendations.
func NewRecommendationResponses(items []*reading.Recommendation) []RecommendationResponse {
	out := make([]RecommendationResponse, len(items))
	for i, r := range items {
		out[i] = RecommendationResponse{
			ID:        r.ID.String(),
			BookID:    r.BookID.String(),
			BookTitle: r.BookTitle,
			Score:     r.Score,
			CreatedAt: r.CreatedAt,
		}
	}
	return out
}

// --- Complex analysis ---

// AnalysisResponse is the body of GET /complex-analysis.
type AnalysisResponse struct {
	AverageRating      *float64         `json:"average_rating"`
	MostProlificAuthor map[string]any   `json:"most_prolific_author"`
	RecentBooks        []map[string]any `json:"recent_books"`
	GenreCounts        map[string]int64 `json:"genre_counts"`
	GeneratedAt        time.Time        `json:"generated_at"`
}

// NewAnalysisResponse renders the aggregate result with the author and book field tables.
func NewAnalysisResponse(r *analysis.Result, rc RenderContext) AnalysisResponse {
	out := AnalysisResponse{
		AverageRating: r.AverageRating,
		RecentBooks:   BookFields.RenderAll(r.RecentBooks, nil, rc),
		GenreCounts:   r.GenreCounts,
		GeneratedAt:   r.GeneratedAt,
	}
	if r.MostProlificAuthor != nil {
		out.MostProlificAuthor = AuthorFields.Render(r.MostProlificAuthor, nil, rc)
	}
	if out.GenreCounts == nil {
		out.GenreCounts = map[string]int64{}
	}
	return out
}
