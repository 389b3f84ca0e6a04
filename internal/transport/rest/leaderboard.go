package rest

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/ranking-backend/internal/domain"
	"github.com/heartmarshall/ranking-backend/internal/service/ranking"
	"github.com/heartmarshall/ranking-backend/pkg/ctxutil"
)

type rankingReader interface {
	Leaderboard(ctx context.Context, in ranking.LeaderboardInput) ([]domain.LeaderboardEntry, error)
	PeriodLeaders(ctx context.Context, in ranking.PeriodInput) ([]domain.LeaderboardEntry, error)
	TopByField(ctx context.Context, limit *int) ([]domain.FieldBoard, error)
	UserStats(ctx context.Context, userID uuid.UUID) (domain.UserStats, error)
	UpdateHistory(ctx context.Context, in ranking.HistoryInput) ([]domain.RankUpdate, error)
}

// LeaderboardHandler serves the public read API.
type LeaderboardHandler struct {
	svc rankingReader
	log *slog.Logger
}

// NewLeaderboardHandler creates a LeaderboardHandler.
func NewLeaderboardHandler(svc rankingReader, logger *slog.Logger) *LeaderboardHandler {
	return &LeaderboardHandler{svc: svc, log: logger.With("handler", "leaderboard")}
}

type entryResponse struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Field    string `json:"field"`
	Score    int    `json:"score"`
	Rank     int    `json:"rank"`
}

type boardResponse struct {
	Field       string          `json:"field"`
	Count       int             `json:"count"`
	Leaderboard []entryResponse `json:"leaderboards"`
}

type periodResponse struct {
	Period      string          `json:"period"`
	Field       string          `json:"field"`
	Leaderboard []entryResponse `json:"leaderboards"`
}

type fieldStatsResponse struct {
	Score        int `json:"score"`
	WeeklyScore  int `json:"weekly_score"`
	MonthlyScore int `json:"monthly_score"`
	Rank         int `json:"rank"`
	Likes        int `json:"likes"`
	Comments     int `json:"comments"`
	Follows      int `json:"follows"`
}

type statsResponse struct {
	UserID      string                        `json:"user_id"`
	TotalScore  int                           `json:"total_score"`
	AverageRank int                           `json:"average_rank"`
	FieldCount  int                           `json:"field_count"`
	Fields      map[string]fieldStatsResponse `json:"fields"`
}

type updateResponse struct {
	ID           string    `json:"id"`
	Seq          int64     `json:"seq"`
	UserID       string    `json:"user_id"`
	Field        string    `json:"field"`
	PreviousRank *int      `json:"previous_rank"`
	NewRank      *int      `json:"new_rank"`
	ScoreDelta   int       `json:"score_delta"`
	Reason       string    `json:"reason"`
	SourceRef    *string   `json:"source_ref,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Board handles GET /api/leaderboard?field=&limit=.
func (h *LeaderboardHandler) Board(w http.ResponseWriter, r *http.Request) {
	field := queryField(r)
	if field == nil {
		handleError(h.log, w, r, domain.NewValidationError("field", "required"))
		return
	}
	limit, err := queryLimit(r)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	entries, err := h.svc.Leaderboard(r.Context(), ranking.LeaderboardInput{Field: *field, Limit: limit})
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, boardResponse{
		Field:       field.String(),
		Count:       len(entries),
		Leaderboard: toEntryResponses(entries),
	})
}

// Weekly handles GET /api/leaderboard/weekly?field=&limit=.
func (h *LeaderboardHandler) Weekly(w http.ResponseWriter, r *http.Request) {
	h.period(w, r, domain.WindowWeekly)
}

// Monthly handles GET /api/leaderboard/monthly?field=&limit=.
func (h *LeaderboardHandler) Monthly(w http.ResponseWriter, r *http.Request) {
	h.period(w, r, domain.WindowMonthly)
}

func (h *LeaderboardHandler) period(w http.ResponseWriter, r *http.Request, window domain.WindowKind) {
	limit, err := queryLimit(r)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	field := queryField(r)

	entries, err := h.svc.PeriodLeaders(r.Context(), ranking.PeriodInput{Window: window, Field: field, Limit: limit})
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	label := "all"
	if field != nil {
		label = field.String()
	}
	writeJSON(w, http.StatusOK, periodResponse{
		Period:      window.String(),
		Field:       label,
		Leaderboard: toEntryResponses(entries),
	})
}

// Top handles GET /api/leaderboard/top?limit=. The response maps every field
// to the head of its board.
func (h *LeaderboardHandler) Top(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	boards, err := h.svc.TopByField(r.Context(), limit)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	resp := make(map[string][]entryResponse, len(boards))
	for _, b := range boards {
		resp[b.Field.String()] = toEntryResponses(b.Entries)
	}
	writeJSON(w, http.StatusOK, resp)
}

// UserStats handles GET /api/leaderboard/users/{id}/stats.
func (h *LeaderboardHandler) UserStats(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handleError(h.log, w, r, domain.NewValidationError("id", "must be a valid id"))
		return
	}
	h.stats(w, r, userID)
}

// MyStats handles GET /api/leaderboard/me/stats for the authenticated caller.
func (h *LeaderboardHandler) MyStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := ctxutil.UserIDFromCtx(r.Context())
	if !ok {
		handleError(h.log, w, r, domain.ErrUnauthorized)
		return
	}
	h.stats(w, r, userID)
}

func (h *LeaderboardHandler) stats(w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	stats, err := h.svc.UserStats(r.Context(), userID)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	resp := statsResponse{
		UserID:      stats.UserID.String(),
		TotalScore:  stats.TotalScore,
		AverageRank: stats.AverageRank,
		FieldCount:  stats.FieldCount,
		Fields:      make(map[string]fieldStatsResponse, len(stats.Fields)),
	}
	for _, f := range stats.Fields {
		resp.Fields[f.Field.String()] = fieldStatsResponse{
			Score:        f.Score,
			WeeklyScore:  f.WeeklyScore,
			MonthlyScore: f.MonthlyScore,
			Rank:         f.Rank,
			Likes:        f.Likes,
			Comments:     f.Comments,
			Follows:      f.Follows,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// History handles GET /api/leaderboard/history?user_id=&field=&limit=.
// Without filters it returns the most recent updates across all users.
func (h *LeaderboardHandler) History(w http.ResponseWriter, r *http.Request) {
	userID, err := queryUUID(r, "user_id")
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	limit, err := queryLimit(r)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	updates, err := h.svc.UpdateHistory(r.Context(), ranking.HistoryInput{
		UserID: userID,
		Field:  queryField(r),
		Limit:  limit,
	})
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	resp := make([]updateResponse, 0, len(updates))
	for _, u := range updates {
		item := updateResponse{
			ID:           u.ID.String(),
			Seq:          u.Seq,
			UserID:       u.UserID.String(),
			Field:        u.Field.String(),
			PreviousRank: u.PreviousRank,
			NewRank:      u.NewRank,
			ScoreDelta:   u.ScoreDelta,
			Reason:       u.Reason.String(),
			CreatedAt:    u.CreatedAt,
		}
		if u.SourceRef != nil {
			ref := u.SourceRef.String()
			item.SourceRef = &ref
		}
		resp = append(resp, item)
	}
	writeJSON(w, http.StatusOK, resp)
}

func toEntryResponses(entries []domain.LeaderboardEntry) []entryResponse {
	out := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, entryResponse{
			UserID:   e.UserID.String(),
			Username: e.Username,
			Field:    e.Field.String(),
			Score:    e.Score,
			Rank:     e.Rank,
		})
	}
	return out
}
