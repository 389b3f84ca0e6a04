package rest

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/heartmarshall/ranking-backend/internal/domain"
	"github.com/heartmarshall/ranking-backend/internal/service/ranking"
)

type rankingMaintainer interface {
	Recompute(ctx context.Context, field domain.Field) (int, error)
	RecomputeAll(ctx context.Context) (map[domain.Field]int, error)
	SweepWindows(ctx context.Context, kind domain.WindowKind) (int, error)
	Adjust(ctx context.Context, in ranking.AdjustInput) (ranking.DeltaResult, error)
}

// AdminHandler serves maintenance endpoints. Routes are mounted behind
// RequireRole(admin).
type AdminHandler struct {
	svc rankingMaintainer
	log *slog.Logger
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(svc rankingMaintainer, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{svc: svc, log: logger.With("handler", "admin")}
}

type adjustRequest struct {
	UserID uuid.UUID `json:"user_id"`
	Field  string    `json:"field"`
	Kind   string    `json:"kind"`
	Sign   int       `json:"sign"`
}

type adjustResponse struct {
	Applied       bool   `json:"applied"`
	UserID        string `json:"user_id"`
	Field         string `json:"field"`
	ScoreDelta    int    `json:"score_delta"`
	PreviousScore int    `json:"previous_score"`
	NewScore      int    `json:"new_score"`
	PreviousRank  int    `json:"previous_rank"`
	NewRank       int    `json:"new_rank"`
}

// Recompute handles POST /admin/leaderboard/recompute[?field=].
func (h *AdminHandler) Recompute(w http.ResponseWriter, r *http.Request) {
	changed := make(map[string]int)

	if field := queryField(r); field != nil {
		if !field.IsValid() {
			handleError(h.log, w, r, domain.NewValidationError("field", "unknown field"))
			return
		}
		n, err := h.svc.Recompute(r.Context(), *field)
		if err != nil {
			handleError(h.log, w, r, err)
			return
		}
		changed[field.String()] = n
	} else {
		all, err := h.svc.RecomputeAll(r.Context())
		if err != nil {
			handleError(h.log, w, r, err)
			return
		}
		for f, n := range all {
			changed[f.String()] = n
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"changed": changed})
}

// Sweep handles POST /admin/leaderboard/sweep?window=weekly|monthly.
func (h *AdminHandler) Sweep(w http.ResponseWriter, r *http.Request) {
	window := domain.WindowKind(r.URL.Query().Get("window"))
	if !window.IsValid() {
		handleError(h.log, w, r, domain.NewValidationError("window", "must be weekly or monthly"))
		return
	}

	n, err := h.svc.SweepWindows(r.Context(), window)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"window": window.String(), "reset": n})
}

// Adjust handles POST /admin/leaderboard/adjust.
func (h *AdminHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	var req adjustRequest
	if err := decodeBody(r, &req); err != nil {
		handleError(h.log, w, r, err)
		return
	}

	field, _ := domain.ParseField(req.Field)
	res, err := h.svc.Adjust(r.Context(), ranking.AdjustInput{
		UserID: req.UserID,
		Field:  field,
		Kind:   domain.EngagementKind(req.Kind),
		Sign:   domain.Sign(req.Sign),
	})
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, adjustResponse{
		Applied:       res.Applied,
		UserID:        res.UserID.String(),
		Field:         res.Field.String(),
		ScoreDelta:    res.ScoreDelta,
		PreviousScore: res.PreviousScore,
		NewScore:      res.NewScore,
		PreviousRank:  res.PreviousRank,
		NewRank:       res.NewRank,
	})
}
