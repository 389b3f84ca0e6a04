package ranking

import (
	"github.com/google/uuid"

	"github.com/heartmarshall/ranking-backend/internal/domain"
)

// DeltaInput describes one engagement to apply to a (user, field) ledger.
type DeltaInput struct {
	UserID    uuid.UUID
	Field     domain.Field
	Kind      domain.EngagementKind
	Sign      domain.Sign
	Reason    domain.UpdateReason
	SourceRef *uuid.UUID
}

// Validate checks all fields and collects all errors.
func (i DeltaInput) Validate() error {
	var errs []domain.FieldError

	if i.UserID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "user_id", Message: "required"})
	}
	if !i.Field.IsValid() {
		errs = append(errs, domain.FieldError{Field: "field", Message: "unknown field"})
	}
	if !i.Kind.IsValid() {
		errs = append(errs, domain.FieldError{Field: "kind", Message: "must be like, comment or follow"})
	}
	if !i.Sign.IsValid() {
		errs = append(errs, domain.FieldError{Field: "sign", Message: "must be +1 or -1"})
	}
	if !i.Reason.IsValid() {
		errs = append(errs, domain.FieldError{Field: "reason", Message: "unknown reason"})
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

// AdjustInput is a manual correction issued by an administrator.
type AdjustInput struct {
	UserID uuid.UUID
	Field  domain.Field
	Kind   domain.EngagementKind
	Sign   domain.Sign
}

// LeaderboardInput selects the all-time board of one field.
type LeaderboardInput struct {
	Field domain.Field
	Limit *int // nil = configured default
}

// Validate checks all fields and collects all errors.
func (i LeaderboardInput) Validate() error {
	var errs []domain.FieldError

	if !i.Field.IsValid() {
		errs = append(errs, domain.FieldError{Field: "field", Message: "unknown field"})
	}
	errs = validateLimit(errs, i.Limit)

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

// PeriodInput selects a weekly or monthly board. A nil Field spans all fields.
type PeriodInput struct {
	Window domain.WindowKind
	Field  *domain.Field
	Limit  *int
}

// Validate checks all fields and collects all errors.
func (i PeriodInput) Validate() error {
	var errs []domain.FieldError

	if !i.Window.IsValid() {
		errs = append(errs, domain.FieldError{Field: "window", Message: "must be weekly or monthly"})
	}
	if i.Field != nil && !i.Field.IsValid() {
		errs = append(errs, domain.FieldError{Field: "field", Message: "unknown field"})
	}
	errs = validateLimit(errs, i.Limit)

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

// HistoryInput filters the update log. Nil filters match everything.
type HistoryInput struct {
	UserID *uuid.UUID
	Field  *domain.Field
	Limit  *int
}

// Validate checks all fields and collects all errors.
func (i HistoryInput) Validate() error {
	var errs []domain.FieldError

	if i.UserID != nil && *i.UserID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "user_id", Message: "must be a valid id"})
	}
	if i.Field != nil && !i.Field.IsValid() {
		errs = append(errs, domain.FieldError{Field: "field", Message: "unknown field"})
	}
	errs = validateLimit(errs, i.Limit)

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

func validateLimit(errs []domain.FieldError, limit *int) []domain.FieldError {
	if limit != nil && *limit <= 0 {
		errs = append(errs, domain.FieldError{Field: "limit", Message: "must be positive"})
	}
	return errs
}

// effectiveLimit resolves a requested limit against the configured bounds.
// Values above the maximum are clamped.
func (s *Service) effectiveLimit(limit *int) int {
	if limit == nil {
		return s.cfg.DefaultLimit
	}
	return min(*limit, s.cfg.MaxLimit)
}
