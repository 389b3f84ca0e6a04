package domain

import (
	"time"

	"github.com/google/uuid"
)

// UpdateReason records why a ledger moved.
type UpdateReason string

const (
	ReasonLike    UpdateReason = "like"
	ReasonComment UpdateReason = "comment"
	ReasonFollow  UpdateReason = "follow"
	ReasonManual  UpdateReason = "manual"
)

func (r UpdateReason) String() string { return string(r) }

func (r UpdateReason) IsValid() bool {
	switch r {
	case ReasonLike, ReasonComment, ReasonFollow, ReasonManual:
		return true
	}
	return false
}

// ReasonForKind returns the reason recorded for an engagement of kind.
func ReasonForKind(kind EngagementKind) UpdateReason {
	return UpdateReason(kind)
}

// RankUpdate is an immutable entry of the rank/score audit trail.
// Seq reflects append order and is assigned by storage.
type RankUpdate struct {
	ID       uuid.UUID
	Seq      int64
	LedgerID uuid.UUID
	UserID   uuid.UUID
	Field    Field

	// PreviousRank and NewRank are nil when the ledger was unranked.
	PreviousRank *int
	NewRank      *int

	ScoreDelta int
	Reason     UpdateReason
	SourceRef  *uuid.UUID
	CreatedAt  time.Time
}

// RankUpdateFilter selects UpdateLog entries. Nil filters match everything.
type RankUpdateFilter struct {
	UserID *uuid.UUID
	Field  *Field
	Limit  int
}

// RankPtr converts a ledger rank into the nullable form used by RankUpdate.
func RankPtr(rank int) *int {
	if rank <= 0 {
		return nil
	}
	return &rank
}

// RankChange is a single rank write produced by a recompute.
type RankChange struct {
	LedgerID uuid.UUID
	Rank     int
}
