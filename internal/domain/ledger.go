package domain

import (
	"time"

	"github.com/google/uuid"
)

// EngagementKind is the kind of social signal that moves a ledger.
type EngagementKind string

const (
	EngagementLike    EngagementKind = "like"
	EngagementComment EngagementKind = "comment"
	EngagementFollow  EngagementKind = "follow"
)

// Score weights per engagement kind.
const (
	LikeWeight    = 1
	CommentWeight = 2
	FollowWeight  = 5
)

func (k EngagementKind) String() string { return string(k) }

func (k EngagementKind) IsValid() bool {
	switch k {
	case EngagementLike, EngagementComment, EngagementFollow:
		return true
	}
	return false
}

// Weight returns the number of points one unit of this engagement is worth.
func (k EngagementKind) Weight() int {
	switch k {
	case EngagementLike:
		return LikeWeight
	case EngagementComment:
		return CommentWeight
	case EngagementFollow:
		return FollowWeight
	}
	return 0
}

// Sign is the direction of a delta: +1 for a created engagement, -1 for a
// deleted one.
type Sign int

const (
	SignAdd    Sign = 1
	SignRemove Sign = -1
)

func (s Sign) IsValid() bool { return s == SignAdd || s == SignRemove }

// Ledger is the per-(user, field) aggregate of engagement counters, scores
// and rank. Counters and scores are never negative.
type Ledger struct {
	ID     uuid.UUID
	UserID uuid.UUID
	Field  Field

	Likes    int
	Comments int
	Follows  int

	AllTimeScore int
	WeeklyScore  int
	MonthlyScore int

	// Rank is 1-based within Field. Zero means the ledger has not been
	// ranked yet and sorts after every ranked ledger.
	Rank int

	WeeklyResetAt  *time.Time
	MonthlyResetAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewLedger returns an empty, unranked ledger for (userID, field).
func NewLedger(userID uuid.UUID, field Field, now time.Time) *Ledger {
	return &Ledger{
		ID:        uuid.New(),
		UserID:    userID,
		Field:     field,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ComputeScore returns the composite score implied by the counters.
func (l *Ledger) ComputeScore() int {
	return l.Likes*LikeWeight + l.Comments*CommentWeight + l.Follows*FollowWeight
}

// IsRanked reports whether the ledger has been through a recompute.
func (l *Ledger) IsRanked() bool { return l.Rank > 0 }

// ApplyDelta moves the counter for kind by sign (floored at zero) and the
// three scores by the points that change actually represents. A decrement
// on a zero counter changes nothing. Returns the applied score delta.
//
// This is the only place counters and scores are increased or decreased.
func (l *Ledger) ApplyDelta(kind EngagementKind, sign Sign) int {
	counter := l.counter(kind)
	if counter == nil {
		return 0
	}

	before := *counter
	*counter = max(0, before+int(sign))
	effective := *counter - before
	if effective == 0 {
		return 0
	}

	points := effective * kind.Weight()
	l.AllTimeScore = max(0, l.AllTimeScore+points)
	l.WeeklyScore = max(0, l.WeeklyScore+points)
	l.MonthlyScore = max(0, l.MonthlyScore+points)

	return points
}

// Counter returns the current value of the counter for kind.
func (l *Ledger) Counter(kind EngagementKind) int {
	if c := l.counter(kind); c != nil {
		return *c
	}
	return 0
}

func (l *Ledger) counter(kind EngagementKind) *int {
	switch kind {
	case EngagementLike:
		return &l.Likes
	case EngagementComment:
		return &l.Comments
	case EngagementFollow:
		return &l.Follows
	}
	return nil
}
