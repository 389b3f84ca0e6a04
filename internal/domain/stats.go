package domain

import "github.com/google/uuid"

// LeaderboardEntry is one row of a field leaderboard.
type LeaderboardEntry struct {
	UserID   uuid.UUID
	Username string
	Field    Field
	Score    int
	Rank     int
}

// FieldStats is the per-field breakdown of a user's standing.
type FieldStats struct {
	Field        Field
	Score        int
	WeeklyScore  int
	MonthlyScore int
	Rank         int
	Likes        int
	Comments     int
	Follows      int
}

// UserStats summarizes a user's standing across all fields.
type UserStats struct {
	UserID      uuid.UUID
	TotalScore  int
	AverageRank int
	FieldCount  int
	Fields      []FieldStats
}

// FieldBoard is the top of one field's leaderboard.
type FieldBoard struct {
	Field   Field
	Entries []LeaderboardEntry
}
