package entity

import (
	"time"
)

// DefaultDisplayName is used when the identity layer supplies no name.
// It never overwrites a previously stored real name.
const DefaultDisplayName = "Anonymous"

// UserScore is the materialized scoreboard aggregate: one row per user,
// total_score = sum of the user's best submitted score per quiz. It is
// derived state, fully recomputed on every submission and rebuildable from
// quiz_attempts at any time.
type UserScore struct {
	UserID           string    `gorm:"primaryKey;size:36" json:"user_id"`
	DisplayName      string    `gorm:"size:100;not null;default:'Anonymous'" json:"display_name"`
	TotalScore       int       `gorm:"not null;default:0" json:"total_score"`
	QuizzesCompleted int       `gorm:"not null;default:0" json:"quizzes_completed"`
	LastUpdated      time.Time `gorm:"not null" json:"last_updated"`
}

// TableName defines the table name for GORM
func (UserScore) TableName() string {
	return "user_scores"
}

// RankedUserScore is a UserScore row with its competition rank attached.
// The rank is computed over the entire table with RANK() OVER
// (ORDER BY total_score DESC, display_name ASC): ties on both keys share a
// rank and the next distinct rank skips by the tie count.
type RankedUserScore struct {
	Rank             int64  `json:"rank"`
	UserID           string `json:"user_id"`
	DisplayName      string `json:"display_name"`
	TotalScore       int    `json:"total_score"`
	QuizzesCompleted int    `json:"quizzes_completed"`
}
