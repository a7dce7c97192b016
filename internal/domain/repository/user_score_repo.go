package repository

import (
	"github.com/yourusername/quizrank-api/internal/domain/entity"
)

// ScoreboardTotals holds aggregate statistics over the user_scores table.
type ScoreboardTotals struct {
	TotalUsers        int64
	TotalQuizzesTaken int64
	HighestScore      int
	AverageScore      float64
}

// UserScoreRepository defines persistence for the materialized scoreboard
// aggregate and its ranking queries.
type UserScoreRepository interface {
	// Upsert writes the recomputed aggregate for one user. The default
	// display name never overwrites a previously stored real name.
	Upsert(score *entity.UserScore) error

	// GetByUserID returns the user's aggregate row, or ErrNotFound.
	GetByUserID(userID string) (*entity.UserScore, error)

	// CountUsers returns the number of rows on the scoreboard.
	CountUsers() (int64, error)

	// GetRankedPage returns one page of the scoreboard. Ranks are computed
	// over the whole table before the page is sliced.
	GetRankedPage(limit, offset int) ([]entity.RankedUserScore, error)

	// GetAllRanked returns the entire ranked scoreboard.
	GetAllRanked() ([]entity.RankedUserScore, error)

	// GetUserRank returns the user's globally ranked row, or ErrNotFound.
	GetUserRank(userID string) (*entity.RankedUserScore, error)

	// GetTotals returns aggregate statistics; zero values when empty.
	GetTotals() (*ScoreboardTotals, error)
}
