package postgres

import (
	"errors"

	"gorm.io/gorm"

	"github.com/yourusername/quizrank-api/internal/domain/entity"
	"github.com/yourusername/quizrank-api/internal/domain/repository"
	apperrors "github.com/yourusername/quizrank-api/internal/pkg/errors"
)

// UserScoreRepo implements repository.UserScoreRepository
type UserScoreRepo struct {
	db *gorm.DB
}

// NewUserScoreRepo creates a new user score repository
func NewUserScoreRepo(db *gorm.DB) *UserScoreRepo {
	return &UserScoreRepo{db: db}
}

// Upsert writes the recomputed aggregate using ON CONFLICT so two concurrent
// recomputes for the same user cannot corrupt the row: the last writer wins
// with a consistent total/count pair. The stored display name is only
// replaced when the incoming one is a real name.
func (r *UserScoreRepo) Upsert(score *entity.UserScore) error {
	sql := `
	INSERT INTO user_scores (user_id, display_name, total_score, quizzes_completed, last_updated)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT (user_id) DO UPDATE SET
	    total_score = EXCLUDED.total_score,
	    quizzes_completed = EXCLUDED.quizzes_completed,
	    last_updated = EXCLUDED.last_updated,
	    display_name = CASE
	        WHEN EXCLUDED.display_name = ? THEN user_scores.display_name
	        ELSE EXCLUDED.display_name
	    END;`

	return r.db.Exec(sql,
		score.UserID, score.DisplayName, score.TotalScore, score.QuizzesCompleted, score.LastUpdated,
		entity.DefaultDisplayName,
	).Error
}

// GetByUserID returns the user's aggregate row
func (r *UserScoreRepo) GetByUserID(userID string) (*entity.UserScore, error) {
	var score entity.UserScore
	err := r.db.First(&score, "user_id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &score, nil
}

// CountUsers returns the number of scoreboard rows
func (r *UserScoreRepo) CountUsers() (int64, error) {
	var count int64
	err := r.db.Model(&entity.UserScore{}).Count(&count).Error
	return count, err
}

// GetRankedPage returns one page of the globally ranked scoreboard. The
// RANK() window runs over the whole table before LIMIT/OFFSET slices it, so
// tied entries share a rank on every page.
func (r *UserScoreRepo) GetRankedPage(limit, offset int) ([]entity.RankedUserScore, error) {
	var entries []entity.RankedUserScore
	sql := `
	SELECT
	    user_id,
	    display_name,
	    total_score,
	    quizzes_completed,
	    RANK() OVER (ORDER BY total_score DESC, display_name ASC) as rank
	FROM user_scores
	ORDER BY rank, user_id
	LIMIT ? OFFSET ?;`

	err := r.db.Raw(sql, limit, offset).Scan(&entries).Error
	return entries, err
}

// GetAllRanked returns the entire ranked scoreboard.
func (r *UserScoreRepo) GetAllRanked() ([]entity.RankedUserScore, error) {
	var entries []entity.RankedUserScore
	sql := `
	SELECT
	    user_id,
	    display_name,
	    total_score,
	    quizzes_completed,
	    RANK() OVER (ORDER BY total_score DESC, display_name ASC) as rank
	FROM user_scores
	ORDER BY rank, user_id;`

	err := r.db.Raw(sql).Scan(&entries).Error
	return entries, err
}

// GetUserRank returns the user's row with its global competition rank.
func (r *UserScoreRepo) GetUserRank(userID string) (*entity.RankedUserScore, error) {
	var entry entity.RankedUserScore
	sql := `
	WITH ranked AS (
	    SELECT
	        user_id,
	        display_name,
	        total_score,
	        quizzes_completed,
	        RANK() OVER (ORDER BY total_score DESC, display_name ASC) as rank
	    FROM user_scores
	)
	SELECT user_id, display_name, total_score, quizzes_completed, rank
	FROM ranked
	WHERE user_id = ?;`

	res := r.db.Raw(sql, userID).Scan(&entry)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.ErrNotFound
	}
	return &entry, nil
}

// GetTotals returns aggregate statistics over all scoreboard rows.
func (r *UserScoreRepo) GetTotals() (*repository.ScoreboardTotals, error) {
	var row struct {
		TotalUsers        int64
		TotalQuizzesTaken int64
		HighestScore      int
		AverageScore      float64
	}
	err := r.db.Model(&entity.UserScore{}).
		Select(`
			COUNT(user_id) as total_users,
			COALESCE(SUM(quizzes_completed), 0) as total_quizzes_taken,
			COALESCE(MAX(total_score), 0) as highest_score,
			COALESCE(AVG(total_score), 0) as average_score
		`).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}

	return &repository.ScoreboardTotals{
		TotalUsers:        row.TotalUsers,
		TotalQuizzesTaken: row.TotalQuizzesTaken,
		HighestScore:      row.HighestScore,
		AverageScore:      row.AverageScore,
	}, nil
}
