package postgres

import (
	"errors"
	"log"

	"gorm.io/gorm"

	"github.com/yourusername/quizrank-api/internal/domain/entity"
	"github.com/yourusername/quizrank-api/internal/domain/repository"
	apperrors "github.com/yourusername/quizrank-api/internal/pkg/errors"
)

// AttemptRepo implements repository.AttemptRepository
type AttemptRepo struct {
	db *gorm.DB
}

// NewAttemptRepo creates a new attempt repository
func NewAttemptRepo(db *gorm.DB) *AttemptRepo {
	return &AttemptRepo{db: db}
}

// CreateWithAnswers persists the attempt and all of its snapshot rows in one
// transaction. A failure on any row rolls back the whole start operation.
func (r *AttemptRepo) CreateWithAnswers(attempt *entity.Attempt, answers []entity.AttemptAnswer) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(attempt).Error; err != nil {
			return err
		}
		if len(answers) > 0 {
			if err := tx.Create(&answers).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// GetByIDForUser returns the attempt with answers ordered by question_order.
// Ownership is part of the lookup: another user's attempt is ErrNotFound.
func (r *AttemptRepo) GetByIDForUser(attemptID, userID string) (*entity.Attempt, error) {
	var attempt entity.Attempt
	err := r.db.
		Preload("Answers", func(db *gorm.DB) *gorm.DB {
			return db.Order("question_order ASC")
		}).
		Where("id = ? AND user_id = ?", attemptID, userID).
		First(&attempt).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &attempt, nil
}

// SubmitGraded flips the attempt to submitted and writes the grading in one
// transaction. The UPDATE is guarded on status = in_progress: of two racing
// submissions exactly one matches the row, the other sees RowsAffected == 0
// and is rejected without touching any answer row.
func (r *AttemptRepo) SubmitGraded(attempt *entity.Attempt, answers []entity.AttemptAnswer) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&entity.Attempt{}).
			Where("id = ? AND status = ?", attempt.ID, entity.AttemptStatusInProgress).
			Updates(map[string]interface{}{
				"total_score":  attempt.TotalScore,
				"submitted_at": attempt.SubmittedAt,
				"status":       entity.AttemptStatusSubmitted,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.ErrAttemptRejected
		}

		for i := range answers {
			if err := tx.Model(&entity.AttemptAnswer{}).
				Where("id = ?", answers[i].ID).
				Updates(map[string]interface{}{
					"selected_answer_id":   answers[i].SelectedAnswerID,
					"selected_answer_text": answers[i].SelectedAnswerText,
					"is_correct":           answers[i].IsCorrect,
					"points_earned":        answers[i].PointsEarned,
				}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil && !errors.Is(err, apperrors.ErrAttemptRejected) {
		log.Printf("[AttemptRepo] Error committing graded submission for attempt %s: %v", attempt.ID, err)
	}
	return err
}

// PreviousBestScore returns the user's best submitted score on the quiz,
// excluding the given attempt. Nil means no prior submitted attempt exists.
func (r *AttemptRepo) PreviousBestScore(userID, quizID, excludeAttemptID string) (*int, error) {
	var best *int
	err := r.db.Model(&entity.Attempt{}).
		Select("MAX(total_score)").
		Where("user_id = ? AND quiz_id = ? AND status = ? AND id <> ?",
			userID, quizID, entity.AttemptStatusSubmitted, excludeAttemptID).
		Scan(&best).Error
	return best, err
}

// GetBestScoresByQuiz returns the best submitted score per quiz for the
// user. Attempts with a NULL quiz_id (source quiz deleted) are ignored.
func (r *AttemptRepo) GetBestScoresByQuiz(userID string) ([]repository.QuizBestScore, error) {
	var rows []struct {
		QuizID    string
		BestScore int
	}
	err := r.db.Model(&entity.Attempt{}).
		Select("quiz_id, MAX(total_score) as best_score").
		Where("user_id = ? AND status = ? AND quiz_id IS NOT NULL", userID, entity.AttemptStatusSubmitted).
		Group("quiz_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	scores := make([]repository.QuizBestScore, 0, len(rows))
	for _, row := range rows {
		scores = append(scores, repository.QuizBestScore{QuizID: row.QuizID, BestScore: row.BestScore})
	}
	return scores, nil
}

// GetUserQuizAggregates returns per-quiz attempt counts and best scores over
// the user's submitted attempts.
func (r *AttemptRepo) GetUserQuizAggregates(userID string) ([]repository.UserQuizAggregate, error) {
	var rows []struct {
		QuizID       string
		AttemptCount int64
		BestScore    *int
	}
	err := r.db.Model(&entity.Attempt{}).
		Select("quiz_id, COUNT(*) as attempt_count, MAX(total_score) as best_score").
		Where("user_id = ? AND status = ? AND quiz_id IS NOT NULL", userID, entity.AttemptStatusSubmitted).
		Group("quiz_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	aggregates := make([]repository.UserQuizAggregate, 0, len(rows))
	for _, row := range rows {
		aggregates = append(aggregates, repository.UserQuizAggregate{
			QuizID:       row.QuizID,
			AttemptCount: row.AttemptCount,
			BestScore:    row.BestScore,
		})
	}
	return aggregates, nil
}

// GetSubmittedByUserAndQuiz returns the user's submitted attempts for one
// quiz, newest first.
func (r *AttemptRepo) GetSubmittedByUserAndQuiz(userID, quizID string) ([]entity.Attempt, error) {
	var attempts []entity.Attempt
	err := r.db.
		Where("user_id = ? AND quiz_id = ? AND status = ?", userID, quizID, entity.AttemptStatusSubmitted).
		Order("submitted_at DESC").
		Find(&attempts).Error
	return attempts, err
}

// GetSubmittedByUser returns a page of the user's submitted attempts across
// all quizzes, newest first, plus the total count.
func (r *AttemptRepo) GetSubmittedByUser(userID string, limit, offset int) ([]entity.Attempt, int64, error) {
	var total int64
	if err := r.db.Model(&entity.Attempt{}).
		Where("user_id = ? AND status = ?", userID, entity.AttemptStatusSubmitted).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var attempts []entity.Attempt
	err := r.db.
		Where("user_id = ? AND status = ?", userID, entity.AttemptStatusSubmitted).
		Order("submitted_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&attempts).Error
	if err != nil {
		return nil, 0, err
	}
	return attempts, total, nil
}
