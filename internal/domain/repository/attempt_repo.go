package repository

import (
	"github.com/yourusername/quizrank-api/internal/domain/entity"
)

// UserQuizAggregate summarizes one user's submitted attempts on one quiz.
type UserQuizAggregate struct {
	QuizID       string
	AttemptCount int64
	BestScore    *int
}

// QuizBestScore is a user's best submitted score on one quiz.
type QuizBestScore struct {
	QuizID    string
	BestScore int
}

// AttemptRepository defines persistence for attempts and their answer
// snapshots.
type AttemptRepository interface {
	// CreateWithAnswers persists a new attempt together with all of its
	// answer snapshot rows in a single transaction.
	CreateWithAnswers(attempt *entity.Attempt, answers []entity.AttemptAnswer) error

	// GetByIDForUser returns the attempt with its answers ordered by
	// question_order, or ErrNotFound when the id does not resolve or the
	// attempt belongs to a different user.
	GetByIDForUser(attemptID, userID string) (*entity.Attempt, error)

	// SubmitGraded commits the grading in one transaction: a status-guarded
	// update flips the attempt from in_progress to submitted and stores the
	// score, then every answer row's grading fields are written. When the
	// guard matches no row (already submitted, or a concurrent submit won)
	// nothing is written and ErrAttemptRejected is returned.
	SubmitGraded(attempt *entity.Attempt, answers []entity.AttemptAnswer) error

	// PreviousBestScore returns the user's highest submitted score on the
	// quiz, excluding the given attempt, or nil when no such attempt exists.
	PreviousBestScore(userID, quizID, excludeAttemptID string) (*int, error)

	// GetBestScoresByQuiz returns, per quiz the user has submitted at least
	// one attempt for, the best submitted score. Attempts whose quiz was
	// deleted (quiz_id NULL) are ignored.
	GetBestScoresByQuiz(userID string) ([]QuizBestScore, error)

	// GetUserQuizAggregates returns per-quiz attempt counts and best scores
	// for the user's submitted attempts.
	GetUserQuizAggregates(userID string) ([]UserQuizAggregate, error)

	// GetSubmittedByUserAndQuiz returns the user's submitted attempts for
	// one quiz, newest first.
	GetSubmittedByUserAndQuiz(userID, quizID string) ([]entity.Attempt, error)

	// GetSubmittedByUser returns a page of the user's submitted attempts
	// across all quizzes, newest first, plus the total count.
	GetSubmittedByUser(userID string, limit, offset int) ([]entity.Attempt, int64, error)
}
