package repository

import (
	"github.com/yourusername/quizrank-api/internal/domain/entity"
)

// QuizListItem is a browse-view projection of a catalog quiz.
type QuizListItem struct {
	QuizID        string
	Title         string
	QuestionCount int
	TotalPoints   int
}

// QuizCatalogRepository is the read-only contract against the quiz catalog.
// Authoring lives in a separate application; this service never writes
// quizzes, questions or answers.
type QuizCatalogRepository interface {
	// GetWithQuestions returns the quiz with questions and answer options in
	// stable display order, or ErrNotFound.
	GetWithQuestions(id string) (*entity.Quiz, error)
	// Exists reports whether a quiz id resolves in the catalog.
	Exists(id string) (bool, error)
	// ListWithCounts returns all quizzes, newest first, with their current
	// question count and total points.
	ListWithCounts() ([]QuizListItem, error)
	// GetQuestionsWithAnswers loads the given questions with their current
	// answer options in display order. Missing ids are silently skipped.
	GetQuestionsWithAnswers(ids []string) ([]entity.Question, error)
	// GetAnswerTexts resolves answer ids to their current text. Ids that no
	// longer resolve are absent from the returned map.
	GetAnswerTexts(ids []string) (map[string]string, error)
}
