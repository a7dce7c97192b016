package postgres

import (
	"errors"

	"gorm.io/gorm"

	"github.com/yourusername/quizrank-api/internal/domain/entity"
	"github.com/yourusername/quizrank-api/internal/domain/repository"
	apperrors "github.com/yourusername/quizrank-api/internal/pkg/errors"
)

// QuizCatalogRepo implements repository.QuizCatalogRepository against the
// catalog tables. Read-only: the authoring application owns the writes.
type QuizCatalogRepo struct {
	db *gorm.DB
}

// NewQuizCatalogRepo creates a new catalog repository
func NewQuizCatalogRepo(db *gorm.DB) *QuizCatalogRepo {
	return &QuizCatalogRepo{db: db}
}

// GetWithQuestions returns the quiz with questions and answers preloaded in
// display order.
func (r *QuizCatalogRepo) GetWithQuestions(id string) (*entity.Quiz, error) {
	var quiz entity.Quiz
	err := r.db.
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("display_order ASC")
		}).
		Preload("Questions.Answers", func(db *gorm.DB) *gorm.DB {
			return db.Order("display_order ASC")
		}).
		First(&quiz, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &quiz, nil
}

// Exists reports whether the quiz id resolves.
func (r *QuizCatalogRepo) Exists(id string) (bool, error) {
	var count int64
	err := r.db.Model(&entity.Quiz{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// ListWithCounts returns all quizzes, newest first, with question counts and
// total points computed from the current catalog state.
func (r *QuizCatalogRepo) ListWithCounts() ([]repository.QuizListItem, error) {
	var rows []struct {
		QuizID        string
		Title         string
		QuestionCount int
		TotalPoints   int
	}
	err := r.db.Table("quizzes q").
		Select(`
			q.id as quiz_id,
			q.title,
			COUNT(que.id) as question_count,
			COALESCE(SUM(que.points), 0) as total_points
		`).
		Joins("LEFT JOIN questions que ON que.quiz_id = q.id").
		Group("q.id, q.title, q.created_at").
		Order("q.created_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	items := make([]repository.QuizListItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, repository.QuizListItem{
			QuizID:        row.QuizID,
			Title:         row.Title,
			QuestionCount: row.QuestionCount,
			TotalPoints:   row.TotalPoints,
		})
	}
	return items, nil
}

// GetQuestionsWithAnswers loads the given questions with their current
// answer options. Ids that no longer resolve are skipped.
func (r *QuizCatalogRepo) GetQuestionsWithAnswers(ids []string) ([]entity.Question, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var questions []entity.Question
	err := r.db.
		Preload("Answers", func(db *gorm.DB) *gorm.DB {
			return db.Order("display_order ASC")
		}).
		Where("id IN ?", ids).
		Find(&questions).Error
	return questions, err
}

// GetAnswerTexts resolves answer ids to their current text.
func (r *QuizCatalogRepo) GetAnswerTexts(ids []string) (map[string]string, error) {
	texts := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return texts, nil
	}
	var answers []entity.Answer
	if err := r.db.Where("id IN ?", ids).Find(&answers).Error; err != nil {
		return nil, err
	}
	for _, a := range answers {
		texts[a.ID] = a.Text
	}
	return texts, nil
}
