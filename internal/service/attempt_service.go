package service

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/quizrank-api/internal/domain/entity"
	"github.com/yourusername/quizrank-api/internal/domain/repository"
	apperrors "github.com/yourusername/quizrank-api/internal/pkg/errors"
)

// QuizTakingAnswer is an answer option as shown during taking.
// It intentionally has no correctness field: the taking wire format must be
// structurally incapable of leaking the answer key.
type QuizTakingAnswer struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// QuizTakingQuestion is a question as shown during taking.
type QuizTakingQuestion struct {
	ID      string             `json:"id"`
	Order   int                `json:"order"`
	Text    string             `json:"text"`
	Answers []QuizTakingAnswer `json:"answers"`
}

// QuizTakingView is what a taker sees between start and submit.
type QuizTakingView struct {
	AttemptID      string               `json:"attempt_id"`
	QuizTitle      string               `json:"quiz_title"`
	Questions      []QuizTakingQuestion `json:"questions"`
	TotalQuestions int                  `json:"total_questions"`
}

// AnswerSubmission is one selected option in a submit call.
type AnswerSubmission struct {
	QuestionID       string `json:"question_id" binding:"required"`
	SelectedAnswerID string `json:"selected_answer_id" binding:"required"`
}

// AttemptResultAnswer is the per-question feedback of a graded attempt.
type AttemptResultAnswer struct {
	QuestionOrder  int     `json:"question_order"`
	QuestionText   string  `json:"question_text"`
	QuestionPoints int     `json:"question_points"`
	SelectedAnswer *string `json:"selected_answer"`
	CorrectAnswer  string  `json:"correct_answer"`
	IsCorrect      bool    `json:"is_correct"`
	PointsEarned   int     `json:"points_earned"`
}

// AttemptResult is the full outcome of a submitted attempt.
type AttemptResult struct {
	AttemptID           string                `json:"attempt_id"`
	QuizTitle           string                `json:"quiz_title"`
	TotalScore          int                   `json:"total_score"`
	TotalPointsPossible int                   `json:"total_points_possible"`
	Percentage          float64               `json:"percentage"`
	SubmittedAt         time.Time             `json:"submitted_at"`
	IsNewBest           bool                  `json:"is_new_best"`
	Answers             []AttemptResultAnswer `json:"answers"`
}

// QuizBrowserItem is one quiz in the browse listing, with the requesting
// user's attempt statistics attached.
type QuizBrowserItem struct {
	QuizID             string   `json:"quiz_id"`
	Title              string   `json:"title"`
	QuestionCount      int      `json:"question_count"`
	UserAttempts       int64    `json:"user_attempts"`
	UserBestScore      *int     `json:"user_best_score"`
	UserBestPercentage *float64 `json:"user_best_percentage"`
}

// AttemptHistoryItem is one submitted attempt in a history listing.
type AttemptHistoryItem struct {
	AttemptID           string    `json:"attempt_id"`
	QuizTitle           string    `json:"quiz_title"`
	TotalScore          int       `json:"total_score"`
	TotalPointsPossible int       `json:"total_points_possible"`
	Percentage          float64   `json:"percentage"`
	SubmittedAt         time.Time `json:"submitted_at"`
	IsBest              bool      `json:"is_best"`
}

// AttemptService owns the attempt lifecycle: start (snapshot), resume,
// submit (grade), and the read-only projections over attempts.
type AttemptService struct {
	attemptRepo repository.AttemptRepository
	catalogRepo repository.QuizCatalogRepository
	scoreboard  *ScoreboardService
}

// NewAttemptService creates a new attempt service
func NewAttemptService(
	attemptRepo repository.AttemptRepository,
	catalogRepo repository.QuizCatalogRepository,
	scoreboard *ScoreboardService,
) *AttemptService {
	return &AttemptService{
		attemptRepo: attemptRepo,
		catalogRepo: catalogRepo,
		scoreboard:  scoreboard,
	}
}

// StartQuiz creates a new attempt for the user on the quiz. The quiz title,
// every question's text, point value and display order, and the text of the
// currently-correct answer are copied into the attempt so later catalog
// edits cannot change how this attempt displays or grades. Each call
// creates an independent attempt.
func (s *AttemptService) StartQuiz(userID, quizID string) (*QuizTakingView, error) {
	quiz, err := s.catalogRepo.GetWithQuestions(quizID)
	if err != nil {
		return nil, err
	}

	totalPoints := quiz.TotalPoints()
	if len(quiz.Questions) == 0 || totalPoints <= 0 {
		// A quiz with nothing to grade cannot be started.
		return nil, apperrors.ErrValidation
	}

	attempt := &entity.Attempt{
		ID:                  uuid.NewString(),
		UserID:              userID,
		QuizID:              &quiz.ID,
		QuizTitleSnapshot:   quiz.Title,
		TotalPointsPossible: totalPoints,
		StartedAt:           time.Now().UTC(),
		Status:              entity.AttemptStatusInProgress,
	}

	snapshots := make([]entity.AttemptAnswer, 0, len(quiz.Questions))
	questions := make([]QuizTakingQuestion, 0, len(quiz.Questions))
	for i := range quiz.Questions {
		question := quiz.Questions[i]

		correctText := ""
		if correct := question.CorrectAnswer(); correct != nil {
			correctText = correct.Text
		}

		questionID := question.ID
		snapshots = append(snapshots, entity.AttemptAnswer{
			ID:                   uuid.NewString(),
			AttemptID:            attempt.ID,
			QuestionID:           &questionID,
			QuestionOrder:        question.DisplayOrder,
			QuestionTextSnapshot: question.Text,
			QuestionPoints:       question.Points,
			CorrectAnswerText:    correctText,
		})

		options := make([]QuizTakingAnswer, 0, len(question.Answers))
		for _, answer := range question.Answers {
			options = append(options, QuizTakingAnswer{ID: answer.ID, Text: answer.Text})
		}
		questions = append(questions, QuizTakingQuestion{
			ID:      question.ID,
			Order:   question.DisplayOrder,
			Text:    question.Text,
			Answers: options,
		})
	}

	if err := s.attemptRepo.CreateWithAnswers(attempt, snapshots); err != nil {
		return nil, fmt.Errorf("failed to start attempt: %w", err)
	}
	log.Printf("[AttemptService] Started attempt %s for user %s on quiz %s", attempt.ID, userID, quizID)

	return &QuizTakingView{
		AttemptID:      attempt.ID,
		QuizTitle:      quiz.Title,
		Questions:      questions,
		TotalQuestions: len(questions),
	}, nil
}

// GetAttempt returns the taking view of an in-progress attempt for resuming.
// Question text and order come from the snapshots, so a taker who resumes
// after the quiz was edited still sees the original questions; only the
// selectable options are re-read from the catalog.
func (s *AttemptService) GetAttempt(attemptID, userID string) (*QuizTakingView, error) {
	attempt, err := s.attemptRepo.GetByIDForUser(attemptID, userID)
	if err != nil {
		return nil, err
	}
	if attempt.Status != entity.AttemptStatusInProgress {
		return nil, apperrors.ErrNotFound
	}

	questionIDs := make([]string, 0, len(attempt.Answers))
	for _, snapshot := range attempt.Answers {
		if snapshot.QuestionID != nil {
			questionIDs = append(questionIDs, *snapshot.QuestionID)
		}
	}
	questionsByID := make(map[string]entity.Question, len(questionIDs))
	if len(questionIDs) > 0 {
		liveQuestions, err := s.catalogRepo.GetQuestionsWithAnswers(questionIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to load questions for attempt %s: %w", attemptID, err)
		}
		for _, question := range liveQuestions {
			questionsByID[question.ID] = question
		}
	}

	// Every snapshot row stays in the view. When the live question is gone
	// (quiz edited or deleted since start) the row keeps its snapshotted
	// text and order but has no selectable options left.
	questions := make([]QuizTakingQuestion, 0, len(attempt.Answers))
	for _, snapshot := range attempt.Answers {
		taking := QuizTakingQuestion{
			Order:   snapshot.QuestionOrder,
			Text:    snapshot.QuestionTextSnapshot,
			Answers: []QuizTakingAnswer{},
		}
		if snapshot.QuestionID != nil {
			taking.ID = *snapshot.QuestionID
			if question, ok := questionsByID[*snapshot.QuestionID]; ok {
				for _, answer := range question.Answers {
					taking.Answers = append(taking.Answers, QuizTakingAnswer{ID: answer.ID, Text: answer.Text})
				}
			}
		}
		questions = append(questions, taking)
	}

	return &QuizTakingView{
		AttemptID:      attempt.ID,
		QuizTitle:      attempt.QuizTitleSnapshot,
		Questions:      questions,
		TotalQuestions: len(questions),
	}, nil
}

// SubmitQuiz grades the attempt against its snapshots and commits the
// one-way transition to submitted. Attempt missing, wrong owner, already
// submitted and a lost concurrent race all surface as the same
// ErrAttemptRejected so the endpoint leaks nothing about why.
func (s *AttemptService) SubmitQuiz(attemptID, userID, displayName string, answers []AnswerSubmission) (*AttemptResult, error) {
	if len(answers) == 0 {
		return nil, apperrors.ErrValidation
	}

	attempt, err := s.attemptRepo.GetByIDForUser(attemptID, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			log.Printf("[AttemptService] Submit rejected: attempt %s not visible to user %s", attemptID, userID)
			return nil, apperrors.ErrAttemptRejected
		}
		return nil, err
	}
	if attempt.IsSubmitted() {
		log.Printf("[AttemptService] Submit rejected: attempt %s already submitted", attemptID)
		return nil, apperrors.ErrAttemptRejected
	}

	// Resolve the selected answer ids to their current text. This is the
	// single deliberate live read at grading time: the taker picked from the
	// options on screen just now, not from a historical option set.
	submissionsByQuestion := make(map[string]AnswerSubmission, len(answers))
	selectedIDs := make([]string, 0, len(answers))
	for _, submission := range answers {
		submissionsByQuestion[submission.QuestionID] = submission
		selectedIDs = append(selectedIDs, submission.SelectedAnswerID)
	}
	answerTexts, err := s.catalogRepo.GetAnswerTexts(selectedIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve selected answers: %w", err)
	}

	// Grade every snapshot row in question order. Correctness compares the
	// selected answer's text with the frozen correct-answer text; a missing
	// submission grades as incorrect with zero points.
	totalScore := 0
	resultAnswers := make([]AttemptResultAnswer, 0, len(attempt.Answers))
	for i := range attempt.Answers {
		snapshot := &attempt.Answers[i]

		var submitted *AnswerSubmission
		if snapshot.QuestionID != nil {
			if sub, ok := submissionsByQuestion[*snapshot.QuestionID]; ok {
				submitted = &sub
			}
		}

		if submitted != nil {
			selectedID := submitted.SelectedAnswerID
			selectedText := answerTexts[selectedID]
			// An unresolvable answer id yields empty text and never matches.
			isCorrect := selectedText != "" && selectedText == snapshot.CorrectAnswerText
			points := 0
			if isCorrect {
				points = snapshot.QuestionPoints
			}
			snapshot.SelectedAnswerID = &selectedID
			snapshot.SelectedAnswerText = &selectedText
			snapshot.IsCorrect = &isCorrect
			snapshot.PointsEarned = &points
			totalScore += points
		} else {
			incorrect := false
			zero := 0
			snapshot.SelectedAnswerID = nil
			snapshot.SelectedAnswerText = nil
			snapshot.IsCorrect = &incorrect
			snapshot.PointsEarned = &zero
		}

		resultAnswers = append(resultAnswers, AttemptResultAnswer{
			QuestionOrder:  snapshot.QuestionOrder,
			QuestionText:   snapshot.QuestionTextSnapshot,
			QuestionPoints: snapshot.QuestionPoints,
			SelectedAnswer: snapshot.SelectedAnswerText,
			CorrectAnswer:  snapshot.CorrectAnswerText,
			IsCorrect:      snapshot.Correct(),
			PointsEarned:   snapshot.Earned(),
		})
	}

	submittedAt := time.Now().UTC()
	attempt.TotalScore = &totalScore
	attempt.SubmittedAt = &submittedAt

	if err := s.attemptRepo.SubmitGraded(attempt, attempt.Answers); err != nil {
		if errors.Is(err, apperrors.ErrAttemptRejected) {
			return nil, apperrors.ErrAttemptRejected
		}
		return nil, fmt.Errorf("failed to submit attempt: %w", err)
	}

	// The grading transaction is committed; everything below reads the
	// submitted state. Failures here must not fail the submission.
	isNewBest := false
	if attempt.QuizID != nil {
		previousBest, err := s.attemptRepo.PreviousBestScore(userID, *attempt.QuizID, attempt.ID)
		if err != nil {
			log.Printf("[AttemptService] WARNING: failed to check previous best for attempt %s: %v", attempt.ID, err)
		} else if previousBest == nil || totalScore > *previousBest {
			// A tie with the previous best is not a new best.
			isNewBest = true
		}
	}

	if _, err := s.scoreboard.UpdateUserScore(userID, displayName); err != nil {
		log.Printf("[AttemptService] WARNING: failed to update scoreboard for user %s: %v", userID, err)
	}

	log.Printf("[AttemptService] Submitted attempt %s: score %d/%d", attempt.ID, totalScore, attempt.TotalPointsPossible)

	return &AttemptResult{
		AttemptID:           attempt.ID,
		QuizTitle:           attempt.QuizTitleSnapshot,
		TotalScore:          totalScore,
		TotalPointsPossible: attempt.TotalPointsPossible,
		Percentage:          attempt.Percentage(),
		SubmittedAt:         submittedAt,
		IsNewBest:           isNewBest,
		Answers:             resultAnswers,
	}, nil
}

// GetResults returns the stored result of a submitted attempt. Unsubmitted
// or invisible attempts are ErrNotFound.
func (s *AttemptService) GetResults(attemptID, userID string) (*AttemptResult, error) {
	attempt, err := s.attemptRepo.GetByIDForUser(attemptID, userID)
	if err != nil {
		return nil, err
	}
	if !attempt.IsSubmitted() {
		return nil, apperrors.ErrNotFound
	}

	resultAnswers := make([]AttemptResultAnswer, 0, len(attempt.Answers))
	for _, snapshot := range attempt.Answers {
		resultAnswers = append(resultAnswers, AttemptResultAnswer{
			QuestionOrder:  snapshot.QuestionOrder,
			QuestionText:   snapshot.QuestionTextSnapshot,
			QuestionPoints: snapshot.QuestionPoints,
			SelectedAnswer: snapshot.SelectedAnswerText,
			CorrectAnswer:  snapshot.CorrectAnswerText,
			IsCorrect:      snapshot.Correct(),
			PointsEarned:   snapshot.Earned(),
		})
	}

	var submittedAt time.Time
	if attempt.SubmittedAt != nil {
		submittedAt = *attempt.SubmittedAt
	}

	return &AttemptResult{
		AttemptID:           attempt.ID,
		QuizTitle:           attempt.QuizTitleSnapshot,
		TotalScore:          attempt.Score(),
		TotalPointsPossible: attempt.TotalPointsPossible,
		Percentage:          attempt.Percentage(),
		SubmittedAt:         submittedAt,
		Answers:             resultAnswers,
	}, nil
}

// BrowseQuizzes lists all catalog quizzes, newest first, with the user's
// submitted-attempt statistics. Best percentage is computed against the
// quiz's current total points.
func (s *AttemptService) BrowseQuizzes(userID string) ([]QuizBrowserItem, error) {
	quizzes, err := s.catalogRepo.ListWithCounts()
	if err != nil {
		return nil, err
	}
	aggregates, err := s.attemptRepo.GetUserQuizAggregates(userID)
	if err != nil {
		return nil, err
	}

	aggregatesByQuiz := make(map[string]repository.UserQuizAggregate, len(aggregates))
	for _, aggregate := range aggregates {
		aggregatesByQuiz[aggregate.QuizID] = aggregate
	}

	items := make([]QuizBrowserItem, 0, len(quizzes))
	for _, quiz := range quizzes {
		item := QuizBrowserItem{
			QuizID:        quiz.QuizID,
			Title:         quiz.Title,
			QuestionCount: quiz.QuestionCount,
		}
		if aggregate, ok := aggregatesByQuiz[quiz.QuizID]; ok {
			item.UserAttempts = aggregate.AttemptCount
			item.UserBestScore = aggregate.BestScore
			if aggregate.BestScore != nil && quiz.TotalPoints > 0 {
				percentage := entity.RoundPercentage(float64(*aggregate.BestScore) / float64(quiz.TotalPoints) * 100)
				item.UserBestPercentage = &percentage
			}
		}
		items = append(items, item)
	}
	return items, nil
}

// GetQuizHistory returns the user's submitted attempts for one quiz, newest
// first. ErrNotFound only when the quiz id itself is unknown; a known quiz
// with no attempts yields an empty list.
func (s *AttemptService) GetQuizHistory(userID, quizID string) ([]AttemptHistoryItem, error) {
	exists, err := s.catalogRepo.Exists(quizID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperrors.ErrNotFound
	}

	attempts, err := s.attemptRepo.GetSubmittedByUserAndQuiz(userID, quizID)
	if err != nil {
		return nil, err
	}
	if len(attempts) == 0 {
		return []AttemptHistoryItem{}, nil
	}

	bestScore := 0
	for _, attempt := range attempts {
		if attempt.Score() > bestScore {
			bestScore = attempt.Score()
		}
	}

	history := make([]AttemptHistoryItem, 0, len(attempts))
	for _, attempt := range attempts {
		history = append(history, newHistoryItem(attempt, attempt.Score() == bestScore))
	}
	return history, nil
}

// GetMyAttempts returns a page of the user's submitted attempts across all
// quizzes, newest first, plus the total count.
func (s *AttemptService) GetMyAttempts(userID string, limit, offset int) ([]AttemptHistoryItem, int64, error) {
	if limit < 1 {
		limit = 20
	} else if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	attempts, total, err := s.attemptRepo.GetSubmittedByUser(userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	bestScores, err := s.attemptRepo.GetBestScoresByQuiz(userID)
	if err != nil {
		return nil, 0, err
	}
	bestByQuiz := make(map[string]int, len(bestScores))
	for _, best := range bestScores {
		bestByQuiz[best.QuizID] = best.BestScore
	}

	history := make([]AttemptHistoryItem, 0, len(attempts))
	for _, attempt := range attempts {
		isBest := false
		if attempt.QuizID != nil {
			best, ok := bestByQuiz[*attempt.QuizID]
			isBest = ok && best == attempt.Score()
		}
		history = append(history, newHistoryItem(attempt, isBest))
	}
	return history, total, nil
}

func newHistoryItem(attempt entity.Attempt, isBest bool) AttemptHistoryItem {
	var submittedAt time.Time
	if attempt.SubmittedAt != nil {
		submittedAt = *attempt.SubmittedAt
	}
	return AttemptHistoryItem{
		AttemptID:           attempt.ID,
		QuizTitle:           attempt.QuizTitleSnapshot,
		TotalScore:          attempt.Score(),
		TotalPointsPossible: attempt.TotalPointsPossible,
		Percentage:          attempt.Percentage(),
		SubmittedAt:         submittedAt,
		IsBest:              isBest,
	}
}
