package entity

// AttemptAnswer stores the per-question snapshot taken when an attempt is
// started, plus the grading outcome filled in at submission. The snapshot
// fields (text, points, order, correct answer text) are never re-read from
// the live quiz.
type AttemptAnswer struct {
	ID                   string  `gorm:"primaryKey;size:36" json:"id"`
	AttemptID            string  `gorm:"size:36;not null;index" json:"attempt_id"`
	QuestionID           *string `gorm:"size:36" json:"question_id"` // nil once the source question is deleted
	QuestionOrder        int     `gorm:"not null" json:"question_order"`
	QuestionTextSnapshot string  `gorm:"size:1000;not null" json:"question_text_snapshot"`
	QuestionPoints       int     `gorm:"not null" json:"question_points"`
	CorrectAnswerText    string  `gorm:"size:500;not null" json:"correct_answer_text"`

	// Grading fields: nil before submission, all set afterwards.
	// An unanswered question is graded false/0, never left nil.
	SelectedAnswerID   *string `gorm:"size:36" json:"selected_answer_id"`
	SelectedAnswerText *string `gorm:"size:500" json:"selected_answer_text"`
	IsCorrect          *bool   `json:"is_correct"`
	PointsEarned       *int    `json:"points_earned"`
}

// TableName defines the table name for GORM
func (AttemptAnswer) TableName() string {
	return "attempt_answers"
}

// Graded reports whether the grading fields have been filled in.
func (a *AttemptAnswer) Graded() bool {
	return a.IsCorrect != nil && a.PointsEarned != nil
}

// Correct returns the correctness flag, false when ungraded.
func (a *AttemptAnswer) Correct() bool {
	return a.IsCorrect != nil && *a.IsCorrect
}

// Earned returns the points earned, 0 when ungraded.
func (a *AttemptAnswer) Earned() int {
	if a.PointsEarned == nil {
		return 0
	}
	return *a.PointsEarned
}
