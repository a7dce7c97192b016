package entity

// Question represents a single question within a catalog quiz.
type Question struct {
	ID           string   `gorm:"primaryKey;size:36" json:"id"`
	QuizID       string   `gorm:"size:36;not null;index" json:"quiz_id"`
	Text         string   `gorm:"size:1000;not null" json:"text"`
	DisplayOrder int      `gorm:"not null" json:"display_order"`
	Points       int      `gorm:"not null;default:1" json:"points"`
	Answers      []Answer `gorm:"foreignKey:QuestionID" json:"answers,omitempty"`
}

// TableName defines the table name for GORM
func (Question) TableName() string {
	return "questions"
}

// CorrectAnswer returns the answer option flagged correct, or nil when the
// loaded options carry no correct flag.
func (q *Question) CorrectAnswer() *Answer {
	for i := range q.Answers {
		if q.Answers[i].IsCorrect {
			return &q.Answers[i]
		}
	}
	return nil
}

// Answer represents one answer option of a question. Exactly one option per
// question is flagged correct; the flag must never reach a taking view.
type Answer struct {
	ID           string `gorm:"primaryKey;size:36" json:"id"`
	QuestionID   string `gorm:"size:36;not null;index" json:"question_id"`
	Text         string `gorm:"size:500;not null" json:"text"`
	DisplayOrder int    `gorm:"not null" json:"display_order"`
	IsCorrect    bool   `gorm:"not null;default:false" json:"-"` // hidden from clients
}

// TableName defines the table name for GORM
func (Answer) TableName() string {
	return "answers"
}
