package entity

import (
	"time"
)

// Quiz represents a quiz definition from the catalog. The catalog is written
// by the authoring application; this service only ever reads it.
type Quiz struct {
	ID        string     `gorm:"primaryKey;size:36" json:"id"`
	Title     string     `gorm:"size:200;not null" json:"title"`
	OwnerID   string     `gorm:"size:36;not null;index" json:"owner_id"`
	Questions []Question `gorm:"foreignKey:QuizID" json:"questions,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// TableName defines the table name for GORM
func (Quiz) TableName() string {
	return "quizzes"
}

// TotalPoints returns the sum of point values over the loaded questions.
func (q *Quiz) TotalPoints() int {
	total := 0
	for _, question := range q.Questions {
		total += question.Points
	}
	return total
}
