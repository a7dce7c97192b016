package entity

import (
	"math"
	"time"
)

// Attempt status constants
const (
	AttemptStatusInProgress = "in_progress"
	AttemptStatusSubmitted  = "submitted"
)

// Attempt represents one taker's pass at a quiz. Everything needed to
// redisplay or grade the attempt is frozen into the attempt and its answer
// rows at start time, so later quiz edits never change this attempt.
type Attempt struct {
	ID                  string          `gorm:"primaryKey;size:36" json:"id"`
	UserID              string          `gorm:"size:36;not null;index" json:"user_id"`
	QuizID              *string         `gorm:"size:36;index" json:"quiz_id"` // nil once the source quiz is deleted
	QuizTitleSnapshot   string          `gorm:"size:200;not null" json:"quiz_title_snapshot"`
	TotalPointsPossible int             `gorm:"not null" json:"total_points_possible"`
	TotalScore          *int            `json:"total_score"` // nil until submitted
	StartedAt           time.Time       `gorm:"not null" json:"started_at"`
	SubmittedAt         *time.Time      `json:"submitted_at"`
	Status              string          `gorm:"size:20;not null;default:'in_progress';index" json:"status"`
	Answers             []AttemptAnswer `gorm:"foreignKey:AttemptID" json:"answers,omitempty"`
}

// TableName defines the table name for GORM
func (Attempt) TableName() string {
	return "quiz_attempts"
}

// IsSubmitted reports whether the attempt has reached its terminal state.
func (a *Attempt) IsSubmitted() bool {
	return a.Status == AttemptStatusSubmitted
}

// Score returns the stored total score, or 0 when the attempt is ungraded.
func (a *Attempt) Score() int {
	if a.TotalScore == nil {
		return 0
	}
	return *a.TotalScore
}

// Percentage returns the score as a percentage of the points possible,
// rounded to one decimal place. Zero points possible yields 0.
func (a *Attempt) Percentage() float64 {
	if a.TotalPointsPossible == 0 {
		return 0
	}
	return RoundPercentage(float64(a.Score()) / float64(a.TotalPointsPossible) * 100)
}

// RoundPercentage rounds a percentage to one decimal place.
func RoundPercentage(p float64) float64 {
	return math.Round(p*10) / 10
}
