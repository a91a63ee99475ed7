package models

import (
	"time"

	"gorm.io/datatypes"
)

type QuestionType string

const (
	MultipleChoice QuestionType = "multiple_choice"
	TrueFalse      QuestionType = "true_false"
	RatingScale    QuestionType = "rating_scale"
	Text           QuestionType = "text"
)

type ModuleType string

const (
	ModuleIntelligence ModuleType = "intelligence"
	ModulePersonality  ModuleType = "personality"
	ModuleAptitude     ModuleType = "aptitude"
	ModuleInterest     ModuleType = "interest"
)

// Test is one psychometric instrument. A test whose QuestionType is
// rating_scale measures preference, not performance: its attempts appear in
// completion statistics but are excluded from score averaging.
type Test struct {
	ID           uint         `json:"id" gorm:"primaryKey"`
	Name         string       `json:"name" gorm:"size:255;not null"`
	Description  *string      `json:"description" gorm:"type:text"`
	Category     string       `json:"category" gorm:"size:100;index"`
	ModuleType   ModuleType   `json:"module_type" gorm:"size:50;index"`
	QuestionType QuestionType `json:"question_type" gorm:"size:50;not null"`

	TotalQuestions int  `json:"total_questions"`
	TimeLimit      int  `json:"time_limit"` // minutes
	PassingScore   *int `json:"passing_score"`

	// Display metadata
	Icon      *string `json:"icon" gorm:"size:50"`
	CardColor *string `json:"card_color" gorm:"size:20"`

	IsActive bool `json:"is_active" gorm:"default:true"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Questions []Question `json:"questions,omitempty" gorm:"foreignKey:TestID"`
}

// IsRatingScale reports whether the whole test is a rating-scale instrument.
func (t *Test) IsRatingScale() bool {
	return t.QuestionType == RatingScale
}

type Question struct {
	ID     uint `json:"id" gorm:"primaryKey"`
	TestID uint `json:"test_id" gorm:"not null;index"`

	Type     QuestionType `json:"type" gorm:"size:50;not null"`
	Text     string       `json:"text" gorm:"type:text;not null"`
	Sequence int          `json:"sequence" gorm:"not null"`

	// Options and the correct answer / trait weights, shaped by Type.
	Options    datatypes.JSON `json:"options" gorm:"type:jsonb"`
	ScoringKey datatypes.JSON `json:"scoring_key" gorm:"type:jsonb"`

	TraitName *string `json:"trait_name" gorm:"size:100"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Test Test `json:"-" gorm:"foreignKey:TestID"`
}

// IsScorable reports whether answers to this question contribute to the raw
// score denominator. Rating-scale items record preference only.
func (q *Question) IsScorable() bool {
	return q.Type != RatingScale
}
