package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type QuestionType string

const (
	SingleSelect QuestionType = "single_select"
	MultiSelect  QuestionType = "multi_select"
)

func (t QuestionType) Valid() bool {
	return t == SingleSelect || t == MultiSelect
}

type ScoringMode string

const (
	AllOrNothing ScoringMode = "all_or_nothing"
	Partial      ScoringMode = "partial"
	Weighted     ScoringMode = "weighted"
)

func (m ScoringMode) Valid() bool {
	return m == AllOrNothing || m == Partial || m == Weighted
}

type Template struct {
	ID          int             `json:"id,omitempty"`
	PositionKey string          `json:"position_key"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	StepNumber  int             `json:"step_number"`
	Version     int             `json:"version,omitempty"`
	IsActive    bool            `json:"is_active"`
	TotalPoints decimal.Decimal `json:"total_points"`
	Questions   []Question      `json:"questions"`
}

type Question struct {
	ID           int             `json:"id,omitempty"`
	TemplateID   int             `json:"template_id,omitempty"`
	QuestionText string          `json:"question_text"`
	QuestionType QuestionType    `json:"question_type"`
	ScoringMode  ScoringMode     `json:"scoring_mode"`
	Points       decimal.Decimal `json:"points"`
	Order        int             `json:"order"`
	Options      []Option        `json:"options"`
}

type Option struct {
	ID         int    `json:"id,omitempty"`
	QuestionID int    `json:"question_id,omitempty"`
	OptionText string `json:"option_text"`
	Order      int    `json:"order"`

	// Answer-revealing fields, omitted from public step payloads.
	IsCorrect    *bool            `json:"is_correct,omitempty"`
	OptionPoints *decimal.Decimal `json:"option_points,omitempty"`
}

type Response struct {
	ID          int              `json:"id"`
	CandidateID int              `json:"candidate_id"`
	TemplateID  int              `json:"template_id"`
	PositionKey string           `json:"position_key"`
	Score       decimal.Decimal  `json:"score"`
	MaxScore    decimal.Decimal  `json:"max_score"`
	Percentage  decimal.Decimal  `json:"percentage"`
	SubmittedAt time.Time        `json:"submitted_at"`
	Selections  []SelectedOption `json:"selected_options,omitempty"`
}

type SelectedOption struct {
	ID         int       `json:"id,omitempty"`
	ResponseID int       `json:"response_id,omitempty"`
	QuestionID int       `json:"question_id"`
	OptionID   int       `json:"option_id"`
	CreatedAt  time.Time `json:"created_at,omitempty"`
}

// Candidate statuses, in pipeline order. Questionnaire submission only
// moves a candidate between incomplete and pending; later stages belong
// to the admin review workflow.
const (
	StatusIncomplete  = "incomplete"
	StatusPending     = "pending"
	StatusReviewing   = "reviewing"
	StatusShortlisted = "shortlisted"
	StatusInterviewed = "interviewed"
	StatusAccepted    = "accepted"
	StatusRejected    = "rejected"
)

type Candidate struct {
	ID              int    `json:"id,omitempty"`
	FullName        string `json:"full_name"`
	Phone           string `json:"phone"`
	Email           string `json:"email"`
	PositionApplied string `json:"position_applied"`
	Status          string `json:"status"`
}

type Position struct {
	ID       int    `json:"id,omitempty"`
	Name     string `json:"name"`
	IsActive bool   `json:"is_active"`
}
