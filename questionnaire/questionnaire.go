// Package questionnaire implements the per-position questionnaire
// subsystem: step resolution for the multi-step candidate form,
// response recording with synchronous scoring, and recalculation of
// stored scores when an administrator edits the scoring configuration.
package questionnaire

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/pinte/recruiting/model"
)

var (
	ErrTemplateNotFound  = errors.New("template not found")
	ErrCandidateNotFound = errors.New("candidate not found")
)

// ValidationError reports a submitted answer that does not fit the
// target template. It names the offending question (and option, when
// one is at fault) so the caller can point at the exact field.
type ValidationError struct {
	QuestionID int    `json:"question_id,omitempty"`
	OptionID   int    `json:"option_id,omitempty"`
	Reason     string `json:"reason"`
}

func (e *ValidationError) Error() string {
	switch {
	case e.OptionID != 0:
		return fmt.Sprintf("question %d: option %d: %s", e.QuestionID, e.OptionID, e.Reason)
	case e.QuestionID != 0:
		return fmt.Sprintf("question %d: %s", e.QuestionID, e.Reason)
	}
	return e.Reason
}

// GetTemplate reads a template with questions, options and answer data
// included. This is the privileged retrieval path; the public one is
// ResolveSteps.
func GetTemplate(ctx context.Context, db *sql.DB, templateID int) (*model.Template, error) {
	return loadTemplate(ctx, db, templateID)
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// loadTemplate reads a template with its questions and options fully
// populated, questions and options in display order. The caller decides
// whether answer-revealing fields may leave the process.
func loadTemplate(ctx context.Context, q querier, templateID int) (*model.Template, error) {
	t := model.Template{ID: templateID, TotalPoints: decimal.Zero}
	err := q.QueryRowContext(ctx, `
		SELECT position_key, title, description, step_number, version, is_active
		FROM questionnaire_template
		WHERE id = ?`,
		templateID,
	).Scan(&t.PositionKey, &t.Title, &t.Description, &t.StepNumber, &t.Version, &t.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTemplateNotFound
	}
	if err != nil {
		return nil, err
	}

	t.Questions, err = loadQuestions(ctx, q, templateID)
	if err != nil {
		return nil, err
	}
	for _, question := range t.Questions {
		t.TotalPoints = t.TotalPoints.Add(question.Points)
	}
	return &t, nil
}

func loadQuestions(ctx context.Context, q querier, templateID int) ([]model.Question, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, question_text, question_type, scoring_mode, points, display_order
		FROM question
		WHERE template_id = ?
		ORDER BY display_order, id`,
		templateID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	questions := []model.Question{}
	index := map[int]int{}
	for rows.Next() {
		question := model.Question{TemplateID: templateID, Options: []model.Option{}}
		err = rows.Scan(
			&question.ID, &question.QuestionText, &question.QuestionType,
			&question.ScoringMode, &question.Points, &question.Order,
		)
		if err != nil {
			return nil, err
		}
		index[question.ID] = len(questions)
		questions = append(questions, question)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	optRows, err := q.QueryContext(ctx, `
		SELECT o.id, o.question_id, o.option_text, o.is_correct, o.option_points, o.display_order
		FROM question_option o
		INNER JOIN question qn ON (qn.id = o.question_id)
		WHERE qn.template_id = ?
		ORDER BY o.question_id, o.display_order, o.id`,
		templateID,
	)
	if err != nil {
		return nil, err
	}
	defer optRows.Close()

	for optRows.Next() {
		var opt model.Option
		var isCorrect bool
		var optionPoints decimal.Decimal
		err = optRows.Scan(&opt.ID, &opt.QuestionID, &opt.OptionText, &isCorrect, &optionPoints, &opt.Order)
		if err != nil {
			return nil, err
		}
		opt.IsCorrect = &isCorrect
		opt.OptionPoints = &optionPoints

		i, ok := index[opt.QuestionID]
		if !ok {
			continue
		}
		questions[i].Options = append(questions[i].Options, opt)
	}
	return questions, optRows.Err()
}

// loadSelections reads the recorded selections of a response, grouped
// by question id.
func loadSelections(ctx context.Context, q querier, responseID int) (map[int][]int, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT question_id, option_id
		FROM selected_option
		WHERE response_id = ?
		ORDER BY question_id, option_id`,
		responseID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	selections := map[int][]int{}
	for rows.Next() {
		var questionID, optionID int
		if err = rows.Scan(&questionID, &optionID); err != nil {
			return nil, err
		}
		selections[questionID] = append(selections[questionID], optionID)
	}
	return selections, rows.Err()
}
