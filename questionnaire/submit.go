package questionnaire

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/pinte/recruiting/model"
	"github.com/pinte/recruiting/scoring"
)

type Answer struct {
	QuestionID        int   `json:"question_id"`
	SelectedOptionIDs []int `json:"selected_option_ids"`
}

type SubmitRequest struct {
	CandidateID int      `json:"candidate_id"`
	TemplateID  int      `json:"template_id"`
	Answers     []Answer `json:"answers"`
}

// Submit validates and records a candidate's answers against one
// template, scoring synchronously. Validation runs in full before
// anything is written; the write is a single transaction, so a failure
// partway leaves no rows behind.
//
// A resubmission for the same (candidate, template) replaces the
// previous response and its selections; the newest response is always
// the authoritative one.
func Submit(ctx context.Context, db *sql.DB, req SubmitRequest) (*model.Response, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var candidateStatus string
	err = tx.QueryRowContext(ctx,
		"SELECT status FROM candidate WHERE id = ?", req.CandidateID,
	).Scan(&candidateStatus)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCandidateNotFound
	}
	if err != nil {
		return nil, err
	}

	template, err := loadTemplate(ctx, tx, req.TemplateID)
	if err != nil {
		return nil, err
	}

	selections, err := validateAnswers(template, req.Answers)
	if err != nil {
		return nil, err
	}

	// replace any previous response for this (candidate, template);
	// selections go with it through the FK cascade
	_, err = tx.ExecContext(ctx, `
		DELETE FROM questionnaire_response
		WHERE candidate_id = ?
			AND template_id = ?`,
		req.CandidateID, req.TemplateID,
	)
	if err != nil {
		return nil, err
	}

	result := scoring.ResponseScore(template.Questions, selections)

	response := model.Response{
		CandidateID: req.CandidateID,
		TemplateID:  req.TemplateID,
		PositionKey: template.PositionKey,
		Score:       result.Score,
		MaxScore:    result.MaxScore,
		Percentage:  result.Percentage,
		SubmittedAt: time.Now(),
	}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO questionnaire_response (candidate_id, template_id, position_key, score, max_score, submitted_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id`,
		response.CandidateID, response.TemplateID, response.PositionKey,
		response.Score, response.MaxScore, response.SubmittedAt,
	).Scan(&response.ID)
	if err != nil {
		return nil, err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO selected_option (response_id, question_id, option_id)
		VALUES (?, ?, ?)`)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	for _, answer := range req.Answers {
		for _, optionID := range answer.SelectedOptionIDs {
			_, err = stmt.ExecContext(ctx, response.ID, answer.QuestionID, optionID)
			if err != nil {
				return nil, err
			}
			response.Selections = append(response.Selections, model.SelectedOption{
				ResponseID: response.ID,
				QuestionID: answer.QuestionID,
				OptionID:   optionID,
			})
		}
	}

	err = updateCandidateStatus(ctx, tx, req.CandidateID, candidateStatus, template.PositionKey)
	if err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return &response, nil
}

// validateAnswers checks every answer against the template before any
// write happens, and returns the selections keyed by question id.
func validateAnswers(template *model.Template, answers []Answer) (map[int][]int, error) {
	questions := make(map[int]*model.Question, len(template.Questions))
	options := make(map[int]map[int]bool, len(template.Questions))
	for i := range template.Questions {
		q := &template.Questions[i]
		questions[q.ID] = q
		options[q.ID] = make(map[int]bool, len(q.Options))
		for _, opt := range q.Options {
			options[q.ID][opt.ID] = true
		}
	}

	selections := make(map[int][]int, len(answers))
	for _, answer := range answers {
		question, ok := questions[answer.QuestionID]
		if !ok {
			return nil, &ValidationError{
				QuestionID: answer.QuestionID,
				Reason:     "question does not belong to template",
			}
		}
		if _, dup := selections[answer.QuestionID]; dup {
			return nil, &ValidationError{
				QuestionID: answer.QuestionID,
				Reason:     "question answered more than once",
			}
		}
		if question.QuestionType == model.SingleSelect && len(answer.SelectedOptionIDs) > 1 {
			// reject rather than truncate: more than one selection on a
			// single-select is a client bug worth surfacing
			return nil, &ValidationError{
				QuestionID: answer.QuestionID,
				Reason:     "multiple selections on a single-select question",
			}
		}

		seen := make(map[int]bool, len(answer.SelectedOptionIDs))
		for _, optionID := range answer.SelectedOptionIDs {
			if !options[answer.QuestionID][optionID] {
				return nil, &ValidationError{
					QuestionID: answer.QuestionID,
					OptionID:   optionID,
					Reason:     "option does not belong to question",
				}
			}
			if seen[optionID] {
				return nil, &ValidationError{
					QuestionID: answer.QuestionID,
					OptionID:   optionID,
					Reason:     "option selected more than once",
				}
			}
			seen[optionID] = true
		}
		selections[answer.QuestionID] = answer.SelectedOptionIDs
	}
	return selections, nil
}

// updateCandidateStatus mirrors questionnaire progress onto the
// candidate: short of the position's active step count means
// incomplete, all steps answered means pending. Candidates already past
// review keep their stage.
func updateCandidateStatus(ctx context.Context, tx *sql.Tx, candidateID int, current, positionKey string) error {
	switch current {
	case model.StatusReviewing, model.StatusShortlisted, model.StatusInterviewed,
		model.StatusAccepted, model.StatusRejected:
		return nil
	}

	var totalSteps int
	err := tx.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM questionnaire_template
		WHERE position_key = ?
			AND is_active = 1`,
		positionKey,
	).Scan(&totalSteps)
	if err != nil {
		return err
	}

	var completedSteps int
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT template_id)
		FROM questionnaire_response
		WHERE candidate_id = ?
			AND position_key = ?`,
		candidateID, positionKey,
	).Scan(&completedSteps)
	if err != nil {
		return err
	}

	status := model.StatusPending
	if totalSteps > 0 && completedSteps < totalSteps {
		status = model.StatusIncomplete
	}
	if status == current {
		return nil
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE candidate SET status = ? WHERE id = ?",
		status, candidateID,
	)
	return err
}
